package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"nietladen/internal/apperr"
	"nietladen/internal/models"
	"nietladen/internal/store"
)

// ResolveBrand finds a brand by the slug of name or creates it as PENDING.
// It runs against st, normally an open transaction. A concurrent insert of
// the same slug is absorbed: the create runs in a savepoint and the row that
// won is read back. created reports whether this call inserted the row.
func ResolveBrand(ctx context.Context, st store.Store, name string) (b *models.Brand, created bool, err error) {
	name = strings.TrimSpace(name)
	slug := DeriveSlug(name)
	if slug == "" {
		return nil, false, apperr.Validation("brand name must contain letters or digits")
	}

	existing, err := st.GetBrandBySlug(ctx, slug)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, false, fmt.Errorf("failed to look up brand %q: %w", slug, err)
	}

	b = &models.Brand{Name: name, Slug: slug, Status: models.StatusPending}
	err = st.WithTx(ctx, func(sp store.Store) error {
		return sp.CreateBrand(ctx, b)
	})
	if errors.Is(err, store.ErrDuplicate) {
		existing, err = st.GetBrandBySlug(ctx, slug)
		if err != nil {
			return nil, false, fmt.Errorf("failed to re-read brand %q: %w", slug, err)
		}
		return existing, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to create brand %q: %w", slug, err)
	}
	return b, true, nil
}

// ResolveModel finds a model of brand by the slug of name or creates it as
// PENDING, absorbing a concurrent insert the same way as ResolveBrand.
func ResolveModel(ctx context.Context, st store.Store, brand *models.Brand, name string, yearRange *string) (m *models.VehicleModel, created bool, err error) {
	name = strings.TrimSpace(name)
	slug := DeriveSlug(name)
	if slug == "" {
		return nil, false, apperr.Validation("model name must contain letters or digits")
	}

	find := func() (*models.VehicleModel, error) {
		list, err := st.ListModelsByBrand(ctx, brand.ID, true)
		if err != nil {
			return nil, err
		}
		for i := range list {
			if list[i].Slug == slug {
				return &list[i], nil
			}
		}
		return nil, nil
	}

	existing, err := find()
	if err != nil {
		return nil, false, fmt.Errorf("failed to look up model %q: %w", slug, err)
	}
	if existing != nil {
		return existing, false, nil
	}

	m = &models.VehicleModel{
		BrandID:   brand.ID,
		Name:      name,
		Slug:      slug,
		YearRange: optionalString(yearRange),
		Status:    models.StatusPending,
	}
	err = st.WithTx(ctx, func(sp store.Store) error {
		return sp.CreateModel(ctx, m)
	})
	if errors.Is(err, store.ErrDuplicate) {
		existing, err = find()
		if err != nil || existing == nil {
			return nil, false, fmt.Errorf("failed to re-read model %q: %w", slug, errors.Join(err, store.ErrNotFound))
		}
		return existing, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to create model %q: %w", slug, err)
	}
	m.BrandName = brand.Name
	m.BrandSlug = brand.Slug
	m.BrandStatus = brand.Status
	return m, true, nil
}

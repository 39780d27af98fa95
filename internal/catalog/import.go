package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"nietladen/internal/apperr"
	"nietladen/internal/auth"
	"nietladen/internal/metrics"
	"nietladen/internal/models"
	"nietladen/internal/store"
)

// ImportResult reports what an import batch created.
type ImportResult struct {
	ImportedBrands int            `json:"importedBrands"`
	ImportedModels int            `json:"importedModels"`
	Brands         []models.Brand `json:"brands"`
}

// importGroup is one brand of a batch with its deduplicated model names.
type importGroup struct {
	name   string
	slug   string
	models []string
}

// parseImport reads tab-separated "brand<TAB>model" lines. Lines with only a
// brand are kept so the brand is created without models. Groups come back
// in first-seen order; model names are deduplicated case-insensitively per
// brand.
func parseImport(data string) []importGroup {
	var groups []importGroup
	index := make(map[string]int)
	seen := make(map[string]map[string]struct{})

	for line := range strings.SplitSeq(data, "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		cols := strings.Split(line, "\t")
		brandName := strings.TrimSpace(cols[0])
		slug := DeriveSlug(brandName)
		if slug == "" {
			continue
		}

		i, ok := index[slug]
		if !ok {
			i = len(groups)
			index[slug] = i
			groups = append(groups, importGroup{name: brandName, slug: slug})
			seen[slug] = make(map[string]struct{})
		}

		if len(cols) < 2 {
			continue
		}
		modelName := strings.TrimSpace(cols[1])
		if DeriveSlug(modelName) == "" {
			continue
		}
		key := strings.ToLower(modelName)
		if _, dup := seen[slug][key]; dup {
			continue
		}
		seen[slug][key] = struct{}{}
		groups[i].models = append(groups[i].models, modelName)
	}
	return groups
}

// Import ingests a batch of brand/model pairs in one transaction. Brands are
// matched by slug and models by case-insensitive name (or slug) within their
// brand, so replaying a batch creates nothing.
func (s *Service) Import(ctx context.Context, caller models.Caller, data string) (*ImportResult, error) {
	if err := auth.RequireRole(caller.Roles, models.RoleCatalogManager); err != nil {
		return nil, err
	}
	if strings.TrimSpace(data) == "" {
		return nil, apperr.Validation("import data is required")
	}

	groups := parseImport(data)
	res := &ImportResult{}

	err := s.store.WithTx(ctx, func(tx store.Store) error {
		for _, g := range groups {
			brand, created, err := importBrand(ctx, tx, g)
			if err != nil {
				return err
			}
			if created {
				res.ImportedBrands++
			}

			existing, err := tx.ListModelsByBrand(ctx, brand.ID, true)
			if err != nil {
				return fmt.Errorf("failed to list models of %q: %w", g.slug, err)
			}
			names := make(map[string]struct{}, len(existing))
			slugs := make(map[string]struct{}, len(existing))
			for _, m := range existing {
				names[strings.ToLower(m.Name)] = struct{}{}
				slugs[m.Slug] = struct{}{}
			}

			for _, name := range g.models {
				slug := DeriveSlug(name)
				if _, ok := names[strings.ToLower(name)]; ok {
					continue
				}
				if _, ok := slugs[slug]; ok {
					continue
				}
				m := &models.VehicleModel{BrandID: brand.ID, Name: name, Slug: slug, Status: models.StatusApproved}
				err := tx.WithTx(ctx, func(sp store.Store) error {
					return sp.CreateModel(ctx, m)
				})
				names[strings.ToLower(name)] = struct{}{}
				slugs[slug] = struct{}{}
				if errors.Is(err, store.ErrDuplicate) {
					// Inserted concurrently; keep the existing row
					continue
				}
				if err != nil {
					return fmt.Errorf("failed to create model %q of %q: %w", slug, g.slug, err)
				}
				res.ImportedModels++
			}
		}
		return nil
	})
	if err != nil {
		return nil, apperr.FromStore(err, "catalog entry")
	}

	metrics.RecordImport(res.ImportedBrands, res.ImportedModels)
	s.logger.Info("catalog import finished",
		zap.Int("brands", res.ImportedBrands),
		zap.Int("models", res.ImportedModels),
		zap.Int("groups", len(groups)),
	)

	brands, err := s.store.ListBrands(ctx, true)
	if err != nil {
		return nil, err
	}
	res.Brands = brands
	return res, nil
}

// importBrand returns the brand with g's slug, creating it as APPROVED when
// absent. The create runs in a savepoint so a concurrent insert of the same
// slug is read back instead of failing the batch.
func importBrand(ctx context.Context, tx store.Store, g importGroup) (*models.Brand, bool, error) {
	brand, err := tx.GetBrandBySlug(ctx, g.slug)
	if err == nil {
		return brand, false, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, false, fmt.Errorf("failed to look up brand %q: %w", g.slug, err)
	}

	brand = &models.Brand{Name: g.name, Slug: g.slug, Status: models.StatusApproved}
	err = tx.WithTx(ctx, func(sp store.Store) error {
		return sp.CreateBrand(ctx, brand)
	})
	if errors.Is(err, store.ErrDuplicate) {
		existing, err := tx.GetBrandBySlug(ctx, g.slug)
		if err != nil {
			return nil, false, fmt.Errorf("failed to re-read brand %q: %w", g.slug, err)
		}
		return existing, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to create brand %q: %w", g.slug, err)
	}
	return brand, true, nil
}

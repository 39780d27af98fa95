// Package catalog implements the brand and model lifecycle: direct
// management by catalog managers, approval, resolution of names proposed by
// guide submitters, and bulk import.
package catalog

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"nietladen/internal/apperr"
	"nietladen/internal/auth"
	"nietladen/internal/models"
	"nietladen/internal/store"
	"nietladen/internal/validation"
)

// Service exposes the catalog workflow.
type Service struct {
	store  store.Store
	logger *zap.Logger
}

// New creates a catalog service.
func New(st store.Store, logger *zap.Logger) *Service {
	return &Service{store: st, logger: logger.Named("catalog")}
}

// DeriveSlug is the single slug derivation used for brands and models.
func DeriveSlug(name string) string {
	return validation.Slugify(name)
}

// BrandInput carries the editable brand fields.
type BrandInput struct {
	Name    string  `json:"name"`
	Slug    string  `json:"slug"`
	LogoURL *string `json:"logoUrl"`
}

// ModelInput carries the editable model fields. A zero BrandID on update
// keeps the current brand.
type ModelInput struct {
	BrandID          int64   `json:"brandId"`
	Name             string  `json:"name"`
	Slug             string  `json:"slug"`
	YearRange        *string `json:"yearRange"`
	ReferenceModelID *int64  `json:"referenceModelId"`
}

// nameAndSlug trims name and derives the slug from the explicit slug when
// given, otherwise from the name.
func nameAndSlug(name, slug string) (string, string, error) {
	name = strings.TrimSpace(name)
	if ok, msg := validation.ValidateName(name); !ok {
		return "", "", apperr.Validation(msg)
	}
	if strings.TrimSpace(slug) == "" {
		slug = name
	}
	slug = DeriveSlug(slug)
	if slug == "" {
		return "", "", apperr.Validation("slug is required")
	}
	return name, slug, nil
}

func optionalString(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

func (in BrandInput) brand() (*models.Brand, error) {
	name, slug, err := nameAndSlug(in.Name, in.Slug)
	if err != nil {
		return nil, err
	}
	logo := optionalString(in.LogoURL)
	if logo != nil {
		if ok, msg := validation.ValidateURL(*logo); !ok {
			return nil, apperr.Validation("logo: " + msg)
		}
	}
	return &models.Brand{Name: name, Slug: slug, LogoURL: logo}, nil
}

// ---- brands ----

// ListBrands returns the public catalog: approved brands with guide counts.
func (s *Service) ListBrands(ctx context.Context) ([]models.Brand, error) {
	return s.store.ListBrands(ctx, false)
}

// ListAllBrands returns every brand regardless of status.
func (s *Service) ListAllBrands(ctx context.Context, caller models.Caller) ([]models.Brand, error) {
	if err := auth.RequireRole(caller.Roles, models.RoleCatalogManager); err != nil {
		return nil, err
	}
	return s.store.ListBrands(ctx, true)
}

// CreateBrand adds an approved brand.
func (s *Service) CreateBrand(ctx context.Context, caller models.Caller, in BrandInput) (*models.Brand, error) {
	if err := auth.RequireRole(caller.Roles, models.RoleCatalogManager); err != nil {
		return nil, err
	}
	b, err := in.brand()
	if err != nil {
		return nil, err
	}
	b.Status = models.StatusApproved
	if err := s.store.CreateBrand(ctx, b); err != nil {
		return nil, apperr.FromStore(err, "brand")
	}
	s.logger.Info("brand created", zap.Int64("brand_id", b.ID), zap.String("slug", b.Slug))
	return b, nil
}

func (s *Service) UpdateBrand(ctx context.Context, caller models.Caller, id int64, in BrandInput) (*models.Brand, error) {
	if err := auth.RequireRole(caller.Roles, models.RoleCatalogManager); err != nil {
		return nil, err
	}
	b, err := in.brand()
	if err != nil {
		return nil, err
	}
	b.ID = id
	if err := s.store.UpdateBrand(ctx, b); err != nil {
		return nil, apperr.FromStore(err, "brand")
	}
	return b, nil
}

// DeleteBrand removes a brand with its models and their guide links.
// Deleting an absent brand is a no-op.
func (s *Service) DeleteBrand(ctx context.Context, caller models.Caller, id int64) error {
	if err := auth.RequireRole(caller.Roles, models.RoleCatalogManager); err != nil {
		return err
	}
	err := s.store.DeleteBrand(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		s.logger.Debug("brand already absent", zap.Int64("brand_id", id))
		return nil
	}
	if err != nil {
		return err
	}
	s.logger.Info("brand deleted", zap.Int64("brand_id", id))
	return nil
}

// ApproveBrand moves a brand to APPROVED; approving twice is harmless.
func (s *Service) ApproveBrand(ctx context.Context, caller models.Caller, id int64) (*models.Brand, error) {
	if err := auth.RequireRole(caller.Roles, models.RoleCatalogManager); err != nil {
		return nil, err
	}
	if err := s.store.SetBrandStatus(ctx, id, models.StatusApproved); err != nil {
		return nil, apperr.FromStore(err, "brand")
	}
	b, err := s.store.GetBrandByID(ctx, id)
	return b, apperr.FromStore(err, "brand")
}

// ---- models ----

// ListModelsForBrandSlug returns the approved models of an approved brand.
func (s *Service) ListModelsForBrandSlug(ctx context.Context, slug string) ([]models.VehicleModel, error) {
	b, err := s.publicBrand(ctx, slug)
	if err != nil {
		return nil, err
	}
	return s.store.ListModelsByBrand(ctx, b.ID, false)
}

// PublicModel finds an approved model by brand and model slug.
func (s *Service) PublicModel(ctx context.Context, brandSlug, modelSlug string) (*models.VehicleModel, error) {
	list, err := s.ListModelsForBrandSlug(ctx, brandSlug)
	if err != nil {
		return nil, err
	}
	for i := range list {
		if list[i].Slug == modelSlug {
			return &list[i], nil
		}
	}
	return nil, apperr.NotFound("model not found")
}

func (s *Service) publicBrand(ctx context.Context, slug string) (*models.Brand, error) {
	b, err := s.store.GetBrandBySlug(ctx, slug)
	if err != nil {
		return nil, apperr.FromStore(err, "brand")
	}
	if b.Status != models.StatusApproved {
		return nil, apperr.NotFound("brand not found")
	}
	return b, nil
}

// ListModels returns every model of a brand regardless of status.
func (s *Service) ListModels(ctx context.Context, caller models.Caller, brandID int64) ([]models.VehicleModel, error) {
	if err := auth.RequireRole(caller.Roles, models.RoleCatalogManager); err != nil {
		return nil, err
	}
	if _, err := s.store.GetBrandByID(ctx, brandID); err != nil {
		return nil, apperr.FromStore(err, "brand")
	}
	return s.store.ListModelsByBrand(ctx, brandID, true)
}

func (s *Service) GetModel(ctx context.Context, caller models.Caller, id int64) (*models.VehicleModel, error) {
	if err := auth.RequireRole(caller.Roles, models.RoleCatalogManager); err != nil {
		return nil, err
	}
	m, err := s.store.GetModelByID(ctx, id)
	return m, apperr.FromStore(err, "model")
}

func (s *Service) checkReference(ctx context.Context, selfID int64, ref *int64) error {
	if ref == nil {
		return nil
	}
	if *ref == selfID {
		return apperr.Validation("a model cannot reference itself")
	}
	if _, err := s.store.GetModelByID(ctx, *ref); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return apperr.Validation("reference model not found")
		}
		return err
	}
	return nil
}

// CreateModel adds an approved model under an existing brand.
func (s *Service) CreateModel(ctx context.Context, caller models.Caller, in ModelInput) (*models.VehicleModel, error) {
	if err := auth.RequireRole(caller.Roles, models.RoleCatalogManager); err != nil {
		return nil, err
	}
	name, slug, err := nameAndSlug(in.Name, in.Slug)
	if err != nil {
		return nil, err
	}
	if _, err := s.store.GetBrandByID(ctx, in.BrandID); err != nil {
		return nil, apperr.FromStore(err, "brand")
	}
	if err := s.checkReference(ctx, 0, in.ReferenceModelID); err != nil {
		return nil, err
	}

	m := &models.VehicleModel{
		BrandID:          in.BrandID,
		Name:             name,
		Slug:             slug,
		YearRange:        optionalString(in.YearRange),
		ReferenceModelID: in.ReferenceModelID,
		Status:           models.StatusApproved,
	}
	if err := s.store.CreateModel(ctx, m); err != nil {
		return nil, apperr.FromStore(err, "model")
	}
	s.logger.Info("model created", zap.Int64("model_id", m.ID), zap.Int64("brand_id", m.BrandID), zap.String("slug", m.Slug))
	return m, nil
}

func (s *Service) UpdateModel(ctx context.Context, caller models.Caller, id int64, in ModelInput) (*models.VehicleModel, error) {
	if err := auth.RequireRole(caller.Roles, models.RoleCatalogManager); err != nil {
		return nil, err
	}
	name, slug, err := nameAndSlug(in.Name, in.Slug)
	if err != nil {
		return nil, err
	}
	cur, err := s.store.GetModelByID(ctx, id)
	if err != nil {
		return nil, apperr.FromStore(err, "model")
	}
	brandID := cur.BrandID
	if in.BrandID != 0 && in.BrandID != brandID {
		if _, err := s.store.GetBrandByID(ctx, in.BrandID); err != nil {
			return nil, apperr.FromStore(err, "brand")
		}
		brandID = in.BrandID
	}
	if err := s.checkReference(ctx, id, in.ReferenceModelID); err != nil {
		return nil, err
	}

	m := &models.VehicleModel{
		ID:               id,
		BrandID:          brandID,
		Name:             name,
		Slug:             slug,
		YearRange:        optionalString(in.YearRange),
		ReferenceModelID: in.ReferenceModelID,
	}
	if err := s.store.UpdateModel(ctx, m); err != nil {
		return nil, apperr.FromStore(err, "model")
	}
	return m, nil
}

// DeleteModel removes a model and its guide links. Deleting an absent
// model is a no-op.
func (s *Service) DeleteModel(ctx context.Context, caller models.Caller, id int64) error {
	if err := auth.RequireRole(caller.Roles, models.RoleCatalogManager); err != nil {
		return err
	}
	err := s.store.DeleteModel(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		s.logger.Debug("model already absent", zap.Int64("model_id", id))
		return nil
	}
	if err != nil {
		return err
	}
	s.logger.Info("model deleted", zap.Int64("model_id", id))
	return nil
}

// ApproveModel moves a model to APPROVED. Its brand is left as is.
func (s *Service) ApproveModel(ctx context.Context, caller models.Caller, id int64) (*models.VehicleModel, error) {
	if err := auth.RequireRole(caller.Roles, models.RoleCatalogManager); err != nil {
		return nil, err
	}
	if err := s.store.SetModelStatus(ctx, id, models.StatusApproved); err != nil {
		return nil, apperr.FromStore(err, "model")
	}
	m, err := s.store.GetModelByID(ctx, id)
	return m, apperr.FromStore(err, "model")
}

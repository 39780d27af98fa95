// Package store defines the persistence contract shared by the workflow
// services. The Postgres implementation lives in internal/db and an
// in-process one in internal/store/memstore.
package store

import (
	"context"

	"nietladen/internal/models"
)

// Store defines persistence operations for the catalog, guides and users.
// Lookups of absent rows return ErrNotFound; unique violations return
// ErrDuplicate.
type Store interface {
	// brands
	ListBrands(ctx context.Context, includeAll bool) ([]models.Brand, error)
	GetBrandByID(ctx context.Context, id int64) (*models.Brand, error)
	GetBrandBySlug(ctx context.Context, slug string) (*models.Brand, error)
	CreateBrand(ctx context.Context, b *models.Brand) error
	UpdateBrand(ctx context.Context, b *models.Brand) error
	DeleteBrand(ctx context.Context, id int64) error
	SetBrandStatus(ctx context.Context, id int64, status models.Status) error

	// models
	ListModelsByBrand(ctx context.Context, brandID int64, includeAll bool) ([]models.VehicleModel, error)
	GetModelByID(ctx context.Context, id int64) (*models.VehicleModel, error)
	CreateModel(ctx context.Context, m *models.VehicleModel) error
	UpdateModel(ctx context.Context, m *models.VehicleModel) error
	DeleteModel(ctx context.Context, id int64) error
	SetModelStatus(ctx context.Context, id int64, status models.Status) error

	// guides
	CreateGuide(ctx context.Context, g *models.Guide) error
	GetGuideByID(ctx context.Context, id int64) (*models.Guide, error)
	// ListGuides returns guides newest first; an empty status lists all.
	ListGuides(ctx context.Context, status models.Status) ([]models.Guide, error)
	// ListGuidesForModel orders by helpful count, then newest first.
	ListGuidesForModel(ctx context.Context, modelID int64, status models.Status) ([]models.Guide, error)
	ListGuideModels(ctx context.Context, guideID int64) ([]models.VehicleModel, error)
	LinkGuideModel(ctx context.Context, guideID, modelID int64) error
	UpdateGuideStatus(ctx context.Context, id int64, status models.Status, approvedBy *int64) error
	UpdateGuideSubmitter(ctx context.Context, id int64, name string, email *string) error
	DeleteGuide(ctx context.Context, id int64) error
	IncrementFeedback(ctx context.Context, id int64, helpful bool) error
	CountGuidesByStatus(ctx context.Context) (map[models.Status]int, error)

	// steps
	ListSteps(ctx context.Context, guideID int64) ([]models.GuideStep, error)
	CreateStep(ctx context.Context, s *models.GuideStep) error
	// UpdateStep only touches a step that belongs to s.GuideID.
	UpdateStep(ctx context.Context, s *models.GuideStep) error
	// DeleteStep is a no-op when the step does not exist.
	DeleteStep(ctx context.Context, guideID, stepID int64) error

	// users
	ListUsers(ctx context.Context) ([]models.User, error)
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	CreateUser(ctx context.Context, u *models.User) error
	UpdateUserRoles(ctx context.Context, id int64, roles []models.Role) error
	UpdateUserPassword(ctx context.Context, id int64, hash string) error
	DeleteUser(ctx context.Context, id int64) error
	ListUserEmailsByRole(ctx context.Context, role models.Role) ([]string, error)

	// WithTx runs fn inside a transaction. Returning an error rolls back
	// everything fn did. Calling WithTx on the Store passed to fn opens a
	// nested savepoint.
	WithTx(ctx context.Context, fn func(Store) error) error
}

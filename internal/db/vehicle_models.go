package db

import (
	"context"

	"github.com/jackc/pgx/v5"

	"nietladen/internal/models"
)

// modelColumns selects a model joined with its brand.
const modelColumns = `m.id, m.brand_id, m.name, m.slug, m.year_range, m.reference_model_id, m.status,
	m.created_at, m.updated_at, b.name, b.slug, b.status,
	(SELECT COUNT(*) FROM guide_models gm JOIN guides g ON g.id = gm.guide_id
	  WHERE gm.model_id = m.id AND g.status = 'APPROVED')`

func scanModelRow(row pgx.Row, m *models.VehicleModel) error {
	return row.Scan(
		&m.ID,
		&m.BrandID,
		&m.Name,
		&m.Slug,
		&m.YearRange,
		&m.ReferenceModelID,
		&m.Status,
		&m.CreatedAt,
		&m.UpdatedAt,
		&m.BrandName,
		&m.BrandSlug,
		&m.BrandStatus,
		&m.GuideCount,
	)
}

func scanModel(row pgx.Row) (*models.VehicleModel, error) {
	var m models.VehicleModel
	if err := scanModelRow(row, &m); err != nil {
		return nil, mapError(err)
	}
	return &m, nil
}

func scanModels(rows pgx.Rows) ([]models.VehicleModel, error) {
	defer rows.Close()

	var list []models.VehicleModel
	for rows.Next() {
		var m models.VehicleModel
		if err := scanModelRow(rows, &m); err != nil {
			return nil, err
		}
		list = append(list, m)
	}
	return list, rows.Err()
}

func (d *DB) ListModelsByBrand(ctx context.Context, brandID int64, includeAll bool) ([]models.VehicleModel, error) {
	query := `
		SELECT ` + modelColumns + `
		FROM models m
		JOIN brands b ON b.id = m.brand_id
		WHERE m.brand_id = $1 AND ($2::boolean OR m.status = 'APPROVED')
		ORDER BY m.name, m.id
	`
	rows, err := d.q.Query(ctx, query, brandID, includeAll)
	if err != nil {
		return nil, err
	}
	return scanModels(rows)
}

func (d *DB) GetModelByID(ctx context.Context, id int64) (*models.VehicleModel, error) {
	query := `
		SELECT ` + modelColumns + `
		FROM models m
		JOIN brands b ON b.id = m.brand_id
		WHERE m.id = $1
	`
	return scanModel(d.q.QueryRow(ctx, query, id))
}

// CreateModel inserts a model; an empty status defaults to APPROVED.
func (d *DB) CreateModel(ctx context.Context, m *models.VehicleModel) error {
	if m.Status == "" {
		m.Status = models.StatusApproved
	}
	query := `
		INSERT INTO models (brand_id, name, slug, year_range, reference_model_id, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at
	`
	err := d.q.QueryRow(ctx, query, m.BrandID, m.Name, m.Slug, m.YearRange, m.ReferenceModelID, m.Status).
		Scan(&m.ID, &m.CreatedAt, &m.UpdatedAt)
	return mapError(err)
}

func (d *DB) UpdateModel(ctx context.Context, m *models.VehicleModel) error {
	query := `
		UPDATE models
		SET brand_id = $2, name = $3, slug = $4, year_range = $5, reference_model_id = $6, updated_at = NOW()
		WHERE id = $1
		RETURNING status, created_at, updated_at
	`
	err := d.q.QueryRow(ctx, query, m.ID, m.BrandID, m.Name, m.Slug, m.YearRange, m.ReferenceModelID).
		Scan(&m.Status, &m.CreatedAt, &m.UpdatedAt)
	return mapError(err)
}

// DeleteModel removes a model; its guide links cascade.
func (d *DB) DeleteModel(ctx context.Context, id int64) error {
	return affected(d.q.Exec(ctx, `DELETE FROM models WHERE id = $1`, id))
}

func (d *DB) SetModelStatus(ctx context.Context, id int64, status models.Status) error {
	query := `UPDATE models SET status = $2, updated_at = NOW() WHERE id = $1`
	return affected(d.q.Exec(ctx, query, id, status))
}

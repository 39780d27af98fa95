package db

import (
	"context"

	"github.com/jackc/pgx/v5"

	"nietladen/internal/models"
)

// brandColumns is the standard column list for brand queries. The guide
// count only includes approved guides.
const brandColumns = `b.id, b.name, b.slug, b.logo_url, b.status, b.created_at, b.updated_at,
	(SELECT COUNT(DISTINCT gm.guide_id)
	   FROM guide_models gm
	   JOIN models m ON m.id = gm.model_id
	   JOIN guides g ON g.id = gm.guide_id
	  WHERE m.brand_id = b.id AND g.status = 'APPROVED')`

func scanBrand(row pgx.Row) (*models.Brand, error) {
	var b models.Brand
	err := row.Scan(&b.ID, &b.Name, &b.Slug, &b.LogoURL, &b.Status, &b.CreatedAt, &b.UpdatedAt, &b.GuideCount)
	if err != nil {
		return nil, mapError(err)
	}
	return &b, nil
}

func scanBrands(rows pgx.Rows) ([]models.Brand, error) {
	defer rows.Close()

	var brands []models.Brand
	for rows.Next() {
		var b models.Brand
		if err := rows.Scan(&b.ID, &b.Name, &b.Slug, &b.LogoURL, &b.Status, &b.CreatedAt, &b.UpdatedAt, &b.GuideCount); err != nil {
			return nil, err
		}
		brands = append(brands, b)
	}
	return brands, rows.Err()
}

// ListBrands returns brands ordered by name; only approved ones unless
// includeAll is set.
func (d *DB) ListBrands(ctx context.Context, includeAll bool) ([]models.Brand, error) {
	query := `
		SELECT ` + brandColumns + `
		FROM brands b
		WHERE $1::boolean OR b.status = 'APPROVED'
		ORDER BY b.name, b.id
	`
	rows, err := d.q.Query(ctx, query, includeAll)
	if err != nil {
		return nil, err
	}
	return scanBrands(rows)
}

func (d *DB) GetBrandByID(ctx context.Context, id int64) (*models.Brand, error) {
	query := `SELECT ` + brandColumns + ` FROM brands b WHERE b.id = $1`
	return scanBrand(d.q.QueryRow(ctx, query, id))
}

func (d *DB) GetBrandBySlug(ctx context.Context, slug string) (*models.Brand, error) {
	query := `SELECT ` + brandColumns + ` FROM brands b WHERE b.slug = $1`
	return scanBrand(d.q.QueryRow(ctx, query, slug))
}

// CreateBrand inserts a brand; an empty status defaults to APPROVED.
func (d *DB) CreateBrand(ctx context.Context, b *models.Brand) error {
	if b.Status == "" {
		b.Status = models.StatusApproved
	}
	query := `
		INSERT INTO brands (name, slug, logo_url, status)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at
	`
	err := d.q.QueryRow(ctx, query, b.Name, b.Slug, b.LogoURL, b.Status).
		Scan(&b.ID, &b.CreatedAt, &b.UpdatedAt)
	return mapError(err)
}

func (d *DB) UpdateBrand(ctx context.Context, b *models.Brand) error {
	query := `
		UPDATE brands SET name = $2, slug = $3, logo_url = $4, updated_at = NOW()
		WHERE id = $1
		RETURNING status, created_at, updated_at
	`
	err := d.q.QueryRow(ctx, query, b.ID, b.Name, b.Slug, b.LogoURL).
		Scan(&b.Status, &b.CreatedAt, &b.UpdatedAt)
	return mapError(err)
}

// DeleteBrand removes a brand; models and their guide links cascade.
func (d *DB) DeleteBrand(ctx context.Context, id int64) error {
	return affected(d.q.Exec(ctx, `DELETE FROM brands WHERE id = $1`, id))
}

func (d *DB) SetBrandStatus(ctx context.Context, id int64, status models.Status) error {
	query := `UPDATE brands SET status = $2, updated_at = NOW() WHERE id = $1`
	return affected(d.q.Exec(ctx, query, id, status))
}

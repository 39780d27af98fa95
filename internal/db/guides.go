package db

import (
	"context"

	"github.com/jackc/pgx/v5"

	"nietladen/internal/models"
)

const guideColumns = `g.id, g.submitted_by_name, g.submitted_by_email, g.status, g.approved_by_user_id,
	g.helpful_count, g.not_helpful_count, g.created_at, g.updated_at`

func scanGuideRow(row pgx.Row, g *models.Guide) error {
	return row.Scan(
		&g.ID,
		&g.SubmittedByName,
		&g.SubmittedByEmail,
		&g.Status,
		&g.ApprovedByUserID,
		&g.HelpfulCount,
		&g.NotHelpfulCount,
		&g.CreatedAt,
		&g.UpdatedAt,
	)
}

func scanGuides(rows pgx.Rows) ([]models.Guide, error) {
	defer rows.Close()

	var guides []models.Guide
	for rows.Next() {
		var g models.Guide
		if err := scanGuideRow(rows, &g); err != nil {
			return nil, err
		}
		guides = append(guides, g)
	}
	return guides, rows.Err()
}

// CreateGuide inserts a guide; an empty status defaults to PENDING.
func (d *DB) CreateGuide(ctx context.Context, g *models.Guide) error {
	if g.Status == "" {
		g.Status = models.StatusPending
	}
	query := `
		INSERT INTO guides (submitted_by_name, submitted_by_email, status)
		VALUES ($1, $2, $3)
		RETURNING id, helpful_count, not_helpful_count, created_at, updated_at
	`
	err := d.q.QueryRow(ctx, query, g.SubmittedByName, g.SubmittedByEmail, g.Status).
		Scan(&g.ID, &g.HelpfulCount, &g.NotHelpfulCount, &g.CreatedAt, &g.UpdatedAt)
	return mapError(err)
}

func (d *DB) GetGuideByID(ctx context.Context, id int64) (*models.Guide, error) {
	var g models.Guide
	query := `SELECT ` + guideColumns + ` FROM guides g WHERE g.id = $1`
	if err := scanGuideRow(d.q.QueryRow(ctx, query, id), &g); err != nil {
		return nil, mapError(err)
	}
	return &g, nil
}

func (d *DB) ListGuides(ctx context.Context, status models.Status) ([]models.Guide, error) {
	query := `
		SELECT ` + guideColumns + `
		FROM guides g
		WHERE $1 = '' OR g.status = $1
		ORDER BY g.created_at DESC, g.id DESC
	`
	rows, err := d.q.Query(ctx, query, string(status))
	if err != nil {
		return nil, err
	}
	return scanGuides(rows)
}

func (d *DB) ListGuidesForModel(ctx context.Context, modelID int64, status models.Status) ([]models.Guide, error) {
	query := `
		SELECT ` + guideColumns + `
		FROM guides g
		JOIN guide_models gm ON gm.guide_id = g.id
		WHERE gm.model_id = $1 AND ($2 = '' OR g.status = $2)
		ORDER BY g.helpful_count DESC, g.created_at DESC, g.id DESC
	`
	rows, err := d.q.Query(ctx, query, modelID, string(status))
	if err != nil {
		return nil, err
	}
	return scanGuides(rows)
}

func (d *DB) ListGuideModels(ctx context.Context, guideID int64) ([]models.VehicleModel, error) {
	query := `
		SELECT ` + modelColumns + `
		FROM guide_models gm
		JOIN models m ON m.id = gm.model_id
		JOIN brands b ON b.id = m.brand_id
		WHERE gm.guide_id = $1
		ORDER BY b.name, m.name
	`
	rows, err := d.q.Query(ctx, query, guideID)
	if err != nil {
		return nil, err
	}
	return scanModels(rows)
}

// LinkGuideModel is idempotent for an existing pair.
func (d *DB) LinkGuideModel(ctx context.Context, guideID, modelID int64) error {
	query := `
		INSERT INTO guide_models (guide_id, model_id)
		VALUES ($1, $2)
		ON CONFLICT (guide_id, model_id) DO NOTHING
	`
	_, err := d.q.Exec(ctx, query, guideID, modelID)
	return mapError(err)
}

// UpdateGuideStatus sets the status; approvedBy is only written when non-nil.
func (d *DB) UpdateGuideStatus(ctx context.Context, id int64, status models.Status, approvedBy *int64) error {
	query := `
		UPDATE guides
		SET status = $2, approved_by_user_id = COALESCE($3, approved_by_user_id), updated_at = NOW()
		WHERE id = $1
	`
	return affected(d.q.Exec(ctx, query, id, status, approvedBy))
}

func (d *DB) UpdateGuideSubmitter(ctx context.Context, id int64, name string, email *string) error {
	query := `
		UPDATE guides SET submitted_by_name = $2, submitted_by_email = $3, updated_at = NOW()
		WHERE id = $1
	`
	return affected(d.q.Exec(ctx, query, id, name, email))
}

// DeleteGuide removes a guide; steps and model links cascade.
func (d *DB) DeleteGuide(ctx context.Context, id int64) error {
	return affected(d.q.Exec(ctx, `DELETE FROM guides WHERE id = $1`, id))
}

// IncrementFeedback bumps one counter atomically.
func (d *DB) IncrementFeedback(ctx context.Context, id int64, helpful bool) error {
	query := `UPDATE guides SET not_helpful_count = not_helpful_count + 1 WHERE id = $1`
	if helpful {
		query = `UPDATE guides SET helpful_count = helpful_count + 1 WHERE id = $1`
	}
	return affected(d.q.Exec(ctx, query, id))
}

func (d *DB) CountGuidesByStatus(ctx context.Context) (map[models.Status]int, error) {
	rows, err := d.q.Query(ctx, `SELECT status, COUNT(*) FROM guides GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[models.Status]int)
	for rows.Next() {
		var status models.Status
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		counts[status] = n
	}
	return counts, rows.Err()
}

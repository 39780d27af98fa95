package db

import (
	"context"

	"nietladen/internal/models"
)

func (d *DB) ListSteps(ctx context.Context, guideID int64) ([]models.GuideStep, error) {
	query := `
		SELECT id, guide_id, step_number, description, image_url, created_at, updated_at
		FROM guide_steps
		WHERE guide_id = $1
		ORDER BY step_number, id
	`
	rows, err := d.q.Query(ctx, query, guideID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var steps []models.GuideStep
	for rows.Next() {
		var s models.GuideStep
		if err := rows.Scan(&s.ID, &s.GuideID, &s.StepNumber, &s.Description, &s.ImageURL, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, err
		}
		steps = append(steps, s)
	}
	return steps, rows.Err()
}

func (d *DB) CreateStep(ctx context.Context, s *models.GuideStep) error {
	query := `
		INSERT INTO guide_steps (guide_id, step_number, description, image_url)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at
	`
	err := d.q.QueryRow(ctx, query, s.GuideID, s.StepNumber, s.Description, s.ImageURL).
		Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt)
	return mapError(err)
}

func (d *DB) UpdateStep(ctx context.Context, s *models.GuideStep) error {
	query := `
		UPDATE guide_steps
		SET step_number = $3, description = $4, image_url = $5, updated_at = NOW()
		WHERE id = $1 AND guide_id = $2
		RETURNING created_at, updated_at
	`
	err := d.q.QueryRow(ctx, query, s.ID, s.GuideID, s.StepNumber, s.Description, s.ImageURL).
		Scan(&s.CreatedAt, &s.UpdatedAt)
	return mapError(err)
}

func (d *DB) DeleteStep(ctx context.Context, guideID, stepID int64) error {
	_, err := d.q.Exec(ctx, `DELETE FROM guide_steps WHERE id = $1 AND guide_id = $2`, stepID, guideID)
	return err
}

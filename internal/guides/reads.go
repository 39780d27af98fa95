package guides

import (
	"context"
	"fmt"

	"nietladen/internal/apperr"
	"nietladen/internal/auth"
	"nietladen/internal/models"
)

// ListPending returns guides awaiting review, newest first.
func (s *Service) ListPending(ctx context.Context, caller models.Caller) ([]models.GuideSummary, error) {
	return s.ListByStatus(ctx, caller, models.StatusPending)
}

// ListByStatus returns guides in one status, or all guides for an empty
// status. Model names read "Model (Brand)".
func (s *Service) ListByStatus(ctx context.Context, caller models.Caller, status models.Status) ([]models.GuideSummary, error) {
	if err := auth.RequireRole(caller.Roles, models.RoleModerator); err != nil {
		return nil, err
	}
	if status != "" && !models.ValidGuideStatus(status) {
		return nil, apperr.Validation("invalid status")
	}

	guides, err := s.store.ListGuides(ctx, status)
	if err != nil {
		return nil, fmt.Errorf("failed to list guides: %w", err)
	}
	out := make([]models.GuideSummary, 0, len(guides))
	for _, g := range guides {
		linked, err := s.store.ListGuideModels(ctx, g.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to list models of guide %d: %w", g.ID, err)
		}
		names := make([]string, 0, len(linked))
		for _, m := range linked {
			names = append(names, m.Name+" ("+m.BrandName+")")
		}
		out = append(out, models.GuideSummary{Guide: g, ModelNames: names})
	}
	return out, nil
}

// Details returns a guide with its ordered steps, linked models and the
// name of the approving moderator.
func (s *Service) Details(ctx context.Context, caller models.Caller, id int64) (*models.GuideDetails, error) {
	if err := auth.RequireRole(caller.Roles, models.RoleModerator); err != nil {
		return nil, err
	}
	g, err := s.getGuide(ctx, s.store, id)
	if err != nil {
		return nil, err
	}
	d, err := s.details(ctx, g)
	if err != nil {
		return nil, err
	}
	if g.ApprovedByUserID != nil {
		if u, err := s.store.GetUserByID(ctx, *g.ApprovedByUserID); err == nil {
			d.ApprovedByName = &u.Name
		}
	}
	return d, nil
}

func (s *Service) details(ctx context.Context, g *models.Guide) (*models.GuideDetails, error) {
	steps, err := s.store.ListSteps(ctx, g.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list steps: %w", err)
	}
	linked, err := s.store.ListGuideModels(ctx, g.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list guide models: %w", err)
	}
	if steps == nil {
		steps = []models.GuideStep{}
	}
	if linked == nil {
		linked = []models.VehicleModel{}
	}
	return &models.GuideDetails{Guide: *g, Steps: steps, Models: linked}, nil
}

// ListApprovedForModel returns the published guides of a model, most
// helpful first.
func (s *Service) ListApprovedForModel(ctx context.Context, modelID int64) ([]models.GuideDetails, error) {
	guides, err := s.store.ListGuidesForModel(ctx, modelID, models.StatusApproved)
	if err != nil {
		return nil, fmt.Errorf("failed to list guides: %w", err)
	}
	out := make([]models.GuideDetails, 0, len(guides))
	for i := range guides {
		d, err := s.details(ctx, &guides[i])
		if err != nil {
			return nil, err
		}
		out = append(out, *redact(d))
	}
	return out, nil
}

// PublicGuide returns an approved guide; anything else is NotFound.
func (s *Service) PublicGuide(ctx context.Context, id int64) (*models.GuideDetails, error) {
	g, err := s.getGuide(ctx, s.store, id)
	if err != nil {
		return nil, err
	}
	if g.Status != models.StatusApproved {
		return nil, apperr.NotFound("guide not found")
	}
	d, err := s.details(ctx, g)
	if err != nil {
		return nil, err
	}
	return redact(d), nil
}

// redact drops fields visitors must not see.
func redact(d *models.GuideDetails) *models.GuideDetails {
	d.SubmittedByEmail = nil
	d.ApprovedByUserID = nil
	return d
}

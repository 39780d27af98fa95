package guides

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"nietladen/internal/apperr"
	"nietladen/internal/auth"
	"nietladen/internal/metrics"
	"nietladen/internal/models"
	"nietladen/internal/store"
)

// Step edit actions.
const (
	ActionAdd    = "add"
	ActionUpdate = "update"
	ActionDelete = "delete"
)

// imageCleanupConcurrency bounds parallel image deletions.
const imageCleanupConcurrency = 4

// StepEdit is one change to a guide's steps.
type StepEdit struct {
	Action      string  `json:"action"`
	ID          int64   `json:"id"`
	StepNumber  int     `json:"stepNumber"`
	Description string  `json:"description"`
	ImageURL    *string `json:"imageUrl"`
}

// EditInput rewrites the submitter fields and applies step edits.
type EditInput struct {
	SubmittedByName  string     `json:"submittedByName"`
	SubmittedByEmail *string    `json:"submittedByEmail"`
	Steps            []StepEdit `json:"steps"`
}

func (e *StepEdit) validate() error {
	switch e.Action {
	case ActionDelete:
		if e.ID <= 0 {
			return apperr.Validation("step id is required for delete")
		}
		return nil
	case ActionUpdate:
		if e.ID <= 0 {
			return apperr.Validation("step id is required for update")
		}
	case ActionAdd:
	default:
		return apperr.Validation(fmt.Sprintf("unknown step action %q", e.Action))
	}
	img, err := validateStep(e.StepNumber, e.Description, e.ImageURL)
	if err != nil {
		return err
	}
	e.Description = strings.TrimSpace(e.Description)
	e.ImageURL = img
	return nil
}

// Edit applies moderator changes in one transaction. Deleting a step that
// does not exist is a no-op; updating a step that is not part of the guide
// is NotFound. Step numbers must be unique once all edits are applied.
func (s *Service) Edit(ctx context.Context, caller models.Caller, id int64, in EditInput) error {
	if err := auth.RequireRole(caller.Roles, models.RoleModerator); err != nil {
		return err
	}
	name, email, err := validateSubmitter(in.SubmittedByName, in.SubmittedByEmail)
	if err != nil {
		return err
	}
	for i := range in.Steps {
		if err := in.Steps[i].validate(); err != nil {
			return err
		}
	}

	err = s.store.WithTx(ctx, func(tx store.Store) error {
		if err := tx.UpdateGuideSubmitter(ctx, id, name, email); err != nil {
			return apperr.FromStore(err, "guide")
		}

		for _, e := range in.Steps {
			switch e.Action {
			case ActionDelete:
				if err := tx.DeleteStep(ctx, id, e.ID); err != nil {
					return fmt.Errorf("failed to delete step %d: %w", e.ID, err)
				}
			case ActionUpdate:
				step := &models.GuideStep{ID: e.ID, GuideID: id, StepNumber: e.StepNumber, Description: e.Description, ImageURL: e.ImageURL}
				if err := tx.UpdateStep(ctx, step); err != nil {
					if errors.Is(err, store.ErrDuplicate) {
						return errStepNumberTaken()
					}
					return apperr.FromStore(err, "step")
				}
			case ActionAdd:
				step := &models.GuideStep{GuideID: id, StepNumber: e.StepNumber, Description: e.Description, ImageURL: e.ImageURL}
				if err := tx.CreateStep(ctx, step); err != nil {
					if errors.Is(err, store.ErrDuplicate) {
						return errStepNumberTaken()
					}
					return fmt.Errorf("failed to add step: %w", err)
				}
			}
		}

		steps, err := tx.ListSteps(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to list steps: %w", err)
		}
		return checkStepNumbers(steps)
	})
	// The (guide_id, step_number) constraint is deferred, so a concurrent
	// edit that collides surfaces on commit.
	if errors.Is(err, store.ErrDuplicate) {
		return errStepNumberTaken()
	}
	if err != nil {
		return err
	}

	s.logger.Info("guide edited", zap.Int64("guide_id", id), zap.Int("step_edits", len(in.Steps)), zap.Int64("moderator_id", caller.UserID))
	return nil
}

func errStepNumberTaken() error {
	return apperr.Validation("step numbers must be unique within a guide")
}

// Delete removes a guide with its steps and model links. Uploaded step
// images are removed first on a best-effort basis.
func (s *Service) Delete(ctx context.Context, caller models.Caller, id int64) error {
	if err := auth.RequireRole(caller.Roles, models.RoleModerator); err != nil {
		return err
	}
	if _, err := s.getGuide(ctx, s.store, id); err != nil {
		return err
	}

	steps, err := s.store.ListSteps(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to list steps: %w", err)
	}
	s.removeImages(ctx, id, steps)

	if err := s.store.DeleteGuide(ctx, id); err != nil && !errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("failed to delete guide: %w", err)
	}
	s.logger.Info("guide deleted", zap.Int64("guide_id", id), zap.Int64("moderator_id", caller.UserID))
	return nil
}

func (s *Service) removeImages(ctx context.Context, guideID int64, steps []models.GuideStep) {
	if s.images == nil {
		return
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(imageCleanupConcurrency)
	for _, step := range steps {
		if step.ImageURL == nil {
			continue
		}
		url := *step.ImageURL
		g.Go(func() error {
			if err := s.images.DeleteByURL(gctx, url); err != nil {
				s.logger.Warn("failed to delete step image",
					zap.Int64("guide_id", guideID),
					zap.String("url", url),
					zap.Error(err),
				)
			}
			return nil
		})
	}
	_ = g.Wait()
}

// RecordFeedback counts one anonymous vote. Repeated votes are all counted.
func (s *Service) RecordFeedback(ctx context.Context, id int64, helpful bool) error {
	if err := s.store.IncrementFeedback(ctx, id, helpful); err != nil {
		return apperr.FromStore(err, "guide")
	}
	metrics.RecordFeedback(helpful)
	return nil
}

package guides

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"nietladen/internal/apperr"
	"nietladen/internal/auth"
	"nietladen/internal/metrics"
	"nietladen/internal/models"
	"nietladen/internal/store"
)

// Approve publishes a guide and approves the PENDING models it targets,
// together with their PENDING brands. Rejecting or unpublishing the guide
// later never reverts those catalog approvals.
func (s *Service) Approve(ctx context.Context, caller models.Caller, id int64) (*models.Guide, error) {
	if err := auth.RequireRole(caller.Roles, models.RoleModerator); err != nil {
		return nil, err
	}

	var (
		before models.Status
		guide  *models.Guide
		names  []string
	)
	err := s.store.WithTx(ctx, func(tx store.Store) error {
		g, err := s.getGuide(ctx, tx, id)
		if err != nil {
			return err
		}
		before = g.Status

		var approver *int64
		if !caller.Anonymous() {
			approver = &caller.UserID
		}
		if err := tx.UpdateGuideStatus(ctx, id, models.StatusApproved, approver); err != nil {
			return apperr.FromStore(err, "guide")
		}
		if err := s.cascade(ctx, tx, id); err != nil {
			return err
		}

		if guide, err = s.getGuide(ctx, tx, id); err != nil {
			return err
		}
		names, err = modelNames(ctx, tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}

	metrics.RecordTransition(models.StatusApproved)
	s.logger.Info("guide approved", zap.Int64("guide_id", id), zap.Int64("moderator_id", caller.UserID))

	if before != models.StatusApproved && guide.SubmittedByEmail != nil {
		if err := s.notifier.NotifyApproval(ctx, *guide.SubmittedByEmail, guide.SubmittedByName, names); err != nil {
			s.logger.Error("failed to send approval e-mail", zap.Int64("guide_id", id), zap.Error(err))
		}
	}
	return guide, nil
}

// cascade approves every PENDING model linked to the guide and, for each of
// those, its brand when the brand is PENDING too. Rows deleted concurrently
// are skipped.
func (s *Service) cascade(ctx context.Context, tx store.Store, guideID int64) error {
	linked, err := tx.ListGuideModels(ctx, guideID)
	if err != nil {
		return fmt.Errorf("failed to list guide models: %w", err)
	}
	for _, m := range linked {
		if m.Status != models.StatusPending {
			continue
		}
		if err := tx.SetModelStatus(ctx, m.ID, models.StatusApproved); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				continue
			}
			return fmt.Errorf("failed to approve model %d: %w", m.ID, err)
		}
		s.logger.Info("model approved by guide cascade", zap.Int64("model_id", m.ID), zap.Int64("guide_id", guideID))

		b, err := tx.GetBrandByID(ctx, m.BrandID)
		if errors.Is(err, store.ErrNotFound) {
			continue
		}
		if err != nil {
			return fmt.Errorf("failed to load brand %d: %w", m.BrandID, err)
		}
		if b.Status != models.StatusPending {
			continue
		}
		if err := tx.SetBrandStatus(ctx, b.ID, models.StatusApproved); err != nil && !errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("failed to approve brand %d: %w", b.ID, err)
		}
		s.logger.Info("brand approved by guide cascade", zap.Int64("brand_id", b.ID), zap.Int64("guide_id", guideID))
	}
	return nil
}

// Reject marks a guide REJECTED and tells the submitter why, if we have
// their address.
func (s *Service) Reject(ctx context.Context, caller models.Caller, id int64, reason string) (*models.Guide, error) {
	if err := auth.RequireRole(caller.Roles, models.RoleModerator); err != nil {
		return nil, err
	}

	g, err := s.getGuide(ctx, s.store, id)
	if err != nil {
		return nil, err
	}
	before := g.Status
	if err := s.store.UpdateGuideStatus(ctx, id, models.StatusRejected, nil); err != nil {
		return nil, apperr.FromStore(err, "guide")
	}
	g.Status = models.StatusRejected

	metrics.RecordTransition(models.StatusRejected)
	s.logger.Info("guide rejected", zap.Int64("guide_id", id), zap.Int64("moderator_id", caller.UserID))

	if before != models.StatusRejected && g.SubmittedByEmail != nil {
		names, err := modelNames(ctx, s.store, id)
		if err != nil {
			s.logger.Error("failed to load models for rejection e-mail", zap.Int64("guide_id", id), zap.Error(err))
			return g, nil
		}
		if err := s.notifier.NotifyRejection(ctx, *g.SubmittedByEmail, g.SubmittedByName, names, reason); err != nil {
			s.logger.Error("failed to send rejection e-mail", zap.Int64("guide_id", id), zap.Error(err))
		}
	}
	return g, nil
}

// SetStatus moves a guide to any status. APPROVED and REJECTED behave
// exactly like Approve and Reject; PENDING and OFFLINE notify nobody.
func (s *Service) SetStatus(ctx context.Context, caller models.Caller, id int64, status models.Status) (*models.Guide, error) {
	if err := auth.RequireRole(caller.Roles, models.RoleModerator); err != nil {
		return nil, err
	}
	if !models.ValidGuideStatus(status) {
		return nil, apperr.Validation("invalid status")
	}

	switch status {
	case models.StatusApproved:
		return s.Approve(ctx, caller, id)
	case models.StatusRejected:
		return s.Reject(ctx, caller, id, "")
	}

	if err := s.store.UpdateGuideStatus(ctx, id, status, nil); err != nil {
		return nil, apperr.FromStore(err, "guide")
	}
	metrics.RecordTransition(status)
	s.logger.Info("guide status changed", zap.Int64("guide_id", id), zap.String("status", string(status)))
	return s.getGuide(ctx, s.store, id)
}

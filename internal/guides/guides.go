// Package guides implements the guide workflow: anonymous submission,
// moderation with the catalog approval cascade, in-place editing, deletion
// and feedback counters.
package guides

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"nietladen/internal/apperr"
	"nietladen/internal/models"
	"nietladen/internal/store"
)

// Notifier delivers workflow e-mails. Every error is logged by the service
// and never fails the operation that triggered it.
type Notifier interface {
	NotifySubmission(ctx context.Context, moderatorEmails []string, submitterName string, modelNames []string, guideID int64) error
	NotifyApproval(ctx context.Context, submitterEmail, submitterName string, modelNames []string) error
	NotifyRejection(ctx context.Context, submitterEmail, submitterName string, modelNames []string, reason string) error
}

// Verifier scores the anti-abuse token sent with a submission.
type Verifier interface {
	// Enabled is false when no verification secret is configured.
	Enabled() bool
	Verify(ctx context.Context, token string) (bool, error)
}

// ImageRemover deletes an uploaded step image by its public URL.
type ImageRemover interface {
	DeleteByURL(ctx context.Context, url string) error
}

// Service exposes the guide workflow.
type Service struct {
	store    store.Store
	notifier Notifier
	verifier Verifier
	images   ImageRemover
	logger   *zap.Logger
}

// Option customises a Service.
type Option func(*Service)

// WithVerifier enables anti-abuse checks on submission.
func WithVerifier(v Verifier) Option {
	return func(s *Service) { s.verifier = v }
}

// WithImageRemover enables image cleanup when a guide is deleted.
func WithImageRemover(r ImageRemover) Option {
	return func(s *Service) { s.images = r }
}

// New creates a guide service.
func New(st store.Store, notifier Notifier, logger *zap.Logger, opts ...Option) *Service {
	s := &Service{
		store:    st,
		notifier: notifier,
		logger:   logger.Named("guides"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) getGuide(ctx context.Context, st store.Store, id int64) (*models.Guide, error) {
	g, err := st.GetGuideByID(ctx, id)
	if err != nil {
		return nil, apperr.FromStore(err, "guide")
	}
	return g, nil
}

// modelNames returns "Brand Model" names for the models linked to a guide.
func modelNames(ctx context.Context, st store.Store, guideID int64) ([]string, error) {
	linked, err := st.ListGuideModels(ctx, guideID)
	if err != nil {
		return nil, fmt.Errorf("failed to list guide models: %w", err)
	}
	names := make([]string, 0, len(linked))
	for i := range linked {
		names = append(names, linked[i].DisplayName())
	}
	return names, nil
}

package guides

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"go.uber.org/zap"

	"nietladen/internal/apperr"
	"nietladen/internal/catalog"
	"nietladen/internal/metrics"
	"nietladen/internal/models"
	"nietladen/internal/store"
	"nietladen/internal/validation"
)

// StepInput is one step of a submission.
type StepInput struct {
	StepNumber  int     `json:"stepNumber"`
	Description string  `json:"description"`
	ImageURL    *string `json:"imageUrl"`
}

// NewBrandInput proposes a brand that is not in the catalog yet.
type NewBrandInput struct {
	Name string `json:"name"`
}

// NewModelInput proposes a model that is not in the catalog yet.
type NewModelInput struct {
	Name      string  `json:"name"`
	YearRange *string `json:"yearRange"`
}

// SubmitInput is an anonymous guide submission.
type SubmitInput struct {
	SubmitterName  string         `json:"submitterName"`
	SubmitterEmail *string        `json:"submitterEmail"`
	ModelIDs       []int64        `json:"modelIds"`
	Steps          []StepInput    `json:"steps"`
	RecaptchaToken string         `json:"recaptchaToken"`
	NewBrand       *NewBrandInput `json:"newBrand"`
	NewModel       *NewModelInput `json:"newModel"`
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

func validateSubmitter(name string, email *string) (string, *string, error) {
	name = strings.TrimSpace(name)
	if ok, msg := validation.ValidateName(name); !ok {
		return "", nil, apperr.Validation("submitter " + msg)
	}
	email = optionalString(email)
	if email != nil && !validation.ValidateEmail(*email) {
		return "", nil, apperr.Validation("submitter email is invalid")
	}
	return name, email, nil
}

func validateStep(number int, description string, imageURL *string) (*string, error) {
	if number <= 0 {
		return nil, apperr.Validation("step number must be positive")
	}
	if ok, msg := validation.ValidateStepDescription(description); !ok {
		return nil, apperr.Validation(msg)
	}
	imageURL = optionalString(imageURL)
	if imageURL != nil {
		if ok, msg := validation.ValidateURL(*imageURL); !ok {
			return nil, apperr.Validation("step image: " + msg)
		}
	}
	return imageURL, nil
}

// checkStepNumbers rejects duplicate step numbers; gaps are fine.
func checkStepNumbers(steps []models.GuideStep) error {
	seen := make(map[int]struct{}, len(steps))
	for _, st := range steps {
		if _, dup := seen[st.StepNumber]; dup {
			return apperr.Validation(fmt.Sprintf("step number %d is used more than once", st.StepNumber))
		}
		seen[st.StepNumber] = struct{}{}
	}
	return nil
}

// submission is a validated SubmitInput.
type submission struct {
	name     string
	email    *string
	modelIDs []int64
	steps    []models.GuideStep
	newBrand string
	newModel *NewModelInput
}

func (in *SubmitInput) validate() (*submission, error) {
	name, email, err := validateSubmitter(in.SubmitterName, in.SubmitterEmail)
	if err != nil {
		return nil, err
	}
	if len(in.Steps) == 0 {
		return nil, apperr.Validation("at least one step is required")
	}

	sub := &submission{name: name, email: email}
	for i, step := range in.Steps {
		number := step.StepNumber
		if number == 0 {
			number = i + 1
		}
		img, err := validateStep(number, step.Description, step.ImageURL)
		if err != nil {
			return nil, err
		}
		sub.steps = append(sub.steps, models.GuideStep{
			StepNumber:  number,
			Description: strings.TrimSpace(step.Description),
			ImageURL:    img,
		})
	}
	if err := checkStepNumbers(sub.steps); err != nil {
		return nil, err
	}

	for _, id := range in.ModelIDs {
		if id <= 0 {
			return nil, apperr.Validation("model ids must be positive")
		}
		if !slices.Contains(sub.modelIDs, id) {
			sub.modelIDs = append(sub.modelIDs, id)
		}
	}
	if in.NewBrand != nil {
		sub.newBrand = strings.TrimSpace(in.NewBrand.Name)
	}
	if in.NewModel != nil && strings.TrimSpace(in.NewModel.Name) != "" {
		sub.newModel = in.NewModel
	}

	if len(sub.modelIDs) == 0 && sub.newModel == nil {
		return nil, apperr.Validation("at least one model is required")
	}
	if sub.newModel != nil && sub.newBrand == "" && len(sub.modelIDs) == 0 {
		return nil, apperr.Validation("a brand is required for a new model")
	}
	return sub, nil
}

// verify runs the anti-abuse check. Without a configured secret the check is
// skipped; a verifier error counts as a failed check.
func (s *Service) verify(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if s.verifier == nil || !s.verifier.Enabled() {
		s.logger.Warn("reCAPTCHA secret key not configured, skipping verification")
		return nil
	}
	ok, err := s.verifier.Verify(ctx, token)
	if err != nil {
		s.logger.Error("reCAPTCHA verification error", zap.Error(err))
		return apperr.Validation("reCAPTCHA verification failed")
	}
	if !ok {
		return apperr.Validation("reCAPTCHA verification failed")
	}
	return nil
}

// Submit stores a new PENDING guide. Proposed brands and models are created
// as PENDING in the same transaction as the guide, its links and its steps.
func (s *Service) Submit(ctx context.Context, in SubmitInput) (*models.Guide, error) {
	sub, err := in.validate()
	if err != nil {
		metrics.RecordSubmission("invalid")
		return nil, err
	}
	if err := s.verify(ctx, in.RecaptchaToken); err != nil {
		metrics.RecordSubmission("invalid")
		return nil, err
	}

	guide := &models.Guide{
		SubmittedByName:  sub.name,
		SubmittedByEmail: sub.email,
		Status:           models.StatusPending,
	}
	var names []string

	err = s.store.WithTx(ctx, func(tx store.Store) error {
		linked := make([]*models.VehicleModel, 0, len(sub.modelIDs)+1)
		for _, id := range sub.modelIDs {
			m, err := tx.GetModelByID(ctx, id)
			if errors.Is(err, store.ErrNotFound) {
				return apperr.Validation(fmt.Sprintf("model %d does not exist", id))
			}
			if err != nil {
				return err
			}
			linked = append(linked, m)
		}

		var brand *models.Brand
		if sub.newBrand != "" {
			b, created, err := catalog.ResolveBrand(ctx, tx, sub.newBrand)
			if err != nil {
				return err
			}
			if created {
				s.logger.Info("pending brand proposed", zap.Int64("brand_id", b.ID), zap.String("slug", b.Slug))
			}
			brand = b
		}

		if sub.newModel != nil {
			if brand == nil {
				b, err := tx.GetBrandByID(ctx, linked[0].BrandID)
				if err != nil {
					return apperr.FromStore(err, "brand")
				}
				brand = b
			}
			m, created, err := catalog.ResolveModel(ctx, tx, brand, sub.newModel.Name, sub.newModel.YearRange)
			if err != nil {
				return err
			}
			if created {
				s.logger.Info("pending model proposed", zap.Int64("model_id", m.ID), zap.String("slug", m.Slug))
			}
			if !slices.ContainsFunc(linked, func(l *models.VehicleModel) bool { return l.ID == m.ID }) {
				linked = append(linked, m)
			}
		}

		if err := tx.CreateGuide(ctx, guide); err != nil {
			return fmt.Errorf("failed to create guide: %w", err)
		}
		for _, m := range linked {
			if err := tx.LinkGuideModel(ctx, guide.ID, m.ID); err != nil {
				return fmt.Errorf("failed to link model %d: %w", m.ID, err)
			}
			names = append(names, m.DisplayName())
		}
		for i := range sub.steps {
			step := sub.steps[i]
			step.GuideID = guide.ID
			if err := tx.CreateStep(ctx, &step); err != nil {
				return fmt.Errorf("failed to create step %d: %w", step.StepNumber, err)
			}
		}
		return nil
	})
	if err != nil {
		if apperr.Is(err, apperr.KindValidation) {
			metrics.RecordSubmission("invalid")
		} else {
			metrics.RecordSubmission("failed")
		}
		return nil, err
	}

	metrics.RecordSubmission("accepted")
	s.logger.Info("guide submitted", zap.Int64("guide_id", guide.ID), zap.Strings("models", names))
	s.notifyModerators(ctx, guide, names)
	return guide, nil
}

func (s *Service) notifyModerators(ctx context.Context, guide *models.Guide, names []string) {
	emails, err := s.store.ListUserEmailsByRole(ctx, models.RoleModerator)
	if err != nil {
		s.logger.Error("failed to list moderators", zap.Int64("guide_id", guide.ID), zap.Error(err))
		return
	}
	if len(emails) == 0 {
		return
	}
	if err := s.notifier.NotifySubmission(ctx, emails, guide.SubmittedByName, names, guide.ID); err != nil {
		s.logger.Error("failed to notify moderators", zap.Int64("guide_id", guide.ID), zap.Error(err))
	}
}

package email

import (
	"context"

	"go.uber.org/zap"

	"nietladen/internal/config"
	"nietladen/internal/metrics"
)

// sender delivers a rendered message. *Service is the SMTP implementation.
type sender interface {
	IsEnabled() bool
	Send(ctx context.Context, to []string, msg *Message) error
}

// Notifier sends the guide workflow e-mails.
type Notifier struct {
	sender    sender
	templates *Templates
	logger    *zap.Logger
}

// NewNotifier creates a new email notifier backed by SMTP.
func NewNotifier(cfg *config.Config, logger *zap.Logger) (*Notifier, error) {
	templates, err := NewTemplates(cfg)
	if err != nil {
		return nil, err
	}
	return &Notifier{
		sender:    NewService(cfg, logger),
		templates: templates,
		logger:    logger.Named("notifier"),
	}, nil
}

// NotifySubmission tells moderators that a new guide is waiting for review.
func (n *Notifier) NotifySubmission(ctx context.Context, moderatorEmails []string, submitterName string, modelNames []string, guideID int64) error {
	if len(moderatorEmails) == 0 {
		n.logger.Debug("no moderator emails found for notification", zap.Int64("guide_id", guideID))
		return nil
	}
	msg, err := n.templates.GuideSubmitted(submitterName, modelNames, guideID)
	if err != nil {
		return err
	}
	return n.deliver(ctx, TemplateSubmission, moderatorEmails, msg)
}

// NotifyApproval tells the submitter that their guide is live.
func (n *Notifier) NotifyApproval(ctx context.Context, submitterEmail, submitterName string, modelNames []string) error {
	if submitterEmail == "" {
		return nil
	}
	msg, err := n.templates.GuideApproved(submitterName, modelNames)
	if err != nil {
		return err
	}
	return n.deliver(ctx, TemplateApproval, []string{submitterEmail}, msg)
}

// NotifyRejection tells the submitter that their guide was rejected.
func (n *Notifier) NotifyRejection(ctx context.Context, submitterEmail, submitterName string, modelNames []string, reason string) error {
	if submitterEmail == "" {
		return nil
	}
	msg, err := n.templates.GuideRejected(submitterName, modelNames, reason)
	if err != nil {
		return err
	}
	return n.deliver(ctx, TemplateRejection, []string{submitterEmail}, msg)
}

func (n *Notifier) deliver(ctx context.Context, template string, to []string, msg *Message) error {
	if !n.sender.IsEnabled() {
		n.logger.Debug("email disabled, skipping notification",
			zap.String("template", template),
			zap.Int("recipients", len(to)),
		)
		return nil
	}

	err := n.sender.Send(ctx, to, msg)
	metrics.RecordNotification(template, err)
	if err != nil {
		return err
	}
	n.logger.Info("email sent", zap.String("template", template), zap.Int("recipients", len(to)))
	return nil
}

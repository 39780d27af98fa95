package email

import (
	"bytes"
	"embed"
	"fmt"
	"io/fs"
	"net/http"
	"strings"

	"github.com/gofiber/template/html/v3"

	"nietladen/internal/config"
)

//go:embed templates
var templateFS embed.FS

// Template names, also used as metric labels.
const (
	TemplateSubmission = "submission"
	TemplateApproval   = "approval"
	TemplateRejection  = "rejection"
)

const layout = "layouts/email"

// Message is a rendered e-mail.
type Message struct {
	Subject  string
	HTMLBody string
	TextBody string
}

// templateData is the binding passed to every HTML template.
type templateData struct {
	Subject       string
	SiteTitle     string
	BaseURL       string
	SubmitterName string
	ModelNames    []string
	GuideID       int64
	Reason        string
}

// Templates renders notification e-mails from the embedded HTML templates.
type Templates struct {
	cfg    *config.Config
	engine *html.Engine
}

// NewTemplates creates a new templates instance.
func NewTemplates(cfg *config.Config) (*Templates, error) {
	sub, err := fs.Sub(templateFS, "templates")
	if err != nil {
		return nil, err
	}
	engine := html.NewFileSystem(http.FS(sub), ".html")
	engine.AddFunc("join", strings.Join)
	if err := engine.Load(); err != nil {
		return nil, fmt.Errorf("load email templates: %w", err)
	}
	return &Templates{cfg: cfg, engine: engine}, nil
}

func (t *Templates) render(name string, data templateData) (string, error) {
	data.SiteTitle = t.cfg.SiteTitle
	data.BaseURL = t.cfg.BaseURL
	var buf bytes.Buffer
	if err := t.engine.Render(&buf, name, data, layout); err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}
	return buf.String(), nil
}

func (t *Templates) footer() string {
	return fmt.Sprintf("\n--\n%s\n%s", t.cfg.SiteTitle, t.cfg.BaseURL)
}

// GuideSubmitted generates the e-mail for moderators when a guide needs review.
func (t *Templates) GuideSubmitted(submitterName string, modelNames []string, guideID int64) (*Message, error) {
	subject := fmt.Sprintf("[%s] New guide pending review: %s", t.cfg.SiteTitle, strings.Join(modelNames, ", "))
	body, err := t.render(TemplateSubmission, templateData{
		Subject:       subject,
		SubmitterName: submitterName,
		ModelNames:    modelNames,
		GuideID:       guideID,
	})
	if err != nil {
		return nil, err
	}

	text := fmt.Sprintf(`New guide pending review

Submitted by: %s
Models: %s
Guide: #%d

Review at: %s/admin/guides/%d
%s`,
		submitterName,
		strings.Join(modelNames, ", "),
		guideID,
		t.cfg.BaseURL, guideID,
		t.footer(),
	)
	return &Message{Subject: subject, HTMLBody: body, TextBody: text}, nil
}

// GuideApproved generates the e-mail for a submitter whose guide went live.
func (t *Templates) GuideApproved(submitterName string, modelNames []string) (*Message, error) {
	subject := fmt.Sprintf("[%s] Your guide has been approved", t.cfg.SiteTitle)
	body, err := t.render(TemplateApproval, templateData{
		Subject:       subject,
		SubmitterName: submitterName,
		ModelNames:    modelNames,
	})
	if err != nil {
		return nil, err
	}

	text := fmt.Sprintf(`Hi %s,

Your charging guide has been approved and is now visible to everyone.

Models: %s
%s`,
		submitterName,
		strings.Join(modelNames, ", "),
		t.footer(),
	)
	return &Message{Subject: subject, HTMLBody: body, TextBody: text}, nil
}

// GuideRejected generates the e-mail for a submitter whose guide was turned down.
func (t *Templates) GuideRejected(submitterName string, modelNames []string, reason string) (*Message, error) {
	subject := fmt.Sprintf("[%s] Your guide was not approved", t.cfg.SiteTitle)
	body, err := t.render(TemplateRejection, templateData{
		Subject:       subject,
		SubmitterName: submitterName,
		ModelNames:    modelNames,
		Reason:        reason,
	})
	if err != nil {
		return nil, err
	}

	reasonLine := ""
	if reason != "" {
		reasonLine = "\nReason: " + reason
	}
	text := fmt.Sprintf(`Hi %s,

Unfortunately your charging guide was not approved.

Models: %s%s
%s`,
		submitterName,
		strings.Join(modelNames, ", "),
		reasonLine,
		t.footer(),
	)
	return &Message{Subject: subject, HTMLBody: body, TextBody: text}, nil
}

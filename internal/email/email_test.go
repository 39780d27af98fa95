package email

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zaptest"

	"nietladen/internal/config"
)

func smtpConfig(mutate func(*config.Config)) *config.Config {
	cfg := &config.Config{
		SMTPEnabled: true,
		SMTPHost:    "mail.nietladen.test",
		SMTPPort:    2525,
		SMTPFrom:    "moderatie@nietladen.test",
	}
	if mutate != nil {
		mutate(cfg)
	}
	return cfg
}

func TestNewService_Enabled(t *testing.T) {
	cases := map[string]struct {
		cfg  *config.Config
		want bool
	}{
		"fully configured": {smtpConfig(nil), true},
		"switched off":     {smtpConfig(func(c *config.Config) { c.SMTPEnabled = false }), false},
		"no host":          {smtpConfig(func(c *config.Config) { c.SMTPHost = "" }), false},
		"no sender":        {smtpConfig(func(c *config.Config) { c.SMTPFrom = "" }), false},
		"zero config":      {&config.Config{}, false},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			svc := NewService(tc.cfg, zaptest.NewLogger(t))
			assert.Equal(t, tc.want, svc.IsEnabled())
		})
	}
}

func TestService_Send_Disabled(t *testing.T) {
	svc := NewService(&config.Config{}, zaptest.NewLogger(t))

	err := svc.Send(context.Background(), []string{"test@example.com"}, &Message{Subject: "Test"})
	if err != nil {
		t.Errorf("Send() when disabled should return nil, got %v", err)
	}
}

func TestService_Send_NoRecipients(t *testing.T) {
	svc := NewService(smtpConfig(func(c *config.Config) { c.SMTPHost = "smtp.invalid" }), zaptest.NewLogger(t))

	if err := svc.Send(context.Background(), nil, &Message{Subject: "Test"}); err != nil {
		t.Errorf("Send() with nil recipients should return nil, got %v", err)
	}
}

func TestService_FromHeader(t *testing.T) {
	tests := []struct {
		name       string
		fromName   string
		fromAddr   string
		wantHeader string
	}{
		{
			name:       "with display name",
			fromName:   "Niet Laden",
			fromAddr:   "noreply@example.com",
			wantHeader: "Niet Laden <noreply@example.com>",
		},
		{
			name:       "without display name",
			fromAddr:   "noreply@example.com",
			wantHeader: "noreply@example.com",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &Service{cfg: &config.Config{SMTPFrom: tt.fromAddr, SMTPFromName: tt.fromName}}
			if got := svc.fromHeader(); got != tt.wantHeader {
				t.Errorf("fromHeader() = %q, want %q", got, tt.wantHeader)
			}
		})
	}
}

func TestBuildMessage(t *testing.T) {
	tests := []struct {
		name     string
		msg      Message
		checks   []string
		excludes []string
	}{
		{
			name: "multipart message",
			msg:  Message{Subject: "Test Subject", HTMLBody: "<p>HTML</p>", TextBody: "Plain text"},
			checks: []string{
				"From: Niet Laden <noreply@example.com>\r\n",
				"To: a@example.com, b@example.com\r\n",
				"Subject: Test Subject\r\n",
				"MIME-Version: 1.0\r\n",
				"Content-Type: multipart/alternative; boundary=\"b0undary\"\r\n",
				"Content-Type: text/plain; charset=\"UTF-8\"",
				"Content-Type: text/html; charset=\"UTF-8\"",
				"--b0undary--\r\n",
			},
		},
		{
			name:     "html only",
			msg:      Message{Subject: "HTML Only", HTMLBody: "<p>HTML</p>"},
			checks:   []string{"Content-Type: text/html"},
			excludes: []string{"Content-Type: text/plain"},
		},
		{
			name:     "text only",
			msg:      Message{Subject: "Text Only", TextBody: "Plain text"},
			checks:   []string{"Content-Type: text/plain"},
			excludes: []string{"Content-Type: text/html"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := buildMessage("Niet Laden <noreply@example.com>", []string{"a@example.com", "b@example.com"}, &tt.msg, "b0undary")
			for _, check := range tt.checks {
				if !strings.Contains(raw, check) {
					t.Errorf("message missing %q\nMessage:\n%s", check, raw)
				}
			}
			for _, ex := range tt.excludes {
				if strings.Contains(raw, ex) {
					t.Errorf("message should not contain %q", ex)
				}
			}
		})
	}
}

func TestBuildMessage_TextBeforeHTML(t *testing.T) {
	raw := buildMessage("x@example.com", []string{"y@example.com"}, &Message{HTMLBody: "<p>h</p>", TextBody: "t"}, "b")
	if strings.Index(raw, "text/plain") > strings.Index(raw, "text/html") {
		t.Error("plain text part should come before the HTML part")
	}
}

// Package recaptcha verifies reCAPTCHA v3 tokens against Google's siteverify
// endpoint.
package recaptcha

import (
	"context"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v3/client"
	"go.uber.org/zap"
)

// DefaultVerifyURL is Google's siteverify endpoint.
const DefaultVerifyURL = "https://www.google.com/recaptcha/api/siteverify"

// verifyResponse is the subset of the siteverify answer we use.
type verifyResponse struct {
	Success    bool     `json:"success"`
	Score      float64  `json:"score"`
	Action     string   `json:"action"`
	ErrorCodes []string `json:"error-codes"`
}

// Verifier checks submission tokens. A Verifier without a secret is
// disabled.
type Verifier struct {
	secret    string
	minScore  float64
	verifyURL string
	client    *client.Client
	logger    *zap.Logger
}

// New creates a verifier. An empty verifyURL selects DefaultVerifyURL.
func New(secret string, minScore float64, verifyURL string, logger *zap.Logger) *Verifier {
	if verifyURL == "" {
		verifyURL = DefaultVerifyURL
	}
	return &Verifier{
		secret:    secret,
		minScore:  minScore,
		verifyURL: verifyURL,
		client:    client.New().SetTimeout(5 * time.Second),
		logger:    logger.Named("recaptcha"),
	}
}

// Enabled reports whether a secret is configured.
func (v *Verifier) Enabled() bool {
	return v.secret != ""
}

// Verify asks siteverify about token. It returns true only when the answer
// is a success with a score at or above the configured minimum.
func (v *Verifier) Verify(ctx context.Context, token string) (bool, error) {
	resp, err := v.client.Post(v.verifyURL, client.Config{
		Ctx: ctx,
		FormData: map[string]string{
			"secret":   v.secret,
			"response": token,
		},
	})
	if err != nil {
		return false, fmt.Errorf("siteverify request: %w", err)
	}
	defer resp.Close()

	if resp.StatusCode() != 200 {
		return false, fmt.Errorf("siteverify returned status %d", resp.StatusCode())
	}

	var out verifyResponse
	if err := resp.JSON(&out); err != nil {
		return false, fmt.Errorf("decode siteverify response: %w", err)
	}

	if !out.Success || out.Score < v.minScore {
		v.logger.Info("token rejected",
			zap.Bool("success", out.Success),
			zap.Float64("score", out.Score),
			zap.Strings("error_codes", out.ErrorCodes),
		)
		return false, nil
	}
	return true, nil
}

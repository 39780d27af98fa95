package api

import (
	"context"
	"crypto/rand"
	"encoding/base64"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/session"
	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"nietladen/internal/accounts"
	"nietladen/internal/auth"
	"nietladen/internal/config"
	"nietladen/internal/middleware"
	"nietladen/internal/models"
)

const oauthStateKey = "oauth_state"

// AuthHandler handles password login, sessions, bearer tokens and the
// optional OIDC flow.
type AuthHandler struct {
	accounts *accounts.Service
	tokens   *auth.TokenIssuer
	logger   *zap.Logger

	// OIDC, nil unless configured
	provider     *oidc.Provider
	oauth2Config oauth2.Config
	verifier     *oidc.IDTokenVerifier
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(acc *accounts.Service, tokens *auth.TokenIssuer, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{accounts: acc, tokens: tokens, logger: logger.Named("api.auth")}
}

// EnableOIDC discovers the provider and turns on single sign-on.
func (h *AuthHandler) EnableOIDC(ctx context.Context, cfg *config.Config) error {
	provider, err := oidc.NewProvider(ctx, cfg.OIDCIssuer)
	if err != nil {
		return err
	}

	h.provider = provider
	h.oauth2Config = oauth2.Config{
		ClientID:     cfg.OIDCClientID,
		ClientSecret: cfg.OIDCClientSecret,
		RedirectURL:  cfg.OIDCRedirectURL,
		Endpoint:     provider.Endpoint(),
		Scopes:       []string{oidc.ScopeOpenID, "profile", "email"},
	}
	h.verifier = provider.Verifier(&oidc.Config{ClientID: cfg.OIDCClientID})
	return nil
}

// OIDCEnabled reports whether EnableOIDC succeeded.
func (h *AuthHandler) OIDCEnabled() bool {
	return h.provider != nil
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *AuthHandler) authenticate(c fiber.Ctx) (*models.User, error) {
	var body credentials
	if err := decodeJSON(c, &body); err != nil {
		return nil, err
	}
	return h.accounts.Authenticate(c.Context(), body.Email, body.Password)
}

// Login checks e-mail and password and starts a session.
func (h *AuthHandler) Login(c fiber.Ctx) error {
	user, err := h.authenticate(c)
	if err != nil {
		return jsonFailure(c, h.logger, err, "login failed")
	}

	sess := session.FromContext(c)
	if sess == nil {
		return jsonError(c, fiber.StatusInternalServerError, "session not available")
	}
	// New id on privilege change
	if err := sess.Regenerate(); err != nil {
		return jsonFailure(c, h.logger, err, "login failed")
	}
	middleware.SetSessionUser(sess, user.ID)

	h.logger.Info("user logged in", zap.Int64("user_id", user.ID))
	return jsonSuccess(c, user)
}

// Logout clears the user session.
func (h *AuthHandler) Logout(c fiber.Ctx) error {
	if sess := session.FromContext(c); sess != nil {
		if err := sess.Destroy(); err != nil {
			h.logger.Warn("failed to destroy session", zap.Error(err))
		}
	}
	return jsonSuccess(c, nil)
}

// Session reports the signed-in user, or null.
func (h *AuthHandler) Session(c fiber.Ctx) error {
	c.Set(fiber.HeaderCacheControl, "no-store")
	return jsonSuccess(c, fiber.Map{"user": middleware.UserFrom(c)})
}

// Token exchanges e-mail and password for a bearer token.
func (h *AuthHandler) Token(c fiber.Ctx) error {
	user, err := h.authenticate(c)
	if err != nil {
		return jsonFailure(c, h.logger, err, "login failed")
	}
	token, expires, err := h.tokens.Issue(user.ID)
	if err != nil {
		return jsonFailure(c, h.logger, err, "failed to issue token")
	}
	return jsonSuccess(c, fiber.Map{
		"token":     token,
		"tokenType": "Bearer",
		"expiresAt": expires,
	})
}

// OIDCLogin initiates the OIDC login flow.
func (h *AuthHandler) OIDCLogin(c fiber.Ctx) error {
	if !h.OIDCEnabled() {
		return jsonError(c, fiber.StatusNotFound, "single sign-on is not configured")
	}
	state := generateState()

	sess := session.FromContext(c)
	if sess == nil {
		return jsonError(c, fiber.StatusInternalServerError, "session not available")
	}
	sess.Set(oauthStateKey, state)

	return c.Redirect().To(h.oauth2Config.AuthCodeURL(state))
}

// OIDCCallback finishes the OIDC flow. The verified e-mail must belong to an
// existing account; roles always come from our own database.
func (h *AuthHandler) OIDCCallback(c fiber.Ctx) error {
	if !h.OIDCEnabled() {
		return jsonError(c, fiber.StatusNotFound, "single sign-on is not configured")
	}
	sess := session.FromContext(c)
	if sess == nil {
		return jsonError(c, fiber.StatusInternalServerError, "session not available")
	}

	// Verify state
	savedState, _ := sess.Get(oauthStateKey).(string)
	if savedState == "" || savedState != c.Query("state") {
		return jsonError(c, fiber.StatusBadRequest, "invalid state")
	}
	sess.Delete(oauthStateKey)

	oauth2Token, err := h.oauth2Config.Exchange(c.Context(), c.Query("code"))
	if err != nil {
		h.logger.Warn("code exchange failed", zap.Error(err))
		return jsonError(c, fiber.StatusBadRequest, "failed to exchange code")
	}

	rawIDToken, ok := oauth2Token.Extra("id_token").(string)
	if !ok {
		return jsonError(c, fiber.StatusBadRequest, "missing id_token")
	}
	idToken, err := h.verifier.Verify(c.Context(), rawIDToken)
	if err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid id_token")
	}

	var claims struct {
		Email         string `json:"email"`
		EmailVerified *bool  `json:"email_verified"`
	}
	if err := idToken.Claims(&claims); err != nil {
		return jsonFailure(c, h.logger, err, "invalid id_token")
	}
	if claims.Email == "" || (claims.EmailVerified != nil && !*claims.EmailVerified) {
		return jsonError(c, fiber.StatusUnauthorized, "unauthorized")
	}

	user, err := h.accounts.LookupByEmail(c.Context(), claims.Email)
	if err != nil {
		h.logger.Info("single sign-on for unknown account", zap.String("email", claims.Email))
		return jsonError(c, fiber.StatusUnauthorized, "unauthorized")
	}

	if err := sess.Regenerate(); err != nil {
		return jsonFailure(c, h.logger, err, "login failed")
	}
	middleware.SetSessionUser(sess, user.ID)
	h.logger.Info("user logged in via OIDC", zap.Int64("user_id", user.ID))

	return c.Redirect().To("/admin")
}

func generateState() string {
	b := make([]byte, 16)
	rand.Read(b)
	return base64.URLEncoding.EncodeToString(b)
}

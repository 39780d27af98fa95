package middleware

import (
	"context"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/session"
	"go.uber.org/zap"

	"nietladen/internal/auth"
	"nietladen/internal/models"
)

// SessionUserKey is the session key holding the signed-in user's id.
const SessionUserKey = "user_id"

const userLocal = "user"

// UserLookup loads the account behind a session or token.
type UserLookup interface {
	Lookup(ctx context.Context, id int64) (*models.User, error)
}

// TokenVerifier resolves a bearer token to a user id.
type TokenVerifier interface {
	Verify(token string) (int64, error)
}

// AuthMiddleware identifies callers from the session cookie or a bearer token.
type AuthMiddleware struct {
	users  UserLookup
	tokens TokenVerifier
	logger *zap.Logger
}

// NewAuthMiddleware creates a new auth middleware instance.
func NewAuthMiddleware(users UserLookup, tokens TokenVerifier, logger *zap.Logger) *AuthMiddleware {
	return &AuthMiddleware{users: users, tokens: tokens, logger: logger.Named("auth")}
}

// Identify loads the user if authenticated, but doesn't require authentication.
// A bearer token takes precedence over the session.
func (m *AuthMiddleware) Identify(c fiber.Ctx) error {
	if token, ok := bearerToken(c); ok {
		userID, err := m.tokens.Verify(token)
		if err != nil {
			m.logger.Debug("rejected bearer token", zap.Error(err))
			return unauthorized(c)
		}
		user, err := m.users.Lookup(c.Context(), userID)
		if err != nil {
			return unauthorized(c)
		}
		c.Locals(userLocal, user)
		return c.Next()
	}

	sess := session.FromContext(c)
	if sess == nil {
		return c.Next()
	}
	raw, _ := sess.Get(SessionUserKey).(string)
	userID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return c.Next()
	}

	user, err := m.users.Lookup(c.Context(), userID)
	if err != nil {
		// Account removed since login
		m.logger.Info("dropping session of unknown user", zap.Int64("user_id", userID))
		if err := sess.Destroy(); err != nil {
			m.logger.Warn("failed to destroy session", zap.Error(err))
		}
		return c.Next()
	}

	c.Locals(userLocal, user)
	return c.Next()
}

// SetSessionUser records the signed-in user on the session as a decimal string.
func SetSessionUser(sess *session.Middleware, userID int64) {
	sess.Set(SessionUserKey, strconv.FormatInt(userID, 10))
}

// RequireAuth ensures the user is authenticated.
func RequireAuth(c fiber.Ctx) error {
	if UserFrom(c) == nil {
		return unauthorized(c)
	}
	return c.Next()
}

// RequireRole only lets callers holding role through.
func RequireRole(role models.Role) fiber.Handler {
	return func(c fiber.Ctx) error {
		if err := auth.RequireRole(CallerFrom(c).Roles, role); err != nil {
			return unauthorized(c)
		}
		return c.Next()
	}
}

// UserFrom returns the authenticated user, or nil for anonymous requests.
func UserFrom(c fiber.Ctx) *models.User {
	user, _ := c.Locals(userLocal).(*models.User)
	return user
}

// CallerFrom returns the identity for workflow authorization checks.
func CallerFrom(c fiber.Ctx) models.Caller {
	if user := UserFrom(c); user != nil {
		return user.Caller()
	}
	return models.Caller{}
}

func bearerToken(c fiber.Ctx) (string, bool) {
	header := c.Get(fiber.HeaderAuthorization)
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func unauthorized(c fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
		"status": "error",
		"error":  "unauthorized",
	})
}

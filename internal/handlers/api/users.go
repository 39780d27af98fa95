package api

import (
	"github.com/gofiber/fiber/v3"
	"go.uber.org/zap"

	"nietladen/internal/accounts"
	"nietladen/internal/middleware"
	"nietladen/internal/models"
)

// UserHandler handles user management operations via JSON API.
type UserHandler struct {
	accounts *accounts.Service
	logger   *zap.Logger
}

// NewUserHandler creates a new API user handler.
func NewUserHandler(acc *accounts.Service, logger *zap.Logger) *UserHandler {
	return &UserHandler{accounts: acc, logger: logger.Named("api.users")}
}

// List returns all users (user admins only).
func (h *UserHandler) List(c fiber.Ctx) error {
	users, err := h.accounts.List(c.Context(), middleware.CallerFrom(c))
	if err != nil {
		return jsonFailure(c, h.logger, err, "failed to fetch users")
	}
	return jsonSuccess(c, nonNil(users))
}

// Create adds an account.
func (h *UserHandler) Create(c fiber.Ctx) error {
	var in accounts.CreateInput
	if err := decodeJSON(c, &in); err != nil {
		return jsonFailure(c, h.logger, err, "")
	}
	u, err := h.accounts.Create(c.Context(), middleware.CallerFrom(c), in)
	if err != nil {
		return jsonFailure(c, h.logger, err, "failed to create user")
	}
	return jsonCreated(c, u)
}

// UpdateRoles replaces a user's roles.
func (h *UserHandler) UpdateRoles(c fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return jsonFailure(c, h.logger, err, "")
	}

	var body struct {
		Roles []models.Role `json:"roles"`
	}
	if err := decodeJSON(c, &body); err != nil {
		return jsonFailure(c, h.logger, err, "")
	}

	u, err := h.accounts.SetRoles(c.Context(), middleware.CallerFrom(c), id, body.Roles)
	if err != nil {
		return jsonFailure(c, h.logger, err, "failed to update roles")
	}
	return jsonSuccess(c, u)
}

// Delete removes a user. Users cannot delete themselves.
func (h *UserHandler) Delete(c fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return jsonFailure(c, h.logger, err, "")
	}
	if err := h.accounts.Delete(c.Context(), middleware.CallerFrom(c), id); err != nil {
		return jsonFailure(c, h.logger, err, "failed to delete user")
	}
	return jsonSuccess(c, nil)
}

// ChangePassword updates the signed-in user's password.
func (h *UserHandler) ChangePassword(c fiber.Ctx) error {
	var body struct {
		CurrentPassword string `json:"currentPassword"`
		NewPassword     string `json:"newPassword"`
	}
	if err := decodeJSON(c, &body); err != nil {
		return jsonFailure(c, h.logger, err, "")
	}
	if err := h.accounts.ChangePassword(c.Context(), middleware.CallerFrom(c), body.CurrentPassword, body.NewPassword); err != nil {
		return jsonFailure(c, h.logger, err, "failed to change password")
	}
	return jsonSuccess(c, nil)
}

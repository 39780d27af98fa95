package api

import (
	"strings"

	"github.com/gofiber/fiber/v3"
	"go.uber.org/zap"

	"nietladen/internal/guides"
	"nietladen/internal/middleware"
	"nietladen/internal/models"
)

// ModerationHandler handles guide moderation via JSON API.
type ModerationHandler struct {
	guides *guides.Service
	logger *zap.Logger
}

// NewModerationHandler creates a new API moderation handler.
func NewModerationHandler(gs *guides.Service, logger *zap.Logger) *ModerationHandler {
	return &ModerationHandler{guides: gs, logger: logger.Named("api.moderation")}
}

// ListPending returns all guides waiting for review.
func (h *ModerationHandler) ListPending(c fiber.Ctx) error {
	list, err := h.guides.ListPending(c.Context(), middleware.CallerFrom(c))
	if err != nil {
		return jsonFailure(c, h.logger, err, "failed to fetch pending guides")
	}
	return jsonSuccess(c, nonNil(list))
}

// ListByStatus returns guides filtered by the optional status query.
func (h *ModerationHandler) ListByStatus(c fiber.Ctx) error {
	status := models.Status(strings.ToUpper(c.Query("status")))
	list, err := h.guides.ListByStatus(c.Context(), middleware.CallerFrom(c), status)
	if err != nil {
		return jsonFailure(c, h.logger, err, "failed to fetch guides")
	}
	return jsonSuccess(c, nonNil(list))
}

// Details returns a guide with steps, models and approver.
func (h *ModerationHandler) Details(c fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return jsonFailure(c, h.logger, err, "")
	}
	d, err := h.guides.Details(c.Context(), middleware.CallerFrom(c), id)
	if err != nil {
		return jsonFailure(c, h.logger, err, "failed to fetch guide")
	}
	return jsonSuccess(c, d)
}

// Approve publishes a guide.
func (h *ModerationHandler) Approve(c fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return jsonFailure(c, h.logger, err, "")
	}
	g, err := h.guides.Approve(c.Context(), middleware.CallerFrom(c), id)
	if err != nil {
		return jsonFailure(c, h.logger, err, "failed to approve guide")
	}
	return jsonSuccess(c, g)
}

// Reject turns a guide down with an optional reason.
func (h *ModerationHandler) Reject(c fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return jsonFailure(c, h.logger, err, "")
	}

	var body struct {
		Reason string `json:"reason"`
	}
	if len(c.Body()) > 0 {
		if err := decodeJSON(c, &body); err != nil {
			return jsonFailure(c, h.logger, err, "")
		}
	}

	g, err := h.guides.Reject(c.Context(), middleware.CallerFrom(c), id, strings.TrimSpace(body.Reason))
	if err != nil {
		return jsonFailure(c, h.logger, err, "failed to reject guide")
	}
	return jsonSuccess(c, g)
}

// SetStatus moves a guide to any moderation status.
func (h *ModerationHandler) SetStatus(c fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return jsonFailure(c, h.logger, err, "")
	}

	var body struct {
		Status models.Status `json:"status"`
	}
	if err := decodeJSON(c, &body); err != nil {
		return jsonFailure(c, h.logger, err, "")
	}

	g, err := h.guides.SetStatus(c.Context(), middleware.CallerFrom(c), id, models.Status(strings.ToUpper(string(body.Status))))
	if err != nil {
		return jsonFailure(c, h.logger, err, "failed to update status")
	}
	return jsonSuccess(c, g)
}

// Edit rewrites submitter fields and applies step edits.
func (h *ModerationHandler) Edit(c fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return jsonFailure(c, h.logger, err, "")
	}

	var in guides.EditInput
	if err := decodeJSON(c, &in); err != nil {
		return jsonFailure(c, h.logger, err, "")
	}

	caller := middleware.CallerFrom(c)
	if err := h.guides.Edit(c.Context(), caller, id, in); err != nil {
		return jsonFailure(c, h.logger, err, "failed to update guide")
	}
	d, err := h.guides.Details(c.Context(), caller, id)
	if err != nil {
		return jsonFailure(c, h.logger, err, "failed to fetch guide")
	}
	return jsonSuccess(c, d)
}

// Delete removes a guide and its images.
func (h *ModerationHandler) Delete(c fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return jsonFailure(c, h.logger, err, "")
	}
	if err := h.guides.Delete(c.Context(), middleware.CallerFrom(c), id); err != nil {
		return jsonFailure(c, h.logger, err, "failed to delete guide")
	}
	return jsonSuccess(c, nil)
}

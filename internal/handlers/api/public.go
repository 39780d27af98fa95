package api

import (
	"context"
	"io"

	"github.com/gofiber/fiber/v3"
	"go.uber.org/zap"

	"nietladen/internal/apperr"
	"nietladen/internal/catalog"
	"nietladen/internal/guides"
	"nietladen/internal/metrics"
)

// ImageUploader stores a step image and returns its public URL.
type ImageUploader interface {
	Upload(ctx context.Context, r io.Reader, size int64, contentType string) (string, error)
}

// PublicHandler serves the anonymous visitor and contributor endpoints.
type PublicHandler struct {
	catalog *catalog.Service
	guides  *guides.Service
	images  ImageUploader
	logger  *zap.Logger
}

// NewPublicHandler creates a new public API handler. images may be nil when
// object storage is not configured.
func NewPublicHandler(cat *catalog.Service, gs *guides.Service, images ImageUploader, logger *zap.Logger) *PublicHandler {
	return &PublicHandler{catalog: cat, guides: gs, images: images, logger: logger.Named("api.public")}
}

// ListBrands returns approved brands with their guide counts.
func (h *PublicHandler) ListBrands(c fiber.Ctx) error {
	brands, err := h.catalog.ListBrands(c.Context())
	if err != nil {
		return jsonFailure(c, h.logger, err, "failed to fetch brands")
	}
	c.Set(fiber.HeaderCacheControl, "no-store")
	return jsonSuccess(c, nonNil(brands))
}

// ListModels returns the approved models of an approved brand.
func (h *PublicHandler) ListModels(c fiber.Ctx) error {
	list, err := h.catalog.ListModelsForBrandSlug(c.Context(), c.Params("slug"))
	if err != nil {
		return jsonFailure(c, h.logger, err, "failed to fetch models")
	}
	return jsonSuccess(c, nonNil(list))
}

// ModelGuides returns a model together with its approved guides.
func (h *PublicHandler) ModelGuides(c fiber.Ctx) error {
	model, err := h.catalog.PublicModel(c.Context(), c.Params("slug"), c.Params("modelSlug"))
	if err != nil {
		return jsonFailure(c, h.logger, err, "failed to fetch model")
	}
	list, err := h.guides.ListApprovedForModel(c.Context(), model.ID)
	if err != nil {
		return jsonFailure(c, h.logger, err, "failed to fetch guides")
	}
	return jsonSuccess(c, fiber.Map{
		"model":  model,
		"guides": nonNil(list),
	})
}

// Guide returns one approved guide.
func (h *PublicHandler) Guide(c fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return jsonFailure(c, h.logger, err, "")
	}
	g, err := h.guides.PublicGuide(c.Context(), id)
	if err != nil {
		return jsonFailure(c, h.logger, err, "failed to fetch guide")
	}
	return jsonSuccess(c, g)
}

// SubmitGuide accepts an anonymous guide submission.
func (h *PublicHandler) SubmitGuide(c fiber.Ctx) error {
	var in guides.SubmitInput
	if err := decodeJSON(c, &in); err != nil {
		metrics.RecordSubmission("invalid")
		return jsonFailure(c, h.logger, err, "")
	}
	g, err := h.guides.Submit(c.Context(), in)
	if err != nil {
		return jsonFailure(c, h.logger, err, "failed to submit guide")
	}
	return jsonCreated(c, fiber.Map{"guideId": g.ID})
}

// Feedback records a helpful or not-helpful vote.
func (h *PublicHandler) Feedback(c fiber.Ctx) error {
	var body struct {
		GuideID   int64 `json:"guideId"`
		IsHelpful *bool `json:"isHelpful"`
	}
	if err := decodeJSON(c, &body); err != nil {
		return jsonFailure(c, h.logger, err, "")
	}
	if body.GuideID <= 0 || body.IsHelpful == nil {
		return jsonError(c, fiber.StatusBadRequest, "guideId and isHelpful are required")
	}
	if err := h.guides.RecordFeedback(c.Context(), body.GuideID, *body.IsHelpful); err != nil {
		return jsonFailure(c, h.logger, err, "failed to update feedback")
	}
	return jsonSuccess(c, nil)
}

// Upload stores a step image sent as multipart field "file".
func (h *PublicHandler) Upload(c fiber.Ctx) error {
	if h.images == nil {
		return jsonError(c, fiber.StatusServiceUnavailable, "image uploads are not configured")
	}
	fh, err := c.FormFile("file")
	if err != nil {
		return jsonFailure(c, h.logger, apperr.Validation("file is required"), "")
	}
	f, err := fh.Open()
	if err != nil {
		return jsonFailure(c, h.logger, err, "failed to read upload")
	}
	defer f.Close()

	url, err := h.images.Upload(c.Context(), f, fh.Size, fh.Header.Get(fiber.HeaderContentType))
	if err != nil {
		return jsonFailure(c, h.logger, err, "failed to upload image")
	}
	return jsonCreated(c, fiber.Map{"url": url})
}

// nonNil turns a nil slice into an empty one so it encodes as [].
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

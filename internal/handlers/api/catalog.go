package api

import (
	"github.com/gofiber/fiber/v3"
	"go.uber.org/zap"

	"nietladen/internal/catalog"
	"nietladen/internal/middleware"
)

// CatalogHandler handles brand and model curation via JSON API.
type CatalogHandler struct {
	catalog *catalog.Service
	logger  *zap.Logger
}

// NewCatalogHandler creates a new API catalog handler.
func NewCatalogHandler(cat *catalog.Service, logger *zap.Logger) *CatalogHandler {
	return &CatalogHandler{catalog: cat, logger: logger.Named("api.catalog")}
}

// ListBrands returns every brand, pending ones included.
func (h *CatalogHandler) ListBrands(c fiber.Ctx) error {
	brands, err := h.catalog.ListAllBrands(c.Context(), middleware.CallerFrom(c))
	if err != nil {
		return jsonFailure(c, h.logger, err, "failed to fetch brands")
	}
	return jsonSuccess(c, nonNil(brands))
}

// CreateBrand adds an approved brand.
func (h *CatalogHandler) CreateBrand(c fiber.Ctx) error {
	var in catalog.BrandInput
	if err := decodeJSON(c, &in); err != nil {
		return jsonFailure(c, h.logger, err, "")
	}
	b, err := h.catalog.CreateBrand(c.Context(), middleware.CallerFrom(c), in)
	if err != nil {
		return jsonFailure(c, h.logger, err, "failed to create brand")
	}
	return jsonCreated(c, b)
}

// UpdateBrand rewrites a brand's name, slug and logo.
func (h *CatalogHandler) UpdateBrand(c fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return jsonFailure(c, h.logger, err, "")
	}
	var in catalog.BrandInput
	if err := decodeJSON(c, &in); err != nil {
		return jsonFailure(c, h.logger, err, "")
	}
	b, err := h.catalog.UpdateBrand(c.Context(), middleware.CallerFrom(c), id, in)
	if err != nil {
		return jsonFailure(c, h.logger, err, "failed to update brand")
	}
	return jsonSuccess(c, b)
}

// DeleteBrand removes a brand with its models.
func (h *CatalogHandler) DeleteBrand(c fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return jsonFailure(c, h.logger, err, "")
	}
	if err := h.catalog.DeleteBrand(c.Context(), middleware.CallerFrom(c), id); err != nil {
		return jsonFailure(c, h.logger, err, "failed to delete brand")
	}
	return jsonSuccess(c, nil)
}

// ApproveBrand publishes a pending brand.
func (h *CatalogHandler) ApproveBrand(c fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return jsonFailure(c, h.logger, err, "")
	}
	b, err := h.catalog.ApproveBrand(c.Context(), middleware.CallerFrom(c), id)
	if err != nil {
		return jsonFailure(c, h.logger, err, "failed to approve brand")
	}
	return jsonSuccess(c, b)
}

// Import ingests tab-separated brand/model lines.
func (h *CatalogHandler) Import(c fiber.Ctx) error {
	var body struct {
		Data string `json:"data"`
	}
	if err := decodeJSON(c, &body); err != nil {
		return jsonFailure(c, h.logger, err, "")
	}
	res, err := h.catalog.Import(c.Context(), middleware.CallerFrom(c), body.Data)
	if err != nil {
		return jsonFailure(c, h.logger, err, "failed to import catalog")
	}
	return jsonSuccess(c, res)
}

// ListModels returns every model of a brand.
func (h *CatalogHandler) ListModels(c fiber.Ctx) error {
	brandID, err := paramID(c, "id")
	if err != nil {
		return jsonFailure(c, h.logger, err, "")
	}
	list, err := h.catalog.ListModels(c.Context(), middleware.CallerFrom(c), brandID)
	if err != nil {
		return jsonFailure(c, h.logger, err, "failed to fetch models")
	}
	return jsonSuccess(c, nonNil(list))
}

// CreateModel adds an approved model to the brand in the path.
func (h *CatalogHandler) CreateModel(c fiber.Ctx) error {
	brandID, err := paramID(c, "id")
	if err != nil {
		return jsonFailure(c, h.logger, err, "")
	}
	var in catalog.ModelInput
	if err := decodeJSON(c, &in); err != nil {
		return jsonFailure(c, h.logger, err, "")
	}
	in.BrandID = brandID
	m, err := h.catalog.CreateModel(c.Context(), middleware.CallerFrom(c), in)
	if err != nil {
		return jsonFailure(c, h.logger, err, "failed to create model")
	}
	return jsonCreated(c, m)
}

// GetModel returns one model.
func (h *CatalogHandler) GetModel(c fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return jsonFailure(c, h.logger, err, "")
	}
	m, err := h.catalog.GetModel(c.Context(), middleware.CallerFrom(c), id)
	if err != nil {
		return jsonFailure(c, h.logger, err, "failed to fetch model")
	}
	return jsonSuccess(c, m)
}

// UpdateModel rewrites a model.
func (h *CatalogHandler) UpdateModel(c fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return jsonFailure(c, h.logger, err, "")
	}
	var in catalog.ModelInput
	if err := decodeJSON(c, &in); err != nil {
		return jsonFailure(c, h.logger, err, "")
	}
	m, err := h.catalog.UpdateModel(c.Context(), middleware.CallerFrom(c), id, in)
	if err != nil {
		return jsonFailure(c, h.logger, err, "failed to update model")
	}
	return jsonSuccess(c, m)
}

// DeleteModel removes a model.
func (h *CatalogHandler) DeleteModel(c fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return jsonFailure(c, h.logger, err, "")
	}
	if err := h.catalog.DeleteModel(c.Context(), middleware.CallerFrom(c), id); err != nil {
		return jsonFailure(c, h.logger, err, "failed to delete model")
	}
	return jsonSuccess(c, nil)
}

// ApproveModel publishes a pending model.
func (h *CatalogHandler) ApproveModel(c fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return jsonFailure(c, h.logger, err, "")
	}
	m, err := h.catalog.ApproveModel(c.Context(), middleware.CallerFrom(c), id)
	if err != nil {
		return jsonFailure(c, h.logger, err, "failed to approve model")
	}
	return jsonSuccess(c, m)
}

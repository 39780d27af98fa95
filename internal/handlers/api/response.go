package api

import (
	"encoding/json"
	"strconv"

	"github.com/gofiber/fiber/v3"
	"go.uber.org/zap"

	"nietladen/internal/apperr"
)

// jsonSuccess returns a 200 response with data wrapped in the standard envelope.
func jsonSuccess(c fiber.Ctx, data any) error {
	return c.JSON(fiber.Map{
		"status": "ok",
		"data":   data,
	})
}

// jsonCreated is jsonSuccess with a 201 status.
func jsonCreated(c fiber.Ctx, data any) error {
	c.Status(fiber.StatusCreated)
	return jsonSuccess(c, data)
}

// jsonError returns an error response with the given HTTP status code.
func jsonError(c fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"status": "error",
		"error":  message,
	})
}

// jsonFailure maps a workflow error onto the envelope. Classified errors
// show their own message; anything else is logged and answered with
// fallback so internal detail never reaches the client.
func jsonFailure(c fiber.Ctx, logger *zap.Logger, err error, fallback string) error {
	status := apperr.HTTPStatus(err)
	if status >= fiber.StatusInternalServerError {
		logger.Error(fallback,
			zap.Error(err),
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
		)
	}
	return jsonError(c, status, apperr.Message(err, fallback))
}

// decodeJSON parses the request body into v.
func decodeJSON(c fiber.Ctx, v any) error {
	if err := json.Unmarshal(c.Body(), v); err != nil {
		return apperr.Validation("invalid request body")
	}
	return nil
}

// paramID parses a positive integer route parameter.
func paramID(c fiber.Ctx, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Params(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperr.Validation("invalid " + name)
	}
	return id, nil
}

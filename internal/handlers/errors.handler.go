package handlers

import (
	"errors"

	"bunkhouse/internal/repositories"
	"bunkhouse/internal/services"

	"github.com/gofiber/fiber/v2"
)

// errorStatus maps the service error taxonomy onto HTTP status codes.
// Anything unrecognised is an infrastructure failure.
func errorStatus(err error) int {
	switch {
	case errors.Is(err, services.ErrValidation):
		return fiber.StatusBadRequest
	case errors.Is(err, services.ErrNotFound), errors.Is(err, repositories.ErrRecordNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, services.ErrTokenExpired):
		return fiber.StatusGone
	case errors.Is(err, services.ErrUnitUnavailable),
		errors.Is(err, services.ErrNoUnitsAvailable),
		errors.Is(err, services.ErrAssignedUnitNoLongerAvailable),
		errors.Is(err, services.ErrTokenAlreadyUsed),
		errors.Is(err, services.ErrNothingToUndo),
		errors.Is(err, services.ErrProblemAlreadyResolved):
		return fiber.StatusConflict
	default:
		return fiber.StatusInternalServerError
	}
}

// respondError writes err as {"error": msg}. Client errors echo the error
// text; server errors are logged and replaced by fallback.
func (h *Handler) respondError(c *fiber.Ctx, err error, fallback string) error {
	status := errorStatus(err)
	if status == fiber.StatusInternalServerError {
		h.log.TraceFromContext(c.UserContext()).Er(fallback, err, "path", c.Path())
		return c.Status(status).JSON(fiber.Map{"error": fallback})
	}

	return c.Status(status).JSON(fiber.Map{"error": err.Error()})
}

func badBody(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"error": "Invalid request body",
	})
}

func pagination(c *fiber.Ctx) repositories.Pagination {
	var page repositories.Pagination
	if err := c.QueryParser(&page); err != nil {
		return repositories.Pagination{}.Normalize()
	}
	return page.Normalize()
}

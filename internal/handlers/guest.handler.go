package handlers

import (
	"bunkhouse/internal/app"
	tokensController "bunkhouse/internal/controllers/tokens"

	"github.com/gofiber/fiber/v2"
)

// GuestHandler serves the unauthenticated self check-in flow.
type GuestHandler struct {
	Handler
	tokensController tokensController.TokensControllerInterface
}

func NewGuestHandler(app app.App, router fiber.Router) *GuestHandler {
	return &GuestHandler{
		Handler:          newHandler(app, router, "guest_handler"),
		tokensController: app.Controllers.Tokens,
	}
}

func (h *GuestHandler) Register() {
	guest := h.router.Group("/guest/tokens")
	guest.Get("/:token", h.lookup)
	guest.Post("/:token/redeem", h.redeem)
}

func (h *GuestHandler) lookup(c *fiber.Ctx) error {
	view, err := h.tokensController.Lookup(c.UserContext(), c.Params("token"))
	if err != nil {
		return h.respondError(c, err, "Failed to load check-in link")
	}
	return c.JSON(fiber.Map{"token": view})
}

func (h *GuestHandler) redeem(c *fiber.Ctx) error {
	var req tokensController.GuestInput
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}

	stay, err := h.tokensController.Redeem(c.UserContext(), c.Params("token"), &req)
	if err != nil {
		return h.respondError(c, err, "Failed to complete check-in")
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"unitNumber":  stay.UnitNumber,
		"guestName":   stay.GuestName,
		"checkinTime": stay.CheckinTime,
	})
}

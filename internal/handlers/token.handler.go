package handlers

import (
	"bunkhouse/internal/app"
	tokensController "bunkhouse/internal/controllers/tokens"
	"bunkhouse/internal/handlers/middleware"

	"github.com/gofiber/fiber/v2"
)

type TokenHandler struct {
	Handler
	tokensController tokensController.TokensControllerInterface
}

func NewTokenHandler(app app.App, router fiber.Router) *TokenHandler {
	return &TokenHandler{
		Handler:          newHandler(app, router, "token_handler"),
		tokensController: app.Controllers.Tokens,
	}
}

func (h *TokenHandler) Register() {
	tokens := h.router.Group("/tokens")
	tokens.Get("", h.listActive)
	tokens.Post("", h.create)
	tokens.Post("/sweep", h.middleware.RequireManager(), h.sweep)
	tokens.Delete("/:token", h.cancel)
}

func (h *TokenHandler) listActive(c *fiber.Ctx) error {
	page, err := h.tokensController.ListActive(c.UserContext(), pagination(c))
	if err != nil {
		return h.respondError(c, err, "Failed to list tokens")
	}
	return c.JSON(fiber.Map{"tokens": page.Data, "pagination": page.Pagination})
}

func (h *TokenHandler) create(c *fiber.Ctx) error {
	var req tokensController.CreateTokenRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}

	token, err := h.tokensController.Create(c.UserContext(), middleware.GetActor(c).Name, &req)
	if err != nil {
		return h.respondError(c, err, "Failed to create token")
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"token": token})
}

func (h *TokenHandler) sweep(c *fiber.Ctx) error {
	count, err := h.tokensController.Sweep(c.UserContext())
	if err != nil {
		return h.respondError(c, err, "Failed to sweep tokens")
	}
	return c.JSON(fiber.Map{"deleted": count})
}

func (h *TokenHandler) cancel(c *fiber.Ctx) error {
	if err := h.tokensController.Cancel(c.UserContext(), c.Params("token")); err != nil {
		return h.respondError(c, err, "Failed to cancel token")
	}
	return c.SendStatus(fiber.StatusNoContent)
}

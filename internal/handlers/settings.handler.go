package handlers

import (
	"bunkhouse/internal/app"
	settingsController "bunkhouse/internal/controllers/settings"
	"bunkhouse/internal/handlers/middleware"

	"github.com/gofiber/fiber/v2"
)

type SettingsHandler struct {
	Handler
	settingsController settingsController.SettingsControllerInterface
}

func NewSettingsHandler(app app.App, router fiber.Router) *SettingsHandler {
	return &SettingsHandler{
		Handler:            newHandler(app, router, "settings_handler"),
		settingsController: app.Controllers.Settings,
	}
}

func (h *SettingsHandler) Register() {
	settings := h.router.Group("/settings")
	settings.Get("", h.get)
	settings.Put("", h.middleware.RequireManager(), h.update)
}

func (h *SettingsHandler) get(c *fiber.Ctx) error {
	settings, err := h.settingsController.Get(c.UserContext())
	if err != nil {
		return h.respondError(c, err, "Failed to load settings")
	}
	return c.JSON(fiber.Map{"settings": settings})
}

func (h *SettingsHandler) update(c *fiber.Ctx) error {
	var req settingsController.UpdateSettingsRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}

	settings, err := h.settingsController.Update(c.UserContext(), middleware.GetActor(c).Name, &req)
	if err != nil {
		return h.respondError(c, err, "Failed to update settings")
	}
	return c.JSON(fiber.Map{"settings": settings})
}

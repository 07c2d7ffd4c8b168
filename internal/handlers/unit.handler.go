package handlers

import (
	"bunkhouse/internal/app"
	problemsController "bunkhouse/internal/controllers/problems"
	unitsController "bunkhouse/internal/controllers/units"
	"bunkhouse/internal/handlers/middleware"

	"github.com/gofiber/fiber/v2"
)

type UnitHandler struct {
	Handler
	unitsController    unitsController.UnitsControllerInterface
	problemsController problemsController.ProblemsControllerInterface
}

func NewUnitHandler(app app.App, router fiber.Router) *UnitHandler {
	return &UnitHandler{
		Handler:            newHandler(app, router, "unit_handler"),
		unitsController:    app.Controllers.Units,
		problemsController: app.Controllers.Problems,
	}
}

func (h *UnitHandler) Register() {
	units := h.router.Group("/units")
	units.Get("", h.listUnits)
	units.Get("/available", h.availableUnits)
	units.Get("/sections", h.sections)
	units.Get("/cleaning/:status", h.unitsByCleaningStatus)
	units.Post("/clean-all", h.middleware.RequireManager(), h.markAllCleaned)
	units.Get("/:number", h.getUnit)
	units.Patch("/:number/to-rent", h.middleware.RequireManager(), h.setToRent)
	units.Post("/:number/clean", h.markCleaned)
	units.Post("/:number/needs-cleaning", h.markNeedsCleaning)
	units.Get("/:number/cleaning", h.cleaningHistory)
	units.Get("/:number/problems", h.unitProblems)
}

func (h *UnitHandler) listUnits(c *fiber.Ctx) error {
	units, err := h.unitsController.List(c.UserContext())
	if err != nil {
		return h.respondError(c, err, "Failed to list units")
	}
	return c.JSON(fiber.Map{"units": units})
}

func (h *UnitHandler) availableUnits(c *fiber.Ctx) error {
	units, err := h.unitsController.Available(c.UserContext(), unitsController.AvailableQuery{
		Gender: c.Query("gender"),
	})
	if err != nil {
		return h.respondError(c, err, "Failed to list available units")
	}
	return c.JSON(fiber.Map{"units": units})
}

func (h *UnitHandler) sections(c *fiber.Ctx) error {
	sections, err := h.unitsController.Sections(c.UserContext())
	if err != nil {
		return h.respondError(c, err, "Failed to load sections")
	}
	return c.JSON(fiber.Map{"sections": sections})
}

func (h *UnitHandler) unitsByCleaningStatus(c *fiber.Ctx) error {
	units, err := h.unitsController.ByCleaningStatus(c.UserContext(), unitsController.CleaningStatusQuery{
		Status: c.Params("status"),
	})
	if err != nil {
		return h.respondError(c, err, "Failed to list units")
	}
	return c.JSON(fiber.Map{"units": units})
}

func (h *UnitHandler) markAllCleaned(c *fiber.Ctx) error {
	count, err := h.unitsController.MarkAllCleaned(c.UserContext(), middleware.GetActor(c).Name)
	if err != nil {
		return h.respondError(c, err, "Failed to mark units cleaned")
	}
	return c.JSON(fiber.Map{"cleaned": count})
}

func (h *UnitHandler) getUnit(c *fiber.Ctx) error {
	unit, err := h.unitsController.Get(c.UserContext(), c.Params("number"))
	if err != nil {
		return h.respondError(c, err, "Failed to load unit")
	}
	return c.JSON(fiber.Map{"unit": unit})
}

func (h *UnitHandler) setToRent(c *fiber.Ctx) error {
	var req unitsController.SetToRentRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}

	unit, err := h.unitsController.SetToRent(c.UserContext(), c.Params("number"), &req)
	if err != nil {
		return h.respondError(c, err, "Failed to update unit")
	}
	return c.JSON(fiber.Map{"unit": unit})
}

func (h *UnitHandler) markCleaned(c *fiber.Ctx) error {
	unit, err := h.unitsController.MarkCleaned(c.UserContext(), middleware.GetActor(c).Name, c.Params("number"))
	if err != nil {
		return h.respondError(c, err, "Failed to mark unit cleaned")
	}
	return c.JSON(fiber.Map{"unit": unit})
}

func (h *UnitHandler) markNeedsCleaning(c *fiber.Ctx) error {
	unit, err := h.unitsController.MarkNeedsCleaning(c.UserContext(), c.Params("number"))
	if err != nil {
		return h.respondError(c, err, "Failed to update unit")
	}
	return c.JSON(fiber.Map{"unit": unit})
}

func (h *UnitHandler) cleaningHistory(c *fiber.Ctx) error {
	page, err := h.unitsController.CleaningHistory(c.UserContext(), c.Params("number"), pagination(c))
	if err != nil {
		return h.respondError(c, err, "Failed to load cleaning history")
	}
	return c.JSON(fiber.Map{"records": page.Data, "pagination": page.Pagination})
}

func (h *UnitHandler) unitProblems(c *fiber.Ctx) error {
	problems, err := h.problemsController.ListForUnit(c.UserContext(), c.Params("number"))
	if err != nil {
		return h.respondError(c, err, "Failed to list problems")
	}
	return c.JSON(fiber.Map{"problems": problems})
}

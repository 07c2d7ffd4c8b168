package handlers

import (
	"bunkhouse/internal/app"
	staysController "bunkhouse/internal/controllers/stays"
	"bunkhouse/internal/handlers/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type StayHandler struct {
	Handler
	staysController staysController.StaysControllerInterface
}

func NewStayHandler(app app.App, router fiber.Router) *StayHandler {
	return &StayHandler{
		Handler:         newHandler(app, router, "stay_handler"),
		staysController: app.Controllers.Stays,
	}
}

func (h *StayHandler) Register() {
	h.router.Get("/occupancy", h.occupancy)

	stays := h.router.Group("/stays")
	stays.Get("", h.listActive)
	stays.Get("/history", h.history)
	stays.Get("/overdue", h.overdue)
	stays.Post("", h.checkIn)
	stays.Post("/undo-checkout", h.undoCheckout)
	stays.Post("/:id/checkout", h.checkOut)
}

func (h *StayHandler) occupancy(c *fiber.Ctx) error {
	summary, err := h.staysController.Occupancy(c.UserContext())
	if err != nil {
		return h.respondError(c, err, "Failed to compute occupancy")
	}
	return c.JSON(fiber.Map{"occupancy": summary})
}

func (h *StayHandler) listActive(c *fiber.Ctx) error {
	page, err := h.staysController.ListActive(c.UserContext(), pagination(c))
	if err != nil {
		return h.respondError(c, err, "Failed to list stays")
	}
	return c.JSON(fiber.Map{"stays": page.Data, "pagination": page.Pagination})
}

func (h *StayHandler) history(c *fiber.Ctx) error {
	query := staysController.HistoryQuery{
		Unit:  c.Query("unit"),
		Guest: c.Query("guest"),
		From:  c.Query("from"),
		To:    c.Query("to"),
	}

	page, err := h.staysController.History(c.UserContext(), query, pagination(c))
	if err != nil {
		return h.respondError(c, err, "Failed to list stay history")
	}
	return c.JSON(fiber.Map{"stays": page.Data, "pagination": page.Pagination})
}

func (h *StayHandler) overdue(c *fiber.Ctx) error {
	stays, err := h.staysController.Overdue(c.UserContext())
	if err != nil {
		return h.respondError(c, err, "Failed to list overdue stays")
	}
	return c.JSON(fiber.Map{"stays": stays})
}

func (h *StayHandler) checkIn(c *fiber.Ctx) error {
	var req staysController.CheckInRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}

	stay, err := h.staysController.CheckIn(c.UserContext(), middleware.GetActor(c).Name, &req)
	if err != nil {
		return h.respondError(c, err, "Failed to check in guest")
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"stay": stay})
}

func (h *StayHandler) undoCheckout(c *fiber.Ctx) error {
	stay, err := h.staysController.UndoCheckout(c.UserContext(), middleware.GetActor(c).Name)
	if err != nil {
		return h.respondError(c, err, "Failed to undo checkout")
	}
	return c.JSON(fiber.Map{"stay": stay})
}

func (h *StayHandler) checkOut(c *fiber.Ctx) error {
	stayID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid stay ID",
		})
	}

	stay, err := h.staysController.CheckOut(c.UserContext(), middleware.GetActor(c).Name, stayID)
	if err != nil {
		return h.respondError(c, err, "Failed to check out guest")
	}
	return c.JSON(fiber.Map{"stay": stay})
}

package handlers

import (
	"bunkhouse/internal/app"
	problemsController "bunkhouse/internal/controllers/problems"
	"bunkhouse/internal/handlers/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type ProblemHandler struct {
	Handler
	problemsController problemsController.ProblemsControllerInterface
}

func NewProblemHandler(app app.App, router fiber.Router) *ProblemHandler {
	return &ProblemHandler{
		Handler:            newHandler(app, router, "problem_handler"),
		problemsController: app.Controllers.Problems,
	}
}

func (h *ProblemHandler) Register() {
	problems := h.router.Group("/problems")
	problems.Get("", h.listAll)
	problems.Get("/active", h.listActive)
	problems.Get("/export", h.export)
	problems.Post("", h.report)
	problems.Post("/:id/resolve", h.resolve)
	problems.Delete("/:id", h.delete)
}

func (h *ProblemHandler) listAll(c *fiber.Ctx) error {
	page, err := h.problemsController.ListAll(c.UserContext(), pagination(c))
	if err != nil {
		return h.respondError(c, err, "Failed to list problems")
	}
	return c.JSON(fiber.Map{"problems": page.Data, "pagination": page.Pagination})
}

func (h *ProblemHandler) listActive(c *fiber.Ctx) error {
	page, err := h.problemsController.ListActive(c.UserContext(), pagination(c))
	if err != nil {
		return h.respondError(c, err, "Failed to list problems")
	}
	return c.JSON(fiber.Map{"problems": page.Data, "pagination": page.Pagination})
}

func (h *ProblemHandler) export(c *fiber.Ctx) error {
	text, err := h.problemsController.Export(c.UserContext())
	if err != nil {
		return h.respondError(c, err, "Failed to export maintenance status")
	}
	c.Set(fiber.HeaderContentType, fiber.MIMETextPlainCharsetUTF8)
	return c.SendString(text)
}

func (h *ProblemHandler) report(c *fiber.Ctx) error {
	var req problemsController.ReportProblemRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}

	problem, err := h.problemsController.Report(c.UserContext(), middleware.GetActor(c).Name, &req)
	if err != nil {
		return h.respondError(c, err, "Failed to report problem")
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"problem": problem})
}

func (h *ProblemHandler) resolve(c *fiber.Ctx) error {
	problemID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid problem ID",
		})
	}

	var req problemsController.ResolveProblemRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return badBody(c)
		}
	}

	problem, err := h.problemsController.Resolve(c.UserContext(), middleware.GetActor(c).Name, problemID, &req)
	if err != nil {
		return h.respondError(c, err, "Failed to resolve problem")
	}
	return c.JSON(fiber.Map{"problem": problem})
}

func (h *ProblemHandler) delete(c *fiber.Ctx) error {
	problemID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid problem ID",
		})
	}

	deleted, err := h.problemsController.Delete(c.UserContext(), problemID)
	if err != nil {
		return h.respondError(c, err, "Failed to delete problem")
	}
	return c.JSON(fiber.Map{"deleted": deleted})
}

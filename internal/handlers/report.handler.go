package handlers

import (
	"bunkhouse/internal/app"
	"bunkhouse/internal/jobs"
	"bunkhouse/internal/services"

	"github.com/gofiber/fiber/v2"
)

type ReportHandler struct {
	Handler
	reports   *services.ReportService
	scheduler *services.SchedulerService
}

func NewReportHandler(app app.App, router fiber.Router) *ReportHandler {
	return &ReportHandler{
		Handler:   newHandler(app, router, "report_handler"),
		reports:   app.Services.Reports,
		scheduler: app.Services.Scheduler,
	}
}

func (h *ReportHandler) Register() {
	reports := h.router.Group("/reports", h.middleware.RequireManager())
	reports.Get("/daily", h.daily)
	reports.Post("/daily/publish", h.publish)
}

func (h *ReportHandler) daily(c *fiber.Ctx) error {
	text, err := h.reports.DailyReport(c.UserContext())
	if err != nil {
		return h.respondError(c, err, "Failed to build daily report")
	}
	c.Set(fiber.HeaderContentType, fiber.MIMETextPlainCharsetUTF8)
	return c.SendString(text)
}

func (h *ReportHandler) publish(c *fiber.Ctx) error {
	if err := h.scheduler.RunJob(c.UserContext(), jobs.DailyReportJobName); err != nil {
		return h.respondError(c, err, "Failed to publish daily report")
	}
	return c.SendStatus(fiber.StatusAccepted)
}

package handlers

import (
	"bunkhouse/config"
	"bunkhouse/internal/services"

	"github.com/gofiber/fiber/v2"
)

func HealthHandler(router fiber.Router, config config.Config, scheduler *services.SchedulerService) {
	router.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"version": config.GeneralVersion,
			"service": "bunkhouse_api",
			"storage": config.StorageBackend,
			"scheduler": fiber.Map{
				"running": scheduler.IsRunning(),
				"jobs":    scheduler.GetJobCount(),
			},
		})
	})
}

package handlers

import (
	"bunkhouse/internal/app"
	"bunkhouse/internal/handlers/middleware"
	"bunkhouse/pkg/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/websocket/v2"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Handler struct {
	middleware middleware.Middleware
	log        logger.Logger
	router     fiber.Router
}

func newHandler(app app.App, router fiber.Router, file string) Handler {
	return Handler{
		middleware: app.Middleware,
		log:        logger.New("handlers").File(file),
		router:     router,
	}
}

func Router(router fiber.Router, app *app.App) (err error) {
	router.Use(app.Middleware.TraceID())

	setupWebSocketRoute(router, app)
	router.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	api := router.Group("/api")
	HealthHandler(api, app.Config, app.Services.Scheduler)
	NewGuestHandler(*app, api).Register()

	// Routes registered above stay public; everything after requires a staff
	// actor.
	staff := api.Group("", app.Middleware.RequireActor())
	NewUnitHandler(*app, staff).Register()
	NewStayHandler(*app, staff).Register()
	NewProblemHandler(*app, staff).Register()
	NewTokenHandler(*app, staff).Register()
	NewSettingsHandler(*app, staff).Register()
	NewReportHandler(*app, staff).Register()

	return nil
}

func setupWebSocketRoute(router fiber.Router, app *app.App) {
	if app.Websocket == nil {
		return
	}

	router.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			c.Locals("allowed", true)
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	router.Get("/ws", websocket.New(app.Websocket.HandleWebSocket))
}

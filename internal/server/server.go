package server

import (
	"fmt"
	"time"

	"bunkhouse/config"
	"bunkhouse/internal/app"
	"bunkhouse/internal/handlers"
	"bunkhouse/pkg/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberLogs "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/helmet/v2"
)

// Request bodies are small JSON documents (guest details, problem notes).
const maxBodySize = 256 * 1024

type AppServer struct {
	FiberApp *fiber.App
	log      logger.Logger
}

func fiberConfig(cfg config.Config) fiber.Config {
	development := cfg.IsDevelopment()

	return fiber.Config{
		ServerHeader:             fmt.Sprintf("Bunkhouse/%s", cfg.GeneralVersion),
		AppName:                  "bunkhouse_server",
		BodyLimit:                maxBodySize,
		EnableTrustedProxyCheck:  true,
		EnableSplittingOnParsers: true,
		ReadTimeout:              15 * time.Second,
		WriteTimeout:             15 * time.Second,
		IdleTimeout:              2 * time.Minute,
		DisableStartupMessage:    !development,
		EnablePrintRoutes:        development,
	}
}

// corsConfig allows credentials only for an explicit origin list; cors
// panics when credentials are combined with a wildcard.
func corsConfig(origins string) cors.Config {
	if origins == "" {
		origins = "*"
	}

	return cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     "GET, POST, PUT, PATCH, DELETE, OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, Upgrade, Connection, X-Trace-ID, X-Actor",
		AllowCredentials: origins != "*",
		ExposeHeaders:    "X-Trace-ID",
		MaxAge:           300,
	}
}

func helmetConfig() helmet.Config {
	return helmet.Config{
		XSSProtection:             "0",
		ContentTypeNosniff:        "nosniff",
		XFrameOptions:             "DENY",
		ReferrerPolicy:            "no-referrer",
		CrossOriginOpenerPolicy:   "same-origin",
		CrossOriginResourcePolicy: "same-site",
		XDNSPrefetchControl:       "off",
		XDownloadOptions:          "noopen",
		XPermittedCrossDomain:     "none",
	}
}

func New(app *app.App) (*AppServer, error) {
	log := logger.New("server").Function("New")
	log.Info("Initializing server", "environment", app.Config.Environment)

	server := fiber.New(fiberConfig(app.Config))

	server.Use(cors.New(corsConfig(app.Config.CorsAllowOrigins)))
	server.Use(fiberLogs.New())
	server.Use(compress.New())
	server.Use(helmet.New(helmetConfig()))

	if err := handlers.Router(server, app); err != nil {
		return nil, log.Err("failed to initialize handlers", err)
	}

	return &AppServer{FiberApp: server, log: log}, nil
}

func (s *AppServer) Listen(port int) error {
	log := s.log.Function("Listen")

	if port <= 0 {
		return log.Error("invalid port", "port", port)
	}

	log.Info("Starting server", "port", port)
	return s.FiberApp.Listen(fmt.Sprintf(":%d", port))
}

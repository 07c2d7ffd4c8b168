package app

import (
	"context"

	"bunkhouse/config"
	"bunkhouse/internal/controllers"
	"bunkhouse/internal/database"
	"bunkhouse/internal/events"
	"bunkhouse/internal/handlers/middleware"
	"bunkhouse/internal/jobs"
	"bunkhouse/internal/repositories"
	"bunkhouse/internal/services"
	"bunkhouse/internal/websockets"
	"bunkhouse/pkg/logger"

	"github.com/valkey-io/valkey-go"
)

type App struct {
	Database   database.DB
	Store      repositories.Store
	Middleware middleware.Middleware
	Websocket  *websockets.Manager
	EventBus   *events.EventBus
	Notifier   events.Notifier
	Config     config.Config

	Services    services.Service
	Controllers controllers.Controllers
}

func New() (*App, error) {
	log := logger.New("app").Function("New")

	cfg, err := config.InitConfig()
	if err != nil {
		return &App{}, log.Err("failed to initialize config", err)
	}

	db, err := database.New(cfg)
	if err != nil {
		return &App{}, log.Err("failed to create database", err)
	}

	var store repositories.Store
	switch cfg.StorageBackend {
	case config.StorageBackendMemory:
		store = repositories.NewMemoryStoreWithClock(services.SystemClock)
	default:
		store = repositories.NewGormStore(db)
	}

	app, err := Build(cfg, db, store)
	if err != nil {
		return &App{}, log.Err("failed to build app", err)
	}

	return app, nil
}

// Build wires every layer over an already opened database and store.
func Build(cfg config.Config, db database.DB, store repositories.Store) (*App, error) {
	log := logger.New("app").Function("Build")
	ctx := context.Background()

	var eventBus *events.EventBus
	if db.Cache.Events != nil {
		eventBus = events.New(db.Cache.Events)
	}

	middleware := middleware.New(cfg)
	websocket := websockets.New(middleware.AuthenticateToken)
	notifier := newNotifier(cfg, eventBus, websocket, log)

	var cache valkey.Client
	if db.Cache.General != nil {
		cache = db.Cache.General
	}

	service, err := services.New(store, cache, cfg, notifier)
	if err != nil {
		return &App{}, log.Err("failed to create services", err)
	}

	if err := service.Settings.EnsureDefaults(ctx); err != nil {
		return &App{}, log.Err("failed to ensure default settings", err)
	}

	if cfg.StorageBackend == config.StorageBackendMemory {
		created, err := service.Units.Seed(ctx, cfg.UnitCount)
		if err != nil {
			return &App{}, log.Err("failed to seed units", err)
		}
		log.Info("Seeded in-memory unit registry", "created", created)
	}

	if err := jobs.RegisterAllJobs(service.Scheduler, cfg, service); err != nil {
		return &App{}, log.Err("failed to register jobs", err)
	}

	app := &App{
		Database:    db,
		Store:       store,
		Middleware:  middleware,
		Websocket:   websocket,
		EventBus:    eventBus,
		Notifier:    notifier,
		Config:      cfg,
		Services:    service,
		Controllers: controllers.New(service),
	}

	if err := app.validate(); err != nil {
		return &App{}, log.Err("failed to validate app", err)
	}

	return app, nil
}

// newNotifier picks the delivery transport. The websocket feed is always
// fed, directly or through the event bus subscription.
func newNotifier(
	cfg config.Config,
	eventBus *events.EventBus,
	websocket *websockets.Manager,
	log logger.Logger,
) events.Notifier {
	switch cfg.NotifyTransport {
	case config.NotifyTransportValkey:
		if eventBus == nil {
			log.Warn("valkey transport selected without a cache connection, notifying websocket clients only")
			return websocket
		}
		websocket.SubscribeTo(eventBus)
		return eventBus
	case config.NotifyTransportAMQP:
		return events.Multi{events.NewAMQPPublisher(cfg.AMQPURL), websocket}
	default:
		return websocket
	}
}

func (a *App) validate() error {
	log := logger.New("app").Function("validate")

	if a.Store == nil {
		return log.ErrMsg("store is nil")
	}

	nilChecks := []any{
		a.Websocket,
		a.Notifier,
		a.Services.Scheduler,
		a.Controllers.Units,
		a.Controllers.Stays,
		a.Controllers.Problems,
		a.Controllers.Tokens,
		a.Controllers.Settings,
	}

	for _, check := range nilChecks {
		if check == nil {
			return log.ErrMsg("nil check failed")
		}
	}

	return nil
}

func (a *App) Close() (err error) {
	if a.EventBus != nil {
		if closeErr := a.EventBus.Close(); closeErr != nil {
			err = closeErr
		}
	}

	if a.Services.Scheduler != nil {
		if closeErr := a.Services.Scheduler.Stop(context.Background()); closeErr != nil {
			err = closeErr
		}
	}

	if a.Websocket != nil {
		a.Websocket.Close()
	}

	if dbErr := a.Database.Close(); dbErr != nil {
		err = dbErr
	}

	return err
}

package services

import (
	"context"
	"errors"
	"fmt"

	"bunkhouse/internal/database"
	"bunkhouse/internal/models"
	"bunkhouse/internal/repositories"
	"bunkhouse/pkg/logger"

	"github.com/valkey-io/valkey-go"
)

// SettingsService serves operator settings, read through a valkey cache when
// one is configured.
type SettingsService struct {
	store repositories.SettingsStore
	cache valkey.Client
	now   Clock
	log   logger.Logger
}

func NewSettingsService(store repositories.SettingsStore, cache valkey.Client, clock Clock) *SettingsService {
	return &SettingsService{
		store: store,
		cache: cache,
		now:   clock,
		log:   logger.New("settingsService"),
	}
}

func (s *SettingsService) cacheBuilder(ctx context.Context) *database.CacheBuilder {
	return database.NewCacheBuilder(s.cache, SettingsCacheKey).
		WithHash(SETTINGS_HASH).
		WithTTL(SettingsCacheTTL).
		WithContext(ctx)
}

// Get returns the stored settings, or the defaults when none were saved.
func (s *SettingsService) Get(ctx context.Context) (models.Settings, error) {
	log := s.log.Function("Get").TraceFromContext(ctx)

	if s.cache != nil {
		var cached models.Settings
		found, err := s.cacheBuilder(ctx).Get(&cached)
		if err != nil {
			log.Warn("Failed to read settings from cache", "error", err)
		} else if found {
			cached.ID = models.SettingsID
			return cached, nil
		}
	}

	stored, err := s.store.GetSettings(ctx)
	if errors.Is(err, repositories.ErrRecordNotFound) {
		return models.DefaultSettings(), nil
	}
	if err != nil {
		return models.Settings{}, log.Err("failed to load settings", err)
	}

	if s.cache != nil {
		if err := s.cacheBuilder(ctx).WithStruct(stored).Set(); err != nil {
			log.Warn("Failed to cache settings", "error", err)
		}
	}

	return *stored, nil
}

func (s *SettingsService) Update(ctx context.Context, settings models.Settings, actor string) (models.Settings, error) {
	log := s.log.Function("Update").TraceFromContext(ctx)

	if err := settings.Validate(); err != nil {
		return models.Settings{}, fmt.Errorf("%w: %w", ErrValidation, err)
	}

	settings.ID = models.SettingsID
	settings.UpdatedAt = s.now()
	if actor != "" {
		settings.UpdatedBy = &actor
	}

	if err := s.store.SaveSettings(ctx, &settings); err != nil {
		return models.Settings{}, log.Err("failed to save settings", err)
	}

	s.invalidate(ctx, log)
	log.Info("Settings updated", "actor", actor)
	return settings, nil
}

// EnsureDefaults persists the default settings when none exist yet.
func (s *SettingsService) EnsureDefaults(ctx context.Context) error {
	log := s.log.Function("EnsureDefaults").TraceFromContext(ctx)

	_, err := s.store.GetSettings(ctx)
	if err == nil {
		return nil
	}
	if !errors.Is(err, repositories.ErrRecordNotFound) {
		return log.Err("failed to load settings", err)
	}

	defaults := models.DefaultSettings()
	defaults.UpdatedAt = s.now()
	if err := s.store.SaveSettings(ctx, &defaults); err != nil {
		return log.Err("failed to save default settings", err)
	}

	s.invalidate(ctx, log)
	log.Info("Default settings created")
	return nil
}

func (s *SettingsService) invalidate(ctx context.Context, log logger.Logger) {
	if s.cache == nil {
		return
	}
	if err := s.cacheBuilder(ctx).Delete(); err != nil {
		log.Warn("Failed to invalidate settings cache", "error", err)
	}
}

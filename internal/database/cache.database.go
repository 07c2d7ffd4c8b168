package database

import (
	"context"
	"fmt"
	"time"

	"bunkhouse/config"

	"github.com/valkey-io/valkey-go"
)

// Valkey logical databases.
const (
	// SettingsCacheIndex holds the cached operator settings.
	SettingsCacheIndex = iota
	// EventsCacheIndex carries the notification pub/sub channel.
	EventsCacheIndex
)

const cacheResetTimeout = 5 * time.Second

var cacheIndexNames = map[int]string{
	SettingsCacheIndex: "settings",
	EventsCacheIndex:   "events",
}

func newCacheClient(address string, index int) (CacheClient, error) {
	return valkey.NewClient(valkey.ClientOption{
		InitAddress: []string{address},
		SelectDB:    index,
	})
}

func (s *DB) initializeCacheDB(config config.Config) error {
	log := s.logger().Function("initializeCacheDB")

	if config.DatabaseCacheAddress == "" || config.DatabaseCachePort == 0 {
		return log.Error("failed to initialize cache database", "reason", "address or port is empty")
	}
	address := fmt.Sprintf("%s:%d", config.DatabaseCacheAddress, config.DatabaseCachePort)
	log.Info("initializing cache database", "address", address)

	general, err := newCacheClient(address, SettingsCacheIndex)
	if err != nil {
		return log.Err("failed to create settings valkey client", err)
	}

	eventsClient, err := newCacheClient(address, EventsCacheIndex)
	if err != nil {
		general.Close()
		return log.Err("failed to create events valkey client", err)
	}

	s.Cache = Cache{General: general, Events: eventsClient}

	if config.DatabaseCacheReset != -1 {
		s.resetCacheIndex(config.DatabaseCacheReset)
	}

	return nil
}

func (c Cache) clientFor(index int) CacheClient {
	switch index {
	case SettingsCacheIndex:
		return c.General
	case EventsCacheIndex:
		return c.Events
	default:
		return nil
	}
}

// resetCacheIndex flushes one logical database on startup. Failures are
// logged; a stale cache is not fatal.
func (s *DB) resetCacheIndex(index int) {
	log := s.logger().Function("resetCacheIndex").With("index", index, "name", cacheIndexNames[index])

	client := s.Cache.clientFor(index)
	if client == nil {
		log.Warn("Unknown cache database index")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), cacheResetTimeout)
	defer cancel()

	if err := client.Do(ctx, client.B().Flushdb().Build()).Error(); err != nil {
		log.Er("Failed to clear cache database", err)
		return
	}

	log.Info("Cleared cache database")
}

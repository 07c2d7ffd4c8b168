package services

import "time"

// Cache hash patterns
const (
	SETTINGS_HASH = "settings"
)

const (
	SettingsCacheKey = "current"
	SettingsCacheTTL = 5 * time.Minute
)

// Clock supplies the current time. Services store every timestamp in UTC.
type Clock func() time.Time

func SystemClock() time.Time {
	return time.Now().UTC()
}

package server

import (
	"net/http/httptest"
	"testing"

	"bunkhouse/config"
	"bunkhouse/internal/app"
	"bunkhouse/internal/database"
	"bunkhouse/internal/repositories"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCorsConfig(t *testing.T) {
	tests := []struct {
		name        string
		origins     string
		want        string
		credentials bool
	}{
		{name: "empty falls back to wildcard", origins: "", want: "*"},
		{name: "wildcard", origins: "*", want: "*"},
		{name: "explicit origins", origins: "https://desk.example", want: "https://desk.example", credentials: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := corsConfig(tt.origins)
			assert.Equal(t, tt.want, cfg.AllowOrigins)
			assert.Equal(t, tt.credentials, cfg.AllowCredentials)
			assert.Contains(t, cfg.AllowHeaders, "X-Actor")
		})
	}
}

func TestFiberConfig(t *testing.T) {
	dev := fiberConfig(config.Config{Environment: "development", GeneralVersion: "1.2.0"})
	assert.Equal(t, "Bunkhouse/1.2.0", dev.ServerHeader)
	assert.True(t, dev.EnablePrintRoutes)
	assert.False(t, dev.DisableStartupMessage)

	prod := fiberConfig(config.Config{Environment: "production"})
	assert.False(t, prod.EnablePrintRoutes)
	assert.True(t, prod.DisableStartupMessage)
	assert.Equal(t, maxBodySize, prod.BodyLimit)
}

func TestNew_ServesHealthWithSecurityHeaders(t *testing.T) {
	cfg := config.Config{
		Environment:     "development",
		StorageBackend:  config.StorageBackendMemory,
		NotifyTransport: config.NotifyTransportNone,
		UnitCount:       4,
		ReportTimezone:  "UTC",
	}
	a, err := app.Build(cfg, database.DB{}, repositories.NewMemoryStore())
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })

	s, err := New(a)
	require.NoError(t, err)

	resp, err := s.FiberApp.Test(httptest.NewRequest("GET", "/api/health", nil))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, "nosniff", resp.Header.Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", resp.Header.Get("X-Frame-Options"))

	assert.Error(t, s.Listen(0))
}

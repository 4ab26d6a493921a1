package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg := LoadConfig()

	assert.Equal(t, "development", cfg.AppEnv)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
	assert.Equal(t, "8080", cfg.ApiServicePort)
	assert.Equal(t, "db", cfg.PostgreSQLHost)
	assert.Equal(t, int64(5432), cfg.PostgreSQLPort)
	assert.Equal(t, int64(900), cfg.AccessTokenExpiration)
	assert.Equal(t, int64(604800), cfg.RefreshTokenExpiration)
	assert.Equal(t, int64(604800), cfg.RefreshRecordLifetime)
	assert.Equal(t, 10*time.Second, cfg.GraceWindow)
	assert.Equal(t, time.Hour, cfg.TokenCleanupInterval)
	assert.Equal(t, int64(587), cfg.SMTPPort)
}

func TestLoadConfig_Overrides(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("API_SERVICE_PORT", "9090")
	t.Setenv("ACCESS_TOKEN_EXPIRATION", "300")
	t.Setenv("ROTATION_GRACE_WINDOW", "30s")
	t.Setenv("TOKEN_CLEANUP_INTERVAL", "15m")
	t.Setenv("ACCESS_TOKEN_SECRET", "custom-access-secret")

	cfg := LoadConfig()

	assert.Equal(t, "production", cfg.AppEnv)
	assert.Equal(t, "9090", cfg.ApiServicePort)
	assert.Equal(t, int64(300), cfg.AccessTokenExpiration)
	assert.Equal(t, 30*time.Second, cfg.GraceWindow)
	assert.Equal(t, 15*time.Minute, cfg.TokenCleanupInterval)
	assert.Equal(t, "custom-access-secret", cfg.AccessTokenSecret)
}

func TestLoadConfig_InvalidValuesFallBack(t *testing.T) {
	t.Setenv("POSTGRESQL_PORT", "not-a-number")
	t.Setenv("ROTATION_GRACE_WINDOW", "soon")

	cfg := LoadConfig()

	assert.Equal(t, int64(5432), cfg.PostgreSQLPort)
	assert.Equal(t, 10*time.Second, cfg.GraceWindow)
}

func TestGetLogLevel(t *testing.T) {
	tests := []struct {
		value string
		want  slog.Level
	}{
		{"DEBUG", slog.LevelDebug},
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"WARN", slog.LevelWarn},
		{"ERROR", slog.LevelError},
		{"gibberish", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			t.Setenv("LOG_LEVEL", tt.value)
			assert.Equal(t, tt.want, getLogLevel())
		})
	}
}

package logger_test

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/keygate/backend-go/internal/config"
	"github.com/keygate/backend-go/internal/logger"
)

func TestNew_Development(t *testing.T) {
	cfg := &config.Config{
		AppEnv:   "development",
		LogLevel: slog.LevelDebug,
	}

	log := logger.New(cfg)

	assert.NotNil(t, log)
	assert.True(t, log.Enabled(context.Background(), slog.LevelDebug))
}

func TestNew_Production(t *testing.T) {
	cfg := &config.Config{
		AppEnv:   "production",
		LogLevel: slog.LevelInfo,
	}

	log := logger.New(cfg)

	assert.NotNil(t, log)
	assert.False(t, log.Enabled(context.Background(), slog.LevelDebug))
	assert.True(t, log.Enabled(context.Background(), slog.LevelInfo))
}

func TestNew_SetsDefault(t *testing.T) {
	cfg := &config.Config{
		AppEnv:   "development",
		LogLevel: slog.LevelWarn,
	}

	log := logger.New(cfg)

	assert.Equal(t, log, slog.Default())
}

func TestNew_DifferentLogLevels(t *testing.T) {
	testCases := []struct {
		name     string
		logLevel slog.Level
	}{
		{"Debug", slog.LevelDebug},
		{"Info", slog.LevelInfo},
		{"Warn", slog.LevelWarn},
		{"Error", slog.LevelError},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := &config.Config{
				AppEnv:   "development",
				LogLevel: tc.logLevel,
			}

			log := logger.New(cfg)
			assert.NotNil(t, log)
			assert.True(t, log.Enabled(context.Background(), tc.logLevel))
		})
	}
}

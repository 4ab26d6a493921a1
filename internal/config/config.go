package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	AppEnv                 string
	LogLevel               slog.Level
	ApiServicePort         string
	PostgreSQLHost         string
	PostgreSQLPort         int64
	PostgreSQLUser         string
	PostgreSQLPassword     string
	PostgreSQLDatabase     string
	AccessTokenSecret      string
	RefreshTokenSecret     string
	AccessTokenExpiration  int64 // seconds
	RefreshTokenExpiration int64 // seconds
	RefreshRecordLifetime  int64 // seconds, absolute expiry of stored refresh records
	GraceWindow            time.Duration
	TokenCleanupInterval   time.Duration
	RedisHost              string
	RedisPort              int64
	RedisPassword          string
	RedisDatabase          int64
	SMTPHost               string
	SMTPPort               int64
	SMTPUser               string
	SMTPPassword           string
	MailFrom               string
	VerificationURL        string
}

func LoadConfig() *Config {
	return &Config{
		AppEnv:                 getEnv("APP_ENV", "development"),                      // Default development
		LogLevel:               getLogLevel(),                                         // Default INFO
		ApiServicePort:         getEnv("API_SERVICE_PORT", "8080"),                    // Default 8080
		PostgreSQLHost:         getEnv("POSTGRESQL_HOST", "db"),                       // Default db
		PostgreSQLPort:         getEnvAsInt64("POSTGRESQL_PORT", 5432),                // Default 5432
		PostgreSQLUser:         getEnv("POSTGRESQL_USER", "keygate_user"),             // Default user
		PostgreSQLPassword:     getEnv("POSTGRESQL_PASSWORD", "keygate_password"),     // Default password
		PostgreSQLDatabase:     getEnv("POSTGRESQL_DATABASE", "keygate_db"),           // Default database name
		AccessTokenSecret:      getEnv("ACCESS_TOKEN_SECRET", "keygate_access"),       // Default secret key
		RefreshTokenSecret:     getEnv("REFRESH_TOKEN_SECRET", "keygate_refresh"),     // Default secret key
		AccessTokenExpiration:  getEnvAsInt64("ACCESS_TOKEN_EXPIRATION", 900),         // Default 15 minutes
		RefreshTokenExpiration: getEnvAsInt64("REFRESH_TOKEN_EXPIRATION", 604800),     // Default 7 days
		RefreshRecordLifetime:  getEnvAsInt64("REFRESH_RECORD_LIFETIME", 604800),      // Default 7 days
		GraceWindow:            getEnvAsDuration("ROTATION_GRACE_WINDOW", 10*time.Second),
		TokenCleanupInterval:   getEnvAsDuration("TOKEN_CLEANUP_INTERVAL", time.Hour), // Default 1 hour
		RedisHost:              getEnv("REDIS_HOST", "redis"),                         // Default redis
		RedisPort:              getEnvAsInt64("REDIS_PORT", 6379),                     // Default 6379
		RedisPassword:          getEnv("REDIS_PASSWORD", ""),                          // Default empty
		RedisDatabase:          getEnvAsInt64("REDIS_DATABASE", 0),                    // Default 0
		SMTPHost:               getEnv("SMTP_HOST", "localhost"),                      // Default localhost
		SMTPPort:               getEnvAsInt64("SMTP_PORT", 587),                       // Default 587
		SMTPUser:               getEnv("SMTP_USER", ""),                               // Default empty
		SMTPPassword:           getEnv("SMTP_PASSWORD", ""),                           // Default empty
		MailFrom:               getEnv("MAIL_FROM", "no-reply@keygate.local"),         // Default sender
		VerificationURL:        getEnv("VERIFICATION_URL", "http://localhost:8080/api/v1/auth/verify-email"),
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt64(key string, fallback int64) int64 {
	if valueStr, exists := os.LookupEnv(key); exists {
		if value, err := strconv.ParseInt(valueStr, 10, 64); err == nil {
			return value
		}
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	if valueStr, exists := os.LookupEnv(key); exists {
		if value, err := time.ParseDuration(valueStr); err == nil {
			return value
		}
	}
	return fallback
}

func getLogLevel() slog.Level {
	levelStr := getEnv("LOG_LEVEL", "INFO")

	switch strings.ToUpper(levelStr) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

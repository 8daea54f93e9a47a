package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
)

// insecure defaults that must never reach production
var insecureDefaults = map[string]bool{
	"your-secret-key-change-in-production": true,
	"internal-secret":                      true,
	"internal-service-secret":              true,
	"":                                     true,
}

var validate = validator.New()

type Config struct {
	Server         ServerConfig
	Database       DatabaseConfig
	JWT            JWTConfig
	CPanel         CPanelConfig
	Telemetry      TelemetryConfig
	LogLevel       string
	InternalSecret string

	// parse failures found by Load, reported by Validate
	loadErrs []error
}

type ServerConfig struct {
	Port string
	Mode string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type JWTConfig struct {
	SecretKey string
}

// CPanelConfig holds the WHM server credentials used on every API call.
// HostAccess is the hostname handed to end users for their login link.
type CPanelConfig struct {
	Host       string `validate:"required,http_url"`
	HostAccess string `validate:"omitempty,http_url"`
	Username   string `validate:"required"`
	APIKey     string `validate:"required"`
	Timeout    time.Duration
}

type TelemetryConfig struct {
	ServiceName  string
	OTLPEndpoint string
}

func Load() *Config {
	timeout, timeoutErr := getEnvSeconds("CPANEL_TIMEOUT")

	cfg := &Config{
		Server: ServerConfig{
			Port: getEnv("SERVER_PORT", "8006"),
			Mode: getEnv("GIN_MODE", "release"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "saas_user"),
			Password: getEnv("DB_PASSWORD", "saas_pass"),
			DBName:   getEnv("DB_NAME", "saas_db"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		JWT: JWTConfig{
			SecretKey: getEnv("JWT_SECRET_KEY", ""),
		},
		CPanel: CPanelConfig{
			Host:       getEnv("CPANEL_HOST", ""),
			HostAccess: getEnv("CPANEL_HOST_ACCESS", ""),
			Username:   getEnv("CPANEL_USERNAME", ""),
			APIKey:     getEnv("CPANEL_API_KEY", ""),
			Timeout:    timeout,
		},
		Telemetry: TelemetryConfig{
			ServiceName:  getEnv("OTEL_SERVICE_NAME", "cpanel-fulfillment"),
			OTLPEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		},
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		InternalSecret: getEnv("INTERNAL_SECRET", ""),
	}
	if timeoutErr != nil {
		cfg.loadErrs = append(cfg.loadErrs, timeoutErr)
	}
	return cfg
}

// Validate rejects insecure secrets and incomplete CPanel credentials.
func (c *Config) Validate() error {
	if len(c.loadErrs) > 0 {
		return errors.Join(c.loadErrs...)
	}

	if insecureDefaults[c.JWT.SecretKey] {
		return fmt.Errorf("JWT_SECRET_KEY must be set to a secure value (current value is insecure or empty)")
	}
	if len(c.JWT.SecretKey) < 32 {
		return fmt.Errorf("JWT_SECRET_KEY must be at least 32 characters long")
	}

	if insecureDefaults[c.InternalSecret] {
		return fmt.Errorf("INTERNAL_SECRET must be set to a secure value (current value is insecure or empty)")
	}
	if len(c.InternalSecret) < 32 {
		return fmt.Errorf("INTERNAL_SECRET must be at least 32 characters long")
	}

	if err := validate.Struct(c.CPanel); err != nil {
		return fmt.Errorf("invalid CPANEL_* configuration: %w", err)
	}
	if c.CPanel.Timeout < 0 {
		return fmt.Errorf("CPANEL_TIMEOUT must not be negative")
	}

	return nil
}

func (c *DatabaseConfig) DSN() string {
	return "postgres://" + c.User + ":" + c.Password + "@" + c.Host + ":" + c.Port + "/" + c.DBName + "?sslmode=" + c.SSLMode
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvSeconds reads a whole number of seconds; unset means zero.
func getEnvSeconds(key string) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be a whole number of seconds, got %q", key, value)
	}
	return time.Duration(n) * time.Second, nil
}

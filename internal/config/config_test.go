package config

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		JWT:            JWTConfig{SecretKey: strings.Repeat("j", 32)},
		InternalSecret: strings.Repeat("i", 32),
		CPanel: CPanelConfig{
			Host:     "https://whm.example.com:2087",
			Username: "root",
			APIKey:   "APIKEY",
		},
	}
}

func TestLoad(t *testing.T) {
	t.Setenv("CPANEL_HOST", "https://whm.example.com:2087")
	t.Setenv("CPANEL_HOST_ACCESS", "https://cpanel.example.com")
	t.Setenv("CPANEL_USERNAME", "root")
	t.Setenv("CPANEL_API_KEY", "secret")
	t.Setenv("CPANEL_TIMEOUT", "15")
	t.Setenv("SERVER_PORT", "9000")

	cfg := Load()

	assert.Equal(t, "https://whm.example.com:2087", cfg.CPanel.Host)
	assert.Equal(t, "https://cpanel.example.com", cfg.CPanel.HostAccess)
	assert.Equal(t, "root", cfg.CPanel.Username)
	assert.Equal(t, "secret", cfg.CPanel.APIKey)
	assert.Equal(t, 15*time.Second, cfg.CPanel.Timeout)
	assert.Equal(t, "9000", cfg.Server.Port)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoad_DefaultTimeoutIsZero(t *testing.T) {
	t.Setenv("CPANEL_TIMEOUT", "")

	cfg := Load()

	assert.Zero(t, cfg.CPanel.Timeout)
}

func TestLoad_InvalidTimeoutFailsValidation(t *testing.T) {
	t.Setenv("CPANEL_TIMEOUT", "abc")
	t.Setenv("CPANEL_HOST", "https://whm.example.com:2087")
	t.Setenv("CPANEL_USERNAME", "root")
	t.Setenv("CPANEL_API_KEY", "secret")
	t.Setenv("JWT_SECRET_KEY", strings.Repeat("j", 32))
	t.Setenv("INTERNAL_SECRET", strings.Repeat("i", 32))

	cfg := Load()

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), `CPANEL_TIMEOUT must be a whole number of seconds, got "abc"`)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{
			name:    "insecure jwt secret",
			mutate:  func(c *Config) { c.JWT.SecretKey = "your-secret-key-change-in-production" },
			wantErr: "JWT_SECRET_KEY",
		},
		{
			name:    "short internal secret",
			mutate:  func(c *Config) { c.InternalSecret = "short-but-not-default" },
			wantErr: "INTERNAL_SECRET must be at least 32",
		},
		{
			name:    "missing host",
			mutate:  func(c *Config) { c.CPanel.Host = "" },
			wantErr: "CPANEL_",
		},
		{
			name:    "host without scheme",
			mutate:  func(c *Config) { c.CPanel.Host = "whm.example.com" },
			wantErr: "CPANEL_",
		},
		{
			name:    "bad access host",
			mutate:  func(c *Config) { c.CPanel.HostAccess = "ftp://cpanel.example.com" },
			wantErr: "CPANEL_",
		},
		{
			name:   "access host optional",
			mutate: func(c *Config) { c.CPanel.HostAccess = "" },
		},
		{
			name:    "missing api key",
			mutate:  func(c *Config) { c.CPanel.APIKey = "" },
			wantErr: "CPANEL_",
		},
		{
			name:    "negative timeout",
			mutate:  func(c *Config) { c.CPanel.Timeout = -time.Second },
			wantErr: "CPANEL_TIMEOUT",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestDSN(t *testing.T) {
	db := DatabaseConfig{Host: "db", Port: "5432", User: "u", Password: "p", DBName: "n", SSLMode: "disable"}
	assert.Equal(t, "postgres://u:p@db:5432/n?sslmode=disable", db.DSN())
}

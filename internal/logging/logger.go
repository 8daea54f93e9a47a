package logging

import (
	"io"
	"os"

	"github.com/rs/zerolog"

	"github.com/wenwu/saas-platform/cpanel-fulfillment/internal/config"
)

// NewLogger creates the root zerolog.Logger for the service. The level comes
// from LOG_LEVEL and falls back to info when it cannot be parsed.
func NewLogger(cfg *config.Config) zerolog.Logger {
	return newLogger(os.Stdout, cfg.Telemetry.ServiceName, cfg.LogLevel)
}

func newLogger(w io.Writer, service, level string) zerolog.Logger {
	ctx := zerolog.New(w).With().Timestamp()
	if service != "" {
		ctx = ctx.Str("service", service)
	}

	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}

	return ctx.Logger().Level(lvl)
}

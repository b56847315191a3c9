// Package observability provides logging and tracing setup.
package observability

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/cory-johannsen/battlesim/internal/config"
)

// DefaultServiceName tags log records when telemetry.service_name is unset.
const DefaultServiceName = "battlesim"

// NewLogger creates the process logger from cfg.Logging. Every record carries
// the service name and the server mode, so telnet and API logs written to a
// shared sink stay distinguishable.
//
// Precondition: cfg.Logging.Level must be one of "debug", "info", "warn", "error".
// Precondition: cfg.Logging.Format must be "json" or "console".
// Postcondition: Returns a configured zap.Logger or a non-nil error.
func NewLogger(cfg config.Config) (*zap.Logger, error) {
	zapCfg, err := loggerConfig(cfg)
	if err != nil {
		return nil, err
	}
	logger, err := zapCfg.Build()
	if err != nil {
		return nil, fmt.Errorf("building logger: %w", err)
	}
	return logger, nil
}

// loggerConfig maps the application config onto a zap.Config.
func loggerConfig(cfg config.Config) (zap.Config, error) {
	level, err := zapcore.ParseLevel(cfg.Logging.Level)
	if err != nil {
		return zap.Config{}, fmt.Errorf("parsing log level %q: %w", cfg.Logging.Level, err)
	}

	var zapCfg zap.Config
	switch cfg.Logging.Format {
	case "json":
		zapCfg = zap.NewProductionConfig()
		// Exchange logs repeat the same message every turn; sampling would drop them.
		zapCfg.Sampling = nil
	case "console":
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zapCfg.DisableStacktrace = level > zapcore.DebugLevel
	default:
		return zap.Config{}, fmt.Errorf("unknown log format %q", cfg.Logging.Format)
	}

	zapCfg.Level = zap.NewAtomicLevelAt(level)
	zapCfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	zapCfg.EncoderConfig.EncodeDuration = zapcore.StringDurationEncoder

	service := cfg.Telemetry.ServiceName
	if service == "" {
		service = DefaultServiceName
	}
	zapCfg.InitialFields = map[string]any{
		"service": service,
		"mode":    cfg.Server.Mode,
	}
	return zapCfg, nil
}

package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/casapulse/pulse-core/internal/infrastructure/config"
)

// serviceName is attached to every log record as a default attribute so
// aggregated logs from multiple services can be filtered.
const serviceName = "pulse-core"

// Logger is the structured logger used throughout Pulse Core.
//
// It embeds *slog.Logger, so all the usual Info/Warn/Error/Debug methods
// with key-value attribute pairs are available directly.
//
// Thread Safety:
//   - All methods are safe for concurrent use from multiple goroutines.
type Logger struct {
	*slog.Logger
}

// New builds a Logger from the logging section of the configuration.
//
// The format selects between JSON (production, log shippers) and text
// (local development); the level filters records below the threshold;
// the output selects stdout or stderr. Every record carries the service
// name and build version as default attributes.
//
// Parameters:
//   - cfg: Logging configuration from config.yaml
//   - version: Application version stamped onto every record
//
// Returns:
//   - *Logger: Configured logger ready for use
func New(cfg config.LoggingConfig, version string) *Logger {
	var out io.Writer = os.Stdout
	if strings.EqualFold(cfg.Output, "stderr") {
		out = os.Stderr
	}

	opts := &slog.HandlerOptions{Level: parseLevel(cfg.Level)}

	var handler slog.Handler
	if strings.EqualFold(cfg.Format, "text") {
		handler = slog.NewTextHandler(out, opts)
	} else {
		handler = slog.NewJSONHandler(out, opts)
	}

	handler = handler.WithAttrs([]slog.Attr{
		slog.String("service", serviceName),
		slog.String("version", version),
	})

	return &Logger{Logger: slog.New(handler)}
}

// parseLevel maps a config level string onto slog.Level.
// Unrecognised values fall back to info rather than erroring; a typo in
// the config should not prevent startup.
func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// With returns a child Logger carrying additional default attributes.
//
// Typical use is tagging a subsystem once instead of on every call:
//
//	mqttLog := log.With("component", "mqtt")
//	mqttLog.Info("connected") // includes component=mqtt
func (l *Logger) With(args ...any) *Logger {
	return &Logger{Logger: l.Logger.With(args...)}
}

// Default returns a JSON/info/stdout logger for use during early startup,
// before the configuration file has been read. Once config is loaded the
// caller should switch to New.
func Default() *Logger {
	return New(config.LoggingConfig{
		Level:  "info",
		Format: "json",
		Output: "stdout",
	}, "dev")
}

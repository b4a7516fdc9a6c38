package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/HaroonAImode/booking-management-cricket-sub001/internal/config"

	"github.com/rs/zerolog"
)

// New constructs a zerolog logger from config. Defaults to JSON at info level
// on stdout when fields are empty. The returned closer is non-nil only for
// file output.
func New(cfg config.LoggingConfig, app config.AppConfig) (*zerolog.Logger, io.Closer, error) {
	level := parseLevel(cfg.Level)

	output, closer, err := openOutput(cfg)
	if err != nil {
		return nil, nil, err
	}

	if normalize(cfg.Format) == "console" {
		output = zerolog.ConsoleWriter{Out: output, TimeFormat: time.RFC3339}
	}

	zerolog.TimeFieldFormat = time.RFC3339Nano
	builder := zerolog.New(output).Level(level).With().Timestamp()
	if app.Name != "" {
		builder = builder.Str("app", app.Name)
	}
	if app.Environment != "" {
		builder = builder.Str("env", app.Environment)
	}
	if app.Version != "" {
		builder = builder.Str("version", app.Version)
	}

	base := builder.Logger()
	return &base, closer, nil
}

// Component derives a child logger tagged with the subsystem name, so a log
// line can be traced back to the sweeper, the sync worker or the API without
// grepping message text.
func Component(base *zerolog.Logger, name string) zerolog.Logger {
	return base.With().Str("component", name).Logger()
}

func parseLevel(raw string) zerolog.Level {
	normalized := normalize(raw)
	if normalized == "" {
		return zerolog.InfoLevel
	}
	if parsed, err := zerolog.ParseLevel(normalized); err == nil {
		return parsed
	}
	return zerolog.InfoLevel
}

func openOutput(cfg config.LoggingConfig) (io.Writer, io.Closer, error) {
	switch normalize(cfg.Output) {
	case "stderr":
		return os.Stderr, nil, nil
	case "file":
		if cfg.FilePath == "" {
			return nil, nil, fmt.Errorf("logging.output=file requires logging.file_path")
		}
		file, err := os.OpenFile(cfg.FilePath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		return file, file, nil
	default:
		return os.Stdout, nil, nil
	}
}

func normalize(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

package config

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// ParseLogLevel maps a level name to a slog.Level. An empty name means info.
func ParseLogLevel(level string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level: %s", level)
	}
}

// NewLogger creates a text logger writing to w at the configured level.
// Unknown levels fall back to info; ValidateSettings reports them earlier.
func NewLogger(w io.Writer, s *Settings) *slog.Logger {
	level, _ := ParseLogLevel(s.LogLevel)
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// Log logs the resolved settings in a granular way, skipping irrelevant ones
func Log(s *Settings) {
	LogWithLogger(s, slog.Default())
}

// LogWithLogger logs the resolved settings using the provided logger
func LogWithLogger(s *Settings, logger *slog.Logger) {
	ctx := context.Background()
	logger.InfoContext(ctx, "Config: transport", "value", s.Transport)
	if s.Transport == TransportSSE {
		logger.InfoContext(ctx, "Config: host", "value", s.Host)
		logger.InfoContext(ctx, "Config: port", "value", s.Port)
	}
	logger.InfoContext(ctx, "Config: log_level", "value", s.LogLevel)

	logger.InfoContext(ctx, "Config: library.enabled", "value", s.Library.Enabled)
	if s.Library.Enabled {
		logger.InfoContext(ctx, "Config: library.data_dir", "value", s.Library.DataDir)
		if s.Library.SeedFile != "" {
			logger.InfoContext(ctx, "Config: library.seed_file", "value", s.Library.SeedFile)
		} else {
			logger.InfoContext(ctx, "Config: library.seed_samples", "value", s.Library.SeedSamples)
		}
		logger.InfoContext(ctx, "Config: library.max_results", "value", s.Library.MaxResults)
		logger.InfoContext(ctx, "Config: library.source_limit", "value", s.Library.SourceLimit)
	}

	logger.InfoContext(ctx, "Config: tour.tooltip", "width", s.Tour.TooltipWidth, "height", s.Tour.TooltipHeight, "padding", s.Tour.Padding)
}

// SettingsLogValue returns a slog.Value for Settings
func SettingsLogValue(s Settings) slog.Value {
	return slog.GroupValue(
		slog.String("transport", s.Transport),
		slog.String("host", s.Host),
		slog.Int("port", s.Port),
		slog.String("log_level", s.LogLevel),
		slog.Any("library", LibrarySettingsLogValue(s.Library)),
		slog.Any("tour", TourSettingsLogValue(s.Tour)),
	)
}

// LibrarySettingsLogValue returns a slog.Value for LibrarySettings
func LibrarySettingsLogValue(l LibrarySettings) slog.Value {
	return slog.GroupValue(
		slog.Bool("enabled", l.Enabled),
		slog.String("data_dir", l.DataDir),
		slog.String("seed_file", l.SeedFile),
		slog.Bool("seed_samples", l.SeedSamples),
		slog.Int("max_results", l.MaxResults),
		slog.Int("source_limit", l.SourceLimit),
		slog.Duration("lock_timeout", l.LockTimeout),
	)
}

// TourSettingsLogValue returns a slog.Value for TourSettings
func TourSettingsLogValue(t TourSettings) slog.Value {
	return slog.GroupValue(
		slog.Float64("tooltip_width", t.TooltipWidth),
		slog.Float64("tooltip_height", t.TooltipHeight),
		slog.Float64("padding", t.Padding),
	)
}

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Transport constants
const (
	TransportStdio = "stdio"
	TransportSSE   = "sse"
)

// LibrarySettings configuration for the document library
type LibrarySettings struct {
	Enabled     bool          `mapstructure:"enabled"`
	DataDir     string        `mapstructure:"data_dir"`
	SeedFile    string        `mapstructure:"seed_file"`
	SeedSamples bool          `mapstructure:"seed_samples"`
	MaxResults  int           `mapstructure:"max_results"`
	SourceLimit int           `mapstructure:"source_limit"`
	LockTimeout time.Duration `mapstructure:"lock_timeout"`
}

// TourSettings configuration for tour tooltip placement
type TourSettings struct {
	TooltipWidth  float64 `mapstructure:"tooltip_width"`
	TooltipHeight float64 `mapstructure:"tooltip_height"`
	Padding       float64 `mapstructure:"padding"`
}

// Settings application settings
type Settings struct {
	Transport string          `mapstructure:"transport"`
	Host      string          `mapstructure:"host"`
	Port      int             `mapstructure:"port"`
	LogLevel  string          `mapstructure:"log_level"`
	Library   LibrarySettings `mapstructure:"library"`
	Tour      TourSettings    `mapstructure:"tour"`
}

// flagBindings maps settings keys to CLI flag names.
var flagBindings = map[string]string{
	"transport":            "transport",
	"host":                 "host",
	"port":                 "port",
	"log_level":            "log-level",
	"library.enabled":      "library-enabled",
	"library.data_dir":     "library-data-dir",
	"library.seed_file":    "library-seed-file",
	"library.seed_samples": "library-seed-samples",
	"library.max_results":  "library-max-results",
	"library.source_limit": "library-source-limit",
	"library.lock_timeout": "library-lock-timeout",
	"tour.tooltip_width":   "tour-tooltip-width",
	"tour.tooltip_height":  "tour-tooltip-height",
	"tour.padding":         "tour-padding",
}

// LoadSettings loads settings from environment variables and optional .env file
func LoadSettings() (*Settings, error) {
	return LoadSettingsWithFlags(nil)
}

// LoadSettingsWithFlags loads settings with optional CLI flag overrides.
// Priority: CLI flags > environment variables > .env file > defaults.
// If flags is nil, only env vars and defaults are used.
func LoadSettingsWithFlags(flags *pflag.FlagSet) (*Settings, error) {
	v := viper.New()

	v.SetDefault("transport", TransportStdio)
	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("port", 8080)
	v.SetDefault("log_level", "info")

	v.SetDefault("library.enabled", true)
	v.SetDefault("library.data_dir", defaultDataDir())
	v.SetDefault("library.seed_file", "")
	v.SetDefault("library.seed_samples", true)
	v.SetDefault("library.max_results", 20)
	v.SetDefault("library.source_limit", 5)
	v.SetDefault("library.lock_timeout", 30*time.Second)

	// Tooltip footprint of the tour card (24rem wide)
	v.SetDefault("tour.tooltip_width", 384.0)
	v.SetDefault("tour.tooltip_height", 400.0)
	v.SetDefault("tour.padding", 20.0)

	v.SetEnvPrefix("LEXDESK_MCP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Nested keys are not picked up by AutomaticEnv on Unmarshal
	for key := range flagBindings {
		_ = v.BindEnv(key, "LEXDESK_MCP_"+strings.ToUpper(strings.ReplaceAll(key, ".", "_")))
	}

	if flags != nil {
		for key, name := range flagBindings {
			if f := flags.Lookup(name); f != nil {
				_ = v.BindPFlag(key, f)
			}
		}
	}

	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	_ = v.ReadInConfig() // Ignore error if .env doesn't exist

	var settings Settings
	if err := v.Unmarshal(&settings); err != nil {
		return nil, err
	}

	settings.Transport = strings.ToLower(strings.TrimSpace(settings.Transport))
	settings.LogLevel = strings.ToLower(strings.TrimSpace(settings.LogLevel))
	settings.Library.DataDir = expandHomeDir(strings.TrimSpace(settings.Library.DataDir))
	settings.Library.SeedFile = expandHomeDir(strings.TrimSpace(settings.Library.SeedFile))

	return &settings, nil
}

// defaultDataDir returns the default library data directory
func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".lexdesk-mcp"
	}
	return filepath.Join(home, ".lexdesk-mcp")
}

// expandHomeDir expands ~ to the user's home directory
func expandHomeDir(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	if path == "~" {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return home
	}
	return path
}

// ValidateSettings checks for invalid or conflicting configurations.
func ValidateSettings(s *Settings) error {
	switch s.Transport {
	case TransportStdio, TransportSSE:
		// valid
	default:
		return errors.New("transport must be 'stdio' or 'sse', got: " + s.Transport)
	}

	if s.Transport == TransportSSE && (s.Port <= 0 || s.Port > 65535) {
		return fmt.Errorf("port must be between 1 and 65535, got: %d", s.Port)
	}

	if _, err := ParseLogLevel(s.LogLevel); err != nil {
		return err
	}

	if err := validateLibrarySettings(&s.Library); err != nil {
		return err
	}

	return validateTourSettings(&s.Tour)
}

// validateLibrarySettings validates the library configuration
func validateLibrarySettings(l *LibrarySettings) error {
	if !l.Enabled {
		return nil
	}

	if l.DataDir == "" {
		return errors.New("library-data-dir cannot be empty")
	}

	if l.MaxResults <= 0 {
		return errors.New("library-max-results must be positive")
	}

	if l.SourceLimit <= 0 {
		return errors.New("library-source-limit must be positive")
	}

	if l.LockTimeout <= 0 {
		return errors.New("library-lock-timeout must be positive")
	}

	if l.SeedFile != "" {
		info, err := os.Stat(l.SeedFile)
		if err != nil {
			return fmt.Errorf("library-seed-file: %w", err)
		}
		if info.IsDir() {
			return errors.New("library-seed-file must be a file, got a directory: " + l.SeedFile)
		}
	}

	return nil
}

// validateTourSettings validates the tooltip geometry
func validateTourSettings(t *TourSettings) error {
	if t.TooltipWidth <= 0 || t.TooltipHeight <= 0 {
		return errors.New("tour tooltip width and height must be positive")
	}
	if t.Padding < 0 {
		return errors.New("tour-padding cannot be negative")
	}
	return nil
}

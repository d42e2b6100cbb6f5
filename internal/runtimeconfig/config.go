package runtimeconfig

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var ErrVaultDirRequired = errors.New("mapblocks config: vault directory is required")
var ErrStorageProviderUnknown = errors.New("mapblocks config: storage provider is invalid")
var ErrStorageDialectUnknown = errors.New("mapblocks config: storage dialect is invalid")
var ErrStorageDSNRequired = errors.New("mapblocks config: storage dsn is required for the bun provider")
var ErrStorageSettingsPathRequired = errors.New("mapblocks config: settings path is required for the file provider")
var ErrPruneWindowInvalid = errors.New("mapblocks config: prune window must be zero or positive")
var ErrZoomRangeInvalid = errors.New("mapblocks config: min zoom must not exceed max zoom")
var ErrTooltipModeInvalid = errors.New("mapblocks config: tooltip mode is invalid")

// ErrCacheFeatureRequiresEnabledCache keeps the repository cache behind the cache section.
var ErrCacheFeatureRequiresEnabledCache = errors.New("mapblocks config: cache feature requires cache to be enabled")
var ErrLoggingProviderRequired = errors.New("mapblocks config: logging provider is required when logging feature is enabled")
var ErrLoggingProviderUnknown = errors.New("mapblocks config: logging provider is invalid")
var ErrLoggingLevelInvalid = errors.New("mapblocks config: logging level is invalid")
var ErrLoggingFormatInvalid = errors.New("mapblocks config: logging format is invalid")

// Config aggregates feature flags and adapter bindings for the map block module.
type Config struct {
	Vault    VaultConfig   `mapstructure:"vault"`
	Maps     MapsConfig    `mapstructure:"maps"`
	Storage  StorageConfig `mapstructure:"storage"`
	Cache    CacheConfig   `mapstructure:"cache"`
	Logging  LoggingConfig `mapstructure:"logging"`
	Features Features      `mapstructure:"features"`
}

// VaultConfig points the document index at a directory of Markdown notes.
type VaultConfig struct {
	Dir       string `mapstructure:"dir"`
	Pattern   string `mapstructure:"pattern"`
	Recursive bool   `mapstructure:"recursive"`
}

// MapsConfig holds the defaults applied to blocks that omit a parameter.
type MapsConfig struct {
	OverlayTag   string  `mapstructure:"overlayTag"`
	OverlayColor string  `mapstructure:"overlayColor"`
	Tooltip      string  `mapstructure:"tooltip"`
	MinZoom      float64 `mapstructure:"minZoom"`
	MaxZoom      float64 `mapstructure:"maxZoom"`
	DefaultZoom  float64 `mapstructure:"defaultZoom"`
}

// StorageConfig selects where persisted map records and settings live.
type StorageConfig struct {
	Provider     string `mapstructure:"provider"`
	Dialect      string `mapstructure:"dialect"`
	DSN          string `mapstructure:"dsn"`
	SettingsPath string `mapstructure:"settingsPath"`
	// PruneWindow is expressed in milliseconds.
	PruneWindow int64 `mapstructure:"pruneWindow"`
}

// CacheConfig captures cache behaviour toggles.
type CacheConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	TTL     time.Duration `mapstructure:"ttl"`
}

// Features toggles module functionality.
type Features struct {
	DataIndex bool `mapstructure:"dataIndex"`
	Logger    bool `mapstructure:"logger"`
	Cache     bool `mapstructure:"cache"`
}

// LoggingConfig captures provider-specific options for runtime logging.
type LoggingConfig struct {
	Provider string `mapstructure:"provider"`
	Level    string `mapstructure:"level"`
	Format   string `mapstructure:"format"`
	// Focus restricts go-logger output to the named module loggers, e.g. "maps.store".
	Focus     []string `mapstructure:"focus"`
	AddSource bool     `mapstructure:"addSource"`
}

// DefaultConfig returns the settings a fresh install starts with.
func DefaultConfig() Config {
	return Config{
		Vault: VaultConfig{
			Dir:       ".",
			Pattern:   "*.md",
			Recursive: true,
		},
		Maps: MapsConfig{
			OverlayColor: "blue",
			Tooltip:      "hover",
			MinZoom:      1,
			MaxZoom:      10,
			DefaultZoom:  5,
		},
		Storage: StorageConfig{
			Provider:    "memory",
			Dialect:     "sqlite",
			PruneWindow: 604_800_000,
		},
		Cache: CacheConfig{
			Enabled: false,
			TTL:     time.Minute,
		},
		Logging: LoggingConfig{
			Provider: "console",
			Level:    "info",
		},
		Features: Features{
			DataIndex: true,
		},
	}
}

// PruneDuration converts the configured prune window to a duration.
func (cfg StorageConfig) PruneDuration() time.Duration {
	return time.Duration(cfg.PruneWindow) * time.Millisecond
}

// Validate performs high-level consistency checks.
func (cfg Config) Validate() error {
	if strings.TrimSpace(cfg.Vault.Dir) == "" {
		return ErrVaultDirRequired
	}
	if cfg.Maps.MinZoom > cfg.Maps.MaxZoom {
		return fmt.Errorf("%w: %v > %v", ErrZoomRangeInvalid, cfg.Maps.MinZoom, cfg.Maps.MaxZoom)
	}
	if tooltip := strings.TrimSpace(cfg.Maps.Tooltip); tooltip != "" && !isSupportedTooltip(tooltip) {
		return fmt.Errorf("%w: %s", ErrTooltipModeInvalid, tooltip)
	}

	switch normalize(cfg.Storage.Provider) {
	case "", "memory":
	case "bun":
		if !isSupportedDialect(normalize(cfg.Storage.Dialect)) {
			return fmt.Errorf("%w: %s", ErrStorageDialectUnknown, cfg.Storage.Dialect)
		}
		if strings.TrimSpace(cfg.Storage.DSN) == "" {
			return ErrStorageDSNRequired
		}
	case "file":
		if strings.TrimSpace(cfg.Storage.SettingsPath) == "" {
			return ErrStorageSettingsPathRequired
		}
	default:
		return fmt.Errorf("%w: %s", ErrStorageProviderUnknown, cfg.Storage.Provider)
	}
	if cfg.Storage.PruneWindow < 0 {
		return ErrPruneWindowInvalid
	}

	if cfg.Features.Cache && !cfg.Cache.Enabled {
		return ErrCacheFeatureRequiresEnabledCache
	}

	if cfg.Features.Logger {
		provider := normalize(cfg.Logging.Provider)
		if provider == "" {
			return ErrLoggingProviderRequired
		}
		if !isSupportedProvider(provider) {
			return fmt.Errorf("%w: %s", ErrLoggingProviderUnknown, provider)
		}
		if level := strings.TrimSpace(cfg.Logging.Level); level != "" && !isSupportedLevel(level) {
			return fmt.Errorf("%w: %s", ErrLoggingLevelInvalid, level)
		}
		if provider == "gologger" {
			if format := strings.TrimSpace(cfg.Logging.Format); format != "" && !isSupportedFormat(format) {
				return fmt.Errorf("%w: %s", ErrLoggingFormatInvalid, format)
			}
		}
	}
	return nil
}

func normalize(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}

func isSupportedTooltip(mode string) bool {
	switch normalize(mode) {
	case "hover", "always", "never":
		return true
	default:
		return false
	}
}

func isSupportedDialect(dialect string) bool {
	switch dialect {
	case "sqlite", "postgres":
		return true
	default:
		return false
	}
}

func isSupportedProvider(provider string) bool {
	switch provider {
	case "console", "gologger":
		return true
	default:
		return false
	}
}

func isSupportedLevel(level string) bool {
	switch normalize(level) {
	case "trace", "debug", "info", "warn", "warning", "error", "fatal":
		return true
	default:
		return false
	}
}

func isSupportedFormat(format string) bool {
	switch normalize(format) {
	case "json", "console", "pretty":
		return true
	default:
		return false
	}
}

package runtimeconfig

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// ConfigFileName is the file Load looks for inside the config directory.
const ConfigFileName = "mapblocks.json"

// EnvPrefix namespaces environment overrides, e.g. MAPBLOCKS_STORAGE_PROVIDER.
const EnvPrefix = "MAPBLOCKS"

// Load reads mapblocks.json from configDir on top of DefaultConfig.
// A missing file yields the defaults; environment variables win over both.
func Load(configDir string) (Config, error) {
	v := viper.New()
	setDefaults(v, DefaultConfig())

	v.SetConfigName(strings.TrimSuffix(ConfigFileName, ".json"))
	v.SetConfigType("json")
	v.AddConfigPath(configDir)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("error decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper, cfg Config) {
	v.SetDefault("vault.dir", cfg.Vault.Dir)
	v.SetDefault("vault.pattern", cfg.Vault.Pattern)
	v.SetDefault("vault.recursive", cfg.Vault.Recursive)

	v.SetDefault("maps.overlayTag", cfg.Maps.OverlayTag)
	v.SetDefault("maps.overlayColor", cfg.Maps.OverlayColor)
	v.SetDefault("maps.tooltip", cfg.Maps.Tooltip)
	v.SetDefault("maps.minZoom", cfg.Maps.MinZoom)
	v.SetDefault("maps.maxZoom", cfg.Maps.MaxZoom)
	v.SetDefault("maps.defaultZoom", cfg.Maps.DefaultZoom)

	v.SetDefault("storage.provider", cfg.Storage.Provider)
	v.SetDefault("storage.dialect", cfg.Storage.Dialect)
	v.SetDefault("storage.dsn", cfg.Storage.DSN)
	v.SetDefault("storage.settingsPath", cfg.Storage.SettingsPath)
	v.SetDefault("storage.pruneWindow", cfg.Storage.PruneWindow)

	v.SetDefault("cache.enabled", cfg.Cache.Enabled)
	v.SetDefault("cache.ttl", cfg.Cache.TTL)

	v.SetDefault("logging.provider", cfg.Logging.Provider)
	v.SetDefault("logging.level", cfg.Logging.Level)
	v.SetDefault("logging.format", cfg.Logging.Format)
	v.SetDefault("logging.focus", cfg.Logging.Focus)
	v.SetDefault("logging.addSource", cfg.Logging.AddSource)

	v.SetDefault("features.dataIndex", cfg.Features.DataIndex)
	v.SetDefault("features.logger", cfg.Features.Logger)
	v.SetDefault("features.cache", cfg.Features.Cache)
}

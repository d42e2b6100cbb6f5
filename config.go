package mapblocks

import "github.com/goliatone/go-mapblocks/internal/runtimeconfig"

var (
	ErrVaultDirRequired                 = runtimeconfig.ErrVaultDirRequired
	ErrStorageProviderUnknown           = runtimeconfig.ErrStorageProviderUnknown
	ErrStorageDialectUnknown            = runtimeconfig.ErrStorageDialectUnknown
	ErrStorageDSNRequired               = runtimeconfig.ErrStorageDSNRequired
	ErrStorageSettingsPathRequired      = runtimeconfig.ErrStorageSettingsPathRequired
	ErrPruneWindowInvalid               = runtimeconfig.ErrPruneWindowInvalid
	ErrZoomRangeInvalid                 = runtimeconfig.ErrZoomRangeInvalid
	ErrTooltipModeInvalid               = runtimeconfig.ErrTooltipModeInvalid
	ErrCacheFeatureRequiresEnabledCache = runtimeconfig.ErrCacheFeatureRequiresEnabledCache
	ErrLoggingProviderRequired          = runtimeconfig.ErrLoggingProviderRequired
	ErrLoggingProviderUnknown           = runtimeconfig.ErrLoggingProviderUnknown
	ErrLoggingLevelInvalid              = runtimeconfig.ErrLoggingLevelInvalid
	ErrLoggingFormatInvalid             = runtimeconfig.ErrLoggingFormatInvalid
)

type (
	Config        = runtimeconfig.Config
	VaultConfig   = runtimeconfig.VaultConfig
	MapsConfig    = runtimeconfig.MapsConfig
	StorageConfig = runtimeconfig.StorageConfig
	CacheConfig   = runtimeconfig.CacheConfig
	LoggingConfig = runtimeconfig.LoggingConfig
	Features      = runtimeconfig.Features
)

func DefaultConfig() Config {
	return runtimeconfig.DefaultConfig()
}

// LoadConfig reads mapblocks.json from dir, falling back to DefaultConfig.
func LoadConfig(dir string) (Config, error) {
	return runtimeconfig.Load(dir)
}

package mapblocks_test

import (
	"errors"
	"testing"

	"github.com/goliatone/go-mapblocks"
)

func TestConfigValidateBunRequiresDSN(t *testing.T) {
	cfg := mapblocks.DefaultConfig()
	cfg.Storage.Provider = "bun"
	if err := cfg.Validate(); !errors.Is(err, mapblocks.ErrStorageDSNRequired) {
		t.Fatalf("expected ErrStorageDSNRequired, got %v", err)
	}
}

func TestConfigValidateCacheFeatureRequiresCache(t *testing.T) {
	cfg := mapblocks.DefaultConfig()
	cfg.Cache.Enabled = false
	cfg.Features.Cache = true

	if err := cfg.Validate(); !errors.Is(err, mapblocks.ErrCacheFeatureRequiresEnabledCache) {
		t.Fatalf("expected ErrCacheFeatureRequiresEnabledCache, got %v", err)
	}
}

func TestLoadConfigDefaultsWithoutFile(t *testing.T) {
	cfg, err := mapblocks.LoadConfig(t.TempDir())
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Storage.Provider != "memory" {
		t.Fatalf("expected memory storage, got %q", cfg.Storage.Provider)
	}
}

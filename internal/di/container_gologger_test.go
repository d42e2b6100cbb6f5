package di

import (
	"testing"

	"github.com/goliatone/go-mapblocks/internal/logging/gologger"
	"github.com/goliatone/go-mapblocks/internal/runtimeconfig"
)

func TestConfigureLoggerProviderUsesGoLoggerAdapter(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	cfg.Features.Logger = true
	cfg.Logging.Provider = "gologger"
	cfg.Logging.Level = "debug"
	cfg.Logging.Format = "json"

	container, err := NewContainer(cfg)
	if err != nil {
		t.Fatalf("NewContainer returned error: %v", err)
	}

	provider, ok := container.loggerProvider.(*gologger.Provider)
	if !ok {
		t.Fatalf("expected go-logger provider, got %T", container.loggerProvider)
	}

	logger := provider.GetLogger("maps.test")
	if logger == nil {
		t.Fatal("expected logger from go-logger provider, got nil")
	}
}

func TestConfigureLoggerProviderDisabledByDefault(t *testing.T) {
	container, err := NewContainer(runtimeconfig.DefaultConfig())
	if err != nil {
		t.Fatalf("NewContainer returned error: %v", err)
	}
	if container.loggerProvider != nil {
		t.Fatalf("expected no provider when the logger feature is off, got %T", container.loggerProvider)
	}
}

func TestRenderDefaultsFollowMapsConfig(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig().Maps
	cfg.Tooltip = "always"
	cfg.OverlayTag = " territory "
	cfg.MinZoom = 2
	cfg.MaxZoom = 12
	cfg.DefaultZoom = 0

	got := renderDefaults(cfg)
	if got.Tooltip != "always" || got.OverlayTag != "territory" {
		t.Fatalf("unexpected defaults %+v", got)
	}
	if got.MinZoom != 2 || got.MaxZoom != 12 || got.DefaultZoom != 5 {
		t.Fatalf("unexpected zoom defaults %+v", got)
	}
}

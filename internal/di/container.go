package di

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	repocache "github.com/goliatone/go-repository-cache/cache"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"

	"github.com/goliatone/go-mapblocks/internal/domain"
	"github.com/goliatone/go-mapblocks/internal/icons"
	"github.com/goliatone/go-mapblocks/internal/logging"
	"github.com/goliatone/go-mapblocks/internal/logging/console"
	"github.com/goliatone/go-mapblocks/internal/logging/gologger"
	"github.com/goliatone/go-mapblocks/internal/markers"
	"github.com/goliatone/go-mapblocks/internal/render"
	"github.com/goliatone/go-mapblocks/internal/resolver"
	"github.com/goliatone/go-mapblocks/internal/runtimeconfig"
	"github.com/goliatone/go-mapblocks/internal/store"
	"github.com/goliatone/go-mapblocks/internal/vault"
	"github.com/goliatone/go-mapblocks/internal/views"
	"github.com/goliatone/go-mapblocks/pkg/interfaces"
)

// Container wires module dependencies.
type Container struct {
	Config runtimeconfig.Config

	filesystem     fs.FS
	loggerProvider interfaces.LoggerProvider
	palette        interfaces.CommandPalette
	now            func() time.Time

	bunDB         *bun.DB
	ownsDB        bool
	cacheTTL      time.Duration
	cacheService  repocache.CacheService
	keySerializer repocache.KeySerializer

	records      store.RecordRepository
	settingsRepo store.SettingsRepository

	vault     *vault.FSVault
	index     *vault.Index
	icons     *icons.Registry
	resolver  *resolver.Resolver
	store     *store.Service
	registry  *views.Registry
	processor *render.Processor
}

// Option mutates the container before it is finalised.
type Option func(*Container)

// WithFS overrides the vault filesystem, which otherwise is os.DirFS(Vault.Dir).
func WithFS(filesystem fs.FS) Option {
	return func(c *Container) {
		c.filesystem = filesystem
	}
}

// WithLoggerProvider overrides the provider derived from the logging config.
func WithLoggerProvider(provider interfaces.LoggerProvider) Option {
	return func(c *Container) {
		c.loggerProvider = provider
	}
}

// WithCommandPalette sets the palette command markers resolve against.
func WithCommandPalette(palette interfaces.CommandPalette) Option {
	return func(c *Container) {
		c.palette = palette
	}
}

// WithCache overrides the default cache provider.
func WithCache(service repocache.CacheService, serializer repocache.KeySerializer) Option {
	return func(c *Container) {
		c.cacheService = service
		c.keySerializer = serializer
	}
}

// WithBunDB supplies an open database for the bun storage provider.
func WithBunDB(db *bun.DB) Option {
	return func(c *Container) {
		c.bunDB = db
	}
}

// WithRecordRepository overrides the configured record storage.
func WithRecordRepository(repo store.RecordRepository) Option {
	return func(c *Container) {
		c.records = repo
	}
}

// WithSettingsRepository sets where icon settings and exports are kept.
func WithSettingsRepository(repo store.SettingsRepository) Option {
	return func(c *Container) {
		c.settingsRepo = repo
	}
}

// WithClock overrides the clock used for record access times.
func WithClock(now func() time.Time) Option {
	return func(c *Container) {
		c.now = now
	}
}

// NewContainer creates a container with the provided configuration.
func NewContainer(cfg runtimeconfig.Config, opts ...Option) (*Container, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	cacheTTL := cfg.Cache.TTL
	if cacheTTL <= 0 {
		cacheTTL = time.Minute
	}

	c := &Container{
		Config:   cfg,
		cacheTTL: cacheTTL,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}

	if err := c.configureLogger(); err != nil {
		return nil, err
	}
	c.configureCacheDefaults()
	if err := c.configureStorage(); err != nil {
		return nil, err
	}
	c.configureServices()
	return c, nil
}

func (c *Container) configureLogger() error {
	if c.loggerProvider != nil || !c.Config.Features.Logger {
		return nil
	}
	logCfg := c.Config.Logging
	switch strings.ToLower(strings.TrimSpace(logCfg.Provider)) {
	case "gologger":
		provider, err := gologger.NewProvider(gologger.Config{
			Level:     logCfg.Level,
			Format:    logCfg.Format,
			AddSource: logCfg.AddSource,
			Focus:     logCfg.Focus,
		})
		if err != nil {
			return err
		}
		c.loggerProvider = provider
	default:
		level := console.ParseLevel(logCfg.Level)
		c.loggerProvider = console.NewProvider(console.Options{MinLevel: &level})
	}
	return nil
}

func (c *Container) configureCacheDefaults() {
	if !c.Config.Cache.Enabled || !c.Config.Features.Cache {
		return
	}
	if c.cacheService == nil {
		cfg := repocache.DefaultConfig()
		if c.cacheTTL > 0 {
			cfg.TTL = c.cacheTTL
		}
		service, err := repocache.NewCacheService(cfg)
		if err == nil {
			c.cacheService = service
		}
	}
	if c.cacheService != nil && c.keySerializer == nil {
		c.keySerializer = repocache.NewDefaultKeySerializer()
	}
}

func (c *Container) configureStorage() error {
	storageCfg := c.Config.Storage
	provider := strings.ToLower(strings.TrimSpace(storageCfg.Provider))

	if provider == "file" && c.settingsRepo == nil {
		fileRepo := store.NewFileSettingsRepository(storageCfg.SettingsPath)
		c.settingsRepo = fileRepo
		if c.records == nil {
			c.records = fileRepo
		}
	}
	if c.records != nil {
		return nil
	}

	switch provider {
	case "bun":
		if c.bunDB == nil {
			db, err := openBunDB(storageCfg.Dialect, storageCfg.DSN)
			if err != nil {
				return err
			}
			c.bunDB = db
			c.ownsDB = true
		}
		c.records = store.NewBunRecordRepositoryWithCache(c.bunDB, c.cacheService, c.keySerializer)
	default:
		c.records = store.NewMemoryRecordRepository()
	}
	return nil
}

func openBunDB(dialect, dsn string) (*bun.DB, error) {
	switch strings.ToLower(strings.TrimSpace(dialect)) {
	case "postgres":
		sqlDB, err := sql.Open("postgres", dsn)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		return bun.NewDB(sqlDB, pgdialect.New()), nil
	default:
		sqlDB, err := sql.Open("sqlite3", dsn)
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		db := bun.NewDB(sqlDB, sqlitedialect.New())
		db.SetMaxOpenConns(1)
		return db, nil
	}
}

func (c *Container) configureServices() {
	provider := c.loggerProvider

	if c.filesystem == nil {
		c.filesystem = os.DirFS(c.Config.Vault.Dir)
	}
	c.vault = vault.New(c.filesystem, vault.Config{
		Pattern:   c.Config.Vault.Pattern,
		Recursive: c.Config.Vault.Recursive,
	}, vault.WithLogger(logging.VaultLogger(provider)))

	if c.Config.Features.DataIndex {
		c.index = vault.NewIndex(c.vault)
	}

	c.icons = icons.NewRegistry(nil)

	resolverOpts := []resolver.Option{
		resolver.WithIcons(c.icons),
		resolver.WithLogger(logging.ResolverLogger(provider)),
	}
	if c.index != nil {
		resolverOpts = append(resolverOpts, resolver.WithDataIndex(c.index))
	}
	if c.palette != nil {
		resolverOpts = append(resolverOpts, resolver.WithCommandPalette(c.palette))
	}
	c.resolver = resolver.New(c.vault, resolverOpts...)

	storeOpts := []store.ServiceOption{
		store.WithPruneWindow(c.Config.Storage.PruneDuration()),
		store.WithLogger(logging.StoreLogger(provider)),
	}
	if c.now != nil {
		storeOpts = append(storeOpts, store.WithNow(c.now))
	}
	c.store = store.NewService(c.records, storeOpts...)

	c.registry = views.NewRegistry(views.WithRegistryLogger(logging.MarkersLogger(provider)))

	processorOpts := []render.Option{
		render.WithStore(c.store),
		render.WithIcons(c.icons),
		render.WithDefaults(renderDefaults(c.Config.Maps)),
		render.WithLogger(logging.RenderLogger(provider)),
	}
	if c.palette != nil {
		processorOpts = append(processorOpts, render.WithCommandPalette(c.palette))
	}
	var refresher render.IndexRefresher
	if c.index != nil {
		refresher = c.index
	}
	processorOpts = append(processorOpts, render.WithInvalidation(c.vault, refresher))
	c.processor = render.New(c.resolver, c.registry, processorOpts...)
}

func renderDefaults(cfg runtimeconfig.MapsConfig) render.Defaults {
	defaults := render.DefaultDefaults()
	defaults.Tooltip = markers.ParseTooltip(cfg.Tooltip, defaults.Tooltip)
	defaults.OverlayTag = strings.TrimSpace(cfg.OverlayTag)
	if color := strings.TrimSpace(cfg.OverlayColor); color != "" {
		defaults.OverlayColor = color
	}
	if cfg.MinZoom != 0 || cfg.MaxZoom != 0 {
		defaults.MinZoom = cfg.MinZoom
		defaults.MaxZoom = cfg.MaxZoom
	}
	if cfg.DefaultZoom != 0 {
		defaults.DefaultZoom = cfg.DefaultZoom
	}
	return defaults
}

// Open prepares storage and loads persisted settings. Call it once before
// rendering blocks.
func (c *Container) Open(ctx context.Context) error {
	if c.bunDB != nil {
		if err := store.EnsureSchema(ctx, c.bunDB); err != nil {
			return err
		}
	}
	if c.settingsRepo != nil {
		settings, err := c.settingsRepo.Load(ctx)
		if err != nil {
			return err
		}
		defaultIcon := settings.DefaultMarker
		defaultIcon.Type = domain.DefaultMarkerType
		c.icons.Register(defaultIcon)
		for _, icon := range settings.MarkerIcons {
			c.icons.Register(icon)
		}
	}
	if _, err := c.store.Prune(ctx); err != nil {
		return err
	}
	return nil
}

// SaveSettings writes the settings document, map records included, when a
// settings repository is configured.
func (c *Container) SaveSettings(ctx context.Context) (store.Settings, error) {
	base := store.DefaultSettings()
	if c.settingsRepo != nil {
		loaded, err := c.settingsRepo.Load(ctx)
		if err != nil {
			return store.Settings{}, err
		}
		base = loaded
	}
	exported, err := c.store.Export(ctx, base)
	if err != nil {
		return store.Settings{}, err
	}
	if c.settingsRepo == nil {
		return exported, nil
	}
	if err := c.settingsRepo.Save(ctx, exported); err != nil {
		return store.Settings{}, err
	}
	return exported, nil
}

// Close releases the database opened by the container.
func (c *Container) Close() error {
	if c.bunDB == nil || !c.ownsDB {
		return nil
	}
	return c.bunDB.Close()
}

// LoggerProvider exposes the configured logger provider, which may be nil.
func (c *Container) LoggerProvider() interfaces.LoggerProvider {
	return c.loggerProvider
}

// Vault exposes the document vault.
func (c *Container) Vault() *vault.FSVault {
	return c.vault
}

// DataIndex returns the tag and link index, nil when the feature is off.
func (c *Container) DataIndex() *vault.Index {
	return c.index
}

// Icons exposes the icon registry.
func (c *Container) Icons() *icons.Registry {
	return c.icons
}

// Resolver exposes the immutable item resolver.
func (c *Container) Resolver() *resolver.Resolver {
	return c.resolver
}

// Store exposes the map record service.
func (c *Container) Store() *store.Service {
	return c.store
}

// Registry exposes the open map views.
func (c *Container) Registry() *views.Registry {
	return c.registry
}

// Processor exposes the block processor.
func (c *Container) Processor() *render.Processor {
	return c.processor
}

// BunDB returns the database used by the bun storage provider.
func (c *Container) BunDB() *bun.DB {
	return c.bunDB
}

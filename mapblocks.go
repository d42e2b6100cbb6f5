package mapblocks

import (
	"context"

	"github.com/goliatone/go-mapblocks/commands"
	markerscmd "github.com/goliatone/go-mapblocks/internal/commands/markers"
	"github.com/goliatone/go-mapblocks/internal/di"
	"github.com/goliatone/go-mapblocks/internal/markers"
	"github.com/goliatone/go-mapblocks/internal/render"
	"github.com/goliatone/go-mapblocks/internal/store"
	"github.com/goliatone/go-mapblocks/internal/views"
)

// View exports an open map view.
type View = views.View

// ViewMessage exports the change notifications replicated between views.
type ViewMessage = views.Message

// RenderOutput exports the result of processing one block.
type RenderOutput = render.Output

// ErrorBlock exports the error shown in place of a map that failed to render.
type ErrorBlock = render.ErrorBlock

// Settings exports the persisted settings document.
type Settings = store.Settings

// MapRecord exports the persisted user items of one map.
type MapRecord = store.MapRecord

// ImageBounds exports the pixel bounds of an image map.
type ImageBounds = markers.ImageBounds

// Marker command messages accepted by the handlers built in RegisterCommands.
type (
	AddMarkerCommand    = markerscmd.AddMarkerCommand
	MoveMarkerCommand   = markerscmd.MoveMarkerCommand
	UpdateMarkerCommand = markerscmd.UpdateMarkerCommand
	DeleteMarkerCommand = markerscmd.DeleteMarkerCommand
	MarkerHandlers      = markerscmd.HandlerSet
)

// CommandRegistry records command handlers so hosts can expose them via CLI or palette.
type CommandRegistry = markerscmd.CommandRegistry

// CommandSubscription allows hosts to tear down dispatcher subscriptions.
type CommandSubscription = commands.CommandSubscription

// Option configures the module container.
type Option = di.Option

var (
	WithFS                 = di.WithFS
	WithLoggerProvider     = di.WithLoggerProvider
	WithCommandPalette     = di.WithCommandPalette
	WithCache              = di.WithCache
	WithBunDB              = di.WithBunDB
	WithRecordRepository   = di.WithRecordRepository
	WithSettingsRepository = di.WithSettingsRepository
	WithClock              = di.WithClock
)

// Module represents the top level map block runtime façade.
type Module struct {
	container *di.Container
}

// New constructs a module using the provided configuration and optional overrides.
func New(cfg Config, opts ...Option) (*Module, error) {
	container, err := di.NewContainer(cfg, opts...)
	if err != nil {
		return nil, err
	}
	return &Module{container: container}, nil
}

// Container exposes the underlying DI container for advanced integrations.
func (m *Module) Container() *di.Container {
	return m.container
}

// Open prepares storage, loads icon settings and prunes stale records.
func (m *Module) Open(ctx context.Context) error {
	return m.container.Open(ctx)
}

// Close releases resources opened by the module.
func (m *Module) Close() error {
	if m == nil || m.container == nil {
		return nil
	}
	return m.container.Close()
}

// Render processes the source of one map block found in documentPath.
func (m *Module) Render(ctx context.Context, source, documentPath string) RenderOutput {
	return m.container.Processor().Process(ctx, render.Request{Source: source, DocumentPath: documentPath})
}

// RenderImage processes a block whose image layers measure bounds.
func (m *Module) RenderImage(ctx context.Context, source, documentPath string, bounds ImageBounds) RenderOutput {
	return m.container.Processor().Process(ctx, render.Request{Source: source, DocumentPath: documentPath, Bounds: &bounds})
}

// DocumentChanged refreshes every open view fed by path and reports how many changed.
func (m *Module) DocumentChanged(ctx context.Context, path string) (int, error) {
	return m.container.Processor().DocumentChanged(ctx, path)
}

// DocumentDeleted refreshes views fed by path and detaches it from stored records.
func (m *Module) DocumentDeleted(ctx context.Context, path string) (int, error) {
	changed, err := m.container.Processor().DocumentChanged(ctx, path)
	if err != nil {
		return changed, err
	}
	return changed, m.container.Store().ForgetFile(ctx, path)
}

// Unload closes a view.
func (m *Module) Unload(view *View) {
	m.container.Processor().Unload(view)
}

// Views lists the open views of mapID.
func (m *Module) Views(mapID string) []*View {
	return m.container.Registry().Views(mapID)
}

// Subscribe registers fn for every change applied to an open view.
func (m *Module) Subscribe(fn func(ViewMessage)) func() {
	return m.container.Registry().Subscribe(fn)
}

// RegisterCommands builds the marker command handlers and records them with reg when non-nil.
func (m *Module) RegisterCommands(reg CommandRegistry) (*MarkerHandlers, error) {
	return markerscmd.RegisterMarkerCommands(reg, m.container.Registry(), m.container.Store(), m.container.LoggerProvider())
}

// SubscribeCommands builds the marker handlers and subscribes them to the
// go-command dispatcher so hosts can dispatch marker edits as messages.
func (m *Module) SubscribeCommands() ([]CommandSubscription, error) {
	result, err := commands.RegisterContainerCommands(m.container, commands.RegistrationOptions{
		Dispatcher: commands.GoCommandDispatcher{},
	})
	if err != nil {
		return nil, err
	}
	return result.Subscriptions, nil
}

// Records lists the persisted map records.
func (m *Module) Records(ctx context.Context) ([]MapRecord, error) {
	return m.container.Store().Records(ctx)
}

// SaveSettings exports the settings document, writing it when file storage is configured.
func (m *Module) SaveSettings(ctx context.Context) (Settings, error) {
	return m.container.SaveSettings(ctx)
}

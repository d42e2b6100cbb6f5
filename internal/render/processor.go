package render

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"strings"
	"sync"

	goerrors "github.com/goliatone/go-errors"
	"github.com/samber/lo"

	"github.com/goliatone/go-mapblocks/internal/blockparams"
	"github.com/goliatone/go-mapblocks/internal/domain"
	"github.com/goliatone/go-mapblocks/internal/icons"
	"github.com/goliatone/go-mapblocks/internal/logging"
	"github.com/goliatone/go-mapblocks/internal/markers"
	"github.com/goliatone/go-mapblocks/internal/resolver"
	"github.com/goliatone/go-mapblocks/internal/store"
	"github.com/goliatone/go-mapblocks/internal/views"
	"github.com/goliatone/go-mapblocks/pkg/interfaces"
)

const (
	codeMapIDRequired = "MAP_ID_REQUIRED"
	codeBlockInvalid  = "BLOCK_INVALID"
	codeResolveFailed = "RESOLVE_FAILED"
	codeRenderPanic   = "RENDER_PANIC"
)

// Defaults fill block parameters the author left out.
type Defaults struct {
	Tooltip      markers.Tooltip
	OverlayTag   string
	OverlayColor string
	MinZoom      float64
	MaxZoom      float64
	DefaultZoom  float64
}

// DefaultDefaults mirrors the settings a fresh install starts with.
func DefaultDefaults() Defaults {
	return Defaults{
		Tooltip:      markers.TooltipHover,
		OverlayColor: "blue",
		MinZoom:      1,
		MaxZoom:      10,
		DefaultZoom:  5,
	}
}

// Request is one block render.
type Request struct {
	Source       string
	DocumentPath string
	Bounds       *markers.ImageBounds
}

// ErrorBlock replaces a map that could not be rendered.
type ErrorBlock struct {
	MapID   string `json:"mapId,omitempty"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e ErrorBlock) Error() string {
	return e.Message
}

// Output is the result of processing one block.
type Output struct {
	Params   blockparams.BlockParameters `json:"params"`
	Result   resolver.Result             `json:"result"`
	View     *views.View                 `json:"-"`
	Warnings []domain.Warning            `json:"warnings,omitempty"`
	// Notices are the warnings surfaced to the user when the block is verbose.
	Notices []string    `json:"notices,omitempty"`
	Error   *ErrorBlock `json:"error,omitempty"`
}

// Invalidator drops cached copies of a document.
type Invalidator interface {
	Invalidate(path string)
}

// IndexRefresher re-reads one document into the data index.
type IndexRefresher interface {
	Refresh(ctx context.Context, path string) error
}

// Option configures a processor.
type Option func(*Processor)

// WithStore enables persisted user markers.
func WithStore(svc *store.Service) Option {
	return func(p *Processor) {
		p.store = svc
	}
}

// WithIcons sets the icon registry handed to views.
func WithIcons(registry *icons.Registry) Option {
	return func(p *Processor) {
		if registry != nil {
			p.icons = registry
		}
	}
}

// WithCommandPalette sets the palette used for command marker labels.
func WithCommandPalette(palette interfaces.CommandPalette) Option {
	return func(p *Processor) {
		p.palette = palette
	}
}

// WithDefaults overrides DefaultDefaults.
func WithDefaults(defaults Defaults) Option {
	return func(p *Processor) {
		p.defaults = defaults
	}
}

// WithLogger sets the processor logger.
func WithLogger(logger interfaces.Logger) Option {
	return func(p *Processor) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithInvalidation wires the caches refreshed when a document changes.
func WithInvalidation(invalidator Invalidator, refresher IndexRefresher) Option {
	return func(p *Processor) {
		p.invalidator = invalidator
		p.refresher = refresher
	}
}

type tracked struct {
	view  *views.View
	input resolver.Input
}

// Processor turns block source into registered map views.
type Processor struct {
	resolver    *resolver.Resolver
	registry    *views.Registry
	store       *store.Service
	icons       *icons.Registry
	palette     interfaces.CommandPalette
	defaults    Defaults
	logger      interfaces.Logger
	invalidator Invalidator
	refresher   IndexRefresher

	mu      sync.Mutex
	tracked map[string]tracked
}

// New builds a processor. registry may be shared with the marker command layer.
func New(res *resolver.Resolver, registry *views.Registry, opts ...Option) *Processor {
	if res == nil {
		res = resolver.New(nil)
	}
	if registry == nil {
		registry = views.NewRegistry()
	}
	p := &Processor{
		resolver: res,
		registry: registry,
		icons:    icons.NewRegistry(nil),
		defaults: DefaultDefaults(),
		logger:   logging.NoOp(),
		tracked:  map[string]tracked{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}
	return p
}

// Registry returns the view registry.
func (p *Processor) Registry() *views.Registry {
	return p.registry
}

// Process parses, validates and resolves a block and registers its view.
// Failures never escape: they are reported through Output.Error.
func (p *Processor) Process(ctx context.Context, req Request) (out Output) {
	logger := logging.WithMapContext(p.logger, "", req.DocumentPath, "process")
	defer func() {
		if recovered := recover(); recovered != nil {
			logger.Error("render.block.panic", "panic", fmt.Sprint(recovered), "stack", string(debug.Stack()))
			out = Output{Params: out.Params, Error: &ErrorBlock{
				MapID:   out.Params.ID,
				Code:    codeRenderPanic,
				Message: fmt.Sprintf("could not render map: %v", recovered),
			}}
		}
	}()

	params := blockparams.Parse(req.Source)
	p.applyDefaults(&params)
	out.Params = params
	logger = logging.WithMapContext(p.logger, params.ID, req.DocumentPath, "process")
	ctx = logging.ContextWithFields(ctx, map[string]any{"document_path": req.DocumentPath})

	if err := blockparams.Validate(params); err != nil {
		code, message := validationFailure(err)
		wrapped := goerrors.Wrap(err, goerrors.CategoryValidation, message).WithTextCode(code)
		logger.Warn("render.block.invalid", "error", wrapped)
		out.Error = &ErrorBlock{MapID: params.ID, Code: code, Message: message}
		return out
	}

	in := resolver.InputFromParams(params)
	result, err := p.resolver.Resolve(ctx, in)
	if err != nil {
		wrapped := goerrors.Wrap(err, goerrors.CategoryInternal, "could not resolve map items").WithTextCode(codeResolveFailed)
		logger.Error("render.block.resolve_failed", "error", wrapped)
		out.Error = &ErrorBlock{MapID: params.ID, Code: codeResolveFailed, Message: "could not resolve map items: " + err.Error()}
		return out
	}
	out.Result = result

	view := views.New(views.Config{
		MapID:    params.ID,
		Document: req.DocumentPath,
		Layers:   params.Layers,
		Bounds:   req.Bounds,
		Zoom:     p.initialZoom(params),
		Tooltip:  markers.ParseTooltip(params.Tooltip, p.defaults.Tooltip),
		Icons:    p.icons,
		Palette:  p.palette,
	})

	warnings := append([]domain.Warning(nil), params.Warnings...)
	warnings = append(warnings, result.Warnings...)
	warnings = append(warnings, view.LoadResolved(result)...)

	if p.store != nil {
		record, err := p.store.Record(ctx, params.ID)
		if err != nil {
			logger.Error("render.block.record_failed", "error", err)
		} else {
			view.LoadRecord(record.Markers, record.Overlays)
		}
		if _, err := p.store.Touch(ctx, params.ID, req.DocumentPath); err != nil {
			logger.Error("render.block.touch_failed", "error", err)
		}
	}

	p.registry.Register(view)
	p.mu.Lock()
	p.tracked[view.Handle()] = tracked{view: view, input: in}
	p.mu.Unlock()

	out.View = view
	out.Warnings = warnings
	if params.Verbose {
		out.Notices = lo.Map(warnings, func(w domain.Warning, _ int) string { return w.String() })
	}
	logger.Info("render.block.processed",
		"markers", len(view.Markers()),
		"overlays", len(view.Overlays()),
		"warnings", len(warnings),
	)
	return out
}

// DocumentChanged retracts what path contributed to every open map and
// resolves it again. It returns how many views changed.
func (p *Processor) DocumentChanged(ctx context.Context, path string) (int, error) {
	if p.invalidator != nil {
		p.invalidator.Invalidate(path)
	}
	if p.refresher != nil {
		if err := p.refresher.Refresh(ctx, path); err != nil {
			return 0, err
		}
	}

	p.mu.Lock()
	entries := lo.Values(p.tracked)
	p.mu.Unlock()

	changed := 0
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return changed, err
		}
		contributed := len(entry.view.SourceIndex().Groups(path)) > 0
		candidates, _, err := p.resolver.Candidates(ctx, entry.input)
		if err != nil {
			return changed, err
		}
		if !contributed && !lo.Contains(candidates, path) {
			continue
		}
		result := resolver.Result{SourceIndex: resolver.SourceIndex{}}
		if lo.Contains(candidates, path) {
			result, err = p.resolver.ResolveDocuments(ctx, entry.input, []string{path})
			if err != nil {
				return changed, err
			}
		}
		removed := entry.view.ReplaceDocument(path, result)
		changed++
		logging.WithMapContext(p.logger, entry.view.MapID(), path, "document_changed").
			Debug("render.document.reloaded", "removed", removed, "markers", len(result.Markers), "overlays", len(result.Overlays))
	}
	return changed, nil
}

// Unload unregisters a view, as when its block leaves the screen.
func (p *Processor) Unload(view *views.View) {
	if view == nil {
		return
	}
	p.registry.Unregister(view)
	p.mu.Lock()
	delete(p.tracked, view.Handle())
	p.mu.Unlock()
}

// Views lists every view the processor is tracking.
func (p *Processor) Views() []*views.View {
	p.mu.Lock()
	defer p.mu.Unlock()
	return lo.Map(lo.Values(p.tracked), func(entry tracked, _ int) *views.View { return entry.view })
}

func (p *Processor) applyDefaults(params *blockparams.BlockParameters) {
	if strings.TrimSpace(params.OverlayTag) == "" {
		params.OverlayTag = p.defaults.OverlayTag
	}
	if strings.TrimSpace(params.OverlayColor) == "" {
		params.OverlayColor = p.defaults.OverlayColor
	}
	if params.Tooltip == "" {
		params.Tooltip = string(p.defaults.Tooltip)
	}
}

func (p *Processor) initialZoom(params blockparams.BlockParameters) float64 {
	switch {
	case params.DefaultZoom != nil:
		return *params.DefaultZoom
	case params.MinZoom != nil && p.defaults.DefaultZoom < *params.MinZoom:
		return *params.MinZoom
	case params.MaxZoom != nil && p.defaults.DefaultZoom > *params.MaxZoom:
		return *params.MaxZoom
	default:
		return p.defaults.DefaultZoom
	}
}

func validationFailure(err error) (code, message string) {
	if errors.Is(err, blockparams.ErrMapIDRequired) {
		return codeMapIDRequired, "map blocks must have an id"
	}
	return codeBlockInvalid, "map block is invalid: " + err.Error()
}

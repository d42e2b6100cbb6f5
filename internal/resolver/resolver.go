package resolver

import (
	"context"
	"errors"
	"fmt"
	"strings"

	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/goliatone/go-mapblocks/internal/domain"
	"github.com/goliatone/go-mapblocks/internal/geo"
	"github.com/goliatone/go-mapblocks/internal/icons"
	"github.com/goliatone/go-mapblocks/internal/logging"
	"github.com/goliatone/go-mapblocks/internal/vault"
	"github.com/goliatone/go-mapblocks/pkg/interfaces"
)

const (
	codeInvalidRow        = "INVALID_MARKER_ROW"
	codeInvalidCoordinate = "INVALID_COORDINATE"
	codeInvalidMarker     = "INVALID_MAP_MARKER"
	codeInvalidOverlay    = "INVALID_OVERLAY"
	codeInvalidDistance   = "INVALID_DISTANCE"
	codeUnknownType       = "UNKNOWN_MARKER_TYPE"
	codeCommandNotFound   = "COMMAND_NOT_FOUND"
	codeDocumentNotFound  = "DOCUMENT_NOT_FOUND"
	codeIndexMissing      = "DATA_INDEX_MISSING"
	codeGeoJSONInvalid    = "GEOJSON_INVALID"

	defaultOverlayColor = "blue"
)

// ErrCommandNotFound marks command markers whose link matches no palette entry.
var ErrCommandNotFound = errors.New("resolver: command not found")

// Option customises a Resolver.
type Option func(*Resolver)

// WithDataIndex installs the tag and link-graph index.
func WithDataIndex(index interfaces.DataIndex) Option {
	return func(r *Resolver) {
		r.index = index
	}
}

// WithCommandPalette installs the palette command markers resolve against.
func WithCommandPalette(palette interfaces.CommandPalette) Option {
	return func(r *Resolver) {
		r.palette = palette
	}
}

// WithIcons installs the icon registry used to validate marker types.
func WithIcons(registry *icons.Registry) Option {
	return func(r *Resolver) {
		if registry != nil {
			r.icons = registry
		}
	}
}

// WithLogger sets the resolver logger.
func WithLogger(logger interfaces.Logger) Option {
	return func(r *Resolver) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithGroupIDGenerator overrides how group ids are minted.
func WithGroupIDGenerator(fn func() string) Option {
	return func(r *Resolver) {
		if fn != nil {
			r.newGroupID = fn
		}
	}
}

// Resolver turns block sources into marker and overlay tuples.
type Resolver struct {
	vault      interfaces.Vault
	index      interfaces.DataIndex
	palette    interfaces.CommandPalette
	icons      *icons.Registry
	logger     interfaces.Logger
	newGroupID func() string
}

// New constructs a resolver reading notes from v. v may be nil when only
// inline markers are used.
func New(v interfaces.Vault, opts ...Option) *Resolver {
	r := &Resolver{
		vault:      v,
		icons:      icons.NewRegistry(nil),
		logger:     logging.NoOp(),
		newGroupID: func() string { return uuid.NewString() },
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

// collector accumulates a resolution pass and logs every warning once.
type collector struct {
	result Result
	logger interfaces.Logger
}

func (c *collector) warn(w domain.Warning) {
	c.result.Warnings = append(c.result.Warnings, w)
	c.logger.Warn("resolver.item.skipped", "category", string(w.Category), "source", w.Source, "code", w.Code, "reason", w.Message)
}

// Resolve resolves every immutable marker and overlay of a map. Entry level
// problems are reported as warnings; only context cancellation returns an error.
func (r *Resolver) Resolve(ctx context.Context, in Input) (Result, error) {
	c := &collector{
		result: Result{SourceIndex: SourceIndex{}},
		logger: logging.WithMapContext(r.logger, in.MapID, "", "resolve").WithContext(ctx),
	}

	r.inlineMarkers(in.Markers, c)
	r.commandMarkers(in.CommandMarkers, c)
	r.blockOverlays(in, c)

	if err := r.geoJSON(ctx, in.GeoJSON, c); err != nil {
		return Result{}, err
	}

	if in.HasFileFilters() {
		paths, err := r.candidates(ctx, in, c)
		if err != nil {
			return Result{}, err
		}
		if err := r.documents(ctx, in, paths, c); err != nil {
			return Result{}, err
		}
	}

	c.logger.Debug("resolver.completed",
		"markers", len(c.result.Markers),
		"overlays", len(c.result.Overlays),
		"warnings", len(c.result.Warnings),
	)
	return c.result, nil
}

// ResolveDocuments re-resolves only the listed notes, which must already be
// part of the map's candidate set. Notes that no longer exist or no longer
// qualify produce no items.
func (r *Resolver) ResolveDocuments(ctx context.Context, in Input, paths []string) (Result, error) {
	c := &collector{
		result: Result{SourceIndex: SourceIndex{}},
		logger: logging.WithMapContext(r.logger, in.MapID, strings.Join(paths, ","), "resolve_documents"),
	}
	if err := r.documents(ctx, in, paths, c); err != nil {
		return Result{}, err
	}
	return c.result, nil
}

// Candidates returns the note paths a map draws vault markers from.
func (r *Resolver) Candidates(ctx context.Context, in Input) ([]string, []domain.Warning, error) {
	if !in.HasFileFilters() {
		return nil, nil, nil
	}
	c := &collector{logger: logging.WithMapContext(r.logger, in.MapID, "", "candidates")}
	paths, err := r.candidates(ctx, in, c)
	return paths, c.result.Warnings, err
}

func (r *Resolver) inlineMarkers(rows []string, c *collector) {
	for _, row := range rows {
		parsed, err := parseMarkerRow(row)
		if err != nil {
			c.warn(domain.Warning{Category: domain.CategoryMarker, Source: row, Code: codeInvalidRow, Message: rowMessage(err)})
			continue
		}
		c.result.Markers = append(c.result.Markers, r.rowTuple(parsed, row, domain.CategoryMarker, c))
	}
}

func (r *Resolver) commandMarkers(rows []string, c *collector) {
	for _, row := range rows {
		parsed, err := parseMarkerRow(row)
		if err != nil {
			c.warn(domain.Warning{Category: domain.CategoryCommandMarker, Source: row, Code: codeInvalidRow, Message: rowMessage(err)})
			continue
		}
		command, ok := r.findCommand(parsed.Link)
		if !ok {
			notFound := goerrors.Wrap(fmt.Errorf("%w: %q", ErrCommandNotFound, parsed.Link), goerrors.CategoryNotFound, "command marker skipped").
				WithTextCode(codeCommandNotFound)
			c.warn(domain.Warning{Category: domain.CategoryCommandMarker, Source: row, Code: codeCommandNotFound, Message: notFound.Error()})
			continue
		}
		parsed.Link = command.ID
		tuple := r.rowTuple(parsed, row, domain.CategoryCommandMarker, c)
		tuple.Command = true
		c.result.Markers = append(c.result.Markers, tuple)
	}
}

func (r *Resolver) rowTuple(row markerRow, source string, category domain.Category, c *collector) MarkerTuple {
	markerType, known := r.icons.Resolve(row.Type)
	if !known {
		c.warn(domain.Warning{
			Category: category,
			Source:   source,
			Code:     codeUnknownType,
			Message:  fmt.Sprintf("unknown marker type %q, using %q", row.Type, markerType),
		})
	}
	return MarkerTuple{
		Type:     markerType,
		Lat:      row.Lat,
		Long:     row.Long,
		Link:     row.Link,
		Layer:    row.Layer,
		MinZoom:  row.MinZoom,
		MaxZoom:  row.MaxZoom,
		Category: category,
		Source:   source,
	}
}

// findCommand matches link against palette ids and names, ignoring case.
func (r *Resolver) findCommand(link string) (interfaces.PaletteCommand, bool) {
	if r.palette == nil {
		return interfaces.PaletteCommand{}, false
	}
	target := strings.TrimSpace(link)
	return lo.Find(r.palette.Commands(), func(cmd interfaces.PaletteCommand) bool {
		return strings.EqualFold(cmd.ID, target) || strings.EqualFold(cmd.Name, target)
	})
}

func (r *Resolver) blockOverlays(in Input, c *collector) {
	for idx, tuple := range in.Overlays {
		source := fmt.Sprintf("overlay %d", idx+1)
		overlay, err := decodeOverlay(tuple, in.OverlayColor)
		if err != nil {
			c.warn(domain.Warning{Category: domain.CategoryOverlay, Source: source, Code: codeInvalidOverlay, Message: err.Error()})
			continue
		}
		overlay.Category = domain.CategoryOverlay
		overlay.Source = source
		c.result.Overlays = append(c.result.Overlays, overlay)
	}
}

func (r *Resolver) geoJSON(ctx context.Context, files []string, c *collector) error {
	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return err
		}
		if r.vault == nil {
			c.warn(domain.Warning{Category: domain.CategoryGeoJSON, Source: file, Code: codeDocumentNotFound, Message: "no vault configured"})
			continue
		}
		data, err := r.vault.ReadFile(ctx, file)
		if err != nil {
			c.warn(domain.Warning{Category: domain.CategoryGeoJSON, Source: file, Code: codeDocumentNotFound, Message: err.Error()})
			continue
		}
		layer, err := geo.DecodeGeoJSON(vault.UnwrapLink(file), data)
		if err != nil {
			c.warn(domain.Warning{Category: domain.CategoryGeoJSON, Source: file, Code: codeGeoJSONInvalid, Message: err.Error()})
			continue
		}
		c.result.GeoJSON = append(c.result.GeoJSON, layer)
	}
	return nil
}

// candidates builds the ordered, de-duplicated set of note paths selected by
// the file, folder, tag and link filters.
func (r *Resolver) candidates(ctx context.Context, in Input, c *collector) ([]string, error) {
	if r.vault == nil {
		c.warn(domain.Warning{Code: codeDocumentNotFound, Message: "no vault configured, file based markers ignored"})
		return nil, nil
	}

	var explicit []string
	for _, file := range in.Files {
		doc, err := r.vault.Document(ctx, file)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			c.warn(domain.Warning{Category: domain.CategoryMarkerFile, Source: file, Code: codeDocumentNotFound, Message: err.Error()})
			continue
		}
		explicit = append(explicit, doc.Path)
	}
	for _, folder := range in.Folders {
		docs, err := r.vault.Folder(ctx, vault.UnwrapLink(folder))
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			c.warn(domain.Warning{Category: domain.CategoryMarkerFolder, Source: folder, Code: codeDocumentNotFound, Message: err.Error()})
			continue
		}
		for _, doc := range docs {
			explicit = append(explicit, doc.Path)
		}
	}
	candidates := lo.Uniq(explicit)

	if r.index == nil {
		var ignored []string
		if len(in.Tags) > 0 {
			ignored = append(ignored, string(domain.CategoryMarkerTag))
		}
		if len(in.LinksTo) > 0 {
			ignored = append(ignored, string(domain.CategoryLinksTo))
		}
		if len(in.LinksFrom) > 0 {
			ignored = append(ignored, string(domain.CategoryLinksFrom))
		}
		if len(ignored) > 0 {
			c.warn(domain.Warning{
				Code:    codeIndexMissing,
				Message: "no data index installed, ignoring " + strings.Join(ignored, ", "),
			})
		}
		return candidates, nil
	}

	if len(in.Tags) > 0 {
		var tagged []string
		for _, group := range in.Tags {
			paths, err := r.index.Tagged(ctx, group)
			if err != nil {
				if ctxErr := ctx.Err(); ctxErr != nil {
					return nil, ctxErr
				}
				c.warn(domain.Warning{Category: domain.CategoryMarkerTag, Source: strings.Join(group, ","), Code: codeDocumentNotFound, Message: err.Error()})
				continue
			}
			tagged = append(tagged, paths...)
		}
		tagged = lo.Uniq(tagged)
		if len(in.Files) > 0 || len(in.Folders) > 0 {
			candidates = lo.Intersect(candidates, tagged)
		} else {
			candidates = tagged
		}
	}

	linked, err := r.linked(ctx, in.LinksTo, domain.CategoryLinksTo, r.index.Backlinks, c)
	if err != nil {
		return nil, err
	}
	candidates = append(candidates, linked...)
	linked, err = r.linked(ctx, in.LinksFrom, domain.CategoryLinksFrom, r.index.ForwardLinks, c)
	if err != nil {
		return nil, err
	}
	candidates = append(candidates, linked...)

	return lo.Uniq(candidates), nil
}

func (r *Resolver) linked(ctx context.Context, targets []string, category domain.Category, lookup func(context.Context, string) ([]string, error), c *collector) ([]string, error) {
	var out []string
	for _, target := range targets {
		paths, err := lookup(ctx, vault.UnwrapLink(target))
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			c.warn(domain.Warning{Category: category, Source: target, Code: codeDocumentNotFound, Message: err.Error()})
			continue
		}
		out = append(out, paths...)
	}
	return out, nil
}

func (r *Resolver) documents(ctx context.Context, in Input, paths []string, c *collector) error {
	if r.vault == nil {
		return nil
	}
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return err
		}
		doc, err := r.vault.Document(ctx, path)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			c.logger.Debug("resolver.document.missing", "path", path, "error", err)
			continue
		}
		if !eligible(doc) {
			continue
		}
		items := r.documentItems(doc, in)
		for _, w := range items.warnings {
			c.warn(w)
		}
		c.result.Markers = append(c.result.Markers, items.markers...)
		c.result.Overlays = append(c.result.Overlays, items.overlays...)
		if len(items.groups) > 0 {
			c.result.SourceIndex[doc.Path] = items.groups
		}
	}
	return nil
}

func rowMessage(err error) string {
	switch {
	case errors.Is(err, ErrEmptyRow):
		return "marker row is empty"
	case errors.Is(err, ErrInvalidRowCoordinates):
		return "could not parse latitude and longitude"
	default:
		return err.Error()
	}
}

package markerscmd

import (
	"context"
	"errors"
	"fmt"

	command "github.com/goliatone/go-command"
	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-mapblocks/internal/commands"
	"github.com/goliatone/go-mapblocks/internal/geo"
	"github.com/goliatone/go-mapblocks/internal/logging"
	"github.com/goliatone/go-mapblocks/internal/markers"
	"github.com/goliatone/go-mapblocks/internal/overlays"
	"github.com/goliatone/go-mapblocks/internal/views"
	"github.com/goliatone/go-mapblocks/pkg/interfaces"
)

const (
	addOperation    = "markers.add"
	moveOperation   = "markers.move"
	updateOperation = "markers.update"
	deleteOperation = "markers.delete"

	codeMapNotOpen      = "MAP_NOT_OPEN"
	codeMarkerNotFound  = "MARKER_NOT_FOUND"
	codeMarkerImmutable = "MARKER_IMMUTABLE"
)

var (
	// ErrMapNotOpen is returned when no view of the map is registered.
	ErrMapNotOpen = errors.New("markers command: map is not open")
	// ErrMarkerImmutable is returned when an edit targets a marker defined in a note or block.
	ErrMarkerImmutable = errors.New("markers command: marker is not editable")
)

var (
	_ command.Commander[AddMarkerCommand]    = (*AddMarkerHandler)(nil)
	_ command.Commander[MoveMarkerCommand]   = (*MoveMarkerHandler)(nil)
	_ command.Commander[UpdateMarkerCommand] = (*UpdateMarkerHandler)(nil)
	_ command.Commander[DeleteMarkerCommand] = (*DeleteMarkerHandler)(nil)
)

// Workspace exposes the open views of a map.
type Workspace interface {
	Views(mapID string) []*views.View
}

// Persister stores the user placed items of a map.
type Persister interface {
	SaveMap(ctx context.Context, mapID string, markerProps []markers.Properties, overlayProps []overlays.Properties, files ...string) ([]string, error)
}

// Dependencies are shared by every marker handler.
type Dependencies struct {
	Workspace Workspace
	Persister Persister
	Logger    interfaces.Logger
}

func (d Dependencies) logger() interfaces.Logger {
	return commands.EnsureLogger(d.Logger)
}

// view picks the originating view: the named handle when given, else the first.
func (d Dependencies) view(mapID, handle string) (*views.View, error) {
	if d.Workspace == nil {
		return nil, mapNotOpen(mapID)
	}
	open := d.Workspace.Views(mapID)
	for _, v := range open {
		if handle == "" || v.Handle() == handle {
			return v, nil
		}
	}
	return nil, mapNotOpen(mapID)
}

func (d Dependencies) persist(ctx context.Context, v *views.View) error {
	if d.Persister == nil {
		return nil
	}
	var files []string
	if d.Workspace != nil {
		for _, open := range d.Workspace.Views(v.MapID()) {
			if doc := open.Document(); doc != "" {
				files = append(files, doc)
			}
		}
	}
	dropped, err := d.Persister.SaveMap(ctx, v.MapID(), v.MutableMarkers(), v.MutableOverlays(), files...)
	if err != nil {
		return err
	}
	if len(dropped) > 0 {
		d.logger().Debug("markers.command.pruned", "map_id", v.MapID(), "dropped", dropped)
	}
	return nil
}

func mapNotOpen(mapID string) error {
	return goerrors.Wrap(fmt.Errorf("%w: %s", ErrMapNotOpen, mapID), goerrors.CategoryNotFound, "map is not open").
		WithTextCode(codeMapNotOpen)
}

func mutationError(err error) error {
	if errors.Is(err, views.ErrMarkerNotFound) {
		return goerrors.Wrap(err, goerrors.CategoryNotFound, "marker not found").
			WithTextCode(codeMarkerNotFound)
	}
	return err
}

func editable(v *views.View, id string) error {
	m, ok := v.Marker(id)
	if !ok {
		return mutationError(fmt.Errorf("%w: %s", views.ErrMarkerNotFound, id))
	}
	if !m.Mutable() {
		return goerrors.Wrap(fmt.Errorf("%w: %s", ErrMarkerImmutable, id), goerrors.CategoryValidation, "marker is not editable").
			WithTextCode(codeMarkerImmutable)
	}
	return nil
}

func baseOptions[T command.Message](logger interfaces.Logger, operation string, fields func(T) map[string]any) []commands.HandlerOption[T] {
	return []commands.HandlerOption[T]{
		commands.WithLogger[T](logger),
		commands.WithOperation[T](operation),
		commands.WithMessageFields(fields),
		commands.WithTelemetry(commands.DefaultTelemetry[T](logger)),
	}
}

// AddMarkerHandler places markers through the shared command handler.
type AddMarkerHandler struct {
	inner *commands.Handler[AddMarkerCommand]
}

// NewAddMarkerHandler creates a handler bound to deps.
func NewAddMarkerHandler(deps Dependencies, opts ...commands.HandlerOption[AddMarkerCommand]) *AddMarkerHandler {
	exec := func(ctx context.Context, msg AddMarkerCommand) error {
		v, err := deps.view(msg.MapID, msg.View)
		if err != nil {
			return err
		}
		m := v.AddMarker(markers.Properties{
			ID:          msg.MarkerID,
			Type:        msg.MarkerType,
			Loc:         geo.LatLng{Lat: msg.Lat, Lng: msg.Long},
			Link:        msg.Link,
			Command:     msg.Command,
			Description: msg.Description,
			Layer:       msg.Layer,
			MinZoom:     msg.MinZoom,
			MaxZoom:     msg.MaxZoom,
		})
		logging.WithMapContext(deps.logger(), msg.MapID, v.Document(), addOperation).
			Debug("markers.command.added", "marker_id", m.ID())
		return deps.persist(ctx, v)
	}

	handlerOpts := baseOptions(deps.logger(), addOperation, func(msg AddMarkerCommand) map[string]any {
		return map[string]any{"map_id": msg.MapID, "type": msg.MarkerType}
	})
	return &AddMarkerHandler{inner: commands.NewHandler(exec, append(handlerOpts, opts...)...)}
}

// Execute satisfies command.Commander[AddMarkerCommand].
func (h *AddMarkerHandler) Execute(ctx context.Context, msg AddMarkerCommand) error {
	return h.inner.Execute(ctx, msg)
}

// MoveMarkerHandler moves markers through the shared command handler.
type MoveMarkerHandler struct {
	inner *commands.Handler[MoveMarkerCommand]
}

// NewMoveMarkerHandler creates a handler bound to deps.
func NewMoveMarkerHandler(deps Dependencies, opts ...commands.HandlerOption[MoveMarkerCommand]) *MoveMarkerHandler {
	exec := func(ctx context.Context, msg MoveMarkerCommand) error {
		v, err := deps.view(msg.MapID, msg.View)
		if err != nil {
			return err
		}
		if err := editable(v, msg.MarkerID); err != nil {
			return err
		}
		loc := geo.LatLng{Lat: msg.Lat, Lng: msg.Long}
		if msg.Dragging {
			return mutationError(v.DragMarker(msg.MarkerID, loc))
		}
		if err := v.MoveMarker(msg.MarkerID, loc); err != nil {
			return mutationError(err)
		}
		return deps.persist(ctx, v)
	}

	handlerOpts := baseOptions(deps.logger(), moveOperation, func(msg MoveMarkerCommand) map[string]any {
		return map[string]any{"map_id": msg.MapID, "marker_id": msg.MarkerID, "dragging": msg.Dragging}
	})
	return &MoveMarkerHandler{inner: commands.NewHandler(exec, append(handlerOpts, opts...)...)}
}

// Execute satisfies command.Commander[MoveMarkerCommand].
func (h *MoveMarkerHandler) Execute(ctx context.Context, msg MoveMarkerCommand) error {
	return h.inner.Execute(ctx, msg)
}

// UpdateMarkerHandler edits markers through the shared command handler.
type UpdateMarkerHandler struct {
	inner *commands.Handler[UpdateMarkerCommand]
}

// NewUpdateMarkerHandler creates a handler bound to deps.
func NewUpdateMarkerHandler(deps Dependencies, opts ...commands.HandlerOption[UpdateMarkerCommand]) *UpdateMarkerHandler {
	exec := func(ctx context.Context, msg UpdateMarkerCommand) error {
		v, err := deps.view(msg.MapID, msg.View)
		if err != nil {
			return err
		}
		if err := editable(v, msg.MarkerID); err != nil {
			return err
		}
		patch := views.MarkerPatch{
			Type:        msg.MarkerType,
			Link:        msg.Link,
			Command:     msg.Command,
			Description: msg.Description,
			MinZoom:     msg.MinZoom,
			MaxZoom:     msg.MaxZoom,
			ClearZoom:   msg.ClearZoom,
		}
		if msg.Tooltip != nil {
			tooltip := markers.ParseTooltip(*msg.Tooltip, markers.TooltipHover)
			patch.Tooltip = &tooltip
		}
		if err := v.UpdateMarker(msg.MarkerID, patch); err != nil {
			return mutationError(err)
		}
		return deps.persist(ctx, v)
	}

	handlerOpts := baseOptions(deps.logger(), updateOperation, func(msg UpdateMarkerCommand) map[string]any {
		return map[string]any{"map_id": msg.MapID, "marker_id": msg.MarkerID}
	})
	return &UpdateMarkerHandler{inner: commands.NewHandler(exec, append(handlerOpts, opts...)...)}
}

// Execute satisfies command.Commander[UpdateMarkerCommand].
func (h *UpdateMarkerHandler) Execute(ctx context.Context, msg UpdateMarkerCommand) error {
	return h.inner.Execute(ctx, msg)
}

// DeleteMarkerHandler removes markers through the shared command handler.
type DeleteMarkerHandler struct {
	inner *commands.Handler[DeleteMarkerCommand]
}

// NewDeleteMarkerHandler creates a handler bound to deps.
func NewDeleteMarkerHandler(deps Dependencies, opts ...commands.HandlerOption[DeleteMarkerCommand]) *DeleteMarkerHandler {
	exec := func(ctx context.Context, msg DeleteMarkerCommand) error {
		v, err := deps.view(msg.MapID, msg.View)
		if err != nil {
			return err
		}
		if err := editable(v, msg.MarkerID); err != nil {
			return err
		}
		if err := v.DeleteMarker(msg.MarkerID); err != nil {
			return mutationError(err)
		}
		return deps.persist(ctx, v)
	}

	handlerOpts := baseOptions(deps.logger(), deleteOperation, func(msg DeleteMarkerCommand) map[string]any {
		return map[string]any{"map_id": msg.MapID, "marker_id": msg.MarkerID}
	})
	return &DeleteMarkerHandler{inner: commands.NewHandler(exec, append(handlerOpts, opts...)...)}
}

// Execute satisfies command.Commander[DeleteMarkerCommand].
func (h *DeleteMarkerHandler) Execute(ctx context.Context, msg DeleteMarkerCommand) error {
	return h.inner.Execute(ctx, msg)
}

package commands

import (
	"context"
	"errors"
	"testing"
	"testing/fstest"

	"github.com/goliatone/go-command/dispatcher"

	markerscmd "github.com/goliatone/go-mapblocks/internal/commands/markers"
	"github.com/goliatone/go-mapblocks/internal/di"
	"github.com/goliatone/go-mapblocks/internal/render"
	"github.com/goliatone/go-mapblocks/internal/runtimeconfig"
)

func newContainer(t *testing.T) *di.Container {
	t.Helper()
	container, err := di.NewContainer(runtimeconfig.DefaultConfig(), di.WithFS(fstest.MapFS{}))
	if err != nil {
		t.Fatalf("new container: %v", err)
	}
	return container
}

func TestRegisterContainerCommandsBuildsHandlers(t *testing.T) {
	registry := &recordingRegistry{}
	dispatch := &recordingDispatcher{}

	result, err := RegisterContainerCommands(newContainer(t), RegistrationOptions{
		Registry:   registry,
		Dispatcher: dispatch,
	})
	if err != nil {
		t.Fatalf("register commands: %v", err)
	}

	if len(result.Handlers) != 4 {
		t.Fatalf("expected the four marker handlers, got %d", len(result.Handlers))
	}
	if len(result.Handlers) != len(registry.handlers) {
		t.Fatalf("expected registry to record all handlers, got %d of %d", len(registry.handlers), len(result.Handlers))
	}
	if len(result.Subscriptions) != 4 {
		t.Fatalf("expected dispatcher subscriptions, got %d", len(result.Subscriptions))
	}
	if result.Markers == nil || result.Markers.Add == nil {
		t.Fatal("expected the marker handler set")
	}
}

func TestRegisterContainerCommandsWithoutRegistrars(t *testing.T) {
	result, err := RegisterContainerCommands(newContainer(t), RegistrationOptions{})
	if err != nil {
		t.Fatalf("register commands: %v", err)
	}
	if len(result.Handlers) == 0 {
		t.Fatal("expected handlers to be built even without registrars")
	}
	if len(result.Subscriptions) != 0 {
		t.Fatalf("expected no dispatcher subscriptions without dispatcher, got %d", len(result.Subscriptions))
	}
}

func TestRegisterContainerCommandsCollectsRegistryErrors(t *testing.T) {
	boom := errors.New("registry unavailable")
	result, err := RegisterContainerCommands(newContainer(t), RegistrationOptions{
		Registry: &recordingRegistry{err: boom},
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected registry error, got %v", err)
	}
	if len(result.Handlers) != 4 {
		t.Fatalf("handlers are still returned, got %d", len(result.Handlers))
	}
}

func TestRegisterContainerCommandsNilContainer(t *testing.T) {
	result, err := RegisterContainerCommands(nil, RegistrationOptions{})
	if err != nil || len(result.Handlers) != 0 {
		t.Fatalf("expected empty result, got %+v %v", result, err)
	}
}

func TestGoCommandDispatcherRoutesMarkerCommands(t *testing.T) {
	ctx := context.Background()
	container := newContainer(t)
	out := container.Processor().Process(ctx, render.Request{Source: "id: routed", DocumentPath: "maps/routed.md"})
	if out.Error != nil {
		t.Fatalf("unexpected error block %+v", out.Error)
	}

	result, err := RegisterContainerCommands(container, RegistrationOptions{Dispatcher: GoCommandDispatcher{}})
	if err != nil {
		t.Fatalf("register commands: %v", err)
	}
	t.Cleanup(func() {
		for _, sub := range result.Subscriptions {
			sub.Unsubscribe()
		}
	})

	if err := dispatcher.Dispatch(ctx, markerscmd.AddMarkerCommand{MapID: "routed", MarkerID: "ID_routed", Lat: 1, Long: 1}); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if _, ok := out.View.Marker("ID_routed"); !ok {
		t.Fatal("dispatched marker should be added to the view")
	}
}

func TestGoCommandDispatcherRejectsUnknownHandlers(t *testing.T) {
	if _, err := (GoCommandDispatcher{}).RegisterCommand("not a handler"); !errors.Is(err, ErrUnsupportedHandler) {
		t.Fatalf("expected ErrUnsupportedHandler, got %v", err)
	}
}

type recordingRegistry struct {
	handlers []any
	err      error
}

func (r *recordingRegistry) RegisterCommand(handler any) error {
	if r.err != nil {
		return r.err
	}
	r.handlers = append(r.handlers, handler)
	return nil
}

type recordingDispatcher struct {
	subscriptions []*recordingSubscription
}

func (d *recordingDispatcher) RegisterCommand(handler any) (CommandSubscription, error) {
	sub := &recordingSubscription{handler: handler}
	d.subscriptions = append(d.subscriptions, sub)
	return sub, nil
}

type recordingSubscription struct {
	handler      any
	unsubscribed bool
}

func (s *recordingSubscription) Unsubscribe() {
	s.unsubscribed = true
}

package commands

import (
	"errors"

	"github.com/goliatone/go-command/dispatcher"

	markerscmd "github.com/goliatone/go-mapblocks/internal/commands/markers"
	"github.com/goliatone/go-mapblocks/internal/di"
	"github.com/goliatone/go-mapblocks/pkg/interfaces"
)

// CommandRegistry records command handlers so hosts can expose them via CLI or palette.
type CommandRegistry interface {
	RegisterCommand(handler any) error
}

// CommandDispatcher subscribes command handlers to a dispatcher implementation.
type CommandDispatcher interface {
	RegisterCommand(handler any) (CommandSubscription, error)
}

// CommandSubscription allows hosts to tear down dispatcher subscriptions.
type CommandSubscription interface {
	Unsubscribe()
}

// RegistrationOptions configures how handlers are registered during construction.
type RegistrationOptions struct {
	Registry       CommandRegistry
	Dispatcher     CommandDispatcher
	LoggerProvider interfaces.LoggerProvider
}

// RegistrationResult captures the constructed command handlers and any dispatcher subscriptions.
type RegistrationResult struct {
	Handlers      []any
	Subscriptions []CommandSubscription
	Markers       *markerscmd.HandlerSet
}

// RegisterContainerCommands builds the marker command handlers of the provided
// container and optionally registers them with registry and dispatcher integrations.
func RegisterContainerCommands(container *di.Container, opts RegistrationOptions) (*RegistrationResult, error) {
	if container == nil {
		return &RegistrationResult{}, nil
	}

	provider := opts.LoggerProvider
	if provider == nil {
		provider = container.LoggerProvider()
	}

	result := &RegistrationResult{
		Handlers:      make([]any, 0),
		Subscriptions: make([]CommandSubscription, 0),
	}

	var errs error

	register := func(handler any) {
		if handler == nil {
			return
		}
		result.Handlers = append(result.Handlers, handler)

		if opts.Registry != nil {
			if err := opts.Registry.RegisterCommand(handler); err != nil {
				errs = errors.Join(errs, err)
			}
		}

		if opts.Dispatcher != nil {
			subscription, err := opts.Dispatcher.RegisterCommand(handler)
			if err != nil {
				errs = errors.Join(errs, err)
			} else if subscription != nil {
				result.Subscriptions = append(result.Subscriptions, subscription)
			}
		}
	}

	// Marker commands.
	handlerSet, err := markerscmd.RegisterMarkerCommands(nil, container.Registry(), container.Store(), provider)
	if err != nil {
		errs = errors.Join(errs, err)
	} else if handlerSet != nil {
		result.Markers = handlerSet
		register(handlerSet.Add)
		register(handlerSet.Move)
		register(handlerSet.Update)
		register(handlerSet.Delete)
	}

	if errs != nil && len(result.Handlers) == 0 {
		return result, errs
	}

	if len(result.Handlers) == 0 {
		return result, errors.New("no command handlers registered; ensure the container is configured")
	}

	return result, errs
}

// ErrUnsupportedHandler is returned by GoCommandDispatcher for handlers it cannot subscribe.
var ErrUnsupportedHandler = errors.New("commands: unsupported handler type")

// GoCommandDispatcher subscribes marker handlers to the process wide go-command dispatcher.
type GoCommandDispatcher struct{}

// RegisterCommand satisfies CommandDispatcher.
func (GoCommandDispatcher) RegisterCommand(handler any) (CommandSubscription, error) {
	switch h := handler.(type) {
	case *markerscmd.AddMarkerHandler:
		return dispatcher.SubscribeCommand(h), nil
	case *markerscmd.MoveMarkerHandler:
		return dispatcher.SubscribeCommand(h), nil
	case *markerscmd.UpdateMarkerHandler:
		return dispatcher.SubscribeCommand(h), nil
	case *markerscmd.DeleteMarkerHandler:
		return dispatcher.SubscribeCommand(h), nil
	default:
		return nil, ErrUnsupportedHandler
	}
}

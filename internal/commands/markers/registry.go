package markerscmd

import (
	"errors"

	"github.com/goliatone/go-mapblocks/internal/commands"
	"github.com/goliatone/go-mapblocks/pkg/interfaces"
)

// CommandRegistry is the minimal registration contract expected when wiring command handlers.
type CommandRegistry interface {
	RegisterCommand(handler any) error
}

// HandlerSet groups the marker command handlers produced by RegisterMarkerCommands.
type HandlerSet struct {
	Add    *AddMarkerHandler
	Move   *MoveMarkerHandler
	Update *UpdateMarkerHandler
	Delete *DeleteMarkerHandler
}

// RegisterMarkerCommands builds the marker handlers and registers them with reg
// when it is non-nil.
func RegisterMarkerCommands(reg CommandRegistry, workspace Workspace, persister Persister, provider interfaces.LoggerProvider) (*HandlerSet, error) {
	if workspace == nil {
		return nil, errors.New("markers command registration: workspace is nil")
	}

	deps := Dependencies{
		Workspace: workspace,
		Persister: persister,
		Logger:    commands.CommandLogger(provider, "markers"),
	}
	set := &HandlerSet{
		Add:    NewAddMarkerHandler(deps),
		Move:   NewMoveMarkerHandler(deps),
		Update: NewUpdateMarkerHandler(deps),
		Delete: NewDeleteMarkerHandler(deps),
	}

	if reg != nil {
		for _, handler := range []any{set.Add, set.Move, set.Update, set.Delete} {
			if err := reg.RegisterCommand(handler); err != nil {
				return nil, err
			}
		}
	}
	return set, nil
}

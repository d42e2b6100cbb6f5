package commands

import (
	"context"
	"time"

	command "github.com/goliatone/go-command"
	"github.com/goliatone/go-mapblocks/internal/logging"
	"github.com/goliatone/go-mapblocks/pkg/interfaces"
)

// TelemetryStatus is the outcome bucket of one marker edit.
type TelemetryStatus string

const (
	TelemetryStatusSuccess      TelemetryStatus = "success"
	TelemetryStatusFailed       TelemetryStatus = "failed"
	TelemetryStatusContextError TelemetryStatus = "context_error"
)

// TelemetryInfo is handed to telemetry callbacks once an edit settles.
type TelemetryInfo struct {
	Command   string
	Operation string
	Fields    map[string]any
	Duration  time.Duration
	Error     error
	Status    TelemetryStatus
	Logger    interfaces.Logger
}

// Telemetry observes finished edits. Handlers with telemetry installed leave
// outcome logging to the callback.
type Telemetry[T command.Message] func(ctx context.Context, msg T, info TelemetryInfo)

// DefaultTelemetry logs one line per edit. Successful edits go to debug since
// a drag session emits many of them.
func DefaultTelemetry[T command.Message](logger interfaces.Logger) Telemetry[T] {
	logger = EnsureLogger(logger)
	return func(_ context.Context, _ T, info TelemetryInfo) {
		entry := logging.WithFields(logger, info.Fields)
		args := []any{"duration_ms", info.Duration.Milliseconds()}
		switch info.Status {
		case TelemetryStatusSuccess:
			entry.Debug("marker.edit.applied", args...)
		case TelemetryStatusContextError:
			entry.Warn("marker.edit.interrupted", append(args, "error", info.Error)...)
		default:
			entry.Error("marker.edit.failed", append(args, "error", info.Error)...)
		}
	}
}

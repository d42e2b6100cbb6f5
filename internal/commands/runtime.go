package commands

import (
	"context"
	"time"

	"github.com/goliatone/go-mapblocks/internal/logging"
	"github.com/goliatone/go-mapblocks/pkg/interfaces"
)

// DefaultCommandTimeout bounds a single marker edit, persistence included.
const DefaultCommandTimeout = 30 * time.Second

// editContext returns the context an edit runs under. A nil parent becomes
// context.Background and a non-positive timeout disables the deadline.
func editContext(parent context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	if timeout <= 0 {
		return context.WithCancel(parent)
	}
	return context.WithTimeout(parent, timeout)
}

// EnsureLogger substitutes a no-op logger for nil.
func EnsureLogger(logger interfaces.Logger) interfaces.Logger {
	if logger == nil {
		return logging.NoOp()
	}
	return logger
}

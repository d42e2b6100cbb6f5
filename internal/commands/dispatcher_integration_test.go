package commands

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/goliatone/go-command/dispatcher"
	"github.com/goliatone/go-command/runner"
)

type flakySaveMessage struct{ MapID string }

func (flakySaveMessage) Type() string    { return "maps.test.flaky_save" }
func (flakySaveMessage) Validate() error { return nil }

type brokenSaveMessage struct{ MapID string }

func (brokenSaveMessage) Type() string    { return "maps.test.broken_save" }
func (brokenSaveMessage) Validate() error { return nil }

func TestDispatchedEditRetriesTransientStoreFailure(t *testing.T) {
	t.Parallel()

	var attempts atomic.Int32
	handler := NewHandler(func(ctx context.Context, msg flakySaveMessage) error {
		if attempts.Add(1) == 1 {
			return errors.New("database is locked")
		}
		return nil
	}, WithTimeout[flakySaveMessage](time.Second))

	sub := dispatcher.SubscribeCommand(handler, runner.WithMaxRetries(1))
	t.Cleanup(sub.Unsubscribe)

	if err := dispatcher.Dispatch(context.Background(), flakySaveMessage{MapID: "world"}); err != nil {
		t.Fatalf("expected edit to succeed on retry, got %v", err)
	}
	if got := attempts.Load(); got != 2 {
		t.Fatalf("expected 2 attempts, got %d", got)
	}
}

func TestDispatchedEditSurfacesFailureAfterRetries(t *testing.T) {
	t.Parallel()

	var attempts atomic.Int32
	handler := NewHandler(func(ctx context.Context, msg brokenSaveMessage) error {
		attempts.Add(1)
		return errors.New("disk full")
	}, WithTimeout[brokenSaveMessage](time.Second))

	sub := dispatcher.SubscribeCommand(handler, runner.WithMaxRetries(2))
	t.Cleanup(sub.Unsubscribe)

	err := dispatcher.Dispatch(context.Background(), brokenSaveMessage{MapID: "world"})
	if err == nil {
		t.Fatal("expected dispatch to fail once retries are exhausted")
	}
	if got := attempts.Load(); got != 3 {
		t.Fatalf("expected 3 attempts, got %d", got)
	}
}

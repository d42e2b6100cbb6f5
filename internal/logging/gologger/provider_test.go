package gologger

import (
	"context"
	"testing"

	glog "github.com/goliatone/go-logger/glog"

	"github.com/goliatone/go-mapblocks/internal/logging"
	"github.com/goliatone/go-mapblocks/pkg/interfaces"
)

func TestNewProviderBuildsModuleLoggers(t *testing.T) {
	p, err := NewProvider(Config{Level: "debug", Format: "console", Focus: []string{" maps.store ", ""}})
	if err != nil {
		t.Fatalf("NewProvider: %v", err)
	}

	logger := p.GetLogger("maps.store")
	if logger == nil {
		t.Fatal("expected logger")
	}
	logging.WithFields(logger, map[string]any{"map_id": "world"}).Debug("store.save.completed")
}

func TestNewProviderRejectsUnknownFormat(t *testing.T) {
	if _, err := NewProvider(Config{Format: "xml"}); err == nil {
		t.Fatal("expected error for unknown format")
	}
}

func TestNilProviderFallsBackToNoOp(t *testing.T) {
	var p *Provider
	p.GetLogger("maps.render").Info("render.block.processed")
}

func TestAdapterForwardsCallsAndCopiesFields(t *testing.T) {
	stub := &recordingLogger{}
	logger := adapt(stub)

	logger.Trace("a")
	logger.Debug("b")
	logger.Info("c")
	logger.Warn("d")
	logger.Error("e")
	logger.Fatal("f")
	if got := len(stub.levels); got != 6 {
		t.Fatalf("expected 6 forwarded calls, got %d", got)
	}
	if stub.levels[3] != "warn" {
		t.Fatalf("unexpected call order %v", stub.levels)
	}

	fields := map[string]any{"map_id": "world"}
	fieldsLogger, ok := logger.(interfaces.FieldsLogger)
	if !ok {
		t.Fatalf("adapter should implement FieldsLogger, got %T", logger)
	}
	fieldsLogger.WithFields(fields)
	fields["map_id"] = "mars"
	if len(stub.fields) != 1 || stub.fields[0]["map_id"] != "world" {
		t.Fatalf("expected copied fields, got %v", stub.fields)
	}

	if fieldsLogger.WithFields(nil) != logger {
		t.Fatal("expected empty fields to return the same logger")
	}

	ctx := context.WithValue(context.Background(), struct{}{}, "doc")
	logger.WithContext(ctx)
	if len(stub.contexts) != 1 || stub.contexts[0] != ctx {
		t.Fatalf("expected context to be forwarded, got %v", stub.contexts)
	}
}

type recordingLogger struct {
	levels   []string
	fields   []map[string]any
	contexts []context.Context
}

var (
	_ glog.Logger       = (*recordingLogger)(nil)
	_ glog.FieldsLogger = (*recordingLogger)(nil)
)

func (r *recordingLogger) Trace(string, ...any) { r.levels = append(r.levels, "trace") }
func (r *recordingLogger) Debug(string, ...any) { r.levels = append(r.levels, "debug") }
func (r *recordingLogger) Info(string, ...any)  { r.levels = append(r.levels, "info") }
func (r *recordingLogger) Warn(string, ...any)  { r.levels = append(r.levels, "warn") }
func (r *recordingLogger) Error(string, ...any) { r.levels = append(r.levels, "error") }
func (r *recordingLogger) Fatal(string, ...any) { r.levels = append(r.levels, "fatal") }

func (r *recordingLogger) WithContext(ctx context.Context) glog.Logger {
	r.contexts = append(r.contexts, ctx)
	return r
}

func (r *recordingLogger) WithFields(fields map[string]any) glog.Logger {
	r.fields = append(r.fields, fields)
	return r
}

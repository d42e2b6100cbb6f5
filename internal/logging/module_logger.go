package logging

import (
	"context"
	"maps"
	"strings"

	"github.com/goliatone/go-mapblocks/pkg/interfaces"
)

const (
	rootModule     = "maps"
	parserModule   = "maps.parser"
	resolverModule = "maps.resolver"
	markersModule  = "maps.markers"
	storeModule    = "maps.store"
	renderModule   = "maps.render"
	vaultModule    = "maps.vault"
)

const (
	fieldMapID        = "map_id"
	fieldDocumentPath = "document_path"
	fieldBlockAction  = "action"
)

// ModuleLogger returns a module-scoped logger, defaulting to a no-op
// implementation when no provider is supplied. The returned logger attaches
// the module identifier as structured context so downstream entries can be
// filtered predictably.
func ModuleLogger(provider interfaces.LoggerProvider, module string) interfaces.Logger {
	if module == "" {
		module = rootModule
	}

	logger := NoOp()
	if provider != nil {
		if provided := provider.GetLogger(module); provided != nil {
			logger = provided
		}
	}

	return WithFields(logger, map[string]any{"module": module})
}

// ParserLogger returns the logger namespace reserved for block source parsing.
func ParserLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, parserModule)
}

// ResolverLogger returns the logger namespace reserved for immutable item resolution.
func ResolverLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, resolverModule)
}

// MarkersLogger returns the logger namespace reserved for marker views and commands.
func MarkersLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, markersModule)
}

// StoreLogger returns the logger namespace reserved for settings persistence.
func StoreLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, storeModule)
}

// RenderLogger returns the logger namespace reserved for the block processor.
func RenderLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, renderModule)
}

// VaultLogger returns the logger namespace reserved for vault loading and indexing.
func VaultLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, vaultModule)
}

// WithFields attaches fields when logger implements interfaces.FieldsLogger
// and returns logger unchanged otherwise.
func WithFields(logger interfaces.Logger, fields map[string]any) interfaces.Logger {
	if logger == nil || len(fields) == 0 {
		return logger
	}
	if fl, ok := logger.(interfaces.FieldsLogger); ok {
		return fl.WithFields(maps.Clone(fields))
	}
	return logger
}

// WithMapContext enriches the provided logger with the map id, source document
// and action being performed. Empty values are ignored.
func WithMapContext(logger interfaces.Logger, mapID, documentPath, action string) interfaces.Logger {
	fields := map[string]any{}
	if trimmed := strings.TrimSpace(mapID); trimmed != "" {
		fields[fieldMapID] = trimmed
	}
	if trimmed := strings.TrimSpace(documentPath); trimmed != "" {
		fields[fieldDocumentPath] = trimmed
	}
	if trimmed := strings.TrimSpace(action); trimmed != "" {
		fields[fieldBlockAction] = trimmed
	}
	return WithFields(logger, fields)
}

// NoOp returns a logger that drops every log entry. It satisfies the Logger
// contract so services can safely operate when logging is disabled.
func NoOp() interfaces.Logger {
	return noopLogger{}
}

type noopLogger struct{}

var _ interfaces.Logger = noopLogger{}

func (noopLogger) Trace(string, ...any) {}
func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}
func (noopLogger) Fatal(string, ...any) {}

func (n noopLogger) WithFields(map[string]any) interfaces.Logger {
	return n
}

func (n noopLogger) WithContext(context.Context) interfaces.Logger {
	return n
}

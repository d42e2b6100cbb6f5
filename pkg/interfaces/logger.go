package interfaces

import "context"

// Logger is the leveled logger every map runtime service writes to. Its
// method set matches github.com/goliatone/go-logger, so a go-logger instance
// satisfies it through a thin adapter.
type Logger interface {
	Trace(msg string, args ...any)
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
	Fatal(msg string, args ...any)
	WithContext(ctx context.Context) Logger
}

// LoggerProvider hands out loggers by module name ("maps.render",
// "maps.store"). Returning one shared logger for every name is valid.
type LoggerProvider interface {
	GetLogger(name string) Logger
}

// FieldsLogger is implemented by loggers that can carry structured fields on
// every entry they write.
type FieldsLogger interface {
	WithFields(fields map[string]any) Logger
}

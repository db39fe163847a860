package logging

import (
	"context"
	"strings"
)

const (
	RootModule         = "site"
	RoutingModule      = "site.routing"
	VariantsModule     = "site.variants"
	HandlersModule     = "site.handlers"
	ScaffoldModule     = "site.scaffold"
	IntegrationsModule = "site.integrations"
)

// Logger is the leveled logging contract used across the site. It mirrors the
// go-logger interface so the glog provider can be plugged in directly.
type Logger interface {
	Trace(msg string, args ...any)
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
	Fatal(msg string, args ...any)
	WithContext(ctx context.Context) Logger
	WithFields(fields map[string]any) Logger
}

// Provider exposes named loggers.
type Provider interface {
	GetLogger(name string) Logger
}

// ModuleLogger returns a logger scoped to module, tagged with a "module"
// field. A nil provider yields a no-op logger.
func ModuleLogger(provider Provider, module string) Logger {
	module = strings.TrimSpace(module)
	if module == "" {
		module = RootModule
	}

	logger := NoOp()
	if provider != nil {
		if provided := provider.GetLogger(module); provided != nil {
			logger = provided
		}
	}
	return logger.WithFields(map[string]any{"module": module})
}

// OrNoOp returns logger, or a no-op logger when logger is nil.
func OrNoOp(logger Logger) Logger {
	if logger == nil {
		return NoOp()
	}
	return logger
}

// NoOp returns a logger that drops every entry.
func NoOp() Logger {
	return noopLogger{}
}

type noopLogger struct{}

var _ Logger = noopLogger{}

func (noopLogger) Trace(string, ...any) {}
func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}
func (noopLogger) Fatal(string, ...any) {}

func (n noopLogger) WithContext(context.Context) Logger { return n }
func (n noopLogger) WithFields(map[string]any) Logger   { return n }

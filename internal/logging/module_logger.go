package logging

import (
	"context"
	"strings"

	"github.com/goliatone/go-imagesync/pkg/interfaces"
)

const (
	rootModule   = "imagesync"
	scanModule   = "imagesync.scan"
	assetsModule = "imagesync.assets"
	fetchModule  = "imagesync.fetch"
	planModule   = "imagesync.plan"
	engineModule = "imagesync.engine"
)

const (
	fieldDocumentPath = "document"
	fieldRemoteURL    = "url"
	fieldLocalName    = "local_filename"
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

	return WithFields(logger, map[string]any{
		"module": module,
	})
}

// ScanLogger returns the logger namespace reserved for corpus scanning.
func ScanLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, scanModule)
}

// AssetsLogger returns the logger namespace reserved for the filename allocator.
func AssetsLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, assetsModule)
}

// FetchLogger returns the logger namespace reserved for the fetch adapter.
func FetchLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, fetchModule)
}

// PlanLogger returns the logger namespace reserved for rewrite planning.
func PlanLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, planModule)
}

// EngineLogger returns the logger namespace reserved for run orchestration.
func EngineLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, engineModule)
}

// WithAssetContext enriches the provided logger with common asset fields such
// as document path, remote URL, and assigned local filename. Empty values are
// ignored.
func WithAssetContext(logger interfaces.Logger, document, url, localName string) interfaces.Logger {
	fields := map[string]any{}
	if trimmed := strings.TrimSpace(document); trimmed != "" {
		fields[fieldDocumentPath] = trimmed
	}
	if trimmed := strings.TrimSpace(url); trimmed != "" {
		fields[fieldRemoteURL] = trimmed
	}
	if trimmed := strings.TrimSpace(localName); trimmed != "" {
		fields[fieldLocalName] = trimmed
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

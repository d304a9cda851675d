package runtimeconfig

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var ErrInputDirRequired = errors.New("imagesync config: input directory is required")
var ErrAssetsDirRequired = errors.New("imagesync config: assets directory is required")
var ErrConcurrencyInvalid = errors.New("imagesync config: concurrency must be zero or positive")
var ErrFetchRetriesInvalid = errors.New("imagesync config: fetch retries must be zero or positive")
var ErrLoggingProviderUnknown = errors.New("imagesync config: logging provider is invalid")
var ErrLoggingLevelInvalid = errors.New("imagesync config: logging level is invalid")
var ErrLoggingFormatInvalid = errors.New("imagesync config: logging format is invalid")

// Config aggregates the knobs for one localization run. Fields intentionally
// use simple types so host applications can populate them from any source.
type Config struct {
	// InputDir is the corpus root holding Markdown documents.
	InputDir string
	// Pattern limits discovered files (defaults to "*.md").
	Pattern string
	// Recursive controls directory traversal under InputDir.
	Recursive bool
	// AssetsDir is the destination directory for downloaded images.
	AssetsDir string
	// MarkdownDestDir is the directory string substituted into rewritten
	// Markdown sources (e.g. "../assets").
	MarkdownDestDir string
	// URLFilters restricts processing to URLs containing at least one of
	// the substrings. Empty means every remote image URL participates.
	URLFilters []string
	// Concurrency bounds the scan/plan worker pool. Zero picks a default.
	Concurrency int
	// ManifestPath optionally points at a sqlite manifest persisting
	// URL to filename assignments between runs.
	ManifestPath string
	Fetch        FetchConfig
	Logging      LoggingConfig
}

// FetchConfig tunes the HTTP fetch adapter.
type FetchConfig struct {
	Timeout   time.Duration
	Retries   int
	UserAgent string
}

// LoggingConfig selects and tunes the logger provider.
type LoggingConfig struct {
	Provider  string
	Level     string
	Format    string
	AddSource bool
}

// DefaultConfig returns opinionated defaults for CLI usage.
func DefaultConfig() Config {
	return Config{
		Pattern:         "*.md",
		Recursive:       true,
		AssetsDir:       "assets",
		MarkdownDestDir: "../assets",
		Concurrency:     4,
		Fetch: FetchConfig{
			Timeout: 30 * time.Second,
			Retries: 2,
		},
		Logging: LoggingConfig{
			Provider: "console",
			Level:    "info",
		},
	}
}

// Validate performs high-level consistency checks.
func (cfg Config) Validate() error {
	if strings.TrimSpace(cfg.InputDir) == "" {
		return ErrInputDirRequired
	}
	if strings.TrimSpace(cfg.AssetsDir) == "" {
		return ErrAssetsDirRequired
	}
	if cfg.Concurrency < 0 {
		return ErrConcurrencyInvalid
	}
	if cfg.Fetch.Retries < 0 {
		return ErrFetchRetriesInvalid
	}

	provider := strings.ToLower(strings.TrimSpace(cfg.Logging.Provider))
	if provider != "" && !isSupportedProvider(provider) {
		return fmt.Errorf("%w: %s", ErrLoggingProviderUnknown, provider)
	}
	if level := strings.TrimSpace(cfg.Logging.Level); level != "" && !isSupportedLevel(level) {
		return fmt.Errorf("%w: %s", ErrLoggingLevelInvalid, level)
	}
	if provider == "gologger" {
		if format := strings.TrimSpace(cfg.Logging.Format); format != "" && !isSupportedFormat(format) {
			return fmt.Errorf("%w: %s", ErrLoggingFormatInvalid, format)
		}
	}
	return nil
}

func isSupportedProvider(provider string) bool {
	switch provider {
	case "console", "gologger":
		return true
	default:
		return false
	}
}

func isSupportedLevel(level string) bool {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace", "debug", "info", "warn", "warning", "error", "fatal":
		return true
	default:
		return false
	}
}

func isSupportedFormat(format string) bool {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "json", "console", "pretty":
		return true
	default:
		return false
	}
}

package imagesync

import "github.com/goliatone/go-imagesync/internal/runtimeconfig"

// Config exports the runtime configuration for one localization setup.
type Config = runtimeconfig.Config

// FetchConfig exports the HTTP fetch adapter knobs.
type FetchConfig = runtimeconfig.FetchConfig

// LoggingConfig exports the logging provider knobs.
type LoggingConfig = runtimeconfig.LoggingConfig

// DefaultConfig exports opinionated defaults for CLI usage.
func DefaultConfig() Config { return runtimeconfig.DefaultConfig() }

// Validation sentinels re-exported for hosts that branch on them.
var (
	ErrInputDirRequired       = runtimeconfig.ErrInputDirRequired
	ErrAssetsDirRequired      = runtimeconfig.ErrAssetsDirRequired
	ErrConcurrencyInvalid     = runtimeconfig.ErrConcurrencyInvalid
	ErrFetchRetriesInvalid    = runtimeconfig.ErrFetchRetriesInvalid
	ErrLoggingProviderUnknown = runtimeconfig.ErrLoggingProviderUnknown
	ErrLoggingLevelInvalid    = runtimeconfig.ErrLoggingLevelInvalid
	ErrLoggingFormatInvalid   = runtimeconfig.ErrLoggingFormatInvalid
)

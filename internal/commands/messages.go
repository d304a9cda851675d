package commands

import (
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

const (
	syncCorpusMessageType = "imagesync.sync_corpus"
	planCorpusMessageType = "imagesync.plan_corpus"
)

// SyncCorpusCommand localizes the remote images of every Markdown document
// under Directory: downloads each distinct URL once and rewrites the safe
// occurrences to local filenames.
type SyncCorpusCommand struct {
	// Directory selects the corpus root (relative or absolute) to scan.
	Directory string `json:"directory"`
	// DryRun plans the full run without downloading or modifying anything.
	DryRun bool `json:"dry_run,omitempty"`
}

// Type implements command.Message.
func (SyncCorpusCommand) Type() string { return syncCorpusMessageType }

// Validate ensures the corpus root is present before handlers execute.
func (cmd SyncCorpusCommand) Validate() error {
	return validation.ValidateStruct(&cmd,
		validation.Field(&cmd.Directory, validation.Required, validation.By(func(value any) error {
			if strings.TrimSpace(value.(string)) == "" {
				return validation.NewError("imagesync.sync_corpus.directory_required", "directory is required")
			}
			return nil
		})),
	)
}

// PlanCorpusCommand computes and reports the rewrite plan for the corpus
// under Directory without touching the network or the filesystem.
type PlanCorpusCommand struct {
	// Directory selects the corpus root (relative or absolute) to scan.
	Directory string `json:"directory"`
}

// Type implements command.Message.
func (PlanCorpusCommand) Type() string { return planCorpusMessageType }

// Validate ensures the corpus root is present before handlers execute.
func (cmd PlanCorpusCommand) Validate() error {
	return validation.ValidateStruct(&cmd,
		validation.Field(&cmd.Directory, validation.Required, validation.By(func(value any) error {
			if strings.TrimSpace(value.(string)) == "" {
				return validation.NewError("imagesync.plan_corpus.directory_required", "directory is required")
			}
			return nil
		})),
	)
}

package commands

import (
	"context"

	"github.com/goliatone/go-imagesync/internal/logging"
	"github.com/goliatone/go-imagesync/internal/report"
	"github.com/goliatone/go-imagesync/pkg/interfaces"
	command "github.com/goliatone/go-command"
)

const (
	syncOperation = "imagesync.sync_corpus"
	planOperation = "imagesync.plan_corpus"
)

// CorpusService is the slice of the localization service the command handlers
// need: plan or synchronize one corpus root.
type CorpusService interface {
	PlanCorpus(ctx context.Context, dir string) (*report.Summary, error)
	SyncCorpus(ctx context.Context, dir string, dryRun bool) (*report.Summary, error)
}

var (
	_ command.Commander[SyncCorpusCommand] = (*SyncCorpusHandler)(nil)
	_ command.Commander[PlanCorpusCommand] = (*PlanCorpusHandler)(nil)
)

// SyncCorpusHandler runs full localization passes via the shared command
// handler foundation.
type SyncCorpusHandler struct {
	inner *Handler[SyncCorpusCommand]
}

// NewSyncCorpusHandler creates a handler bound to the supplied service.
func NewSyncCorpusHandler(service CorpusService, logger interfaces.Logger, opts ...HandlerOption[SyncCorpusCommand]) *SyncCorpusHandler {
	baseLogger := logger
	if baseLogger == nil {
		baseLogger = logging.NoOp()
	}

	exec := func(ctx context.Context, msg SyncCorpusCommand) error {
		summary, err := service.SyncCorpus(ctx, msg.Directory, msg.DryRun)
		if err != nil {
			return err
		}
		if summary != nil {
			counts := summary.Counts()
			logging.WithFields(baseLogger, map[string]any{
				"downloaded_count": counts[interfaces.OutcomeDownloaded],
				"rewritten_count":  counts[interfaces.OutcomeRewritten],
				"flagged_count":    counts[interfaces.OutcomeFlaggedAmbiguous],
				"failed_count":     counts[interfaces.OutcomeDownloadFailed],
				"dry_run":          msg.DryRun,
			}).Info("imagesync.command.sync_corpus.completed")
		}
		return nil
	}

	handlerOpts := []HandlerOption[SyncCorpusCommand]{
		WithLogger[SyncCorpusCommand](baseLogger),
		WithOperation[SyncCorpusCommand](syncOperation),
		WithMessageFields(func(msg SyncCorpusCommand) map[string]any {
			fields := map[string]any{
				"directory": msg.Directory,
			}
			if msg.DryRun {
				fields["dry_run"] = true
			}
			return fields
		}),
		WithTelemetry(DefaultTelemetry[SyncCorpusCommand](baseLogger)),
	}
	handlerOpts = append(handlerOpts, opts...)

	return &SyncCorpusHandler{inner: NewHandler(exec, handlerOpts...)}
}

// Execute satisfies command.Commander[SyncCorpusCommand].
func (h *SyncCorpusHandler) Execute(ctx context.Context, msg SyncCorpusCommand) error {
	return h.inner.Execute(ctx, msg)
}

// PlanCorpusHandler computes rewrite plans via the shared command handler
// foundation.
type PlanCorpusHandler struct {
	inner *Handler[PlanCorpusCommand]
}

// NewPlanCorpusHandler creates a handler bound to the supplied service.
func NewPlanCorpusHandler(service CorpusService, logger interfaces.Logger, opts ...HandlerOption[PlanCorpusCommand]) *PlanCorpusHandler {
	baseLogger := logger
	if baseLogger == nil {
		baseLogger = logging.NoOp()
	}

	exec := func(ctx context.Context, msg PlanCorpusCommand) error {
		summary, err := service.PlanCorpus(ctx, msg.Directory)
		if err != nil {
			return err
		}
		if summary != nil {
			counts := summary.Counts()
			logging.WithFields(baseLogger, map[string]any{
				"planned_count": counts[interfaces.OutcomeRewritten],
				"flagged_count": counts[interfaces.OutcomeFlaggedAmbiguous],
				"failed_count":  counts[interfaces.OutcomeDownloadFailed],
			}).Info("imagesync.command.plan_corpus.completed")
		}
		return nil
	}

	handlerOpts := []HandlerOption[PlanCorpusCommand]{
		WithLogger[PlanCorpusCommand](baseLogger),
		WithOperation[PlanCorpusCommand](planOperation),
		WithMessageFields(func(msg PlanCorpusCommand) map[string]any {
			return map[string]any{"directory": msg.Directory}
		}),
		WithTelemetry(DefaultTelemetry[PlanCorpusCommand](baseLogger)),
	}
	handlerOpts = append(handlerOpts, opts...)

	return &PlanCorpusHandler{inner: NewHandler(exec, handlerOpts...)}
}

// Execute satisfies command.Commander[PlanCorpusCommand].
func (h *PlanCorpusHandler) Execute(ctx context.Context, msg PlanCorpusCommand) error {
	return h.inner.Execute(ctx, msg)
}

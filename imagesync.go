package imagesync

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/goliatone/go-imagesync/internal/assets"
	"github.com/goliatone/go-imagesync/internal/commands"
	"github.com/goliatone/go-imagesync/internal/engine"
	"github.com/goliatone/go-imagesync/internal/fetch"
	"github.com/goliatone/go-imagesync/internal/logging"
	"github.com/goliatone/go-imagesync/internal/logging/console"
	"github.com/goliatone/go-imagesync/internal/logging/gologger"
	"github.com/goliatone/go-imagesync/internal/plan"
	"github.com/goliatone/go-imagesync/internal/report"
	"github.com/goliatone/go-imagesync/internal/scan"
	"github.com/goliatone/go-imagesync/pkg/interfaces"
)

// Summary exports the run summary accumulated by the engine.
type Summary = report.Summary

// SummaryRecord exports the per-(document, URL) outcome record.
type SummaryRecord = interfaces.SummaryRecord

// Outcome exports the outcome enumeration carried on summary records.
type Outcome = interfaces.Outcome

// Occurrence exports one located URL occurrence within a document.
type Occurrence = interfaces.Occurrence

// LocalAsset exports the allocated local counterpart of a remote URL.
type LocalAsset = interfaces.LocalAsset

// Logger exports the leveled logging contract accepted by the module.
type Logger = interfaces.Logger

// LoggerProvider exports the named logger factory contract.
type LoggerProvider = interfaces.LoggerProvider

// Fetcher exports the download contract so hosts can substitute transports.
type Fetcher = interfaces.Fetcher

// SyncCorpusCommand exports the full-run command message.
type SyncCorpusCommand = commands.SyncCorpusCommand

// PlanCorpusCommand exports the plan-only command message.
type PlanCorpusCommand = commands.PlanCorpusCommand

const (
	OutcomeDownloaded       = interfaces.OutcomeDownloaded
	OutcomeDownloadFailed   = interfaces.OutcomeDownloadFailed
	OutcomeRewritten        = interfaces.OutcomeRewritten
	OutcomeFlaggedAmbiguous = interfaces.OutcomeFlaggedAmbiguous
	OutcomeSkippedFiltered  = interfaces.OutcomeSkippedFiltered
)

// RenderPlan renders a human-readable rewrite plan for dry runs.
func RenderPlan(summary *Summary) string { return report.RenderPlan(summary) }

// RenderExecution renders the post-run summary of failures and flagged URLs.
func RenderExecution(summary *Summary) string { return report.RenderExecution(summary) }

// Option overrides a collaborator on the service.
type Option func(*Service)

// WithLoggerProvider replaces the provider built from Config.Logging.
func WithLoggerProvider(provider interfaces.LoggerProvider) Option {
	return func(s *Service) {
		if provider != nil {
			s.provider = provider
		}
	}
}

// WithFetcher replaces the HTTP fetch adapter, e.g. for tests or hosts that
// bring their own transport.
func WithFetcher(fetcher interfaces.Fetcher) Option {
	return func(s *Service) {
		s.fetcher = fetcher
	}
}

// Service is the top-level localization runtime. One service handles any
// number of sequential runs; each run builds a fresh engine and allocator so
// runs share no state.
type Service struct {
	cfg      Config
	provider interfaces.LoggerProvider
	fetcher  interfaces.Fetcher
}

var _ commands.CorpusService = (*Service)(nil)

// New validates cfg and constructs a service using the configured logging
// provider.
func New(cfg Config, opts ...Option) (*Service, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	provider, err := buildLoggerProvider(cfg.Logging)
	if err != nil {
		return nil, err
	}

	s := &Service{cfg: cfg, provider: provider}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Plan computes the rewrite plan for the configured corpus without touching
// the network or the filesystem.
func (s *Service) Plan(ctx context.Context) (*Summary, error) {
	return s.run(ctx, s.cfg.InputDir, true)
}

// Sync downloads every distinct remote image once and rewrites the safe
// occurrences across the configured corpus.
func (s *Service) Sync(ctx context.Context) (*Summary, error) {
	return s.run(ctx, s.cfg.InputDir, false)
}

// PlanCorpus implements commands.CorpusService for an explicit corpus root.
func (s *Service) PlanCorpus(ctx context.Context, dir string) (*Summary, error) {
	return s.run(ctx, dir, true)
}

// SyncCorpus implements commands.CorpusService for an explicit corpus root.
func (s *Service) SyncCorpus(ctx context.Context, dir string, dryRun bool) (*Summary, error) {
	return s.run(ctx, dir, dryRun)
}

// SyncHandler returns a command handler bound to this service.
func (s *Service) SyncHandler(opts ...commands.HandlerOption[commands.SyncCorpusCommand]) *commands.SyncCorpusHandler {
	return commands.NewSyncCorpusHandler(s, commands.CommandLogger(s.provider, "sync"), opts...)
}

// PlanHandler returns a plan-only command handler bound to this service.
func (s *Service) PlanHandler(opts ...commands.HandlerOption[commands.PlanCorpusCommand]) *commands.PlanCorpusHandler {
	return commands.NewPlanCorpusHandler(s, commands.CommandLogger(s.provider, "plan"), opts...)
}

func (s *Service) run(ctx context.Context, dir string, dryRun bool) (*Summary, error) {
	if strings.TrimSpace(dir) == "" {
		dir = s.cfg.InputDir
	}

	fetcher := s.fetcher
	if fetcher == nil {
		fetcher = fetch.New(fetch.Options{
			Timeout:   s.cfg.Fetch.Timeout,
			Retries:   s.cfg.Fetch.Retries,
			UserAgent: s.cfg.Fetch.UserAgent,
			Logger:    logging.FetchLogger(s.provider),
		})
	}

	allocOpts := []assets.Option{
		assets.WithLogger(logging.AssetsLogger(s.provider)),
	}
	if dryRun {
		allocOpts = append(allocOpts, assets.WithDryRun())
	}

	// A dry run seeds from an existing manifest but must not create one;
	// opening the store would materialize the sqlite file and its schema.
	useManifest := s.cfg.ManifestPath != ""
	if useManifest && dryRun {
		if _, statErr := os.Stat(s.cfg.ManifestPath); statErr != nil {
			useManifest = false
		}
	}

	var manifest *assets.BunManifestStore
	if useManifest {
		store, err := assets.OpenManifest(s.cfg.ManifestPath)
		if err != nil {
			return nil, fmt.Errorf("imagesync: open manifest: %w", err)
		}
		defer store.Close()

		entries, err := store.Load(ctx)
		if err != nil {
			return nil, fmt.Errorf("imagesync: load manifest: %w", err)
		}
		allocOpts = append(allocOpts, assets.WithSeed(entries))
		manifest = store
	}

	allocator := assets.New(fetcher, fetch.ContentSniffer{}, assets.NewDirWriter(s.cfg.AssetsDir), allocOpts...)
	loader := scan.NewLoader(os.DirFS(dir), scan.LoaderConfig{
		BasePath:  dir,
		Pattern:   s.cfg.Pattern,
		Recursive: s.cfg.Recursive,
	})
	planner := plan.NewPlanner(s.cfg.MarkdownDestDir)

	var sink interfaces.DocumentSink
	if !dryRun {
		fsSink, err := engine.NewFSSink(dir)
		if err != nil {
			return nil, err
		}
		sink = fsSink
	}

	eng, err := engine.New(engine.Options{
		Loader:      loader,
		Extractor:   scan.NewExtractor(),
		Allocator:   allocator,
		Planner:     planner,
		Sink:        sink,
		Logger:      logging.EngineLogger(s.provider),
		Concurrency: s.cfg.Concurrency,
		URLFilters:  s.cfg.URLFilters,
		DryRun:      dryRun,
	})
	if err != nil {
		return nil, err
	}

	summary, err := eng.Run(ctx)
	if err != nil {
		return nil, err
	}

	if !dryRun && manifest != nil {
		// A manifest persistence failure does not void a completed run; the
		// corpus and assets directory already hold the result.
		if err := manifest.Save(ctx, allocator.Entries()); err != nil {
			logging.EngineLogger(s.provider).Error("imagesync.manifest.save_failed", "error", err)
		}
	}

	return summary, nil
}

func buildLoggerProvider(cfg LoggingConfig) (interfaces.LoggerProvider, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case "", "console":
		opts := console.Options{}
		if level, ok := console.ParseLevel(cfg.Level); ok {
			opts.MinLevel = &level
		}
		return console.NewProvider(opts), nil
	case "gologger":
		return gologger.NewProvider(gologger.Config{
			Level:     cfg.Level,
			Format:    cfg.Format,
			AddSource: cfg.AddSource,
		})
	default:
		return nil, fmt.Errorf("%w: %s", ErrLoggingProviderUnknown, cfg.Provider)
	}
}

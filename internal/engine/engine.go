package engine

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/goliatone/go-imagesync/internal/assets"
	"github.com/goliatone/go-imagesync/internal/logging"
	"github.com/goliatone/go-imagesync/internal/plan"
	"github.com/goliatone/go-imagesync/internal/report"
	"github.com/goliatone/go-imagesync/internal/scan"
	"github.com/goliatone/go-imagesync/pkg/interfaces"
)

var (
	ErrLoaderRequired    = errors.New("engine: loader is required")
	ErrAllocatorRequired = errors.New("engine: allocator is required")
	ErrPlannerRequired   = errors.New("engine: planner is required")
	ErrSinkRequired      = errors.New("engine: document sink is required")
)

const defaultConcurrency = 4

// Options wires the engine's collaborators.
type Options struct {
	Loader    *scan.Loader
	Extractor *scan.Extractor
	Allocator *assets.Allocator
	Planner   *plan.Planner
	// Sink applies accepted edits back to documents. Optional on dry runs.
	Sink   interfaces.DocumentSink
	Logger interfaces.Logger
	// Concurrency bounds the scan and plan worker pools.
	Concurrency int
	// URLFilters restricts processing to URLs containing at least one of
	// the substrings.
	URLFilters []string
	// DryRun plans without downloading or modifying anything.
	DryRun bool
}

// Engine coordinates one localization run: scan the corpus, resolve every
// distinct URL through the allocator, plan per-document edits, and apply the
// safe ones. The allocator is the only shared mutable state; scanning and
// planning fan out across workers with no ordering guarantees between
// documents.
type Engine struct {
	loader      *scan.Loader
	extractor   *scan.Extractor
	allocator   *assets.Allocator
	planner     *plan.Planner
	sink        interfaces.DocumentSink
	logger      interfaces.Logger
	concurrency int
	urlFilters  []string
	dryRun      bool
}

// New validates the wiring and returns a single-run engine. Engines share
// nothing: two engines in one process operate on fully independent state.
func New(opts Options) (*Engine, error) {
	if opts.Loader == nil {
		return nil, ErrLoaderRequired
	}
	if opts.Allocator == nil {
		return nil, ErrAllocatorRequired
	}
	if opts.Planner == nil {
		return nil, ErrPlannerRequired
	}
	if opts.Sink == nil && !opts.DryRun {
		return nil, ErrSinkRequired
	}

	extractor := opts.Extractor
	if extractor == nil {
		extractor = scan.NewExtractor()
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.NoOp()
	}
	concurrency := opts.Concurrency
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}

	return &Engine{
		loader:      opts.Loader,
		extractor:   extractor,
		allocator:   opts.Allocator,
		planner:     opts.Planner,
		sink:        opts.Sink,
		logger:      logger,
		concurrency: concurrency,
		urlFilters:  append([]string(nil), opts.URLFilters...),
		dryRun:      opts.DryRun,
	}, nil
}

type scannedDocument struct {
	doc         *interfaces.Document
	occurrences []interfaces.Occurrence
}

// Run executes the full pipeline and returns the execution summary. Failures
// local to one document or one URL are recorded in the summary and never
// abort the run; only the inability to walk the corpus at all is an error.
func (e *Engine) Run(ctx context.Context) (*report.Summary, error) {
	summary := report.NewSummary()

	scanned, err := e.scanCorpus(ctx, summary)
	if err != nil {
		return nil, err
	}

	e.applyFilters(scanned, summary)

	urls := distinctURLs(scanned)
	e.logger.Info("engine.run.scanned",
		"documents", len(scanned),
		"distinct_urls", len(urls),
		"dry_run", e.dryRun,
	)

	e.resolveAll(ctx, urls, summary)
	e.planAndApply(ctx, scanned, summary)

	return summary, nil
}

// scanCorpus loads and extracts every document on a bounded worker pool.
// Documents that cannot be loaded or parsed are recorded and excluded.
func (e *Engine) scanCorpus(ctx context.Context, summary *report.Summary) ([]scannedDocument, error) {
	paths, err := e.loader.Discover(ctx)
	if err != nil {
		return nil, fmt.Errorf("engine: discover corpus: %w", err)
	}

	var (
		mu      sync.Mutex
		results []scannedDocument
	)

	jobs := make(chan string)
	var wg sync.WaitGroup
	for i := 0; i < e.concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for path := range jobs {
				doc, err := e.loader.LoadFile(ctx, path)
				if err != nil {
					e.logger.Warn("engine.scan.load_failed", "document", path, "error", err)
					summary.AddDocumentError(path, err)
					continue
				}
				occurrences, err := e.extractor.Extract(doc)
				if err != nil {
					e.logger.Warn("engine.scan.extract_failed", "document", path, "error", err)
					summary.AddDocumentError(path, err)
					continue
				}
				if doc.Title != "" {
					summary.SetDocumentTitle(doc.ID, doc.Title)
				}
				e.logger.Debug("engine.scan.document",
					"document", path,
					"title", doc.Title,
					"checksum", hex.EncodeToString(doc.Checksum),
					"modified", doc.LastModified,
					"occurrences", len(occurrences),
				)
				mu.Lock()
				results = append(results, scannedDocument{doc: doc, occurrences: occurrences})
				mu.Unlock()
			}
		}()
	}

	for _, path := range paths {
		jobs <- path
	}
	close(jobs)
	wg.Wait()

	sort.Slice(results, func(i, j int) bool {
		return results[i].doc.ID < results[j].doc.ID
	})
	return results, nil
}

// applyFilters drops occurrences of URLs excluded by the substring filters,
// recording one skipped record per (document, URL) pair.
func (e *Engine) applyFilters(scanned []scannedDocument, summary *report.Summary) {
	if len(e.urlFilters) == 0 {
		return
	}

	for i := range scanned {
		kept := scanned[i].occurrences[:0]
		skipped := map[string]bool{}
		for _, occ := range scanned[i].occurrences {
			if e.passesFilters(occ.URL) {
				kept = append(kept, occ)
				continue
			}
			if !skipped[occ.URL] {
				skipped[occ.URL] = true
				if err := summary.Add(interfaces.SummaryRecord{
					DocumentID: scanned[i].doc.ID,
					URL:        occ.URL,
					Kind:       occ.Kind,
					Outcome:    interfaces.OutcomeSkippedFiltered,
				}); err != nil {
					e.logger.Error("engine.filter.record_failed", "error", err)
				}
			}
		}
		scanned[i].occurrences = kept
	}
}

func (e *Engine) passesFilters(url string) bool {
	for _, filter := range e.urlFilters {
		if strings.Contains(url, filter) {
			return true
		}
	}
	return false
}

// resolveAll pushes every distinct URL through the allocator on a bounded
// pool. The allocator serializes per-URL work internally, so concurrent
// resolution still performs at most one fetch per URL.
func (e *Engine) resolveAll(ctx context.Context, urls []string, summary *report.Summary) {
	sem := make(chan struct{}, e.concurrency)
	var wg sync.WaitGroup
	for _, url := range urls {
		wg.Add(1)
		go func(url string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			asset := e.allocator.Resolve(ctx, url)
			if asset.Available && !asset.Deferred && !asset.Seeded {
				if err := summary.Add(interfaces.SummaryRecord{
					URL:           url,
					Outcome:       interfaces.OutcomeDownloaded,
					LocalFilename: asset.Filename(),
				}); err != nil {
					e.logger.Error("engine.resolve.record_failed", "url", url, "error", err)
				}
			}
		}(url)
	}
	wg.Wait()
}

// planAndApply computes per-document edits in parallel (planning is pure and
// lock-free once resolution finished) and applies non-empty edits through the
// sink. A failed application is recorded against the document; the run
// continues.
func (e *Engine) planAndApply(ctx context.Context, scanned []scannedDocument, summary *report.Summary) {
	sem := make(chan struct{}, e.concurrency)
	var wg sync.WaitGroup
	for _, item := range scanned {
		wg.Add(1)
		go func(item scannedDocument) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			edit, records := e.planner.Plan(item.doc.ID, item.occurrences, e.allocator)
			for _, record := range records {
				if err := summary.Add(record); err != nil {
					e.logger.Error("engine.plan.record_failed",
						"document", item.doc.ID, "url", record.URL, "error", err)
				}
			}

			if e.dryRun || edit.Empty() {
				return
			}
			if err := e.sink.Apply(ctx, item.doc, edit); err != nil {
				e.logger.Error("engine.apply.failed", "document", item.doc.ID, "error", err)
				summary.AddDocumentError(item.doc.ID, err)
			}
		}(item)
	}
	wg.Wait()
}

func distinctURLs(scanned []scannedDocument) []string {
	seen := map[string]struct{}{}
	for _, item := range scanned {
		for _, occ := range item.occurrences {
			seen[occ.URL] = struct{}{}
		}
	}
	urls := make([]string, 0, len(seen))
	for url := range seen {
		urls = append(urls, url)
	}
	sort.Strings(urls)
	return urls
}

package assets

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/goliatone/go-imagesync/internal/fetch"
	"github.com/goliatone/go-imagesync/internal/logging"
	"github.com/goliatone/go-imagesync/pkg/interfaces"
)

// Allocator owns the run-wide mapping from remote URL to local asset. It is
// the single shared mutable resource during a run: resolution for a given URL
// is serialized so at most one fetch and one allocation happens per distinct
// URL even when documents are processed concurrently.
//
// The allocator is an explicit object owned by one engine for the run's
// duration. Two engines in the same process share nothing.
type Allocator struct {
	fetcher interfaces.Fetcher
	sniffer interfaces.TypeSniffer
	writer  interfaces.AssetWriter
	logger  interfaces.Logger
	dryRun  bool

	mu       sync.Mutex
	assets   map[string]*interfaces.LocalAsset
	stems    map[string]string
	inflight map[string]chan struct{}
}

// Option configures an Allocator.
type Option func(*Allocator)

// WithLogger injects the logger used for allocation diagnostics.
func WithLogger(logger interfaces.Logger) Option {
	return func(a *Allocator) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// WithDryRun defers downloads and writes: assets are named but their bytes
// are never requested, and assets whose extension depends on sniffing stay
// extension-less until a real run.
func WithDryRun() Option {
	return func(a *Allocator) {
		a.dryRun = true
	}
}

// WithSeed preloads the allocator with previously persisted assignments so a
// re-run over an unchanged corpus yields identical filenames. Seeded URLs are
// returned as-is without re-fetching; their local copies are assumed to still
// exist from the run that produced the manifest.
func WithSeed(entries []interfaces.ManifestEntry) Option {
	return func(a *Allocator) {
		for _, entry := range entries {
			if entry.URL == "" || entry.Stem == "" {
				continue
			}
			a.assets[entry.URL] = &interfaces.LocalAsset{
				URL:       entry.URL,
				Stem:      entry.Stem,
				Ext:       entry.Ext,
				Available: true,
				Seeded:    true,
			}
			a.stems[entry.Stem] = entry.URL
		}
	}
}

// New constructs an empty Allocator for a single run.
func New(fetcher interfaces.Fetcher, sniffer interfaces.TypeSniffer, writer interfaces.AssetWriter, opts ...Option) *Allocator {
	a := &Allocator{
		fetcher:  fetcher,
		sniffer:  sniffer,
		writer:   writer,
		logger:   logging.NoOp(),
		assets:   map[string]*interfaces.LocalAsset{},
		stems:    map[string]string{},
		inflight: map[string]chan struct{}{},
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Resolve returns the local asset for a remote URL, allocating it on first
// sight. The call is idempotent per run: repeated resolution of the same URL,
// from any goroutine, returns the identical asset and performs at most one
// fetch. A failed fetch degrades the asset to a "no local copy" state rather
// than returning an error; the caller records the outcome per occurrence.
func (a *Allocator) Resolve(ctx context.Context, url string) *interfaces.LocalAsset {
	for {
		a.mu.Lock()
		if asset, ok := a.assets[url]; ok {
			a.mu.Unlock()
			return asset
		}
		if done, ok := a.inflight[url]; ok {
			a.mu.Unlock()
			<-done
			continue
		}
		done := make(chan struct{})
		a.inflight[url] = done
		a.mu.Unlock()

		asset := a.allocate(ctx, url)

		a.mu.Lock()
		a.assets[url] = asset
		delete(a.inflight, url)
		a.mu.Unlock()
		close(done)
		return asset
	}
}

// Lookup returns a previously resolved asset without allocating.
func (a *Allocator) Lookup(url string) (*interfaces.LocalAsset, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	asset, ok := a.assets[url]
	return asset, ok
}

// Entries snapshots the current URL to filename assignments for manifest
// persistence, sorted by URL for deterministic output.
func (a *Allocator) Entries() []interfaces.ManifestEntry {
	a.mu.Lock()
	defer a.mu.Unlock()

	entries := make([]interfaces.ManifestEntry, 0, len(a.assets))
	for _, asset := range a.assets {
		entries = append(entries, interfaces.ManifestEntry{
			URL:  asset.URL,
			Stem: asset.Stem,
			Ext:  asset.Ext,
		})
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].URL < entries[j].URL
	})
	return entries
}

func (a *Allocator) allocate(ctx context.Context, url string) *interfaces.LocalAsset {
	stem, ext := deriveName(url)
	stem = a.claimStem(stem, url)

	asset := &interfaces.LocalAsset{
		URL:  url,
		Stem: stem,
		Ext:  ext,
	}

	logger := logging.WithAssetContext(a.logger, "", url, "")

	if a.dryRun {
		asset.Available = true
		asset.Deferred = true
		logger.Debug("assets.allocate.deferred", "stem", stem, "ext", ext)
		return asset
	}

	data, err := a.fetcher.Fetch(ctx, url)
	if err != nil {
		asset.Reason = fetch.Reason(err)
		logger.Warn("assets.allocate.fetch_failed", "error", err)
		return asset
	}

	if asset.Ext == "" {
		sniffed, err := a.sniffer.Detect(data)
		if err != nil {
			// Keep the asset extension-less; the local copy is still
			// written so the bytes are not lost.
			logger.Warn("assets.allocate.sniff_failed", "error", err)
		} else {
			asset.Ext = normalizeExtension(sniffed)
		}
	}

	if err := a.writer.Write(ctx, asset.Filename(), data); err != nil {
		asset.Reason = err.Error()
		logger.Error("assets.allocate.write_failed", "error", err, "local_filename", asset.Filename())
		return asset
	}

	asset.Available = true
	logger.Debug("assets.allocate.stored", "local_filename", asset.Filename(), "size", len(data))
	return asset
}

// claimStem reserves a stem for the URL, disambiguating collisions with a
// numeric suffix. Uniqueness is enforced on the stem alone, irrespective of
// extension, so assignments stay unique even while an extension is unknown.
func (a *Allocator) claimStem(stem, url string) string {
	a.mu.Lock()
	defer a.mu.Unlock()

	candidate := stem
	for n := 2; ; n++ {
		owner, taken := a.stems[candidate]
		if !taken {
			a.stems[candidate] = url
			return candidate
		}
		if owner == url {
			return candidate
		}
		candidate = fmt.Sprintf("%s-%d", stem, n)
	}
}

package engine

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"testing/fstest"

	"github.com/goliatone/go-imagesync/internal/assets"
	"github.com/goliatone/go-imagesync/internal/plan"
	"github.com/goliatone/go-imagesync/internal/report"
	"github.com/goliatone/go-imagesync/internal/scan"
	"github.com/goliatone/go-imagesync/pkg/interfaces"
)

type countingFetcher struct {
	mu    sync.Mutex
	calls map[string]int
	errs  map[string]error
}

func newCountingFetcher() *countingFetcher {
	return &countingFetcher{calls: map[string]int{}, errs: map[string]error{}}
}

func (f *countingFetcher) Fetch(_ context.Context, url string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[url]++
	if err, ok := f.errs[url]; ok {
		return nil, err
	}
	return []byte("image-bytes"), nil
}

func (f *countingFetcher) total() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		n += c
	}
	return n
}

type staticSniffer struct{}

func (staticSniffer) Detect([]byte) (string, error) { return "png", nil }

type memAssetWriter struct {
	mu    sync.Mutex
	files map[string][]byte
}

func newMemAssetWriter() *memAssetWriter {
	return &memAssetWriter{files: map[string][]byte{}}
}

func (w *memAssetWriter) Write(_ context.Context, filename string, data []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.files[filename] = data
	return nil
}

type memSink struct {
	mu      sync.Mutex
	applied map[string]string
}

func newMemSink() *memSink {
	return &memSink{applied: map[string]string{}}
}

func (s *memSink) Apply(_ context.Context, doc *interfaces.Document, edit interfaces.DocumentEdit) error {
	out, err := plan.Apply(doc.Source, edit)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.applied[doc.ID] = string(out)
	return nil
}

func (s *memSink) content(docID string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out, ok := s.applied[docID]
	return out, ok
}

type fixture struct {
	fetcher *countingFetcher
	sink    *memSink
	engine  *Engine
}

func newFixture(t *testing.T, fsys fstest.MapFS, mutate func(*Options)) *fixture {
	t.Helper()

	fetcher := newCountingFetcher()
	sink := newMemSink()
	opts := Options{
		Loader:    scan.NewLoader(fsys, scan.LoaderConfig{BasePath: ".", Recursive: true}),
		Allocator: assets.New(fetcher, staticSniffer{}, newMemAssetWriter()),
		Planner:   plan.NewPlanner("../assets"),
		Sink:      sink,
	}
	if mutate != nil {
		mutate(&opts)
	}

	eng, err := New(opts)
	if err != nil {
		t.Fatalf("engine.New returned error: %v", err)
	}
	return &fixture{fetcher: fetcher, sink: sink, engine: eng}
}

func outcomeFor(t *testing.T, summary *report.Summary, doc, url string) interfaces.SummaryRecord {
	t.Helper()
	for _, record := range summary.Records() {
		if record.DocumentID == doc && record.URL == url {
			return record
		}
	}
	t.Fatalf("no record for (%q, %q); records: %+v", doc, url, summary.Records())
	return interfaces.SummaryRecord{}
}

func TestEngineRunRewritesSharedURL(t *testing.T) {
	url := "https://example.com/cat.png"
	fsys := fstest.MapFS{
		"a.md": {Data: []byte("![a](" + url + ")\n")},
		"b.md": {Data: []byte("intro\n\n![b](" + url + ")\n")},
	}
	fx := newFixture(t, fsys, nil)

	summary, err := fx.engine.Run(context.Background())
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	if got := fx.fetcher.total(); got != 1 {
		t.Fatalf("shared URL should be fetched once, got %d fetches", got)
	}
	if rec := outcomeFor(t, summary, "", url); rec.Outcome != interfaces.OutcomeDownloaded {
		t.Fatalf("expected downloaded record, got %s", rec.Outcome)
	}
	for _, doc := range []string{"a.md", "b.md"} {
		if rec := outcomeFor(t, summary, doc, url); rec.Outcome != interfaces.OutcomeRewritten {
			t.Fatalf("%s: expected rewritten, got %s", doc, rec.Outcome)
		}
		out, ok := fx.sink.content(doc)
		if !ok {
			t.Fatalf("%s: edit was not applied", doc)
		}
		if !strings.Contains(out, "../assets/cat.png") {
			t.Fatalf("%s: rewritten source missing local path:\n%s", doc, out)
		}
		if strings.Contains(out, url) {
			t.Fatalf("%s: remote URL survived the rewrite:\n%s", doc, out)
		}
	}
}

func TestEngineRunFlagsAmbiguousDocument(t *testing.T) {
	url := "https://example.com/cat.png"
	fsys := fstest.MapFS{
		"doc.md": {Data: []byte("![a](" + url + ")\n\nRaw link: " + url + "\n")},
	}
	fx := newFixture(t, fsys, nil)

	summary, err := fx.engine.Run(context.Background())
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	if rec := outcomeFor(t, summary, "doc.md", url); rec.Outcome != interfaces.OutcomeFlaggedAmbiguous {
		t.Fatalf("expected flagged_ambiguous, got %s", rec.Outcome)
	}
	// The download still happens; only the rewrite is withheld.
	if rec := outcomeFor(t, summary, "", url); rec.Outcome != interfaces.OutcomeDownloaded {
		t.Fatalf("expected downloaded record, got %s", rec.Outcome)
	}
	if _, ok := fx.sink.content("doc.md"); ok {
		t.Fatal("ambiguous document must not be modified")
	}
}

func TestEngineRunRecordsDownloadFailure(t *testing.T) {
	url := "https://example.com/broken.png"
	fsys := fstest.MapFS{
		"doc.md": {Data: []byte("![a](" + url + ")\n")},
	}
	fx := newFixture(t, fsys, nil)
	fx.fetcher.errs[url] = errors.New("503 from origin")

	summary, err := fx.engine.Run(context.Background())
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	rec := outcomeFor(t, summary, "doc.md", url)
	if rec.Outcome != interfaces.OutcomeDownloadFailed {
		t.Fatalf("expected download_failed, got %s", rec.Outcome)
	}
	if rec.Detail == "" {
		t.Fatal("expected failure detail on the record")
	}
	if _, ok := fx.sink.content("doc.md"); ok {
		t.Fatal("document must stay untouched when the download failed")
	}
	if counts := summary.Counts(); counts[interfaces.OutcomeDownloaded] != 0 {
		t.Fatalf("no downloaded record expected, got %v", counts)
	}
}

func TestEngineDryRun(t *testing.T) {
	url := "https://example.com/cat.png"
	fsys := fstest.MapFS{
		"doc.md": {Data: []byte("![a](" + url + ")\n")},
	}
	fetcher := newCountingFetcher()
	eng, err := New(Options{
		Loader:    scan.NewLoader(fsys, scan.LoaderConfig{BasePath: ".", Recursive: true}),
		Allocator: assets.New(fetcher, staticSniffer{}, newMemAssetWriter(), assets.WithDryRun()),
		Planner:   plan.NewPlanner("../assets"),
		DryRun:    true,
	})
	if err != nil {
		t.Fatalf("engine.New returned error: %v", err)
	}

	summary, err := eng.Run(context.Background())
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	if got := fetcher.total(); got != 0 {
		t.Fatalf("dry run must not fetch, got %d fetches", got)
	}
	if rec := outcomeFor(t, summary, "doc.md", url); rec.Outcome != interfaces.OutcomeRewritten {
		t.Fatalf("dry run should plan the rewrite, got %s", rec.Outcome)
	}
	if counts := summary.Counts(); counts[interfaces.OutcomeDownloaded] != 0 {
		t.Fatalf("deferred assets must not report downloads, got %v", counts)
	}
}

func TestEngineURLFilters(t *testing.T) {
	kept := "https://cdn.example.com/cat.png"
	skipped := "https://other.net/dog.png"
	fsys := fstest.MapFS{
		"doc.md": {Data: []byte("![a](" + kept + ")\n\n![b](" + skipped + ")\n")},
	}
	fx := newFixture(t, fsys, func(opts *Options) {
		opts.URLFilters = []string{"example.com"}
	})

	summary, err := fx.engine.Run(context.Background())
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	if rec := outcomeFor(t, summary, "doc.md", skipped); rec.Outcome != interfaces.OutcomeSkippedFiltered {
		t.Fatalf("expected skipped_filtered, got %s", rec.Outcome)
	}
	if rec := outcomeFor(t, summary, "doc.md", kept); rec.Outcome != interfaces.OutcomeRewritten {
		t.Fatalf("expected rewritten for matching URL, got %s", rec.Outcome)
	}
	if got := fx.fetcher.calls[skipped]; got != 0 {
		t.Fatalf("filtered URL must not be fetched, got %d calls", got)
	}
	out, _ := fx.sink.content("doc.md")
	if !strings.Contains(out, skipped) {
		t.Fatal("filtered URL must survive in the document")
	}
}

func TestEngineRunHandlesLeadingThematicBreak(t *testing.T) {
	url := "https://x.com/a.jpg"
	fsys := fstest.MapFS{
		"break.md": {Data: []byte("---\nsome introductory text\n---\n![a](" + url + ")\n")},
	}
	fx := newFixture(t, fsys, nil)

	summary, err := fx.engine.Run(context.Background())
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	if docErrs := summary.DocumentErrors(); len(docErrs) != 0 {
		t.Fatalf("document must participate despite the malformed fence: %+v", docErrs)
	}
	if rec := outcomeFor(t, summary, "break.md", url); rec.Outcome != interfaces.OutcomeRewritten {
		t.Fatalf("expected rewritten, got %s", rec.Outcome)
	}
	out, ok := fx.sink.content("break.md")
	if !ok || !strings.Contains(out, "../assets/a.jpg") {
		t.Fatalf("rewrite missing:\n%s", out)
	}
}

func TestEngineSeededAssetsAreNotReportedDownloaded(t *testing.T) {
	url := "https://example.com/cat.png"
	fsys := fstest.MapFS{
		"doc.md": {Data: []byte("![a](" + url + ")\n")},
	}
	fx := newFixture(t, fsys, func(opts *Options) {
		fetcher := newCountingFetcher()
		opts.Allocator = assets.New(fetcher, staticSniffer{}, newMemAssetWriter(),
			assets.WithSeed([]interfaces.ManifestEntry{{URL: url, Stem: "cat", Ext: "png"}}))
	})

	summary, err := fx.engine.Run(context.Background())
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	if counts := summary.Counts(); counts[interfaces.OutcomeDownloaded] != 0 {
		t.Fatalf("seeded reuse must not report a download, got %v", counts)
	}
	if rec := outcomeFor(t, summary, "doc.md", url); rec.Outcome != interfaces.OutcomeRewritten {
		t.Fatalf("expected rewritten from the seeded assignment, got %s", rec.Outcome)
	}
	out, _ := fx.sink.content("doc.md")
	if !strings.Contains(out, "../assets/cat.png") {
		t.Fatalf("seeded filename not applied:\n%s", out)
	}
}

func TestEngineRunCapturesTitles(t *testing.T) {
	url := "https://example.com/cat.png"
	fsys := fstest.MapFS{
		"doc.md": {Data: []byte("---\ntitle: Cat Gallery\n---\n\n![a](" + url + ")\n")},
	}
	fx := newFixture(t, fsys, nil)

	summary, err := fx.engine.Run(context.Background())
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if got := summary.DocumentTitle("doc.md"); got != "Cat Gallery" {
		t.Fatalf("expected frontmatter title on the summary, got %q", got)
	}
}

func TestEngineRecordsUnparseableDocuments(t *testing.T) {
	url := "https://example.com/cat.png"
	fsys := fstest.MapFS{
		"good.md": {Data: []byte("![a](" + url + ")\n")},
		"bad.md":  {Data: []byte{0x00, 0x01, 0x02}},
	}
	fx := newFixture(t, fsys, nil)

	summary, err := fx.engine.Run(context.Background())
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	docErrs := summary.DocumentErrors()
	if len(docErrs) != 1 || docErrs[0].DocumentID != "bad.md" {
		t.Fatalf("expected one document error for bad.md, got %+v", docErrs)
	}
	if rec := outcomeFor(t, summary, "good.md", url); rec.Outcome != interfaces.OutcomeRewritten {
		t.Fatalf("healthy document should still be processed, got %s", rec.Outcome)
	}
}

func TestEnginesShareNothing(t *testing.T) {
	url := "https://example.com/cat.png"
	fsys := fstest.MapFS{
		"doc.md": {Data: []byte("![a](" + url + ")\n")},
	}

	first := newFixture(t, fsys, nil)
	second := newFixture(t, fsys, nil)

	if _, err := first.engine.Run(context.Background()); err != nil {
		t.Fatalf("first run failed: %v", err)
	}
	if _, err := second.engine.Run(context.Background()); err != nil {
		t.Fatalf("second run failed: %v", err)
	}

	// Each engine owns its allocator, so both assign the plain stem rather
	// than colliding into a numbered one.
	a, _ := first.sink.content("doc.md")
	b, _ := second.sink.content("doc.md")
	if a != b || !strings.Contains(a, "../assets/cat.png") {
		t.Fatalf("independent engines diverged:\n%s\n%s", a, b)
	}
	if first.fetcher.total() != 1 || second.fetcher.total() != 1 {
		t.Fatal("each engine performs its own single fetch")
	}
}

type faultySink struct {
	inner   *memSink
	failFor string
}

func (s *faultySink) Apply(ctx context.Context, doc *interfaces.Document, edit interfaces.DocumentEdit) error {
	if doc.ID == s.failFor {
		return errors.New("read-only file system")
	}
	return s.inner.Apply(ctx, doc, edit)
}

func TestEngineRecordsSinkFailures(t *testing.T) {
	url := "https://example.com/cat.png"
	fsys := fstest.MapFS{
		"a.md": {Data: []byte("![a](" + url + ")\n")},
		"b.md": {Data: []byte("![b](" + url + ")\n")},
	}
	sink := &faultySink{inner: newMemSink(), failFor: "a.md"}
	fx := newFixture(t, fsys, func(opts *Options) {
		opts.Sink = sink
	})

	summary, err := fx.engine.Run(context.Background())
	if err != nil {
		t.Fatalf("a failed write must not abort the run: %v", err)
	}

	docErrs := summary.DocumentErrors()
	if len(docErrs) != 1 || docErrs[0].DocumentID != "a.md" {
		t.Fatalf("expected one document error for a.md, got %+v", docErrs)
	}
	if _, ok := sink.inner.content("a.md"); ok {
		t.Fatal("failed document must not be recorded as applied")
	}
	out, ok := sink.inner.content("b.md")
	if !ok || !strings.Contains(out, "../assets/cat.png") {
		t.Fatalf("healthy document should still be rewritten:\n%s", out)
	}
}

func TestEngineNewValidation(t *testing.T) {
	if _, err := New(Options{}); !errors.Is(err, ErrLoaderRequired) {
		t.Fatalf("expected ErrLoaderRequired, got %v", err)
	}

	loader := scan.NewLoader(fstest.MapFS{}, scan.LoaderConfig{BasePath: "."})
	alloc := assets.New(newCountingFetcher(), staticSniffer{}, newMemAssetWriter())
	if _, err := New(Options{Loader: loader, Allocator: alloc, Planner: plan.NewPlanner("")}); !errors.Is(err, ErrSinkRequired) {
		t.Fatalf("expected ErrSinkRequired, got %v", err)
	}
}

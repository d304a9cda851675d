package interfaces

import "context"

// OccurrenceKind classifies how a remote URL appears inside a document.
type OccurrenceKind string

const (
	// KindImageElement marks a URL sitting in the source position of a
	// Markdown image construct.
	KindImageElement OccurrenceKind = "image_element"
	// KindPlainText marks any other textual appearance of the URL (prose,
	// inline code, link destinations).
	KindPlainText OccurrenceKind = "plain_text"
)

// Span is a half-open [Start, End) byte range into a document's raw source.
type Span struct {
	Start int
	End   int
}

// Occurrence records one appearance of a remote image URL in one document.
type Occurrence struct {
	DocumentID string
	URL        string
	Span       Span
	Kind       OccurrenceKind
}

// LocalAsset is the run-wide local identity assigned to one remote URL. The
// URL to LocalAsset mapping is a pure function applied consistently across a
// run: two occurrences of the same URL always resolve to the same asset.
type LocalAsset struct {
	URL  string
	Stem string
	// Ext is stored without a leading dot and may be empty when the
	// extension could not be determined.
	Ext string
	// Available reports whether a local copy of the asset exists (or, on a
	// dry run, is expected to exist).
	Available bool
	// Deferred is set on dry runs where the download was intentionally
	// skipped and the extension may still be unknown.
	Deferred bool
	// Seeded marks an asset restored from a persisted manifest; its bytes
	// were not fetched during this run.
	Seeded bool
	// Reason explains why the asset is unavailable.
	Reason string
}

// Filename returns the final unique local filename for the asset.
func (a *LocalAsset) Filename() string {
	if a == nil {
		return ""
	}
	if a.Ext == "" {
		return a.Stem
	}
	return a.Stem + "." + a.Ext
}

// Substitution replaces the span of a document's source with new text.
type Substitution struct {
	Span        Span
	Replacement string
}

// DocumentEdit is the ordered, non-overlapping set of substitutions accepted
// for one document. An empty edit means the document is left untouched.
type DocumentEdit struct {
	DocumentID    string
	Substitutions []Substitution
}

// Empty reports whether the edit carries no substitutions.
func (e DocumentEdit) Empty() bool {
	return len(e.Substitutions) == 0
}

// Outcome is the terminal classification for a (document, URL) pair.
type Outcome string

const (
	// OutcomeDownloaded marks a URL whose bytes were fetched and stored
	// during this run; manifest-seeded reuse is not reported. Emitted once
	// per distinct URL with an empty DocumentID.
	OutcomeDownloaded Outcome = "downloaded"
	// OutcomeDownloadFailed marks occurrences of a URL with no local copy.
	OutcomeDownloadFailed Outcome = "download_failed"
	// OutcomeRewritten marks occurrences substituted with the local path.
	OutcomeRewritten Outcome = "rewritten"
	// OutcomeFlaggedAmbiguous marks occurrences left alone because a
	// plain-text appearance makes literal substitution unsafe.
	OutcomeFlaggedAmbiguous Outcome = "flagged_ambiguous"
	// OutcomeSkippedFiltered marks URLs excluded by substring filters.
	OutcomeSkippedFiltered Outcome = "skipped_filtered"
)

// SummaryRecord is one write-once entry in the execution summary, covering
// every occurrence of URL within DocumentID.
type SummaryRecord struct {
	DocumentID string
	URL        string
	Kind       OccurrenceKind
	Outcome    Outcome
	// ImageCount and PlainCount break down how the URL appears in the
	// document, for manual follow-up reporting.
	ImageCount int
	PlainCount int
	// LocalFilename carries the asset filename when one was assigned.
	LocalFilename string
	// Detail carries the failure reason for degraded outcomes.
	Detail string
}

// ManifestEntry is one persisted URL to filename assignment.
type ManifestEntry struct {
	URL  string
	Stem string
	Ext  string
}

// ManifestStore persists allocator state between runs so re-running over an
// unchanged corpus yields identical local filenames. Without a store,
// filenames are only stable within a single run.
type ManifestStore interface {
	Load(ctx context.Context) ([]ManifestEntry, error)
	Save(ctx context.Context, entries []ManifestEntry) error
}

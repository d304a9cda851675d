package report

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/goliatone/go-imagesync/pkg/interfaces"
)

var ErrDuplicateRecord = errors.New("report: summary record already written")

// DocumentError captures a document that could not participate in the run
// (unparseable source, failed edit application). The document is excluded but
// the run continues.
type DocumentError struct {
	DocumentID string
	Err        error
}

// Summary accumulates one write-once record per (document, URL) pair across
// a whole run. Records are never revised after being written; the summary is
// the sole user-visible failure channel, queryable after completion.
type Summary struct {
	mu      sync.Mutex
	records []interfaces.SummaryRecord
	index   map[recordKey]struct{}
	docErrs []DocumentError
	titles  map[string]string
}

type recordKey struct {
	doc string
	url string
}

// NewSummary returns an empty accumulator.
func NewSummary() *Summary {
	return &Summary{
		index:  map[recordKey]struct{}{},
		titles: map[string]string{},
	}
}

// Add writes a record. Writing a second record for the same (document, URL)
// pair violates the write-once contract and returns ErrDuplicateRecord.
func (s *Summary) Add(record interfaces.SummaryRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := recordKey{doc: record.DocumentID, url: record.URL}
	if _, exists := s.index[key]; exists {
		return fmt.Errorf("%w: %s %s", ErrDuplicateRecord, record.DocumentID, record.URL)
	}
	s.index[key] = struct{}{}
	s.records = append(s.records, record)
	return nil
}

// SetDocumentTitle attaches a frontmatter title used to label the document in
// rendered summaries.
func (s *Summary) SetDocumentTitle(documentID, title string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if title != "" {
		s.titles[documentID] = title
	}
}

// DocumentTitle returns the title recorded for a document, or "".
func (s *Summary) DocumentTitle(documentID string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.titles[documentID]
}

// AddDocumentError records a document-level failure.
func (s *Summary) AddDocumentError(documentID string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docErrs = append(s.docErrs, DocumentError{DocumentID: documentID, Err: err})
}

// Records returns every record sorted by document then URL.
func (s *Summary) Records() []interfaces.SummaryRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]interfaces.SummaryRecord, len(s.records))
	copy(out, s.records)
	sort.Slice(out, func(i, j int) bool {
		if out[i].DocumentID != out[j].DocumentID {
			return out[i].DocumentID < out[j].DocumentID
		}
		return out[i].URL < out[j].URL
	})
	return out
}

// Counts tallies records by outcome.
func (s *Summary) Counts() map[interfaces.Outcome]int {
	s.mu.Lock()
	defer s.mu.Unlock()

	counts := map[interfaces.Outcome]int{}
	for _, record := range s.records {
		counts[record.Outcome]++
	}
	return counts
}

// ByOutcome returns the records carrying the given outcome, sorted by
// document then URL.
func (s *Summary) ByOutcome(outcome interfaces.Outcome) []interfaces.SummaryRecord {
	var out []interfaces.SummaryRecord
	for _, record := range s.Records() {
		if record.Outcome == outcome {
			out = append(out, record)
		}
	}
	return out
}

// Flagged enumerates every ambiguous case needing manual follow-up.
func (s *Summary) Flagged() []interfaces.SummaryRecord {
	return s.ByOutcome(interfaces.OutcomeFlaggedAmbiguous)
}

// Failed enumerates every download failure needing manual follow-up.
func (s *Summary) Failed() []interfaces.SummaryRecord {
	return s.ByOutcome(interfaces.OutcomeDownloadFailed)
}

// DocumentErrors returns documents excluded from the run.
func (s *Summary) DocumentErrors() []DocumentError {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]DocumentError, len(s.docErrs))
	copy(out, s.docErrs)
	sort.Slice(out, func(i, j int) bool {
		return out[i].DocumentID < out[j].DocumentID
	})
	return out
}

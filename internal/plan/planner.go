package plan

import (
	"path"
	"sort"

	"github.com/goliatone/go-imagesync/pkg/interfaces"
)

// AssetLookup resolves previously allocated assets. The planner never
// allocates; by the time planning starts every distinct URL has been
// resolved, so lookups are read-only and lock-free planning across documents
// is safe.
type AssetLookup interface {
	Lookup(url string) (*interfaces.LocalAsset, bool)
}

// Planner decides, per document, which occurrences can be safely substituted
// with local asset paths. Planning is a pure function of the extracted
// occurrence facts and the asset mapping: no shared mutable state, so
// documents can be planned independently and in any order.
type Planner struct {
	destPrefix string
}

// NewPlanner constructs a planner. destPrefix is the directory string placed
// in front of local filenames inside rewritten Markdown (e.g. "../assets").
func NewPlanner(destPrefix string) *Planner {
	return &Planner{destPrefix: destPrefix}
}

// Plan partitions the document's occurrences per URL and stages a
// substitution only when it is provably safe:
//
//   - no local copy (download failed): nothing is substituted, every
//     occurrence of the URL is recorded as download_failed;
//   - any plain-text occurrence: literal substitution cannot distinguish the
//     image position from the textual one, so nothing is substituted and all
//     occurrences of the URL are flagged ambiguous. This is a deliberate
//     conservative policy, not a heuristic;
//   - otherwise every image-element occurrence is rewritten to the asset's
//     local path.
//
// The returned edit is empty when no substitution was planned. One summary
// record is produced per (document, URL) pair.
func (p *Planner) Plan(docID string, occurrences []interfaces.Occurrence, assets AssetLookup) (interfaces.DocumentEdit, []interfaces.SummaryRecord) {
	edit := interfaces.DocumentEdit{DocumentID: docID}
	if len(occurrences) == 0 {
		return edit, nil
	}

	grouped := map[string][]interfaces.Occurrence{}
	for _, occ := range occurrences {
		grouped[occ.URL] = append(grouped[occ.URL], occ)
	}

	urls := make([]string, 0, len(grouped))
	for url := range grouped {
		urls = append(urls, url)
	}
	sort.Strings(urls)

	records := make([]interfaces.SummaryRecord, 0, len(urls))
	for _, url := range urls {
		group := grouped[url]

		record := interfaces.SummaryRecord{
			DocumentID: docID,
			URL:        url,
			Kind:       interfaces.KindPlainText,
		}
		for _, occ := range group {
			if occ.Kind == interfaces.KindImageElement {
				record.ImageCount++
			} else {
				record.PlainCount++
			}
		}
		if record.ImageCount > 0 {
			record.Kind = interfaces.KindImageElement
		}

		asset, ok := assets.Lookup(url)
		if ok {
			record.LocalFilename = asset.Filename()
		}

		switch {
		case !ok || (!asset.Available && !asset.Deferred):
			record.Outcome = interfaces.OutcomeDownloadFailed
			if ok {
				record.Detail = asset.Reason
			}
		case record.PlainCount > 0:
			record.Outcome = interfaces.OutcomeFlaggedAmbiguous
		default:
			record.Outcome = interfaces.OutcomeRewritten
			replacement := p.localPath(asset.Filename())
			for _, occ := range group {
				edit.Substitutions = append(edit.Substitutions, interfaces.Substitution{
					Span:        occ.Span,
					Replacement: replacement,
				})
			}
		}

		records = append(records, record)
	}

	sort.Slice(edit.Substitutions, func(i, j int) bool {
		return edit.Substitutions[i].Span.Start < edit.Substitutions[j].Span.Start
	})

	return edit, records
}

func (p *Planner) localPath(filename string) string {
	if p.destPrefix == "" {
		return filename
	}
	return path.Join(p.destPrefix, filename)
}

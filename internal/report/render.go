package report

import (
	"fmt"
	"strings"

	"github.com/goliatone/go-imagesync/pkg/interfaces"
)

// RenderPlan produces a human-readable description of the edits a run would
// make, grouped by document. Used for dry runs and saved plan summaries.
func RenderPlan(summary *Summary) string {
	var b strings.Builder
	b.WriteString("- URL Replacement Plan\n")

	body := ""
	for _, docID := range documentOrder(summary) {
		section := fmt.Sprintf("\t- For document: %s\n", documentLabel(summary, docID))
		for _, record := range documentRecords(summary, docID) {
			section += fmt.Sprintf("\t\t- For URL: `%s`\n", record.URL)
			switch record.Outcome {
			case interfaces.OutcomeFlaggedAmbiguous:
				section += fmt.Sprintf("\t\t\t- Replacement is unsafe (%d occurrence(s) outside an image element), so will not be attempted.\n", record.PlainCount)
			case interfaces.OutcomeDownloadFailed:
				section += fmt.Sprintf("\t\t\t- No local copy is available (%s), so no replacement is planned.\n", orUnknown(record.Detail))
			case interfaces.OutcomeSkippedFiltered:
				section += "\t\t\t- URL is excluded by the configured filters.\n"
			case interfaces.OutcomeRewritten:
				if strings.Contains(record.LocalFilename, ".") {
					section += fmt.Sprintf("\t\t\t- Replacement will be attempted with local filename `%s`.\n", record.LocalFilename)
				} else {
					section += fmt.Sprintf("\t\t\t- Replacement will be attempted with local filename `%s` (file extension is not known yet).\n", record.LocalFilename)
				}
			}
		}
		body += section
	}

	if body == "" {
		body = "\t- No replacements planned. This may be because there are no matching URLs.\n"
	}
	b.WriteString(body)

	renderDocumentErrors(&b, summary)
	return b.String()
}

// RenderExecution produces the post-run summary: download failures and
// replacements that could not be made. Everything that succeeded is omitted;
// the output is a guide to the cases that need manual cleanup.
func RenderExecution(summary *Summary) string {
	var b strings.Builder

	b.WriteString("- Image Download Summary\n")
	failed := summary.Failed()
	if len(failed) == 0 {
		b.WriteString("\t- All image downloads succeeded!\n")
	} else {
		byURL := map[string][]string{}
		for _, record := range failed {
			if record.DocumentID != "" {
				byURL[record.URL] = append(byURL[record.URL], record.DocumentID)
			} else if _, ok := byURL[record.URL]; !ok {
				byURL[record.URL] = nil
			}
		}
		for _, record := range failed {
			docs, ok := byURL[record.URL]
			if !ok {
				continue
			}
			delete(byURL, record.URL)
			b.WriteString(fmt.Sprintf("\t- Failed to download URL: `%s`\n", record.URL))
			if record.Detail != "" {
				b.WriteString(fmt.Sprintf("\t\t- Reason: %s\n", record.Detail))
			}
			if len(docs) > 0 {
				b.WriteString("\t\t- Occurs in documents:\n")
				for _, doc := range docs {
					b.WriteString(fmt.Sprintf("\t\t\t- `%s`\n", doc))
				}
			}
		}
	}

	b.WriteString("- URL Replacement Summary\n")
	replBody := ""
	for _, docID := range documentOrder(summary) {
		section := ""
		for _, record := range documentRecords(summary, docID) {
			switch record.Outcome {
			case interfaces.OutcomeFlaggedAmbiguous:
				section += fmt.Sprintf("\t\t- Failed to replace URL: `%s`\n", record.URL)
				section += fmt.Sprintf("\t\t\t- Reason: replacement is unsafe because there are %d occurrence(s) of the URL outside an image element\n", record.PlainCount)
				section += fmt.Sprintf("\t\t\t- Local image filename: `%s`\n", record.LocalFilename)
			case interfaces.OutcomeDownloadFailed:
				section += fmt.Sprintf("\t\t- Failed to replace URL: `%s`\n", record.URL)
				section += "\t\t\t- Reason: download failed\n"
			}
		}
		if section != "" {
			replBody += fmt.Sprintf("\t- For document: %s\n", documentLabel(summary, docID)) + section
		}
	}
	if replBody == "" {
		replBody = "\t- All URLs replaced successfully!\n"
	}
	b.WriteString(replBody)

	renderDocumentErrors(&b, summary)
	return b.String()
}

func renderDocumentErrors(b *strings.Builder, summary *Summary) {
	docErrs := summary.DocumentErrors()
	if len(docErrs) == 0 {
		return
	}
	b.WriteString("- Document Errors\n")
	for _, docErr := range docErrs {
		b.WriteString(fmt.Sprintf("\t- `%s`: %v\n", docErr.DocumentID, docErr.Err))
	}
}

// documentLabel renders a document reference, appending the frontmatter title
// when one was recorded for it.
func documentLabel(summary *Summary, docID string) string {
	if title := summary.DocumentTitle(docID); title != "" {
		return fmt.Sprintf("`%s` (%s)", docID, title)
	}
	return fmt.Sprintf("`%s`", docID)
}

func orUnknown(detail string) string {
	if detail == "" {
		return "reason unknown"
	}
	return detail
}

// documentOrder lists the distinct document IDs carrying records, sorted.
func documentOrder(summary *Summary) []string {
	var order []string
	seen := map[string]struct{}{}
	for _, record := range summary.Records() {
		if record.DocumentID == "" {
			continue
		}
		if _, ok := seen[record.DocumentID]; ok {
			continue
		}
		seen[record.DocumentID] = struct{}{}
		order = append(order, record.DocumentID)
	}
	return order
}

func documentRecords(summary *Summary, docID string) []interfaces.SummaryRecord {
	var out []interfaces.SummaryRecord
	for _, record := range summary.Records() {
		if record.DocumentID == docID {
			out = append(out, record)
		}
	}
	return out
}

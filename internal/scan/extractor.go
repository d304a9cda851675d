package scan

import (
	"bytes"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/text"

	"github.com/goliatone/go-imagesync/pkg/interfaces"
)

// Extractor finds every occurrence of every remote image URL in a document.
// It runs two passes over the source: a goldmark AST pass that collects the
// destinations of Markdown image elements, and a raw-text pass that locates
// the exact byte span of each appearance of those URLs. Each span is
// classified as an image-element destination or a plain-text appearance; the
// planner later uses the distinction to decide whether a literal substitution
// is safe.
//
// The extractor is stateless, so a single instance can be shared across
// concurrent document workers without locking.
type Extractor struct {
	md goldmark.Markdown
}

// NewExtractor constructs an extractor with the same GFM-flavoured parser
// defaults used elsewhere in the module.
func NewExtractor() *Extractor {
	return &Extractor{
		md: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
		),
	}
}

// Extract returns the occurrences of every remote image URL referenced by the
// document, sorted by span. Documents that are not parseable Markdown text
// return ErrNotMarkdown; the caller records them as document-level errors and
// excludes them from the run.
func (e *Extractor) Extract(doc *interfaces.Document) ([]interfaces.Occurrence, error) {
	source := doc.Source
	if !utf8.Valid(source) || bytes.IndexByte(source, 0x00) >= 0 {
		return nil, ErrNotMarkdown
	}

	imageCounts := e.collectImageURLs(source)
	if len(imageCounts) == 0 {
		return nil, nil
	}

	occurrences := locateSpans(doc.ID, source, imageCounts)

	// Cross-check the structural pass against the textual one. When an
	// AST-reported image destination cannot be located in the raw source
	// (entity escapes, split references), a literal substitution could hit
	// the wrong bytes, so every appearance of that URL is demoted to
	// plain text and the planner will flag it instead of rewriting.
	classified := map[string]int{}
	for _, occ := range occurrences {
		if occ.Kind == interfaces.KindImageElement {
			classified[occ.URL]++
		}
	}
	for url, want := range imageCounts {
		if classified[url] == want {
			continue
		}
		for i := range occurrences {
			if occurrences[i].URL == url {
				occurrences[i].Kind = interfaces.KindPlainText
			}
		}
	}

	sort.Slice(occurrences, func(i, j int) bool {
		a, b := occurrences[i], occurrences[j]
		if a.Span.Start != b.Span.Start {
			return a.Span.Start < b.Span.Start
		}
		return a.URL < b.URL
	})

	return occurrences, nil
}

// collectImageURLs walks the Markdown AST and counts image elements per
// remote destination URL.
func (e *Extractor) collectImageURLs(source []byte) map[string]int {
	root := e.md.Parser().Parse(text.NewReader(source))

	counts := map[string]int{}
	_ = ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if img, ok := n.(*ast.Image); ok {
			if dest := string(img.Destination); isRemoteURL(dest) {
				counts[dest]++
			}
		}
		return ast.WalkContinue, nil
	})
	return counts
}

func isRemoteURL(dest string) bool {
	return strings.HasPrefix(dest, "http://") || strings.HasPrefix(dest, "https://")
}

// locateSpans finds every textual appearance of each URL and classifies it.
// A span strictly contained inside another URL's span (one URL being a
// substring of another) is not an independent occurrence and is dropped.
func locateSpans(docID string, source []byte, urls map[string]int) []interfaces.Occurrence {
	type candidate struct {
		url  string
		span interfaces.Span
	}

	var candidates []candidate
	for url := range urls {
		needle := []byte(url)
		for offset := 0; ; {
			idx := bytes.Index(source[offset:], needle)
			if idx < 0 {
				break
			}
			start := offset + idx
			candidates = append(candidates, candidate{
				url:  url,
				span: interfaces.Span{Start: start, End: start + len(needle)},
			})
			offset = start + 1
		}
	}

	kept := make([]candidate, 0, len(candidates))
	for _, c := range candidates {
		nested := false
		for _, other := range candidates {
			if other.url == c.url && other.span == c.span {
				continue
			}
			if other.span.Start <= c.span.Start && c.span.End <= other.span.End {
				nested = true
				break
			}
		}
		if !nested {
			kept = append(kept, c)
		}
	}

	occurrences := make([]interfaces.Occurrence, 0, len(kept))
	for _, c := range kept {
		kind := interfaces.KindPlainText
		if isImageDestination(source, c.span.Start, c.span.End) {
			kind = interfaces.KindImageElement
		}
		occurrences = append(occurrences, interfaces.Occurrence{
			DocumentID: docID,
			URL:        c.url,
			Span:       c.span,
			Kind:       kind,
		})
	}
	return occurrences
}

// isImageDestination reports whether source[start:end] sits in the source
// position of a Markdown image construct, i.e. the URL is the complete
// destination token of `![...](URL)` (optionally angle-bracketed or followed
// by a title). The scan walks backwards over the link text brackets and
// requires the image marker `!` before the opening bracket.
func isImageDestination(source []byte, start, end int) bool {
	// The URL must be a complete destination token: only whitespace, a
	// closing angle bracket, a title, or the closing paren may follow.
	i := end
	if i < len(source) && source[i] == '>' {
		i++
	}
	i = skipSpaces(source, i)
	if i >= len(source) {
		return false
	}
	switch source[i] {
	case ')':
	case '"', '\'':
	default:
		return false
	}

	// Walk back to the opening paren, allowing `(<` and whitespace.
	i = start - 1
	i = skipSpacesBack(source, i)
	if i >= 0 && source[i] == '<' {
		i = skipSpacesBack(source, i-1)
	}
	if i < 0 || source[i] != '(' {
		return false
	}
	i--
	if i < 0 || source[i] != ']' {
		return false
	}

	depth := 1
	i--
	for i >= 0 && depth > 0 {
		switch source[i] {
		case ']':
			depth++
		case '[':
			depth--
		}
		if depth == 0 {
			break
		}
		i--
	}
	if i < 0 || depth != 0 {
		return false
	}

	// source[i] is the opening bracket of the link text; an image needs the
	// bang immediately before it.
	return i > 0 && source[i-1] == '!'
}

func skipSpaces(source []byte, i int) int {
	for i < len(source) && isSpace(source[i]) {
		i++
	}
	return i
}

func skipSpacesBack(source []byte, i int) int {
	for i >= 0 && isSpace(source[i]) {
		i--
	}
	return i
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}

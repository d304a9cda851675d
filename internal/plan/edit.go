package plan

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/goliatone/go-imagesync/pkg/interfaces"
)

var (
	ErrSpanOutOfRange   = errors.New("plan: substitution span is out of range")
	ErrOverlappingSpans = errors.New("plan: substitution spans overlap")
)

// Apply materializes an edit against the document's raw source, returning the
// rewritten bytes. Substitutions must be ordered by span and non-overlapping;
// a violation means the plan and source diverged, so nothing is applied.
func Apply(source []byte, edit interfaces.DocumentEdit) ([]byte, error) {
	if edit.Empty() {
		return source, nil
	}

	var out bytes.Buffer
	out.Grow(len(source))

	cursor := 0
	for _, sub := range edit.Substitutions {
		span := sub.Span
		if span.Start < 0 || span.End > len(source) || span.Start > span.End {
			return nil, fmt.Errorf("%w: [%d,%d) in %d bytes", ErrSpanOutOfRange, span.Start, span.End, len(source))
		}
		if span.Start < cursor {
			return nil, fmt.Errorf("%w: [%d,%d) begins before offset %d", ErrOverlappingSpans, span.Start, span.End, cursor)
		}
		out.Write(source[cursor:span.Start])
		out.WriteString(sub.Replacement)
		cursor = span.End
	}
	out.Write(source[cursor:])

	return out.Bytes(), nil
}

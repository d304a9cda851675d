package interfaces

import (
	"context"
	"time"
)

// Document is a single Markdown file participating in a run. The ID doubles
// as the path relative to the corpus root.
type Document struct {
	ID           string
	Title        string
	Source       []byte
	Checksum     []byte
	LastModified time.Time
}

// DocumentSink applies a planned edit back to a document. Documents with an
// empty edit are left untouched.
type DocumentSink interface {
	Apply(ctx context.Context, doc *Document, edit DocumentEdit) error
}

package engine

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/goliatone/go-imagesync/internal/plan"
	"github.com/goliatone/go-imagesync/pkg/interfaces"
)

var ErrSinkRootRequired = errors.New("engine: sink root directory is required")

// FSSink writes edited documents back in place under the corpus root.
// Document IDs are slash-separated paths relative to the root, as produced by
// the corpus loader.
type FSSink struct {
	root string
}

// NewFSSink returns a sink rooted at dir.
func NewFSSink(dir string) (*FSSink, error) {
	if dir == "" {
		return nil, ErrSinkRootRequired
	}
	return &FSSink{root: dir}, nil
}

// Apply materializes the edit against the document's in-memory source and
// rewrites the file. The source bytes carried on the document are the ones
// the spans were computed against, so application is independent of any
// concurrent change on disk.
func (s *FSSink) Apply(ctx context.Context, doc *interfaces.Document, edit interfaces.DocumentEdit) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if edit.Empty() {
		return nil
	}

	updated, err := plan.Apply(doc.Source, edit)
	if err != nil {
		return fmt.Errorf("engine: apply edit to %s: %w", doc.ID, err)
	}

	target := filepath.Join(s.root, filepath.FromSlash(doc.ID))
	if err := os.WriteFile(target, updated, 0o644); err != nil {
		return fmt.Errorf("engine: write %s: %w", doc.ID, err)
	}
	return nil
}

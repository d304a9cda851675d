package assets

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-imagesync/pkg/interfaces"
)

// DirWriter persists asset bytes into a flat destination directory.
type DirWriter struct {
	dir string
}

var _ interfaces.AssetWriter = (*DirWriter)(nil)

// NewDirWriter constructs a writer rooted at dir. The directory is created
// lazily on first write.
func NewDirWriter(dir string) *DirWriter {
	return &DirWriter{dir: filepath.Clean(dir)}
}

// Write stores data under the assigned local filename. Failures (disk full,
// permissions) surface to the allocator, which degrades the affected asset
// instead of aborting the run.
func (w *DirWriter) Write(ctx context.Context, filename string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return goerrors.Wrap(fmt.Errorf("%w: %v", ErrWriteFailed, err), CategoryStorage, "create asset directory").
			WithTextCode(assetWriteFailedCode)
	}

	path := filepath.Join(w.dir, filename)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return goerrors.Wrap(fmt.Errorf("%w: %v", ErrWriteFailed, err), CategoryStorage, "write asset file").
			WithTextCode(assetWriteFailedCode)
	}
	return nil
}

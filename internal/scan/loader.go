package scan

import (
	"context"
	"crypto/sha256"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/goliatone/go-imagesync/pkg/interfaces"
)

// LoaderConfig configures how Markdown files are discovered within a corpus
// root.
type LoaderConfig struct {
	// BasePath is the root directory where Markdown documents live.
	BasePath string
	// Pattern limits discovered files to those matching the supplied glob
	// (defaults to "*.md").
	Pattern string
	// Recursive controls whether sub-directories are traversed.
	Recursive bool
}

// Loader turns filesystem paths into documents ready for scanning.
type Loader struct {
	fs        fs.FS
	basePath  string
	pattern   string
	recursive bool
}

// NewLoader constructs a Loader over the provided filesystem. The filesystem
// is expected to be rooted at cfg.BasePath (e.g. os.DirFS(cfg.BasePath)).
func NewLoader(filesystem fs.FS, cfg LoaderConfig) *Loader {
	pattern := cfg.Pattern
	if strings.TrimSpace(pattern) == "" {
		pattern = "*.md"
	}

	return &Loader{
		fs:        filesystem,
		basePath:  filepath.Clean(cfg.BasePath),
		pattern:   pattern,
		recursive: cfg.Recursive,
	}
}

// Discover walks the corpus root and returns the relative paths of every
// Markdown file matching the configured pattern, sorted for deterministic
// processing order.
func (l *Loader) Discover(ctx context.Context) ([]string, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	var paths []string

	walkErr := fs.WalkDir(l.fs, ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if d.IsDir() {
			if !l.recursive && path != "." {
				return fs.SkipDir
			}
			return nil
		}

		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		if l.matchesPattern(filepath.ToSlash(path)) {
			paths = append(paths, filepath.ToSlash(path))
		}
		return nil
	})
	if walkErr != nil {
		return nil, fmt.Errorf("scan loader walk: %w", walkErr)
	}

	sort.Strings(paths)
	return paths, nil
}

// LoadFile reads a single document relative to the corpus root. The raw
// source is kept verbatim so spans computed by the extractor index into the
// exact bytes that will be edited.
func (l *Loader) LoadFile(ctx context.Context, path string) (*interfaces.Document, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	rel := filepath.ToSlash(filepath.Clean(path))
	if rel == ".." || strings.HasPrefix(rel, "../") {
		return nil, ErrPathEscapes
	}

	data, err := fs.ReadFile(l.fs, rel)
	if err != nil {
		return nil, fmt.Errorf("scan loader read %s: %w", rel, err)
	}

	info, err := fs.Stat(l.fs, rel)
	if err != nil {
		return nil, fmt.Errorf("scan loader stat %s: %w", rel, err)
	}

	// A document opening with a thematic break is indistinguishable from a
	// frontmatter fence until the parse fails. The title is cosmetic, so a
	// malformed block degrades to an empty title and the document still
	// participates in the run.
	title, err := ParseTitle(data)
	if err != nil {
		title = ""
	}

	sum := sha256.Sum256(data)

	return &interfaces.Document{
		ID:           rel,
		Title:        title,
		Source:       data,
		Checksum:     sum[:],
		LastModified: info.ModTime(),
	}, nil
}

func (l *Loader) matchesPattern(path string) bool {
	pattern := filepath.ToSlash(l.pattern)
	if strings.Contains(pattern, "**") {
		// Basic support for ** by stripping repeated separators.
		pattern = strings.ReplaceAll(pattern, "**/", "")
	}
	target := path
	if !strings.Contains(pattern, "/") {
		target = filepath.Base(path)
	}
	match, err := filepath.Match(pattern, target)
	if err != nil {
		return false
	}
	return match
}

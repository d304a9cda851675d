package assets

import (
	"context"
	"database/sql"
	"time"

	goerrors "github.com/goliatone/go-errors"
	_ "github.com/mattn/go-sqlite3"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"

	"github.com/goliatone/go-imagesync/pkg/interfaces"
)

type manifestModel struct {
	bun.BaseModel `bun:"table:image_assets"`

	URL       string    `bun:"url,pk"`
	Stem      string    `bun:"stem,notnull"`
	Ext       string    `bun:"ext"`
	UpdatedAt time.Time `bun:"updated_at,notnull"`
}

// BunManifestStore persists URL to filename assignments in a sqlite database
// so filenames stay stable across separate invocations over the same corpus.
type BunManifestStore struct {
	db *bun.DB
}

var _ interfaces.ManifestStore = (*BunManifestStore)(nil)

// OpenManifest opens (creating when missing) a sqlite-backed manifest at
// path and returns a store bound to it.
func OpenManifest(path string) (*BunManifestStore, error) {
	sqldb, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, goerrors.Wrap(err, CategoryStorage, "open manifest database").
			WithTextCode(manifestLoadFailedCode)
	}
	return NewBunManifestStore(bun.NewDB(sqldb, sqlitedialect.New())), nil
}

// NewBunManifestStore constructs a manifest store over an existing bun DB.
func NewBunManifestStore(db *bun.DB) *BunManifestStore {
	return &BunManifestStore{db: db}
}

// Load returns every persisted assignment.
func (s *BunManifestStore) Load(ctx context.Context) ([]interfaces.ManifestEntry, error) {
	if err := s.ensureSchema(ctx); err != nil {
		return nil, err
	}

	var models []manifestModel
	if err := s.db.NewSelect().Model(&models).Order("url ASC").Scan(ctx); err != nil {
		return nil, goerrors.Wrap(err, CategoryStorage, "load manifest entries").
			WithTextCode(manifestLoadFailedCode)
	}

	entries := make([]interfaces.ManifestEntry, 0, len(models))
	for _, model := range models {
		entries = append(entries, interfaces.ManifestEntry{
			URL:  model.URL,
			Stem: model.Stem,
			Ext:  model.Ext,
		})
	}
	return entries, nil
}

// Save upserts the supplied assignments. Existing URLs keep their primary key
// and get their stem/ext refreshed; the manifest never forgets a URL, so an
// assignment survives even when a later corpus no longer references it.
func (s *BunManifestStore) Save(ctx context.Context, entries []interfaces.ManifestEntry) error {
	if len(entries) == 0 {
		return nil
	}
	if err := s.ensureSchema(ctx); err != nil {
		return err
	}

	now := time.Now().UTC()
	models := make([]manifestModel, 0, len(entries))
	for _, entry := range entries {
		models = append(models, manifestModel{
			URL:       entry.URL,
			Stem:      entry.Stem,
			Ext:       entry.Ext,
			UpdatedAt: now,
		})
	}

	if _, err := s.db.NewInsert().
		Model(&models).
		On("CONFLICT (url) DO UPDATE").
		Set("stem = EXCLUDED.stem").
		Set("ext = EXCLUDED.ext").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx); err != nil {
		return goerrors.Wrap(err, CategoryStorage, "save manifest entries").
			WithTextCode(manifestSaveFailedCode)
	}
	return nil
}

// Close releases the underlying database handle.
func (s *BunManifestStore) Close() error {
	return s.db.Close()
}

func (s *BunManifestStore) ensureSchema(ctx context.Context) error {
	if _, err := s.db.NewCreateTable().
		Model((*manifestModel)(nil)).
		IfNotExists().
		Exec(ctx); err != nil {
		return goerrors.Wrap(err, CategoryStorage, "ensure manifest schema").
			WithTextCode(manifestSchemaFailCode)
	}
	return nil
}

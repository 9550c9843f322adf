package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"path"

	"github.com/thinkoverit/jugalbandi/internal/collection"
	"github.com/thinkoverit/jugalbandi/internal/storage"
)

// PlainTextConverter is the reference TextConverter: it copies each file's
// bytes into a "text" folder of the collection's local tier as
// "<name>.txt". Real converters (PDF extraction, OCR) replace it at wiring
// time; the folder keeps derived artifacts out of manifest enumeration,
// which lists the collection root only.
type PlainTextConverter struct{}

func (PlainTextConverter) Textify(ctx context.Context, fileName string, col *collection.Collection) error {
	content, err := col.Local().Read(ctx, fileName)
	if err != nil {
		return fmt.Errorf("read %s: %w", fileName, err)
	}
	derived := path.Join("text", fileName+".txt")
	if err := col.Local().Write(ctx, derived, content); err != nil {
		return fmt.Errorf("write %s: %w", derived, err)
	}
	return nil
}

// ManifestIndexer is the reference Indexer: it lists the collection and
// persists the listing as "<id>.json" into its own store, outside the
// collection namespace.
type ManifestIndexer struct {
	store storage.Store
}

// NewManifestIndexer creates an indexer writing into the given store.
func NewManifestIndexer(store storage.Store) *ManifestIndexer {
	return &ManifestIndexer{store: store}
}

func (m *ManifestIndexer) Index(ctx context.Context, col *collection.Collection) error {
	files, err := col.ListFiles(ctx)
	if err != nil {
		return fmt.Errorf("list collection %s: %w", col.ID(), err)
	}
	artifact, err := json.Marshal(struct {
		Identifier string   `json:"identifier"`
		Files      []string `json:"files"`
	}{Identifier: col.ID(), Files: files})
	if err != nil {
		return fmt.Errorf("marshal index for %s: %w", col.ID(), err)
	}
	if err := m.store.Write(ctx, col.ID()+".json", artifact); err != nil {
		return fmt.Errorf("write index for %s: %w", col.ID(), err)
	}
	return nil
}

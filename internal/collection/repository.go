package collection

import (
	"github.com/google/uuid"

	"github.com/thinkoverit/jugalbandi/internal/storage"
)

// Repository hands out Collections backed by a process-wide pair of root
// stores. Identifiers are allocated here and nowhere else; storage and
// metadata only ever receive them.
type Repository struct {
	local  storage.Store
	remote storage.Store
}

// NewRepository creates a Repository over the given root stores.
func NewRepository(local, remote storage.Store) *Repository {
	return &Repository{local: local, remote: remote}
}

// New allocates a fresh identifier and derives both sub-stores from it.
// Nothing is written until InitFromFiles.
func (r *Repository) New() *Collection {
	return r.Get(uuid.NewString())
}

// Get rehydrates a Collection handle from a known identifier. Existence is
// not verified here; reads and listings confirm it.
func (r *Repository) Get(id string) *Collection {
	return &Collection{
		id:     id,
		local:  r.local.Sub(id),
		remote: r.remote.Sub(id),
	}
}

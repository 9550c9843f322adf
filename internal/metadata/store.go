package metadata

import "context"

// Store defines the metadata repository operations. Implementations must
// make Insert and Update transactional: a failure mid-way leaves no partial
// record visible to readers.
type Store interface {
	// Insert creates the document record and one manifest row per file in a
	// single transaction, returning the new record id.
	Insert(ctx context.Context, name, identifier string, manifest []string) (int64, error)

	// Update replaces the record's manifest wholesale, never merging: all
	// existing manifest rows are deleted and the new set inserted in one
	// transaction.
	Update(ctx context.Context, recordID int64, manifest []string) error

	// FindByID returns the record joined with its manifest. A record with
	// zero manifest rows reports ErrRecordNotFound.
	FindByID(ctx context.Context, recordID int64) (*Record, error)

	// LookupByID returns the record without its manifest (Files is nil).
	// Unlike FindByID it resolves records whose manifest is empty; mutating
	// operations resolve through it so a reconciled-to-empty collection
	// stays reachable.
	LookupByID(ctx context.Context, recordID int64) (*Record, error)

	// ListAll returns every record with its manifest. Ordering is not
	// guaranteed to follow insertion.
	ListAll(ctx context.Context) ([]*Record, error)

	// DeleteByID removes the manifest rows and then the record. It reports
	// whether exactly one record row was removed; false means nothing to
	// delete, not an error.
	DeleteByID(ctx context.Context, recordID int64) (bool, error)
}

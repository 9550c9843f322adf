// Package metadata keeps the relational record of each document collection:
// its name, its identifier and the manifest of files it holds. The object
// store is the source of truth for manifest content; this layer is a cache
// of it and is repaired by re-listing storage when the two drift.
package metadata

import (
	"errors"
	"time"
)

var (
	// ErrRecordNotFound is returned when no document record matches, or when
	// a record has an empty manifest (callers that need to distinguish the
	// two use a separate existence check).
	ErrRecordNotFound = errors.New("document record not found")

	// ErrDuplicateRecord is returned when an insert collides with an
	// existing identifier.
	ErrDuplicateRecord = errors.New("document record already exists")
)

// Record is one document collection as the relational store sees it.
type Record struct {
	ID         int64     `json:"id"`
	Name       string    `json:"name"`
	Identifier string    `json:"identifier"`
	CreatedAt  time.Time `json:"created_at"`
	// Files is the manifest: the file names belonging to the collection.
	Files []string `json:"files"`
}

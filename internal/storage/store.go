// Package storage provides the polymorphic object-store abstraction used by
// document collections. A Store is a namespace rooted at some path or prefix;
// Sub derives a cheap view scoped to a child namespace without touching the
// backing medium.
package storage

import (
	"context"
	"errors"
)

var (
	// ErrNotFound is returned when a file is not present in the store.
	ErrNotFound = errors.New("file not found")
	// ErrNotSupported is returned by backends that cannot serve an operation
	// (public URLs on local or null stores).
	ErrNotSupported = errors.New("operation not supported")
)

// Store defines the contract every storage backend implements.
// Implementations must be safe for concurrent use.
type Store interface {
	// Write stores content at path relative to the store root, creating any
	// missing intermediate namespace structure. Existing content is
	// overwritten.
	Write(ctx context.Context, path string, content []byte) error

	// Read returns the content at path. Returns ErrNotFound if absent.
	Read(ctx context.Context, path string) ([]byte, error)

	// Exists reports whether a file is present at path. Absence is not an
	// error; only a failure reaching the backend is.
	Exists(ctx context.Context, path string) (bool, error)

	// List returns the names of entries directly under folder (non-recursive).
	// Ordering is backend-defined and must not be relied upon.
	List(ctx context.Context, folder string) ([]string, error)

	// Remove deletes the file at path, or the whole namespace beneath it if
	// path denotes a folder. Removing a path that does not exist is a no-op.
	Remove(ctx context.Context, path string) error

	// Sub returns a Store rooted at root/suffix. It performs no I/O and is
	// safe to call repeatedly and concurrently; derived stores share the
	// backing medium with their parent.
	Sub(suffix string) Store

	// MakePublic makes the file at path publicly reachable and returns its
	// URL. Backends without a public surface return ErrNotSupported.
	MakePublic(ctx context.Context, path string) (string, error)

	// PublicURL returns the externally reachable locator for path without
	// changing its visibility. Backends without a public surface return
	// ErrNotSupported.
	PublicURL(ctx context.Context, path string) (string, error)

	// Shutdown releases backend-held resources. Call at most once per root
	// store at process teardown.
	Shutdown(ctx context.Context) error
}

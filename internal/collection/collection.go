// Package collection pairs a fast local store and a durable remote store
// under one collection identifier, and manages the files belonging to that
// collection across both tiers.
package collection

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/thinkoverit/jugalbandi/internal/storage"
)

var (
	// ErrIngestion is returned when writing source files into a collection
	// fails. The collection may be left partially populated; the caller
	// decides whether to retry or delete.
	ErrIngestion = errors.New("ingestion failed")
	// ErrDeletion is returned when removing a collection's storage fails on
	// either tier. Deletion converges under retry; the caller must retry to
	// reach full consistency.
	ErrDeletion = errors.New("deletion failed")
)

// SourceFile is one caller-supplied file to ingest.
type SourceFile struct {
	Name   string
	Reader io.Reader
}

// Collection is a pair of sub-stores, local and remote, rooted at the same
// identifier.
type Collection struct {
	id     string
	local  storage.Store
	remote storage.Store
}

// ID returns the collection identifier.
func (c *Collection) ID() string { return c.id }

// Local returns the local-tier sub-store.
func (c *Collection) Local() storage.Store { return c.local }

// Remote returns the remote-tier sub-store.
func (c *Collection) Remote() storage.Store { return c.remote }

// InitFromFiles writes each source file into the local store first and then
// mirrors it to the remote store, in file order. It stops at the first write
// failure; already-written files stay in place and no rollback is attempted.
func (c *Collection) InitFromFiles(ctx context.Context, files []SourceFile) error {
	for _, file := range files {
		content, err := io.ReadAll(file.Reader)
		if err != nil {
			return fmt.Errorf("%w: read source %s: %v", ErrIngestion, file.Name, err)
		}
		if err := c.local.Write(ctx, file.Name, content); err != nil {
			return fmt.Errorf("%w: local write %s: %v", ErrIngestion, file.Name, err)
		}
		if err := c.remote.Write(ctx, file.Name, content); err != nil {
			return fmt.Errorf("%w: remote write %s: %v", ErrIngestion, file.Name, err)
		}
	}
	return nil
}

// ListFiles returns the names of the files currently in the collection's
// local tier. The result is the authoritative manifest candidate at call
// time; ordering is not specified.
func (c *Collection) ListFiles(ctx context.Context) ([]string, error) {
	return c.local.List(ctx, "")
}

// Remove clears the whole collection namespace from both tiers. The remote
// tier is removed first so a failure leaves the local tier intact for retry
// rather than leaving an orphaned durable copy. Removal is not atomic across
// tiers; on error the caller retries until both removals succeed.
func (c *Collection) Remove(ctx context.Context) error {
	if err := c.remote.Remove(ctx, ""); err != nil {
		return fmt.Errorf("%w: remote tier %s: %v", ErrDeletion, c.id, err)
	}
	if err := c.local.Remove(ctx, ""); err != nil {
		return fmt.Errorf("%w: local tier %s (remote already cleared): %v", ErrDeletion, c.id, err)
	}
	return nil
}

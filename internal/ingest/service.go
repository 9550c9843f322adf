// Package ingest orchestrates the lifecycle of a document collection: write
// the caller's files into storage, enumerate the result into a manifest,
// hand the collection to the conversion and indexing collaborators, and only
// then persist the metadata record. Storage is the source of truth for
// manifest content; the metadata record is a cache of it, repaired through
// Reconcile after a partial failure.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/thinkoverit/jugalbandi/internal/collection"
	"github.com/thinkoverit/jugalbandi/internal/events"
	"github.com/thinkoverit/jugalbandi/internal/metadata"
	"github.com/thinkoverit/jugalbandi/internal/storage"
)

// ErrInternal is returned when the metadata repository fails after storage
// writes have already happened. No compensating storage rollback is
// performed; Reconcile repairs the record once the repository recovers.
var ErrInternal = errors.New("internal error")

// TextConverter derives a text artifact from one stored file. It reads the
// file from the collection's storage and writes the artifact back wherever
// it chooses; failures abort ingestion before any metadata is written.
type TextConverter interface {
	Textify(ctx context.Context, fileName string, col *collection.Collection) error
}

// Indexer builds an index artifact from a whole collection. Every configured
// indexer runs and every one must succeed before metadata is persisted.
type Indexer interface {
	Index(ctx context.Context, col *collection.Collection) error
}

// Service drives collection ingestion and deletion.
type Service struct {
	collections *collection.Repository
	records     metadata.Store
	converter   TextConverter
	indexers    []Indexer
	publisher   events.Publisher
	logger      *slog.Logger
}

// Option configures optional Service collaborators.
type Option func(*Service)

// WithPublisher sets the lifecycle event publisher. Publishing is best
// effort; a failed publish is logged, never surfaced to the caller.
func WithPublisher(p events.Publisher) Option {
	return func(s *Service) { s.publisher = p }
}

// WithLogger sets the service logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// NewService wires the orchestrator. converter and indexers are the external
// collaborators of the ingestion pipeline; pass the fakes from tests or the
// reference implementations for a runnable binary.
func NewService(collections *collection.Repository, records metadata.Store, converter TextConverter, indexers []Indexer, opts ...Option) *Service {
	s := &Service{
		collections: collections,
		records:     records,
		converter:   converter,
		indexers:    indexers,
		publisher:   events.NopPublisher{},
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateCollection allocates a fresh collection, ingests files into it and
// persists the new record, returning the record id.
func (s *Service) CreateCollection(ctx context.Context, name string, files []collection.SourceFile) (int64, error) {
	col := s.collections.New()

	manifest, err := s.ingest(ctx, col, files)
	if err != nil {
		return 0, err
	}

	recordID, err := s.records.Insert(ctx, name, col.ID(), manifest)
	if errors.Is(err, metadata.ErrDuplicateRecord) {
		return 0, err
	}
	if err != nil {
		return 0, fmt.Errorf("%w: persist record for collection %s: %v", ErrInternal, col.ID(), err)
	}

	s.logger.Info("collection created", "record_id", recordID, "identifier", col.ID(), "files", len(manifest))
	s.publish(ctx, events.SubjectCreated, recordID, col.ID(), manifest)
	return recordID, nil
}

// UpdateCollection replaces the collection's content with the given files.
// The storage namespace is cleared first so the resulting manifest is
// exactly the new file set, never a merge with earlier uploads.
// The record is resolved without its manifest so a collection reconciled to
// an empty manifest can still be refilled.
func (s *Service) UpdateCollection(ctx context.Context, recordID int64, files []collection.SourceFile) error {
	record, err := s.records.LookupByID(ctx, recordID)
	if err != nil {
		return err
	}
	col := s.collections.Get(record.Identifier)

	if err := col.Remove(ctx); err != nil {
		return err
	}

	manifest, err := s.ingest(ctx, col, files)
	if err != nil {
		return err
	}

	if err := s.records.Update(ctx, recordID, manifest); err != nil {
		return fmt.Errorf("%w: update record %d: %v", ErrInternal, recordID, err)
	}

	s.logger.Info("collection updated", "record_id", recordID, "identifier", col.ID(), "files", len(manifest))
	s.publish(ctx, events.SubjectUpdated, recordID, col.ID(), manifest)
	return nil
}

// DeleteCollection removes the collection's storage on both tiers and then
// deletes the record. Success requires the record deletion to report that a
// row was removed. Resolution skips the manifest join so empty collections
// remain deletable.
func (s *Service) DeleteCollection(ctx context.Context, recordID int64) error {
	record, err := s.records.LookupByID(ctx, recordID)
	if err != nil {
		return err
	}
	col := s.collections.Get(record.Identifier)

	if err := col.Remove(ctx); err != nil {
		return err
	}

	deleted, err := s.records.DeleteByID(ctx, recordID)
	if err != nil {
		return fmt.Errorf("%w: delete record %d: %v", ErrInternal, recordID, err)
	}
	if !deleted {
		return metadata.ErrRecordNotFound
	}

	s.logger.Info("collection deleted", "record_id", recordID, "identifier", col.ID())
	s.publish(ctx, events.SubjectDeleted, recordID, col.ID(), nil)
	return nil
}

// ListCollections returns every record with its manifest.
func (s *Service) ListCollections(ctx context.Context) ([]*metadata.Record, error) {
	return s.records.ListAll(ctx)
}

// Reconcile re-lists the collection's storage and re-issues a wholesale
// manifest update, repairing the metadata cache after a partial failure. A
// missing storage namespace reconciles to an empty manifest, and an already
// empty record can be reconciled again once storage reappears.
func (s *Service) Reconcile(ctx context.Context, recordID int64) error {
	record, err := s.records.LookupByID(ctx, recordID)
	if err != nil {
		return err
	}
	col := s.collections.Get(record.Identifier)

	manifest, err := col.ListFiles(ctx)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("%w: list collection %s: %v", collection.ErrIngestion, col.ID(), err)
	}

	if err := s.records.Update(ctx, recordID, manifest); err != nil {
		return fmt.Errorf("%w: reconcile record %d: %v", ErrInternal, recordID, err)
	}

	s.logger.Info("collection reconciled", "record_id", recordID, "identifier", col.ID(), "files", len(manifest))
	s.publish(ctx, events.SubjectUpdated, recordID, col.ID(), manifest)
	return nil
}

// ingest runs the storing, enumerating and delegating phases. The manifest
// is built by listing storage after the writes, before any collaborator
// runs, so a converter adding derived artifacts cannot widen it.
func (s *Service) ingest(ctx context.Context, col *collection.Collection, files []collection.SourceFile) ([]string, error) {
	if err := col.InitFromFiles(ctx, files); err != nil {
		return nil, err
	}

	manifest, err := col.ListFiles(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: enumerate collection %s: %v", collection.ErrIngestion, col.ID(), err)
	}

	for _, name := range manifest {
		if err := s.converter.Textify(ctx, name, col); err != nil {
			return nil, fmt.Errorf("%w: textify %s in collection %s: %v", collection.ErrIngestion, name, col.ID(), err)
		}
	}
	for _, indexer := range s.indexers {
		if err := indexer.Index(ctx, col); err != nil {
			return nil, fmt.Errorf("%w: index collection %s: %v", collection.ErrIngestion, col.ID(), err)
		}
	}
	return manifest, nil
}

func (s *Service) publish(ctx context.Context, subject string, recordID int64, identifier string, manifest []string) {
	if err := s.publisher.Publish(ctx, subject, events.CollectionEvent{
		RecordID:   recordID,
		Identifier: identifier,
		Files:      manifest,
	}); err != nil {
		s.logger.Warn("event publish failed", "subject", subject, "record_id", recordID, "error", err)
	}
}

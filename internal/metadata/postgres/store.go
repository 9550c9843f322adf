// Package postgres implements the metadata store on PostgreSQL through
// database/sql.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/thinkoverit/jugalbandi/internal/metadata"
)

// Store implements metadata.Store on a Postgres pool.
type Store struct {
	db *sql.DB
}

// NewStore creates a Postgres-backed metadata store.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// EnsureSchema creates the document and manifest tables if they don't exist.
// It is idempotent and runs once per pool creation.
func EnsureSchema(db *sql.DB) error {
	schema := `
CREATE TABLE IF NOT EXISTS document (
    id          BIGSERIAL PRIMARY KEY,
    name        TEXT NOT NULL,
    identifier  TEXT NOT NULL UNIQUE,
    created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS manifest (
    id          BIGSERIAL PRIMARY KEY,
    document_id BIGINT NOT NULL REFERENCES document(id) ON DELETE CASCADE,
    file_name   TEXT NOT NULL,
    created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_manifest_document ON manifest(document_id);
`
	_, err := db.Exec(schema)
	return err
}

func (s *Store) Insert(ctx context.Context, name, identifier string, manifest []string) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin insert: %w", err)
	}
	defer tx.Rollback()

	var recordID int64
	err = tx.QueryRowContext(ctx, `
		INSERT INTO document (name, identifier) VALUES ($1, $2) RETURNING id
	`, name, identifier).Scan(&recordID)
	if IsUniqueViolation(err) {
		return 0, fmt.Errorf("insert document %q: %w", name, metadata.ErrDuplicateRecord)
	}
	if err != nil {
		return 0, fmt.Errorf("insert document %q: %w", name, err)
	}

	if err := insertManifest(ctx, tx, recordID, manifest); err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit insert: %w", err)
	}
	return recordID, nil
}

func (s *Store) Update(ctx context.Context, recordID int64, manifest []string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin update: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM manifest WHERE document_id = $1`, recordID); err != nil {
		return fmt.Errorf("clear manifest for record %d: %w", recordID, err)
	}

	if err := insertManifest(ctx, tx, recordID, manifest); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit update: %w", err)
	}
	return nil
}

func (s *Store) FindByID(ctx context.Context, recordID int64) (*metadata.Record, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT d.id, d.name, d.identifier, d.created_at, m.file_name
		FROM document d
		JOIN manifest m ON m.document_id = d.id
		WHERE d.id = $1
	`, recordID)
	if err != nil {
		return nil, fmt.Errorf("find record %d: %w", recordID, err)
	}
	defer rows.Close()

	var record *metadata.Record
	for rows.Next() {
		var (
			r        metadata.Record
			fileName string
		)
		if err := rows.Scan(&r.ID, &r.Name, &r.Identifier, &r.CreatedAt, &fileName); err != nil {
			return nil, fmt.Errorf("scan record %d: %w", recordID, err)
		}
		if record == nil {
			record = &r
		}
		record.Files = append(record.Files, fileName)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read record %d: %w", recordID, err)
	}
	// A record without manifest rows is indistinguishable from a missing
	// record here; callers needing the difference check existence separately.
	if record == nil {
		return nil, metadata.ErrRecordNotFound
	}
	return record, nil
}

func (s *Store) LookupByID(ctx context.Context, recordID int64) (*metadata.Record, error) {
	var r metadata.Record
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, identifier, created_at FROM document WHERE id = $1
	`, recordID).Scan(&r.ID, &r.Name, &r.Identifier, &r.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, metadata.ErrRecordNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("lookup record %d: %w", recordID, err)
	}
	return &r, nil
}

func (s *Store) ListAll(ctx context.Context) ([]*metadata.Record, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT d.id, d.name, d.identifier, d.created_at, m.file_name
		FROM document d
		LEFT JOIN manifest m ON m.document_id = d.id
		ORDER BY d.id
	`)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	defer rows.Close()

	byID := make(map[int64]*metadata.Record)
	var records []*metadata.Record
	for rows.Next() {
		var (
			r        metadata.Record
			fileName sql.NullString
		)
		if err := rows.Scan(&r.ID, &r.Name, &r.Identifier, &r.CreatedAt, &fileName); err != nil {
			return nil, fmt.Errorf("scan records: %w", err)
		}
		record, ok := byID[r.ID]
		if !ok {
			record = &r
			byID[r.ID] = record
			records = append(records, record)
		}
		if fileName.Valid {
			record.Files = append(record.Files, fileName.String)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read records: %w", err)
	}

	sort.Slice(records, func(i, j int) bool { return records[i].ID < records[j].ID })
	return records, nil
}

func (s *Store) DeleteByID(ctx context.Context, recordID int64) (bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin delete: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM manifest WHERE document_id = $1`, recordID); err != nil {
		return false, fmt.Errorf("delete manifest for record %d: %w", recordID, err)
	}

	result, err := tx.ExecContext(ctx, `DELETE FROM document WHERE id = $1`, recordID)
	if err != nil {
		return false, fmt.Errorf("delete record %d: %w", recordID, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete record %d: %w", recordID, err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit delete: %w", err)
	}
	return affected == 1, nil
}

func insertManifest(ctx context.Context, tx *sql.Tx, recordID int64, manifest []string) error {
	for _, fileName := range manifest {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO manifest (document_id, file_name) VALUES ($1, $2)
		`, recordID, fileName)
		if err != nil {
			return fmt.Errorf("insert manifest entry %q for record %d: %w", fileName, recordID, err)
		}
	}
	return nil
}

// IsUniqueViolation reports whether err is a unique-constraint failure.
// Insert uses it to map duplicate identifiers to metadata.ErrDuplicateRecord.
func IsUniqueViolation(err error) bool {
	if err == nil || errors.Is(err, sql.ErrNoRows) {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "unique constraint") || strings.Contains(msg, "duplicate key") || strings.Contains(msg, "23505")
}

package storage

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/mattn/go-sqlite3"
)

// SQLiteDocumentStore implements DocumentStore on the documents table
type SQLiteDocumentStore struct {
	db     *sql.DB
	closer func() error
}

// NewSQLiteDocumentStore creates a store on an already migrated database.
// closer, if set, is called by Close.
func NewSQLiteDocumentStore(db *sql.DB, closer func() error) *SQLiteDocumentStore {
	return &SQLiteDocumentStore{db: db, closer: closer}
}

// wrapError classifies driver errors; busy and locked databases are retryable
func wrapError(op, key string, err error) error {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		if sqliteErr.Code == sqlite3.ErrBusy || sqliteErr.Code == sqlite3.ErrLocked {
			return NewStorageError(op, key, ErrStorageUnavailable, true)
		}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return NewStorageError(op, key, ErrTimeout, true)
	}
	return NewStorageError(op, key, err, false)
}

// Get implements DocumentStore.Get
func (s *SQLiteDocumentStore) Get(ctx context.Context, namespace, key string) (*Document, error) {
	if err := validateKey(namespace, key); err != nil {
		return nil, NewStorageError("Get", key, err, false)
	}

	doc := &Document{Namespace: namespace, Key: key}
	err := s.db.QueryRowContext(ctx,
		`SELECT body, version, updated_at FROM documents WHERE namespace = ? AND key = ? AND deleted = 0`,
		namespace, key,
	).Scan(&doc.Body, &doc.Version, &doc.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, NewStorageError("Get", key, ErrDocumentNotFound, false)
	}
	if err != nil {
		return nil, wrapError("Get", key, err)
	}

	return doc, nil
}

// Put implements DocumentStore.Put
func (s *SQLiteDocumentStore) Put(ctx context.Context, namespace, key string, body []byte, expectedVersion int64) (*Document, error) {
	if err := validateKey(namespace, key); err != nil {
		return nil, NewStorageError("Put", key, err, false)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, wrapError("Put", key, err)
	}
	defer tx.Rollback()

	// A deleted row keeps its version for the next write but counts as absent
	var current int64
	var deleted bool
	err = tx.QueryRowContext(ctx,
		`SELECT version, deleted FROM documents WHERE namespace = ? AND key = ?`,
		namespace, key,
	).Scan(&current, &deleted)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, wrapError("Put", key, err)
	}

	live := current
	if deleted {
		live = 0
	}
	if expectedVersion != AnyVersion && expectedVersion != live {
		return nil, NewStorageError("Put", key, ErrVersionConflict, false)
	}

	if body == nil {
		body = []byte{}
	}
	doc := &Document{
		Namespace: namespace,
		Key:       key,
		Body:      append([]byte(nil), body...),
		Version:   current + 1,
		UpdatedAt: time.Now().UTC(),
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO documents (namespace, key, body, version, updated_at, deleted) VALUES (?, ?, ?, ?, ?, 0)
		 ON CONFLICT (namespace, key) DO UPDATE SET body = excluded.body, version = excluded.version,
		 updated_at = excluded.updated_at, deleted = 0`,
		doc.Namespace, doc.Key, doc.Body, doc.Version, doc.UpdatedAt,
	)
	if err != nil {
		return nil, wrapError("Put", key, err)
	}

	if err := tx.Commit(); err != nil {
		return nil, wrapError("Put", key, err)
	}

	return doc, nil
}

// Delete implements DocumentStore.Delete
func (s *SQLiteDocumentStore) Delete(ctx context.Context, namespace, key string) (int64, error) {
	if err := validateKey(namespace, key); err != nil {
		return 0, NewStorageError("Delete", key, err, false)
	}

	var version int64
	err := s.db.QueryRowContext(ctx,
		`UPDATE documents SET deleted = 1, body = x'', updated_at = ?
		 WHERE namespace = ? AND key = ? AND deleted = 0 RETURNING version`,
		time.Now().UTC(), namespace, key,
	).Scan(&version)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, NewStorageError("Delete", key, ErrDocumentNotFound, false)
	}
	if err != nil {
		return 0, wrapError("Delete", key, err)
	}

	return version, nil
}

// List implements DocumentStore.List
func (s *SQLiteDocumentStore) List(ctx context.Context, namespace string, opts *ListOptions) (*ListResult, error) {
	if opts == nil {
		opts = &ListOptions{}
	}

	query := `SELECT key, body, version, updated_at FROM documents
		WHERE namespace = ? AND deleted = 0 AND key > ? AND substr(key, 1, ?) = ?
		ORDER BY key`
	args := []interface{}{namespace, opts.Marker, len(opts.Prefix), opts.Prefix}
	if opts.MaxResults > 0 {
		query += ` LIMIT ?`
		args = append(args, opts.MaxResults+1)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, wrapError("List", opts.Prefix, err)
	}
	defer rows.Close()

	result := &ListResult{Documents: []Document{}}
	for rows.Next() {
		if opts.MaxResults > 0 && len(result.Documents) >= opts.MaxResults {
			result.IsTruncated = true
			result.NextMarker = result.Documents[len(result.Documents)-1].Key
			break
		}

		doc := Document{Namespace: namespace}
		if err := rows.Scan(&doc.Key, &doc.Body, &doc.Version, &doc.UpdatedAt); err != nil {
			return nil, wrapError("List", opts.Prefix, err)
		}
		result.Documents = append(result.Documents, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapError("List", opts.Prefix, err)
	}

	return result, nil
}

// Close implements DocumentStore.Close
func (s *SQLiteDocumentStore) Close() error {
	if s.closer != nil {
		return s.closer()
	}
	return nil
}

var _ DocumentStore = (*SQLiteDocumentStore)(nil)

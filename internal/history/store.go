package history

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"cadence/internal/content"
)

//go:embed schema.sql
var schemaSQL string

// schemaVersion is the current schema version. Bump this when the schema changes.
const schemaVersion = 1

// ErrSchemaMismatch indicates the database schema version doesn't match the expected version.
var ErrSchemaMismatch = errors.New("schema version mismatch")

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond

	timestampLayout = "2006-01-02T15:04:05.000000000Z07:00"
)

// Store is the SQLite-backed posting history.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the history database at path.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("ensure history directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: path}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Path returns the database location.
func (s *Store) Path() string {
	return s.path
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) initSchema(ctx context.Context) error {
	var tableExists int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	).Scan(&tableExists)
	if err != nil {
		return fmt.Errorf("check schema_version table: %w", err)
	}
	if tableExists == 0 {
		return s.createSchema(ctx)
	}

	var version int
	if err := s.db.QueryRowContext(ctx, "SELECT version FROM schema_version LIMIT 1").Scan(&version); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if version != schemaVersion {
		return fmt.Errorf("%w: database has version %d, expected %d", ErrSchemaMismatch, version, schemaVersion)
	}
	return nil
}

func (s *Store) createSchema(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "INSERT INTO schema_version (version) VALUES (?)", schemaVersion); err != nil {
		return fmt.Errorf("record schema version: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema: %w", err)
	}
	return nil
}

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code() == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

func retryOnBusy(ctx context.Context, op func() error) error {
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !isSQLiteBusy(lastErr) || attempt == busyRetryAttempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		if next := delay * 2; next <= busyRetryMaxBackoff {
			delay = next
		}
	}
	return lastErr
}

// Append inserts a record and returns it with its assigned id.
func (s *Store) Append(ctx context.Context, record Record) (Record, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := record.validate(); err != nil {
		return Record{}, err
	}
	var res sql.Result
	err := retryOnBusy(ctx, func() error {
		var execErr error
		res, execErr = s.db.ExecContext(ctx,
			`INSERT INTO posting_history
				(destination_id, content_id, content_type, posting_id, remote_post_id, outcome, error, recorded_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			record.DestinationID,
			record.ContentID,
			string(record.ContentType),
			record.PostingID,
			record.RemotePostID,
			string(record.Outcome),
			record.Error,
			record.Timestamp.UTC().Format(timestampLayout),
		)
		return execErr
	})
	if err != nil {
		return Record{}, fmt.Errorf("append history record: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return Record{}, fmt.Errorf("history record id: %w", err)
	}
	record.ID = id
	return record, nil
}

// Records returns matching records oldest first. With a Limit, the newest
// Limit records are returned.
func (s *Store) Records(ctx context.Context, query Query) ([]Record, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	var (
		clauses []string
		args    []any
	)
	if query.DestinationID != "" {
		clauses = append(clauses, "destination_id = ?")
		args = append(args, query.DestinationID)
	}
	if query.ContentID != "" {
		clauses = append(clauses, "content_id = ?")
		args = append(args, query.ContentID)
	}
	if query.Outcome != "" {
		clauses = append(clauses, "outcome = ?")
		args = append(args, string(query.Outcome))
	}
	if !query.Since.IsZero() {
		clauses = append(clauses, "recorded_at >= ?")
		args = append(args, query.Since.UTC().Format(timestampLayout))
	}

	stmt := `SELECT id, destination_id, content_id, content_type, posting_id, remote_post_id, outcome, error, recorded_at
		FROM posting_history`
	if len(clauses) > 0 {
		stmt += " WHERE " + strings.Join(clauses, " AND ")
	}
	stmt += " ORDER BY recorded_at DESC, id DESC"
	if query.Limit > 0 {
		stmt += " LIMIT ?"
		args = append(args, query.Limit)
	}

	rows, err := s.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var (
			r           Record
			contentType string
			outcome     string
			recordedAt  string
		)
		if err := rows.Scan(&r.ID, &r.DestinationID, &r.ContentID, &contentType, &r.PostingID, &r.RemotePostID, &outcome, &r.Error, &recordedAt); err != nil {
			return nil, fmt.Errorf("scan history row: %w", err)
		}
		r.ContentType = content.Type(contentType)
		r.Outcome = Outcome(outcome)
		ts, err := time.Parse(timestampLayout, recordedAt)
		if err != nil {
			return nil, fmt.Errorf("parse history timestamp %q: %w", recordedAt, err)
		}
		r.Timestamp = ts
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history rows: %w", err)
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

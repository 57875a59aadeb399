// Package sqlite keeps session documents in an embedded SQLite database
// (modernc.org/sqlite, no cgo).
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/aretw0/ironflow/pkg/codec"
	"github.com/aretw0/ironflow/pkg/domain"
	_ "modernc.org/sqlite"
)

// DefaultTable holds the documents unless WithTable says otherwise.
const DefaultTable = "sessions"

// Store implements ports.SessionStore on SQLite.
type Store struct {
	db    *sql.DB
	codec *codec.Serializer
	table string
}

// Option configures a Store.
type Option func(*Store)

// WithSerializer sets the document encoding.
func WithSerializer(c *codec.Serializer) Option {
	return func(s *Store) { s.codec = c }
}

// WithTable overrides the table name. Names other than letters, digits and
// underscores are ignored.
func WithTable(name string) Option {
	return func(s *Store) {
		if isSafeIdent(name) {
			s.table = name
		}
	}
}

func isSafeIdent(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if (c < 'a' || c > 'z') && (c < 'A' || c > 'Z') && (c < '0' || c > '9') && c != '_' {
			return false
		}
	}
	return true
}

// Open opens (or creates) the database at path and prepares the table.
func Open(ctx context.Context, path string, opts ...Option) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	db.SetMaxOpenConns(1)
	s, err := New(ctx, db, opts...)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// New wraps an open database and creates the table if needed.
func New(ctx context.Context, db *sql.DB, opts ...Option) (*Store, error) {
	s := &Store{db: db, codec: codec.Default(), table: DefaultTable}
	for _, opt := range opts {
		opt(s)
	}
	if err := s.createTable(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) createTable(ctx context.Context) error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			codec TEXT NOT NULL,
			document BLOB NOT NULL,
			updated_at INTEGER NOT NULL
		)`, s.table)
	if _, err := s.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to create table %s: %w", s.table, err)
	}
	return nil
}

// Save inserts or replaces a document.
func (s *Store) Save(ctx context.Context, sessionID string, doc *domain.Document) error {
	data, err := s.codec.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to encode document: %w", err)
	}
	query := fmt.Sprintf(`INSERT OR REPLACE INTO %s (id, title, codec, document, updated_at) VALUES (?, ?, ?, ?, ?)`, s.table)
	if _, err := s.db.ExecContext(ctx, query, sessionID, doc.Title, s.codec.Codec.Name(), data, time.Now().Unix()); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// Load reads a document.
func (s *Store) Load(ctx context.Context, sessionID string) (*domain.Document, error) {
	var data []byte
	query := fmt.Sprintf(`SELECT document FROM %s WHERE id = ?`, s.table)
	if err := s.db.QueryRowContext(ctx, query, sessionID).Scan(&data); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	var doc domain.Document
	if err := s.codec.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode document: %w", err)
	}
	return &doc, nil
}

// Delete removes a document. Missing sessions are not an error.
func (s *Store) Delete(ctx context.Context, sessionID string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = ?`, s.table)
	if _, err := s.db.ExecContext(ctx, query, sessionID); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// List returns all session IDs ordered by ID.
func (s *Store) List(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`SELECT id FROM %s ORDER BY id`, s.table))
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan session id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Close closes the database.
func (s *Store) Close() error { return s.db.Close() }

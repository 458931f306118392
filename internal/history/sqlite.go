package history

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// SQLiteStore implements Store using SQLite for persistence
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLiteStore creates a new SQLite-backed export journal
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	// Ensure directory exists
	dir := filepath.Dir(dbPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath+"?_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// SQLite works best with a single writer
	db.SetMaxOpenConns(1)

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS exports (
			id TEXT PRIMARY KEY,
			source_name TEXT NOT NULL,
			target TEXT NOT NULL,
			path TEXT,
			format TEXT NOT NULL,
			strength INTEGER NOT NULL,
			width INTEGER NOT NULL,
			height INTEGER NOT NULL,
			created_at DATETIME NOT NULL
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create exports table: %w", err)
	}

	_, err = db.Exec(`CREATE INDEX IF NOT EXISTS exports_created_at ON exports (created_at)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create exports index: %w", err)
	}

	return &SQLiteStore{db: db, now: time.Now}, nil
}

// Add records an export
func (s *SQLiteStore) Add(e *Export) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = s.now()
	}
	// Stored as text, so a single zone keeps ORDER BY chronological.
	e.CreatedAt = e.CreatedAt.UTC()

	_, err := s.db.Exec(`
		INSERT INTO exports (id, source_name, target, path, format, strength, width, height, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, e.ID, e.SourceName, string(e.Target), e.Path, e.Format, e.Strength, e.Width, e.Height, e.CreatedAt)

	if err != nil {
		return fmt.Errorf("add export: %w", err)
	}
	return nil
}

// Recent returns up to limit exports, newest first
func (s *SQLiteStore) Recent(limit int) ([]Export, error) {
	rows, err := s.db.Query(`
		SELECT id, source_name, target, path, format, strength, width, height, created_at
		FROM exports ORDER BY created_at DESC, rowid DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query exports: %w", err)
	}
	defer rows.Close()

	var exports []Export
	for rows.Next() {
		e, err := scanExport(rows)
		if err != nil {
			return nil, err
		}
		exports = append(exports, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate exports: %w", err)
	}
	return exports, nil
}

// Get retrieves an export by ID
func (s *SQLiteStore) Get(id string) (*Export, error) {
	row := s.db.QueryRow(`
		SELECT id, source_name, target, path, format, strength, width, height, created_at
		FROM exports WHERE id = ?
	`, id)

	e, err := scanExport(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return e, err
}

// Close releases database resources
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanExport(row scanner) (*Export, error) {
	var e Export
	var target string
	var path sql.NullString

	err := row.Scan(
		&e.ID,
		&e.SourceName,
		&target,
		&path,
		&e.Format,
		&e.Strength,
		&e.Width,
		&e.Height,
		&e.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("scan export: %w", err)
	}

	e.Target = Target(target)
	e.Path = path.String
	return &e, nil
}

package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/meshspace/meshspace-server/internal/directory"
)

const schema = `
CREATE TABLE IF NOT EXISTS spaces (
	id     TEXT PRIMARY KEY,
	name   TEXT NOT NULL DEFAULT '',
	width  INTEGER NOT NULL,
	height INTEGER NOT NULL
);
`

// Store implements directory.Directory over the space table maintained by
// the upstream CRUD service. It also supports inserts for local tooling.
type Store struct {
	db *sql.DB
}

// New opens (and if needed initializes) the sqlite database at dbPath.
func New(dbPath string) (*Store, error) {
	return NewWithSetup(dbPath, nil)
}

// NewWithSetup opens the database and runs an extra setup function after the
// schema is applied. Useful for tests to seed rows without the CLI.
func NewWithSetup(dbPath string, setup func(*sql.DB) error) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// SQLite works best with a single connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	if setup != nil {
		if err := setup(db); err != nil {
			db.Close()
			return nil, fmt.Errorf("setup: %w", err)
		}
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	return &Store{db: db}, nil
}

// Lookup implements directory.Directory.
func (s *Store) Lookup(ctx context.Context, spaceID string) (*directory.Space, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, width, height FROM spaces WHERE id = ?`, spaceID)

	var sp directory.Space
	if err := row.Scan(&sp.ID, &sp.Name, &sp.Width, &sp.Height); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, directory.ErrNotFound
		}
		return nil, fmt.Errorf("query space: %w", err)
	}
	return &sp, nil
}

// CreateSpace inserts a space row. An empty id gets a generated one.
// Returns the stored space.
func (s *Store) CreateSpace(ctx context.Context, id, name string, width, height int) (*directory.Space, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid bounds %dx%d", width, height)
	}
	if id == "" {
		id = uuid.NewString()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO spaces (id, name, width, height) VALUES (?, ?, ?, ?)`,
		id, name, width, height)
	if err != nil {
		return nil, fmt.Errorf("insert space: %w", err)
	}

	return &directory.Space{ID: id, Name: name, Width: width, Height: height}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

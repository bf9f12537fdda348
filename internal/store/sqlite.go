package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joescharf/bugtrack/internal/models"

	_ "modernc.org/sqlite"
)

// SQLiteStore implements Store using modernc.org/sqlite (pure Go, no CGO).
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) a SQLite database at the given path.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dbPath == "" {
		dbPath = "bugtrack.db"
	}

	// Ensure parent directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// SQLite only supports one concurrent writer. Limiting to a single connection
	// serializes all DB access through Go's connection pool, preventing
	// "database is locked" errors from concurrent HTTP requests.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("%s: %w", p, err)
		}
	}

	return &SQLiteStore{db: db}, nil
}

// Migrate runs all embedded SQLite migration files in order.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	return migrate(ctx, s.db, "sqlite", func(int) string { return "?" })
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

const bugColumns = `id, title, description, status, created_at`

func (s *SQLiteStore) CreateBug(ctx context.Context, bug *models.Bug) error {
	prepareNew(bug)

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO bugs (`+bugColumns+`) VALUES (?, ?, ?, ?, ?)`,
		string(bug.ID), bug.Title, bug.Description, string(bug.Status), bug.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("create bug: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetBug(ctx context.Context, id models.BugID) (*models.Bug, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+bugColumns+` FROM bugs WHERE id = ?`, string(id))
	bug, err := scanBug(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", models.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get bug: %w", err)
	}
	return bug, nil
}

func (s *SQLiteStore) ListBugs(ctx context.Context) ([]*models.Bug, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+bugColumns+` FROM bugs ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list bugs: %w", err)
	}
	return collectBugs(rows)
}

func (s *SQLiteStore) UpdateBug(ctx context.Context, bug *models.Bug) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE bugs SET title=?, description=?, status=? WHERE id=?`,
		bug.Title, bug.Description, string(bug.Status), string(bug.ID),
	)
	if err != nil {
		return fmt.Errorf("update bug: %w", err)
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return fmt.Errorf("%w: %s", models.ErrNotFound, bug.ID)
	}

	var createdAt time.Time
	err = s.db.QueryRowContext(ctx, "SELECT created_at FROM bugs WHERE id = ?", string(bug.ID)).Scan(&createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %s", models.ErrNotFound, bug.ID)
	}
	if err != nil {
		return fmt.Errorf("update bug: %w", err)
	}
	bug.CreatedAt = createdAt.UTC()
	return nil
}

func (s *SQLiteStore) DeleteBug(ctx context.Context, id models.BugID) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM bugs WHERE id = ?", string(id))
	if err != nil {
		return fmt.Errorf("delete bug: %w", err)
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return fmt.Errorf("%w: %s", models.ErrNotFound, id)
	}
	return nil
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanBug(row rowScanner) (*models.Bug, error) {
	bug := &models.Bug{}
	var id, status string
	if err := row.Scan(&id, &bug.Title, &bug.Description, &status, &bug.CreatedAt); err != nil {
		return nil, err
	}
	bug.ID = models.BugID(id)
	bug.Status = models.BugStatus(status)
	bug.CreatedAt = bug.CreatedAt.UTC()
	return bug, nil
}

func collectBugs(rows *sql.Rows) ([]*models.Bug, error) {
	defer func() { _ = rows.Close() }()

	bugs := []*models.Bug{}
	for rows.Next() {
		bug, err := scanBug(rows)
		if err != nil {
			return nil, fmt.Errorf("scan bug: %w", err)
		}
		bugs = append(bugs, bug)
	}
	return bugs, rows.Err()
}

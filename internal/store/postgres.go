package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/joescharf/bugtrack/internal/models"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as a database/sql driver
)

const defaultPostgresDSN = "postgres://localhost/bugtrack?sslmode=disable"

// PostgresStore implements Store on PostgreSQL through pgx's database/sql driver.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore connects to dsn (falls back to a local default) and verifies
// the connection.
func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	if dsn == "" {
		dsn = defaultPostgresDSN
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return &PostgresStore{db: db}, nil
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	return migrate(ctx, s.db, "postgres", func(n int) string { return "$" + strconv.Itoa(n) })
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}

// DB exposes the underlying sql.DB for integration test cleanup.
func (s *PostgresStore) DB() *sql.DB { return s.db }

func (s *PostgresStore) CreateBug(ctx context.Context, bug *models.Bug) error {
	prepareNew(bug)

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO bugs (`+bugColumns+`) VALUES ($1, $2, $3, $4, $5)`,
		string(bug.ID), bug.Title, bug.Description, string(bug.Status), bug.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("create bug: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetBug(ctx context.Context, id models.BugID) (*models.Bug, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+bugColumns+` FROM bugs WHERE id = $1`, string(id))
	bug, err := scanBug(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", models.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get bug: %w", err)
	}
	return bug, nil
}

func (s *PostgresStore) ListBugs(ctx context.Context) ([]*models.Bug, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+bugColumns+` FROM bugs ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list bugs: %w", err)
	}
	return collectBugs(rows)
}

func (s *PostgresStore) UpdateBug(ctx context.Context, bug *models.Bug) error {
	row := s.db.QueryRowContext(ctx,
		`UPDATE bugs SET title=$1, description=$2, status=$3 WHERE id=$4 RETURNING created_at`,
		bug.Title, bug.Description, string(bug.Status), string(bug.ID),
	)
	var createdAt time.Time
	err := row.Scan(&createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %s", models.ErrNotFound, bug.ID)
	}
	if err != nil {
		return fmt.Errorf("update bug: %w", err)
	}
	bug.CreatedAt = createdAt.UTC()
	return nil
}

func (s *PostgresStore) DeleteBug(ctx context.Context, id models.BugID) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM bugs WHERE id = $1", string(id))
	if err != nil {
		return fmt.Errorf("delete bug: %w", err)
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return fmt.Errorf("%w: %s", models.ErrNotFound, id)
	}
	return nil
}

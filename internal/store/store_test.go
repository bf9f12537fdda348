package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joescharf/bugtrack/internal/models"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "test.db")

	s, err := NewSQLiteStore(dbPath)
	require.NoError(t, err)

	err = s.Migrate(context.Background())
	require.NoError(t, err)

	t.Cleanup(func() { s.Close() })
	return s
}

// backends returns every store the current environment can run. Postgres and
// Redis join only when their test addresses are exported.
func backends(t *testing.T) map[string]Store {
	t.Helper()
	ctx := context.Background()

	badgerStore, err := NewBadgerStore("")
	require.NoError(t, err)
	t.Cleanup(func() { badgerStore.Close() })

	out := map[string]Store{
		"memory": NewMemoryStore(),
		"sqlite": newTestStore(t),
		"badger": badgerStore,
	}

	if dsn := os.Getenv("BUGTRACK_TEST_POSTGRES_DSN"); dsn != "" {
		pg, err := NewPostgresStore(ctx, dsn)
		require.NoError(t, err)
		require.NoError(t, pg.Migrate(ctx))
		_, err = pg.DB().ExecContext(ctx, "TRUNCATE bugs")
		require.NoError(t, err)
		t.Cleanup(func() { pg.Close() })
		out["postgres"] = pg
	}

	if addr := os.Getenv("BUGTRACK_TEST_REDIS_ADDR"); addr != "" {
		client := redis.NewClient(&redis.Options{Addr: addr, DB: 15})
		require.NoError(t, client.FlushDB(ctx).Err())
		rs := NewRedisStoreFromClient(client)
		t.Cleanup(func() {
			_ = client.FlushDB(context.Background()).Err()
			rs.Close()
		})
		out["redis"] = rs
	}

	return out
}

func TestNewSQLiteStore_CreatesDirectory(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "subdir", "test.db")

	s, err := NewSQLiteStore(dbPath)
	require.NoError(t, err)
	defer s.Close()

	_, err = os.Stat(filepath.Join(dir, "subdir"))
	assert.NoError(t, err, "should create parent directory")
}

func TestMigrate_Idempotent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	// Running migrate again should be a no-op
	err := s.Migrate(ctx)
	assert.NoError(t, err)
}

func TestOpen_SelectsDriver(t *testing.T) {
	ctx := context.Background()

	s, err := Open(ctx, Config{Driver: DriverMemory})
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, s)
	require.NoError(t, s.Close())

	s, err = Open(ctx, Config{Driver: DriverSQLite, SQLitePath: filepath.Join(t.TempDir(), "bugs.db")})
	require.NoError(t, err)
	assert.IsType(t, &SQLiteStore{}, s)
	require.NoError(t, s.Close())

	s, err = Open(ctx, Config{Driver: DriverBadger, BadgerPath: filepath.Join(t.TempDir(), "badger")})
	require.NoError(t, err)
	assert.IsType(t, &BadgerStore{}, s)
	require.NoError(t, s.Close())

	_, err = Open(ctx, Config{Driver: "mongo"})
	assert.ErrorContains(t, err, "unknown store driver")
}

func TestBugCRUD(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			bug := &models.Bug{Title: "Crash on save", Description: "stack trace attached"}
			require.NoError(t, s.CreateBug(ctx, bug))
			assert.NotEmpty(t, bug.ID)
			assert.False(t, bug.CreatedAt.IsZero())
			assert.Equal(t, models.BugStatusOpen, bug.Status)

			got, err := s.GetBug(ctx, bug.ID)
			require.NoError(t, err)
			assert.Equal(t, bug.ID, got.ID)
			assert.Equal(t, "Crash on save", got.Title)
			assert.Equal(t, "stack trace attached", got.Description)
			assert.Equal(t, models.BugStatusOpen, got.Status)
			assert.True(t, bug.CreatedAt.Equal(got.CreatedAt), "createdAt %v != %v", bug.CreatedAt, got.CreatedAt)

			got.Title = "Crash on save (macOS)"
			got.Status = models.BugStatusInProgress
			require.NoError(t, s.UpdateBug(ctx, got))

			got2, err := s.GetBug(ctx, bug.ID)
			require.NoError(t, err)
			assert.Equal(t, "Crash on save (macOS)", got2.Title)
			assert.Equal(t, models.BugStatusInProgress, got2.Status)
			assert.Equal(t, "stack trace attached", got2.Description)
			assert.True(t, bug.CreatedAt.Equal(got2.CreatedAt))

			require.NoError(t, s.DeleteBug(ctx, bug.ID))

			_, err = s.GetBug(ctx, bug.ID)
			assert.ErrorIs(t, err, models.ErrNotFound)
		})
	}
}

func TestBugNotFound(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			missing := models.BugID("01HZZZZZZZZZZZZZZZZZZZZZZZ")

			_, err := s.GetBug(ctx, missing)
			assert.ErrorIs(t, err, models.ErrNotFound)

			err = s.UpdateBug(ctx, &models.Bug{ID: missing, Title: "x", Status: models.BugStatusOpen})
			assert.ErrorIs(t, err, models.ErrNotFound)

			err = s.DeleteBug(ctx, missing)
			assert.ErrorIs(t, err, models.ErrNotFound)
		})
	}
}

func TestDeleteTwice(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			bug := &models.Bug{Title: "Flaky test"}
			require.NoError(t, s.CreateBug(ctx, bug))

			require.NoError(t, s.DeleteBug(ctx, bug.ID))
			assert.ErrorIs(t, s.DeleteBug(ctx, bug.ID), models.ErrNotFound)
		})
	}
}

func TestListBugs_NewestFirst(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			bugs, err := s.ListBugs(ctx)
			require.NoError(t, err)
			assert.NotNil(t, bugs)
			assert.Empty(t, bugs)

			var created []models.BugID
			for _, title := range []string{"first", "second", "third"} {
				b := &models.Bug{Title: title}
				require.NoError(t, s.CreateBug(ctx, b))
				created = append(created, b.ID)
			}

			bugs, err = s.ListBugs(ctx)
			require.NoError(t, err)
			require.Len(t, bugs, 3)
			assert.Equal(t, created[2], bugs[0].ID)
			assert.Equal(t, created[1], bugs[1].ID)
			assert.Equal(t, created[0], bugs[2].ID)

			// Updates must not reorder
			bugs[2].Title = "first (edited)"
			require.NoError(t, s.UpdateBug(ctx, bugs[2]))

			bugs, err = s.ListBugs(ctx)
			require.NoError(t, err)
			require.Len(t, bugs, 3)
			assert.Equal(t, created[0], bugs[2].ID)
			assert.Equal(t, "first (edited)", bugs[2].Title)

			require.NoError(t, s.DeleteBug(ctx, created[1]))
			bugs, err = s.ListBugs(ctx)
			require.NoError(t, err)
			assert.Len(t, bugs, 2)
		})
	}
}

func TestCreateBug_DuplicateIDLeavesRecordAndOrder(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			first := &models.Bug{Title: "first"}
			require.NoError(t, s.CreateBug(ctx, first))
			time.Sleep(2 * time.Millisecond)
			second := &models.Bug{Title: "second"}
			require.NoError(t, s.CreateBug(ctx, second))
			time.Sleep(2 * time.Millisecond)

			dup := &models.Bug{ID: first.ID, Title: "impostor"}
			assert.Error(t, s.CreateBug(ctx, dup))

			got, err := s.GetBug(ctx, first.ID)
			require.NoError(t, err)
			assert.Equal(t, "first", got.Title)
			assert.True(t, first.CreatedAt.Equal(got.CreatedAt))

			bugs, err := s.ListBugs(ctx)
			require.NoError(t, err)
			require.Len(t, bugs, 2)
			assert.Equal(t, second.ID, bugs[0].ID)
			assert.Equal(t, first.ID, bugs[1].ID)
		})
	}
}

func TestUpdateBug_KeepsImmutableFields(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			bug := &models.Bug{Title: "Typo in header"}
			require.NoError(t, s.CreateBug(ctx, bug))
			created := bug.CreatedAt

			edit := &models.Bug{ID: bug.ID, Title: "Typo in footer", Status: models.BugStatusClosed}
			require.NoError(t, s.UpdateBug(ctx, edit))
			assert.True(t, created.Equal(edit.CreatedAt), "UpdateBug should report the stored createdAt")

			got, err := s.GetBug(ctx, bug.ID)
			require.NoError(t, err)
			assert.True(t, created.Equal(got.CreatedAt))
			assert.Equal(t, models.BugStatusClosed, got.Status)
		})
	}
}

func TestSQLiteRejectsBlankTitle(t *testing.T) {
	s := newTestStore(t)
	err := s.CreateBug(context.Background(), &models.Bug{Title: "   "})
	assert.Error(t, err, "schema check should reject blank titles")
}

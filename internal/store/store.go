//go:generate go run go.uber.org/mock/mockgen -source=store.go -destination=mocks/mock_store.go -package=mocks
package store

import (
	"context"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/joescharf/bugtrack/internal/models"
)

// Store defines the persistence interface for bug records.
//
// Implementations assign ID and CreatedAt in CreateBug, return errors wrapping
// models.ErrNotFound for unknown ids, and list bugs newest first.
type Store interface {
	CreateBug(ctx context.Context, bug *models.Bug) error
	GetBug(ctx context.Context, id models.BugID) (*models.Bug, error)
	ListBugs(ctx context.Context) ([]*models.Bug, error)
	// UpdateBug persists title, description and status. ID and CreatedAt are never written.
	UpdateBug(ctx context.Context, bug *models.Bug) error
	DeleteBug(ctx context.Context, id models.BugID) error

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

// newBugID generates a new ULID-backed bug id. ULIDs from one process are
// monotonic, which gives a stable tie-break for bugs created in the same millisecond.
func newBugID() models.BugID {
	return models.BugID(ulid.Make().String())
}

// now returns the creation timestamp every backend stores: UTC, millisecond precision.
func now() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}

// prepareNew fills the store-assigned fields of a bug about to be inserted.
func prepareNew(bug *models.Bug) {
	if bug.ID == "" {
		bug.ID = newBugID()
	}
	bug.CreatedAt = now()
	if bug.Status == "" {
		bug.Status = models.BugStatusOpen
	}
}

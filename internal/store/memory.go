package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/joescharf/bugtrack/internal/models"
)

// MemoryStore keeps bugs in a process-local map. Nothing survives Close.
type MemoryStore struct {
	mu   sync.RWMutex
	bugs map[models.BugID]models.Bug
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{bugs: make(map[models.BugID]models.Bug)}
}

func (s *MemoryStore) Migrate(context.Context) error { return nil }

func (s *MemoryStore) Close() error { return nil }

func (s *MemoryStore) CreateBug(_ context.Context, bug *models.Bug) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prepareNew(bug)
	if _, exists := s.bugs[bug.ID]; exists {
		return fmt.Errorf("create bug: duplicate id %s", bug.ID)
	}
	s.bugs[bug.ID] = *bug
	return nil
}

func (s *MemoryStore) GetBug(_ context.Context, id models.BugID) (*models.Bug, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, ok := s.bugs[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", models.ErrNotFound, id)
	}
	return &b, nil
}

func (s *MemoryStore) ListBugs(context.Context) ([]*models.Bug, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	bugs := make([]*models.Bug, 0, len(s.bugs))
	for _, b := range s.bugs {
		bugs = append(bugs, &b)
	}
	sortNewestFirst(bugs)
	return bugs, nil
}

func (s *MemoryStore) UpdateBug(_ context.Context, bug *models.Bug) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.bugs[bug.ID]
	if !ok {
		return fmt.Errorf("%w: %s", models.ErrNotFound, bug.ID)
	}
	existing.Title = bug.Title
	existing.Description = bug.Description
	existing.Status = bug.Status
	s.bugs[bug.ID] = existing
	bug.CreatedAt = existing.CreatedAt
	return nil
}

func (s *MemoryStore) DeleteBug(_ context.Context, id models.BugID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.bugs[id]; !ok {
		return fmt.Errorf("%w: %s", models.ErrNotFound, id)
	}
	delete(s.bugs, id)
	return nil
}

// sortNewestFirst orders by CreatedAt descending, then by id descending.
func sortNewestFirst(bugs []*models.Bug) {
	sort.SliceStable(bugs, func(i, j int) bool {
		if !bugs[i].CreatedAt.Equal(bugs[j].CreatedAt) {
			return bugs[i].CreatedAt.After(bugs[j].CreatedAt)
		}
		return bugs[i].ID > bugs[j].ID
	})
}

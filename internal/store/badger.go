package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"

	"github.com/joescharf/bugtrack/internal/models"
)

// BadgerStore keeps bugs in an embedded badger directory.
//
// Records live under "bug:{id}". A value-less index key
// "idx:{created_ms_padded}:{id}" exists per bug; the 19-digit zero padding makes
// lexicographic key order chronological, so a reverse prefix scan lists newest first.
type BadgerStore struct {
	db *badger.DB
}

const badgerIndexPrefix = "idx:"

// NewBadgerStore opens (or creates) a badger database in dir. An empty dir opens
// an in-memory instance.
func NewBadgerStore(dir string) (*BadgerStore, error) {
	opts := badger.DefaultOptions(dir).WithLoggingLevel(badger.WARNING)
	if dir == "" {
		opts = opts.WithInMemory(true)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger: %w", err)
	}
	return &BadgerStore{db: db}, nil
}

func (s *BadgerStore) Migrate(context.Context) error { return nil }

func (s *BadgerStore) Close() error { return s.db.Close() }

func badgerBugKey(id models.BugID) []byte {
	return []byte("bug:" + string(id))
}

func badgerIndexKey(bug *models.Bug) []byte {
	return fmt.Appendf(nil, "%s%019d:%s", badgerIndexPrefix, bug.CreatedAt.UnixMilli(), bug.ID)
}

func (s *BadgerStore) CreateBug(_ context.Context, bug *models.Bug) error {
	prepareNew(bug)
	data, err := json.Marshal(bug)
	if err != nil {
		return fmt.Errorf("encode bug: %w", err)
	}
	err = s.db.Update(func(txn *badger.Txn) error {
		_, err := txn.Get(badgerBugKey(bug.ID))
		switch {
		case err == nil:
			return fmt.Errorf("duplicate id %s", bug.ID)
		case !errors.Is(err, badger.ErrKeyNotFound):
			return err
		}
		if err := txn.Set(badgerBugKey(bug.ID), data); err != nil {
			return err
		}
		return txn.Set(badgerIndexKey(bug), nil)
	})
	if err != nil {
		return fmt.Errorf("create bug: %w", err)
	}
	return nil
}

func (s *BadgerStore) GetBug(_ context.Context, id models.BugID) (*models.Bug, error) {
	var bug *models.Bug
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		bug, err = badgerRead(txn, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return bug, nil
}

func (s *BadgerStore) ListBugs(_ context.Context) ([]*models.Bug, error) {
	bugs := []*models.Bug{}
	err := s.db.View(func(txn *badger.Txn) error {
		prefix := []byte(badgerIndexPrefix)
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		// Start past the largest possible index key and walk backwards.
		for it.Seek(append(prefix, 0xFF)); it.ValidForPrefix(prefix); it.Next() {
			key := it.Item().Key()
			// idx: + 19 digits + ':' precede the id
			id := models.BugID(key[len(prefix)+20:])
			bug, err := badgerRead(txn, id)
			if err != nil {
				return err
			}
			bugs = append(bugs, bug)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list bugs: %w", err)
	}
	return bugs, nil
}

func (s *BadgerStore) UpdateBug(_ context.Context, bug *models.Bug) error {
	return s.db.Update(func(txn *badger.Txn) error {
		existing, err := badgerRead(txn, bug.ID)
		if err != nil {
			return err
		}
		existing.Title = bug.Title
		existing.Description = bug.Description
		existing.Status = bug.Status
		data, err := json.Marshal(existing)
		if err != nil {
			return fmt.Errorf("encode bug: %w", err)
		}
		if err := txn.Set(badgerBugKey(bug.ID), data); err != nil {
			return fmt.Errorf("update bug: %w", err)
		}
		bug.CreatedAt = existing.CreatedAt
		return nil
	})
}

func (s *BadgerStore) DeleteBug(_ context.Context, id models.BugID) error {
	return s.db.Update(func(txn *badger.Txn) error {
		existing, err := badgerRead(txn, id)
		if err != nil {
			return err
		}
		if err := txn.Delete(badgerBugKey(id)); err != nil {
			return fmt.Errorf("delete bug: %w", err)
		}
		if err := txn.Delete(badgerIndexKey(existing)); err != nil {
			return fmt.Errorf("delete bug index: %w", err)
		}
		return nil
	})
}

func badgerRead(txn *badger.Txn, id models.BugID) (*models.Bug, error) {
	item, err := txn.Get(badgerBugKey(id))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, fmt.Errorf("%w: %s", models.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get bug: %w", err)
	}
	var bug models.Bug
	err = item.Value(func(val []byte) error {
		return json.Unmarshal(val, &bug)
	})
	if err != nil {
		return nil, fmt.Errorf("decode bug %s: %w", id, err)
	}
	return &bug, nil
}

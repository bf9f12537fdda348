package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-redis/redis/v8"

	"github.com/joescharf/bugtrack/internal/models"
)

const (
	redisBugIndex    = "bugs"
	defaultRedisAddr = "localhost:6379"
)

// RedisStore keeps each bug as a JSON string under bug:<id> and indexes ids in a
// sorted set scored by creation time in milliseconds.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore connects to addr and verifies the connection.
func NewRedisStore(ctx context.Context, addr string, db int) (*RedisStore, error) {
	if addr == "" {
		addr = defaultRedisAddr
	}
	client := redis.NewClient(&redis.Options{Addr: addr, DB: db})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("could not connect to redis (%s): %w", addr, err)
	}
	return &RedisStore{client: client}, nil
}

// NewRedisStoreFromClient wraps an existing client.
func NewRedisStoreFromClient(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Migrate(context.Context) error { return nil }

func (s *RedisStore) Close() error { return s.client.Close() }

func redisBugKey(id models.BugID) string {
	return fmt.Sprintf("bug:%s", id)
}

func (s *RedisStore) CreateBug(ctx context.Context, bug *models.Bug) error {
	prepareNew(bug)
	data, err := json.Marshal(bug)
	if err != nil {
		return fmt.Errorf("encode bug: %w", err)
	}

	key := redisBugKey(bug.ID)
	err = s.client.Watch(ctx, func(tx *redis.Tx) error {
		n, err := tx.Exists(ctx, key).Result()
		if err != nil {
			return err
		}
		if n > 0 {
			return fmt.Errorf("duplicate id %s", bug.ID)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, 0)
			pipe.ZAdd(ctx, redisBugIndex, &redis.Z{Score: float64(bug.CreatedAt.UnixMilli()), Member: string(bug.ID)})
			return nil
		})
		return err
	}, key)
	if err != nil {
		return fmt.Errorf("create bug: %w", err)
	}
	return nil
}

func (s *RedisStore) GetBug(ctx context.Context, id models.BugID) (*models.Bug, error) {
	data, err := s.client.Get(ctx, redisBugKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%w: %s", models.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get bug: %w", err)
	}
	var bug models.Bug
	if err := json.Unmarshal(data, &bug); err != nil {
		return nil, fmt.Errorf("decode bug %s: %w", id, err)
	}
	return &bug, nil
}

func (s *RedisStore) ListBugs(ctx context.Context) ([]*models.Bug, error) {
	ids, err := s.client.ZRevRange(ctx, redisBugIndex, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("list bugs: %w", err)
	}
	bugs := make([]*models.Bug, 0, len(ids))
	if len(ids) == 0 {
		return bugs, nil
	}

	pipe := s.client.Pipeline()
	cmds := make([]*redis.StringCmd, len(ids))
	for i, id := range ids {
		cmds[i] = pipe.Get(ctx, redisBugKey(models.BugID(id)))
	}
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("list bugs: %w", err)
	}
	for _, cmd := range cmds {
		data, err := cmd.Bytes()
		if errors.Is(err, redis.Nil) {
			// removed between the index read and the fetch
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("list bugs: %w", err)
		}
		var bug models.Bug
		if err := json.Unmarshal(data, &bug); err != nil {
			return nil, fmt.Errorf("decode bug: %w", err)
		}
		bugs = append(bugs, &bug)
	}
	return bugs, nil
}

func (s *RedisStore) UpdateBug(ctx context.Context, bug *models.Bug) error {
	existing, err := s.GetBug(ctx, bug.ID)
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
	ok, err := s.client.SetXX(ctx, redisBugKey(bug.ID), data, 0).Result()
	if err != nil {
		return fmt.Errorf("update bug: %w", err)
	}
	if !ok {
		return fmt.Errorf("%w: %s", models.ErrNotFound, bug.ID)
	}
	bug.CreatedAt = existing.CreatedAt
	return nil
}

func (s *RedisStore) DeleteBug(ctx context.Context, id models.BugID) error {
	var del *redis.IntCmd
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		del = pipe.Del(ctx, redisBugKey(id))
		pipe.ZRem(ctx, redisBugIndex, string(id))
		return nil
	})
	if err != nil {
		return fmt.Errorf("delete bug: %w", err)
	}
	if del.Val() == 0 {
		return fmt.Errorf("%w: %s", models.ErrNotFound, id)
	}
	return nil
}

package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const redisPrefix = "sess:"

// RedisStore keeps sessions as JSON values that expire with the session.
type RedisStore struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedisStore wraps rdb.
func NewRedisStore(rdb *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{rdb: rdb, ttl: ttl}
}

func (r *RedisStore) Create(ctx context.Context, userID string) (*Session, error) {
	now := time.Now().UTC()
	s := Session{ID: uuid.NewString(), UserID: userID, CreatedAt: now, ExpiresAt: now.Add(r.ttl)}
	b, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	if err := r.rdb.SetEx(ctx, redisPrefix+s.ID, b, r.ttl).Err(); err != nil {
		return nil, fmt.Errorf("store session: %w", err)
	}
	return &s, nil
}

func (r *RedisStore) Get(ctx context.Context, id string) (*Session, error) {
	b, err := r.rdb.Get(ctx, redisPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	var s Session
	if err := json.Unmarshal(b, &s); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return &s, nil
}

func (r *RedisStore) Destroy(ctx context.Context, id string) error {
	return r.rdb.Del(ctx, redisPrefix+id).Err()
}

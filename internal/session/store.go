// Package session keeps server-side login state. A session binds an opaque
// id, carried in the client's cookie, to a user id.
package session

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Session is the server-side record behind a cookie.
type Session struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	CreatedAt time.Time `json:"createdAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Store persists sessions. Get returns (nil, nil) for unknown or expired ids.
type Store interface {
	Create(ctx context.Context, userID string) (*Session, error)
	Get(ctx context.Context, id string) (*Session, error)
	Destroy(ctx context.Context, id string) error
}

// NewStore uses Redis when a client is available and process memory
// otherwise.
func NewStore(rdb *redis.Client, ttl time.Duration) Store {
	if rdb == nil {
		return NewMemoryStore(ttl)
	}
	return NewRedisStore(rdb, ttl)
}

package session

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreLifecycle(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore(time.Hour)

	s, err := m.Create(ctx, "user-1")
	require.NoError(t, err)
	assert.NotEmpty(t, s.ID)

	got, err := m.Get(ctx, s.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "user-1", got.UserID)

	require.NoError(t, m.Destroy(ctx, s.ID))
	got, err = m.Get(ctx, s.ID)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestMemoryStoreExpiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	m := NewMemoryStore(time.Minute)
	m.now = func() time.Time { return now }

	s, err := m.Create(ctx, "user-1")
	require.NoError(t, err)

	now = now.Add(2 * time.Minute)
	got, err := m.Get(ctx, s.ID)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestNewStoreFallsBackToMemory(t *testing.T) {
	_, ok := NewStore(nil, time.Hour).(*MemoryStore)
	assert.True(t, ok)
}

// Runs against a real server when REDIS_ADDR is set.
func TestRedisStore(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	ctx := context.Background()
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	defer rdb.Close()
	r := NewRedisStore(rdb, time.Minute)

	s, err := r.Create(ctx, "user-1")
	require.NoError(t, err)
	got, err := r.Get(ctx, s.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "user-1", got.UserID)

	require.NoError(t, r.Destroy(ctx, s.ID))
	got, err = r.Get(ctx, s.ID)
	require.NoError(t, err)
	assert.Nil(t, got)
}

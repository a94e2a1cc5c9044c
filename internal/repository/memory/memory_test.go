package memory_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/gameforge-studio/internal/model"
	"github.com/iliyamo/gameforge-studio/internal/repository"
	"github.com/iliyamo/gameforge-studio/internal/repository/memory"
	"github.com/iliyamo/gameforge-studio/internal/repository/seed"
	"github.com/iliyamo/gameforge-studio/internal/repository/storagetest"
)

func TestConformance(t *testing.T) {
	storagetest.Run(t, func(t *testing.T, now func() time.Time) repository.Storage {
		s, err := memory.New(memory.WithClock(now))
		require.NoError(t, err)
		return s
	})
}

func TestFixtures(t *testing.T) {
	ctx := context.Background()
	s, err := memory.New(memory.WithFixtures(seed.Build("fixture-hash")))
	require.NoError(t, err)

	users, err := s.ListUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 4)

	alex, err := s.GetUserByUsername(ctx, "alexchen")
	require.NoError(t, err)
	require.NotNil(t, alex)
	assert.Equal(t, seed.UserAlex, alex.ID)
	assert.Equal(t, "fixture-hash", alex.Password)

	projects, err := s.ListProjectsByOwner(ctx, seed.UserAlex)
	require.NoError(t, err)
	assert.Len(t, projects, 2)

	assets, err := s.ListAssets(ctx, model.AssetFilter{})
	require.NoError(t, err)
	assert.Len(t, assets, 6)

	bundles, err := s.ListBundles(ctx)
	require.NoError(t, err)
	assert.Len(t, bundles, 2)

	members, err := s.ListChatMembers(ctx, seed.MainChat)
	require.NoError(t, err)
	assert.Len(t, members, 4)

	m, err := s.GetMetrics(ctx, seed.UserSarah)
	require.NoError(t, err)
	require.NotNil(t, m)
	assert.Equal(t, 48, m.AssetsCreated)
}

func TestReturnedValuesAreCopies(t *testing.T) {
	ctx := context.Background()
	s, err := memory.New()
	require.NoError(t, err)

	u, err := s.CreateUser(ctx, model.NewUser{Username: "copy", Password: "h", Email: "copy@example.com", Skills: []string{"Go"}})
	require.NoError(t, err)
	u.Skills[0] = "mutated"
	u.DisplayName = "mutated"

	got, err := s.GetUser(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StringList{"Go"}, got.Skills)
	assert.Empty(t, got.DisplayName)
}

func TestConcurrentWrites(t *testing.T) {
	ctx := context.Background()
	s, err := memory.New()
	require.NoError(t, err)
	c, err := s.CreateChat(ctx, model.NewChat{Name: "busy", CreatedBy: "u"})
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, _ = s.CreateUser(ctx, model.NewUser{
				Username: fmt.Sprintf("user%d", i),
				Password: "h",
				Email:    fmt.Sprintf("user%d@example.com", i),
			})
			// everyone races to join with the same id
			_, _ = s.AddChatMember(ctx, c.ID, "same-user", "")
		}(i)
	}
	wg.Wait()

	users, err := s.ListUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 50)
	members, err := s.ListChatMembers(ctx, c.ID)
	require.NoError(t, err)
	assert.Len(t, members, 1)
}

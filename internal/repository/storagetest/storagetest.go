// Package storagetest is a conformance suite run against every
// repository.Storage implementation.
package storagetest

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/gameforge-studio/internal/model"
	"github.com/iliyamo/gameforge-studio/internal/repository"
)

// Factory returns an empty store whose timestamps come from now.
type Factory func(t *testing.T, now func() time.Time) repository.Storage

// Clock returns a time source that moves forward one second per call so
// that ordering by recency is deterministic.
func Clock() func() time.Time {
	var mu sync.Mutex
	t := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		t = t.Add(time.Second)
		return t
	}
}

// Run executes the suite.
func Run(t *testing.T, newStore Factory) {
	ctx := context.Background()
	fresh := func(t *testing.T) repository.Storage {
		t.Helper()
		s := newStore(t, Clock())
		t.Cleanup(func() { _ = s.Close() })
		return s
	}
	str := func(s string) *string { return &s }

	t.Run("missing rows are nil without error", func(t *testing.T) {
		s := fresh(t)

		u, err := s.GetUser(ctx, "nope")
		require.NoError(t, err)
		assert.Nil(t, u)

		p, err := s.UpdateProject(ctx, "nope", model.ProjectPatch{Name: str("x")})
		require.NoError(t, err)
		assert.Nil(t, p)

		m, err := s.GetMetrics(ctx, "nope")
		require.NoError(t, err)
		assert.Nil(t, m)

		msg, err := s.UpdateMessage(ctx, "nope", model.MessagePatch{Content: str("x")})
		require.NoError(t, err)
		assert.Nil(t, msg)
	})

	t.Run("delete is idempotent", func(t *testing.T) {
		s := fresh(t)
		owner := createUser(t, s, "owner")

		ok, err := s.DeleteProject(ctx, "missing")
		require.NoError(t, err)
		assert.False(t, ok)
		ok, err = s.DeleteProject(ctx, "missing")
		require.NoError(t, err)
		assert.False(t, ok)

		p, err := s.CreateProject(ctx, model.NewProject{Name: "Game", OwnerID: owner.ID, Engine: "godot", Platform: "pc"})
		require.NoError(t, err)
		ok, err = s.DeleteProject(ctx, p.ID)
		require.NoError(t, err)
		assert.True(t, ok)
		ok, err = s.DeleteProject(ctx, p.ID)
		require.NoError(t, err)
		assert.False(t, ok)

		ok, err = s.DeleteUser(ctx, owner.ID)
		require.NoError(t, err)
		assert.True(t, ok)
		ok, err = s.DeleteUser(ctx, owner.ID)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("create fills defaults", func(t *testing.T) {
		s := fresh(t)
		u, err := s.CreateUser(ctx, model.NewUser{Username: "dev", Password: "hash", Email: "dev@example.com", DisplayName: "Dev"})
		require.NoError(t, err)
		assert.NotEmpty(t, u.ID)
		assert.Equal(t, model.DefaultRole, u.Role)
		assert.Equal(t, model.AvailabilityOnline, u.Availability)
		assert.Equal(t, model.DefaultUserSettings(), u.Settings)
		assert.NotNil(t, u.Skills)
		assert.False(t, u.CreatedAt.IsZero())

		got, err := s.GetUser(ctx, u.ID)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, u.Username, got.Username)
		assert.Equal(t, "hash", got.Password)
		assert.True(t, u.CreatedAt.Equal(got.CreatedAt))
	})

	t.Run("unique username and email", func(t *testing.T) {
		s := fresh(t)
		createUser(t, s, "taken")

		_, err := s.CreateUser(ctx, model.NewUser{Username: "taken", Password: "h", Email: "other@example.com", DisplayName: "x"})
		assert.ErrorIs(t, err, repository.ErrConflict)
		_, err = s.CreateUser(ctx, model.NewUser{Username: "other", Password: "h", Email: "taken@example.com", DisplayName: "x"})
		assert.ErrorIs(t, err, repository.ErrConflict)

		found, err := s.GetUserByEmail(ctx, "TAKEN@example.com")
		require.NoError(t, err)
		require.NotNil(t, found)
		assert.Equal(t, "taken", found.Username)
	})

	t.Run("update keeps immutable fields", func(t *testing.T) {
		s := fresh(t)
		u := createUser(t, s, "immutable")

		updated, err := s.UpdateUser(ctx, u.ID, model.UserPatch{
			DisplayName: str("Renamed"),
			Skills:      &[]string{"Go"},
		})
		require.NoError(t, err)
		require.NotNil(t, updated)
		assert.Equal(t, "Renamed", updated.DisplayName)
		assert.Equal(t, model.StringList{"Go"}, updated.Skills)
		assert.Equal(t, u.ID, updated.ID)
		assert.Equal(t, u.Password, updated.Password)
		assert.True(t, u.CreatedAt.Equal(updated.CreatedAt))

		owner := createUser(t, s, "projowner")
		p, err := s.CreateProject(ctx, model.NewProject{Name: "P", OwnerID: owner.ID, Engine: "unity", Platform: "pc"})
		require.NoError(t, err)
		p2, err := s.UpdateProject(ctx, p.ID, model.ProjectPatch{Status: str(model.ProjectLive)})
		require.NoError(t, err)
		require.NotNil(t, p2)
		assert.Equal(t, owner.ID, p2.OwnerID)
		assert.Equal(t, model.ProjectLive, p2.Status)
		assert.True(t, p.CreatedAt.Equal(p2.CreatedAt))
		assert.True(t, p2.LastUpdated.After(p.LastUpdated))
	})

	t.Run("password update", func(t *testing.T) {
		s := fresh(t)
		u := createUser(t, s, "pw")
		ok, err := s.UpdateUserPassword(ctx, u.ID, "new-hash")
		require.NoError(t, err)
		assert.True(t, ok)
		got, err := s.GetUser(ctx, u.ID)
		require.NoError(t, err)
		assert.Equal(t, "new-hash", got.Password)

		ok, err = s.UpdateUserPassword(ctx, "missing", "x")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("lists are newest first", func(t *testing.T) {
		s := fresh(t)
		owner := createUser(t, s, "lister")
		var ids []string
		for _, name := range []string{"first", "second", "third"} {
			p, err := s.CreateProject(ctx, model.NewProject{Name: name, OwnerID: owner.ID, Engine: "custom", Platform: "web"})
			require.NoError(t, err)
			ids = append(ids, p.ID)
		}
		list, err := s.ListProjectsByOwner(ctx, owner.ID)
		require.NoError(t, err)
		require.Len(t, list, 3)
		assert.Equal(t, []string{ids[2], ids[1], ids[0]}, projectIDs(list))

		// touching the oldest moves it to the front
		_, err = s.UpdateProject(ctx, ids[0], model.ProjectPatch{Name: str("first again")})
		require.NoError(t, err)
		list, err = s.ListProjects(ctx)
		require.NoError(t, err)
		assert.Equal(t, ids[0], list[0].ID)

		none, err := s.ListProjectsByOwner(ctx, "nobody")
		require.NoError(t, err)
		assert.NotNil(t, none)
		assert.Empty(t, none)
	})

	t.Run("asset filters", func(t *testing.T) {
		s := fresh(t)
		_, err := s.CreateAsset(ctx, model.NewAsset{Title: "Forest Tiles", Category: "2d-sprites", Price: 500})
		require.NoError(t, err)
		_, err = s.CreateAsset(ctx, model.NewAsset{Title: "Battle Music", Description: "forest ambience", Category: "audio", Price: 900})
		require.NoError(t, err)
		_, err = s.CreateAsset(ctx, model.NewAsset{Title: "Robot", Category: "3d-models", Price: 1500})
		require.NoError(t, err)

		all, err := s.ListAssets(ctx, model.AssetFilter{})
		require.NoError(t, err)
		assert.Len(t, all, 3)

		audio, err := s.ListAssets(ctx, model.AssetFilter{Category: "audio"})
		require.NoError(t, err)
		require.Len(t, audio, 1)
		assert.Equal(t, "Battle Music", audio[0].Title)

		forest, err := s.ListAssets(ctx, model.AssetFilter{Search: "FOREST"})
		require.NoError(t, err)
		assert.Len(t, forest, 2)
	})

	t.Run("download counters", func(t *testing.T) {
		s := fresh(t)
		a, err := s.CreateAsset(ctx, model.NewAsset{Title: "A", Downloads: 4})
		require.NoError(t, err)
		ok, err := s.IncrementAssetDownloads(ctx, a.ID)
		require.NoError(t, err)
		assert.True(t, ok)
		got, err := s.GetAsset(ctx, a.ID)
		require.NoError(t, err)
		assert.Equal(t, 5, got.Downloads)

		b, err := s.CreateBundle(ctx, model.NewBundle{Title: "B", AssetIDs: []string{a.ID}})
		require.NoError(t, err)
		ok, err = s.IncrementBundleDownloads(ctx, b.ID)
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = s.IncrementAssetDownloads(ctx, "missing")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("cart items reference exactly one product", func(t *testing.T) {
		s := fresh(t)
		u := createUser(t, s, "shopper")

		_, err := s.AddCartItem(ctx, model.NewCartItem{UserID: u.ID})
		assert.ErrorIs(t, err, repository.ErrInvalidCartItem)
		_, err = s.AddCartItem(ctx, model.NewCartItem{UserID: u.ID, AssetID: str("a"), BundleID: str("b")})
		assert.ErrorIs(t, err, repository.ErrInvalidCartItem)

		first, err := s.AddCartItem(ctx, model.NewCartItem{UserID: u.ID, AssetID: str("asset-1")})
		require.NoError(t, err)
		assert.Equal(t, 1, first.Quantity)
		again, err := s.AddCartItem(ctx, model.NewCartItem{UserID: u.ID, AssetID: str("asset-1"), Quantity: 2})
		require.NoError(t, err)
		assert.Equal(t, first.ID, again.ID)
		assert.Equal(t, 3, again.Quantity)
		_, err = s.AddCartItem(ctx, model.NewCartItem{UserID: u.ID, BundleID: str("bundle-1")})
		require.NoError(t, err)

		items, err := s.ListCartItems(ctx, u.ID)
		require.NoError(t, err)
		assert.Len(t, items, 2)

		ok, err := s.RemoveCartItem(ctx, "someone-else", first.ID)
		require.NoError(t, err)
		assert.False(t, ok)
		ok, err = s.RemoveCartItem(ctx, u.ID, first.ID)
		require.NoError(t, err)
		assert.True(t, ok)

		n, err := s.ClearCart(ctx, u.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, n)
		items, err = s.ListCartItems(ctx, u.ID)
		require.NoError(t, err)
		assert.Empty(t, items)
	})

	t.Run("purchases and library", func(t *testing.T) {
		s := fresh(t)
		u := createUser(t, s, "buyer")

		p, err := s.CreatePurchase(ctx, model.NewPurchase{UserID: u.ID, AssetID: str("asset-1"), Price: 999})
		require.NoError(t, err)
		assert.Equal(t, model.PurchaseCompleted, p.Status)
		list, err := s.ListPurchasesByUser(ctx, u.ID)
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, 999, list[0].Price)

		g, err := s.AddToLibrary(ctx, model.NewLibraryEntry{UserID: u.ID, GameID: "game-1", Title: "Neon Drift"})
		require.NoError(t, err)
		played := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
		fav := true
		minutes := 90
		g2, err := s.UpdateLibraryEntry(ctx, g.ID, model.LibraryPatch{PlayTime: &minutes, IsFavorite: &fav, LastPlayed: &played})
		require.NoError(t, err)
		require.NotNil(t, g2)
		assert.Equal(t, 90, g2.PlayTime)
		assert.True(t, g2.IsFavorite)

		got, err := s.GetLibraryEntry(ctx, g.ID)
		require.NoError(t, err)
		require.NotNil(t, got.LastPlayed)
		assert.True(t, played.Equal(*got.LastPlayed))

		ok, err := s.RemoveFromLibrary(ctx, g.ID)
		require.NoError(t, err)
		assert.True(t, ok)
		ok, err = s.RemoveFromLibrary(ctx, g.ID)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("membership is a set", func(t *testing.T) {
		s := fresh(t)
		u := createUser(t, s, "member")
		c, err := s.CreateChat(ctx, model.NewChat{Name: "Team", CreatedBy: u.ID})
		require.NoError(t, err)
		assert.Equal(t, model.ChatGroup, c.Type)

		first, err := s.AddChatMember(ctx, c.ID, u.ID, model.MemberAdmin)
		require.NoError(t, err)
		second, err := s.AddChatMember(ctx, c.ID, u.ID, model.MemberMember)
		require.NoError(t, err)
		assert.Equal(t, first.ID, second.ID)
		assert.Equal(t, model.MemberAdmin, second.Role)

		members, err := s.ListChatMembers(ctx, c.ID)
		require.NoError(t, err)
		assert.Len(t, members, 1)

		chats, err := s.ListChatsByUser(ctx, u.ID)
		require.NoError(t, err)
		require.Len(t, chats, 1)
		assert.Equal(t, c.ID, chats[0].ID)

		ok, err := s.RemoveChatMember(ctx, c.ID, u.ID)
		require.NoError(t, err)
		assert.True(t, ok)
		ok, err = s.RemoveChatMember(ctx, c.ID, u.ID)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("deleting a chat removes its messages and members", func(t *testing.T) {
		s := fresh(t)
		a := createUser(t, s, "alice")
		b := createUser(t, s, "bob")
		c, err := s.CreateChat(ctx, model.NewChat{Name: "Doomed", CreatedBy: a.ID})
		require.NoError(t, err)
		other, err := s.CreateChat(ctx, model.NewChat{Name: "Survivor", CreatedBy: a.ID})
		require.NoError(t, err)

		for _, u := range []*model.User{a, b} {
			_, err := s.AddChatMember(ctx, c.ID, u.ID, "")
			require.NoError(t, err)
			_, err = s.CreateMessage(ctx, model.NewMessage{ChatID: c.ID, UserID: u.ID, Content: "hi"})
			require.NoError(t, err)
		}
		_, err = s.AddChatMember(ctx, other.ID, a.ID, "")
		require.NoError(t, err)
		keep, err := s.CreateMessage(ctx, model.NewMessage{ChatID: other.ID, UserID: a.ID, Content: "still here"})
		require.NoError(t, err)

		ok, err := s.DeleteChat(ctx, c.ID)
		require.NoError(t, err)
		assert.True(t, ok)

		msgs, err := s.ListMessages(ctx, c.ID)
		require.NoError(t, err)
		assert.Empty(t, msgs)
		members, err := s.ListChatMembers(ctx, c.ID)
		require.NoError(t, err)
		assert.Empty(t, members)

		kept, err := s.GetMessage(ctx, keep.ID)
		require.NoError(t, err)
		assert.NotNil(t, kept)
		members, err = s.ListChatMembers(ctx, other.ID)
		require.NoError(t, err)
		assert.Len(t, members, 1)

		ok, err = s.DeleteChat(ctx, c.ID)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("message edits set editedAt", func(t *testing.T) {
		s := fresh(t)
		u := createUser(t, s, "writer")
		c, err := s.CreateChat(ctx, model.NewChat{Name: "Edits", CreatedBy: u.ID})
		require.NoError(t, err)
		m, err := s.CreateMessage(ctx, model.NewMessage{ChatID: c.ID, UserID: u.ID, Content: "helo"})
		require.NoError(t, err)
		assert.Nil(t, m.EditedAt)

		edited, err := s.UpdateMessage(ctx, m.ID, model.MessagePatch{Content: str("hello")})
		require.NoError(t, err)
		require.NotNil(t, edited)
		assert.Equal(t, "hello", edited.Content)
		require.NotNil(t, edited.EditedAt)
		assert.True(t, edited.EditedAt.After(m.CreatedAt))
	})

	t.Run("metrics upsert keeps one row per user", func(t *testing.T) {
		s := fresh(t)
		u := createUser(t, s, "metered")

		first, err := s.UpsertMetrics(ctx, u.ID, model.MetricsValues{ActiveProjects: 1, Revenue: 100})
		require.NoError(t, err)
		second, err := s.UpsertMetrics(ctx, u.ID, model.MetricsValues{ActiveProjects: 2})
		require.NoError(t, err)
		assert.Equal(t, first.ID, second.ID)

		got, err := s.GetMetrics(ctx, u.ID)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, 2, got.ActiveProjects)
		assert.Equal(t, 0, got.Revenue)
	})
}

func createUser(t *testing.T, s repository.Storage, name string) *model.User {
	t.Helper()
	u, err := s.CreateUser(context.Background(), model.NewUser{
		Username:    name,
		Password:    "hash-" + name,
		Email:       name + "@example.com",
		DisplayName: name,
	})
	require.NoError(t, err)
	return u
}

func projectIDs(ps []model.Project) []string {
	out := make([]string, len(ps))
	for i, p := range ps {
		out[i] = p.ID
	}
	return out
}

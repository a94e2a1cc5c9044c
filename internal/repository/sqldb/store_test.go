package sqldb_test

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/gameforge-studio/internal/database"
	"github.com/iliyamo/gameforge-studio/internal/repository"
	"github.com/iliyamo/gameforge-studio/internal/repository/seed"
	"github.com/iliyamo/gameforge-studio/internal/repository/sqldb"
	"github.com/iliyamo/gameforge-studio/internal/repository/storagetest"
)

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func openSQLite(t *testing.T) *sqldb.Store {
	t.Helper()
	return openSQLiteWith(t)
}

func openSQLiteWith(t *testing.T, opts ...sqldb.Option) *sqldb.Store {
	t.Helper()
	ctx := context.Background()
	db, _, err := database.Open(ctx, "sqlite::memory:")
	require.NoError(t, err)
	require.NoError(t, database.EnsureSchema(ctx, db))
	base := []sqldb.Option{
		sqldb.WithLogger(quietLogger()),
		sqldb.WithRetryPolicy(sqldb.RetryPolicy{Attempts: 1, BaseDelay: time.Millisecond}),
	}
	return sqldb.New(ctx, db, append(base, opts...)...)
}

func TestConformanceSQLite(t *testing.T) {
	storagetest.Run(t, func(t *testing.T, now func() time.Time) repository.Storage {
		return openSQLiteWith(t, sqldb.WithClock(now))
	})
}

func TestSeedsOnlyEmptyDatabase(t *testing.T) {
	ctx := context.Background()
	db, _, err := database.Open(ctx, "sqlite::memory:")
	require.NoError(t, err)
	defer db.Close()
	require.NoError(t, database.EnsureSchema(ctx, db))

	ds := seed.Build("fixture-hash")
	s := sqldb.New(ctx, db, sqldb.WithLogger(quietLogger()), sqldb.WithFixtures(ds))
	users, err := s.ListUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 4)

	welcome, err := s.GetMessage(ctx, seed.WelcomeMessage)
	require.NoError(t, err)
	require.NotNil(t, welcome)
	assert.Equal(t, seed.MainChat, welcome.ChatID)

	// a second start must not insert the fixtures again
	s = sqldb.New(ctx, db, sqldb.WithLogger(quietLogger()), sqldb.WithFixtures(ds))
	users, err = s.ListUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 4)
}

func TestSeedFailureIsSwallowed(t *testing.T) {
	ctx := context.Background()
	db, _, err := database.Open(ctx, "sqlite::memory:")
	require.NoError(t, err)
	defer db.Close()

	// no schema: counting users fails, the store is still usable for Ping
	s := sqldb.New(ctx, db,
		sqldb.WithLogger(quietLogger()),
		sqldb.WithRetryPolicy(sqldb.RetryPolicy{Attempts: 1, BaseDelay: time.Millisecond}),
		sqldb.WithFixtures(seed.Build("x")))
	require.NotNil(t, s)
	assert.NoError(t, s.Ping(ctx))
}

func TestJSONColumnsRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := openSQLite(t)
	defer s.Close()

	ds := seed.Build("h")
	u, err := s.CreateUser(ctx, ds.Users[0])
	require.NoError(t, err)

	got, err := s.GetUser(ctx, u.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, u.Skills, got.Skills)
	assert.Equal(t, u.Settings, got.Settings)
	require.NotNil(t, got.Location)
	assert.Equal(t, *u.Location, *got.Location)
	assert.Nil(t, got.Banner)
}

// Package sqldb implements repository.Storage on a SQL connection pool.
// Every call goes through a retry wrapper that backs off on transient
// failures and gives up at once on permanent ones.
package sqldb

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/gameforge-studio/internal/database"
	"github.com/iliyamo/gameforge-studio/internal/repository"
	"github.com/iliyamo/gameforge-studio/internal/repository/seed"
)

// Store is the SQL backed repository.Storage.
type Store struct {
	db      *sqlx.DB
	dialect database.Dialect
	policy  RetryPolicy
	log     logrus.FieldLogger
	now     func() time.Time
	onRetry func(op string, attempt int, wait time.Duration)
}

var _ repository.Storage = (*Store)(nil)

// Option configures a Store.
type Option func(*Store, *seedOptions)

type seedOptions struct {
	dataset *seed.Dataset
}

// WithRetryPolicy overrides DefaultRetryPolicy.
func WithRetryPolicy(p RetryPolicy) Option {
	return func(s *Store, _ *seedOptions) { s.policy = p }
}

// WithLogger sets the logger used for retries and seeding.
func WithLogger(l logrus.FieldLogger) Option {
	return func(s *Store, _ *seedOptions) { s.log = l }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Store, _ *seedOptions) { s.now = now }
}

// WithRetryHook is called before every retry wait.
func WithRetryHook(fn func(op string, attempt int, wait time.Duration)) Option {
	return func(s *Store, _ *seedOptions) { s.onRetry = fn }
}

// WithFixtures inserts ds when the users table is empty. Callers only pass
// it when sample data is enabled for the environment.
func WithFixtures(ds seed.Dataset) Option {
	return func(_ *Store, o *seedOptions) { o.dataset = &ds }
}

// New wraps db. Fixture seeding is best effort: failures are logged and the
// store is returned regardless.
func New(ctx context.Context, db *sqlx.DB, opts ...Option) *Store {
	s := &Store{
		db:      db,
		dialect: database.DialectOf(db),
		policy:  DefaultRetryPolicy,
		log:     logrus.StandardLogger(),
		now:     time.Now,
	}
	var so seedOptions
	for _, opt := range opts {
		opt(s, &so)
	}
	if so.dataset != nil {
		s.seed(ctx, *so.dataset)
	}
	return s
}

func (s *Store) seed(ctx context.Context, ds seed.Dataset) {
	var n int
	err := s.retry(ctx, "seed.count_users", func(ctx context.Context) error {
		return s.db.GetContext(ctx, &n, "SELECT COUNT(*) FROM users")
	})
	if err != nil {
		s.log.WithError(err).Warn("sample data skipped: could not count users")
		return
	}
	if n > 0 {
		s.log.WithField("users", n).Debug("sample data skipped: users table not empty")
		return
	}
	if err := seed.Apply(ctx, s, ds); err != nil {
		s.log.WithError(err).Warn("sample data seeding failed")
		return
	}
	s.log.WithField("users", len(ds.Users)).Info("sample data seeded")
}

// Ping checks the pool.
func (s *Store) Ping(ctx context.Context) error {
	return s.retry(ctx, "ping", func(ctx context.Context) error {
		return s.db.PingContext(ctx)
	})
}

// Close releases the pool.
func (s *Store) Close() error { return s.db.Close() }

// timestamp truncates to microseconds, the finest precision every dialect
// stores.
func (s *Store) timestamp() time.Time {
	return s.now().UTC().Truncate(time.Microsecond)
}

// getOne loads a single row into dest and reports whether it was found.
func (s *Store) getOne(ctx context.Context, op string, dest interface{}, query string, args ...interface{}) (bool, error) {
	found := false
	err := s.retry(ctx, op, func(ctx context.Context) error {
		err := s.db.GetContext(ctx, dest, s.db.Rebind(query), args...)
		if errors.Is(err, sql.ErrNoRows) {
			found = false
			return nil
		}
		found = err == nil
		return err
	})
	return found, err
}

// selectAll loads rows into dest, a pointer to a slice.
func (s *Store) selectAll(ctx context.Context, op string, dest interface{}, query string, args ...interface{}) error {
	return s.retry(ctx, op, func(ctx context.Context) error {
		return s.db.SelectContext(ctx, dest, s.db.Rebind(query), args...)
	})
}

// execAffected runs a statement and reports whether any row changed.
func (s *Store) execAffected(ctx context.Context, op, query string, args ...interface{}) (bool, error) {
	var n int64
	err := s.retry(ctx, op, func(ctx context.Context) error {
		res, err := s.db.ExecContext(ctx, s.db.Rebind(query), args...)
		if err != nil {
			return err
		}
		n, err = res.RowsAffected()
		return err
	})
	return n > 0, err
}

// namedExec runs a named statement bound from arg's db tags.
func (s *Store) namedExec(ctx context.Context, op, query string, arg interface{}) error {
	return s.retry(ctx, op, func(ctx context.Context) error {
		_, err := s.db.NamedExecContext(ctx, query, arg)
		return err
	})
}

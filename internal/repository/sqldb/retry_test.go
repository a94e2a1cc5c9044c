package sqldb

import (
	"context"
	"errors"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/gameforge-studio/internal/repository"
)

type retryCall struct {
	attempt int
	wait    time.Duration
}

func newMockStore(t *testing.T, attempts int) (*Store, sqlmock.Sqlmock, *[]retryCall) {
	t.Helper()
	raw, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { raw.Close() })

	l := logrus.New()
	l.SetOutput(io.Discard)
	calls := &[]retryCall{}
	s := New(context.Background(), sqlx.NewDb(raw, "mysql"),
		WithLogger(l),
		WithRetryPolicy(RetryPolicy{Attempts: attempts, BaseDelay: time.Millisecond}),
		WithRetryHook(func(_ string, attempt int, wait time.Duration) {
			*calls = append(*calls, retryCall{attempt: attempt, wait: wait})
		}),
	)
	return s, mock, calls
}

func TestRetryTransientFailureExhaustsBudget(t *testing.T) {
	s, mock, calls := newMockStore(t, 3)
	transient := errors.New("read tcp 10.0.0.1:3306: connection reset by peer")
	for i := 0; i < 3; i++ {
		mock.ExpectExec(`DELETE FROM users WHERE id = \?`).WithArgs("u1").WillReturnError(transient)
	}

	ok, err := s.DeleteUser(context.Background(), "u1")
	assert.False(t, ok)

	var rerr *RetryError
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, "users.delete", rerr.Op)
	assert.Equal(t, 3, rerr.Attempts)
	assert.ErrorIs(t, err, transient)

	require.Len(t, *calls, 2)
	assert.Equal(t, time.Millisecond, (*calls)[0].wait)
	assert.Equal(t, 2*time.Millisecond, (*calls)[1].wait)
	assert.Greater(t, (*calls)[1].wait, (*calls)[0].wait)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRetryRecoversAfterTransientFailure(t *testing.T) {
	s, mock, calls := newMockStore(t, 3)
	mock.ExpectExec(`DELETE FROM users WHERE id = \?`).WithArgs("u1").
		WillReturnError(errors.New("i/o timeout"))
	mock.ExpectExec(`DELETE FROM users WHERE id = \?`).WithArgs("u1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	ok, err := s.DeleteUser(context.Background(), "u1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Len(t, *calls, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRetryValidationErrorSurfacesImmediately(t *testing.T) {
	s, mock, calls := newMockStore(t, 3)
	mock.ExpectExec(`DELETE FROM users WHERE id = \?`).WithArgs("u1").
		WillReturnError(errors.New("validation failed: id is malformed"))

	_, err := s.DeleteUser(context.Background(), "u1")
	require.Error(t, err)

	var rerr *RetryError
	assert.False(t, errors.As(err, &rerr))
	assert.Contains(t, err.Error(), "validation failed")
	assert.Empty(t, *calls)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNotFoundIsNotAnError(t *testing.T) {
	s, mock, calls := newMockStore(t, 3)
	mock.ExpectQuery(`SELECT (.+) FROM projects WHERE id = \?`).WithArgs("p1").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	p, err := s.GetProject(context.Background(), "p1")
	require.NoError(t, err)
	assert.Nil(t, p)
	assert.Empty(t, *calls)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCanceledContextIsNotRetried(t *testing.T) {
	s, mock, calls := newMockStore(t, 3)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	mock.ExpectExec(`DELETE FROM users WHERE id = \?`).WithArgs("u1").WillReturnError(context.Canceled)

	_, err := s.DeleteUser(ctx, "u1")
	require.Error(t, err)
	var rerr *RetryError
	assert.False(t, errors.As(err, &rerr))
	assert.Empty(t, *calls)
}

func TestIsRetryable(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"connection reset", errors.New("connection reset by peer"), true},
		{"timeout", errors.New("dial tcp: i/o timeout"), true},
		{"too many connections", &mysql.MySQLError{Number: 1040, Message: "Too many connections"}, true},
		{"pg admin shutdown", &pq.Error{Code: "57P01", Message: "terminating connection"}, true},
		{"validation message", errors.New("Validation error: name required"), false},
		{"unauthorized", errors.New("unauthorized"), false},
		{"permission denied", errors.New("permission denied for table users"), false},
		{"syntax", errors.New(`syntax error at or near "SELEC"`), false},
		{"missing relation", errors.New(`relation "userz" does not exist`), false},
		{"pg undefined table", &pq.Error{Code: "42P01"}, false},
		{"pg unique", &pq.Error{Code: "23505"}, false},
		{"pg bad auth", &pq.Error{Code: "28P01"}, false},
		{"pg bad data", &pq.Error{Code: "22P02"}, false},
		{"mysql duplicate", &mysql.MySQLError{Number: 1062}, false},
		{"mysql unknown table", &mysql.MySQLError{Number: 1146}, false},
		{"mysql access denied", &mysql.MySQLError{Number: 1045}, false},
		{"sqlite missing table", errors.New("SQL logic error: no such table: users (1)"), false},
		{"conflict sentinel", fmt.Errorf("wrap: %w", repository.ErrConflict), false},
		{"deadline", context.DeadlineExceeded, false},
		{"nil", nil, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, IsRetryable(tc.err))
		})
	}
}

func TestRetryErrorMessage(t *testing.T) {
	err := &RetryError{Op: "users.get", Attempts: 3, Err: errors.New("boom")}
	assert.Equal(t, "users.get failed after 3 attempts: boom", err.Error())
}

package sqldb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
	"github.com/sirupsen/logrus"
	"modernc.org/sqlite"

	"github.com/iliyamo/gameforge-studio/internal/metrics"
	"github.com/iliyamo/gameforge-studio/internal/repository"
)

// RetryPolicy bounds how often a storage call is attempted.
type RetryPolicy struct {
	Attempts  int           // total attempts, including the first
	BaseDelay time.Duration // wait before the second attempt; doubles after
}

// DefaultRetryPolicy makes three attempts waiting 1s then 2s.
var DefaultRetryPolicy = RetryPolicy{Attempts: 3, BaseDelay: time.Second}

// RetryError is returned once every attempt of an operation failed with a
// transient error. Err is the last failure.
type RetryError struct {
	Op       string
	Attempts int
	Err      error
}

func (e *RetryError) Error() string {
	return fmt.Sprintf("%s failed after %d attempts: %v", e.Op, e.Attempts, e.Err)
}

func (e *RetryError) Unwrap() error { return e.Err }

// Messages that mark programmer errors or a schema mismatch.
var permanentMessages = []string{
	"validation",
	"unauthorized",
	"authentication",
	"permission denied",
	"syntax error",
	"does not exist",
	"no such table",
	"no such column",
}

// PostgreSQL SQLSTATE classes: data exception, integrity constraint,
// invalid authorization, syntax error or access rule violation.
var permanentPQClasses = map[pq.ErrorClass]bool{
	"22": true,
	"23": true,
	"28": true,
	"42": true,
}

// MySQL server errors: access denied, unknown database, unknown column,
// duplicate entry, syntax error, unknown table.
var permanentMySQLErrors = map[uint16]bool{
	1045: true,
	1049: true,
	1054: true,
	1062: true,
	1064: true,
	1146: true,
}

const sqliteConstraint = 19

// IsRetryable reports whether err looks transient, such as a dropped
// connection or a timeout.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if errors.Is(err, sql.ErrNoRows) ||
		errors.Is(err, repository.ErrConflict) ||
		errors.Is(err, repository.ErrInvalidCartItem) {
		return false
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) && permanentPQClasses[pqErr.Code.Class()] {
		return false
	}
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) && permanentMySQLErrors[myErr.Number] {
		return false
	}
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) && liteErr.Code()&0xff == sqliteConstraint {
		return false
	}

	msg := strings.ToLower(err.Error())
	for _, m := range permanentMessages {
		if strings.Contains(msg, m) {
			return false
		}
	}
	return true
}

// isUniqueViolation reports whether err is a unique/primary key violation.
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return true
	}
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) && myErr.Number == 1062 {
		return true
	}
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) && (liteErr.Code() == 2067 || liteErr.Code() == 1555) {
		return true // SQLITE_CONSTRAINT_UNIQUE, SQLITE_CONSTRAINT_PRIMARYKEY
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") || strings.Contains(msg, "duplicate")
}

// retry runs fn until it succeeds, fails permanently or the policy is
// exhausted. Delays start at BaseDelay and double without jitter.
func (s *Store) retry(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	attempts := s.policy.Attempts
	if attempts < 1 {
		attempts = 1
	}
	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = s.policy.BaseDelay
	eb.Multiplier = 2
	eb.RandomizationFactor = 0
	eb.MaxInterval = s.policy.BaseDelay << uint(attempts)
	eb.MaxElapsedTime = 0
	eb.Reset()
	b := backoff.WithContext(backoff.WithMaxRetries(eb, uint64(attempts-1)), ctx)

	tries := 0
	var last error
	err := backoff.RetryNotify(func() error {
		tries++
		err := fn(ctx)
		if err == nil {
			return nil
		}
		last = err
		if !IsRetryable(err) {
			return backoff.Permanent(err)
		}
		return err
	}, b, func(err error, wait time.Duration) {
		metrics.StorageRetry(op)
		s.log.WithFields(logrus.Fields{
			"op":      op,
			"attempt": tries,
			"wait":    wait.String(),
		}).WithError(err).Warn("storage call failed, retrying")
		if s.onRetry != nil {
			s.onRetry(op, tries, wait)
		}
	})
	if err == nil {
		return nil
	}
	if last == nil || !IsRetryable(last) || ctx.Err() != nil {
		metrics.StorageFailure(op, "permanent")
		return fmt.Errorf("%s: %w", op, err)
	}
	metrics.StorageFailure(op, "exhausted")
	s.log.WithFields(logrus.Fields{"op": op, "attempts": tries}).WithError(last).Error("storage call gave up")
	return &RetryError{Op: op, Attempts: tries, Err: last}
}

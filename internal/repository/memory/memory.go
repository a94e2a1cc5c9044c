// Package memory is an in-process implementation of repository.Storage used
// for local development and tests. It is safe for concurrent use.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/gameforge-studio/internal/model"
	"github.com/iliyamo/gameforge-studio/internal/repository"
	"github.com/iliyamo/gameforge-studio/internal/repository/seed"
)

// Store keeps every entity in its own table behind one lock. Values are
// copied on the way in and out so callers never share state with the store.
type Store struct {
	mu  sync.RWMutex
	seq uint64
	now func() time.Time

	users    table[model.User]
	projects table[model.Project]
	assets   table[model.Asset]
	bundles  table[model.AssetBundle]
	cart     table[model.CartItem]
	purchase table[model.Purchase]
	library  table[model.GameLibrary]
	chats    table[model.Chat]
	members  table[model.ChatMember]
	messages table[model.Message]
	metrics  table[model.Metrics] // keyed by user id
}

var _ repository.Storage = (*Store)(nil)

// Option configures a Store.
type Option func(*storeOptions)

type storeOptions struct {
	fixtures *seed.Dataset
	now      func() time.Time
}

// WithFixtures loads ds at construction.
func WithFixtures(ds seed.Dataset) Option {
	return func(o *storeOptions) { o.fixtures = &ds }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(o *storeOptions) { o.now = now }
}

// New returns a store, seeded when WithFixtures is given.
func New(opts ...Option) (*Store, error) {
	o := storeOptions{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	s := &Store{
		now:      func() time.Time { return o.now().UTC() },
		users:    newTable[model.User](),
		projects: newTable[model.Project](),
		assets:   newTable[model.Asset](),
		bundles:  newTable[model.AssetBundle](),
		cart:     newTable[model.CartItem](),
		purchase: newTable[model.Purchase](),
		library:  newTable[model.GameLibrary](),
		chats:    newTable[model.Chat](),
		members:  newTable[model.ChatMember](),
		messages: newTable[model.Message](),
		metrics:  newTable[model.Metrics](),
	}
	if o.fixtures != nil {
		if err := seed.Apply(context.Background(), s, *o.fixtures); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Ping always succeeds.
func (s *Store) Ping(context.Context) error { return nil }

// Close is a no-op.
func (s *Store) Close() error { return nil }

func (s *Store) nextSeqLocked() uint64 {
	s.seq++
	return s.seq
}

func newID(fixed string) string {
	if fixed != "" {
		return fixed
	}
	return uuid.NewString()
}

type row[T any] struct {
	seq uint64
	val T
}

type table[T any] map[string]row[T]

func newTable[T any]() table[T] { return make(table[T]) }

func (t table[T]) get(id string) (T, bool) {
	r, ok := t[id]
	return r.val, ok
}

// set replaces the value and keeps the original insertion sequence.
func (t table[T]) set(id string, v T) {
	r := t[id]
	r.val = v
	t[id] = r
}

func (t table[T]) insert(id string, seq uint64, v T) {
	t[id] = row[T]{seq: seq, val: v}
}

func (t table[T]) remove(id string) bool {
	if _, ok := t[id]; !ok {
		return false
	}
	delete(t, id)
	return true
}

// list returns the values that pass keep, newest first by at, then by
// insertion order.
func (t table[T]) list(keep func(T) bool, at func(T) time.Time, clone func(T) T) []T {
	rows := make([]row[T], 0, len(t))
	for _, r := range t {
		if keep == nil || keep(r.val) {
			rows = append(rows, r)
		}
	}
	sort.Slice(rows, func(i, j int) bool {
		ti, tj := at(rows[i].val), at(rows[j].val)
		if !ti.Equal(tj) {
			return ti.After(tj)
		}
		return rows[i].seq > rows[j].seq
	})
	out := make([]T, len(rows))
	for i, r := range rows {
		out[i] = clone(r.val)
	}
	return out
}

func identity[T any](v T) T { return v }

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}

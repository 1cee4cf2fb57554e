// package cache memoizes remote calls for a bounded freshness window
//
// A [Cache] maps an explicit key built with [Key] to the value returned by a loader.
// Concurrent callers of the same key share one in-flight load. Failed loads are
// never stored, so the next caller retries.
package cache

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// DefaultTTL is the freshness window used when none is configured.
const DefaultTTL = 5 * time.Minute

// Loader produces the value for a key on a cache miss.
type Loader func(ctx context.Context) (any, error)

// Cache returns the memoized value for key, calling fn on a miss.
type Cache interface {
	Do(ctx context.Context, key string, fn Loader) (any, error)
}

// Key encodes an operation name and its arguments.
//
// Argument order is significant and every argument is quoted, so
// Key("a", "b:c") and Key("a", "b", "c") never collide.
func Key(op string, args ...any) string {
	var b strings.Builder
	b.WriteString(op)
	for _, a := range args {
		b.WriteByte('|')
		b.WriteString(strconv.Quote(fmt.Sprint(a)))
	}
	return b.String()
}

// Memoize runs fn through c and asserts the cached value back to T.
func Memoize[T any](ctx context.Context, c Cache, key string, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	v, err := c.Do(ctx, key, func(ctx context.Context) (any, error) {
		return fn(ctx)
	})
	if err != nil {
		return zero, err
	}

	t, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("cache: unexpected %T stored for %s", v, key)
	}
	return t, nil
}

type entry struct {
	value      any
	insertedAt time.Time
}

// Memory is an in-process [Cache] whose entries expire after a fixed TTL.
//
// Stale entries are treated as absent and overwritten by the next load; nothing is
// evicted in the background. The mutex only guards the map and is never held while
// a loader runs.
type Memory struct {
	ttl     time.Duration
	now     func() time.Time
	mu      sync.RWMutex
	entries map[string]entry
	group   singleflight.Group
}

// Option configures a [Memory] cache.
type Option func(*Memory)

// WithClock replaces [time.Now] as the source of insertion and freshness times.
func WithClock(now func() time.Time) Option {
	return func(m *Memory) { m.now = now }
}

// NewMemory creates a [Memory] cache. A non-positive ttl falls back to [DefaultTTL].
func NewMemory(ttl time.Duration, opts ...Option) *Memory {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	m := &Memory{ttl: ttl, now: time.Now, entries: make(map[string]entry)}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// TTL returns the freshness window.
func (m *Memory) TTL() time.Duration { return m.ttl }

// Do returns the fresh value for key or joins the in-flight load for it.
//
// The shared load runs detached from any single caller's cancellation, so one
// caller giving up never fails the others. Each caller still returns as soon as
// its own ctx is done.
func (m *Memory) Do(ctx context.Context, key string, fn Loader) (any, error) {
	if v, ok := m.lookup(key); ok {
		return v, nil
	}

	loadCtx := context.WithoutCancel(ctx)
	ch := m.group.DoChan(key, func() (any, error) {
		if v, ok := m.lookup(key); ok {
			return v, nil
		}

		v, err := fn(loadCtx)
		if err != nil {
			return nil, err
		}

		m.mu.Lock()
		m.entries[key] = entry{value: v, insertedAt: m.now()}
		m.mu.Unlock()
		return v, nil
	})

	select {
	case res := <-ch:
		return res.Val, res.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (m *Memory) lookup(key string) (any, bool) {
	m.mu.RLock()
	e, ok := m.entries[key]
	m.mu.RUnlock()
	if !ok || m.now().Sub(e.insertedAt) >= m.ttl {
		return nil, false
	}
	return e.value, true
}

// Len returns the number of stored entries, fresh or stale.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// Purge drops every entry.
func (m *Memory) Purge() {
	m.mu.Lock()
	m.entries = make(map[string]entry)
	m.mu.Unlock()
}

// Noop never stores anything and calls the loader every time.
type Noop struct{}

func (Noop) Do(ctx context.Context, _ string, fn Loader) (any, error) {
	return fn(ctx)
}

package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func counting(calls *atomic.Int32, value any) Loader {
	return func(context.Context) (any, error) {
		calls.Add(1)
		return value, nil
	}
}

func TestKey(t *testing.T) {
	t.Run("Deterministic", func(t *testing.T) {
		assert.Equal(t, Key("item", "42"), Key("item", "42"))
	})

	t.Run("Order sensitive", func(t *testing.T) {
		assert.NotEqual(t, Key("items_of_type", "a", "b"), Key("items_of_type", "b", "a"))
	})

	t.Run("Argument boundaries", func(t *testing.T) {
		assert.NotEqual(t, Key("op", "a|b"), Key("op", "a", "b"))
		assert.NotEqual(t, Key("op"), Key("op", ""))
	})

	t.Run("Operation distinguishes", func(t *testing.T) {
		assert.NotEqual(t, Key("directory", "1"), Key("item", "1"))
	})
}

func TestMemory(t *testing.T) {
	ctx := context.Background()

	t.Run("Hit within ttl", func(t *testing.T) {
		clk := &clock{now: time.Unix(0, 0)}
		m := NewMemory(5*time.Minute, WithClock(clk.Now))
		var calls atomic.Int32

		v1, err := m.Do(ctx, "k", counting(&calls, "v"))
		require.NoError(t, err)
		clk.Advance(4 * time.Minute)
		v2, err := m.Do(ctx, "k", counting(&calls, "other"))
		require.NoError(t, err)

		assert.Equal(t, "v", v1)
		assert.Equal(t, "v", v2)
		assert.EqualValues(t, 1, calls.Load())
	})

	t.Run("Stale entries are replaced", func(t *testing.T) {
		clk := &clock{now: time.Unix(0, 0)}
		m := NewMemory(5*time.Minute, WithClock(clk.Now))
		var calls atomic.Int32

		_, err := m.Do(ctx, "k", counting(&calls, "old"))
		require.NoError(t, err)
		clk.Advance(5 * time.Minute)
		v, err := m.Do(ctx, "k", counting(&calls, "new"))
		require.NoError(t, err)

		assert.Equal(t, "new", v)
		assert.EqualValues(t, 2, calls.Load())
		assert.Equal(t, 1, m.Len())
	})

	t.Run("Errors are not cached", func(t *testing.T) {
		m := NewMemory(time.Minute)
		boom := errors.New("boom")
		var calls atomic.Int32

		_, err := m.Do(ctx, "k", func(context.Context) (any, error) {
			calls.Add(1)
			return nil, boom
		})
		assert.ErrorIs(t, err, boom)
		assert.Equal(t, 0, m.Len())

		v, err := m.Do(ctx, "k", counting(&calls, "ok"))
		require.NoError(t, err)
		assert.Equal(t, "ok", v)
		assert.EqualValues(t, 2, calls.Load())
	})

	t.Run("Concurrent callers share one load", func(t *testing.T) {
		m := NewMemory(time.Minute)
		release := make(chan struct{})
		var calls atomic.Int32
		loader := func(context.Context) (any, error) {
			calls.Add(1)
			<-release
			return "shared", nil
		}

		var wg sync.WaitGroup
		results := make([]any, 8)
		for i := range results {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				v, err := m.Do(ctx, "k", loader)
				assert.NoError(t, err)
				results[i] = v
			}(i)
		}

		time.Sleep(20 * time.Millisecond)
		close(release)
		wg.Wait()

		assert.EqualValues(t, 1, calls.Load())
		for _, v := range results {
			assert.Equal(t, "shared", v)
		}
	})

	t.Run("Cancelled caller does not fail other waiters", func(t *testing.T) {
		m := NewMemory(time.Minute)
		started := make(chan struct{})
		release := make(chan struct{})
		var calls atomic.Int32
		loader := func(ctx context.Context) (any, error) {
			calls.Add(1)
			close(started)
			<-release
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			return "v", nil
		}

		ctxA, cancelA := context.WithCancel(context.Background())
		errA := make(chan error, 1)
		go func() {
			_, err := m.Do(ctxA, "k", loader)
			errA <- err
		}()
		<-started

		type result struct {
			v   any
			err error
		}
		resB := make(chan result, 1)
		go func() {
			v, err := m.Do(context.Background(), "k", loader)
			resB <- result{v, err}
		}()

		cancelA()
		assert.ErrorIs(t, <-errA, context.Canceled)

		time.Sleep(10 * time.Millisecond)
		close(release)

		got := <-resB
		require.NoError(t, got.err)
		assert.Equal(t, "v", got.v)
		assert.EqualValues(t, 1, calls.Load())
	})

	t.Run("Waiter returns when its own context ends", func(t *testing.T) {
		m := NewMemory(time.Minute)
		started := make(chan struct{})
		release := make(chan struct{})
		defer close(release)

		go func() {
			_, _ = m.Do(context.Background(), "k", func(context.Context) (any, error) {
				close(started)
				<-release
				return "v", nil
			})
		}()
		<-started

		waitCtx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()
		_, err := m.Do(waitCtx, "k", counting(new(atomic.Int32), "other"))
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})

	t.Run("Unrelated keys load in parallel", func(t *testing.T) {
		m := NewMemory(time.Minute)
		bStarted := make(chan struct{})
		done := make(chan error, 1)

		go func() {
			_, err := m.Do(ctx, "a", func(context.Context) (any, error) {
				select {
				case <-bStarted:
					return "a", nil
				case <-time.After(2 * time.Second):
					return nil, errors.New("key a was blocked by key b")
				}
			})
			done <- err
		}()

		_, err := m.Do(ctx, "b", func(context.Context) (any, error) {
			close(bStarted)
			return "b", nil
		})
		require.NoError(t, err)
		assert.NoError(t, <-done)
	})

	t.Run("Purge", func(t *testing.T) {
		m := NewMemory(time.Minute)
		var calls atomic.Int32
		_, _ = m.Do(ctx, "k", counting(&calls, 1))
		m.Purge()
		assert.Equal(t, 0, m.Len())
		_, _ = m.Do(ctx, "k", counting(&calls, 1))
		assert.EqualValues(t, 2, calls.Load())
	})

	t.Run("Default ttl", func(t *testing.T) {
		assert.Equal(t, DefaultTTL, NewMemory(0).TTL())
	})
}

func TestNoop(t *testing.T) {
	var calls atomic.Int32
	c := Noop{}
	for range 3 {
		_, err := c.Do(context.Background(), "k", counting(&calls, "v"))
		require.NoError(t, err)
	}
	assert.EqualValues(t, 3, calls.Load())
}

func TestMemoize(t *testing.T) {
	ctx := context.Background()

	t.Run("Typed value", func(t *testing.T) {
		m := NewMemory(time.Minute)
		got, err := Memoize(ctx, m, "k", func(context.Context) ([]string, error) {
			return []string{"a", "b"}, nil
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "b"}, got)
	})

	t.Run("Type mismatch", func(t *testing.T) {
		m := NewMemory(time.Minute)
		_, err := m.Do(ctx, "k", func(context.Context) (any, error) { return 1, nil })
		require.NoError(t, err)

		_, err = Memoize(ctx, m, "k", func(context.Context) (string, error) { return "x", nil })
		assert.Error(t, err)
	})

	t.Run("Error passthrough", func(t *testing.T) {
		boom := errors.New("boom")
		_, err := Memoize(ctx, Noop{}, "k", func(context.Context) (int, error) { return 0, boom })
		assert.ErrorIs(t, err, boom)
	})
}

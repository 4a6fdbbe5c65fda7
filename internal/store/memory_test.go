package store_test

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/serroba/url-redirector/internal/redirect"
	"github.com/serroba/url-redirector/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testURL = "https://example.com/page"

// fakeClock is a settable clock shared by store tests.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Unix(1_700_000_000, 0)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.now = c.now.Add(d)
}

func TestMemoryStore_PutIfAbsent(t *testing.T) {
	t.Run("creates a new record", func(t *testing.T) {
		clock := newFakeClock()
		s := store.NewMemoryStore(redirect.DefaultPrimaryKey, clock.Now)

		outcome, err := s.PutIfAbsent(context.Background(), redirect.NewRecord("abc", testURL, 3600, nil, clock.Now()))

		require.NoError(t, err)
		assert.Equal(t, redirect.PutCreated, outcome)
	})

	t.Run("rejects an existing key and keeps the first record", func(t *testing.T) {
		clock := newFakeClock()
		s := store.NewMemoryStore(redirect.DefaultPrimaryKey, clock.Now)
		ctx := context.Background()

		_, _ = s.PutIfAbsent(ctx, redirect.NewRecord("abc", testURL, 3600, nil, clock.Now()))

		outcome, err := s.PutIfAbsent(ctx, redirect.NewRecord("abc", "https://other.com", 7200, nil, clock.Now()))

		assert.Equal(t, redirect.PutConflict, outcome)
		assert.ErrorIs(t, err, redirect.ErrConflict)

		got, err := s.GetByID(ctx, "abc")
		require.NoError(t, err)
		assert.Equal(t, testURL, got.OriginalURL)
		assert.Equal(t, int64(3600), got.TTLInSeconds)
	})

	t.Run("reuses the key of an expired record", func(t *testing.T) {
		clock := newFakeClock()
		s := store.NewMemoryStore(redirect.DefaultPrimaryKey, clock.Now)
		ctx := context.Background()

		_, _ = s.PutIfAbsent(ctx, redirect.NewRecord("abc", testURL, 3600, nil, clock.Now()))
		clock.Advance(2 * time.Hour)

		outcome, err := s.PutIfAbsent(ctx, redirect.NewRecord("abc", "https://other.com", 3600, nil, clock.Now()))

		require.NoError(t, err)
		assert.Equal(t, redirect.PutCreated, outcome)
	})

	t.Run("rejects reserved attribute names", func(t *testing.T) {
		s := store.NewMemoryStore(redirect.DefaultPrimaryKey, nil)
		rec := redirect.NewRecord("abc", testURL, 3600, map[string]string{"urlId": "x"}, time.Now())

		outcome, err := s.PutIfAbsent(context.Background(), rec)

		assert.Equal(t, redirect.PutSchemaRejected, outcome)
		assert.ErrorIs(t, err, redirect.ErrReservedAttribute)
	})

	t.Run("rejects DynamoDB reserved words as attribute names", func(t *testing.T) {
		s := store.NewMemoryStore(redirect.DefaultPrimaryKey, nil)
		rec := redirect.NewRecord("abc", testURL, 3600, map[string]string{"status": "x"}, time.Now())

		outcome, err := s.PutIfAbsent(context.Background(), rec)

		assert.Equal(t, redirect.PutSchemaRejected, outcome)
		assert.ErrorIs(t, err, redirect.ErrReservedAttribute)

		_, err = s.GetByID(context.Background(), "abc")
		assert.ErrorIs(t, err, redirect.ErrNotFound)
	})

	t.Run("concurrent inserts for one key have exactly one winner", func(t *testing.T) {
		s := store.NewMemoryStore(redirect.DefaultPrimaryKey, nil)

		var (
			wg      sync.WaitGroup
			created atomic.Int32
		)

		for i := range 50 {
			wg.Add(1)

			go func() {
				defer wg.Done()

				rec := redirect.NewRecord("race", fmt.Sprintf("https://example.com/%d", i), 3600, nil, time.Now())

				if outcome, _ := s.PutIfAbsent(context.Background(), rec); outcome == redirect.PutCreated {
					created.Add(1)
				}
			}()
		}

		wg.Wait()

		assert.Equal(t, int32(1), created.Load())
	})
}

func TestMemoryStore_GetByID(t *testing.T) {
	t.Run("returns the record when found", func(t *testing.T) {
		clock := newFakeClock()
		s := store.NewMemoryStore(redirect.DefaultPrimaryKey, clock.Now)
		attrs := map[string]string{"campaign": "spring"}
		_, _ = s.PutIfAbsent(context.Background(), redirect.NewRecord("abc", testURL, 3600, attrs, clock.Now()))

		got, err := s.GetByID(context.Background(), "abc")

		require.NoError(t, err)
		assert.Equal(t, testURL, got.OriginalURL)
		assert.Equal(t, clock.Now().Unix()+3600, got.TTL)
		assert.Equal(t, "spring", got.Attributes["campaign"])
	})

	t.Run("returns ErrNotFound when id does not exist", func(t *testing.T) {
		s := store.NewMemoryStore(redirect.DefaultPrimaryKey, nil)

		got, err := s.GetByID(context.Background(), "missing")

		assert.Nil(t, got)
		assert.ErrorIs(t, err, redirect.ErrNotFound)
	})

	t.Run("filters expired records", func(t *testing.T) {
		clock := newFakeClock()
		s := store.NewMemoryStore(redirect.DefaultPrimaryKey, clock.Now)
		_, _ = s.PutIfAbsent(context.Background(), redirect.NewRecord("abc", testURL, 3600, nil, clock.Now()))

		clock.Advance(time.Hour)

		got, err := s.GetByID(context.Background(), "abc")

		assert.Nil(t, got)
		assert.ErrorIs(t, err, redirect.ErrNotFound)
	})

	t.Run("returned records do not alias stored state", func(t *testing.T) {
		s := store.NewMemoryStore(redirect.DefaultPrimaryKey, nil)
		attrs := map[string]string{"campaign": "spring"}
		_, _ = s.PutIfAbsent(context.Background(), redirect.NewRecord("abc", testURL, 3600, attrs, time.Now()))

		got, _ := s.GetByID(context.Background(), "abc")
		got.Attributes["campaign"] = "changed"

		again, _ := s.GetByID(context.Background(), "abc")
		assert.Equal(t, "spring", again.Attributes["campaign"])
	})
}

func TestMemoryStore_Ping(t *testing.T) {
	assert.NoError(t, store.NewMemoryStore(redirect.DefaultPrimaryKey, nil).Ping(context.Background()))
}

package store_test

import (
	"context"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/serroba/url-redirector/internal/redirect"
	"github.com/serroba/url-redirector/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	t.Cleanup(func() { _ = client.Close() })

	return mr, client
}

func TestRedisStore_PutIfAbsent(t *testing.T) {
	t.Run("creates a record with an absolute expiry", func(t *testing.T) {
		mr, client := setupTestRedis(t)
		s := store.NewRedisStore(client, redirect.DefaultTable, redirect.DefaultPrimaryKey)

		outcome, err := s.PutIfAbsent(context.Background(), redirect.NewRecord("abc", testURL, 3600, nil, time.Now()))

		require.NoError(t, err)
		assert.Equal(t, redirect.PutCreated, outcome)
		assert.True(t, mr.Exists("ShortenedUrls:abc"))
		assert.InDelta(t, time.Hour.Seconds(), mr.TTL("ShortenedUrls:abc").Seconds(), 2)
	})

	t.Run("rejects an existing key and keeps the first record", func(t *testing.T) {
		_, client := setupTestRedis(t)
		s := store.NewRedisStore(client, redirect.DefaultTable, redirect.DefaultPrimaryKey)
		ctx := context.Background()

		_, _ = s.PutIfAbsent(ctx, redirect.NewRecord("abc", testURL, 3600, nil, time.Now()))

		outcome, err := s.PutIfAbsent(ctx, redirect.NewRecord("abc", "https://other.com", 3600, nil, time.Now()))

		assert.Equal(t, redirect.PutConflict, outcome)
		assert.ErrorIs(t, err, redirect.ErrConflict)

		got, err := s.GetByID(ctx, "abc")
		require.NoError(t, err)
		assert.Equal(t, testURL, got.OriginalURL)
	})

	t.Run("rejects reserved attribute names without writing", func(t *testing.T) {
		mr, client := setupTestRedis(t)
		s := store.NewRedisStore(client, redirect.DefaultTable, redirect.DefaultPrimaryKey)
		rec := redirect.NewRecord("abc", testURL, 3600, map[string]string{"ttl": "1"}, time.Now())

		outcome, err := s.PutIfAbsent(context.Background(), rec)

		assert.Equal(t, redirect.PutSchemaRejected, outcome)
		assert.ErrorIs(t, err, redirect.ErrReservedAttribute)
		assert.False(t, mr.Exists("ShortenedUrls:abc"))
	})

	t.Run("concurrent inserts for one key have exactly one winner", func(t *testing.T) {
		_, client := setupTestRedis(t)
		s := store.NewRedisStore(client, redirect.DefaultTable, redirect.DefaultPrimaryKey)

		var (
			wg        sync.WaitGroup
			created   atomic.Int32
			conflicts atomic.Int32
		)

		for i := range 20 {
			wg.Add(1)

			go func() {
				defer wg.Done()

				target := testURL + "?n=" + strconv.Itoa(i)

				outcome, _ := s.PutIfAbsent(context.Background(), redirect.NewRecord("abc", target, 3600, nil, time.Now()))
				switch outcome {
				case redirect.PutCreated:
					created.Add(1)
				case redirect.PutConflict:
					conflicts.Add(1)
				}
			}()
		}

		wg.Wait()

		assert.Equal(t, int32(1), created.Load())
		assert.Equal(t, int32(19), conflicts.Load())
	})

	t.Run("returns failed when redis is unreachable", func(t *testing.T) {
		mr, client := setupTestRedis(t)
		s := store.NewRedisStore(client, redirect.DefaultTable, redirect.DefaultPrimaryKey)
		mr.Close()

		outcome, err := s.PutIfAbsent(context.Background(), redirect.NewRecord("abc", testURL, 3600, nil, time.Now()))

		assert.Equal(t, redirect.PutFailed, outcome)
		assert.Error(t, err)
	})
}

func TestRedisStore_GetByID(t *testing.T) {
	t.Run("round-trips the record", func(t *testing.T) {
		_, client := setupTestRedis(t)
		s := store.NewRedisStore(client, redirect.DefaultTable, redirect.DefaultPrimaryKey)
		rec := redirect.NewRecord("abc", testURL, 7200, map[string]string{"campaign": "spring"}, time.Now())
		_, _ = s.PutIfAbsent(context.Background(), rec)

		got, err := s.GetByID(context.Background(), "abc")

		require.NoError(t, err)
		assert.Equal(t, rec.ID, got.ID)
		assert.Equal(t, rec.OriginalURL, got.OriginalURL)
		assert.Equal(t, rec.TTLInSeconds, got.TTLInSeconds)
		assert.Equal(t, rec.TTL, got.TTL)
		assert.Equal(t, "spring", got.Attributes["campaign"])
	})

	t.Run("returns ErrNotFound for a missing key", func(t *testing.T) {
		_, client := setupTestRedis(t)
		s := store.NewRedisStore(client, redirect.DefaultTable, redirect.DefaultPrimaryKey)

		got, err := s.GetByID(context.Background(), "missing")

		assert.Nil(t, got)
		assert.ErrorIs(t, err, redirect.ErrNotFound)
	})

	t.Run("returns ErrNotFound once redis expires the key", func(t *testing.T) {
		mr, client := setupTestRedis(t)
		s := store.NewRedisStore(client, redirect.DefaultTable, redirect.DefaultPrimaryKey)
		_, _ = s.PutIfAbsent(context.Background(), redirect.NewRecord("abc", testURL, 3600, nil, time.Now()))

		mr.FastForward(2 * time.Hour)

		got, err := s.GetByID(context.Background(), "abc")

		assert.Nil(t, got)
		assert.ErrorIs(t, err, redirect.ErrNotFound)
	})

	t.Run("returns an error for a corrupt document", func(t *testing.T) {
		mr, client := setupTestRedis(t)
		s := store.NewRedisStore(client, redirect.DefaultTable, redirect.DefaultPrimaryKey)
		require.NoError(t, mr.Set("ShortenedUrls:abc", "not json"))

		got, err := s.GetByID(context.Background(), "abc")

		assert.Nil(t, got)
		require.Error(t, err)
		assert.NotErrorIs(t, err, redirect.ErrNotFound)
	})
}

func TestRedisStore_Ping(t *testing.T) {
	_, client := setupTestRedis(t)
	s := store.NewRedisStore(client, redirect.DefaultTable, redirect.DefaultPrimaryKey)

	assert.NoError(t, s.Ping(context.Background()))
}

package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/serroba/url-redirector/internal/redirect"
	"go.uber.org/zap"
)

// RedisCacheRepository wraps a Repository with Redis caching for reads.
// Cached entries never outlive the record's own ttl.
type RedisCacheRepository struct {
	store  redirect.Repository
	client *redis.Client
	prefix string
	ttl    time.Duration
	now    redirect.Clock
	logger *zap.Logger
}

// NewRedisCacheRepository creates a new Redis-cached repository decorator.
func NewRedisCacheRepository(
	store redirect.Repository, client *redis.Client, ttl time.Duration, logger *zap.Logger,
) *RedisCacheRepository {
	return &RedisCacheRepository{
		store:  store,
		client: client,
		prefix: "redirect_cache:",
		ttl:    ttl,
		now:    time.Now,
		logger: logger,
	}
}

// PutIfAbsent inserts into the underlying store and warms the cache on success.
func (r *RedisCacheRepository) PutIfAbsent(ctx context.Context, record *redirect.Record) (redirect.PutOutcome, error) {
	outcome, err := r.store.PutIfAbsent(ctx, record)
	if outcome != redirect.PutCreated {
		return outcome, err
	}

	r.cacheRecord(ctx, record)

	return outcome, nil
}

// GetByID checks the cache first and falls back to the underlying store.
func (r *RedisCacheRepository) GetByID(ctx context.Context, id redirect.ID) (*redirect.Record, error) {
	if rec, err := r.getFromCache(ctx, id); err == nil {
		return rec, nil
	}

	rec, err := r.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	r.cacheRecord(ctx, rec)

	return rec, nil
}

func (r *RedisCacheRepository) getFromCache(ctx context.Context, id redirect.ID) (*redirect.Record, error) {
	result, err := r.client.HGetAll(ctx, r.prefix+string(id)).Result()
	if err != nil {
		return nil, err
	}

	if len(result) == 0 {
		return nil, redirect.ErrNotFound
	}

	rec := &redirect.Record{
		ID:          id,
		OriginalURL: result["original_url"],
	}

	if err := decodeCachedFields(result, rec); err != nil {
		r.logger.Warn("discarding corrupt cache entry",
			zap.String("id", string(id)),
			zap.Error(err),
		)

		return nil, err
	}

	if rec.Expired(r.now()) {
		return nil, redirect.ErrNotFound
	}

	return rec, nil
}

func decodeCachedFields(result map[string]string, rec *redirect.Record) error {
	var err error

	if rec.TTLInSeconds, err = strconv.ParseInt(result["ttl_in_seconds"], 10, 64); err != nil {
		return fmt.Errorf("ttl_in_seconds: %w", err)
	}

	if rec.TTL, err = strconv.ParseInt(result["ttl"], 10, 64); err != nil {
		return fmt.Errorf("ttl: %w", err)
	}

	if raw := result["attributes"]; raw != "" {
		if err := json.Unmarshal([]byte(raw), &rec.Attributes); err != nil {
			return fmt.Errorf("attributes: %w", err)
		}
	}

	return nil
}

func (r *RedisCacheRepository) cacheRecord(ctx context.Context, rec *redirect.Record) {
	expireAt := r.now().Add(r.ttl)
	if rec.TTL > 0 && rec.ExpiresAtTime().Before(expireAt) {
		expireAt = rec.ExpiresAtTime()
	}

	attrs, err := json.Marshal(rec.Attributes)
	if err != nil {
		return
	}

	key := r.prefix + string(rec.ID)
	pipe := r.client.Pipeline()

	pipe.HSet(ctx, key, map[string]interface{}{
		"original_url":   rec.OriginalURL,
		"ttl_in_seconds": rec.TTLInSeconds,
		"ttl":            rec.TTL,
		"attributes":     string(attrs),
	})
	pipe.ExpireAt(ctx, key, expireAt)

	if _, err = pipe.Exec(ctx); err != nil {
		r.logger.Warn("failed to cache record", zap.String("id", string(rec.ID)), zap.Error(err))
	}
}

// Ping checks the underlying store.
func (r *RedisCacheRepository) Ping(ctx context.Context) error {
	if p, ok := r.store.(interface{ Ping(ctx context.Context) error }); ok {
		return p.Ping(ctx)
	}

	return r.client.Ping(ctx).Err()
}

// Compile-time check.
var _ redirect.Repository = (*RedisCacheRepository)(nil)

package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/serroba/url-redirector/internal/redirect"
)

// redisRecord is the JSON document stored under each key.
type redisRecord struct {
	ID           string            `json:"id"`
	OriginalURL  string            `json:"originalURL,omitempty"`
	TTLInSeconds int64             `json:"ttlInSeconds"`
	TTL          int64             `json:"ttl"`
	Attributes   map[string]string `json:"attributes,omitempty"`
}

// RedisStore is a Redis implementation of redirect.Repository.
// Each record is written with SET NX EXAT so Redis both arbitrates concurrent
// creates and expires the key at the record's ttl.
type RedisStore struct {
	client     *redis.Client
	prefix     string
	primaryKey string
}

// NewRedisStore creates a new Redis-backed record store.
func NewRedisStore(client *redis.Client, table, primaryKey string) *RedisStore {
	return &RedisStore{
		client:     client,
		prefix:     table + ":",
		primaryKey: primaryKey,
	}
}

func (r *RedisStore) PutIfAbsent(ctx context.Context, record *redirect.Record) (redirect.PutOutcome, error) {
	if err := redirect.CheckAttributes(record.Attributes, r.primaryKey); err != nil {
		return redirect.PutSchemaRejected, err
	}

	payload, err := json.Marshal(redisRecord{
		ID:           string(record.ID),
		OriginalURL:  record.OriginalURL,
		TTLInSeconds: record.TTLInSeconds,
		TTL:          record.TTL,
		Attributes:   record.Attributes,
	})
	if err != nil {
		return redirect.PutFailed, fmt.Errorf("encode record: %w", err)
	}

	err = r.client.SetArgs(ctx, r.key(record.ID), payload, redis.SetArgs{
		Mode:     "NX",
		ExpireAt: record.ExpiresAtTime(),
	}).Err()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return redirect.PutConflict, redirect.ErrConflict
		}

		return redirect.PutFailed, err
	}

	return redirect.PutCreated, nil
}

func (r *RedisStore) GetByID(ctx context.Context, id redirect.ID) (*redirect.Record, error) {
	payload, err := r.client.Get(ctx, r.key(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, redirect.ErrNotFound
		}

		return nil, err
	}

	var doc redisRecord
	if err = json.Unmarshal(payload, &doc); err != nil {
		return nil, fmt.Errorf("decode record %q: %w", id, err)
	}

	rec := &redirect.Record{
		ID:           id,
		OriginalURL:  doc.OriginalURL,
		TTLInSeconds: doc.TTLInSeconds,
		TTL:          doc.TTL,
		Attributes:   doc.Attributes,
	}

	// Redis expiry is lazy on replicas; never serve a record past its ttl.
	if rec.Expired(time.Now()) {
		return nil, redirect.ErrNotFound
	}

	return rec, nil
}

// Ping checks Redis connectivity.
func (r *RedisStore) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *RedisStore) key(id redirect.ID) string {
	return r.prefix + string(id)
}

var _ redirect.Repository = (*RedisStore)(nil)

package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/serroba/url-redirector/internal/redirect"
)

// PostgresStore is a PostgreSQL implementation of redirect.Repository.
// Postgres has no native expiry, so expired rows are filtered on read and
// may be overwritten by a later insert for the same key.
type PostgresStore struct {
	pool       *pgxpool.Pool
	table      string
	keyColumn  string
	primaryKey string
	now        redirect.Clock
}

// NewPostgresStore creates a new PostgreSQL-backed record store.
func NewPostgresStore(pool *pgxpool.Pool, table, primaryKey string) *PostgresStore {
	return &PostgresStore{
		pool:       pool,
		table:      pgx.Identifier{table}.Sanitize(),
		keyColumn:  pgx.Identifier{primaryKey}.Sanitize(),
		primaryKey: primaryKey,
		now:        time.Now,
	}
}

// EnsureSchema creates the records table when it does not exist yet.
func (p *PostgresStore) EnsureSchema(ctx context.Context) error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %[1]s (
			%[2]s           TEXT PRIMARY KEY,
			original_url    TEXT,
			ttl_in_seconds  BIGINT NOT NULL,
			ttl             BIGINT NOT NULL,
			attributes      JSONB NOT NULL DEFAULT '{}'::jsonb
		)
	`, p.table, p.keyColumn)

	_, err := p.pool.Exec(ctx, query)

	return err
}

func (p *PostgresStore) PutIfAbsent(ctx context.Context, record *redirect.Record) (redirect.PutOutcome, error) {
	if err := redirect.CheckAttributes(record.Attributes, p.primaryKey); err != nil {
		return redirect.PutSchemaRejected, err
	}

	// The update branch only fires for rows whose ttl has passed.
	query := fmt.Sprintf(`
		INSERT INTO %[1]s AS t (%[2]s, original_url, ttl_in_seconds, ttl, attributes)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (%[2]s) DO UPDATE
		SET original_url = EXCLUDED.original_url,
			ttl_in_seconds = EXCLUDED.ttl_in_seconds,
			ttl = EXCLUDED.ttl,
			attributes = EXCLUDED.attributes
		WHERE t.ttl <= $6
	`, p.table, p.keyColumn)

	attrs := record.Attributes
	if attrs == nil {
		attrs = map[string]string{}
	}

	tag, err := p.pool.Exec(ctx, query,
		string(record.ID),
		record.OriginalURL,
		record.TTLInSeconds,
		record.TTL,
		attrs,
		p.now().Unix(),
	)
	if err != nil {
		return redirect.PutFailed, err
	}

	if tag.RowsAffected() == 0 {
		return redirect.PutConflict, redirect.ErrConflict
	}

	return redirect.PutCreated, nil
}

func (p *PostgresStore) GetByID(ctx context.Context, id redirect.ID) (*redirect.Record, error) {
	query := fmt.Sprintf(`
		SELECT original_url, ttl_in_seconds, ttl, attributes
		FROM %[1]s
		WHERE %[2]s = $1 AND ttl > $2
	`, p.table, p.keyColumn)

	rec := redirect.Record{ID: id}

	var originalURL *string

	err := p.pool.QueryRow(ctx, query, string(id), p.now().Unix()).Scan(
		&originalURL,
		&rec.TTLInSeconds,
		&rec.TTL,
		&rec.Attributes,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, redirect.ErrNotFound
		}

		return nil, err
	}

	if originalURL != nil {
		rec.OriginalURL = *originalURL
	}

	return &rec, nil
}

// Ping checks database connectivity.
func (p *PostgresStore) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

var _ redirect.Repository = (*PostgresStore)(nil)

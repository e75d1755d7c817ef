package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/fwojciec/catalogqa"
)

// DefaultTTL is how long a cache key lives after its first write.
const DefaultTTL = 7 * 24 * time.Hour

// Compile-time interface verification.
var _ catalogqa.Cache = (*Cache)(nil)

// Cache implements catalogqa.Cache using SQLite.
//
// Expiry is tracked per key. The first write of a key stamps its expiry and
// later field writes leave it unchanged, so every field of a key expires
// together. Expired keys read as absent and are replaced on the next write.
type Cache struct {
	db  *DB
	ttl time.Duration
	now func() time.Time
}

// CacheOption configures a Cache.
type CacheOption func(*Cache)

// WithTTL sets the key lifetime. Zero disables expiry.
func WithTTL(ttl time.Duration) CacheOption {
	return func(c *Cache) {
		c.ttl = ttl
	}
}

// WithClock overrides the time source used for expiry.
func WithClock(now func() time.Time) CacheOption {
	return func(c *Cache) {
		c.now = now
	}
}

// NewCache creates a new Cache.
func NewCache(db *DB, opts ...CacheOption) *Cache {
	c := &Cache{
		db:  db,
		ttl: DefaultTTL,
		now: time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CacheStats summarizes the contents of the cache.
type CacheStats struct {
	Keys    int
	Fields  int
	Expired int
}

// Get returns the value stored under key and field.
func (c *Cache) Get(ctx context.Context, key, field string) ([]byte, error) {
	var value []byte
	err := c.db.QueryRowContext(ctx, `
		SELECT f.value
		FROM cache_fields f
		JOIN cache_keys k ON k.key = f.key
		WHERE f.key = ? AND f.field = ? AND (k.expires_at IS NULL OR k.expires_at > ?)
	`, key, field, c.nowMillis()).Scan(&value)

	if err == sql.ErrNoRows {
		return nil, catalogqa.Errorf(catalogqa.ENOTFOUND, "cache field %s/%s not found", key, field)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read cache field: %w", err)
	}

	return value, nil
}

// GetAll returns every field stored under key.
func (c *Cache) GetAll(ctx context.Context, key string) (map[string][]byte, error) {
	rows, err := c.db.QueryContext(ctx, `
		SELECT f.field, f.value
		FROM cache_fields f
		JOIN cache_keys k ON k.key = f.key
		WHERE f.key = ? AND (k.expires_at IS NULL OR k.expires_at > ?)
	`, key, c.nowMillis())
	if err != nil {
		return nil, fmt.Errorf("failed to read cache key: %w", err)
	}
	defer rows.Close()

	fields := make(map[string][]byte)
	for rows.Next() {
		var field string
		var value []byte
		if err := rows.Scan(&field, &value); err != nil {
			return nil, fmt.Errorf("failed to scan cache field: %w", err)
		}
		fields[field] = value
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return fields, nil
}

// Set stores value under key and field in a single transaction.
func (c *Cache) Set(ctx context.Context, key, field string, value []byte) error {
	if key == "" {
		return catalogqa.Errorf(catalogqa.EINVALID, "cache key required")
	}
	if field == "" {
		return catalogqa.Errorf(catalogqa.EINVALID, "cache field required")
	}
	if value == nil {
		value = []byte{}
	}

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := c.now().UTC()
	nowMillis := now.UnixMilli()

	// Replace an expired key so the new write starts a fresh lifetime.
	if _, err := tx.ExecContext(ctx, `
		DELETE FROM cache_fields
		WHERE key IN (SELECT key FROM cache_keys WHERE key = ? AND expires_at IS NOT NULL AND expires_at <= ?)
	`, key, nowMillis); err != nil {
		return fmt.Errorf("failed to clear expired fields: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `
		DELETE FROM cache_keys WHERE key = ? AND expires_at IS NOT NULL AND expires_at <= ?
	`, key, nowMillis); err != nil {
		return fmt.Errorf("failed to clear expired key: %w", err)
	}

	var expiresAt any
	if c.ttl > 0 {
		expiresAt = now.Add(c.ttl).UnixMilli()
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO cache_keys (key, expires_at, created_at)
		VALUES (?, ?, ?)
		ON CONFLICT(key) DO NOTHING
	`, key, expiresAt, now.Format(time.RFC3339)); err != nil {
		return fmt.Errorf("failed to write cache key: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO cache_fields (key, field, value, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(key, field) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, key, field, value, now.Format(time.RFC3339)); err != nil {
		return fmt.Errorf("failed to write cache field: %w", err)
	}

	return tx.Commit()
}

// DeleteExpired removes every expired key and its fields.
// Returns the number of keys removed.
func (c *Cache) DeleteExpired(ctx context.Context) (int, error) {
	return c.deleteWhere(ctx, "expires_at IS NOT NULL AND expires_at <= ?", c.nowMillis())
}

// DeleteAll removes every key and field.
// Returns the number of keys removed.
func (c *Cache) DeleteAll(ctx context.Context) (int, error) {
	return c.deleteWhere(ctx, "1=1")
}

func (c *Cache) deleteWhere(ctx context.Context, cond string, args ...any) (int, error) {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		"DELETE FROM cache_fields WHERE key IN (SELECT key FROM cache_keys WHERE "+cond+")", args...); err != nil {
		return 0, fmt.Errorf("failed to delete cache fields: %w", err)
	}

	result, err := tx.ExecContext(ctx, "DELETE FROM cache_keys WHERE "+cond, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to delete cache keys: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}

	return int(n), nil
}

// Stats counts keys, fields, and expired keys.
func (c *Cache) Stats(ctx context.Context) (*CacheStats, error) {
	var stats CacheStats
	err := c.db.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM cache_keys),
			(SELECT COUNT(*) FROM cache_fields),
			(SELECT COUNT(*) FROM cache_keys WHERE expires_at IS NOT NULL AND expires_at <= ?)
	`, c.nowMillis()).Scan(&stats.Keys, &stats.Fields, &stats.Expired)
	if err != nil {
		return nil, fmt.Errorf("failed to read cache stats: %w", err)
	}
	return &stats, nil
}

func (c *Cache) nowMillis() int64 {
	return c.now().UTC().UnixMilli()
}

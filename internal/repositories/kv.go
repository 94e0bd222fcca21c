package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"maps"
	"slices"
	"time"
)

// KVRepository stores string values by key in the kv_entries table.
//
// Multi-key writes are atomic: either every entry is written or none is.
type KVRepository struct {
	db *sql.DB
}

// NewKVRepository creates a new [KVRepository] with the given database connection
func NewKVRepository(db *sql.DB) *KVRepository {
	return &KVRepository{db: db}
}

// Get returns the value for key and whether it exists.
func (r *KVRepository) Get(key string) (string, bool, error) {
	var value string
	err := r.db.QueryRow(`SELECT value FROM kv_entries WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to query key %s: %w", key, err)
	}
	return value, true, nil
}

// SetMany upserts every entry in one transaction.
func (r *KVRepository) SetMany(entries map[string]string) error {
	if len(entries) == 0 {
		return nil
	}

	query := `
		INSERT INTO kv_entries (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`

	now := time.Now().UTC()
	return withTx(r.db, func(tx *sql.Tx) error {
		for _, key := range slices.Sorted(maps.Keys(entries)) {
			if _, err := tx.Exec(query, key, entries[key], now); err != nil {
				return fmt.Errorf("failed to write key %s: %w", key, err)
			}
		}
		return nil
	})
}

// DeleteMany removes every key in one transaction. Missing keys are ignored.
func (r *KVRepository) DeleteMany(keys ...string) error {
	if len(keys) == 0 {
		return nil
	}

	return withTx(r.db, func(tx *sql.Tx) error {
		for _, key := range keys {
			if _, err := tx.Exec(`DELETE FROM kv_entries WHERE key = ?`, key); err != nil {
				return fmt.Errorf("failed to delete key %s: %w", key, err)
			}
		}
		return nil
	})
}

// Keys lists stored keys in ascending order.
func (r *KVRepository) Keys() ([]string, error) {
	rows, err := r.db.Query(`SELECT key FROM kv_entries ORDER BY key`)
	if err != nil {
		return nil, fmt.Errorf("failed to query keys: %w", err)
	}
	defer rows.Close()

	keys := []string{}
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("failed to scan key: %w", err)
		}
		keys = append(keys, key)
	}
	return keys, rows.Err()
}

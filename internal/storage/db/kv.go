package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/DonovanMods/instance-launcher/internal/storage/kv"
)

var _ kv.Store = (*DB)(nil)

// Get returns the value stored under key, or nil if there is none
func (d *DB) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := d.QueryRowContext(ctx, "SELECT value FROM kv WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting key %s: %w", key, err)
	}
	if value == nil {
		value = []byte{}
	}
	return value, nil
}

// Insert stores value under key, replacing any previous value
func (d *DB) Insert(ctx context.Context, key string, value []byte) error {
	if _, err := d.ExecContext(ctx, upsertKV, key, nonNil(value)); err != nil {
		return fmt.Errorf("inserting key %s: %w", key, err)
	}
	return nil
}

// ApplyBatch applies every write in batch within one transaction
func (d *DB) ApplyBatch(ctx context.Context, batch *kv.Batch) error {
	tx, err := d.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning batch: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	for _, op := range batch.Ops() {
		if op.Delete {
			if _, err := tx.ExecContext(ctx, "DELETE FROM kv WHERE key = ?", op.Key); err != nil {
				return fmt.Errorf("removing key %s: %w", op.Key, err)
			}
			continue
		}
		if _, err := tx.ExecContext(ctx, upsertKV, op.Key, nonNil(op.Value)); err != nil {
			return fmt.Errorf("inserting key %s: %w", op.Key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing batch: %w", err)
	}
	return nil
}

const upsertKV = `
	INSERT INTO kv (key, value, updated_at)
	VALUES (?, ?, CURRENT_TIMESTAMP)
	ON CONFLICT(key) DO UPDATE SET
		value = excluded.value,
		updated_at = CURRENT_TIMESTAMP
`

func nonNil(b []byte) []byte {
	if b == nil {
		return []byte{}
	}
	return b
}

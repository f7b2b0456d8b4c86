package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"wear_relay/internal/models"
)

// ErrDataItemNotFound is returned by Get when no value exists for a path.
var ErrDataItemNotFound = errors.New("data item not found")

// DataItemSQLite keeps one row per data-sync path.
type DataItemSQLite struct {
	db *sql.DB
}

func NewDataItemSQLite(db *sql.DB) *DataItemSQLite {
	return &DataItemSQLite{db: db}
}

var _ DataItemRepo = (*DataItemSQLite)(nil)

const (
	upsertDataItemSQL = `
		INSERT INTO data_items (path, payload, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			payload=excluded.payload,
			updated_at=excluded.updated_at
	`

	selectDataItemSQL = `SELECT path, payload, updated_at FROM data_items WHERE path=?`
)

// Upsert replaces the value stored under item.Path.
func (r *DataItemSQLite) Upsert(ctx context.Context, item models.DataItem) error {
	if item.Path == "" {
		return errors.New("data item path is empty")
	}
	ts := item.UpdatedAt
	if ts.IsZero() {
		ts = time.Now().UTC()
	} else {
		ts = ts.UTC()
	}
	if _, err := r.db.ExecContext(ctx, upsertDataItemSQL, item.Path, item.Payload, ts); err != nil {
		return fmt.Errorf("upsert data item %q: %w", item.Path, err)
	}
	return nil
}

// Get returns the current item for path or ErrDataItemNotFound.
func (r *DataItemSQLite) Get(ctx context.Context, path string) (models.DataItem, error) {
	var item models.DataItem
	err := r.db.QueryRowContext(ctx, selectDataItemSQL, path).Scan(&item.Path, &item.Payload, &item.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.DataItem{}, ErrDataItemNotFound
		}
		return models.DataItem{}, fmt.Errorf("select data item %q: %w", path, err)
	}
	item.UpdatedAt = item.UpdatedAt.UTC()
	return item, nil
}

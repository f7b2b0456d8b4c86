package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"wear_relay/internal/models"

	"github.com/redis/go-redis/v9"
)

// DataItemChannel is the Pub/Sub channel that announces data item updates.
const DataItemChannel = "datasync"

const dataItemKeyPrefix = "datasync:"

// DataItemRedis keeps data items in Redis and announces each update.
type DataItemRedis struct {
	rdb *redis.Client
}

// NewDataItemRedis connects from a URL such as "redis://localhost:6379/0".
func NewDataItemRedis(redisURL string) (*DataItemRedis, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}
	return &DataItemRedis{rdb: redis.NewClient(opts)}, nil
}

var _ DataItemRepo = (*DataItemRedis)(nil)

type redisDataItem struct {
	Path      string    `json:"path"`
	Payload   []byte    `json:"payload"`
	UpdatedAt time.Time `json:"updated_at"`
}

func dataItemKey(path string) string { return dataItemKeyPrefix + path }

// Ping verifies the connection.
func (r *DataItemRedis) Ping(ctx context.Context) error {
	return r.rdb.Ping(ctx).Err()
}

// Close closes the connection pool.
func (r *DataItemRedis) Close() error {
	return r.rdb.Close()
}

// Upsert stores the item and publishes its path on DataItemChannel.
func (r *DataItemRedis) Upsert(ctx context.Context, item models.DataItem) error {
	if item.Path == "" {
		return errors.New("data item path is empty")
	}
	ts := item.UpdatedAt
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	b, err := json.Marshal(redisDataItem{Path: item.Path, Payload: item.Payload, UpdatedAt: ts.UTC()})
	if err != nil {
		return fmt.Errorf("marshal data item %q: %w", item.Path, err)
	}

	pipe := r.rdb.TxPipeline()
	pipe.Set(ctx, dataItemKey(item.Path), b, 0)
	pipe.Publish(ctx, DataItemChannel, item.Path)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("store data item %q: %w", item.Path, err)
	}
	return nil
}

// Get returns the current item for path or ErrDataItemNotFound.
func (r *DataItemRedis) Get(ctx context.Context, path string) (models.DataItem, error) {
	raw, err := r.rdb.Get(ctx, dataItemKey(path)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return models.DataItem{}, ErrDataItemNotFound
		}
		return models.DataItem{}, fmt.Errorf("get data item %q: %w", path, err)
	}
	var stored redisDataItem
	if err := json.Unmarshal(raw, &stored); err != nil {
		return models.DataItem{}, fmt.Errorf("decode data item %q: %w", path, err)
	}
	return models.DataItem{Path: stored.Path, Payload: stored.Payload, UpdatedAt: stored.UpdatedAt.UTC()}, nil
}

package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/go-redis/redis/v8"
	"github.com/jssroberto/teraspot/internal/alerts"
	"github.com/jssroberto/teraspot/internal/models"
	"go.uber.org/zap"
)

// DefaultSpaceKeyPrefix current-state keys are {prefix}{space_id}
const DefaultSpaceKeyPrefix = "teraspot:space:"

// listPageSize SCAN COUNT hint for List/ListByStatus
const listPageSize = 200

// CurrentStateRepository latest SpaceItem per space, one JSON value per key
type CurrentStateRepository struct {
	client *redis.Client
	prefix string
	logger *zap.Logger
}

// NewCurrentStateRepository empty prefix falls back to DefaultSpaceKeyPrefix
func NewCurrentStateRepository(client *redis.Client, prefix string, logger *zap.Logger) *CurrentStateRepository {
	if prefix == "" {
		prefix = DefaultSpaceKeyPrefix
	}
	return &CurrentStateRepository{
		client: client,
		prefix: prefix,
		logger: logger,
	}
}

func (r *CurrentStateRepository) key(spaceID string) string {
	return r.prefix + spaceID
}

// Put overwrites the current state of one space
func (r *CurrentStateRepository) Put(ctx context.Context, item models.SpaceItem) error {
	data, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("failed to marshal space %s: %w", item.SpaceID, err)
	}
	if err := r.client.Set(ctx, r.key(item.SpaceID), data, 0).Err(); err != nil {
		return fmt.Errorf("failed to save space %s: %w", item.SpaceID, err)
	}
	return nil
}

// Get returns models.ErrNotFound for unknown spaces
func (r *CurrentStateRepository) Get(ctx context.Context, spaceID string) (*models.SpaceItem, error) {
	data, err := r.client.Get(ctx, r.key(spaceID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get space %s: %w", spaceID, err)
	}

	var item models.SpaceItem
	if err := json.Unmarshal(data, &item); err != nil {
		return nil, fmt.Errorf("failed to unmarshal space %s: %w", spaceID, err)
	}
	return &item, nil
}

// Scan one SCAN page. The returned cursor is the continuation token;
// 0 means the iteration is complete. Keys that vanish between SCAN and
// MGET are skipped, undecodable values are logged and skipped.
func (r *CurrentStateRepository) Scan(ctx context.Context, cursor uint64, count int64) ([]models.SpaceItem, uint64, error) {
	keys, next, err := r.client.Scan(ctx, cursor, r.prefix+"*", count).Result()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to scan current state: %w", err)
	}
	if len(keys) == 0 {
		return nil, next, nil
	}

	values, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read current state page: %w", err)
	}

	items := make([]models.SpaceItem, 0, len(values))
	for i, v := range values {
		s, ok := v.(string)
		if !ok {
			continue
		}
		var item models.SpaceItem
		if err := json.Unmarshal([]byte(s), &item); err != nil {
			r.logger.Warn("Skipping malformed current-state value",
				zap.String("key", keys[i]),
				zap.Error(err),
			)
			continue
		}
		items = append(items, item)
	}
	return items, next, nil
}

// List every space, sorted by space_id
func (r *CurrentStateRepository) List(ctx context.Context) ([]models.SpaceItem, error) {
	return r.list(ctx, func(models.SpaceItem) bool { return true })
}

// ListByStatus spaces whose status matches exactly
func (r *CurrentStateRepository) ListByStatus(ctx context.Context, status string) ([]models.SpaceItem, error) {
	return r.list(ctx, func(item models.SpaceItem) bool { return item.Status == status })
}

func (r *CurrentStateRepository) list(ctx context.Context, keep func(models.SpaceItem) bool) ([]models.SpaceItem, error) {
	return collectSpaces(ctx, r, listPageSize, keep)
}

// collectSpaces drains every page of table, keeping the first copy of each
// space_id (SCAN may return a key more than once), sorted by space_id
func collectSpaces(ctx context.Context, table alerts.Scanner, pageSize int64, keep func(models.SpaceItem) bool) ([]models.SpaceItem, error) {
	var out []models.SpaceItem
	seen := make(map[string]struct{})
	var cursor uint64
	for {
		page, next, err := table.Scan(ctx, cursor, pageSize)
		if err != nil {
			return nil, err
		}
		for _, item := range page {
			if _, dup := seen[item.SpaceID]; dup {
				continue
			}
			seen[item.SpaceID] = struct{}{}
			if keep(item) {
				out = append(out, item)
			}
		}
		if next == 0 {
			break
		}
		cursor = next
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SpaceID < out[j].SpaceID })
	return out, nil
}

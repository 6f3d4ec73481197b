package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/meridian-ai/prodscout/internal/domain"
)

// store is the consumer interface for the Redis-backed catalog (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Scan(ctx context.Context, pattern string) ([]string, error)
}

// RedisRepo serves catalog items from a key-value store. Items live as JSON
// documents under keyPrefix so several instances can share one catalog.
type RedisRepo struct {
	store     store
	keyPrefix string
	logger    *zap.Logger
}

// NewRedisRepo creates a KV-backed catalog repo.
func NewRedisRepo(s store, keyPrefix string, logger *zap.Logger) *RedisRepo {
	return &RedisRepo{store: s, keyPrefix: keyPrefix + "catalog:", logger: logger}
}

// Seed writes items into the store, overwriting existing entries.
func (r *RedisRepo) Seed(ctx context.Context, items []domain.Item) error {
	for _, item := range items {
		data, err := json.Marshal(item)
		if err != nil {
			return fmt.Errorf("marshal item %s: %w", item.ID, err)
		}
		if err := r.store.Set(ctx, r.keyPrefix+item.ID, data); err != nil {
			return fmt.Errorf("seed item %s: %w", item.ID, err)
		}
	}
	return nil
}

// List scans the catalog prefix and returns matching items ordered by ID.
func (r *RedisRepo) List(ctx context.Context, filter domain.Filter) ([]domain.Item, error) {
	keys, err := r.store.Scan(ctx, r.keyPrefix+"*")
	if err != nil {
		return nil, fmt.Errorf("scan catalog: %w", err)
	}
	sort.Strings(keys)

	var out []domain.Item
	for _, key := range keys {
		data, err := r.store.Get(ctx, key)
		if err != nil {
			// A key can expire between SCAN and GET; skip it.
			r.logger.Warn("Failed to read catalog item", zap.String("key", key), zap.Error(err))
			continue
		}

		var item domain.Item
		if err := json.Unmarshal(data, &item); err != nil {
			r.logger.Warn("Failed to parse catalog item", zap.String("key", key), zap.Error(err))
			continue
		}

		if filter.Matches(item) {
			out = append(out, item)
		}
	}
	return out, nil
}

// Get returns a single item by ID.
func (r *RedisRepo) Get(ctx context.Context, id string) (domain.Item, error) {
	data, err := r.store.Get(ctx, r.keyPrefix+id)
	if err != nil {
		return domain.Item{}, fmt.Errorf("item %q: %w", id, domain.ErrNotFound)
	}

	var item domain.Item
	if err := json.Unmarshal(data, &item); err != nil {
		return domain.Item{}, fmt.Errorf("parse item %q: %w", id, err)
	}
	return item, nil
}

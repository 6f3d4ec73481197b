// Package catalog provides read-only catalog item stores.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/meridian-ai/prodscout/internal/domain"
)

// MemoryRepo serves catalog items from process memory. The corpus is small
// enough for exhaustive scans; filtering happens before any scoring.
type MemoryRepo struct {
	items []domain.Item
}

// NewMemoryRepo creates a repo over the given items, ordered by ID.
func NewMemoryRepo(items []domain.Item) *MemoryRepo {
	sorted := make([]domain.Item, len(items))
	copy(sorted, items)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })
	return &MemoryRepo{items: sorted}
}

// LoadFile reads a JSON array of items from disk and builds a repo.
func LoadFile(path string) (*MemoryRepo, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", path, err)
	}

	var items []domain.Item
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("parse catalog %s: %w", path, err)
	}

	return NewMemoryRepo(items), nil
}

// List returns all items matching the filter, ordered by ID.
func (r *MemoryRepo) List(_ context.Context, filter domain.Filter) ([]domain.Item, error) {
	var out []domain.Item
	for _, item := range r.items {
		if filter.Matches(item) {
			out = append(out, item)
		}
	}
	return out, nil
}

// Get returns a single item by ID.
func (r *MemoryRepo) Get(_ context.Context, id string) (domain.Item, error) {
	i := sort.Search(len(r.items), func(i int) bool { return r.items[i].ID >= id })
	if i < len(r.items) && r.items[i].ID == id {
		return r.items[i], nil
	}
	return domain.Item{}, fmt.Errorf("item %q: %w", id, domain.ErrNotFound)
}

// Len returns the catalog size.
func (r *MemoryRepo) Len() int { return len(r.items) }

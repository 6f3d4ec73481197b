package resultcache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/meridian-ai/prodscout/internal/domain"
	kvmemory "github.com/meridian-ai/prodscout/internal/kv/memory"
)

func sampleResults() []domain.RetrievalResult {
	return []domain.RetrievalResult{
		{Item: domain.Item{ID: "a", Name: "Alpha"}, Similarity: 0.9, Rank: 1},
		{Item: domain.Item{ID: "b", Name: "Beta"}, Similarity: 0.8, Rank: 2},
	}
}

func TestGetOrCompute_MissThenHit(t *testing.T) {
	ctx := context.Background()
	cache := New(kvmemory.NewStore(), "prodscout:", time.Minute, nil, zap.NewNop())

	var calls int
	compute := func(context.Context) ([]domain.RetrievalResult, error) {
		calls++
		return sampleResults(), nil
	}

	first, err := cache.GetOrCompute(ctx, "q", domain.Filter{}, 5, 0.2, compute)
	if err != nil {
		t.Fatalf("first: %v", err)
	}
	second, err := cache.GetOrCompute(ctx, "q", domain.Filter{}, 5, 0.2, compute)
	if err != nil {
		t.Fatalf("second: %v", err)
	}

	if calls != 1 {
		t.Fatalf("expected 1 compute call, got %d", calls)
	}
	if len(first) != 2 || len(second) != 2 || second[0].Item.ID != "a" {
		t.Errorf("cached results mismatch: %v vs %v", first, second)
	}
}

func TestGetOrCompute_DistinctKeys(t *testing.T) {
	ctx := context.Background()
	cache := New(kvmemory.NewStore(), "prodscout:", time.Minute, nil, zap.NewNop())

	var calls int
	compute := func(context.Context) ([]domain.RetrievalResult, error) {
		calls++
		return sampleResults(), nil
	}

	cat := "laptop"
	_, _ = cache.GetOrCompute(ctx, "q", domain.Filter{}, 5, 0.2, compute)
	_, _ = cache.GetOrCompute(ctx, "q", domain.Filter{Category: &cat}, 5, 0.2, compute)
	_, _ = cache.GetOrCompute(ctx, "q", domain.Filter{}, 3, 0.2, compute)

	if calls != 3 {
		t.Fatalf("expected 3 compute calls for distinct keys, got %d", calls)
	}
}

func TestGetOrCompute_ErrorNotCached(t *testing.T) {
	ctx := context.Background()
	cache := New(kvmemory.NewStore(), "prodscout:", time.Minute, nil, zap.NewNop())

	wantErr := errors.New("compute failed")
	calls := 0
	failing := func(context.Context) ([]domain.RetrievalResult, error) {
		calls++
		if calls == 1 {
			return nil, wantErr
		}
		return sampleResults(), nil
	}

	if _, err := cache.GetOrCompute(ctx, "q", domain.Filter{}, 5, 0, failing); !errors.Is(err, wantErr) {
		t.Fatalf("expected compute error, got %v", err)
	}
	results, err := cache.GetOrCompute(ctx, "q", domain.Filter{}, 5, 0, failing)
	if err != nil {
		t.Fatalf("retry: %v", err)
	}
	if len(results) != 2 {
		t.Errorf("expected recomputed results, got %v", results)
	}
}

func TestGetOrCompute_SingleFlight(t *testing.T) {
	ctx := context.Background()
	cache := New(kvmemory.NewStore(), "prodscout:", time.Minute, nil, zap.NewNop())

	var computes atomic.Int32
	slow := func(context.Context) ([]domain.RetrievalResult, error) {
		computes.Add(1)
		time.Sleep(20 * time.Millisecond)
		return sampleResults(), nil
	}

	var wg sync.WaitGroup
	for n := 0; n < 8; n++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := cache.GetOrCompute(ctx, "q", domain.Filter{}, 5, 0.2, slow); err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if got := computes.Load(); got != 1 {
		t.Fatalf("expected exactly 1 compute under concurrency, got %d", got)
	}
}

func TestGetOrCompute_TTLExpiry(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	store := kvmemory.NewStore().WithClock(func() time.Time { return now })
	cache := New(store, "prodscout:", time.Minute, nil, zap.NewNop())

	var calls int
	compute := func(context.Context) ([]domain.RetrievalResult, error) {
		calls++
		return sampleResults(), nil
	}

	_, _ = cache.GetOrCompute(ctx, "q", domain.Filter{}, 5, 0.2, compute)
	now = now.Add(2 * time.Minute)
	_, _ = cache.GetOrCompute(ctx, "q", domain.Filter{}, 5, 0.2, compute)

	if calls != 2 {
		t.Fatalf("expected recompute after TTL, got %d calls", calls)
	}
}

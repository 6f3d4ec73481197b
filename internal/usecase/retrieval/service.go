// Package retrieval implements the single-pass similarity search over the
// catalog: embed the query, score every eligible item, threshold, rank.
package retrieval

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/meridian-ai/prodscout/internal/domain"
	"github.com/meridian-ai/prodscout/internal/domain/similarity"
)

// Service handles exhaustive-scan similarity retrieval.
type Service struct {
	catalog Catalog
	embed   Embedder
	cache   ResultCache
}

// New creates a retrieval service.
func New(catalog Catalog, embed Embedder) *Service {
	return &Service{catalog: catalog, embed: embed}
}

// WithCache attaches an optional result cache.
func (s *Service) WithCache(cache ResultCache) *Service {
	s.cache = cache
	return s
}

// Retrieve returns the top-K items scoring at least minSimilarity against the
// query, ordered by similarity descending with item-ID tie-break. An embedding
// failure aborts the whole call; there is never a partial top-K.
func (s *Service) Retrieve(
	ctx context.Context, query string, filter domain.Filter, topK int, minSimilarity float64,
) ([]domain.RetrievalResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("%w: query must not be empty", domain.ErrInvalidArgument)
	}
	if topK <= 0 {
		return nil, fmt.Errorf("%w: top_k must be positive, got %d", domain.ErrInvalidArgument, topK)
	}

	compute := func(ctx context.Context) ([]domain.RetrievalResult, error) {
		return s.retrieve(ctx, query, filter, topK, minSimilarity)
	}

	if s.cache != nil {
		return s.cache.GetOrCompute(ctx, query, filter, topK, minSimilarity, compute)
	}
	return compute(ctx)
}

func (s *Service) retrieve(
	ctx context.Context, query string, filter domain.Filter, topK int, minSimilarity float64,
) ([]domain.RetrievalResult, error) {
	queryEmb, err := s.embed.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", asEmbeddingUnavailable(err))
	}

	items, err := s.catalog.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list catalog: %w", err)
	}

	scored := make([]domain.RetrievalResult, 0, len(items))
	for _, item := range items {
		itemEmb, err := s.embed.Embed(ctx, item.SearchText())
		if err != nil {
			return nil, fmt.Errorf("embed item %s: %w", item.ID, asEmbeddingUnavailable(err))
		}

		score, err := similarity.Cosine(queryEmb.Embedding, itemEmb.Embedding)
		if err != nil {
			return nil, fmt.Errorf("score item %s: %w", item.ID, err)
		}

		if score < minSimilarity {
			continue
		}
		scored = append(scored, domain.RetrievalResult{Item: item, Similarity: score})
	}

	// Similarity descending, item ID ascending on ties: reproducible ordering
	// independent of catalog arrival order.
	sort.Slice(scored, func(i, j int) bool {
		if scored[i].Similarity != scored[j].Similarity {
			return scored[i].Similarity > scored[j].Similarity
		}
		return scored[i].Item.ID < scored[j].Item.ID
	})

	if len(scored) > topK {
		scored = scored[:topK]
	}
	for i := range scored {
		scored[i].Rank = i + 1
	}

	return scored, nil
}

// asEmbeddingUnavailable folds any provider failure into the sentinel the
// transport layer maps to 502. Context errors keep their identity so
// cancellation is not mistaken for a provider outage.
func asEmbeddingUnavailable(err error) error {
	if errors.Is(err, domain.ErrEmbeddingUnavailable) ||
		errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return fmt.Errorf("%w: %s", domain.ErrEmbeddingUnavailable, err)
}

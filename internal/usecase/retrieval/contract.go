package retrieval

import (
	"context"

	"github.com/meridian-ai/prodscout/internal/domain"
)

// Catalog reads eligible items. Structural filtering happens in the store,
// before any embedding or scoring.
type Catalog interface {
	List(ctx context.Context, filter domain.Filter) ([]domain.Item, error)
}

// Embedder vectorizes text into embeddings.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}

// ResultCache memoizes full retrieval responses per (query, filter, topK,
// minSimilarity) key. Optional; nil disables caching.
type ResultCache interface {
	GetOrCompute(
		ctx context.Context,
		query string,
		filter domain.Filter,
		topK int,
		minSimilarity float64,
		compute func(ctx context.Context) ([]domain.RetrievalResult, error),
	) ([]domain.RetrievalResult, error)
}

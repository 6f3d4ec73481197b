// Package prodscout is an embedded product-research engine: similarity
// retrieval over a small catalog plus an LLM pipeline that decomposes a
// question, researches its parts in parallel, and synthesizes a cited answer.
package prodscout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/meridian-ai/prodscout/internal/domain"
	"github.com/meridian-ai/prodscout/internal/kv"
	kvMemory "github.com/meridian-ai/prodscout/internal/kv/memory"
	kvRedis "github.com/meridian-ai/prodscout/internal/kv/redis"
	catalogrepo "github.com/meridian-ai/prodscout/internal/repository/catalog"
	"github.com/meridian-ai/prodscout/internal/repository/embcache"
	"github.com/meridian-ai/prodscout/internal/repository/resultcache"
	"github.com/meridian-ai/prodscout/internal/usecase/decompose"
	researchuc "github.com/meridian-ai/prodscout/internal/usecase/research"
	retrievaluc "github.com/meridian-ai/prodscout/internal/usecase/retrieval"
	"github.com/meridian-ai/prodscout/internal/usecase/synthesis"
)

const defaultReadinessTimeout = 10 * time.Second

// Client is the prodscout library entry point.
type Client struct {
	store     kv.Store
	retriever *retrievaluc.Service
	research  *researchuc.Service

	defaultTopK   int
	maxTopK       int
	minSimilarity float64
}

// New creates a Client over the configured catalog and providers.
// The provided context is used for the initial store readiness check.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := defaultClientConfig()
	for _, o := range opts {
		o(cfg)
	}

	catalog, err := buildCatalog(cfg)
	if err != nil {
		return nil, err
	}

	store, err := createStore(cfg)
	if err != nil {
		return nil, err
	}
	if err := store.WaitForReady(ctx, defaultReadinessTimeout); err != nil {
		store.Close()
		return nil, fmt.Errorf("prodscout: store not ready: %w", err)
	}

	// Embedder: noop when not configured, so construction succeeds and the
	// first Retrieve call reports the misconfiguration.
	var embedder domain.Embedder = noopEmbedder{}
	if cfg.embedder != nil {
		embedder = &embedderAdapter{inner: cfg.embedder}
	}
	embedder = embcache.New(embedder, store, cfg.keyPrefix, cfg.embeddingCacheTTL, nil, cfg.logger)

	var completer researchuc.Completer = noopCompleter{}
	if cfg.completer != nil {
		completer = &completerAdapter{inner: cfg.completer}
	}

	retriever := retrievaluc.New(catalog, embedder)
	if cfg.resultCacheTTL > 0 {
		retriever = retriever.WithCache(resultcache.New(
			store, cfg.keyPrefix, cfg.resultCacheTTL, nil, cfg.logger,
		))
	}

	researcher := researchuc.NewResearcher(retriever, completer, cfg.logger).
		WithLimits(cfg.perQuestionTopK, cfg.researchMinSimilarity)
	if cfg.taskTimeout > 0 {
		researcher = researcher.WithTaskTimeout(cfg.taskTimeout)
	}
	research := researchuc.New(
		decompose.New(completer, cfg.logger),
		researchuc.NewOrchestrator(researcher, cfg.logger),
		synthesis.New(completer, cfg.logger),
		cfg.logger,
	).WithMaxSubQuestions(cfg.maxSubQuestions)

	return &Client{
		store:         store,
		retriever:     retriever,
		research:      research,
		defaultTopK:   cfg.defaultTopK,
		maxTopK:       cfg.maxTopK,
		minSimilarity: cfg.minSimilarity,
	}, nil
}

func createStore(cfg *clientConfig) (kv.Store, error) {
	if len(cfg.redisAddrs) == 0 {
		return kvMemory.NewStore(), nil
	}
	s, err := kvRedis.NewStore(kvRedis.Config{
		Addrs:    cfg.redisAddrs,
		Password: cfg.redisPassword,
	})
	if err != nil {
		return nil, fmt.Errorf("prodscout: create redis store: %w", err)
	}
	return s, nil
}

func buildCatalog(cfg *clientConfig) (*catalogrepo.MemoryRepo, error) {
	switch {
	case cfg.catalogPath != "":
		repo, err := catalogrepo.LoadFile(cfg.catalogPath)
		if err != nil {
			return nil, fmt.Errorf("prodscout: %w", err)
		}
		return repo, nil
	case len(cfg.catalogItems) > 0:
		items := make([]domain.Item, len(cfg.catalogItems))
		for i, it := range cfg.catalogItems {
			items[i] = toDomainItem(it)
		}
		return catalogrepo.NewMemoryRepo(items), nil
	default:
		return nil, errors.New("prodscout: catalog required (use WithCatalogItems or WithCatalogFile)")
	}
}

// Close releases all resources.
func (c *Client) Close() {
	if c.store != nil {
		c.store.Close()
	}
}

// Ping checks store connectivity.
func (c *Client) Ping(ctx context.Context) error {
	if err := c.store.Ping(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// RetrieveOptions configures a retrieval query.
type RetrieveOptions struct {
	Filter        Filter
	TopK          int      // 0 = default
	MinSimilarity *float64 // nil = default
}

// Retrieve returns the top-K catalog items most similar to the query.
func (c *Client) Retrieve(
	ctx context.Context, query string, opts *RetrieveOptions,
) ([]RetrievalResult, error) {
	if opts == nil {
		opts = &RetrieveOptions{}
	}

	topK := opts.TopK
	if topK == 0 {
		topK = c.defaultTopK
	}
	if topK < 0 || topK > c.maxTopK {
		return nil, fmt.Errorf("%w: top_k must be between 1 and %d",
			domain.ErrInvalidArgument, c.maxTopK)
	}

	minSimilarity := c.minSimilarity
	if opts.MinSimilarity != nil {
		minSimilarity = *opts.MinSimilarity
	}

	results, err := c.retriever.Retrieve(ctx, query, toDomainFilter(opts.Filter), topK, minSimilarity)
	if err != nil {
		return nil, fmt.Errorf("retrieve: %w", err)
	}
	return fromRetrievalResults(results), nil
}

// ResearchOptions configures a deep-research run.
type ResearchOptions struct {
	Filter          Filter
	MaxSubQuestions int // 0 = default
}

// Research runs the decompose/research/synthesize pipeline for the query.
func (c *Client) Research(
	ctx context.Context, query string, opts *ResearchOptions,
) (ResearchReport, error) {
	if opts == nil {
		opts = &ResearchOptions{}
	}

	report, err := c.research.Research(ctx, query, toDomainFilter(opts.Filter), opts.MaxSubQuestions)
	if err != nil {
		return ResearchReport{}, fmt.Errorf("research: %w", err)
	}
	return fromResearchReport(report), nil
}

// noopEmbedder returns an error on Embed call (used when no embedder configured).
type noopEmbedder struct{}

func (noopEmbedder) Embed(_ context.Context, _ string) (domain.EmbeddingResult, error) {
	return domain.EmbeddingResult{}, errors.New(
		"prodscout: embedder not configured (use WithEmbedder)",
	)
}

// noopCompleter returns an error on Complete call (used when no completer configured).
type noopCompleter struct{}

func (noopCompleter) Complete(_ context.Context, _ string) (domain.CompletionResult, error) {
	return domain.CompletionResult{}, errors.New(
		"prodscout: completer not configured (use WithCompleter)",
	)
}

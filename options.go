package prodscout

import (
	"time"

	"go.uber.org/zap"
)

// Option configures the Client.
type Option func(*clientConfig)

type clientConfig struct {
	redisAddrs    []string
	redisPassword string
	keyPrefix     string

	catalogItems []Item
	catalogPath  string

	embedder  Embedder
	completer Completer
	logger    *zap.Logger

	defaultTopK   int
	maxTopK       int
	minSimilarity float64

	maxSubQuestions       int
	perQuestionTopK       int
	researchMinSimilarity float64
	taskTimeout           time.Duration

	embeddingCacheTTL time.Duration
	resultCacheTTL    time.Duration
}

func defaultClientConfig() *clientConfig {
	return &clientConfig{
		keyPrefix:             "prodscout:",
		logger:                zap.NewNop(),
		defaultTopK:           5,
		maxTopK:               50,
		minSimilarity:         0.2,
		maxSubQuestions:       4,
		perQuestionTopK:       3,
		researchMinSimilarity: 0.2,
	}
}

// WithRedis stores caches in Redis instead of process memory. Useful when
// several instances should share one embedding cache.
func WithRedis(addrs []string, password string) Option {
	return func(c *clientConfig) {
		c.redisAddrs = addrs
		c.redisPassword = password
	}
}

// WithKeyPrefix overrides the cache key prefix.
func WithKeyPrefix(prefix string) Option {
	return func(c *clientConfig) { c.keyPrefix = prefix }
}

// WithCatalogItems provides the catalog directly.
func WithCatalogItems(items []Item) Option {
	return func(c *clientConfig) { c.catalogItems = items }
}

// WithCatalogFile loads the catalog from a JSON file.
func WithCatalogFile(path string) Option {
	return func(c *clientConfig) { c.catalogPath = path }
}

// WithEmbedder sets the embedding provider. Required for retrieval.
func WithEmbedder(e Embedder) Option {
	return func(c *clientConfig) { c.embedder = e }
}

// WithCompleter sets the completion provider. Required for research.
func WithCompleter(cp Completer) Option {
	return func(c *clientConfig) { c.completer = cp }
}

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *clientConfig) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithRetrievalDefaults overrides the default and maximum top-K and the
// default similarity threshold.
func WithRetrievalDefaults(defaultTopK, maxTopK int, minSimilarity float64) Option {
	return func(c *clientConfig) {
		if defaultTopK > 0 {
			c.defaultTopK = defaultTopK
		}
		if maxTopK > 0 {
			c.maxTopK = maxTopK
		}
		c.minSimilarity = minSimilarity
	}
}

// WithResearchLimits overrides the research fan-out parameters.
func WithResearchLimits(maxSubQuestions, perQuestionTopK int, minSimilarity float64) Option {
	return func(c *clientConfig) {
		if maxSubQuestions > 0 {
			c.maxSubQuestions = maxSubQuestions
		}
		if perQuestionTopK > 0 {
			c.perQuestionTopK = perQuestionTopK
		}
		c.researchMinSimilarity = minSimilarity
	}
}

// WithTaskTimeout bounds each sub-question research task.
func WithTaskTimeout(d time.Duration) Option {
	return func(c *clientConfig) { c.taskTimeout = d }
}

// WithEmbeddingCacheTTL expires cached embeddings. Zero keeps them forever.
func WithEmbeddingCacheTTL(d time.Duration) Option {
	return func(c *clientConfig) { c.embeddingCacheTTL = d }
}

// WithResultCacheTTL enables the retrieval result cache.
func WithResultCacheTTL(d time.Duration) Option {
	return func(c *clientConfig) { c.resultCacheTTL = d }
}

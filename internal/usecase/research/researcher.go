package research

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/meridian-ai/prodscout/internal/domain"
)

// failedAnswer is the placeholder carried by contained failures.
const failedAnswer = "Unable to research this sub-question."

// Researcher answers one sub-question: retrieve a few catalog items, then ask
// the completion service for a short answer grounded in exactly those items.
// Every failure mode is contained into a Failed finding so the orchestrator
// always receives a full-length result set.
type Researcher struct {
	retriever     Retriever
	completer     Completer
	topK          int
	minSimilarity float64
	taskTimeout   time.Duration
	logger        *zap.Logger
}

// NewResearcher creates a sub-question researcher.
func NewResearcher(retriever Retriever, completer Completer, logger *zap.Logger) *Researcher {
	return &Researcher{
		retriever:     retriever,
		completer:     completer,
		topK:          3,
		minSimilarity: 0.2,
		logger:        logger,
	}
}

// WithLimits overrides the per-sub-question retrieval parameters.
func (r *Researcher) WithLimits(topK int, minSimilarity float64) *Researcher {
	if topK > 0 {
		r.topK = topK
	}
	r.minSimilarity = minSimilarity
	return r
}

// WithTaskTimeout bounds each sub-question task. Zero disables the deadline.
func (r *Researcher) WithTaskTimeout(d time.Duration) *Researcher {
	r.taskTimeout = d
	return r
}

// Research never returns an error: a retrieval failure, an empty result set,
// or a completion failure all degrade to Failed=true with empty sources.
func (r *Researcher) Research(ctx context.Context, sq domain.SubQuestion, filter domain.Filter) domain.Finding {
	if r.taskTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.taskTimeout)
		defer cancel()
	}

	results, err := r.retriever.Retrieve(ctx, sq.Text, filter, r.topK, r.minSimilarity)
	if err != nil {
		r.logger.Warn("Sub-question retrieval failed",
			zap.Int("sub_question", sq.Index), zap.Error(err))
		return failedFinding(sq)
	}
	if len(results) == 0 {
		r.logger.Debug("Sub-question retrieval found no items above threshold",
			zap.Int("sub_question", sq.Index))
		return failedFinding(sq)
	}

	completion, err := r.completer.Complete(ctx, researchPrompt(sq, results))
	if err != nil || strings.TrimSpace(completion.Text) == "" {
		r.logger.Warn("Sub-question completion failed",
			zap.Int("sub_question", sq.Index), zap.Error(err))
		return failedFinding(sq)
	}

	sources := make([]domain.Source, len(results))
	for i, res := range results {
		sources[i] = domain.Source{ItemID: res.Item.ID, Similarity: res.Similarity}
	}

	return domain.Finding{
		SubQuestion: sq,
		Answer:      strings.TrimSpace(completion.Text),
		Sources:     sources,
	}
}

func failedFinding(sq domain.SubQuestion) domain.Finding {
	return domain.Finding{
		SubQuestion: sq,
		Answer:      failedAnswer,
		Sources:     []domain.Source{},
		Failed:      true,
	}
}

func researchPrompt(sq domain.SubQuestion, results []domain.RetrievalResult) string {
	var b strings.Builder
	b.WriteString("Answer the question below in 2-3 sentences using only the ")
	b.WriteString("catalog items listed. Cite items by name. If the items cannot ")
	b.WriteString("answer the question, say so.\n\n")

	fmt.Fprintf(&b, "Question: %s\n\nCatalog items:\n", sq.Text)
	for _, res := range results {
		item := res.Item
		fmt.Fprintf(&b, "- %s (id %s, %s/%s, price %.2f): %s\n",
			item.Name, item.ID, item.Category, item.Tier, item.Price, item.SearchText())
	}
	return b.String()
}

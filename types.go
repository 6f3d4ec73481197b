package prodscout

import (
	"context"

	"github.com/meridian-ai/prodscout/internal/domain"
)

// Item is a catalog record.
type Item struct {
	ID       string            `json:"id"`
	Name     string            `json:"name"`
	Category string            `json:"category"`
	Tier     string            `json:"tier"`
	Price    float64           `json:"price"`
	Specs    map[string]string `json:"specs,omitempty"`
}

// Filter restricts the eligible catalog subset. A nil field means no
// constraint on that attribute.
type Filter struct {
	Category *string
	Tier     *string
	MinPrice *float64
	MaxPrice *float64
}

// RetrievalResult is one ranked retrieval hit.
type RetrievalResult struct {
	Item       Item
	Similarity float64
	Rank       int
}

// Source is a cited catalog item with its retrieval similarity.
type Source struct {
	ItemID     string
	Similarity float64
}

// Finding is the outcome of researching one sub-question.
type Finding struct {
	Question string
	Answer   string
	Sources  []Source
	Failed   bool
}

// ResearchReport is the full deep-research response.
type ResearchReport struct {
	Query              string
	SubQuestions       []string
	Rationale          string
	Degraded           bool
	Findings           []Finding
	Answer             string
	Confidence         int
	DistinctItemsCited int
	UsedFallback       bool
	ResearchID         string
	DurationMs         int64
	StepCount          int
}

// EmbeddingResult is the embedder output.
type EmbeddingResult struct {
	Embedding    []float32
	PromptTokens int
	TotalTokens  int
}

// Embedder vectorizes text. Implementations must be safe for concurrent use.
type Embedder interface {
	Embed(ctx context.Context, text string) (EmbeddingResult, error)
}

// CompletionResult is the completer output.
type CompletionResult struct {
	Text         string
	PromptTokens int
	TotalTokens  int
}

// Completer generates text. Implementations must be safe for concurrent use.
type Completer interface {
	Complete(ctx context.Context, prompt string) (CompletionResult, error)
}

// --- Converters between the public API and the internal domain ---

func toDomainItem(i Item) domain.Item {
	return domain.Item{
		ID:       i.ID,
		Name:     i.Name,
		Category: i.Category,
		Tier:     i.Tier,
		Price:    i.Price,
		Specs:    i.Specs,
	}
}

func fromDomainItem(i domain.Item) Item {
	return Item{
		ID:       i.ID,
		Name:     i.Name,
		Category: i.Category,
		Tier:     i.Tier,
		Price:    i.Price,
		Specs:    i.Specs,
	}
}

func toDomainFilter(f Filter) domain.Filter {
	return domain.Filter{
		Category: f.Category,
		Tier:     f.Tier,
		MinPrice: f.MinPrice,
		MaxPrice: f.MaxPrice,
	}
}

func fromRetrievalResults(results []domain.RetrievalResult) []RetrievalResult {
	out := make([]RetrievalResult, len(results))
	for i, r := range results {
		out[i] = RetrievalResult{
			Item:       fromDomainItem(r.Item),
			Similarity: r.Similarity,
			Rank:       r.Rank,
		}
	}
	return out
}

func fromResearchReport(r domain.ResearchReport) ResearchReport {
	findings := make([]Finding, len(r.Findings))
	for i, f := range r.Findings {
		sources := make([]Source, len(f.Sources))
		for j, s := range f.Sources {
			sources[j] = Source{ItemID: s.ItemID, Similarity: s.Similarity}
		}
		findings[i] = Finding{
			Question: f.SubQuestion.Text,
			Answer:   f.Answer,
			Sources:  sources,
			Failed:   f.Failed,
		}
	}

	return ResearchReport{
		Query:              r.Query,
		SubQuestions:       r.Decomposition.SubQuestions,
		Rationale:          r.Decomposition.Rationale,
		Degraded:           r.Decomposition.Degraded,
		Findings:           findings,
		Answer:             r.Synthesis.Answer,
		Confidence:         r.Synthesis.Confidence,
		DistinctItemsCited: r.Synthesis.DistinctItemsCited,
		UsedFallback:       r.Synthesis.UsedFallback,
		ResearchID:         r.Metadata.ResearchID,
		DurationMs:         r.Metadata.DurationMs,
		StepCount:          r.Metadata.StepCount,
	}
}

// embedderAdapter wraps the public Embedder to satisfy the internal contract.
type embedderAdapter struct {
	inner Embedder
}

func (a *embedderAdapter) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	r, err := a.inner.Embed(ctx, text)
	if err != nil {
		return domain.EmbeddingResult{}, err
	}
	return domain.EmbeddingResult{
		Embedding:    r.Embedding,
		PromptTokens: r.PromptTokens,
		TotalTokens:  r.TotalTokens,
	}, nil
}

// completerAdapter wraps the public Completer to satisfy the internal contract.
type completerAdapter struct {
	inner Completer
}

func (a *completerAdapter) Complete(ctx context.Context, prompt string) (domain.CompletionResult, error) {
	r, err := a.inner.Complete(ctx, prompt)
	if err != nil {
		return domain.CompletionResult{}, err
	}
	return domain.CompletionResult{
		Text:         r.Text,
		PromptTokens: r.PromptTokens,
		TotalTokens:  r.TotalTokens,
	}, nil
}

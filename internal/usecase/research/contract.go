package research

import (
	"context"

	"github.com/meridian-ai/prodscout/internal/domain"
)

// Retriever runs the single-pass similarity search for one sub-question.
type Retriever interface {
	Retrieve(
		ctx context.Context, query string, filter domain.Filter, topK int, minSimilarity float64,
	) ([]domain.RetrievalResult, error)
}

// Completer generates grounded natural-language answers.
type Completer interface {
	Complete(ctx context.Context, prompt string) (domain.CompletionResult, error)
}

// Decomposer splits a query into sub-questions. Never fails; degrades.
type Decomposer interface {
	Decompose(ctx context.Context, query string, maxSubQuestions int) domain.Decomposition
}

// Synthesizer combines findings into the final answer. Never fails; degrades.
type Synthesizer interface {
	Synthesize(ctx context.Context, originalQuery string, findings []domain.Finding) domain.SynthesisResult
}

// SubQuestionResearcher researches one sub-question with contained failure.
type SubQuestionResearcher interface {
	Research(ctx context.Context, sq domain.SubQuestion, filter domain.Filter) domain.Finding
}

// ResearchRunner fans sub-questions out and joins the findings.
type ResearchRunner interface {
	ResearchAll(ctx context.Context, subQuestions []domain.SubQuestion, filter domain.Filter) ([]domain.Finding, error)
}

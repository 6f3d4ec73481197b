// Package decompose splits a complex query into independently answerable
// sub-questions via the completion service.
package decompose

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/meridian-ai/prodscout/internal/domain"
	"github.com/meridian-ai/prodscout/internal/domain/llmtext"
)

// Completer generates the decomposition payload.
type Completer interface {
	Complete(ctx context.Context, prompt string) (domain.CompletionResult, error)
}

// Service handles query decomposition.
type Service struct {
	completer Completer
	logger    *zap.Logger
}

// New creates a decomposition service.
func New(completer Completer, logger *zap.Logger) *Service {
	return &Service{completer: completer, logger: logger}
}

// decompositionPayload is the structured object requested from the model.
type decompositionPayload struct {
	SubQuestions []string `json:"sub_questions"`
	Rationale    string   `json:"rationale"`
}

const fallbackRationale = "direct research without decomposition"

// Decompose asks the completion service to split the query into 1..max
// sub-questions. Decomposition failure is a degraded mode, never a hard
// error: on any completion or parse failure the original query becomes the
// single sub-question.
func (s *Service) Decompose(ctx context.Context, query string, maxSubQuestions int) domain.Decomposition {
	if maxSubQuestions <= 0 {
		maxSubQuestions = 1
	}

	result, err := s.completer.Complete(ctx, decompositionPrompt(query, maxSubQuestions))
	if err != nil {
		s.logger.Warn("Decomposition completion failed, falling back to direct research",
			zap.Error(err))
		return fallback(query)
	}

	var payload decompositionPayload
	if !llmtext.DecodeFirst(result.Text, &payload) {
		s.logger.Warn("Decomposition response had no parsable payload, falling back",
			zap.Int("response_len", len(result.Text)))
		return fallback(query)
	}

	subQuestions := make([]string, 0, len(payload.SubQuestions))
	for _, sq := range payload.SubQuestions {
		if trimmed := strings.TrimSpace(sq); trimmed != "" {
			subQuestions = append(subQuestions, trimmed)
		}
	}
	if len(subQuestions) == 0 {
		s.logger.Warn("Decomposition produced zero usable sub-questions, falling back")
		return fallback(query)
	}

	// Truncate, preserving the model's original order.
	if len(subQuestions) > maxSubQuestions {
		subQuestions = subQuestions[:maxSubQuestions]
	}

	rationale := strings.TrimSpace(payload.Rationale)
	if rationale == "" {
		rationale = "decomposed into focused sub-questions"
	}

	return domain.Decomposition{SubQuestions: subQuestions, Rationale: rationale}
}

func fallback(query string) domain.Decomposition {
	return domain.Decomposition{
		SubQuestions: []string{query},
		Rationale:    fallbackRationale,
		Degraded:     true,
	}
}

func decompositionPrompt(query string, maxSubQuestions int) string {
	var b strings.Builder
	b.WriteString("You are a product research planner. Split the user's question into ")
	fmt.Fprintf(&b, "at most %d specific sub-questions that can each be answered ", maxSubQuestions)
	b.WriteString("independently against a product catalog. If the question is already ")
	b.WriteString("narrow, return it as the single sub-question.\n\n")
	b.WriteString("Respond with a JSON object only:\n")
	b.WriteString(`{"sub_questions": ["..."], "rationale": "..."}`)
	b.WriteString("\n\nUser question: ")
	b.WriteString(query)
	return b.String()
}

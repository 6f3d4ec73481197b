// Package synthesis combines per-sub-question findings into one final cited
// answer with a confidence score.
package synthesis

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/meridian-ai/prodscout/internal/domain"
)

// Completer generates the final answer.
type Completer interface {
	Complete(ctx context.Context, prompt string) (domain.CompletionResult, error)
}

// Service handles answer synthesis.
type Service struct {
	completer Completer
	logger    *zap.Logger
}

// New creates a synthesis service.
func New(completer Completer, logger *zap.Logger) *Service {
	return &Service{completer: completer, logger: logger}
}

const (
	defaultConfidence  = 8
	fallbackConfidence = 5
)

// confidenceRe matches "Confidence: 7/10", "confidence 7", "CONFIDENCE: 7".
var confidenceRe = regexp.MustCompile(`(?i)confidence[:\s]+(\d+)`)

// Synthesize builds the final answer from all findings. A result is always
// returned: when the completion service fails, the answer degrades to a
// deterministic concatenation of question/answer pairs with UsedFallback set.
func (s *Service) Synthesize(
	ctx context.Context, originalQuery string, findings []domain.Finding,
) domain.SynthesisResult {
	distinct, total := countSources(findings)

	result := domain.SynthesisResult{
		SubQuestionCount:   len(findings),
		DistinctItemsCited: len(distinct),
		TotalSourcesUsed:   total,
	}

	completion, err := s.completer.Complete(ctx, synthesisPrompt(originalQuery, findings))
	if err != nil || strings.TrimSpace(completion.Text) == "" {
		s.logger.Warn("Synthesis completion failed, using deterministic fallback",
			zap.Error(err))
		result.Answer = fallbackAnswer(originalQuery, findings)
		result.Confidence = fallbackConfidence
		result.UsedFallback = true
		return result
	}

	result.Answer = strings.TrimSpace(completion.Text)
	result.Confidence = parseConfidence(completion.Text)
	return result
}

// countSources returns the sorted distinct cited item IDs and total citations.
func countSources(findings []domain.Finding) ([]string, int) {
	seen := make(map[string]struct{})
	total := 0
	for _, f := range findings {
		for _, src := range f.Sources {
			total++
			seen[src.ItemID] = struct{}{}
		}
	}

	distinct := make([]string, 0, len(seen))
	for id := range seen {
		distinct = append(distinct, id)
	}
	sort.Strings(distinct)
	return distinct, total
}

// parseConfidence extracts the stated 1-10 confidence, defaulting when absent.
func parseConfidence(text string) int {
	m := confidenceRe.FindStringSubmatch(text)
	if m == nil {
		return defaultConfidence
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return defaultConfidence
	}
	if n < 1 {
		return 1
	}
	if n > 10 {
		return 10
	}
	return n
}

func synthesisPrompt(originalQuery string, findings []domain.Finding) string {
	var b strings.Builder
	b.WriteString("You are a product research assistant. Combine the research ")
	b.WriteString("findings below into one coherent answer to the user's question. ")
	b.WriteString("Reference products by name, only cite items that appear in the ")
	b.WriteString("findings, and end with a line \"Confidence: N/10\" where N is your ")
	b.WriteString("1-10 confidence in the answer.\n\n")

	fmt.Fprintf(&b, "User question: %s\n\n", originalQuery)

	for _, f := range findings {
		fmt.Fprintf(&b, "Sub-question %d: %s\n", f.SubQuestion.Index+1, f.SubQuestion.Text)
		if f.Failed {
			b.WriteString("Finding: research for this sub-question failed; no sources.\n\n")
			continue
		}
		fmt.Fprintf(&b, "Finding: %s\n", f.Answer)
		b.WriteString("Sources:")
		for _, src := range f.Sources {
			fmt.Fprintf(&b, " %s (similarity %.2f);", src.ItemID, src.Similarity)
		}
		b.WriteString("\n\n")
	}

	return b.String()
}

// fallbackAnswer concatenates each finding's question and answer pair.
func fallbackAnswer(originalQuery string, findings []domain.Finding) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Research summary for: %s\n", originalQuery)
	for _, f := range findings {
		fmt.Fprintf(&b, "\nQ: %s\nA: %s\n", f.SubQuestion.Text, f.Answer)
	}
	return b.String()
}

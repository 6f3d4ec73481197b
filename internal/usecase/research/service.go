// Package research implements the deep-research pipeline: decompose the
// query, research each sub-question in parallel, synthesize one answer.
package research

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/meridian-ai/prodscout/internal/domain"
	"github.com/meridian-ai/prodscout/internal/metrics"
)

// Service is the deep-research entry point.
type Service struct {
	decomposer      Decomposer
	runner          ResearchRunner
	synthesizer     Synthesizer
	maxSubQuestions int
	logger          *zap.Logger
}

// New creates a research service.
func New(decomposer Decomposer, runner ResearchRunner, synthesizer Synthesizer, logger *zap.Logger) *Service {
	return &Service{
		decomposer:      decomposer,
		runner:          runner,
		synthesizer:     synthesizer,
		maxSubQuestions: 4,
		logger:          logger,
	}
}

// WithMaxSubQuestions caps the fan-out width.
func (s *Service) WithMaxSubQuestions(n int) *Service {
	if n > 0 {
		s.maxSubQuestions = n
	}
	return s
}

// Research runs the full pipeline. The only hard failures are an invalid
// query and cancellation of the request; every provider failure downstream
// degrades into the report's flags instead.
func (s *Service) Research(
	ctx context.Context, query string, filter domain.Filter, maxSubQuestions int,
) (domain.ResearchReport, error) {
	if strings.TrimSpace(query) == "" {
		return domain.ResearchReport{}, fmt.Errorf("%w: query must not be empty", domain.ErrInvalidArgument)
	}
	if maxSubQuestions <= 0 || maxSubQuestions > s.maxSubQuestions {
		maxSubQuestions = s.maxSubQuestions
	}

	start := time.Now()
	researchID := uuid.NewString()
	log := s.logger.With(zap.String("research_id", researchID))

	decomposition := s.decomposer.Decompose(ctx, query, maxSubQuestions)
	log.Info("Query decomposed",
		zap.Int("sub_questions", len(decomposition.SubQuestions)),
		zap.Bool("degraded", decomposition.Degraded),
	)

	subQuestions := make([]domain.SubQuestion, len(decomposition.SubQuestions))
	for i, text := range decomposition.SubQuestions {
		subQuestions[i] = domain.SubQuestion{Text: text, Index: i}
	}
	metrics.ResearchSubQuestions.Observe(float64(len(subQuestions)))

	findings, err := s.runner.ResearchAll(ctx, subQuestions, filter)
	if err != nil {
		metrics.ResearchRequestsTotal.WithLabelValues("error").Inc()
		return domain.ResearchReport{}, err
	}

	failed := 0
	for _, f := range findings {
		if f.Failed {
			failed++
		}
	}
	if failed > 0 {
		metrics.ResearchFindingsFailed.Add(float64(failed))
		log.Warn("Some sub-questions degraded", zap.Int("failed", failed))
	}

	synthesis := s.synthesizer.Synthesize(ctx, query, findings)

	duration := time.Since(start)
	metrics.ResearchRequestsTotal.WithLabelValues("ok").Inc()
	metrics.ResearchDuration.Observe(duration.Seconds())

	log.Info("Research completed",
		zap.Duration("duration", duration),
		zap.Int("distinct_items_cited", synthesis.DistinctItemsCited),
		zap.Int("confidence", synthesis.Confidence),
		zap.Bool("used_fallback", synthesis.UsedFallback),
	)

	return domain.ResearchReport{
		Query:         query,
		Decomposition: decomposition,
		Findings:      findings,
		Synthesis:     synthesis,
		Metadata: domain.ResearchMetadata{
			ResearchID:         researchID,
			DurationMs:         duration.Milliseconds(),
			StepCount:          len(findings) + 2, // decomposition + findings + synthesis
			DistinctItemsCited: synthesis.DistinctItemsCited,
			Confidence:         synthesis.Confidence,
		},
	}, nil
}

package research

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/meridian-ai/prodscout/internal/domain"
)

// Orchestrator fans sub-questions out to concurrent researcher tasks and
// joins all of them before returning: a barrier, not a race. Each task writes
// into its own pre-sized slot, so output order matches input order no matter
// which task finishes first.
type Orchestrator struct {
	researcher SubQuestionResearcher
	logger     *zap.Logger
}

// NewOrchestrator creates a fan-out/fan-in orchestrator.
func NewOrchestrator(researcher SubQuestionResearcher, logger *zap.Logger) *Orchestrator {
	return &Orchestrator{researcher: researcher, logger: logger}
}

// ResearchAll researches every sub-question concurrently. A Failed finding is
// data, not a control-flow signal: no early termination. The only error case
// is cancellation of the request as a whole, which discards all findings.
func (o *Orchestrator) ResearchAll(
	ctx context.Context, subQuestions []domain.SubQuestion, filter domain.Filter,
) ([]domain.Finding, error) {
	if len(subQuestions) == 0 {
		return []domain.Finding{}, nil
	}

	findings := make([]domain.Finding, len(subQuestions))

	var wg sync.WaitGroup
	for i, sq := range subQuestions {
		i, sq := i, sq
		wg.Add(1)
		go func() {
			defer wg.Done()
			findings[i] = o.researcher.Research(ctx, sq, filter)
		}()
	}
	wg.Wait()

	// A cancelled request fails atomically: tasks degraded by the dying
	// context must not be returned as if they were real findings.
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("research cancelled: %w", err)
	}

	return findings, nil
}

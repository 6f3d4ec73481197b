package research

import (
	"context"
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/meridian-ai/prodscout/internal/domain"
	"github.com/meridian-ai/prodscout/internal/usecase/decompose"
	"github.com/meridian-ai/prodscout/internal/usecase/retrieval"
	"github.com/meridian-ai/prodscout/internal/usecase/synthesis"
)

// --- Unit-level mocks ---

type stubDecomposer struct {
	dec     domain.Decomposition
	lastMax int
}

func (s *stubDecomposer) Decompose(_ context.Context, _ string, maxSubQuestions int) domain.Decomposition {
	s.lastMax = maxSubQuestions
	return s.dec
}

type stubRunner struct {
	findings []domain.Finding
	err      error
	lastSQs  []domain.SubQuestion
}

func (s *stubRunner) ResearchAll(
	_ context.Context, sqs []domain.SubQuestion, _ domain.Filter,
) ([]domain.Finding, error) {
	s.lastSQs = sqs
	if s.err != nil {
		return nil, s.err
	}
	if s.findings != nil {
		return s.findings, nil
	}
	out := make([]domain.Finding, len(sqs))
	for i, sq := range sqs {
		out[i] = domain.Finding{SubQuestion: sq, Answer: "a", Sources: []domain.Source{{ItemID: "x", Similarity: 0.9}}}
	}
	return out, nil
}

type stubSynthesizer struct {
	result domain.SynthesisResult
}

func (s *stubSynthesizer) Synthesize(_ context.Context, _ string, findings []domain.Finding) domain.SynthesisResult {
	r := s.result
	r.SubQuestionCount = len(findings)
	return r
}

// --- Unit tests ---

func TestResearch_EmptyQueryRejected(t *testing.T) {
	svc := New(&stubDecomposer{}, &stubRunner{}, &stubSynthesizer{}, zap.NewNop())

	_, err := svc.Research(context.Background(), "  ", domain.Filter{}, 4)
	if !errors.Is(err, domain.ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
}

func TestResearch_CapsMaxSubQuestions(t *testing.T) {
	dec := &stubDecomposer{dec: domain.Decomposition{SubQuestions: []string{"a"}, Rationale: "r"}}
	svc := New(dec, &stubRunner{}, &stubSynthesizer{}, zap.NewNop()).WithMaxSubQuestions(3)

	if _, err := svc.Research(context.Background(), "q", domain.Filter{}, 99); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if dec.lastMax != 3 {
		t.Errorf("expected cap 3, got %d", dec.lastMax)
	}

	if _, err := svc.Research(context.Background(), "q", domain.Filter{}, 0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if dec.lastMax != 3 {
		t.Errorf("expected default to cap 3, got %d", dec.lastMax)
	}
}

func TestResearch_IndexesSubQuestions(t *testing.T) {
	dec := &stubDecomposer{dec: domain.Decomposition{SubQuestions: []string{"first", "second"}, Rationale: "r"}}
	runner := &stubRunner{}
	svc := New(dec, runner, &stubSynthesizer{}, zap.NewNop())

	report, err := svc.Research(context.Background(), "q", domain.Filter{}, 4)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(runner.lastSQs) != 2 {
		t.Fatalf("expected 2 sub-questions dispatched, got %d", len(runner.lastSQs))
	}
	for i, sq := range runner.lastSQs {
		if sq.Index != i {
			t.Errorf("sub-question %d has index %d", i, sq.Index)
		}
	}
	if report.Metadata.StepCount != 4 { // decompose + 2 findings + synthesis
		t.Errorf("expected step count 4, got %d", report.Metadata.StepCount)
	}
	if report.Metadata.ResearchID == "" {
		t.Error("expected a research id")
	}
	if report.Metadata.DurationMs < 0 {
		t.Errorf("negative duration %d", report.Metadata.DurationMs)
	}
}

func TestResearch_CancellationPropagates(t *testing.T) {
	dec := &stubDecomposer{dec: domain.Decomposition{SubQuestions: []string{"a"}, Rationale: "r"}}
	runner := &stubRunner{err: context.Canceled}
	svc := New(dec, runner, &stubSynthesizer{}, zap.NewNop())

	_, err := svc.Research(context.Background(), "q", domain.Filter{}, 4)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

// --- End-to-end scenarios over real pipeline services ---

// routingCompleter dispatches on the prompt kind each pipeline stage builds.
type routingCompleter struct {
	decomposeText string
	decomposeErr  error
	researchText  string
	researchErr   error
	synthesisText string
	synthesisErr  error
}

func (r *routingCompleter) Complete(_ context.Context, prompt string) (domain.CompletionResult, error) {
	switch {
	case strings.HasPrefix(prompt, "You are a product research planner."):
		if r.decomposeErr != nil {
			return domain.CompletionResult{}, r.decomposeErr
		}
		return domain.CompletionResult{Text: r.decomposeText}, nil
	case strings.HasPrefix(prompt, "Answer the question below"):
		if r.researchErr != nil {
			return domain.CompletionResult{}, r.researchErr
		}
		return domain.CompletionResult{Text: r.researchText}, nil
	default:
		if r.synthesisErr != nil {
			return domain.CompletionResult{}, r.synthesisErr
		}
		return domain.CompletionResult{Text: r.synthesisText}, nil
	}
}

type vectorEmbedder struct {
	byText map[string][]float32
	err    error
}

func (v *vectorEmbedder) Embed(_ context.Context, text string) (domain.EmbeddingResult, error) {
	if v.err != nil {
		return domain.EmbeddingResult{}, v.err
	}
	if vec, ok := v.byText[text]; ok {
		return domain.EmbeddingResult{Embedding: vec}, nil
	}
	return domain.EmbeddingResult{Embedding: []float32{0.1, 0.1}}, nil
}

type staticCatalog struct {
	items []domain.Item
}

func (c *staticCatalog) List(_ context.Context, filter domain.Filter) ([]domain.Item, error) {
	var out []domain.Item
	for _, item := range c.items {
		if filter.Matches(item) {
			out = append(out, item)
		}
	}
	return out, nil
}

func buildPipeline(embedder retrieval.Embedder, completer Completer, catalog retrieval.Catalog) *Service {
	log := zap.NewNop()
	retriever := retrieval.New(catalog, embedder)
	researcher := NewResearcher(retriever, completer, log)
	orchestrator := NewOrchestrator(researcher, log)
	return New(
		decompose.New(completer, log),
		orchestrator,
		synthesis.New(completer, log),
		log,
	)
}

func TestResearch_EndToEnd_TwoSubQuestionsDistinctItems(t *testing.T) {
	light := domain.Item{ID: "lap-001", Name: "AeroBook", Category: "laptop", Tier: "premium", Price: 4800}
	cheap := domain.Item{ID: "lap-002", Name: "FeatherBook", Category: "laptop", Tier: "mid", Price: 3200}

	embedder := &vectorEmbedder{byText: map[string][]float32{
		"Which laptops are lightweight?":       {1, 0},
		"Which laptops cost under RM5000?":     {0, 1},
		light.SearchText():                     {1, 0},
		cheap.SearchText():                     {0, 1},
	}}
	completer := &routingCompleter{
		decomposeText: `{"sub_questions": ["Which laptops are lightweight?", "Which laptops cost under RM5000?"], "rationale": "weight and budget"}`,
		researchText:  "The cited item answers this question well.",
		synthesisText: "AeroBook is the light pick; FeatherBook fits the budget.\nConfidence: 9/10",
	}
	svc := buildPipeline(embedder, completer, &staticCatalog{items: []domain.Item{light, cheap}})

	report, err := svc.Research(
		context.Background(), "Compare lightweight laptops under RM5000 for students", domain.Filter{}, 4,
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(report.Findings) != 2 {
		t.Fatalf("expected 2 findings, got %d", len(report.Findings))
	}
	for i, f := range report.Findings {
		if f.Failed {
			t.Errorf("finding %d unexpectedly failed", i)
		}
	}
	if report.Synthesis.UsedFallback {
		t.Error("expected real synthesis, not fallback")
	}
	if report.Synthesis.DistinctItemsCited < 2 {
		t.Errorf("expected at least 2 distinct items cited, got %d", report.Synthesis.DistinctItemsCited)
	}
	if report.Synthesis.Confidence != 9 {
		t.Errorf("expected confidence 9, got %d", report.Synthesis.Confidence)
	}
	if report.Decomposition.Degraded {
		t.Error("decomposition should not be degraded")
	}
}

func TestResearch_EndToEnd_EmbeddingOutageDegradesButCompletes(t *testing.T) {
	embedder := &vectorEmbedder{err: domain.ErrEmbeddingUnavailable}
	completer := &routingCompleter{
		decomposeText: `{"sub_questions": ["q1", "q2"], "rationale": "r"}`,
		synthesisText: "No catalog evidence was retrievable.\nConfidence: 2/10",
	}
	svc := buildPipeline(embedder, completer, &staticCatalog{})

	report, err := svc.Research(context.Background(), "anything", domain.Filter{}, 4)
	if err != nil {
		t.Fatalf("research must complete despite embedding outage, got %v", err)
	}

	if len(report.Findings) != 2 {
		t.Fatalf("expected full-length findings, got %d", len(report.Findings))
	}
	for i, f := range report.Findings {
		if !f.Failed {
			t.Errorf("finding %d should be contained failure", i)
		}
		if len(f.Sources) != 0 {
			t.Errorf("finding %d should cite nothing", i)
		}
	}
	if report.Synthesis.Answer == "" {
		t.Fatal("synthesis answer must be non-empty")
	}
	if report.Synthesis.DistinctItemsCited != 0 {
		t.Errorf("nothing should be cited, got %d", report.Synthesis.DistinctItemsCited)
	}
}

func TestResearch_EndToEnd_EverythingFails(t *testing.T) {
	// Decomposition, research, and synthesis completions all fail; embeddings
	// fail too. The pipeline still returns a full report via fallbacks.
	boom := errors.New("provider down")
	embedder := &vectorEmbedder{err: domain.ErrEmbeddingUnavailable}
	completer := &routingCompleter{decomposeErr: boom, researchErr: boom, synthesisErr: boom}
	svc := buildPipeline(embedder, completer, &staticCatalog{})

	report, err := svc.Research(context.Background(), "the query", domain.Filter{}, 4)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !report.Decomposition.Degraded {
		t.Error("expected degraded decomposition")
	}
	if len(report.Findings) != 1 || report.Findings[0].SubQuestion.Text != "the query" {
		t.Fatalf("expected single fallback sub-question, got %+v", report.Findings)
	}
	if !report.Synthesis.UsedFallback {
		t.Error("expected synthesis fallback")
	}
	if report.Synthesis.Confidence != 5 {
		t.Errorf("expected fallback confidence 5, got %d", report.Synthesis.Confidence)
	}
	if report.Synthesis.Answer == "" {
		t.Fatal("answer must be non-empty")
	}
}

package decompose

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/meridian-ai/prodscout/internal/domain"
)

type stubCompleter struct {
	text    string
	err     error
	prompts []string
}

func (s *stubCompleter) Complete(_ context.Context, prompt string) (domain.CompletionResult, error) {
	s.prompts = append(s.prompts, prompt)
	if s.err != nil {
		return domain.CompletionResult{}, s.err
	}
	return domain.CompletionResult{Text: s.text}, nil
}

func TestDecompose_ParsesPayload(t *testing.T) {
	stub := &stubCompleter{text: `Here is the plan:
{"sub_questions": ["Which laptops weigh under 1.5kg?", "Which laptops cost under RM5000?"], "rationale": "split by weight and price"}`}
	svc := New(stub, zap.NewNop())

	dec := svc.Decompose(context.Background(), "Compare lightweight laptops under RM5000", 4)

	if dec.Degraded {
		t.Error("expected non-degraded decomposition")
	}
	if len(dec.SubQuestions) != 2 {
		t.Fatalf("expected 2 sub-questions, got %d", len(dec.SubQuestions))
	}
	if dec.SubQuestions[0] != "Which laptops weigh under 1.5kg?" {
		t.Errorf("order not preserved: %v", dec.SubQuestions)
	}
	if dec.Rationale != "split by weight and price" {
		t.Errorf("unexpected rationale %q", dec.Rationale)
	}
}

func TestDecompose_CompletionFailureFallsBack(t *testing.T) {
	stub := &stubCompleter{err: errors.New("model offline")}
	svc := New(stub, zap.NewNop())

	dec := svc.Decompose(context.Background(), "original query", 4)

	if !dec.Degraded {
		t.Error("expected degraded decomposition")
	}
	if len(dec.SubQuestions) != 1 || dec.SubQuestions[0] != "original query" {
		t.Fatalf("expected exactly [original query], got %v", dec.SubQuestions)
	}
	if dec.Rationale != "direct research without decomposition" {
		t.Errorf("unexpected rationale %q", dec.Rationale)
	}
}

func TestDecompose_UnparsableResponseFallsBack(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"prose only", "I could not produce structured output, sorry."},
		{"unbalanced json", `{"sub_questions": ["a"`},
		{"empty sub-questions", `{"sub_questions": [], "rationale": "none"}`},
		{"whitespace sub-questions", `{"sub_questions": ["  ", ""], "rationale": "x"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := New(&stubCompleter{text: tt.text}, zap.NewNop())

			dec := svc.Decompose(context.Background(), "the query", 4)
			if !dec.Degraded {
				t.Error("expected degraded decomposition")
			}
			if len(dec.SubQuestions) != 1 || dec.SubQuestions[0] != "the query" {
				t.Fatalf("expected [the query], got %v", dec.SubQuestions)
			}
		})
	}
}

func TestDecompose_TruncatesPreservingOrder(t *testing.T) {
	stub := &stubCompleter{text: `{"sub_questions": ["q1", "q2", "q3", "q4", "q5"], "rationale": "r"}`}
	svc := New(stub, zap.NewNop())

	dec := svc.Decompose(context.Background(), "big query", 3)

	if len(dec.SubQuestions) != 3 {
		t.Fatalf("expected truncation to 3, got %d", len(dec.SubQuestions))
	}
	for i, want := range []string{"q1", "q2", "q3"} {
		if dec.SubQuestions[i] != want {
			t.Errorf("position %d: got %q, want %q", i, dec.SubQuestions[i], want)
		}
	}
}

func TestDecompose_NeverReturnsZeroSubQuestions(t *testing.T) {
	svc := New(&stubCompleter{err: errors.New("down")}, zap.NewNop())

	dec := svc.Decompose(context.Background(), "q", 0)
	if len(dec.SubQuestions) == 0 {
		t.Fatal("decompose must never return zero sub-questions")
	}
}

package similarity

import (
	"errors"
	"math"
	"testing"

	"github.com/meridian-ai/prodscout/internal/domain"
)

func TestCosine_Identical(t *testing.T) {
	a := []float32{0.5, 1.2, -0.3, 2.0}

	got, err := Cosine(a, a)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got < 1-1e-9 || got > 1 {
		t.Errorf("expected self-similarity ~1, got %v", got)
	}
}

func TestCosine_Symmetry(t *testing.T) {
	a := []float32{1, 2, 3}
	b := []float32{-4, 0.5, 7}

	ab, err := Cosine(a, b)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ba, err := Cosine(b, a)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(ab-ba) > 1e-12 {
		t.Errorf("expected symmetric score, got %v vs %v", ab, ba)
	}
}

func TestCosine_Orthogonal(t *testing.T) {
	got, err := Cosine([]float32{1, 0}, []float32{0, 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(got) > 1e-12 {
		t.Errorf("expected 0 for orthogonal vectors, got %v", got)
	}
}

func TestCosine_Opposite(t *testing.T) {
	got, err := Cosine([]float32{1, 1}, []float32{-1, -1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(got+1) > 1e-9 {
		t.Errorf("expected -1 for opposite vectors, got %v", got)
	}
}

func TestCosine_ZeroVector(t *testing.T) {
	tests := []struct {
		name string
		a, b []float32
	}{
		{"zero left", []float32{0, 0, 0}, []float32{1, 2, 3}},
		{"zero right", []float32{1, 2, 3}, []float32{0, 0, 0}},
		{"both zero", []float32{0, 0}, []float32{0, 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Cosine(tt.a, tt.b)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != 0 {
				t.Errorf("expected exactly 0 for zero vector, got %v", got)
			}
			if math.IsNaN(got) {
				t.Error("score must never be NaN")
			}
		})
	}
}

func TestCosine_DimensionMismatch(t *testing.T) {
	_, err := Cosine([]float32{1, 2}, []float32{1, 2, 3})
	if !errors.Is(err, domain.ErrDimensionMismatch) {
		t.Fatalf("expected ErrDimensionMismatch, got %v", err)
	}
}

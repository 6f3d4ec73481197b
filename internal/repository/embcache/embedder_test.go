package embcache

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/meridian-ai/prodscout/internal/domain"
	kvmemory "github.com/meridian-ai/prodscout/internal/kv/memory"
)

type countingEmbedder struct {
	vec   []float32
	err   error
	calls int
}

func (e *countingEmbedder) Embed(_ context.Context, _ string) (domain.EmbeddingResult, error) {
	e.calls++
	if e.err != nil {
		return domain.EmbeddingResult{}, e.err
	}
	return domain.EmbeddingResult{Embedding: e.vec, TotalTokens: 7}, nil
}

func TestCachedEmbedder_MissThenHit(t *testing.T) {
	ctx := context.Background()
	inner := &countingEmbedder{vec: []float32{0.25, -1.5, 3}}
	cached := New(inner, kvmemory.NewStore(), "prodscout:", 0, nil, zap.NewNop())

	first, err := cached.Embed(ctx, "query text")
	if err != nil {
		t.Fatalf("first embed: %v", err)
	}
	if first.TotalTokens != 7 {
		t.Errorf("miss should report inner token usage, got %d", first.TotalTokens)
	}

	second, err := cached.Embed(ctx, "query text")
	if err != nil {
		t.Fatalf("second embed: %v", err)
	}
	if inner.calls != 1 {
		t.Fatalf("expected 1 inner call, got %d", inner.calls)
	}
	if second.TotalTokens != 0 {
		t.Errorf("hit should consume no tokens, got %d", second.TotalTokens)
	}
	if len(second.Embedding) != 3 || second.Embedding[1] != -1.5 {
		t.Errorf("cached vector mismatch: %v", second.Embedding)
	}
}

func TestCachedEmbedder_DistinctTexts(t *testing.T) {
	ctx := context.Background()
	inner := &countingEmbedder{vec: []float32{1}}
	cached := New(inner, kvmemory.NewStore(), "prodscout:", 0, nil, zap.NewNop())

	_, _ = cached.Embed(ctx, "a")
	_, _ = cached.Embed(ctx, "b")

	if inner.calls != 2 {
		t.Fatalf("expected 2 inner calls for distinct texts, got %d", inner.calls)
	}
}

func TestCachedEmbedder_InnerError(t *testing.T) {
	ctx := context.Background()
	wantErr := errors.New("provider down")
	inner := &countingEmbedder{err: wantErr}
	cached := New(inner, kvmemory.NewStore(), "prodscout:", 0, nil, zap.NewNop())

	if _, err := cached.Embed(ctx, "x"); !errors.Is(err, wantErr) {
		t.Fatalf("expected inner error, got %v", err)
	}
}

func TestVectorCodec_RoundTrip(t *testing.T) {
	in := []float32{0, 1.5, -2.25, 3.14159}

	out, err := bytesToVector(vectorToCacheBytes(in))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(out) != len(in) {
		t.Fatalf("length mismatch: %d vs %d", len(out), len(in))
	}
	for i := range in {
		if out[i] != in[i] {
			t.Errorf("element %d: got %v, want %v", i, out[i], in[i])
		}
	}
}

func TestBytesToVector_Invalid(t *testing.T) {
	if _, err := bytesToVector([]byte{1, 2, 3}); err == nil {
		t.Fatal("expected error for truncated data")
	}
}

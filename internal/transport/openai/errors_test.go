package openai

import (
	"errors"
	"net/http"
	"strings"
	"testing"

	openai "github.com/sashabaranov/go-openai"

	"github.com/meridian-ai/prodscout/internal/domain"
)

func TestParseAPIError_RequestErrorWithDetail(t *testing.T) {
	err := &openai.RequestError{
		HTTPStatusCode: http.StatusTooManyRequests,
		Body:           []byte(`{"detail": "quota exhausted"}`),
	}

	got := parseAPIError(err, domain.ErrEmbeddingUnavailable, "embedding")
	if !errors.Is(got, domain.ErrEmbeddingUnavailable) {
		t.Fatalf("expected ErrEmbeddingUnavailable, got %v", got)
	}
	if !strings.Contains(got.Error(), "quota exhausted") {
		t.Errorf("expected detail in message, got %q", got.Error())
	}
	if !strings.Contains(got.Error(), "429") {
		t.Errorf("expected status code in message, got %q", got.Error())
	}
}

func TestParseAPIError_APIError(t *testing.T) {
	err := &openai.APIError{
		HTTPStatusCode: http.StatusBadGateway,
		Message:        "upstream broke",
	}

	got := parseAPIError(err, domain.ErrCompletionUnavailable, "completion")
	if !errors.Is(got, domain.ErrCompletionUnavailable) {
		t.Fatalf("expected ErrCompletionUnavailable, got %v", got)
	}
	if !strings.Contains(got.Error(), "upstream broke") {
		t.Errorf("expected message in error, got %q", got.Error())
	}
}

func TestParseAPIError_TransportError(t *testing.T) {
	got := parseAPIError(errors.New("dial tcp: connection refused"), domain.ErrEmbeddingUnavailable, "embedding")
	if !errors.Is(got, domain.ErrEmbeddingUnavailable) {
		t.Fatalf("expected ErrEmbeddingUnavailable, got %v", got)
	}
}

func TestExtractDetail(t *testing.T) {
	if d := extractDetail([]byte(`{"detail":"boom"}`)); d != "boom" {
		t.Errorf("got %q", d)
	}
	if d := extractDetail([]byte(`not json`)); d != "" {
		t.Errorf("expected empty detail for invalid body, got %q", d)
	}
}

package sdk

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestRetrieve_OK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/retrieve" || r.Method != http.MethodPost {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer secret" {
			t.Errorf("unexpected auth header: %q", got)
		}

		var req RetrieveRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.Query != "light laptop" {
			t.Errorf("query not forwarded: %q", req.Query)
		}

		_ = json.NewEncoder(w).Encode(RetrieveResponse{
			Results: []RetrievalResult{
				{Item: Item{ID: "lap-001", Name: "AeroBook"}, Similarity: 0.93, Rank: 1},
			},
			Count: 1,
		})
	}))
	defer srv.Close()

	client := New(srv.URL, WithAPIKey("secret"))

	resp, err := client.Retrieve(context.Background(), RetrieveRequest{Query: "light laptop"})
	if err != nil {
		t.Fatalf("retrieve: %v", err)
	}
	if resp.Count != 1 || resp.Results[0].Item.ID != "lap-001" {
		t.Errorf("unexpected response: %+v", resp)
	}
}

func TestResearch_OK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/research" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		_ = json.NewEncoder(w).Encode(ResearchReport{
			Query: "q",
			Synthesis: SynthesisResult{
				Answer:     "final answer",
				Confidence: 8,
			},
			Metadata: ResearchMetadata{ResearchID: "rid", StepCount: 4},
		})
	}))
	defer srv.Close()

	client := New(srv.URL)

	report, err := client.Research(context.Background(), ResearchRequest{Query: "q"})
	if err != nil {
		t.Fatalf("research: %v", err)
	}
	if report.Synthesis.Answer != "final answer" || report.Metadata.ResearchID != "rid" {
		t.Errorf("unexpected report: %+v", report)
	}
}

func TestPost_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(`{"code":"embedding_unavailable","message":"embedding service unavailable"}`))
	}))
	defer srv.Close()

	client := New(srv.URL)

	_, err := client.Retrieve(context.Background(), RetrieveRequest{Query: "q"})

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.StatusCode != http.StatusBadGateway || apiErr.Code != "embedding_unavailable" {
		t.Errorf("unexpected api error: %+v", apiErr)
	}
}

func TestPost_NonJSONError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("upstream exploded"))
	}))
	defer srv.Close()

	client := New(srv.URL)

	_, err := client.Retrieve(context.Background(), RetrieveRequest{Query: "q"})

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.Code != "unknown" || apiErr.Message != "upstream exploded" {
		t.Errorf("unexpected api error: %+v", apiErr)
	}
}

func TestNew_TrimsTrailingSlash(t *testing.T) {
	client := New("http://localhost:8080/")
	if client.baseURL != "http://localhost:8080" {
		t.Errorf("base url not trimmed: %q", client.baseURL)
	}
}

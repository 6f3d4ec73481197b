// Package sdk is a thin HTTP client for the prodscout API.
package sdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const defaultTimeout = 2 * time.Minute

// Client talks to a prodscout server.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// Option configures the Client.
type Option func(*Client)

// WithAPIKey sets the bearer token sent with every request.
func WithAPIKey(key string) Option {
	return func(c *Client) { c.apiKey = key }
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.http = h
		}
	}
}

// New creates a client for the given base URL, e.g. "http://localhost:8080".
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: defaultTimeout},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// APIError is a non-2xx response from the server.
type APIError struct {
	StatusCode int
	Code       string `json:"code"`
	Message    string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("prodscout: %d %s: %s", e.StatusCode, e.Code, e.Message)
}

// Filter restricts the eligible catalog subset.
type Filter struct {
	Category *string  `json:"category,omitempty"`
	Tier     *string  `json:"tier,omitempty"`
	MinPrice *float64 `json:"min_price,omitempty"`
	MaxPrice *float64 `json:"max_price,omitempty"`
}

// Item is a catalog record.
type Item struct {
	ID       string            `json:"id"`
	Name     string            `json:"name"`
	Category string            `json:"category"`
	Tier     string            `json:"tier"`
	Price    float64           `json:"price"`
	Specs    map[string]string `json:"specs,omitempty"`
}

// RetrieveRequest is the POST /v1/retrieve body.
type RetrieveRequest struct {
	Query         string   `json:"query"`
	Filter        Filter   `json:"filter"`
	TopK          *int     `json:"top_k,omitempty"`
	MinSimilarity *float64 `json:"min_similarity,omitempty"`
}

// RetrievalResult is one ranked retrieval hit.
type RetrievalResult struct {
	Item       Item    `json:"item"`
	Similarity float64 `json:"similarity"`
	Rank       int     `json:"rank"`
}

// RetrieveResponse is the POST /v1/retrieve response.
type RetrieveResponse struct {
	Results []RetrievalResult `json:"results"`
	Count   int               `json:"count"`
}

// Retrieve runs a similarity search.
func (c *Client) Retrieve(ctx context.Context, req RetrieveRequest) (RetrieveResponse, error) {
	var resp RetrieveResponse
	if err := c.post(ctx, "/v1/retrieve", req, &resp); err != nil {
		return RetrieveResponse{}, err
	}
	return resp, nil
}

// ResearchRequest is the POST /v1/research body.
type ResearchRequest struct {
	Query           string `json:"query"`
	Filter          Filter `json:"filter"`
	MaxSubQuestions *int   `json:"max_sub_questions,omitempty"`
}

// SubQuestion is one part of a decomposed query.
type SubQuestion struct {
	Text  string `json:"text"`
	Index int    `json:"index"`
}

// Source is a cited catalog item.
type Source struct {
	ItemID     string  `json:"item_id"`
	Similarity float64 `json:"similarity"`
}

// Finding is the outcome of researching one sub-question.
type Finding struct {
	SubQuestion SubQuestion `json:"sub_question"`
	Answer      string      `json:"answer"`
	Sources     []Source    `json:"sources"`
	Failed      bool        `json:"failed"`
}

// Decomposition is the planner output.
type Decomposition struct {
	SubQuestions []string `json:"sub_questions"`
	Rationale    string   `json:"rationale"`
	Degraded     bool     `json:"degraded"`
}

// SynthesisResult is the combined answer with usage statistics.
type SynthesisResult struct {
	Answer             string `json:"answer"`
	Confidence         int    `json:"confidence"`
	SubQuestionCount   int    `json:"sub_question_count"`
	DistinctItemsCited int    `json:"distinct_items_cited"`
	TotalSourcesUsed   int    `json:"total_sources_used"`
	UsedFallback       bool   `json:"used_fallback"`
}

// ResearchMetadata summarizes a research run.
type ResearchMetadata struct {
	ResearchID         string `json:"research_id"`
	DurationMs         int64  `json:"duration_ms"`
	StepCount          int    `json:"step_count"`
	DistinctItemsCited int    `json:"distinct_items_cited"`
	Confidence         int    `json:"confidence"`
}

// ResearchReport is the POST /v1/research response.
type ResearchReport struct {
	Query         string           `json:"query"`
	Decomposition Decomposition    `json:"decomposition"`
	Findings      []Finding        `json:"findings"`
	Synthesis     SynthesisResult  `json:"synthesis"`
	Metadata      ResearchMetadata `json:"metadata"`
}

// Research runs the deep-research pipeline.
func (c *Client) Research(ctx context.Context, req ResearchRequest) (ResearchReport, error) {
	var report ResearchReport
	if err := c.post(ctx, "/v1/research", req, &report); err != nil {
		return ResearchReport{}, err
	}
	return report, nil
}

func (c *Client) post(ctx context.Context, path string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("prodscout: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("prodscout: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("prodscout: %s: %w", path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("prodscout: read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		if err := json.Unmarshal(data, apiErr); err != nil || apiErr.Code == "" {
			apiErr.Code = "unknown"
			apiErr.Message = strings.TrimSpace(string(data))
		}
		return apiErr
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("prodscout: decode response: %w", err)
	}
	return nil
}

// Package chi exposes the retrieval and research services over HTTP.
package chi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/meridian-ai/prodscout/internal/domain"
	healthuc "github.com/meridian-ai/prodscout/internal/usecase/health"
)

// statusClientClosedRequest is the nginx convention for a request abandoned
// by the client before a response was written.
const statusClientClosedRequest = 499

// Retriever runs single-pass similarity retrieval.
type Retriever interface {
	Retrieve(
		ctx context.Context, query string, filter domain.Filter, topK int, minSimilarity float64,
	) ([]domain.RetrievalResult, error)
}

// Researcher runs the full deep-research pipeline.
type Researcher interface {
	Research(
		ctx context.Context, query string, filter domain.Filter, maxSubQuestions int,
	) (domain.ResearchReport, error)
}

// HealthChecker reports dependency readiness.
type HealthChecker interface {
	Check(ctx context.Context) healthuc.Report
}

// Limits carries the request parameter bounds and defaults from config.
type Limits struct {
	DefaultTopK     int
	MaxTopK         int
	MinSimilarity   float64
	MaxSubQuestions int
}

// Server is the HTTP API server.
type Server struct {
	retriever  Retriever
	researcher Researcher
	health     HealthChecker
	limits     Limits
	logger     *zap.Logger
}

// NewServer creates an HTTP API server.
func NewServer(
	retriever Retriever,
	researcher Researcher,
	health HealthChecker,
	limits Limits,
	logger *zap.Logger,
) *Server {
	return &Server{
		retriever:  retriever,
		researcher: researcher,
		health:     health,
		limits:     limits,
		logger:     logger,
	}
}

// Register mounts all routes on the router.
func (s *Server) Register(r chi.Router) {
	r.Post("/v1/retrieve", s.handleRetrieve)
	r.Post("/v1/research", s.handleResearch)
	r.Get("/healthz", s.handleLiveness)
	r.Get("/readyz", s.handleReadiness)
	r.Get("/metrics", promhttp.Handler().ServeHTTP)
}

// retrieveRequest is the POST /v1/retrieve body. Omitted top_k and
// min_similarity fall back to the configured defaults.
type retrieveRequest struct {
	Query         string        `json:"query"`
	Filter        domain.Filter `json:"filter"`
	TopK          *int          `json:"top_k"`
	MinSimilarity *float64      `json:"min_similarity"`
}

type retrieveResponse struct {
	Results []domain.RetrievalResult `json:"results"`
	Count   int                      `json:"count"`
}

func (s *Server) handleRetrieve(w http.ResponseWriter, r *http.Request) {
	var req retrieveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	topK := s.limits.DefaultTopK
	if req.TopK != nil {
		topK = *req.TopK
	}
	if topK <= 0 || topK > s.limits.MaxTopK {
		writeError(w, http.StatusBadRequest, codeValidationFailed,
			"top_k must be between 1 and "+strconv.Itoa(s.limits.MaxTopK))
		return
	}

	minSimilarity := s.limits.MinSimilarity
	if req.MinSimilarity != nil {
		minSimilarity = *req.MinSimilarity
	}
	if minSimilarity < -1 || minSimilarity > 1 {
		writeError(w, http.StatusBadRequest, codeValidationFailed,
			"min_similarity must be within [-1, 1]")
		return
	}

	results, err := s.retriever.Retrieve(r.Context(), req.Query, req.Filter, topK, minSimilarity)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	if results == nil {
		results = []domain.RetrievalResult{}
	}

	writeJSON(w, http.StatusOK, retrieveResponse{Results: results, Count: len(results)})
}

// researchRequest is the POST /v1/research body.
type researchRequest struct {
	Query           string        `json:"query"`
	Filter          domain.Filter `json:"filter"`
	MaxSubQuestions *int          `json:"max_sub_questions"`
}

func (s *Server) handleResearch(w http.ResponseWriter, r *http.Request) {
	var req researchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	maxSubQuestions := s.limits.MaxSubQuestions
	if req.MaxSubQuestions != nil {
		if *req.MaxSubQuestions <= 0 || *req.MaxSubQuestions > s.limits.MaxSubQuestions {
			writeError(w, http.StatusBadRequest, codeValidationFailed,
				"max_sub_questions must be between 1 and "+strconv.Itoa(s.limits.MaxSubQuestions))
			return
		}
		maxSubQuestions = *req.MaxSubQuestions
	}

	report, err := s.researcher.Research(r.Context(), req.Query, req.Filter, maxSubQuestions)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, report)
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// handleLiveness reports process liveness only; no dependency calls.
func (s *Server) handleLiveness(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{Status: string(healthuc.Healthy)})
}

// handleReadiness runs the dependency checks and maps degradation to 503.
func (s *Server) handleReadiness(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, healthResponse{Status: string(report.Status), Checks: checks})
}

// Error codes returned to clients.
const (
	codeBadRequest            = "bad_request"
	codeValidationFailed      = "validation_failed"
	codeNotFound              = "not_found"
	codeEmbeddingUnavailable  = "embedding_unavailable"
	codeCompletionUnavailable = "completion_unavailable"
	codeTimeout               = "timeout"
	codeClientClosedRequest   = "client_closed_request"
	codeInternalError         = "internal_error"
)

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// statusMapping maps a sentinel error to its HTTP representation.
type statusMapping struct {
	sentinel error
	status   int
	code     string
}

var statusMappings = []statusMapping{
	{domain.ErrInvalidArgument, http.StatusBadRequest, codeValidationFailed},
	{domain.ErrNotFound, http.StatusNotFound, codeNotFound},
	{domain.ErrEmbeddingUnavailable, http.StatusBadGateway, codeEmbeddingUnavailable},
	{domain.ErrCompletionUnavailable, http.StatusBadGateway, codeCompletionUnavailable},
	{context.DeadlineExceeded, http.StatusGatewayTimeout, codeTimeout},
	{context.Canceled, statusClientClosedRequest, codeClientClosedRequest},
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	for _, m := range statusMappings {
		if errors.Is(err, m.sentinel) {
			s.logger.Warn("request failed",
				zap.String("path", r.URL.Path), zap.String("code", m.code), zap.Error(err))
			writeError(w, m.status, m.code, safeDomainMessage(err))
			return
		}
	}
	s.logger.Error("internal error", zap.String("path", r.URL.Path), zap.Error(err))
	writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
}

// safeDomainMessage returns a sentinel error message for the client without
// exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrInvalidArgument,
		domain.ErrNotFound,
		domain.ErrEmbeddingUnavailable,
		domain.ErrCompletionUnavailable,
		context.DeadlineExceeded,
		context.Canceled,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Code: code, Message: message})
}

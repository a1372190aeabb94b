// Package server exposes the analyzer as a small JSON HTTP API.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/teilomillet/ecoprompt"
	"github.com/teilomillet/ecoprompt/corpus"
	"github.com/teilomillet/ecoprompt/energy"
	"github.com/teilomillet/ecoprompt/types"
	"github.com/teilomillet/ecoprompt/utils"
)

const (
	maxBodyBytes = 1 << 20
	maxBatchSize = 32
)

// Analyzer is the part of *ecoprompt.Analyzer the handlers use.
type Analyzer interface {
	Analyze(ctx context.Context, req ecoprompt.Request) (*ecoprompt.Report, error)
	AnalyzeBatch(ctx context.Context, reqs []ecoprompt.Request, concurrency int) []ecoprompt.BatchResult
	Corpus() *corpus.Corpus
}

type Server struct {
	analyzer Analyzer
	gatherer prometheus.Gatherer
	logger   utils.Logger
	mux      *http.ServeMux
}

// New registers every route. gatherer backs /metrics and may be nil to omit it.
func New(analyzer Analyzer, gatherer prometheus.Gatherer, logger utils.Logger) *Server {
	if logger == nil {
		logger = utils.NewNopLogger()
	}
	s := &Server{
		analyzer: analyzer,
		gatherer: gatherer,
		logger:   logger,
		mux:      http.NewServeMux(),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("POST /api/v1/analyze", s.handleAnalyze)
	s.mux.HandleFunc("POST /api/v1/analyze/batch", s.handleAnalyzeBatch)
	s.mux.HandleFunc("GET /api/v1/corpus", s.handleCorpus)
	s.mux.HandleFunc("GET /api/v1/sizes", s.handleSizes)
	s.mux.HandleFunc("GET /healthz", s.handleHealth)
	if s.gatherer != nil {
		s.mux.Handle("GET /metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}
}

// Handler returns the root handler with request logging.
func (s *Server) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		s.mux.ServeHTTP(rec, r)
		s.logger.Debug("HTTP request", "method", r.Method, "path", r.URL.Path, "status", rec.status, "elapsed", time.Since(start))
	})
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("HTTP API listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.logger.Info("Shutting down HTTP API")
		return srv.Shutdown(shutdownCtx)
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req ecoprompt.Request
	if err := decode(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	report, err := s.analyzer.Analyze(r.Context(), req)
	if err != nil {
		s.writeAnalysisError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

type batchRequest struct {
	Requests    []ecoprompt.Request `json:"requests"`
	Concurrency int                 `json:"concurrency,omitempty"`
}

type batchEntry struct {
	Report *ecoprompt.Report `json:"report,omitempty"`
	Error  *errorBody        `json:"error,omitempty"`
}

func (s *Server) handleAnalyzeBatch(w http.ResponseWriter, r *http.Request) {
	var req batchRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if len(req.Requests) == 0 || len(req.Requests) > maxBatchSize {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("a batch holds between 1 and %d requests", maxBatchSize))
		return
	}

	results := s.analyzer.AnalyzeBatch(r.Context(), req.Requests, req.Concurrency)
	entries := make([]batchEntry, len(results))
	for i, res := range results {
		if res.Err != nil {
			_, body := classify(res.Err)
			entries[i] = batchEntry{Error: &body}
			continue
		}
		entries[i] = batchEntry{Report: res.Report}
	}
	writeJSON(w, http.StatusOK, map[string]any{"results": entries})
}

type corpusEntry struct {
	Position int    `json:"position"`
	Prompt   string `json:"prompt"`
}

func (s *Server) handleCorpus(w http.ResponseWriter, _ *http.Request) {
	prompts := s.analyzer.Corpus().Prompts()
	entries := make([]corpusEntry, len(prompts))
	for i, p := range prompts {
		entries[i] = corpusEntry{Position: i + 1, Prompt: p}
	}
	writeJSON(w, http.StatusOK, map[string]any{"prompts": entries})
}

type sizeEntry struct {
	Size        energy.Size `json:"size"`
	Multiplier  float64     `json:"multiplier"`
	Description string      `json:"description"`
}

func (s *Server) handleSizes(w http.ResponseWriter, _ *http.Request) {
	var sizes []sizeEntry
	for _, size := range energy.Sizes() {
		m, _ := size.Multiplier()
		sizes = append(sizes, sizeEntry{Size: size, Multiplier: m, Description: size.Description()})
	}
	writeJSON(w, http.StatusOK, map[string]any{"sizes": sizes})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type errorBody struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
	Hint    string `json:"hint,omitempty"`
}

// classify maps analysis errors to HTTP statuses.
func classify(err error) (int, errorBody) {
	if errors.Is(err, ecoprompt.ErrInvalidRequest) {
		return http.StatusBadRequest, errorBody{Kind: "InvalidRequest", Message: err.Error()}
	}

	var e *types.Error
	if !errors.As(err, &e) {
		return http.StatusInternalServerError, errorBody{Kind: types.ErrorKindUnknown.String(), Message: err.Error()}
	}
	body := errorBody{Kind: e.Kind.String(), Message: e.Error(), Hint: e.Hint()}
	switch e.Kind {
	case types.ErrorKindEmptyInput:
		return http.StatusBadRequest, body
	case types.ErrorKindUpstream, types.ErrorKindMalformedResponse:
		return http.StatusBadGateway, body
	default:
		return http.StatusInternalServerError, body
	}
}

func (s *Server) writeAnalysisError(w http.ResponseWriter, err error) {
	status, body := classify(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("Analysis failed", "kind", body.Kind, "error", err)
	}
	writeJSON(w, status, map[string]errorBody{"error": body})
}

func decode(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]errorBody{"error": {Kind: "InvalidRequest", Message: message}})
}

// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package httpapi exposes the query service over HTTP.
//
// Routes:
//
//	POST /query       {"query": "...", "date": "YYYY-MM-DD"}
//	POST /upload      multipart "file" (optional); generated questions and answers
//	GET  /healthz     corpus status
//	GET  /documents   served documents and their extracted dates
//	GET  /metrics     Prometheus metrics, when configured
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/poiesic/circulars/core"
	"github.com/poiesic/circulars/corpus"
	"github.com/poiesic/circulars/extract"
	"github.com/poiesic/circulars/search"
)

const (
	// DefaultMaxBodyBytes bounds POST /query bodies.
	DefaultMaxBodyBytes = 64 << 10

	// DefaultMaxUploadBytes bounds POST /upload bodies.
	DefaultMaxUploadBytes = 32 << 20
)

// Backend answers queries, generates question/answer pairs and exposes the
// serving snapshot. *circulars.Service satisfies it.
type Backend interface {
	Query(ctx context.Context, req core.QueryRequest) core.Outcome
	Snapshot() *corpus.Snapshot
	ExtractText(ctx context.Context, name string, data []byte) (string, error)
	CorpusText() string
	GenerateQA(ctx context.Context, text string) ([]core.QAPair, error)
}

// Server routes HTTP requests to a Backend.
type Server struct {
	backend      Backend
	metrics      http.Handler
	allowOrigin  string
	maxBodyBytes int64
	maxUpload    int64
	logger       *slog.Logger
	mux          *http.ServeMux
}

var _ http.Handler = (*Server)(nil)

// Option configures a Server.
type Option func(*Server)

// WithMetricsHandler serves h at GET /metrics.
func WithMetricsHandler(h http.Handler) Option {
	return func(s *Server) {
		s.metrics = h
	}
}

// WithAllowOrigin sets Access-Control-Allow-Origin for browser clients.
func WithAllowOrigin(origin string) Option {
	return func(s *Server) {
		s.allowOrigin = origin
	}
}

// WithMaxBodyBytes bounds request bodies.
func WithMaxBodyBytes(n int64) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxBodyBytes = n
		}
	}
}

// WithMaxUploadBytes bounds upload bodies.
func WithMaxUploadBytes(n int64) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxUpload = n
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewServer creates a Server for backend.
func NewServer(backend Backend, opts ...Option) *Server {
	s := &Server{
		backend:      backend,
		maxBodyBytes: DefaultMaxBodyBytes,
		maxUpload:    DefaultMaxUploadBytes,
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "http")

	mux := http.NewServeMux()
	mux.HandleFunc("POST /query", s.handleQuery)
	mux.HandleFunc("OPTIONS /query", s.handlePreflight)
	mux.HandleFunc("POST /upload", s.handleUpload)
	mux.HandleFunc("OPTIONS /upload", s.handlePreflight)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /documents", s.handleDocuments)
	if s.metrics != nil {
		mux.Handle("GET /metrics", s.metrics)
	}
	s.mux = mux
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if s.allowOrigin != "" {
		w.Header().Set("Access-Control-Allow-Origin", s.allowOrigin)
	}
	s.mux.ServeHTTP(w, r)
}

func (s *Server) handlePreflight(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var body QueryRequest
	if err := decodeJSON(w, r, &body, s.maxBodyBytes); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid JSON: " + err.Error()})
		return
	}

	req, err := core.NewQueryRequest(body.Query, body.Date)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	outcome := s.backend.Query(r.Context(), req)
	status, payload := Render(outcome)
	if status >= http.StatusInternalServerError {
		s.logger.Error("query failed", "status", status, "err", outcome.Err)
	}
	writeJSON(w, status, payload)
}

// Render maps an outcome onto a status code and response body.
func Render(o core.Outcome) (int, any) {
	switch o.Kind {
	case core.OutcomeAnswered:
		return http.StatusOK, AnswerResponse{Answer: o.Answer, Filename: o.Filename, Date: o.Date.String()}
	case core.OutcomeNeedsClarification:
		return http.StatusOK, ClarificationResponse{Message: msgMultipleDates, Dates: o.DateStrings()}
	case core.OutcomeNotFound:
		if o.ForDate {
			return http.StatusNotFound, ErrorResponse{Error: msgNoneForDate}
		}
		return http.StatusNotFound, ErrorResponse{Error: msgNone}
	case core.OutcomeFailed:
		switch {
		case errors.Is(o.Err, core.ErrInvalidQuery):
			return http.StatusBadRequest, ErrorResponse{Error: o.Reason()}
		case errors.Is(o.Err, search.ErrNoSnapshot):
			return http.StatusServiceUnavailable, ErrorResponse{Error: o.Reason()}
		case errors.Is(o.Err, context.DeadlineExceeded):
			return http.StatusGatewayTimeout, ErrorResponse{Error: o.Reason()}
		default:
			return http.StatusInternalServerError, ErrorResponse{Error: o.Reason()}
		}
	default:
		return http.StatusInternalServerError, ErrorResponse{Error: "unknown outcome"}
	}
}

// handleUpload generates questions about an uploaded file, or about the
// whole corpus when no file is sent, and answers each one.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload)
	defer r.Body.Close()

	text, status, err := s.uploadText(r)
	if err != nil {
		if status >= http.StatusInternalServerError {
			s.logger.Error("upload extraction failed", "err", err)
		}
		writeJSON(w, status, ErrorResponse{Error: err.Error()})
		return
	}

	pairs, err := s.backend.GenerateQA(r.Context(), text)
	switch {
	case errors.Is(err, core.ErrNoContext):
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: msgNoContext})
		return
	case errors.Is(err, context.DeadlineExceeded):
		writeJSON(w, http.StatusGatewayTimeout, ErrorResponse{Error: err.Error()})
		return
	case err != nil:
		s.logger.Error("question generation failed", "err", err)
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}

	resp := UploadResponse{Questions: make([]string, len(pairs)), Answers: make([]QAResponse, len(pairs))}
	for i, p := range pairs {
		resp.Questions[i] = p.Question
		resp.Answers[i] = QAResponse{Question: p.Question, Answer: p.Answer}
	}
	writeJSON(w, http.StatusOK, resp)
}

// uploadText returns the text of the "file" part, or the corpus text when
// the request carries no file. On error it also returns the status to send.
func (s *Server) uploadText(r *http.Request) (string, int, error) {
	file, header, err := r.FormFile("file")
	switch {
	case errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
		s.logger.Info("no file uploaded, using corpus text")
		return s.backend.CorpusText(), http.StatusOK, nil
	case err != nil:
		return "", uploadErrorStatus(err), err
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return "", uploadErrorStatus(err), err
	}
	text, err := s.backend.ExtractText(r.Context(), header.Filename, data)
	switch {
	case errors.Is(err, extract.ErrUnsupportedType):
		return "", http.StatusUnsupportedMediaType, err
	case err != nil:
		return "", http.StatusInternalServerError, err
	}
	return text, http.StatusOK, nil
}

func uploadErrorStatus(err error) int {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return http.StatusRequestEntityTooLarge
	}
	return http.StatusBadRequest
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	snap := s.backend.Snapshot()
	if snap == nil {
		writeJSON(w, http.StatusServiceUnavailable, HealthResponse{Status: "loading"})
		return
	}
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:    "ok",
		Documents: snap.Store.Len(),
		BuiltAt:   snap.BuiltAt.UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleDocuments(w http.ResponseWriter, _ *http.Request) {
	snap := s.backend.Snapshot()
	if snap == nil {
		writeJSON(w, http.StatusServiceUnavailable, ErrorResponse{Error: search.ErrNoSnapshot.Error()})
		return
	}
	docs := snap.Store.Documents()
	out := make([]DocumentInfo, len(docs))
	for i, doc := range docs {
		out[i] = DocumentInfo{Filename: doc.Filename, Date: doc.Date.String(), Dated: doc.Date.Known()}
	}
	writeJSON(w, http.StatusOK, out)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any, maxBytes int64) error {
	if r.Body == nil {
		return errors.New("empty body")
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	defer r.Body.Close()

	return json.NewDecoder(r.Body).Decode(v)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

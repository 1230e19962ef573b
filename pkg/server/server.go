// Package server exposes the consultation pipeline over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/luna-ai/luna/pkg/consult"
	"github.com/luna-ai/luna/pkg/errkind"
	"github.com/luna-ai/luna/pkg/schemas"
)

const (
	readHeaderTimeout = 10 * time.Second
	shutdownGrace     = 15 * time.Second
)

// Server is the HTTP front end.
type Server struct {
	svc    *consult.Service
	logger *zap.Logger
	http   *http.Server
}

// New builds a Server listening on addr. rps/burst configure the per-client
// rate limiter; rps <= 0 disables limiting.
func New(addr string, svc *consult.Service, logger *zap.Logger, rps float64, burst int) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{svc: svc, logger: logger}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /luna/system/status", s.handleStatus)
	mux.HandleFunc("POST /luna/consultation", s.handleConsultation)
	mux.HandleFunc("GET /luna/consultation/history", s.handleHistory)
	mux.HandleFunc("POST /luna/strategy/generate", s.handleStrategy)

	handler := s.withLogging(withRateLimit(mux, rps, burst, logger))

	s.http = &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: readHeaderTimeout,
	}
	return s
}

// Handler exposes the fully wrapped handler, mostly for tests.
func (s *Server) Handler() http.Handler { return s.http.Handler }

// ListenAndServe runs until the listener fails or Shutdown is called.
func (s *Server) ListenAndServe() error {
	s.logger.Info("http server listening", zap.String("addr", s.http.Addr))
	err := s.http.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown drains in-flight requests with a bounded grace period.
func (s *Server) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, shutdownGrace)
	defer cancel()
	return s.http.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "luna",
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.svc.Status())
}

func (s *Server) handleConsultation(w http.ResponseWriter, r *http.Request) {
	var req schemas.ConsultationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, r, errkind.Wrap(err, errkind.Validation, errkind.CodeInvalidInput, "decode consultation request"))
		return
	}

	resp, err := s.svc.Consult(r.Context(), &req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	records, err := s.svc.History(r.Context(), userID, limit)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"consultations": records})
}

func (s *Server) handleStrategy(w http.ResponseWriter, r *http.Request) {
	var req schemas.StrategyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, r, errkind.Wrap(err, errkind.Validation, errkind.CodeInvalidInput, "decode strategy request"))
		return
	}

	strategy, err := s.svc.GenerateStrategy(r.Context(), &req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, strategy)
}

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	code := errkind.CodeInternal
	message := "internal error"

	var ek *errkind.Error
	if errors.As(err, &ek) {
		code = ek.Code
		message = ek.Message
		switch ek.Kind {
		case errkind.Validation:
			status = http.StatusBadRequest
		case errkind.Auth:
			status = http.StatusUnauthorized
		case errkind.Timeout:
			status = http.StatusGatewayTimeout
		case errkind.Network:
			status = http.StatusBadGateway
		}
	}

	if status >= 500 {
		s.logger.Error("request failed",
			zap.String("path", r.URL.Path),
			zap.Int("status", status),
			zap.Error(err))
		// Do not leak internals on 5xx.
		message = "internal error"
	}

	writeJSON(w, status, errorBody{Error: errorDetail{Code: code, Message: message}})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

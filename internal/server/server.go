// Package server exposes analyses, the journal, the Telegram relay, metrics
// and the live analysis stream over HTTP.
package server

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/rxtech-lab/argo-signals/internal/analysis"
	"github.com/rxtech-lab/argo-signals/internal/logger"
	"github.com/rxtech-lab/argo-signals/internal/metrics"
	"github.com/rxtech-lab/argo-signals/internal/store"
	"github.com/rxtech-lab/argo-signals/pkg/errors"
	"github.com/rxtech-lab/argo-signals/pkg/marketdata"
	"go.uber.org/zap"
)

// HealthMessage is the body of GET /.
const HealthMessage = "argo-signals backend is running"

// History reads journaled analyses.
type History interface {
	Recent(ctx context.Context, symbol, interval string, limit int) ([]store.Entry, error)
}

// Forwarder delivers free-form messages, as the notification relay does.
type Forwarder interface {
	Forward(ctx context.Context, text string) error
}

// Server is the HTTP front end.
type Server struct {
	analyzer  *analysis.Analyzer
	history   History
	forwarder Forwarder
	hub       *Hub
	metrics   *metrics.Metrics
	logger    *logger.Logger
	router    *mux.Router
}

// Option configures a Server.
type Option func(*Server)

// WithHistory enables GET /api/v1/history.
func WithHistory(h History) Option {
	return func(s *Server) {
		s.history = h
	}
}

// WithForwarder enables POST /send-signal.
func WithForwarder(f Forwarder) Option {
	return func(s *Server) {
		s.forwarder = f
	}
}

// WithHub enables GET /api/v1/stream.
func WithHub(h *Hub) Option {
	return func(s *Server) {
		s.hub = h
	}
}

// WithMetrics enables GET /metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Server) {
		s.metrics = m
	}
}

// NewServer creates a server answering analysis requests with analyzer.
func NewServer(analyzer *analysis.Analyzer, log *logger.Logger, opts ...Option) *Server {
	if log == nil {
		log = logger.NewNopLogger()
	}

	s := &Server{
		analyzer: analyzer,
		logger:   log,
	}

	for _, opt := range opts {
		opt(s)
	}

	s.router = s.routes()

	return s
}

func (s *Server) routes() *mux.Router {
	router := mux.NewRouter()
	router.Use(s.logRequests)

	router.HandleFunc("/", s.handleHealth).Methods(http.MethodGet)
	router.HandleFunc("/api/v1/analysis", s.handleAnalysis).Methods(http.MethodGet)
	router.HandleFunc("/api/v1/history", s.handleHistory).Methods(http.MethodGet)
	router.HandleFunc("/send-signal", s.handleSendSignal).Methods(http.MethodPost)
	router.Handle("/metrics", s.metrics.Handler()).Methods(http.MethodGet)

	if s.hub != nil {
		router.HandleFunc("/api/v1/stream", s.hub.ServeWS).Methods(http.MethodGet)
	}

	return router
}

// Handler returns the router.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return errors.Wrapf(errors.ErrCodeDataSourceUnavailable, err, "failed to listen on %s", addr)
	}

	return s.Serve(ctx, listener)
}

// Serve serves on listener until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, listener net.Listener) error {
	httpServer := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)

	go func() {
		s.logger.Info("Server listening", zap.String("address", listener.Addr().String()))
		errCh <- httpServer.Serve(listener)
	}()

	select {
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}

		return err
	case <-ctx.Done():
	}

	if s.hub != nil {
		s.hub.Close()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return httpServer.Shutdown(shutdownCtx)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		next.ServeHTTP(w, r)

		s.logger.Debug("Handled request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Duration("duration", time.Since(start)))
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(HealthMessage))
}

func (s *Server) handleAnalysis(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	symbol := query.Get("symbol")
	interval := marketdata.Interval(query.Get("interval"))

	if interval == "" {
		interval = marketdata.IntervalOneHour
	}

	result, err := s.analyzer.Analyze(r.Context(), symbol, interval)
	if err != nil {
		writeError(w, statusFor(err), err)

		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		writeError(w, http.StatusNotFound, errors.New(errors.ErrCodeDataNotFound, "journal is not configured"))

		return
	}

	query := r.URL.Query()

	limit := 0
	if raw := query.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, errors.Newf(errors.ErrCodeInvalidParameter, "invalid limit %q", raw))

			return
		}

		limit = n
	}

	entries, err := s.history.Recent(r.Context(), query.Get("symbol"), query.Get("interval"), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)

		return
	}

	writeJSON(w, http.StatusOK, entries)
}

type sendSignalRequest struct {
	Message string `json:"message"`
}

func (s *Server) handleSendSignal(w http.ResponseWriter, r *http.Request) {
	if s.forwarder == nil {
		writeError(w, http.StatusServiceUnavailable, errors.New(errors.ErrCodeNotificationFailed, "notifications are not configured"))

		return
	}

	var req sendSignalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, errors.Wrap(errors.ErrCodeInvalidParameter, "invalid request body", err))

		return
	}

	if req.Message == "" {
		writeError(w, http.StatusBadRequest, errors.New(errors.ErrCodeMissingParameter, "message is required"))

		return
	}

	if err := s.forwarder.Forward(r.Context(), req.Message); err != nil {
		s.logger.Error("Failed to forward signal", zap.Error(err))
		writeError(w, http.StatusInternalServerError, err)

		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// statusFor maps an analysis error to an HTTP status.
func statusFor(err error) int {
	switch {
	case errors.IsInsufficientDataError(err), errors.IsInvalidInputError(err):
		return http.StatusUnprocessableEntity
	}

	switch errors.GetCode(err) {
	case errors.ErrCodeMissingParameter, errors.ErrCodeInvalidParameter, errors.ErrCodeInvalidInterval:
		return http.StatusBadRequest
	case errors.ErrCodeMarketDataFetchFailed, errors.ErrCodeDataSourceUnavailable:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

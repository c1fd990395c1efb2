// Package mockserver provides a mock Binance klines endpoint and a mock
// Telegram Bot API for end-to-end tests.
package mockserver

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/rxtech-lab/argo-signals/internal/types"
	"github.com/rxtech-lab/argo-signals/mocks"
)

// SentMessage is one message received on the mock sendMessage endpoint.
type SentMessage struct {
	Token  string `json:"-"`
	ChatID string `json:"chat_id"`
	Text   string `json:"text"`
}

// MockServer serves GET /api/v3/klines and POST /bot{token}/sendMessage.
type MockServer struct {
	mu sync.RWMutex

	httpServer *http.Server
	listener   net.Listener

	closes        map[string]types.PriceSeries
	seed          int64
	klineRequests int
	messages      []SentMessage
	failTelegram  bool
}

// NewMockServer creates a server. Symbols without explicit closes get a
// seeded random walk.
func NewMockServer(seed int64) *MockServer {
	return &MockServer{
		closes: make(map[string]types.PriceSeries),
		seed:   seed,
	}
}

// Start starts the server on address. An empty address or ":0" picks a free port.
func (s *MockServer) Start(address string) error {
	if address == "" {
		address = ":0"
	}

	listener, err := net.Listen("tcp", address)
	if err != nil {
		return fmt.Errorf("failed to create listener: %w", err)
	}

	s.listener = listener

	router := mux.NewRouter()
	router.HandleFunc("/api/v3/klines", s.handleKlines).Methods(http.MethodGet)
	router.HandleFunc("/bot{token}/sendMessage", s.handleSendMessage).Methods(http.MethodPost)

	s.httpServer = &http.Server{
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := s.httpServer.Serve(listener); err != http.ErrServerClosed {
			fmt.Printf("HTTP server error: %v\n", err)
		}
	}()

	return nil
}

// Stop shuts the server down.
func (s *MockServer) Stop() error {
	if s.httpServer == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return s.httpServer.Shutdown(ctx)
}

// BaseURL returns the base URL for the server.
func (s *MockServer) BaseURL() string {
	return "http://" + s.listener.Addr().String()
}

// SetCloses fixes the close series served for symbol.
func (s *MockServer) SetCloses(symbol string, closes types.PriceSeries) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closes[symbol] = append(types.PriceSeries(nil), closes...)
}

// SetTelegramFailure makes sendMessage answer 500 while fail is true.
func (s *MockServer) SetTelegramFailure(fail bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.failTelegram = fail
}

// Messages returns the messages received so far.
func (s *MockServer) Messages() []SentMessage {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return append([]SentMessage(nil), s.messages...)
}

// KlineRequests returns the number of klines requests served.
func (s *MockServer) KlineRequests() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.klineRequests
}

// handleKlines handles GET /api/v3/klines
func (s *MockServer) handleKlines(w http.ResponseWriter, r *http.Request) {
	symbol := r.URL.Query().Get("symbol")
	interval := r.URL.Query().Get("interval")

	if symbol == "" || interval == "" {
		http.Error(w, "Missing required parameters", http.StatusBadRequest)

		return
	}

	limit := 500
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > 1000 {
			http.Error(w, "Invalid limit", http.StatusBadRequest)

			return
		}

		limit = n
	}

	s.mu.Lock()
	s.klineRequests++
	closes, ok := s.closes[symbol]
	s.mu.Unlock()

	if !ok {
		config := mocks.DefaultConfig()
		config.Symbol = symbol
		config.Count = limit
		closes = mocks.NewDataGenerator(s.seed).GenerateCloses(config)
	}

	if len(closes) > limit {
		closes = closes[len(closes)-limit:]
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(mocks.KlineRows(mocks.CloseKlines(closes)))
}

// handleSendMessage handles POST /bot{token}/sendMessage
func (s *MockServer) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	var msg SentMessage
	if err := json.NewDecoder(r.Body).Decode(&msg); err != nil {
		http.Error(w, "Invalid body", http.StatusBadRequest)

		return
	}

	msg.Token = mux.Vars(r)["token"]

	s.mu.Lock()
	fail := s.failTelegram
	if !fail {
		s.messages = append(s.messages, msg)
	}
	s.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")

	if fail {
		w.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(w).Encode(map[string]any{"ok": false, "description": "Internal Server Error"})

		return
	}

	_ = json.NewEncoder(w).Encode(map[string]any{"ok": true, "result": map[string]any{"text": msg.Text}})
}

package server

import (
	"encoding/json"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rxtech-lab/argo-signals/internal/logger"
	"github.com/rxtech-lab/argo-signals/internal/metrics"
	"github.com/rxtech-lab/argo-signals/internal/types"
	"go.uber.org/zap"
)

const (
	sendBufferSize = 256
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 30 * time.Second
	maxReadSize    = 1024
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin:     func(*http.Request) bool { return true },
}

// Hub fans published analyses out to websocket clients and remembers the
// latest analysis per (symbol, interval).
type Hub struct {
	mu      sync.RWMutex
	clients map[*client]struct{}
	latest  map[string]types.Analysis
	logger  *logger.Logger
	metrics *metrics.Metrics
}

// client is one websocket peer. An empty symbol or interval matches all.
type client struct {
	conn     *websocket.Conn
	send     chan []byte
	symbol   string
	interval string
}

func (c *client) matches(a types.Analysis) bool {
	return (c.symbol == "" || c.symbol == a.Symbol) && (c.interval == "" || c.interval == a.Interval)
}

// NewHub creates an empty hub.
func NewHub(log *logger.Logger, m *metrics.Metrics) *Hub {
	if log == nil {
		log = logger.NewNopLogger()
	}

	return &Hub{
		clients: make(map[*client]struct{}),
		latest:  make(map[string]types.Analysis),
		logger:  log,
		metrics: m,
	}
}

func pairKey(symbol, interval string) string {
	return symbol + "|" + interval
}

// Publish stores a as the latest analysis of its pair and queues it for every
// matching client. A client whose buffer is full misses the message.
func (h *Hub) Publish(a types.Analysis) {
	data, err := json.Marshal(a)
	if err != nil {
		h.logger.Error("Failed to encode analysis", zap.String("request_id", a.RequestID), zap.Error(err))

		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	h.latest[pairKey(a.Symbol, a.Interval)] = a

	for c := range h.clients {
		if !c.matches(a) {
			continue
		}

		select {
		case c.send <- data:
		default:
			h.logger.Debug("Dropping stream message for slow client",
				zap.String("symbol", a.Symbol),
				zap.String("interval", a.Interval))
		}
	}
}

// Latest returns the latest analysis of every pair, ordered by symbol then interval.
func (h *Hub) Latest() []types.Analysis {
	h.mu.RLock()
	defer h.mu.RUnlock()

	keys := make([]string, 0, len(h.latest))
	for k := range h.latest {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	out := make([]types.Analysis, 0, len(keys))
	for _, k := range keys {
		out = append(out, h.latest[k])
	}

	return out
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.clients)
}

// ServeWS upgrades the request and streams analyses until the peer leaves.
// The optional symbol and interval query parameters narrow the feed.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("Failed to upgrade stream connection", zap.Error(err))

		return
	}

	c := &client{
		conn:     conn,
		send:     make(chan []byte, sendBufferSize),
		symbol:   r.URL.Query().Get("symbol"),
		interval: r.URL.Query().Get("interval"),
	}

	h.register(c)

	go h.writePump(c)

	h.readPump(c)
}

// register adds c and queues the latest matching analyses before any
// later Publish can reach it.
func (h *Hub) register(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	keys := make([]string, 0, len(h.latest))
	for k := range h.latest {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	for _, k := range keys {
		a := h.latest[k]
		if !c.matches(a) {
			continue
		}

		data, err := json.Marshal(a)
		if err != nil {
			continue
		}

		select {
		case c.send <- data:
		default:
		}
	}

	h.clients[c] = struct{}{}
	h.metrics.StreamClientConnected(1)

	h.logger.Debug("Stream client connected",
		zap.String("symbol", c.symbol),
		zap.String("interval", c.interval),
		zap.Int("clients", len(h.clients)))
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[c]; !ok {
		return
	}

	delete(h.clients, c)
	close(c.send)
	h.metrics.StreamClientConnected(-1)
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for c := range h.clients {
		delete(h.clients, c)
		close(c.send)
		h.metrics.StreamClientConnected(-1)
	}
}

func (h *Hub) writePump(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))

			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})

				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))

			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump discards client messages and returns when the peer disconnects.
func (h *Hub) readPump(c *client) {
	defer func() {
		h.unregister(c)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxReadSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

package signals_test

import (
	"context"
	"encoding/json"
	"io"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rxtech-lab/argo-signals/e2e/signals/mockserver"
	"github.com/rxtech-lab/argo-signals/internal/analysis"
	"github.com/rxtech-lab/argo-signals/internal/metrics"
	"github.com/rxtech-lab/argo-signals/internal/notification"
	"github.com/rxtech-lab/argo-signals/internal/server"
	"github.com/rxtech-lab/argo-signals/internal/store"
	"github.com/rxtech-lab/argo-signals/internal/types"
	"github.com/rxtech-lab/argo-signals/pkg/marketdata"
	"github.com/stretchr/testify/suite"
)

// SignalsE2ETestSuite runs the whole pipeline against the mock Binance and
// Telegram endpoints: klines -> indicators -> signal -> journal, stream and relay.
type SignalsE2ETestSuite struct {
	suite.Suite
	mock    *mockserver.MockServer
	db      *store.DB
	hub     *server.Hub
	api     *httptest.Server
	metrics *metrics.Metrics
}

func TestSignalsE2ESuite(t *testing.T) {
	suite.Run(t, new(SignalsE2ETestSuite))
}

// capitulation oscillates around 100, slides for 19 steps and drops 8 at
// the end, which fires a buy signal.
func capitulation() types.PriceSeries {
	prices := make(types.PriceSeries, 180)
	for i := range prices {
		prices[i] = 100 + 2*math.Sin(float64(i)/3)
	}

	last := prices[len(prices)-1]
	for j := 1; j < 20; j++ {
		prices = append(prices, last-0.5*float64(j))
	}

	return append(prices, prices[len(prices)-1]-8)
}

func (s *SignalsE2ETestSuite) SetupTest() {
	s.mock = mockserver.NewMockServer(42)
	s.Require().NoError(s.mock.Start(""))

	source, err := marketdata.NewBinanceSource(marketdata.WithBaseURL(s.mock.BaseURL()))
	s.Require().NoError(err)

	telegram, err := notification.NewTelegramNotifier("test-token", "chat-1",
		notification.WithTelegramBaseURL(s.mock.BaseURL()))
	s.Require().NoError(err)

	s.db, err = store.Open(context.Background(), "", nil)
	s.Require().NoError(err)

	seen, err := store.NewSeenStore(s.db, 200)
	s.Require().NoError(err)

	s.metrics = metrics.NewMetrics()
	relay := notification.NewRelay(telegram, seen, notification.WithRelayMetrics(s.metrics))
	journal := store.NewJournal(s.db)
	s.hub = server.NewHub(nil, s.metrics)

	analyzer, err := analysis.NewAnalyzer(source, nil, nil, nil,
		analysis.WithJournal(journal),
		analysis.WithRelay(relay),
		analysis.WithPublisher(s.hub),
		analysis.WithMetrics(s.metrics))
	s.Require().NoError(err)

	srv := server.NewServer(analyzer, nil,
		server.WithHistory(journal),
		server.WithForwarder(relay),
		server.WithHub(s.hub),
		server.WithMetrics(s.metrics))
	s.api = httptest.NewServer(srv.Handler())
}

func (s *SignalsE2ETestSuite) TearDownTest() {
	s.hub.Close()
	s.api.Close()
	s.NoError(s.db.Close())
	s.NoError(s.mock.Stop())
}

func (s *SignalsE2ETestSuite) getAnalysis(symbol, interval string) (int, types.Analysis) {
	resp, err := http.Get(s.api.URL + "/api/v1/analysis?symbol=" + symbol + "&interval=" + interval)
	s.Require().NoError(err)
	defer resp.Body.Close()

	var a types.Analysis
	if resp.StatusCode == http.StatusOK {
		s.Require().NoError(json.NewDecoder(resp.Body).Decode(&a))
	}

	return resp.StatusCode, a
}

func (s *SignalsE2ETestSuite) TestBuySignalIsRelayedOnce() {
	s.mock.SetCloses("BTCUSDT", capitulation())

	status, first := s.getAnalysis("BTCUSDT", "1h")
	s.Require().Equal(http.StatusOK, status)
	s.True(first.Signal.BuySignal)
	s.False(first.Signal.SellSignal)
	s.Equal(200, first.Samples)
	s.InDelta(82.5472, first.CurrentPrice, 1e-3)

	status, _ = s.getAnalysis("BTCUSDT", "1h")
	s.Require().Equal(http.StatusOK, status)

	messages := s.mock.Messages()
	s.Require().Len(messages, 1)
	s.Equal("test-token", messages[0].Token)
	s.Equal("chat-1", messages[0].ChatID)
	s.True(strings.HasPrefix(messages[0].Text, "BUY signal for BTCUSDT (1h) at 82.55"), messages[0].Text)
	s.Equal(2, s.mock.KlineRequests())
}

func (s *SignalsE2ETestSuite) TestFailedDeliveryIsRetried() {
	s.mock.SetCloses("ETHUSDT", capitulation())
	s.mock.SetTelegramFailure(true)

	status, result := s.getAnalysis("ETHUSDT", "4h")
	s.Require().Equal(http.StatusOK, status)
	s.True(result.Signal.BuySignal)
	s.Empty(s.mock.Messages())

	s.mock.SetTelegramFailure(false)

	status, _ = s.getAnalysis("ETHUSDT", "4h")
	s.Require().Equal(http.StatusOK, status)
	s.Len(s.mock.Messages(), 1)
}

func (s *SignalsE2ETestSuite) TestRandomWalkIsJournaled() {
	for i := 0; i < 3; i++ {
		status, _ := s.getAnalysis("SOLUSDT", "15m")
		s.Require().Equal(http.StatusOK, status)
	}

	resp, err := http.Get(s.api.URL + "/api/v1/history?symbol=SOLUSDT&interval=15m")
	s.Require().NoError(err)
	defer resp.Body.Close()

	var entries []map[string]any
	s.Require().NoError(json.NewDecoder(resp.Body).Decode(&entries))
	s.Require().Len(entries, 3)
	s.Greater(entries[0]["id"], entries[2]["id"])
	s.Equal(480.0, entries[0]["samples"])
}

func (s *SignalsE2ETestSuite) TestShortHistoryIsUnprocessable() {
	s.mock.SetCloses("NEWUSDT", capitulation()[:60])

	status, _ := s.getAnalysis("NEWUSDT", "1h")
	s.Equal(http.StatusUnprocessableEntity, status)
}

func (s *SignalsE2ETestSuite) TestStreamDeliversAnalyses() {
	url := "ws" + strings.TrimPrefix(s.api.URL, "http") + "/api/v1/stream?symbol=BTCUSDT"

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	s.Require().NoError(err)
	defer conn.Close()

	s.Require().Eventually(func() bool {
		return s.hub.ClientCount() == 1
	}, 2*time.Second, 10*time.Millisecond)

	s.mock.SetCloses("BTCUSDT", capitulation())

	status, published := s.getAnalysis("BTCUSDT", "1h")
	s.Require().Equal(http.StatusOK, status)

	s.Require().NoError(conn.SetReadDeadline(time.Now().Add(2 * time.Second)))

	_, data, err := conn.ReadMessage()
	s.Require().NoError(err)

	var streamed types.Analysis
	s.Require().NoError(json.Unmarshal(data, &streamed))
	s.Equal(published.RequestID, streamed.RequestID)
	s.True(streamed.Signal.BuySignal)
}

func (s *SignalsE2ETestSuite) TestMetricsReflectPipeline() {
	s.mock.SetCloses("BTCUSDT", capitulation())
	s.getAnalysis("BTCUSDT", "1h")
	s.getAnalysis("BTCUSDT", "1h")

	resp, err := http.Get(s.api.URL + "/metrics")
	s.Require().NoError(err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	s.Require().NoError(err)

	text := string(body)
	s.Contains(text, `argo_signals_notifications_total{result="sent"} 1`)
	s.Contains(text, `argo_signals_notifications_total{result="duplicate"} 1`)
	s.Contains(text, `argo_signals_signals_total{side="buy_long",symbol="BTCUSDT"} 2`)
}

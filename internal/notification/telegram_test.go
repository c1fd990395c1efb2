package notification

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rxtech-lab/argo-signals/pkg/errors"
	"github.com/stretchr/testify/suite"
)

type TelegramNotifierTestSuite struct {
	suite.Suite
}

func TestTelegramNotifierSuite(t *testing.T) {
	suite.Run(t, new(TelegramNotifierTestSuite))
}

func (suite *TelegramNotifierTestSuite) TestNewTelegramNotifier() {
	_, err := NewTelegramNotifier("", "42")
	suite.True(errors.HasCode(err, errors.ErrCodeMissingParameter))

	_, err = NewTelegramNotifier("token", "")
	suite.True(errors.HasCode(err, errors.ErrCodeMissingParameter))

	notifier, err := NewTelegramNotifier("token", "42")
	suite.Require().NoError(err)
	suite.Equal(DefaultTelegramBaseURL, notifier.baseURL)
	suite.Equal(10*time.Second, notifier.client.Timeout)
}

func (suite *TelegramNotifierTestSuite) TestSend() {
	var (
		gotPath string
		gotBody sendMessageRequest
	)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		suite.Equal("application/json", r.Header.Get("Content-Type"))
		suite.NoError(json.NewDecoder(r.Body).Decode(&gotBody))
		_, _ = w.Write([]byte(`{"ok":true,"result":{"message_id":1}}`))
	}))
	defer server.Close()

	notifier, err := NewTelegramNotifier("123:abc", "-100200", WithTelegramBaseURL(server.URL))
	suite.Require().NoError(err)

	err = notifier.Send(context.Background(), Message{Text: "BUY signal for BTCUSDT (1h) at 61234.50"})
	suite.Require().NoError(err)
	suite.Equal("/bot123:abc/sendMessage", gotPath)
	suite.Equal(sendMessageRequest{ChatID: "-100200", Text: "BUY signal for BTCUSDT (1h) at 61234.50"}, gotBody)
}

func (suite *TelegramNotifierTestSuite) TestSendRejected() {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"ok":false,"error_code":400,"description":"Bad Request: chat not found"}`))
	}))
	defer server.Close()

	notifier, err := NewTelegramNotifier("token", "42", WithTelegramBaseURL(server.URL))
	suite.Require().NoError(err)

	err = notifier.Send(context.Background(), Message{Text: "hello"})
	suite.True(errors.HasCode(err, errors.ErrCodeNotificationFailed))
	suite.Contains(err.Error(), "chat not found")
}

func (suite *TelegramNotifierTestSuite) TestSendServerError() {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	notifier, err := NewTelegramNotifier("token", "42", WithTelegramBaseURL(server.URL))
	suite.Require().NoError(err)

	err = notifier.Send(context.Background(), Message{Text: "hello"})
	suite.True(errors.HasCode(err, errors.ErrCodeNotificationFailed))
	suite.Contains(err.Error(), "502")
}

func (suite *TelegramNotifierTestSuite) TestSendTimeout() {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		<-release
	}))
	defer server.Close()
	defer close(release)

	notifier, err := NewTelegramNotifier("token", "42",
		WithTelegramBaseURL(server.URL),
		WithHTTPClient(&http.Client{Timeout: 50 * time.Millisecond}),
	)
	suite.Require().NoError(err)

	err = notifier.Send(context.Background(), Message{Text: "hello"})
	suite.True(errors.HasCode(err, errors.ErrCodeNotificationFailed))
}

func (suite *TelegramNotifierTestSuite) TestSendEmptyText() {
	notifier, err := NewTelegramNotifier("token", "42", WithTelegramBaseURL("http://127.0.0.1:0"))
	suite.Require().NoError(err)

	err = notifier.Send(context.Background(), Message{})
	suite.True(errors.HasCode(err, errors.ErrCodeMissingParameter))
}

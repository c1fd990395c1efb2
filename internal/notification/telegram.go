package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rxtech-lab/argo-signals/pkg/errors"
)

// DefaultTelegramBaseURL is the Telegram Bot API endpoint.
const DefaultTelegramBaseURL = "https://api.telegram.org"

// TelegramNotifier sends messages via the Telegram Bot API sendMessage method.
type TelegramNotifier struct {
	botToken string
	chatID   string
	baseURL  string
	client   *http.Client
}

// TelegramOption configures a TelegramNotifier.
type TelegramOption func(*TelegramNotifier)

// WithTelegramBaseURL replaces the Bot API endpoint, e.g. with a test server.
func WithTelegramBaseURL(url string) TelegramOption {
	return func(t *TelegramNotifier) {
		t.baseURL = url
	}
}

// WithHTTPClient replaces the default client with its 10s timeout.
func WithHTTPClient(client *http.Client) TelegramOption {
	return func(t *TelegramNotifier) {
		t.client = client
	}
}

// NewTelegramNotifier creates a Telegram notifier.
// botToken: Bot API token from @BotFather
// chatID: Target chat/group/channel ID
func NewTelegramNotifier(botToken, chatID string, opts ...TelegramOption) (*TelegramNotifier, error) {
	if botToken == "" {
		return nil, errors.New(errors.ErrCodeMissingParameter, "telegram bot token is required")
	}

	if chatID == "" {
		return nil, errors.New(errors.ErrCodeMissingParameter, "telegram chat id is required")
	}

	t := &TelegramNotifier{
		botToken: botToken,
		chatID:   chatID,
		baseURL:  DefaultTelegramBaseURL,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}

	for _, opt := range opts {
		opt(t)
	}

	return t, nil
}

type sendMessageRequest struct {
	ChatID string `json:"chat_id"`
	Text   string `json:"text"`
}

type sendMessageResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
}

func (t *TelegramNotifier) Send(ctx context.Context, msg Message) error {
	if msg.Text == "" {
		return errors.New(errors.ErrCodeMissingParameter, "message text is required")
	}

	body, err := json.Marshal(sendMessageRequest{ChatID: t.chatID, Text: msg.Text})
	if err != nil {
		return errors.Wrap(errors.ErrCodeNotificationFailed, "telegram: encode request", err)
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", t.baseURL, t.botToken)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return errors.Wrap(errors.ErrCodeNotificationFailed, "telegram: create request", err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return errors.Wrap(errors.ErrCodeNotificationFailed, "telegram: send", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var reply sendMessageResponse

		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		if json.Unmarshal(payload, &reply) == nil && reply.Description != "" {
			return errors.Newf(errors.ErrCodeNotificationFailed, "telegram: unexpected status %d: %s", resp.StatusCode, reply.Description)
		}

		return errors.Newf(errors.ErrCodeNotificationFailed, "telegram: unexpected status %d", resp.StatusCode)
	}

	return nil
}

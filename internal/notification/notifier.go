// Package notification delivers fired signals to external channels and keeps
// a bounded record of what was already sent.
package notification

import (
	"context"

	"github.com/rxtech-lab/argo-signals/internal/logger"
	"github.com/rxtech-lab/argo-signals/internal/types"
	"go.uber.org/zap"
)

// Message is one notification. Text is what gets delivered; the other fields
// describe the signal it came from and are empty for free-form messages.
type Message struct {
	Text     string           `json:"text"`
	Symbol   string           `json:"symbol,omitempty"`
	Interval string           `json:"interval,omitempty"`
	Side     types.SignalType `json:"side,omitempty"`
	Price    float64          `json:"price,omitempty"`
}

// Notifier is the interface for all notification backends.
type Notifier interface {
	// Send delivers a message. Returns error if delivery fails.
	Send(ctx context.Context, msg Message) error
}

// LogNotifier writes messages to the log instead of delivering them.
type LogNotifier struct {
	logger *logger.Logger
}

// NewLogNotifier creates a log-based notifier.
func NewLogNotifier(log *logger.Logger) *LogNotifier {
	return &LogNotifier{logger: log}
}

func (n *LogNotifier) Send(_ context.Context, msg Message) error {
	n.logger.Info("Signal notification",
		zap.String("text", msg.Text),
		zap.String("symbol", msg.Symbol),
		zap.String("interval", msg.Interval),
		zap.String("side", string(msg.Side)),
	)

	return nil
}

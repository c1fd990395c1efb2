package notification

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"github.com/rxtech-lab/argo-signals/internal/logger"
	"github.com/rxtech-lab/argo-signals/internal/metrics"
	"github.com/rxtech-lab/argo-signals/internal/signal"
	"github.com/rxtech-lab/argo-signals/internal/types"
	"go.uber.org/zap"
)

// Relay forwards fired signals to a Notifier at most once per dedup key.
type Relay struct {
	mu       sync.Mutex
	notifier Notifier
	seen     SeenStore
	logger   *logger.Logger
	metrics  *metrics.Metrics
}

// RelayOption configures a Relay.
type RelayOption func(*Relay)

// WithRelayLogger sets the relay logger. Defaults to a no-op logger.
func WithRelayLogger(log *logger.Logger) RelayOption {
	return func(r *Relay) {
		r.logger = log
	}
}

// WithRelayMetrics records relay decisions.
func WithRelayMetrics(m *metrics.Metrics) RelayOption {
	return func(r *Relay) {
		r.metrics = m
	}
}

// NewRelay creates a relay sending through notifier and deduplicating with seen.
func NewRelay(notifier Notifier, seen SeenStore, opts ...RelayOption) *Relay {
	r := &Relay{
		notifier: notifier,
		seen:     seen,
		logger:   logger.NewNopLogger(),
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// DedupKey identifies a notification: symbol|interval|side|price.
func DedupKey(a types.Analysis) string {
	return fmt.Sprintf("%s|%s|%s|%s", a.Symbol, a.Interval, a.Signal.Type(), strconv.FormatFloat(a.CurrentPrice, 'f', -1, 64))
}

// MessageFor builds the notification for an analysis.
func MessageFor(a types.Analysis) Message {
	return Message{
		Text:     signal.Describe(a.Signal, a.Symbol, a.Interval, a.CurrentPrice),
		Symbol:   a.Symbol,
		Interval: a.Interval,
		Side:     a.Signal.Type(),
		Price:    a.CurrentPrice,
	}
}

// Notify sends a notification when a signal fired and its key was not sent
// before. The key is recorded only after a successful send, so a failed
// delivery is retried on the next identical analysis.
func (r *Relay) Notify(ctx context.Context, a types.Analysis) (bool, error) {
	if !a.Signal.Triggered() {
		return false, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	key := DedupKey(a)

	seen, err := r.seen.Seen(ctx, key)
	if err != nil {
		return false, err
	}

	if seen {
		r.metrics.ObserveNotification(metrics.NotificationDuplicate)
		r.logger.Debug("Skipping duplicate signal", zap.String("key", key))

		return false, nil
	}

	if err := r.notifier.Send(ctx, MessageFor(a)); err != nil {
		r.metrics.ObserveNotification(metrics.NotificationFailed)

		return false, err
	}

	r.metrics.ObserveNotification(metrics.NotificationSent)

	if err := r.seen.Add(ctx, key); err != nil {
		r.logger.Warn("Failed to record sent signal", zap.String("key", key), zap.Error(err))
	}

	r.logger.Info("Signal sent", zap.String("key", key))

	return true, nil
}

// Forward delivers a free-form message, bypassing deduplication.
func (r *Relay) Forward(ctx context.Context, text string) error {
	return r.notifier.Send(ctx, Message{Text: text})
}

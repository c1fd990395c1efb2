// Package analysis ties market data, the indicator engine and the signal
// generator together and hands each result to the configured sinks.
package analysis

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rxtech-lab/argo-signals/internal/indicator"
	"github.com/rxtech-lab/argo-signals/internal/logger"
	"github.com/rxtech-lab/argo-signals/internal/metrics"
	"github.com/rxtech-lab/argo-signals/internal/signal"
	"github.com/rxtech-lab/argo-signals/internal/types"
	"github.com/rxtech-lab/argo-signals/pkg/errors"
	"github.com/rxtech-lab/argo-signals/pkg/marketdata"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// DefaultConcurrency bounds AnalyzeAll when WithConcurrency is not given.
const DefaultConcurrency = 4

// Journal persists analyses.
type Journal interface {
	Record(ctx context.Context, a types.Analysis) error
}

// Publisher receives every analysis, e.g. a live stream hub. Publish must not block.
type Publisher interface {
	Publish(a types.Analysis)
}

// Relay forwards fired signals. It reports whether a notification was sent.
type Relay interface {
	Notify(ctx context.Context, a types.Analysis) (bool, error)
}

// Target is one (symbol, interval) pair to analyze.
type Target struct {
	Symbol   string              `json:"symbol" yaml:"symbol" validate:"required"`
	Interval marketdata.Interval `json:"interval" yaml:"interval" validate:"required"`
}

// Analyzer fetches closes, computes indicators and derives a signal.
type Analyzer struct {
	source      marketdata.Source
	engine      *indicator.Engine
	generator   *signal.Generator
	logger      *logger.Logger
	journal     Journal
	relay       Relay
	publisher   Publisher
	metrics     *metrics.Metrics
	clock       func() time.Time
	concurrency int
}

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithJournal records every successful analysis.
func WithJournal(j Journal) Option {
	return func(a *Analyzer) {
		a.journal = j
	}
}

// WithRelay forwards fired signals.
func WithRelay(r Relay) Option {
	return func(a *Analyzer) {
		a.relay = r
	}
}

// WithPublisher publishes every successful analysis.
func WithPublisher(p Publisher) Option {
	return func(a *Analyzer) {
		a.publisher = p
	}
}

// WithMetrics records outcomes and compute latency.
func WithMetrics(m *metrics.Metrics) Option {
	return func(a *Analyzer) {
		a.metrics = m
	}
}

// WithClock overrides the time source used for ComputedAt.
func WithClock(clock func() time.Time) Option {
	return func(a *Analyzer) {
		a.clock = clock
	}
}

// WithConcurrency bounds the number of concurrent analyses in AnalyzeAll.
func WithConcurrency(n int) Option {
	return func(a *Analyzer) {
		if n > 0 {
			a.concurrency = n
		}
	}
}

// NewAnalyzer creates an analyzer. A nil engine or generator falls back to
// the defaults; a nil logger discards logs.
func NewAnalyzer(source marketdata.Source, engine *indicator.Engine, generator *signal.Generator, log *logger.Logger, opts ...Option) (*Analyzer, error) {
	if source == nil {
		return nil, errors.New(errors.ErrCodeMissingParameter, "market data source is required")
	}

	if engine == nil {
		e, err := indicator.NewEngine()
		if err != nil {
			return nil, err
		}

		engine = e
	}

	if generator == nil {
		g, err := signal.NewGenerator()
		if err != nil {
			return nil, err
		}

		generator = g
	}

	if log == nil {
		log = logger.NewNopLogger()
	}

	a := &Analyzer{
		source:      source,
		engine:      engine,
		generator:   generator,
		logger:      log,
		clock:       time.Now,
		concurrency: DefaultConcurrency,
	}

	for _, opt := range opts {
		opt(a)
	}

	return a, nil
}

// Analyze produces one analysis for symbol and interval and hands it to the
// sinks. Sink failures are logged and never fail the analysis.
func (a *Analyzer) Analyze(ctx context.Context, symbol string, interval marketdata.Interval) (types.Analysis, error) {
	result, err := a.evaluate(ctx, symbol, interval)
	if err != nil {
		a.metrics.ObserveAnalysis(symbol, interval.String(), Outcome(err))

		return types.Analysis{}, err
	}

	a.metrics.ObserveAnalysis(symbol, interval.String(), metrics.OutcomeOK)
	a.deliver(ctx, result, nil)

	return result, nil
}

// AnalyzeAll analyzes every target with at most WithConcurrency analyses in
// flight. Results keep the order of targets. The first failure cancels the
// remaining analyses and is returned.
func (a *Analyzer) AnalyzeAll(ctx context.Context, targets []Target) ([]types.Analysis, error) {
	results := make([]types.Analysis, len(targets))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.concurrency)

	for i, target := range targets {
		i, target := i, target
		g.Go(func() error {
			result, err := a.Analyze(gctx, target.Symbol, target.Interval)
			if err != nil {
				return err
			}

			results[i] = result

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return results, nil
}

func (a *Analyzer) evaluate(ctx context.Context, symbol string, interval marketdata.Interval) (types.Analysis, error) {
	if symbol == "" {
		return types.Analysis{}, errors.New(errors.ErrCodeMissingParameter, "symbol is required")
	}

	if err := interval.Validate(); err != nil {
		return types.Analysis{}, err
	}

	closes, err := a.source.FetchCloses(ctx, symbol, interval)
	if err != nil {
		a.logger.Warn("Failed to fetch closes",
			zap.String("symbol", symbol),
			zap.String("interval", interval.String()),
			zap.Error(err))

		return types.Analysis{}, err
	}

	start := time.Now()

	set, err := a.engine.Compute(closes)
	if err != nil {
		a.logger.Warn("Failed to compute indicators",
			zap.String("symbol", symbol),
			zap.String("interval", interval.String()),
			zap.Int("samples", len(closes)),
			zap.Error(err))

		return types.Analysis{}, err
	}

	// Compute rejects empty series, so the last close exists
	price := closes.Last().Unwrap()
	result := a.generator.Generate(price, set)

	a.metrics.ObserveCompute(time.Since(start))

	analysis := types.Analysis{
		RequestID:    uuid.NewString(),
		Symbol:       symbol,
		Interval:     interval.String(),
		CurrentPrice: price,
		Samples:      len(closes),
		Indicators:   set,
		Signal:       result,
		ComputedAt:   a.clock().UTC(),
	}

	a.logger.Info("Analysis complete",
		zap.String("request_id", analysis.RequestID),
		zap.String("symbol", symbol),
		zap.String("interval", interval.String()),
		zap.Float64("price", price),
		zap.Bool("buy", result.BuySignal),
		zap.Bool("sell", result.SellSignal))

	return analysis, nil
}

// deliver hands result to the sinks. current is checked before every sink;
// once it reports false the remaining sinks are skipped and deliver returns
// false. A nil current always proceeds.
func (a *Analyzer) deliver(ctx context.Context, result types.Analysis, current func() bool) bool {
	proceed := func() bool {
		return current == nil || current()
	}

	if !proceed() {
		return false
	}

	if result.Signal.Triggered() {
		a.metrics.ObserveSignal(result.Symbol, string(result.Signal.Type()))
	}

	if a.journal != nil {
		if err := a.journal.Record(ctx, result); err != nil {
			a.logger.Error("Failed to journal analysis",
				zap.String("request_id", result.RequestID),
				zap.Error(err))
		}
	}

	if a.publisher != nil {
		if !proceed() {
			return false
		}

		a.publisher.Publish(result)
	}

	if a.relay != nil {
		if !proceed() {
			return false
		}

		if _, err := a.relay.Notify(ctx, result); err != nil {
			a.logger.Error("Failed to relay signal",
				zap.String("request_id", result.RequestID),
				zap.Error(err))
		}
	}

	return true
}

// Outcome classifies an analysis error into a metrics outcome label.
func Outcome(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeOK
	case errors.Is(err, ErrStaleResult), errors.Is(err, context.Canceled):
		return metrics.OutcomeStale
	case errors.IsInsufficientDataError(err):
		return metrics.OutcomeInsufficientData
	case errors.IsInvalidInputError(err):
		return metrics.OutcomeInvalidInput
	case errors.HasCode(err, errors.ErrCodeMarketDataFetchFailed),
		errors.HasCode(err, errors.ErrCodeDataSourceUnavailable),
		errors.Is(err, context.DeadlineExceeded):
		return metrics.OutcomeUpstreamError
	default:
		return metrics.OutcomeError
	}
}

package analysis

import (
	"context"
	"sync"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-signals/internal/metrics"
	"github.com/rxtech-lab/argo-signals/internal/types"
	"github.com/rxtech-lab/argo-signals/pkg/errors"
	"github.com/rxtech-lab/argo-signals/pkg/marketdata"
	"go.uber.org/zap"
)

// ErrStaleResult is returned by Session.Request when a newer request was
// issued before this one completed.
var ErrStaleResult = errors.New(errors.ErrCodeStaleResult, "result superseded by a newer request")

// Session serves one consumer that switches symbol or interval over time.
// Only the newest request may publish: issuing a request cancels the one in
// flight, and a request that finishes after being superseded is dropped.
type Session struct {
	analyzer *Analyzer

	mu         sync.Mutex
	generation uint64
	cancel     context.CancelFunc
	latest     optional.Option[types.Analysis]
}

// NewSession creates a session running its requests on analyzer.
func NewSession(analyzer *Analyzer) *Session {
	return &Session{
		analyzer: analyzer,
		latest:   optional.None[types.Analysis](),
	}
}

// Request analyzes symbol and interval. It returns ErrStaleResult when
// another Request started before this one finished. A stale result is never
// stored, and sinks not yet reached when it went stale never receive it.
func (s *Session) Request(ctx context.Context, symbol string, interval marketdata.Interval) (types.Analysis, error) {
	s.mu.Lock()
	s.generation++
	generation := s.generation

	if s.cancel != nil {
		s.cancel()
	}

	reqCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.mu.Unlock()

	defer cancel()

	result, err := s.analyzer.evaluate(reqCtx, symbol, interval)
	if !s.isCurrent(generation) {
		return types.Analysis{}, s.stale(symbol, interval, generation)
	}

	if err != nil {
		s.analyzer.metrics.ObserveAnalysis(symbol, interval.String(), Outcome(err))

		return types.Analysis{}, err
	}

	// a newer request may start while the sinks run
	current := func() bool { return s.isCurrent(generation) }
	if !s.analyzer.deliver(ctx, result, current) {
		return types.Analysis{}, s.stale(symbol, interval, generation)
	}

	s.mu.Lock()
	if generation != s.generation {
		s.mu.Unlock()

		return types.Analysis{}, s.stale(symbol, interval, generation)
	}

	s.latest = optional.Some(result)
	s.mu.Unlock()

	s.analyzer.metrics.ObserveAnalysis(symbol, interval.String(), metrics.OutcomeOK)

	return result, nil
}

func (s *Session) isCurrent(generation uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return generation == s.generation
}

func (s *Session) stale(symbol string, interval marketdata.Interval, generation uint64) error {
	s.analyzer.metrics.ObserveAnalysis(symbol, interval.String(), metrics.OutcomeStale)
	s.analyzer.logger.Debug("Dropping stale result",
		zap.String("symbol", symbol),
		zap.String("interval", interval.String()),
		zap.Uint64("generation", generation))

	return ErrStaleResult
}

// Latest returns the newest published result.
func (s *Session) Latest() optional.Option[types.Analysis] {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.latest
}

// Generation returns the number of requests issued so far.
func (s *Session) Generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.generation
}

// Close cancels the request in flight, if any.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}

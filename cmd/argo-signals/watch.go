package main

import (
	"context"
	"time"

	"github.com/rxtech-lab/argo-signals/internal/analysis"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// watch analyzes every target once per poll interval until ctx is done.
// Each target has its own session, so a slow round never publishes over a
// newer one.
func (a *app) watch(ctx context.Context) error {
	targets := a.cfg.AnalysisTargets()

	sessions := make([]*analysis.Session, len(targets))
	for i := range targets {
		sessions[i] = analysis.NewSession(a.analyzer)
	}

	defer func() {
		for _, s := range sessions {
			s.Close()
		}
	}()

	a.logger.Info("Watching targets",
		zap.Int("targets", len(targets)),
		zap.Duration("poll_interval", a.cfg.PollInterval))

	ticker := time.NewTicker(a.cfg.PollInterval)
	defer ticker.Stop()

	for {
		a.round(ctx, targets, sessions)

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func (a *app) round(ctx context.Context, targets []analysis.Target, sessions []*analysis.Session) {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.cfg.Concurrency)

	for i, target := range targets {
		i, target := i, target
		g.Go(func() error {
			_, err := sessions[i].Request(gctx, target.Symbol, target.Interval)
			if err != nil && ctx.Err() == nil {
				a.logger.Warn("Analysis failed",
					zap.String("symbol", target.Symbol),
					zap.String("interval", target.Interval.String()),
					zap.String("outcome", analysis.Outcome(err)),
					zap.Error(err))
			}

			// one failing target must not cancel the others
			return nil
		})
	}

	_ = g.Wait()
}

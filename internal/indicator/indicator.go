// Package indicator computes technical indicator series from a chronological
// price series. Every calculation here is a pure function of its input: no I/O,
// no logging, no state kept between calls.
package indicator

import (
	"github.com/rxtech-lab/argo-signals/internal/types"
	"github.com/rxtech-lab/argo-signals/pkg/errors"
)

// Indicator interface defines methods that any technical indicator must implement
type Indicator interface {
	// Name returns the name of the indicator
	Name() types.IndicatorType
	// Config configures the indicator parameters
	Config(params ...any) error
	// MinSamples returns the number of prices needed to emit one output point
	MinSamples() int
	// Apply computes the indicator series over prices and stores it in set
	Apply(prices types.PriceSeries, set *types.IndicatorSet)
}

// periodParam validates a positive integer period parameter.
func periodParam(param any, name string) (int, error) {
	period, ok := param.(int)
	if !ok {
		return 0, errors.Newf(errors.ErrCodeInvalidType, "invalid type for %s parameter, expected int", name)
	}

	if period <= 0 {
		return 0, errors.Newf(errors.ErrCodeInvalidPeriod, "%s must be a positive integer, got %d", name, period)
	}

	return period, nil
}

// windowMean is shared by the SMA, the EMA seed and the Bollinger middle band
// so that equal windows produce bit-identical means.
func windowMean(window []float64) float64 {
	sum := 0.0
	for _, v := range window {
		sum += v
	}

	return sum / float64(len(window))
}

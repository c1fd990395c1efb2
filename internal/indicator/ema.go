package indicator

import (
	"github.com/rxtech-lab/argo-signals/internal/types"
	"github.com/rxtech-lab/argo-signals/pkg/errors"
)

// EMA indicator implements Exponential Moving Average calculation.
type EMA struct {
	period int
}

// NewEMA creates a new EMA indicator with default configuration.
func NewEMA() Indicator {
	return &EMA{
		period: 14, // Default period
	}
}

// Name returns the name of the indicator.
func (e *EMA) Name() types.IndicatorType {
	return types.IndicatorTypeEMA
}

// Config configures the EMA indicator. Expected parameters: period (int).
func (e *EMA) Config(params ...any) error {
	if len(params) != 1 {
		return errors.New(errors.ErrCodeMissingParameter, "Config expects 1 parameter: period (int)")
	}

	period, err := periodParam(params[0], "period")
	if err != nil {
		return err
	}

	e.period = period

	return nil
}

// MinSamples implements Indicator.
func (e *EMA) MinSamples() int {
	return e.period
}

// Apply implements Indicator.
func (e *EMA) Apply(prices types.PriceSeries, set *types.IndicatorSet) {
	set.EMA = EMASeries(prices, e.period)
}

// EMASeries calculates the exponential moving average of prices.
//
// The first value is the simple mean of the first period prices. Every later
// value is EMA = price * k + EMA_prev * (1 - k) with k = 2 / (period + 1).
// The result has len(prices)-period+1 points and starts at the seed index.
func EMASeries(prices []float64, period int) []float64 {
	if period <= 0 || len(prices) < period {
		return []float64{}
	}

	k := 2.0 / float64(period+1)

	out := make([]float64, 0, len(prices)-period+1)
	ema := windowMean(prices[:period])
	out = append(out, ema)

	for i := period; i < len(prices); i++ {
		ema = (prices[i] * k) + (ema * (1 - k))
		out = append(out, ema)
	}

	return out
}

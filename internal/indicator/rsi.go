package indicator

import (
	"github.com/rxtech-lab/argo-signals/internal/types"
	"github.com/rxtech-lab/argo-signals/pkg/errors"
)

// RSI represents the Relative Strength Index indicator.
type RSI struct {
	period int
}

// NewRSI creates a new RSI indicator with default configuration.
func NewRSI() Indicator {
	return &RSI{
		period: 14, // Default period
	}
}

// Name returns the name of the indicator.
func (r *RSI) Name() types.IndicatorType {
	return types.IndicatorTypeRSI
}

// Config configures the RSI indicator. Expected parameters: period (int).
func (r *RSI) Config(params ...any) error {
	if len(params) < 1 {
		return errors.New(errors.ErrCodeMissingParameter, "Config expects at least 1 parameter: period (int)")
	}

	period, err := periodParam(params[0], "period")
	if err != nil {
		return err
	}

	r.period = period

	return nil
}

// MinSamples implements Indicator. RSI needs period deltas, so period+1 prices.
func (r *RSI) MinSamples() int {
	return r.period + 1
}

// Apply implements Indicator.
func (r *RSI) Apply(prices types.PriceSeries, set *types.IndicatorSet) {
	set.RSI = RSISeries(prices, r.period)
}

// RSISeries calculates the Relative Strength Index with Wilder's smoothing.
//
// The first average gain and loss are simple means over the first period
// deltas; after that avg = (avg*(period-1) + current) / period. The result has
// len(prices)-period points, each in [0, 100].
func RSISeries(prices []float64, period int) []float64 {
	if period <= 0 || len(prices) <= period {
		return []float64{}
	}

	avgGain := 0.0
	avgLoss := 0.0

	// First average
	for i := 1; i <= period; i++ {
		gain, loss := splitChange(prices[i] - prices[i-1])
		avgGain += gain
		avgLoss += loss
	}

	avgGain /= float64(period)
	avgLoss /= float64(period)

	out := make([]float64, 0, len(prices)-period)
	out = append(out, relativeStrength(avgGain, avgLoss))

	// Subsequent averages using Wilder's smoothing method
	p := float64(period)
	for i := period + 1; i < len(prices); i++ {
		gain, loss := splitChange(prices[i] - prices[i-1])
		avgGain = (avgGain*(p-1) + gain) / p
		avgLoss = (avgLoss*(p-1) + loss) / p
		out = append(out, relativeStrength(avgGain, avgLoss))
	}

	return out
}

func splitChange(change float64) (gain, loss float64) {
	if change > 0 {
		return change, 0
	}

	return 0, -change
}

func relativeStrength(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		return 100 // Perfect uptrend
	}

	rs := avgGain / avgLoss

	return 100 - (100 / (1 + rs))
}

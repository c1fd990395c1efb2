package indicator

import (
	"github.com/rxtech-lab/argo-signals/internal/types"
	"github.com/rxtech-lab/argo-signals/pkg/errors"
)

// SMA indicator implements Simple Moving Average calculation.
type SMA struct {
	period int
}

// NewSMA creates a new SMA indicator with default configuration.
func NewSMA() Indicator {
	return &SMA{
		period: 14, // Default period
	}
}

// Name returns the name of the indicator.
func (m *SMA) Name() types.IndicatorType {
	return types.IndicatorTypeSMA
}

// Config configures the SMA indicator. Expected parameters: period (int).
func (m *SMA) Config(params ...any) error {
	if len(params) != 1 {
		return errors.New(errors.ErrCodeMissingParameter, "Config expects 1 parameter: period (int)")
	}

	period, err := periodParam(params[0], "period")
	if err != nil {
		return err
	}

	m.period = period

	return nil
}

// MinSamples implements Indicator.
func (m *SMA) MinSamples() int {
	return m.period
}

// Apply implements Indicator.
func (m *SMA) Apply(prices types.PriceSeries, set *types.IndicatorSet) {
	set.SMA = SMASeries(prices, m.period)
}

// SMASeries returns the mean of every contiguous window of period prices.
// The result has len(prices)-period+1 points, or none when prices is shorter
// than period.
func SMASeries(prices []float64, period int) []float64 {
	if period <= 0 || len(prices) < period {
		return []float64{}
	}

	out := make([]float64, 0, len(prices)-period+1)
	for end := period; end <= len(prices); end++ {
		out = append(out, windowMean(prices[end-period:end]))
	}

	return out
}

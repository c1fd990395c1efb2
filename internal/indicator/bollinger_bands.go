package indicator

import (
	"math"

	"github.com/rxtech-lab/argo-signals/internal/types"
	"github.com/rxtech-lab/argo-signals/pkg/errors"
)

// BollingerBands implements the Indicator interface for Bollinger Bands.
type BollingerBands struct {
	period int     // Number of periods for moving average
	stdDev float64 // Number of standard deviations
}

// NewBollingerBands creates a new Bollinger Bands indicator with default configuration.
func NewBollingerBands() Indicator {
	return &BollingerBands{
		period: 20,  // Default period
		stdDev: 2.0, // Default standard deviation
	}
}

// Name returns the name of the indicator.
func (bb *BollingerBands) Name() types.IndicatorType {
	return types.IndicatorTypeBollingerBands
}

// Config configures the Bollinger Bands indicator. Expected parameters: period (int), stdDev (float64).
func (bb *BollingerBands) Config(params ...any) error {
	if len(params) != 2 {
		return errors.New(errors.ErrCodeMissingParameter, "Config expects 2 parameters: period (int), stdDev (float64)")
	}

	period, err := periodParam(params[0], "period")
	if err != nil {
		return err
	}

	stdDev, ok := params[1].(float64)
	if !ok {
		return errors.New(errors.ErrCodeInvalidType, "invalid type for stdDev parameter, expected float64")
	}

	if stdDev <= 0 || math.IsNaN(stdDev) || math.IsInf(stdDev, 0) {
		return errors.Newf(errors.ErrCodeInvalidStdDevPeriod, "stdDev must be a positive number, got %f", stdDev)
	}

	bb.period = period
	bb.stdDev = stdDev

	return nil
}

// MinSamples implements Indicator.
func (bb *BollingerBands) MinSamples() int {
	return bb.period
}

// Apply implements Indicator.
func (bb *BollingerBands) Apply(prices types.PriceSeries, set *types.IndicatorSet) {
	set.BollingerBands = BollingerSeries(prices, bb.period, bb.stdDev)
}

// BollingerSeries calculates the bands for every contiguous window of period
// prices. The middle band is the window mean and the bands sit multiplier
// population standard deviations away from it.
func BollingerSeries(prices []float64, period int, multiplier float64) []types.BollingerBand {
	if period <= 0 || len(prices) < period {
		return []types.BollingerBand{}
	}

	out := make([]types.BollingerBand, 0, len(prices)-period+1)

	for end := period; end <= len(prices); end++ {
		window := prices[end-period : end]
		middle := windowMean(window)

		// Calculate standard deviation
		var squaredDiffSum float64
		for _, v := range window {
			diff := v - middle
			squaredDiffSum += diff * diff
		}

		sigma := math.Sqrt(squaredDiffSum / float64(period))

		out = append(out, types.BollingerBand{
			Upper:  middle + (multiplier * sigma),
			Middle: middle,
			Lower:  middle - (multiplier * sigma),
		})
	}

	return out
}

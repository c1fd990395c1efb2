package indicator

import (
	"github.com/rxtech-lab/argo-signals/internal/types"
	"github.com/rxtech-lab/argo-signals/pkg/errors"
)

// MACD represents the Moving Average Convergence Divergence indicator.
type MACD struct {
	fastPeriod   int
	slowPeriod   int
	signalPeriod int
}

// NewMACD creates a new MACD indicator with default configuration.
func NewMACD() Indicator {
	return &MACD{
		fastPeriod:   12, // Default fast period
		slowPeriod:   26, // Default slow period
		signalPeriod: 9,  // Default signal period
	}
}

// Name returns the name of the indicator.
func (m *MACD) Name() types.IndicatorType {
	return types.IndicatorTypeMACD
}

// Config configures the MACD indicator. Expected parameters: fastPeriod (int), slowPeriod (int), signalPeriod (int).
func (m *MACD) Config(params ...any) error {
	if len(params) != 3 {
		return errors.New(errors.ErrCodeMissingParameter, "Config expects 3 parameters: fastPeriod (int), slowPeriod (int), signalPeriod (int)")
	}

	fastPeriod, err := periodParam(params[0], "fastPeriod")
	if err != nil {
		return err
	}

	slowPeriod, err := periodParam(params[1], "slowPeriod")
	if err != nil {
		return err
	}

	signalPeriod, err := periodParam(params[2], "signalPeriod")
	if err != nil {
		return err
	}

	if fastPeriod >= slowPeriod {
		return errors.Newf(errors.ErrCodeInvalidConfiguration, "fastPeriod (%d) must be smaller than slowPeriod (%d)", fastPeriod, slowPeriod)
	}

	m.fastPeriod = fastPeriod
	m.slowPeriod = slowPeriod
	m.signalPeriod = signalPeriod

	return nil
}

// MinSamples implements Indicator. The signal line needs signalPeriod MACD
// values, and the first MACD value needs slowPeriod prices.
func (m *MACD) MinSamples() int {
	return m.slowPeriod + m.signalPeriod - 1
}

// Apply implements Indicator.
func (m *MACD) Apply(prices types.PriceSeries, set *types.IndicatorSet) {
	set.MACD = MACDSeries(prices, m.fastPeriod, m.slowPeriod, m.signalPeriod)
}

// MACDSeries calculates the MACD line, its signal line and the histogram.
//
// The MACD line is EMA(fast) - EMA(slow) over the range where both exist,
// aligned by their last element. The signal line is EMA(signal) of the MACD
// line. Only points that have a signal value are returned, so the result has
// len(prices)-slow-signal+2 points.
func MACDSeries(prices []float64, fastPeriod, slowPeriod, signalPeriod int) []types.MACDPoint {
	fastEMA := EMASeries(prices, fastPeriod)
	slowEMA := EMASeries(prices, slowPeriod)

	overlap := min(len(fastEMA), len(slowEMA))
	if overlap == 0 {
		return []types.MACDPoint{}
	}

	fastTail := fastEMA[len(fastEMA)-overlap:]
	slowTail := slowEMA[len(slowEMA)-overlap:]

	macdLine := make([]float64, overlap)
	for i := range macdLine {
		macdLine[i] = fastTail[i] - slowTail[i]
	}

	signalLine := EMASeries(macdLine, signalPeriod)
	if len(signalLine) == 0 {
		return []types.MACDPoint{}
	}

	macdLine = macdLine[len(macdLine)-len(signalLine):]

	out := make([]types.MACDPoint, len(signalLine))
	for i := range signalLine {
		out[i] = types.MACDPoint{
			MACD:      macdLine[i],
			Signal:    signalLine[i],
			Histogram: macdLine[i] - signalLine[i],
		}
	}

	return out
}

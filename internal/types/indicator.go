package types

import "github.com/moznion/go-optional"

type IndicatorType string

const (
	IndicatorTypeSMA            IndicatorType = "sma"
	IndicatorTypeEMA            IndicatorType = "ema"
	IndicatorTypeRSI            IndicatorType = "rsi"
	IndicatorTypeMACD           IndicatorType = "macd"
	IndicatorTypeBollingerBands IndicatorType = "bollinger_bands"
)

// MACDPoint is one output of the MACD indicator.
type MACDPoint struct {
	// MACD is the fast EMA minus the slow EMA
	MACD float64 `json:"MACD" yaml:"macd"`
	// Signal is the EMA of the MACD line
	Signal float64 `json:"signal" yaml:"signal"`
	// Histogram is MACD minus Signal. Its sign is the momentum direction
	Histogram float64 `json:"histogram" yaml:"histogram"`
}

// BollingerBand is one output of the Bollinger Bands indicator.
type BollingerBand struct {
	Upper  float64 `json:"upper" yaml:"upper"`
	Middle float64 `json:"middle" yaml:"middle"`
	Lower  float64 `json:"lower" yaml:"lower"`
}

// IndicatorSet holds the five indicator series computed from one PriceSeries.
//
// The series have independent lengths. Their last elements all line up with the
// last price, so consumers must read from the tail and treat an empty series as
// "indicator unavailable".
type IndicatorSet struct {
	SMA            []float64       `json:"sma"`
	EMA            []float64       `json:"ema"`
	RSI            []float64       `json:"rsi"`
	MACD           []MACDPoint     `json:"macd"`
	BollingerBands []BollingerBand `json:"bollingerBands"`
}

// NewIndicatorSet returns a set whose series are empty but non-nil, so it
// encodes to JSON as empty arrays.
func NewIndicatorSet() IndicatorSet {
	return IndicatorSet{
		SMA:            []float64{},
		EMA:            []float64{},
		RSI:            []float64{},
		MACD:           []MACDPoint{},
		BollingerBands: []BollingerBand{},
	}
}

// LastSMA returns the most recent SMA value.
func (s IndicatorSet) LastSMA() optional.Option[float64] {
	return last(s.SMA)
}

// LastEMA returns the most recent EMA value.
func (s IndicatorSet) LastEMA() optional.Option[float64] {
	return last(s.EMA)
}

// LastRSI returns the most recent RSI value.
func (s IndicatorSet) LastRSI() optional.Option[float64] {
	return last(s.RSI)
}

// LastMACD returns the most recent MACD point.
func (s IndicatorSet) LastMACD() optional.Option[MACDPoint] {
	return last(s.MACD)
}

// LastBollingerBand returns the most recent Bollinger band.
func (s IndicatorSet) LastBollingerBand() optional.Option[BollingerBand] {
	return last(s.BollingerBands)
}

func last[T any](values []T) optional.Option[T] {
	if len(values) == 0 {
		return optional.None[T]()
	}

	return optional.Some(values[len(values)-1])
}

package types

import "time"

// Analysis is one computed recommendation for a (symbol, interval) pair.
type Analysis struct {
	// RequestID tags the request that produced this analysis
	RequestID string `json:"requestId"`
	// Symbol is the instrument, e.g. BTCUSDT
	Symbol string `json:"symbol"`
	// Interval is the kline interval, e.g. 1h
	Interval string `json:"interval"`
	// CurrentPrice is the last close of the series
	CurrentPrice float64 `json:"currentPrice"`
	// Samples is the number of closes the indicators were computed from
	Samples    int          `json:"samples"`
	Indicators IndicatorSet `json:"indicators"`
	Signal     SignalResult `json:"signal"`
	ComputedAt time.Time    `json:"computedAt"`
}

package types

import "github.com/moznion/go-optional"

// PriceSeries is a chronological series of closing prices, oldest first.
type PriceSeries []float64

// Last returns the current price, the newest element of the series.
func (p PriceSeries) Last() optional.Option[float64] {
	return last(p)
}

// Len returns the number of samples.
func (p PriceSeries) Len() int {
	return len(p)
}

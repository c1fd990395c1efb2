// Package signal derives a buy/sell recommendation from the tail of an
// IndicatorSet. It does no I/O and never fails.
package signal

import (
	"fmt"
	"math"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-signals/internal/types"
	"github.com/rxtech-lab/argo-signals/pkg/errors"
	"github.com/shopspring/decimal"
)

// Thresholds are the RSI levels that gate the buy and sell branches.
type Thresholds struct {
	// Oversold is the RSI level a buy requires RSI to be strictly below
	Oversold float64 `json:"oversold" yaml:"oversold"`
	// Overbought is the RSI level a sell requires RSI to be strictly above
	Overbought float64 `json:"overbought" yaml:"overbought"`
}

// DefaultThresholds are the classic 30/70 RSI levels.
var DefaultThresholds = Thresholds{Oversold: 30, Overbought: 70}

// Validate checks 0 <= Oversold < Overbought <= 100.
func (t Thresholds) Validate() error {
	if math.IsNaN(t.Oversold) || math.IsNaN(t.Overbought) {
		return errors.New(errors.ErrCodeInvalidThreshold, "thresholds must be numbers")
	}

	if t.Oversold < 0 || t.Overbought > 100 {
		return errors.Newf(errors.ErrCodeInvalidThreshold, "thresholds must lie in [0, 100], got %v/%v", t.Oversold, t.Overbought)
	}

	if t.Oversold >= t.Overbought {
		return errors.Newf(errors.ErrCodeInvalidThreshold, "oversold (%v) must be below overbought (%v)", t.Oversold, t.Overbought)
	}

	return nil
}

// Generator applies the signal rule with a fixed set of thresholds.
type Generator struct {
	thresholds Thresholds
}

// Option configures a Generator.
type Option func(*Generator) error

// WithThresholds replaces the default RSI thresholds.
func WithThresholds(t Thresholds) Option {
	return func(g *Generator) error {
		if err := t.Validate(); err != nil {
			return err
		}

		g.thresholds = t

		return nil
	}
}

// NewGenerator creates a Generator using DefaultThresholds unless overridden.
func NewGenerator(opts ...Option) (*Generator, error) {
	g := &Generator{thresholds: DefaultThresholds}

	for _, opt := range opts {
		if err := opt(g); err != nil {
			return nil, err
		}
	}

	return g, nil
}

// Thresholds returns the thresholds in use.
func (g *Generator) Thresholds() Thresholds {
	return g.thresholds
}

// Generate evaluates the rule against the last value of every series:
//
//	buy  = rsi < oversold && price <= lower &&
//	       (hist > 0 || (hist < 0 && price < sma && price < ema))
//	sell = rsi > overbought && price >= upper &&
//	       (hist < 0 || (hist > 0 && price > sma && price > ema))
//
// A missing RSI, band or histogram disables the whole branch. A missing SMA or
// EMA only makes its momentum comparison false.
func (g *Generator) Generate(currentPrice float64, set types.IndicatorSet) types.SignalResult {
	rsi := set.LastRSI()
	band := set.LastBollingerBand()
	macd := set.LastMACD()

	if rsi.IsNone() || band.IsNone() || macd.IsNone() {
		return types.SignalResult{}
	}

	r := rsi.Unwrap()
	b := band.Unwrap()
	hist := macd.Unwrap().Histogram
	sma := set.LastSMA()
	ema := set.LastEMA()

	buy := r < g.thresholds.Oversold &&
		currentPrice <= b.Lower &&
		(hist > 0 || (hist < 0 && below(currentPrice, sma) && below(currentPrice, ema)))

	sell := r > g.thresholds.Overbought &&
		currentPrice >= b.Upper &&
		(hist < 0 || (hist > 0 && above(currentPrice, sma) && above(currentPrice, ema)))

	return types.SignalResult{BuySignal: buy, SellSignal: sell}
}

func below(price float64, level optional.Option[float64]) bool {
	return level.IsSome() && price < level.Unwrap()
}

func above(price float64, level optional.Option[float64]) bool {
	return level.IsSome() && price > level.Unwrap()
}

var defaultGenerator = &Generator{thresholds: DefaultThresholds}

// Generate evaluates the rule with DefaultThresholds. See Generator.Generate.
func Generate(currentPrice float64, set types.IndicatorSet) types.SignalResult {
	return defaultGenerator.Generate(currentPrice, set)
}

// Describe renders the one-line banner sent to notification channels,
// e.g. "BUY signal for BTCUSDT (1h) at 61234.50".
func Describe(result types.SignalResult, symbol, interval string, price float64) string {
	var side string

	switch result.Type() {
	case types.SignalTypeBuyLong:
		side = "BUY signal"
	case types.SignalTypeSellShort:
		side = "SELL signal"
	default:
		side = "No signal"
	}

	return fmt.Sprintf("%s for %s (%s) at %s", side, symbol, interval, formatPrice(price))
}

func formatPrice(price float64) string {
	if math.IsNaN(price) || math.IsInf(price, 0) {
		return fmt.Sprint(price)
	}

	return decimal.NewFromFloat(price).StringFixed(2)
}

package indicator

import (
	"math"

	"github.com/rxtech-lab/argo-signals/internal/types"
	"github.com/rxtech-lab/argo-signals/pkg/errors"
)

// DefaultMinSamples is the shortest price series the engine accepts. The MACD
// signal line alone needs 34 closes; the extra history keeps the Wilder and
// EMA recurrences away from their seed values.
const DefaultMinSamples = 100

// Engine computes an IndicatorSet from a price series using the indicators in
// its registry.
type Engine struct {
	registry   IndicatorRegistry
	minSamples int
}

// EngineOption configures an Engine.
type EngineOption func(*Engine) error

// WithMinSamples overrides the minimum accepted series length.
func WithMinSamples(n int) EngineOption {
	return func(e *Engine) error {
		if n <= 0 {
			return errors.Newf(errors.ErrCodeInvalidParameter, "min samples must be positive, got %d", n)
		}

		e.minSamples = n

		return nil
	}
}

// WithIndicator replaces the registered indicator of the same name.
func WithIndicator(indicator Indicator) EngineOption {
	return func(e *Engine) error {
		// the default may not be registered, ignore the not-found case
		_ = e.registry.RemoveIndicator(indicator.Name())

		return e.registry.RegisterIndicator(indicator)
	}
}

// NewEngine creates an engine with SMA(14), EMA(14), RSI(14), MACD(12,26,9)
// and Bollinger Bands(20, 2) registered.
func NewEngine(opts ...EngineOption) (*Engine, error) {
	registry := NewIndicatorRegistry()
	for _, ind := range []Indicator{NewSMA(), NewEMA(), NewRSI(), NewMACD(), NewBollingerBands()} {
		if err := registry.RegisterIndicator(ind); err != nil {
			return nil, err
		}
	}

	e := &Engine{
		registry:   registry,
		minSamples: DefaultMinSamples,
	}

	for _, opt := range opts {
		if err := opt(e); err != nil {
			return nil, err
		}
	}

	return e, nil
}

// MinSamples returns the minimum accepted series length.
func (e *Engine) MinSamples() int {
	return e.minSamples
}

// Registry returns the indicators the engine applies.
func (e *Engine) Registry() IndicatorRegistry {
	return e.registry
}

// Compute validates prices and computes every registered indicator over them.
// It fails with an InsufficientDataError when the series is shorter than
// MinSamples and with an InvalidInputError when a price is not a positive
// finite number. The input is never modified.
func (e *Engine) Compute(prices types.PriceSeries) (types.IndicatorSet, error) {
	if err := ValidatePrices(prices, e.minSamples); err != nil {
		return types.IndicatorSet{}, err
	}

	set := types.NewIndicatorSet()

	for _, name := range e.registry.ListIndicators() {
		ind, err := e.registry.GetIndicator(name)
		if err != nil {
			return types.IndicatorSet{}, errors.Wrap(errors.ErrCodeIndicatorNotFound, "failed to get indicator", err)
		}

		ind.Apply(prices, &set)
	}

	return set, nil
}

// ValidatePrices checks the engine's input contract.
func ValidatePrices(prices types.PriceSeries, minSamples int) error {
	if len(prices) < minSamples {
		return errors.NewInsufficientDataErrorf(minSamples, len(prices), "", "insufficient price data: required %d, got %d", minSamples, len(prices))
	}

	for i, p := range prices {
		if math.IsNaN(p) || math.IsInf(p, 0) {
			return errors.NewInvalidInputErrorf(i, "price at index %d is not a finite number", i)
		}

		if p <= 0 {
			return errors.NewInvalidInputErrorf(i, "price at index %d must be positive, got %f", i, p)
		}
	}

	return nil
}

var defaultEngine = func() *Engine {
	e, err := NewEngine()
	if err != nil {
		panic(err)
	}

	return e
}()

// ComputeIndicators computes the default IndicatorSet for prices. See Engine.Compute.
func ComputeIndicators(prices types.PriceSeries) (types.IndicatorSet, error) {
	return defaultEngine.Compute(prices)
}

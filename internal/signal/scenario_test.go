package signal_test

import (
	"math"
	"testing"

	"github.com/rxtech-lab/argo-signals/internal/indicator"
	"github.com/rxtech-lab/argo-signals/internal/signal"
	"github.com/rxtech-lab/argo-signals/internal/types"
	"github.com/rxtech-lab/argo-signals/mocks"
	"github.com/stretchr/testify/suite"
)

// ScenarioTestSuite runs full price series through the indicator engine and
// the generator.
type ScenarioTestSuite struct {
	suite.Suite
}

func TestScenarioSuite(t *testing.T) {
	suite.Run(t, new(ScenarioTestSuite))
}

func (suite *ScenarioTestSuite) analyze(prices types.PriceSeries) (types.IndicatorSet, types.SignalResult) {
	set, err := indicator.ComputeIndicators(prices)
	suite.Require().NoError(err)

	return set, signal.Generate(prices.Last().Unwrap(), set)
}

// oscillation is 180 samples swinging around 100.
func oscillation() types.PriceSeries {
	prices := make(types.PriceSeries, 180)
	for i := range prices {
		prices[i] = 100 + 2*math.Sin(float64(i)/3)
	}

	return prices
}

// breakout extends the oscillation with 19 steps of 0.5 and a final jump of 8
// in direction sign.
func breakout(sign float64) types.PriceSeries {
	prices := oscillation()
	last := prices[len(prices)-1]

	for j := 1; j < 20; j++ {
		prices = append(prices, last+sign*0.5*float64(j))
	}

	return append(prices, prices[len(prices)-1]+sign*8)
}

func (suite *ScenarioTestSuite) TestMonotonicRamp() {
	prices := make(types.PriceSeries, 200)
	for i := range prices {
		prices[i] = 100 + 0.5*float64(i)
	}

	set, result := suite.analyze(prices)

	suite.Equal(100.0, set.LastRSI().Unwrap())
	suite.Equal(194.75, set.LastBollingerBand().Unwrap().Middle)
	suite.InDelta(200.5163, set.LastBollingerBand().Unwrap().Upper, 1e-4)
	suite.InDelta(196.25, set.LastSMA().Unwrap(), 1e-9)
	suite.InDelta(196.25, set.LastEMA().Unwrap(), 1e-9)
	suite.InDelta(0, set.LastMACD().Unwrap().Histogram, 1e-9)

	// the last close trails the upper band, so the sell branch stays closed
	suite.Less(prices.Last().Unwrap(), set.LastBollingerBand().Unwrap().Upper)
	suite.Equal(types.SignalResult{BuySignal: false, SellSignal: false}, result)
}

func (suite *ScenarioTestSuite) TestCapitulationBuys() {
	prices := breakout(-1)
	suite.Require().Len(prices, 200)

	set, result := suite.analyze(prices)

	suite.InDelta(82.5472, prices.Last().Unwrap(), 1e-4)
	suite.InDelta(4.4184, set.LastRSI().Unwrap(), 1e-3)
	suite.InDelta(86.7941, set.LastBollingerBand().Unwrap().Lower, 1e-3)
	suite.InDelta(-0.9085, set.LastMACD().Unwrap().Histogram, 1e-3)
	suite.InDelta(92.7615, set.LastSMA().Unwrap(), 1e-3)
	suite.InDelta(92.1475, set.LastEMA().Unwrap(), 1e-3)

	suite.Equal(types.SignalResult{BuySignal: true, SellSignal: false}, result)
	suite.Equal(types.SignalTypeBuyLong, result.Type())
}

func (suite *ScenarioTestSuite) TestBlowOffSells() {
	prices := breakout(1)

	set, result := suite.analyze(prices)

	suite.InDelta(117.5472, prices.Last().Unwrap(), 1e-4)
	suite.InDelta(94.9623, set.LastRSI().Unwrap(), 1e-3)
	suite.InDelta(113.3003, set.LastBollingerBand().Unwrap().Upper, 1e-3)
	suite.InDelta(0.8929, set.LastMACD().Unwrap().Histogram, 1e-3)
	suite.InDelta(107.3329, set.LastSMA().Unwrap(), 1e-3)
	suite.InDelta(108.0190, set.LastEMA().Unwrap(), 1e-3)

	suite.Equal(types.SignalResult{BuySignal: false, SellSignal: true}, result)
	suite.Equal(types.SignalTypeSellShort, result.Type())
}

func (suite *ScenarioTestSuite) TestNeverBuyAndSell() {
	for seed := int64(1); seed <= 200; seed++ {
		gen := mocks.NewDataGenerator(seed)
		config := mocks.DefaultConfig()
		config.Count = 100 + int(seed%5)*95
		config.Volatility = 0.01 + float64(seed%4)*0.01
		config.Trend = float64(seed%9-4) * 0.4

		prices := gen.GenerateCloses(config)

		set, err := indicator.ComputeIndicators(prices)
		suite.Require().NoError(err)

		// probe prices around the tail so both band edges get exercised
		for _, price := range []float64{prices.Last().Unwrap(), set.LastBollingerBand().Unwrap().Lower, set.LastBollingerBand().Unwrap().Upper} {
			result := signal.Generate(price, set)
			suite.False(result.BuySignal && result.SellSignal, "seed %d price %f", seed, price)
		}
	}
}

func (suite *ScenarioTestSuite) TestDeterministic() {
	prices := breakout(-1)

	_, first := suite.analyze(prices)
	_, second := suite.analyze(prices)

	suite.Equal(first, second)
}

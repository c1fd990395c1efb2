package indicator

import (
	"math"
	"testing"

	"github.com/stretchr/testify/suite"
)

type EMATestSuite struct {
	suite.Suite
}

func TestEMASuite(t *testing.T) {
	suite.Run(t, new(EMATestSuite))
}

func (suite *EMATestSuite) TestKnownValues() {
	// k = 0.5, seed = mean(1, 2, 3)
	suite.Equal([]float64{2, 3, 4}, EMASeries([]float64{1, 2, 3, 4, 5}, 3))

	// k = 2/3
	expected := []float64{10.5, 11.5, 11.166666666666668, 12.38888888888889, 13.462962962962962, 13.15432098765432, 14.38477366255144}
	actual := EMASeries([]float64{10, 11, 12, 11, 13, 14, 13, 15}, 2)
	suite.Require().Len(actual, len(expected))

	for i := range expected {
		suite.InDelta(expected[i], actual[i], 1e-9, "index %d", i)
	}
}

func (suite *EMATestSuite) TestSeedEqualsSMA() {
	prices := []float64{101.25, 99.5, 100.75, 102.1, 98.3, 97.65, 103.4, 101.1, 99.99, 100.01, 104.2, 102.8, 101.9, 100.4, 99.1, 98.7}

	for _, period := range []int{3, 7, 14} {
		ema := EMASeries(prices, period)
		sma := SMASeries(prices, period)
		suite.Require().NotEmpty(ema)
		// exact, not approximate: both use the same window mean
		suite.Equal(sma[0], ema[0], "period %d", period)
	}
}

func (suite *EMATestSuite) TestLengthAndAlignment() {
	prices := make([]float64, 200)
	for i := range prices {
		prices[i] = 100 + 10*math.Sin(float64(i)/5)
	}

	ema := EMASeries(prices, 14)
	suite.Len(ema, 200-14+1)

	// the last value must react to the last price
	changed := append([]float64(nil), prices...)
	changed[len(changed)-1] += 10
	suite.Greater(EMASeries(changed, 14)[len(ema)-1], ema[len(ema)-1])
}

func (suite *EMATestSuite) TestConstantInput() {
	prices := make([]float64, 50)
	for i := range prices {
		prices[i] = 42
	}

	for _, v := range EMASeries(prices, 14) {
		suite.InDelta(42.0, v, 1e-9)
	}
}

func (suite *EMATestSuite) TestShortInputIsEmpty() {
	suite.Empty(EMASeries([]float64{1, 2}, 3))
	suite.Empty(EMASeries([]float64{1, 2}, 0))
	suite.Len(EMASeries([]float64{1, 2, 3}, 3), 1)
}

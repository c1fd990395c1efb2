package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/suite"
)

type IndicatorTestSuite struct {
	suite.Suite
}

func TestIndicatorSuite(t *testing.T) {
	suite.Run(t, new(IndicatorTestSuite))
}

func (suite *IndicatorTestSuite) TestIndicatorTypeConstants() {
	suite.Equal(IndicatorType("sma"), IndicatorTypeSMA)
	suite.Equal(IndicatorType("ema"), IndicatorTypeEMA)
	suite.Equal(IndicatorType("rsi"), IndicatorTypeRSI)
	suite.Equal(IndicatorType("macd"), IndicatorTypeMACD)
	suite.Equal(IndicatorType("bollinger_bands"), IndicatorTypeBollingerBands)
}

func (suite *IndicatorTestSuite) TestTailAccessorsOnEmptySet() {
	set := IndicatorSet{}

	suite.True(set.LastSMA().IsNone())
	suite.True(set.LastEMA().IsNone())
	suite.True(set.LastRSI().IsNone())
	suite.True(set.LastMACD().IsNone())
	suite.True(set.LastBollingerBand().IsNone())
}

func (suite *IndicatorTestSuite) TestTailAccessorsReadLastElement() {
	set := IndicatorSet{
		SMA: []float64{1, 2, 3},
		EMA: []float64{4},
		RSI: []float64{55, 61.5},
		MACD: []MACDPoint{
			{MACD: 1, Signal: 2, Histogram: -1},
			{MACD: 3, Signal: 1, Histogram: 2},
		},
		BollingerBands: []BollingerBand{{Upper: 12, Middle: 10, Lower: 8}},
	}

	suite.Equal(3.0, set.LastSMA().Unwrap())
	suite.Equal(4.0, set.LastEMA().Unwrap())
	suite.Equal(61.5, set.LastRSI().Unwrap())
	suite.Equal(2.0, set.LastMACD().Unwrap().Histogram)
	suite.Equal(8.0, set.LastBollingerBand().Unwrap().Lower)
}

func (suite *IndicatorTestSuite) TestNewIndicatorSetEncodesEmptyArrays() {
	data, err := json.Marshal(NewIndicatorSet())
	suite.Require().NoError(err)
	suite.JSONEq(`{"sma":[],"ema":[],"rsi":[],"macd":[],"bollingerBands":[]}`, string(data))
}

func (suite *IndicatorTestSuite) TestJSONFieldNames() {
	set := NewIndicatorSet()
	set.MACD = append(set.MACD, MACDPoint{MACD: 1.5, Signal: 1, Histogram: 0.5})
	set.BollingerBands = append(set.BollingerBands, BollingerBand{Upper: 3, Middle: 2, Lower: 1})

	data, err := json.Marshal(set)
	suite.Require().NoError(err)
	suite.Contains(string(data), `"macd":[{"MACD":1.5,"signal":1,"histogram":0.5}]`)
	suite.Contains(string(data), `"bollingerBands":[{"upper":3,"middle":2,"lower":1}]`)
}

func (suite *IndicatorTestSuite) TestPriceSeriesLast() {
	suite.True(PriceSeries{}.Last().IsNone())
	suite.True(PriceSeries(nil).Last().IsNone())

	prices := PriceSeries{100, 101, 99.5}
	suite.Equal(99.5, prices.Last().Unwrap())
	suite.Equal(3, prices.Len())
}

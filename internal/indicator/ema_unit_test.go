package indicator

import (
	"testing"

	"github.com/rxtech-lab/argo-signals/internal/types"
	"github.com/rxtech-lab/argo-signals/pkg/errors"
	"github.com/stretchr/testify/suite"
)

type EMAUnitTestSuite struct {
	suite.Suite
}

func TestEMAUnitSuite(t *testing.T) {
	suite.Run(t, new(EMAUnitTestSuite))
}

func (suite *EMAUnitTestSuite) TestNewEMA() {
	ema := NewEMA()
	suite.NotNil(ema)
	suite.Equal(14, ema.(*EMA).period)
	suite.Equal(14, ema.MinSamples())
	suite.Equal(types.IndicatorTypeEMA, ema.Name())
}

func (suite *EMAUnitTestSuite) TestConfig() {
	ema := NewEMA()
	suite.NoError(ema.Config(9))
	suite.Equal(9, ema.(*EMA).period)

	err := ema.Config()
	suite.Error(err)
	suite.Contains(err.Error(), "Config expects 1 parameter")

	err = ema.Config("invalid")
	suite.Error(err)
	suite.Contains(err.Error(), "invalid type for period")

	err = ema.Config(-1)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidPeriod))
	suite.Equal(9, ema.(*EMA).period)
}

func (suite *EMAUnitTestSuite) TestApply() {
	ema := NewEMA()
	suite.Require().NoError(ema.Config(3))

	set := types.NewIndicatorSet()
	ema.Apply(types.PriceSeries{1, 2, 3, 4, 5}, &set)
	suite.Equal([]float64{2, 3, 4}, set.EMA)
}

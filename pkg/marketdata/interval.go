package marketdata

import (
	"time"

	"github.com/rxtech-lab/argo-signals/pkg/errors"
)

// Interval is a Binance kline interval.
type Interval string

const (
	IntervalOneSecond      Interval = "1s"
	IntervalOneMinute      Interval = "1m"
	IntervalThreeMinutes   Interval = "3m"
	IntervalFiveMinutes    Interval = "5m"
	IntervalFifteenMinutes Interval = "15m"
	IntervalThirtyMinutes  Interval = "30m"
	IntervalOneHour        Interval = "1h"
	IntervalTwoHours       Interval = "2h"
	IntervalFourHours      Interval = "4h"
	IntervalSixHours       Interval = "6h"
	IntervalEightHours     Interval = "8h"
	IntervalTwelveHours    Interval = "12h"
	IntervalOneDay         Interval = "1d"
	IntervalThreeDays      Interval = "3d"
	IntervalOneWeek        Interval = "1w"
	IntervalOneMonth       Interval = "1M"
)

var intervalDurations = map[Interval]time.Duration{
	IntervalOneSecond:      time.Second,
	IntervalOneMinute:      time.Minute,
	IntervalThreeMinutes:   3 * time.Minute,
	IntervalFiveMinutes:    5 * time.Minute,
	IntervalFifteenMinutes: 15 * time.Minute,
	IntervalThirtyMinutes:  30 * time.Minute,
	IntervalOneHour:        time.Hour,
	IntervalTwoHours:       2 * time.Hour,
	IntervalFourHours:      4 * time.Hour,
	IntervalSixHours:       6 * time.Hour,
	IntervalEightHours:     8 * time.Hour,
	IntervalTwelveHours:    12 * time.Hour,
	IntervalOneDay:         24 * time.Hour,
	IntervalThreeDays:      72 * time.Hour,
	IntervalOneWeek:        7 * 24 * time.Hour,
	// nominal; calendar months vary
	IntervalOneMonth: 30 * 24 * time.Hour,
}

// Intervals lists every supported interval from shortest to longest.
func Intervals() []Interval {
	return []Interval{
		IntervalOneSecond, IntervalOneMinute, IntervalThreeMinutes, IntervalFiveMinutes,
		IntervalFifteenMinutes, IntervalThirtyMinutes, IntervalOneHour, IntervalTwoHours,
		IntervalFourHours, IntervalSixHours, IntervalEightHours, IntervalTwelveHours,
		IntervalOneDay, IntervalThreeDays, IntervalOneWeek, IntervalOneMonth,
	}
}

// Validate returns ErrCodeInvalidInterval for intervals Binance does not serve.
func (i Interval) Validate() error {
	if _, ok := intervalDurations[i]; !ok {
		return errors.Newf(errors.ErrCodeInvalidInterval, "unsupported interval %q", string(i))
	}

	return nil
}

// Duration returns the length of one candle, or 0 for an unknown interval.
func (i Interval) Duration() time.Duration {
	return intervalDurations[i]
}

func (i Interval) String() string {
	return string(i)
}

package calculator

import (
	"time"

	"github.com/moznion/go-optional"

	"FXSentinel/internal/model"
	"FXSentinel/internal/series"
)

// RollingExtreme returns the max of highs[:n] and the min of lows[:n]. Both
// sequences are newest first. It fails with *model.InsufficientDataError when
// either sequence is shorter than n.
func RollingExtreme(highs, lows []float64, n int) (high, low float64, err error) {
	if n <= 0 {
		return 0, 0, &model.InsufficientDataError{What: "rolling extreme", Required: 1, Actual: n}
	}
	if have := min(len(highs), len(lows)); have < n {
		return 0, 0, &model.InsufficientDataError{What: "rolling extreme", Required: n, Actual: have}
	}
	high, low = highs[0], lows[0]
	for i := 1; i < n; i++ {
		high = max(high, highs[i])
		low = min(low, lows[i])
	}
	return high, low, nil
}

// DailyHighLow returns today's intraday high and low; see series.IntradayHighLow.
func DailyHighLow(intraday model.TimeSeries, now time.Time) (high, low optional.Option[float64]) {
	return series.IntradayHighLow(intraday, now)
}

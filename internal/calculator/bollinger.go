package calculator

import (
	"math"

	"github.com/moznion/go-optional"
	"github.com/shopspring/decimal"
)

const (
	DefaultBandPeriod = 20
	DefaultBandMult   = 2.0
)

// BollingerBands computes mean ± mult·σ over the newest period closes, using
// the population standard deviation. closes is newest first. With fewer than
// period closes both bands are None.
func BollingerBands(closes []float64, period int, mult float64) (upper, lower optional.Option[float64]) {
	if period <= 0 || len(closes) < period {
		return optional.None[float64](), optional.None[float64]()
	}

	window := make([]float64, period)
	for i := 0; i < period; i++ {
		window[period-1-i] = closes[i]
	}

	var sum float64
	for _, c := range window {
		sum += c
	}
	mean := sum / float64(period)

	var sq float64
	for _, c := range window {
		sq += (c - mean) * (c - mean)
	}
	std := math.Sqrt(sq / float64(period))

	return optional.Some(Round6(mean + mult*std)), optional.Some(Round6(mean - mult*std))
}

// Round6 rounds v to six decimal places.
func Round6(v float64) float64 {
	return decimal.NewFromFloat(v).Round(6).InexactFloat64()
}

// Round6Opt rounds a present value and passes None through.
func Round6Opt(v optional.Option[float64]) optional.Option[float64] {
	if v.IsNone() {
		return v
	}
	return optional.Some(Round6(v.Unwrap()))
}

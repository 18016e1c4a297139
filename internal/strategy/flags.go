package strategy

import (
	"math"

	"github.com/moznion/go-optional"

	"FXSentinel/internal/model"
)

const (
	// NearThreshold is the relative distance under which a price counts as
	// touching a 10-day extreme.
	NearThreshold = 0.001
	// Epsilon guards the relative distance against a zero reference.
	Epsilon = 1e-9
)

// Flags derives the signal flags for price. Conditions are evaluated
// independently in a fixed order, so several flags may be set at once and
// an empty result is normal.
func Flags(price float64, bbUpper, bbLower optional.Option[float64], tenDayHigh, tenDayLow float64) []model.Flag {
	flags := make([]model.Flag, 0, 4)
	if bbUpper.IsSome() && price >= bbUpper.Unwrap() {
		flags = append(flags, model.FlagAboveUpperBB)
	}
	if bbLower.IsSome() && price <= bbLower.Unwrap() {
		flags = append(flags, model.FlagBelowLowerBB)
	}
	if near(price, tenDayHigh) {
		flags = append(flags, model.FlagNearTenDayHigh)
	}
	if near(price, tenDayLow) {
		flags = append(flags, model.FlagNearTenDayLow)
	}
	return flags
}

func near(price, ref float64) bool {
	return math.Abs(price-ref)/math.Max(ref, Epsilon) < NearThreshold
}

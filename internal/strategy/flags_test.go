package strategy

import (
	"testing"

	"github.com/moznion/go-optional"
	"github.com/stretchr/testify/assert"

	"FXSentinel/internal/model"
)

var none = optional.None[float64]()

func TestFlags(t *testing.T) {
	tests := []struct {
		name  string
		price float64
		upper optional.Option[float64]
		lower optional.Option[float64]
		high  float64
		low   float64
		want  []model.Flag
	}{
		{
			name:  "no condition",
			price: 1.10, upper: optional.Some(1.20), lower: optional.Some(1.00),
			high: 1.25, low: 0.95,
			want: []model.Flag{},
		},
		{
			name:  "near ten day high",
			price: 1.2000, upper: none, lower: none,
			high: 1.2001, low: 1.10,
			want: []model.Flag{model.FlagNearTenDayHigh},
		},
		{
			name:  "upper band touched exactly",
			price: 1.20, upper: optional.Some(1.20), lower: optional.Some(1.00),
			high: 1.50, low: 0.90,
			want: []model.Flag{model.FlagAboveUpperBB},
		},
		{
			name:  "below lower band and near low",
			price: 0.9995, upper: optional.Some(1.20), lower: optional.Some(1.00),
			high: 1.50, low: 1.0000,
			want: []model.Flag{model.FlagBelowLowerBB, model.FlagNearTenDayLow},
		},
		{
			name:  "above upper and near high",
			price: 1.3, upper: optional.Some(1.25), lower: optional.Some(1.05),
			high: 1.3001, low: 1.0,
			want: []model.Flag{model.FlagAboveUpperBB, model.FlagNearTenDayHigh},
		},
		{
			name:  "missing bands never flag",
			price: 1.0, upper: none, lower: none,
			high: 2.0, low: 0.5,
			want: []model.Flag{},
		},
		{
			name:  "zero reference uses epsilon",
			price: 0, upper: none, lower: none,
			high: 0, low: 0,
			want: []model.Flag{model.FlagNearTenDayHigh, model.FlagNearTenDayLow},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Flags(tt.price, tt.upper, tt.lower, tt.high, tt.low)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFlags_BandFlagsExclusive(t *testing.T) {
	upper, lower := optional.Some(1.2), optional.Some(1.0)
	for p := 0.90; p <= 1.30; p += 0.01 {
		got := Flags(p, upper, lower, 5, 0.1)
		assert.False(t,
			contains(got, model.FlagAboveUpperBB) && contains(got, model.FlagBelowLowerBB),
			"price %.2f", p)
	}
}

func contains(flags []model.Flag, f model.Flag) bool {
	for _, x := range flags {
		if x == f {
			return true
		}
	}
	return false
}

package model

import (
	"time"

	"github.com/moznion/go-optional"
)

// Flag is a categorical signal tag attached to a snapshot.
type Flag string

const (
	FlagAboveUpperBB   Flag = "At/Above Upper BB"
	FlagBelowLowerBB   Flag = "At/Below Lower BB"
	FlagNearTenDayHigh Flag = "Near 10-Day High"
	FlagNearTenDayLow  Flag = "Near 10-Day Low"
)

// Snapshot is the computed indicator record for one pair at one instant.
// It is built once and not modified afterwards.
type Snapshot struct {
	Pair         Pair
	CurrentPrice float64
	DailyHigh    optional.Option[float64]
	DailyLow     optional.Option[float64]
	TenDayHigh   float64
	TenDayLow    float64
	BBUpper      optional.Option[float64]
	BBLower      optional.Option[float64]
	UpdatedAt    time.Time
	Flags        []Flag
}

// HasFlag reports whether f is among the snapshot's flags.
func (s *Snapshot) HasFlag(f Flag) bool {
	for _, x := range s.Flags {
		if x == f {
			return true
		}
	}
	return false
}

package collector

import (
	"context"

	"FXSentinel/internal/model"
)

// Provider is a market-data source for currency pairs.
type Provider interface {
	// RealtimeRate returns the latest exchange rate for pair.
	RealtimeRate(ctx context.Context, pair model.Pair) (float64, error)
	// Intraday returns recent 5-minute bars keyed by "2006-01-02 15:04:05".
	Intraday(ctx context.Context, pair model.Pair) (model.TimeSeries, error)
	// Daily returns recent daily bars keyed by "2006-01-02".
	Daily(ctx context.Context, pair model.Pair) (model.TimeSeries, error)
	Name() string
}

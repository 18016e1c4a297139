package collector

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"FXSentinel/internal/calculator"
	"FXSentinel/internal/model"
	"FXSentinel/internal/series"
	"FXSentinel/internal/strategy"
)

// MockFetcher serves fixed data for development and testing.
type MockFetcher struct {
	Rates    map[model.Pair]float64
	IntraMap map[model.Pair]model.TimeSeries
	DailyMap map[model.Pair]model.TimeSeries
	// Err, when set, fails every call for the listed pair.
	Err   map[model.Pair]error
	Calls []string
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) RealtimeRate(_ context.Context, pair model.Pair) (float64, error) {
	m.Calls = append(m.Calls, QueryRealtime+":"+pair.String())
	if err := m.Err[pair]; err != nil {
		return 0, err
	}
	rate, ok := m.Rates[pair]
	if !ok {
		return 0, &model.MalformedResponseError{Op: QueryRealtime, Detail: "no rate for " + pair.String()}
	}
	return rate, nil
}

func (m *MockFetcher) Intraday(_ context.Context, pair model.Pair) (model.TimeSeries, error) {
	m.Calls = append(m.Calls, QueryIntraday+":"+pair.String())
	if err := m.Err[pair]; err != nil {
		return nil, err
	}
	return m.IntraMap[pair], nil
}

func (m *MockFetcher) Daily(_ context.Context, pair model.Pair) (model.TimeSeries, error) {
	m.Calls = append(m.Calls, QueryDaily+":"+pair.String())
	if err := m.Err[pair]; err != nil {
		return nil, err
	}
	return m.DailyMap[pair], nil
}

// GenerateDailyBars builds count daily bars ending the day before end, with
// close drifting by step per day from base.
func GenerateDailyBars(end time.Time, base, step float64, count int) model.TimeSeries {
	ts := make(model.TimeSeries, count)
	for i := 0; i < count; i++ {
		day := end.AddDate(0, 0, -(count - i))
		p := base + float64(i)*step
		ts[day.Format("2006-01-02")] = model.Bar{High: p * 1.002, Low: p * 0.998, Close: p}
	}
	return ts
}

// Params are the indicator windows used to compute a snapshot.
type Params struct {
	DailyDepth   int
	TenDayWindow int
	BandPeriod   int
	BandMult     float64
}

// DefaultParams returns the standard windows: 30 daily bars, a 10-day range
// and 20-period, 2σ bands.
func DefaultParams() Params {
	return Params{
		DailyDepth:   series.DefaultDailyDepth,
		TenDayWindow: 10,
		BandPeriod:   calculator.DefaultBandPeriod,
		BandMult:     calculator.DefaultBandMult,
	}
}

// Collector fetches market data for a pair and computes its snapshot.
type Collector struct {
	Provider Provider
	Params   Params
	Now      func() time.Time
	logger   *zap.Logger
}

// NewCollector creates a new Collector.
func NewCollector(provider Provider, params Params, logger *zap.Logger) *Collector {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Collector{Provider: provider, Params: params, Now: time.Now, logger: logger}
}

// Collect runs fetch, normalize, compute and flag for one pair.
func (c *Collector) Collect(ctx context.Context, pair model.Pair) (*model.Snapshot, error) {
	price, err := c.Provider.RealtimeRate(ctx, pair)
	if err != nil {
		return nil, errors.Wrap(err, "fetch realtime rate")
	}
	intraday, err := c.Provider.Intraday(ctx, pair)
	if err != nil {
		return nil, errors.Wrap(err, "fetch intraday series")
	}
	daily, err := c.Provider.Daily(ctx, pair)
	if err != nil {
		return nil, errors.Wrap(err, "fetch daily series")
	}

	now := c.Now().UTC()
	dailyHigh, dailyLow := calculator.DailyHighLow(intraday, now)
	if dailyHigh.IsNone() {
		c.logger.Warn("no intraday bars, daily high/low left empty", zap.String("pair", pair.String()))
	}

	s := series.NormalizeDaily(daily, c.Params.DailyDepth)
	tenHigh, tenLow, err := calculator.RollingExtreme(s.Highs, s.Lows, c.Params.TenDayWindow)
	if err != nil {
		return nil, errors.Wrap(err, "compute 10-day range")
	}

	bbUpper, bbLower := calculator.BollingerBands(s.Closes, c.Params.BandPeriod, c.Params.BandMult)
	if bbUpper.IsNone() {
		c.logger.Warn("not enough closes for bollinger bands",
			zap.String("pair", pair.String()), zap.Int("closes", s.Len()), zap.Int("period", c.Params.BandPeriod))
	}

	return &model.Snapshot{
		Pair:         pair,
		CurrentPrice: price,
		DailyHigh:    dailyHigh,
		DailyLow:     dailyLow,
		TenDayHigh:   tenHigh,
		TenDayLow:    tenLow,
		BBUpper:      bbUpper,
		BBLower:      bbLower,
		UpdatedAt:    now,
		Flags:        strategy.Flags(price, bbUpper, bbLower, tenHigh, tenLow),
	}, nil
}

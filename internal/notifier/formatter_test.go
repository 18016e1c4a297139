package notifier

import (
	"errors"
	"testing"
	"time"

	"github.com/moznion/go-optional"
	"github.com/stretchr/testify/assert"

	"FXSentinel/internal/model"
	"FXSentinel/internal/recorder"
	"FXSentinel/internal/scheduler"
)

var started = time.Date(2024, 3, 5, 12, 0, 0, 0, time.UTC)

func sampleSnapshot(pair model.Pair, flags ...model.Flag) *model.Snapshot {
	return &model.Snapshot{
		Pair:         pair,
		CurrentPrice: 1.0842,
		DailyHigh:    optional.Some(1.09),
		DailyLow:     optional.None[float64](),
		TenDayHigh:   1.1,
		TenDayLow:    1.05,
		BBUpper:      optional.Some(1.0841),
		BBLower:      optional.None[float64](),
		UpdatedAt:    started,
		Flags:        flags,
	}
}

func TestFormatRunSummary(t *testing.T) {
	report := scheduler.Report{
		Store:    "notion",
		Started:  started,
		Finished: started.Add(95 * time.Second),
		Outcomes: []scheduler.Outcome{
			{Pair: "EURUSD", Snapshot: sampleSnapshot("EURUSD", model.FlagAboveUpperBB), Intent: recorder.Intent{Kind: recorder.IntentUpdate}},
			{Pair: "USDJPY", Snapshot: sampleSnapshot("USDJPY"), Intent: recorder.Intent{Kind: recorder.IntentCreate}},
			{Pair: "GBPUSD", Err: errors.New("fetch daily series: status <503>")},
		},
		Ambiguities: []*model.ReconciliationAmbiguityError{{Pair: "EURUSD", Handles: []string{"a", "b"}}},
	}

	msg := FormatRunSummary(report)

	assert.Contains(t, msg, "2024-03-05 12:00 UTC")
	assert.Contains(t, msg, "Store: notion")
	assert.Contains(t, msg, "Synced: 2 | Failed: 1 | Took: 1m35s")
	assert.Contains(t, msg, "EURUSD 1.08420: At/Above Upper BB")
	assert.NotContains(t, msg, "USDJPY")
	assert.Contains(t, msg, "GBPUSD: fetch daily series: status &lt;503&gt;")
	assert.Contains(t, msg, "1 pair(s) have duplicate rows")
}

func TestFormatRunSummary_Quiet(t *testing.T) {
	msg := FormatRunSummary(scheduler.Report{Store: "noop", Started: started, Finished: started})

	assert.Contains(t, msg, "Synced: 0 | Failed: 0")
	assert.NotContains(t, msg, "Signals")
	assert.NotContains(t, msg, "Failures")
}

func TestFormatSnapshot(t *testing.T) {
	msg := FormatSnapshot(sampleSnapshot("EURUSD", model.FlagAboveUpperBB, model.FlagNearTenDayHigh))

	assert.Contains(t, msg, "<b>EURUSD</b>")
	assert.Contains(t, msg, "Price: 1.08420")
	assert.Contains(t, msg, "Daily: 1.09000 / n/a")
	assert.Contains(t, msg, "BB: 1.08410 / n/a")
	assert.Contains(t, msg, "Flags: At/Above Upper BB, Near 10-Day High")
}

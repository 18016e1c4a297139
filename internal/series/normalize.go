// Package series turns provider time-keyed bar maps into ordered numeric sequences.
package series

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/moznion/go-optional"

	"FXSentinel/internal/model"
)

// DefaultDailyDepth is the number of daily bars kept when no depth is given.
const DefaultDailyDepth = 30

// dateLayout is the prefix format of provider timestamps.
const dateLayout = "2006-01-02"

// SortedKeys returns the timestamps of ts newest first. Provider timestamps
// are zero-padded, so lexical order is chronological order.
func SortedKeys(ts model.TimeSeries) []string {
	keys := make([]string, 0, len(ts))
	for k := range ts {
		keys = append(keys, k)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(keys)))
	return keys
}

// NormalizeDaily projects the newest limit bars of ts into closes, highs and
// lows, newest first. limit <= 0 means DefaultDailyDepth.
func NormalizeDaily(ts model.TimeSeries, limit int) model.Series {
	if limit <= 0 {
		limit = DefaultDailyDepth
	}
	keys := SortedKeys(ts)
	if len(keys) > limit {
		keys = keys[:limit]
	}
	out := model.Series{
		Closes: make([]float64, 0, len(keys)),
		Highs:  make([]float64, 0, len(keys)),
		Lows:   make([]float64, 0, len(keys)),
	}
	for _, k := range keys {
		bar := ts[k]
		out.Closes = append(out.Closes, bar.Close)
		out.Highs = append(out.Highs, bar.High)
		out.Lows = append(out.Lows, bar.Low)
	}
	return out
}

// IntradayHighLow returns the highest high and lowest low among the bars
// stamped with now's UTC date. When no bar carries today's date the whole
// window is used instead; an empty window yields None for both.
func IntradayHighLow(ts model.TimeSeries, now time.Time) (high, low optional.Option[float64]) {
	if len(ts) == 0 {
		return optional.None[float64](), optional.None[float64]()
	}
	today := now.UTC().Format(dateLayout)

	h, l, n := math.Inf(-1), math.Inf(1), 0
	for k, bar := range ts {
		if !strings.HasPrefix(k, today) {
			continue
		}
		h, l = math.Max(h, bar.High), math.Min(l, bar.Low)
		n++
	}
	if n == 0 {
		for _, bar := range ts {
			h, l = math.Max(h, bar.High), math.Min(l, bar.Low)
		}
	}
	return optional.Some(h), optional.Some(l)
}

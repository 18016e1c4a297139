package notifier

import (
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/moznion/go-optional"

	"FXSentinel/internal/model"
	"FXSentinel/internal/scheduler"
)

// FormatRunSummary formats a finished sync run into a Telegram message.
// Flagged pairs and failures are listed; quiet pairs are only counted.
func FormatRunSummary(r scheduler.Report) string {
	var b strings.Builder
	emitted, failed := r.Count()

	b.WriteString(fmt.Sprintf("📊 <b>FXSentinel sync</b> | %s\n\n", r.Started.UTC().Format("2006-01-02 15:04 UTC")))
	b.WriteString(fmt.Sprintf("Store: %s\n", html.EscapeString(r.Store)))
	b.WriteString(fmt.Sprintf("Synced: %d | Failed: %d | Took: %s\n", emitted, failed, r.Duration().Round(time.Second)))

	var flagged []string
	for _, o := range r.Outcomes {
		if !o.Failed() && len(o.Snapshot.Flags) > 0 {
			flagged = append(flagged, fmt.Sprintf("  %s %.5f: %s", o.Pair, o.Snapshot.CurrentPrice, joinFlags(o.Snapshot.Flags)))
		}
	}
	if len(flagged) > 0 {
		b.WriteString("\n🚩 <b>Signals:</b>\n")
		b.WriteString(strings.Join(flagged, "\n"))
		b.WriteString("\n")
	}

	if failed > 0 {
		b.WriteString("\n❌ <b>Failures:</b>\n")
		for _, o := range r.Outcomes {
			if o.Failed() {
				b.WriteString(fmt.Sprintf("  %s: %s\n", o.Pair, html.EscapeString(o.Err.Error())))
			}
		}
	}

	if len(r.Ambiguities) > 0 {
		b.WriteString(fmt.Sprintf("\n⚠️ %d pair(s) have duplicate rows\n", len(r.Ambiguities)))
	}
	return b.String()
}

// FormatSnapshot formats one pair's indicators for display.
func FormatSnapshot(s *model.Snapshot) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("💱 <b>%s</b> | %s\n\n", s.Pair, s.UpdatedAt.UTC().Format("2006-01-02 15:04 UTC")))
	b.WriteString(fmt.Sprintf("Price: %.5f\n", s.CurrentPrice))
	b.WriteString(fmt.Sprintf("Daily: %s / %s\n", num(s.DailyHigh), num(s.DailyLow)))
	b.WriteString(fmt.Sprintf("10-Day: %.5f / %.5f\n", s.TenDayHigh, s.TenDayLow))
	b.WriteString(fmt.Sprintf("BB: %s / %s\n", num(s.BBUpper), num(s.BBLower)))
	if len(s.Flags) > 0 {
		b.WriteString(fmt.Sprintf("Flags: %s\n", joinFlags(s.Flags)))
	}
	return b.String()
}

func joinFlags(flags []model.Flag) string {
	names := make([]string, len(flags))
	for i, f := range flags {
		names[i] = string(f)
	}
	return strings.Join(names, ", ")
}

func num(v optional.Option[float64]) string {
	if v.IsNone() {
		return "n/a"
	}
	return fmt.Sprintf("%.5f", v.Unwrap())
}

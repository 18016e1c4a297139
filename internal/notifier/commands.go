package notifier

import (
	"context"
	"html"
	"strings"

	"FXSentinel/internal/model"
	"FXSentinel/internal/scheduler"
)

const helpText = "Commands:\n• /sync run a sync now\n• /status last run summary\n• /pair EURUSD current indicators"

// Commands answers chat commands against a running scheduler.
type Commands struct {
	Scheduler *scheduler.Scheduler
}

// Handle processes a user command and returns a reply.
func (c *Commands) Handle(ctx context.Context, command string) string {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return helpText
	}

	switch fields[0] {
	case "/sync":
		report, ran := c.Scheduler.RunNow()
		if !ran {
			return "A sync is already running."
		}
		return FormatRunSummary(report)
	case "/status":
		report, ok := c.Scheduler.LastReport()
		if !ok {
			return "No sync has run yet."
		}
		return FormatRunSummary(report)
	case "/pair":
		if len(fields) < 2 {
			return "Usage: /pair EURUSD"
		}
		pair, err := model.ParsePair(fields[1])
		if err != nil {
			return html.EscapeString(err.Error())
		}
		snap, err := c.Scheduler.Orchestrator.ComputeSnapshot(ctx, pair)
		if err != nil {
			return "❌ " + pair.String() + ": " + html.EscapeString(err.Error())
		}
		return FormatSnapshot(snap)
	default:
		return helpText
	}
}

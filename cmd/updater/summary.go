package main

import (
	"time"

	"github.com/fatih/color"

	"github.com/flibusta-go/libupdater/internal/ingest"
)

// printRunSummary writes a human-readable, colorized breakdown of one
// pipeline run to stdout — a quick-glance complement to the structured
// JSON logs and the webhook payload, meant for an operator watching a
// terminal during a manual trigger.
func printRunSummary(report ingest.RunReport) {
	title := color.New(color.Bold)
	ok := color.New(color.FgGreen)
	warn := color.New(color.FgYellow)
	fail := color.New(color.FgRed)

	title.Printf("run %s (%s)\n", report.RunID, report.Ended.Sub(report.Started).Round(time.Millisecond))

	for _, t := range report.Tasks {
		switch t.Status {
		case ingest.StatusSuccess:
			if t.Warnings > 0 {
				warn.Printf("  %-28s ok      rows=%-8d warnings=%d\n", t.Name, t.Rows, t.Warnings)
			} else {
				ok.Printf("  %-28s ok      rows=%-8d warnings=%d\n", t.Name, t.Rows, t.Warnings)
			}
		default:
			fail.Printf("  %-28s failed  %v\n", t.Name, t.Err)
		}
	}

	if report.Success {
		ok.Printf("run %s succeeded\n", report.RunID)
	} else {
		fail.Printf("run %s finished with failures\n", report.RunID)
	}
}

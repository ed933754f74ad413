package archive

import (
	"fmt"
	"time"
)

// Progress reports the state of a Sync run.
type Progress struct {
	Phase       string // "fetch" or "done"
	Username    string
	Month       string
	MonthsDone  int
	MonthsTotal int
	StartTime   time.Time
	Error       error
}

// ProgressFunc is called after every month and once at the end of a run.
// Calls are serialized.
type ProgressFunc func(Progress)

// FormatDuration formats duration as human-readable string.
func FormatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%.0fs", d.Seconds())
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm %ds", int(d.Minutes()), int(d.Seconds())%60)
	}
	return fmt.Sprintf("%dh %dm", int(d.Hours()), int(d.Minutes())%60)
}

// DefaultProgressFunc prints progress to stdout.
func DefaultProgressFunc(p Progress) {
	switch p.Phase {
	case "fetch":
		status := "ok"
		if p.Error != nil {
			status = "failed"
		}
		fmt.Printf("\r[Fetch] %d / %d months (%s %s %s)",
			p.MonthsDone, p.MonthsTotal, p.Username, p.Month, status)
	case "done":
		fmt.Printf("\n[Done] %d months in %s\n",
			p.MonthsDone, FormatDuration(time.Since(p.StartTime)))
	}
}

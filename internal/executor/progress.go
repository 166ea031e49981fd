package executor

import (
	"fmt"
	"strings"
	"time"
)

// Reporter throttles progress lines during long invocations.
type Reporter struct {
	startTime      time.Time
	lastReportTime time.Time
	reportInterval time.Duration
	now            func() time.Time
}

// NewReporter creates a reporter that emits at most one line per interval.
func NewReporter(interval time.Duration) *Reporter {
	now := time.Now()
	return &Reporter{
		startTime:      now,
		lastReportTime: now,
		reportInterval: interval,
		now:            time.Now,
	}
}

// ShouldReport returns true if it's time to report progress
func (r *Reporter) ShouldReport() bool {
	return r.now().Sub(r.lastReportTime) >= r.reportInterval
}

// Report formats the state of an in-flight invocation.
func (r *Reporter) Report(result *ExecutionResult, current string) string {
	r.lastReportTime = r.now()

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Progress: %d tasks resolved (%d executed, %d cached)",
		len(result.Order), len(result.Executed()), len(result.Cached())))
	sb.WriteString(fmt.Sprintf(" | Elapsed: %s", formatDuration(r.now().Sub(r.startTime))))
	if current != "" {
		sb.WriteString(fmt.Sprintf("\n   Current: %s", current))
	}

	byKind := result.countByKind()
	if len(byKind) > 1 {
		sb.WriteString("\n   By kind:")
		for _, kc := range byKind {
			sb.WriteString(fmt.Sprintf("\n      %s: %d executed, %d cached", kc.Kind, kc.Executed, kc.Cached))
			if kc.Failed > 0 {
				sb.WriteString(fmt.Sprintf(", %d failed", kc.Failed))
			}
		}
	}
	return sb.String()
}

// formatDuration formats a duration in a user-friendly way
func formatDuration(d time.Duration) string {
	switch {
	case d < time.Second:
		return fmt.Sprintf("%dms", d.Milliseconds())
	case d < time.Minute:
		return fmt.Sprintf("%ds", int(d.Seconds()))
	case d < time.Hour:
		return fmt.Sprintf("%dm %ds", int(d.Minutes()), int(d.Seconds())%60)
	}
	return fmt.Sprintf("%dh %dm", int(d.Hours()), int(d.Minutes())%60)
}

package executor

import (
	"testing"
	"time"

	"github.com/maxkimambo/gasrun/internal/task"
	"github.com/stretchr/testify/assert"
)

func TestReporterThrottles(t *testing.T) {
	clock := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	r := NewReporter(time.Minute)
	r.now = func() time.Time { return clock }
	r.startTime, r.lastReportTime = clock, clock

	assert.False(t, r.ShouldReport())
	clock = clock.Add(time.Minute)
	assert.True(t, r.ShouldReport())

	result := newExecutionResult()
	result.entry("Branch_a", fakeKind("Branch")).Status = StatusExecuted
	result.entry("Root_b", fakeKind("Root")).Status = StatusCached

	line := r.Report(result, "Root()")
	assert.Contains(t, line, "Progress: 2 tasks resolved (1 executed, 1 cached)")
	assert.Contains(t, line, "Elapsed: 1m 0s")
	assert.Contains(t, line, "Current: Root()")
	assert.Contains(t, line, "Branch: 1 executed, 0 cached")
	assert.False(t, r.ShouldReport())
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{250 * time.Millisecond, "250ms"},
		{42 * time.Second, "42s"},
		{3*time.Minute + 5*time.Second, "3m 5s"},
		{2*time.Hour + 7*time.Minute, "2h 7m"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, formatDuration(tt.in))
	}
}

func TestTableAlignsRunes(t *testing.T) {
	tbl := newTable("Task", "Status")
	tbl.addRow("Greet(name=Zoë)", "executed")
	tbl.addRow("short")

	want := "" +
		"┌─────────────────┬──────────┐\n" +
		"│ Task            │ Status   │\n" +
		"├─────────────────┼──────────┤\n" +
		"│ Greet(name=Zoë) │ executed │\n" +
		"│ short           │          │\n" +
		"└─────────────────┴──────────┘\n"
	assert.Equal(t, want, tbl.String())
}

func fakeKind(kind string) task.Task {
	return &node{BaseTask: task.NewBaseTask(kind, task.NewParams())}
}

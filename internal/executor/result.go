package executor

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/maxkimambo/gasrun/internal/task"
)

// TaskStatus is the outcome of one task within an invocation.
type TaskStatus string

const (
	StatusExecuted TaskStatus = "executed"
	StatusCached   TaskStatus = "cached"
	StatusFailed   TaskStatus = "failed"
)

// TaskResult contains the result of a single task resolution
type TaskResult struct {
	// Identity is the task identity
	Identity task.Identity

	// Kind is the task type name
	Kind string

	// Description is the human readable form Kind(name=value, ...)
	Description string

	// Status is how the task was resolved
	Status TaskStatus

	// Invalidated is set when a forced run deleted an existing artifact
	Invalidated bool

	// Error is any error that occurred while resolving the task
	Error error

	// StartTime is when the task started executing
	StartTime *time.Time

	// EndTime is when the task finished executing
	EndTime *time.Time

	// Duration is how long the task took to execute
	Duration time.Duration
}

// ExecutionResult contains the results of one executor invocation
type ExecutionResult struct {
	// Success indicates if the requested task is complete
	Success bool

	// Root is the identity of the requested task
	Root task.Identity

	// Tasks maps identities to their results
	Tasks map[task.Identity]*TaskResult

	// Order lists identities in the order they were first resolved
	Order []task.Identity

	// ExecutionTime is the total time taken for the invocation
	ExecutionTime time.Duration

	// Error is the error that aborted the invocation
	Error error
}

func newExecutionResult() *ExecutionResult {
	return &ExecutionResult{Tasks: make(map[task.Identity]*TaskResult)}
}

func (r *ExecutionResult) entry(id task.Identity, t task.Task) *TaskResult {
	if tr, ok := r.Tasks[id]; ok {
		return tr
	}
	tr := &TaskResult{Identity: id, Kind: t.Kind(), Description: task.Describe(t)}
	r.Tasks[id] = tr
	r.Order = append(r.Order, id)
	return tr
}

// WithStatus returns the identities resolved with status, in resolution order.
func (r *ExecutionResult) WithStatus(status TaskStatus) []task.Identity {
	var out []task.Identity
	for _, id := range r.Order {
		if r.Tasks[id].Status == status {
			out = append(out, id)
		}
	}
	return out
}

// Executed returns the identities whose routine ran during this invocation.
func (r *ExecutionResult) Executed() []task.Identity {
	return r.WithStatus(StatusExecuted)
}

// Cached returns the identities satisfied from existing artifacts.
func (r *ExecutionResult) Cached() []task.Identity {
	return r.WithStatus(StatusCached)
}

// Failed returns the identities that failed.
func (r *ExecutionResult) Failed() []task.Identity {
	return r.WithStatus(StatusFailed)
}

// Invalidated returns the identities whose artifact was deleted by force.
func (r *ExecutionResult) Invalidated() []task.Identity {
	var out []task.Identity
	for _, id := range r.Order {
		if r.Tasks[id].Invalidated {
			out = append(out, id)
		}
	}
	return out
}

// Summary renders the per-task outcome as a table.
func (r *ExecutionResult) Summary() string {
	tbl := newTable("Task", "Status", "Duration", "Identity")
	for _, id := range r.Order {
		tr := r.Tasks[id]
		status := string(tr.Status)
		if tr.Invalidated {
			status += " (forced)"
		}
		duration := "-"
		if tr.Status == StatusExecuted {
			duration = formatDuration(tr.Duration)
		}
		tbl.addRow(tr.Description, status, duration, string(tr.Identity))
	}

	var sb strings.Builder
	sb.WriteString(tbl.String())
	sb.WriteString(fmt.Sprintf("%d executed, %d cached, %d failed in %s\n",
		len(r.Executed()), len(r.Cached()), len(r.Failed()), formatDuration(r.ExecutionTime)))
	return sb.String()
}

// countByKind tallies resolved tasks per kind, sorted by kind.
func (r *ExecutionResult) countByKind() []kindCount {
	counts := make(map[string]*kindCount)
	for _, id := range r.Order {
		tr := r.Tasks[id]
		kc, ok := counts[tr.Kind]
		if !ok {
			kc = &kindCount{Kind: tr.Kind}
			counts[tr.Kind] = kc
		}
		switch tr.Status {
		case StatusExecuted:
			kc.Executed++
		case StatusCached:
			kc.Cached++
		case StatusFailed:
			kc.Failed++
		}
	}
	out := make([]kindCount, 0, len(counts))
	for _, kc := range counts {
		out = append(out, *kc)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Kind < out[j].Kind })
	return out
}

type kindCount struct {
	Kind     string
	Executed int
	Cached   int
	Failed   int
}

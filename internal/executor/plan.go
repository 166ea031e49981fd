package executor

import (
	"context"
	"fmt"
	"strings"

	"github.com/maxkimambo/gasrun/internal/errors"
	"github.com/maxkimambo/gasrun/internal/task"
)

// PlanEntry describes one task reachable through static dependencies.
type PlanEntry struct {
	Task        task.Task
	Identity    task.Identity
	Description string
	Location    string
	Complete    bool
	Depth       int

	// Requires lists static dependency identities in declaration order.
	// Plan leaves it empty for complete tasks since their dependencies are
	// not walked.
	Requires []task.Identity
}

// Plan walks static dependencies of t without executing anything. Each
// identity is listed once, at the depth it was first reached. Dependencies
// of complete tasks are not examined, matching what Run would do.
func (e *Executor) Plan(ctx context.Context, t task.Task) ([]PlanEntry, error) {
	return e.plan(ctx, t, false)
}

// Closure is like Plan but also walks below complete tasks, so every task
// reachable through static dependencies is listed.
func (e *Executor) Closure(ctx context.Context, t task.Task) ([]PlanEntry, error) {
	return e.plan(ctx, t, true)
}

func (e *Executor) plan(ctx context.Context, t task.Task, all bool) ([]PlanEntry, error) {
	var (
		entries  []PlanEntry
		stack    []task.Identity
		visiting = make(map[task.Identity]bool)
		seen     = make(map[task.Identity]bool)
	)

	var walk func(t task.Task, depth int) error
	walk = func(t task.Task, depth int) error {
		id, err := task.IdentityOf(t)
		if err != nil {
			return err
		}
		if visiting[id] {
			return errors.NewDependencyCycleError(cyclePath(stack, id))
		}
		if seen[id] {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		seen[id] = true

		done, err := e.complete(ctx, t, id)
		if err != nil {
			return err
		}
		path, err := e.store.Location(t)
		if err != nil {
			return err
		}
		idx := len(entries)
		entries = append(entries, PlanEntry{
			Task:        t,
			Identity:    id,
			Description: task.Describe(t),
			Location:    path,
			Complete:    done,
			Depth:       depth,
		})
		if done && !all {
			return nil
		}

		visiting[id] = true
		stack = append(stack, id)
		defer func() {
			delete(visiting, id)
			stack = stack[:len(stack)-1]
		}()

		raw, err := t.Requires(ctx)
		if err != nil {
			return errors.NewExecutionError(string(id), "Dependency computation", err)
		}
		deps, err := raw.Normalize()
		if err != nil {
			return err
		}
		for _, dep := range deps {
			entries[idx].Requires = append(entries[idx].Requires, dep.Identity)
			if err := walk(dep.Task, depth+1); err != nil {
				return err
			}
		}
		return nil
	}

	if err := walk(t, 0); err != nil {
		return entries, err
	}
	return entries, nil
}

// PlanTable renders plan entries with indentation showing depth.
func PlanTable(entries []PlanEntry) string {
	tbl := newTable("Task", "Complete", "Location")
	for _, entry := range entries {
		indent := strings.Repeat("  ", entry.Depth)
		complete := "no"
		if entry.Complete {
			complete = "yes"
		}
		tbl.addRow(indent+entry.Description, complete, entry.Location)
	}
	return tbl.String()
}

// PlanDOT renders plan entries as a Graphviz digraph. Edges point from a
// task to the tasks it requires. Complete tasks are filled green.
func PlanDOT(entries []PlanEntry) string {
	var sb strings.Builder
	sb.WriteString("digraph gasrun {\n")
	sb.WriteString("  rankdir=LR;\n")
	sb.WriteString("  node [shape=box, style=filled];\n\n")

	for _, entry := range entries {
		color := "lightgrey"
		if entry.Complete {
			color = "lightgreen"
		}
		sb.WriteString(fmt.Sprintf("  %q [label=%q, fillcolor=%q];\n",
			string(entry.Identity), entry.Description, color))
	}
	sb.WriteString("\n")
	for _, entry := range entries {
		for _, dep := range entry.Requires {
			sb.WriteString(fmt.Sprintf("  %q -> %q;\n", string(entry.Identity), string(dep)))
		}
	}
	sb.WriteString("}\n")
	return sb.String()
}

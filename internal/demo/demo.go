// Package demo provides small task kinds that exercise every dependency
// shape the executor supports. The CLI registers them so a cache root can
// be inspected without any real workload.
package demo

import (
	"context"
	"fmt"
	"time"

	"github.com/maxkimambo/gasrun/internal/task"
)

const (
	KindRoot   = "Root"
	KindBranch = "Branch"
	KindSum    = "Sum"
	KindSleep  = "Sleep"

	// RootOutput is what Root saves once both branches are complete.
	RootOutput = "We did it!"

	defaultBranchResult = 42
)

// Root requires Branch(result=1) and Branch(result=7, branch_again=true).
type Root struct {
	task.BaseTask
}

// NewRoot creates the root of the demonstration graph.
func NewRoot() *Root {
	return &Root{BaseTask: task.NewBaseTask(KindRoot, task.NewParams())}
}

func (r *Root) Requires(ctx context.Context) (task.Deps, error) {
	return task.All(NewBranch(1, false), NewBranch(7, true)), nil
}

func (r *Root) Run(ctx context.Context, rc task.RunContext) (task.Deps, error) {
	return nil, rc.Save(RootOutput)
}

// Branch saves its result. With branch_again it first requires a fresh
// Branch with the default result.
type Branch struct {
	task.BaseTask
}

// NewBranch creates a Branch task.
func NewBranch(result int, branchAgain bool) *Branch {
	return &Branch{BaseTask: task.NewBaseTask(KindBranch,
		task.NewParams("result", result, "branch_again", branchAgain))}
}

func (b *Branch) Result() int {
	return b.Params().Int("result", defaultBranchResult)
}

func (b *Branch) BranchAgain() bool {
	return b.Params().Bool("branch_again", false)
}

func (b *Branch) Requires(ctx context.Context) (task.Deps, error) {
	if b.BranchAgain() {
		return task.One(NewBranch(defaultBranchResult, false)), nil
	}
	return task.None(), nil
}

func (b *Branch) Run(ctx context.Context, rc task.RunContext) (task.Deps, error) {
	return nil, rc.Save(b.Result())
}

// Sum discovers its inputs only while running: it requires one Branch per
// term, reads their outputs and saves the total. Terms above one are
// split so the graph nests another level deep.
type Sum struct {
	task.BaseTask
}

// NewSum creates a Sum over Branch(result=1..n).
func NewSum(n int) *Sum {
	return &Sum{BaseTask: task.NewBaseTask(KindSum, task.NewParams("n", n))}
}

func (s *Sum) Run(ctx context.Context, rc task.RunContext) (task.Deps, error) {
	n := s.Params().Int("n", 0)
	if n <= 0 {
		return nil, rc.Save(0)
	}

	prev := NewSum(n - 1)
	term := NewBranch(n, false)
	if err := rc.Require(ctx, prev, term); err != nil {
		return nil, err
	}

	var subtotal, value int
	if err := rc.Load(prev, &subtotal); err != nil {
		return nil, err
	}
	if err := rc.Load(term, &value); err != nil {
		return nil, err
	}
	return nil, rc.Save(subtotal + value)
}

// Sleep waits for the given duration before saving it, honoring
// cancellation. It is used to exercise timeouts and the worker pool.
type Sleep struct {
	task.BaseTask
}

// NewSleep creates a Sleep task.
func NewSleep(d time.Duration, label string) *Sleep {
	return &Sleep{BaseTask: task.NewBaseTask(KindSleep,
		task.NewParams("duration", d.String(), "label", label))}
}

func (s *Sleep) Run(ctx context.Context, rc task.RunContext) (task.Deps, error) {
	d, err := time.ParseDuration(s.Params().String("duration", "0s"))
	if err != nil {
		return nil, fmt.Errorf("parse duration: %w", err)
	}
	select {
	case <-time.After(d):
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return nil, rc.Save(map[string]interface{}{
		"label": s.Params().String("label", ""),
		"slept": d.String(),
	})
}

// Register adds the demonstration kinds to r.
func Register(r *task.Registry) error {
	factories := map[string]task.Factory{
		KindRoot: func(p task.Params) (task.Task, error) {
			if p.Len() > 0 {
				return nil, fmt.Errorf("%s takes no parameters", KindRoot)
			}
			return NewRoot(), nil
		},
		KindBranch: func(p task.Params) (task.Task, error) {
			result, err := p.IntValue("result", defaultBranchResult)
			if err != nil {
				return nil, err
			}
			return NewBranch(result, p.Bool("branch_again", false)), nil
		},
		KindSum: func(p task.Params) (task.Task, error) {
			n, err := p.IntValue("n", -1)
			if err != nil {
				return nil, err
			}
			if n < 0 {
				return nil, fmt.Errorf("%s requires a non-negative n", KindSum)
			}
			return NewSum(n), nil
		},
		KindSleep: func(p task.Params) (task.Task, error) {
			raw := p.String("duration", "1s")
			d, err := time.ParseDuration(raw)
			if err != nil {
				return nil, fmt.Errorf("invalid duration %q: %w", raw, err)
			}
			return NewSleep(d, p.String("label", "")), nil
		},
	}
	for _, kind := range []string{KindRoot, KindBranch, KindSum, KindSleep} {
		if err := r.Register(kind, factories[kind]); err != nil {
			return err
		}
	}
	return nil
}

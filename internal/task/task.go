// Package task defines the unit of work executed by gasrun: a kind plus
// immutable parameters, a lazily computed set of dependencies, and a run
// routine that may discover further dependencies while it executes.
package task

import (
	"context"
	"fmt"
	"strings"
)

// Task is a unit of deterministic, cacheable work.
type Task interface {
	// Kind returns the task type name. It names the artifact subdirectory.
	Kind() string

	// Params returns the parameters that, together with Kind, identify the task.
	Params() Params

	// Requires computes the static dependencies. It is called at most once
	// per execution attempt and may perform I/O.
	Requires(ctx context.Context) (Deps, error)

	// Run executes the task. Dependencies discovered during execution are
	// either resolved in place with rc.Require or returned to be resolved
	// after Run returns. The output must be staged with rc.Save.
	Run(ctx context.Context, rc RunContext) (Deps, error)
}

// RunContext is the executor's handle given to a running task.
type RunContext interface {
	// Require resolves dynamically discovered dependencies before returning.
	Require(ctx context.Context, tasks ...Task) error

	// Load decodes the artifact of a completed dependency into v.
	Load(dep Task, v interface{}) error

	// Save stages the task output. It is committed to the output store only
	// after every dynamic dependency is complete.
	Save(v interface{}) error
}

// ArtifactChecker reports whether a task's artifact exists.
type ArtifactChecker interface {
	Exists(t Task) (bool, error)
}

// Completer lets a task override the default completion check, which is
// existence of its artifact.
type Completer interface {
	Complete(ctx context.Context, artifacts ArtifactChecker) (bool, error)
}

// BaseTask provides Kind, Params and an empty Requires for embedding.
type BaseTask struct {
	kind   string
	params Params
}

// NewBaseTask creates a new base task
func NewBaseTask(kind string, params Params) BaseTask {
	return BaseTask{kind: kind, params: params}
}

// Kind returns the task type name
func (b BaseTask) Kind() string {
	return b.kind
}

// Params returns the task parameters
func (b BaseTask) Params() Params {
	return b.params
}

// Requires declares no dependencies by default
func (b BaseTask) Requires(ctx context.Context) (Deps, error) {
	return nil, nil
}

// Describe renders a task as Kind(name=value, ...) in parameter insertion order.
func Describe(t Task) string {
	if t == nil {
		return "<nil>"
	}
	p := t.Params()
	parts := make([]string, 0, p.Len())
	for _, name := range p.Names() {
		v, _ := p.Get(name)
		parts = append(parts, fmt.Sprintf("%s=%v", name, v))
	}
	return fmt.Sprintf("%s(%s)", t.Kind(), strings.Join(parts, ", "))
}

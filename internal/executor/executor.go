// Package executor resolves a task and everything it needs in the current
// process: depth first, single-threaded, skipping any task whose artifact
// already exists, and resolving dependencies discovered while a task runs
// before that task is considered finished.
package executor

import (
	"context"
	"fmt"
	"time"

	"github.com/maxkimambo/gasrun/internal/errors"
	"github.com/maxkimambo/gasrun/internal/logger"
	"github.com/maxkimambo/gasrun/internal/store"
	"github.com/maxkimambo/gasrun/internal/task"
)

// Config contains configuration for the executor
type Config struct {
	// ProgressInterval is how often a progress line is logged during long
	// invocations. Zero disables progress lines.
	ProgressInterval time.Duration
}

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	return &Config{ProgressInterval: 30 * time.Second}
}

// Executor runs tasks against an output store.
type Executor struct {
	store       *store.Store
	invalidator *Invalidator
	config      *Config
	now         func() time.Time
}

// New creates an executor over st.
func New(st *store.Store, config *Config) *Executor {
	if config == nil {
		config = DefaultConfig()
	}
	return &Executor{
		store:       st,
		invalidator: NewInvalidator(st),
		config:      config,
		now:         time.Now,
	}
}

// Store returns the output store the executor writes to.
func (e *Executor) Store() *store.Store {
	return e.store
}

// invocation is the state of one Run call.
type invocation struct {
	exec     *Executor
	force    bool
	result   *ExecutionResult
	stack    []task.Identity
	visiting map[task.Identity]bool
	resolved map[task.Identity]bool
	reporter *Reporter
}

// Run ensures t's artifact exists. With force, t and every static
// dependency it reaches are recomputed, each at most once. The returned
// result is never nil; on error it holds the partial progress.
func (e *Executor) Run(ctx context.Context, t task.Task, force bool) (*ExecutionResult, error) {
	start := e.now()
	inv := &invocation{
		exec:     e,
		force:    force,
		result:   newExecutionResult(),
		visiting: make(map[task.Identity]bool),
		resolved: make(map[task.Identity]bool),
	}
	if e.config.ProgressInterval > 0 {
		inv.reporter = NewReporter(e.config.ProgressInterval)
	}

	if id, err := task.IdentityOf(t); err == nil {
		inv.result.Root = id
	}

	err := inv.resolve(ctx, t, force)

	inv.result.ExecutionTime = e.now().Sub(start)
	inv.result.Error = err
	inv.result.Success = err == nil

	logger.Op.WithFields(map[string]interface{}{
		"task":     string(inv.result.Root),
		"executed": len(inv.result.Executed()),
		"cached":   len(inv.result.Cached()),
		"failed":   len(inv.result.Failed()),
		"force":    force,
	}).Debug("Invocation finished")
	return inv.result, err
}

// Invalidate deletes t's artifact without touching its dependencies.
func (e *Executor) Invalidate(t task.Task) (bool, error) {
	return e.invalidator.Invalidate(t)
}

// complete reports whether t is done, honoring a Completer override.
// Completer errors and panics come back as execution failures for id.
func (e *Executor) complete(ctx context.Context, t task.Task, id task.Identity) (done bool, err error) {
	c, ok := t.(task.Completer)
	if !ok {
		return e.store.Exists(t)
	}

	defer func() {
		if r := recover(); r != nil {
			done, err = false, errors.NewPanicError(string(id), "Completion check", r)
		}
	}()
	done, err = c.Complete(ctx, e.store)
	if err != nil {
		return false, errors.NewExecutionError(string(id), "Completion check", err)
	}
	return done, nil
}

func (inv *invocation) resolve(ctx context.Context, t task.Task, force bool) error {
	id, err := task.IdentityOf(t)
	if err != nil {
		return err
	}

	if inv.visiting[id] {
		return errors.NewDependencyCycleError(cyclePath(inv.stack, id))
	}
	if inv.resolved[id] {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("resolving %s: %w", id, err)
	}

	entry := inv.result.entry(id, t)
	log := logger.Op.WithTask(string(id))

	done, err := inv.exec.complete(ctx, t, id)
	if err != nil {
		return inv.fail(entry, err)
	}
	if done && !force {
		entry.Status = StatusCached
		inv.resolved[id] = true
		logger.User.Cachedf("Using cached output: %s", entry.Description)
		log.Debug("Artifact present, skipping")
		return nil
	}

	inv.push(id)
	defer inv.pop(id)

	deps, err := inv.requires(ctx, t, id)
	if err != nil {
		return inv.fail(entry, err)
	}
	for _, dep := range deps {
		if err := inv.resolve(ctx, dep.Task, force); err != nil {
			return inv.fail(entry, err)
		}
	}

	if force && done {
		removed, err := inv.exec.invalidator.Invalidate(t)
		if err != nil {
			return inv.fail(entry, err)
		}
		entry.Invalidated = removed
	}

	if err := ctx.Err(); err != nil {
		return inv.fail(entry, fmt.Errorf("resolving %s: %w", id, err))
	}

	startTime := inv.exec.now()
	entry.StartTime = &startTime
	logger.User.Startingf("Running task: %s", entry.Description)
	log.Debug("Executing task")

	rc := &runContext{inv: inv, task: t, id: id}
	dynamic, err := inv.run(ctx, t, id, rc)
	if err != nil {
		return inv.fail(entry, err)
	}

	// Dependencies returned from Run are resolved after it returns.
	pending, err := dynamic.Normalize()
	if err != nil {
		return inv.fail(entry, err)
	}
	for _, dep := range pending {
		log.WithField("dependency", string(dep.Identity)).Debug("Resolving dynamic dependency")
		if err := inv.resolve(ctx, dep.Task, false); err != nil {
			return inv.fail(entry, err)
		}
	}

	if err := inv.commit(ctx, t, id, rc); err != nil {
		return inv.fail(entry, err)
	}

	endTime := inv.exec.now()
	entry.EndTime = &endTime
	entry.Duration = endTime.Sub(startTime)
	entry.Status = StatusExecuted
	entry.Error = nil
	inv.resolved[id] = true

	logger.User.Successf("Task completed: %s", entry.Description)
	log.WithField("duration", entry.Duration.String()).Info("Task executed")
	inv.maybeReport(entry.Description)
	return nil
}

// requires computes and normalizes static dependencies.
func (inv *invocation) requires(ctx context.Context, t task.Task, id task.Identity) (deps []task.Resolved, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.NewPanicError(string(id), "Dependency computation", r)
		}
	}()

	raw, err := t.Requires(ctx)
	if err != nil {
		return nil, errors.NewExecutionError(string(id), "Dependency computation", err)
	}
	return raw.Normalize()
}

// run calls the task routine. Errors coming back from rc.Require belong to
// the dependency that produced them and pass through unwrapped.
func (inv *invocation) run(ctx context.Context, t task.Task, id task.Identity, rc *runContext) (deps task.Deps, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.NewPanicError(string(id), "Task run", r)
		}
	}()

	deps, err = t.Run(ctx, rc)
	if err != nil {
		if rc.depErr != nil && errors.Is(err, rc.depErr) {
			return nil, err
		}
		return nil, errors.NewExecutionError(string(id), "Task run", err)
	}
	return deps, nil
}

// commit writes the staged output. A task that staged nothing is only
// acceptable when its own completion check already passes.
func (inv *invocation) commit(ctx context.Context, t task.Task, id task.Identity, rc *runContext) error {
	if rc.staged {
		return inv.exec.store.Write(t, rc.output)
	}
	if _, ok := t.(task.Completer); ok {
		done, err := inv.exec.complete(ctx, t, id)
		if err != nil {
			return err
		}
		if done {
			return nil
		}
	}
	return errors.NewNoOutputError(string(id))
}

func (inv *invocation) fail(entry *TaskResult, err error) error {
	if entry.Status == "" {
		entry.Status = StatusFailed
		entry.Error = err
		logger.Op.WithTask(string(entry.Identity)).WithField("error", err.Error()).Debug("Task failed")
	}
	return err
}

func (inv *invocation) push(id task.Identity) {
	inv.visiting[id] = true
	inv.stack = append(inv.stack, id)
}

func (inv *invocation) pop(id task.Identity) {
	delete(inv.visiting, id)
	inv.stack = inv.stack[:len(inv.stack)-1]
}

// cyclePath returns the stack segment starting at id, closed with id.
func cyclePath(stack []task.Identity, id task.Identity) []string {
	var path []string
	for i, sid := range stack {
		if sid == id {
			for _, s := range stack[i:] {
				path = append(path, string(s))
			}
			break
		}
	}
	return append(path, string(id))
}

func (inv *invocation) maybeReport(current string) {
	if inv.reporter != nil && inv.reporter.ShouldReport() {
		logger.User.Info(inv.reporter.Report(inv.result, current))
	}
}

// runContext is handed to a running task.
type runContext struct {
	inv    *invocation
	task   task.Task
	id     task.Identity
	output interface{}
	staged bool
	depErr error
}

// Require resolves tasks, unforced, before returning.
func (rc *runContext) Require(ctx context.Context, tasks ...task.Task) error {
	deps, err := task.Deps(tasks).Normalize()
	if err != nil {
		rc.depErr = err
		return err
	}
	for _, dep := range deps {
		logger.Op.WithTask(string(rc.id)).WithField("dependency", string(dep.Identity)).Debug("Resolving dynamic dependency")
		if err := rc.inv.resolve(ctx, dep.Task, false); err != nil {
			rc.depErr = err
			return err
		}
	}
	return nil
}

// Load reads a dependency's artifact into v.
func (rc *runContext) Load(dep task.Task, v interface{}) error {
	return rc.inv.exec.store.Read(dep, v)
}

// Save stages the output; a later call replaces an earlier one.
func (rc *runContext) Save(v interface{}) error {
	rc.output = v
	rc.staged = true
	return nil
}

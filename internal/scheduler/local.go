package scheduler

import (
	"context"
	stderrors "errors"
	"sync"

	"github.com/maxkimambo/gasrun/internal/executor"
	"github.com/maxkimambo/gasrun/internal/logger"
	"github.com/maxkimambo/gasrun/internal/task"
	"golang.org/x/sync/errgroup"
)

// runLocal resolves each task on a pool of workers. Every worker drives its
// own executor over the shared store, so two workers may compute a shared
// dependency twice; the store's rename keeps the artifact intact.
func (g *Gateway) runLocal(ctx context.Context, tasks []task.Task, workers int) error {
	logger.User.Startingf("Running %d tasks locally with %d workers", len(tasks), workers)

	var (
		mu   sync.Mutex
		errs []error
		eg   errgroup.Group
	)
	eg.SetLimit(workers)

	for _, t := range tasks {
		t := t
		eg.Go(func() error {
			ex := executor.New(g.store, nil)
			result, err := ex.Run(ctx, t, false)
			if err != nil {
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
				logger.User.Errorf("Task failed: %s", task.Describe(t))
				return nil
			}
			logger.Op.WithTask(string(result.Root)).WithField("executed", len(result.Executed())).Debug("Local worker finished")
			return nil
		})
	}
	_ = eg.Wait()

	if len(errs) > 0 {
		return stderrors.Join(errs...)
	}
	logger.User.Successf("All %d tasks complete", len(tasks))
	return nil
}

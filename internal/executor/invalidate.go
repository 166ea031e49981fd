package executor

import (
	"github.com/maxkimambo/gasrun/internal/logger"
	"github.com/maxkimambo/gasrun/internal/store"
	"github.com/maxkimambo/gasrun/internal/task"
)

// Invalidator deletes a single task's artifact so the next run recomputes
// it. Dependency artifacts are never touched.
type Invalidator struct {
	store *store.Store
}

// NewInvalidator creates an invalidator over st.
func NewInvalidator(st *store.Store) *Invalidator {
	return &Invalidator{store: st}
}

// Invalidate removes t's artifact and reports whether one existed.
func (i *Invalidator) Invalidate(t task.Task) (bool, error) {
	removed, err := i.store.Delete(t)
	if err != nil {
		return false, err
	}

	id, _ := task.IdentityOf(t)
	if removed {
		logger.User.Invalidatef("Invalidated %s", task.Describe(t))
		logger.Op.WithTask(string(id)).Debug("Artifact deleted")
	} else {
		logger.Op.WithTask(string(id)).Debug("No artifact to invalidate")
	}
	return removed, nil
}

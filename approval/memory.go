package approval

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryRegistry keeps pending tasks in process memory. It is the default
// registry for tests and single-run CLI use; durable setups use the sqlite
// registry.
type MemoryRegistry struct {
	mu    sync.RWMutex
	tasks map[string]PendingTask
}

func NewMemoryRegistry() *MemoryRegistry {
	return &MemoryRegistry{tasks: make(map[string]PendingTask)}
}

func (r *MemoryRegistry) Create(_ context.Context, task PendingTask) (string, error) {
	if r == nil {
		return "", fmt.Errorf("nil registry")
	}
	if strings.TrimSpace(task.ContextID) == "" {
		return "", fmt.Errorf("missing context id")
	}
	if strings.TrimSpace(task.ID) == "" {
		task.ID = uuid.NewString()
	}
	if task.CreatedAt.IsZero() {
		task.CreatedAt = time.Now().UTC()
	}
	task.State = StateAwaitingDecision

	r.mu.Lock()
	defer r.mu.Unlock()

	// Supersede-on-write: the new task replaces any awaiting one for the
	// same context and tags.
	for id, t := range r.tasks {
		if t.ContextID == task.ContextID && t.State == StateAwaitingDecision && t.HasTags(task.Tags) {
			delete(r.tasks, id)
		}
	}
	r.tasks[task.ID] = task
	return task.ID, nil
}

func (r *MemoryRegistry) Get(_ context.Context, contextID string, tags []string) (PendingTask, bool, error) {
	if r == nil {
		return PendingTask{}, false, fmt.Errorf("nil registry")
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, t := range r.tasks {
		if t.ContextID == contextID && t.State == StateAwaitingDecision && t.HasTags(tags) {
			return t, true, nil
		}
	}
	return PendingTask{}, false, nil
}

func (r *MemoryRegistry) GetByID(_ context.Context, id string) (PendingTask, bool, error) {
	if r == nil {
		return PendingTask{}, false, fmt.Errorf("nil registry")
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tasks[strings.TrimSpace(id)]
	return t, ok, nil
}

func (r *MemoryRegistry) Delete(_ context.Context, id string) error {
	if r == nil {
		return fmt.Errorf("nil registry")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.tasks, strings.TrimSpace(id))
	return nil
}

func (r *MemoryRegistry) CancelExisting(_ context.Context, contextID string, tags []string) (PendingTask, bool, error) {
	if r == nil {
		return PendingTask{}, false, fmt.Errorf("nil registry")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, t := range r.tasks {
		if t.ContextID == contextID && t.State == StateAwaitingDecision && t.HasTags(tags) {
			delete(r.tasks, id)
			t.State = StateCancelled
			return t, true, nil
		}
	}
	return PendingTask{}, false, nil
}

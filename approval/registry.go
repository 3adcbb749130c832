package approval

import "context"

// Registry stores pending approval tasks. Implementations must make a
// created task visible to Get/GetByID before Create returns, so a decision
// arriving immediately after the request can find it.
//
// Create supersedes: any prior task in StateAwaitingDecision for the same
// (ContextID, Tags) is removed first. Callers that need the supersede to be
// observable (audit, callbacks) call CancelExisting themselves before
// Create; doing both is harmless.
type Registry interface {
	Create(ctx context.Context, task PendingTask) (string, error)

	// Get returns the awaiting task for the context carrying all the given
	// tags, if one exists.
	Get(ctx context.Context, contextID string, tags []string) (PendingTask, bool, error)

	GetByID(ctx context.Context, id string) (PendingTask, bool, error)

	// Delete removes a task by id. Deleting a missing task is a no-op.
	Delete(ctx context.Context, id string) error

	// CancelExisting removes any awaiting task for (contextID, tags) and
	// returns it when one was found.
	CancelExisting(ctx context.Context, contextID string, tags []string) (PendingTask, bool, error)
}

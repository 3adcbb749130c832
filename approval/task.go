// Package approval holds the pending-task model and registries for the
// deferred-approval workflow: an agent proposes an external action, the
// proposal is parked here, and an authorized human resolves it.
package approval

import (
	"strings"
	"time"
)

type State string

const (
	StateAwaitingDecision State = "awaiting_decision"
	StateResolved         State = "resolved"
	StateCancelled        State = "cancelled"
)

// Option is one decision a human may submit against a pending task.
type Option struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// Payload is the drafted content awaiting approval. PostID/PostURL are
// filled only after execution, when the resolved task is echoed back to
// callbacks.
type Payload struct {
	Text          string `json:"text"`
	Thought       string `json:"thought,omitempty"`
	ParseFallback bool   `json:"parse_fallback,omitempty"`
	PostID        string `json:"post_id,omitempty"`
	PostURL       string `json:"post_url,omitempty"`
}

// PendingTask is one outstanding approval request. At most one task in
// StateAwaitingDecision exists per (ContextID, Tags) pair; creating a new
// one supersedes the old one.
type PendingTask struct {
	ID        string    `json:"id"`
	ContextID string    `json:"context_id"`
	Name      string    `json:"name"`
	ActorID   string    `json:"actor_id"`
	Payload   Payload   `json:"payload"`
	Options   []Option  `json:"options"`
	Tags      []string  `json:"tags"`
	State     State     `json:"state"`
	CreatedAt time.Time `json:"created_at"`
}

// HasOption reports whether name matches one of the task's declared options
// (case-insensitive, trimmed).
func (t PendingTask) HasOption(name string) bool {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, o := range t.Options {
		if strings.ToLower(strings.TrimSpace(o.Name)) == name {
			return true
		}
	}
	return false
}

// HasTags reports whether the task carries every tag in want.
func (t PendingTask) HasTags(want []string) bool {
	for _, w := range want {
		found := false
		for _, g := range t.Tags {
			if g == w {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// Package audit records the observable steps of the approval workflow as an
// append-only JSONL trail: requests, parse fallbacks, decisions, executions,
// cancellations.
package audit

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

type Kind string

const (
	KindRequestDenied   Kind = "request_denied"
	KindTaskCreated     Kind = "task_created"
	KindTaskSuperseded  Kind = "task_superseded"
	KindParseFallback   Kind = "draft_parse_fallback"
	KindDecisionIgnored Kind = "decision_ignored"
	KindInvalidOption   Kind = "invalid_option"
	KindTaskCancelled   Kind = "task_cancelled"
	KindPostExecuted    Kind = "post_executed"
	KindPostFailed      Kind = "post_failed"
)

type Event struct {
	EventID   string    `json:"event_id"`
	Timestamp time.Time `json:"ts"`
	Kind      Kind      `json:"kind"`

	ContextID string `json:"context_id,omitempty"`
	ActorID   string `json:"actor_id,omitempty"`
	TaskID    string `json:"task_id,omitempty"`
	Option    string `json:"option,omitempty"`
	Detail    string `json:"detail,omitempty"`
}

type Sink interface {
	Emit(ctx context.Context, e Event) error
	Close() error
}

// NopSink discards events; used when auditing is disabled.
type NopSink struct{}

func (NopSink) Emit(context.Context, Event) error { return nil }
func (NopSink) Close() error                      { return nil }

// NewEventID derives a stable id from the event coordinates.
func NewEventID(e Event) string {
	seed := fmt.Sprintf("%s|%s|%s|%s", e.Kind, e.TaskID, e.ContextID, e.Timestamp.UTC().Format(time.RFC3339Nano))
	sum := sha256.Sum256([]byte(seed))
	return "evt_" + hex.EncodeToString(sum[:8])
}

package workflow

import (
	"context"
	"fmt"
	"strings"

	"github.com/postgatehq/postgate/approval"
	"github.com/postgatehq/postgate/audit"
	"github.com/postgatehq/postgate/roles"
)

// Decision is a human verdict on a pending task. Either TaskID or ContextID
// identifies the task; TaskID wins when both are set.
type Decision struct {
	TaskID    string
	ContextID string
	ActorID   string
	Option    string
}

// Decide runs the task worker against one decision event.
//
// The actor's privilege is re-checked here, not only at request time: roles
// change between proposal and confirmation, and an unauthorized decision is
// ignored outright (the task stays pending for a legitimate decider).
// Decisions for the same context are serialized, so of two racing decisions
// the first wins and the second finds no task (a no-op).
func (s *Service) Decide(ctx context.Context, dec Decision, cb Callback) error {
	contextID := strings.TrimSpace(dec.ContextID)
	taskID := strings.TrimSpace(dec.TaskID)
	actorID := strings.TrimSpace(dec.ActorID)
	if actorID == "" {
		return fmt.Errorf("missing actor id")
	}

	// When a task id is given, the lock must be taken on the context the
	// task actually lives in, not on whatever context id the decision
	// carries, so resolve the task first in either case.
	if taskID != "" {
		t, ok, err := s.registry.GetByID(ctx, taskID)
		if err != nil {
			return err
		}
		if !ok {
			return ErrTaskNotFound
		}
		contextID = t.ContextID
	} else if contextID == "" {
		return fmt.Errorf("missing task or context id")
	}

	unlock := s.locks.acquire(contextID)
	defer unlock()

	// Re-read under the lock; the task may have been resolved or superseded
	// while we were acquiring it.
	task, ok, err := s.lookup(ctx, taskID, contextID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrTaskNotFound
	}

	if !s.authorizeDecision(ctx, actorID, task.ContextID) {
		s.emit(ctx, audit.Event{Kind: audit.KindDecisionIgnored, ContextID: task.ContextID, ActorID: actorID, TaskID: task.ID, Option: dec.Option})
		s.log.Info("decision_ignored", "context_id", task.ContextID, "task_id", task.ID, "actor_id", actorID)
		return ErrUnauthorized
	}

	option := strings.ToLower(strings.TrimSpace(dec.Option))
	if !task.HasOption(option) {
		s.emit(ctx, audit.Event{Kind: audit.KindInvalidOption, ContextID: task.ContextID, ActorID: actorID, TaskID: task.ID, Option: option})
		s.send(ctx, cb, Reply{
			Text:    fmt.Sprintf("%q is not a valid option. Reply %q to publish or %q to discard.", dec.Option, OptionPost, OptionCancel),
			Actions: []string{ActionInvalidOption},
			TaskID:  task.ID,
		})
		return ErrInvalidOption
	}

	switch option {
	case OptionCancel:
		if err := s.registry.Delete(ctx, task.ID); err != nil {
			return err
		}
		s.emit(ctx, audit.Event{Kind: audit.KindTaskCancelled, ContextID: task.ContextID, ActorID: actorID, TaskID: task.ID, Option: option})
		s.log.Info("task_cancelled", "context_id", task.ContextID, "task_id", task.ID)
		s.send(ctx, cb, Reply{
			Text:    "Okay, the draft has been discarded.",
			Actions: []string{ActionPostCancelled},
			TaskID:  task.ID,
		})
		return nil

	case OptionPost:
		res, err := s.poster.Post(ctx, task.Payload.Text)
		if err != nil {
			// No automatic retry: the platform call is not idempotent, so a
			// failed post is removed and must be re-requested by a human.
			if delErr := s.registry.Delete(ctx, task.ID); delErr != nil {
				s.log.Warn("task_delete_error", "task_id", task.ID, "error", delErr.Error())
			}
			s.emit(ctx, audit.Event{Kind: audit.KindPostFailed, ContextID: task.ContextID, ActorID: actorID, TaskID: task.ID, Detail: err.Error()})
			s.log.Warn("post_failed", "context_id", task.ContextID, "task_id", task.ID, "error", err.Error())
			s.send(ctx, cb, Reply{
				Text:    fmt.Sprintf("Posting failed: %v. The draft was discarded; request a new post to try again.", err),
				Actions: []string{ActionPostFailed},
				TaskID:  task.ID,
			})
			return fmt.Errorf("execute post: %w", err)
		}

		if err := s.registry.Delete(ctx, task.ID); err != nil {
			return err
		}
		s.emit(ctx, audit.Event{Kind: audit.KindPostExecuted, ContextID: task.ContextID, ActorID: actorID, TaskID: task.ID, Detail: res.URL})
		s.log.Info("post_executed", "context_id", task.ContextID, "task_id", task.ID, "post_id", res.ID)
		s.send(ctx, cb, Reply{
			Text:    fmt.Sprintf("Posted: %s", res.URL),
			Actions: []string{ActionPostPublished},
			TaskID:  task.ID,
			PostID:  res.ID,
			PostURL: res.URL,
		})
		return nil

	default:
		// A declared option with no handler is a configuration defect.
		return fmt.Errorf("option %q declared but not handled", option)
	}
}

func (s *Service) lookup(ctx context.Context, taskID, contextID string) (approval.PendingTask, bool, error) {
	if taskID != "" {
		return s.registry.GetByID(ctx, taskID)
	}
	return s.registry.Get(ctx, contextID, s.tags)
}

func (s *Service) authorizeDecision(ctx context.Context, actorID, contextID string) bool {
	return roles.Authorize(ctx, s.roles, actorID, contextID)
}

// Package workflow implements the deferred-approval flow: an authorized
// actor requests a post, the drafter produces candidate content, the draft
// parks in the approval registry, and a later human decision either
// publishes it or discards it. The service is constructed once at startup;
// there is no lazy handler registration on the request path.
package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/postgatehq/postgate/approval"
	"github.com/postgatehq/postgate/audit"
	"github.com/postgatehq/postgate/drafter"
	"github.com/postgatehq/postgate/platform"
	"github.com/postgatehq/postgate/roles"
)

const (
	OptionPost   = "post"
	OptionCancel = "cancel"

	defaultTaskName = "Confirm Post"
)

var defaultTags = []string{"post", "twitter"}

// Generator produces candidate content for an approval request.
type Generator interface {
	Generate(ctx context.Context, req drafter.Request) (drafter.Draft, error)
}

type Config struct {
	Registry approval.Registry
	Roles    roles.Resolver
	Drafter  Generator
	Poster   platform.Poster

	Audit  audit.Sink
	Logger *slog.Logger

	TaskName string
	Tags     []string
}

type Service struct {
	registry approval.Registry
	roles    roles.Resolver
	drafter  Generator
	poster   platform.Poster
	audit    audit.Sink
	log      *slog.Logger

	taskName string
	tags     []string

	locks *contextLocks
}

func New(cfg Config) (*Service, error) {
	if cfg.Registry == nil {
		return nil, fmt.Errorf("missing registry")
	}
	if cfg.Drafter == nil {
		return nil, fmt.Errorf("missing drafter")
	}
	if cfg.Poster == nil {
		return nil, fmt.Errorf("missing poster")
	}
	sink := cfg.Audit
	if sink == nil {
		sink = audit.NopSink{}
	}
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	name := strings.TrimSpace(cfg.TaskName)
	if name == "" {
		name = defaultTaskName
	}
	tags := cfg.Tags
	if len(tags) == 0 {
		tags = defaultTags
	}
	return &Service{
		registry: cfg.Registry,
		roles:    cfg.Roles,
		drafter:  cfg.Drafter,
		poster:   cfg.Poster,
		audit:    sink,
		log:      log,
		taskName: name,
		tags:     tags,
		locks:    newContextLocks(),
	}, nil
}

// Request is an inbound ask to draft and queue a post for approval.
type Request struct {
	ContextID   string
	ActorID     string
	Instruction string
}

// Request drafts content and parks it as a pending task. The task is
// visible to lookups before Request returns. An unauthorized actor gets an
// explanatory callback and no task.
func (s *Service) Request(ctx context.Context, req Request, cb Callback) (approval.PendingTask, error) {
	contextID := strings.TrimSpace(req.ContextID)
	actorID := strings.TrimSpace(req.ActorID)
	if contextID == "" {
		return approval.PendingTask{}, fmt.Errorf("missing context id")
	}
	if actorID == "" {
		return approval.PendingTask{}, fmt.Errorf("missing actor id")
	}

	if !roles.Authorize(ctx, s.roles, actorID, contextID) {
		s.emit(ctx, audit.Event{Kind: audit.KindRequestDenied, ContextID: contextID, ActorID: actorID})
		s.send(ctx, cb, Reply{
			Text:    "Only an owner or admin can request a post.",
			Actions: []string{ActionUnauthorized},
		})
		return approval.PendingTask{}, ErrUnauthorized
	}

	draft, err := s.drafter.Generate(ctx, drafter.Request{
		ContextID:   contextID,
		Instruction: req.Instruction,
	})
	if err != nil {
		return approval.PendingTask{}, err
	}
	if draft.ParseFallback {
		s.emit(ctx, audit.Event{Kind: audit.KindParseFallback, ContextID: contextID, ActorID: actorID})
	}

	unlock := s.locks.acquire(contextID)
	defer unlock()

	// A new request supersedes any outstanding one for this context.
	if old, ok, err := s.registry.CancelExisting(ctx, contextID, s.tags); err != nil {
		return approval.PendingTask{}, err
	} else if ok {
		s.emit(ctx, audit.Event{Kind: audit.KindTaskSuperseded, ContextID: contextID, ActorID: actorID, TaskID: old.ID})
	}

	task := approval.PendingTask{
		ContextID: contextID,
		Name:      s.taskName,
		ActorID:   actorID,
		Payload: approval.Payload{
			Text:          draft.Text,
			Thought:       draft.Thought,
			ParseFallback: draft.ParseFallback,
		},
		Options: []approval.Option{
			{Name: OptionPost, Description: "Publish the drafted post."},
			{Name: OptionCancel, Description: "Discard the drafted post."},
		},
		Tags: s.tags,
	}
	id, err := s.registry.Create(ctx, task)
	if err != nil {
		return approval.PendingTask{}, err
	}
	task.ID = id
	task.State = approval.StateAwaitingDecision

	s.emit(ctx, audit.Event{Kind: audit.KindTaskCreated, ContextID: contextID, ActorID: actorID, TaskID: id})
	s.log.Info("task_created", "context_id", contextID, "task_id", id, "parse_fallback", draft.ParseFallback)

	s.send(ctx, cb, Reply{
		Text:    fmt.Sprintf("Draft ready for review:\n\n%s\n\nReply %q to publish or %q to discard.", draft.Text, OptionPost, OptionCancel),
		Actions: []string{ActionPostPending},
		TaskID:  id,
	})
	return task, nil
}

// Pending returns the outstanding task for a context, if any.
func (s *Service) Pending(ctx context.Context, contextID string) (approval.PendingTask, bool, error) {
	return s.registry.Get(ctx, strings.TrimSpace(contextID), s.tags)
}

func (s *Service) emit(ctx context.Context, e audit.Event) {
	if err := s.audit.Emit(ctx, e); err != nil {
		s.log.Warn("audit_emit_error", "kind", string(e.Kind), "error", err.Error())
	}
}

func (s *Service) send(ctx context.Context, cb Callback, r Reply) {
	if cb == nil {
		return
	}
	if err := cb(ctx, r); err != nil {
		s.log.Warn("callback_error", "error", err.Error())
	}
}

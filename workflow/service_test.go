package workflow

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/postgatehq/postgate/approval"
	"github.com/postgatehq/postgate/drafter"
	"github.com/postgatehq/postgate/platform"
	"github.com/postgatehq/postgate/roles"
)

type fakeGen struct {
	draft drafter.Draft
	err   error
}

func (g *fakeGen) Generate(context.Context, drafter.Request) (drafter.Draft, error) {
	if g.err != nil {
		return drafter.Draft{}, g.err
	}
	return g.draft, nil
}

type fakePoster struct {
	mu    sync.Mutex
	calls []string
	err   error
}

func (p *fakePoster) Post(_ context.Context, text string) (platform.PostResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, text)
	if p.err != nil {
		return platform.PostResult{}, p.err
	}
	return platform.PostResult{ID: "42", URL: "https://twitter.com/quillbot/status/42"}, nil
}

func (p *fakePoster) callCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.calls)
}

type capturedReplies struct {
	mu      sync.Mutex
	replies []Reply
}

func (c *capturedReplies) callback() Callback {
	return func(_ context.Context, r Reply) error {
		c.mu.Lock()
		defer c.mu.Unlock()
		c.replies = append(c.replies, r)
		return nil
	}
}

func (c *capturedReplies) last(t *testing.T) Reply {
	t.Helper()
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.replies) == 0 {
		t.Fatal("expected at least one callback reply")
	}
	return c.replies[len(c.replies)-1]
}

func newTestService(t *testing.T, poster *fakePoster, gen *fakeGen) *Service {
	t.Helper()
	if gen == nil {
		gen = &fakeGen{draft: drafter.Draft{Text: "Hello world", Thought: "t"}}
	}
	resolver := roles.NewStaticResolver(map[string]roles.Membership{
		"room-1": {Owners: []string{"owner"}, Admins: []string{"admin"}},
	})
	s, err := New(Config{
		Registry: approval.NewMemoryRegistry(),
		Roles:    resolver,
		Drafter:  gen,
		Poster:   poster,
	})
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	return s
}

func TestRequest_MemberDenied(t *testing.T) {
	poster := &fakePoster{}
	s := newTestService(t, poster, nil)
	var cb capturedReplies

	_, err := s.Request(context.Background(), Request{ContextID: "room-1", ActorID: "member"}, cb.callback())
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if got := cb.last(t); got.Actions[0] != ActionUnauthorized {
		t.Fatalf("expected unauthorized reply, got %+v", got)
	}
	if _, ok, _ := s.Pending(context.Background(), "room-1"); ok {
		t.Fatal("expected no task created for unauthorized request")
	}
	if poster.callCount() != 0 {
		t.Fatal("expected no post attempt")
	}
}

func TestRequest_CreatesVisibleTask(t *testing.T) {
	s := newTestService(t, &fakePoster{}, nil)
	var cb capturedReplies
	ctx := context.Background()

	task, err := s.Request(ctx, Request{ContextID: "room-1", ActorID: "admin"}, cb.callback())
	if err != nil {
		t.Fatalf("Request error: %v", err)
	}
	if task.ID == "" || task.State != approval.StateAwaitingDecision {
		t.Fatalf("unexpected task: %+v", task)
	}
	if !task.HasOption(OptionPost) || !task.HasOption(OptionCancel) {
		t.Fatalf("expected post/cancel options, got %+v", task.Options)
	}

	// Creation is visible before Request returns.
	got, ok, err := s.Pending(ctx, "room-1")
	if err != nil || !ok {
		t.Fatalf("Pending = ok=%v err=%v, want found", ok, err)
	}
	if got.ID != task.ID || got.Payload.Text != "Hello world" {
		t.Fatalf("unexpected pending task: %+v", got)
	}

	reply := cb.last(t)
	if !strings.Contains(reply.Text, "Hello world") || reply.Actions[0] != ActionPostPending {
		t.Fatalf("unexpected reply: %+v", reply)
	}
	if reply.TaskID != task.ID {
		t.Fatalf("expected reply task id %s, got %s", task.ID, reply.TaskID)
	}
}

func TestRequest_SupersedesPriorTask(t *testing.T) {
	s := newTestService(t, &fakePoster{}, nil)
	ctx := context.Background()

	first, err := s.Request(ctx, Request{ContextID: "room-1", ActorID: "admin"}, nil)
	if err != nil {
		t.Fatalf("Request error: %v", err)
	}
	second, err := s.Request(ctx, Request{ContextID: "room-1", ActorID: "owner"}, nil)
	if err != nil {
		t.Fatalf("Request error: %v", err)
	}

	got, ok, _ := s.Pending(ctx, "room-1")
	if !ok || got.ID != second.ID {
		t.Fatalf("expected second task pending, got ok=%v task=%+v", ok, got)
	}
	// A decision against the superseded task is a no-op.
	err = s.Decide(ctx, Decision{TaskID: first.ID, ActorID: "admin", Option: OptionPost}, nil)
	if !errors.Is(err, ErrTaskNotFound) {
		t.Fatalf("expected ErrTaskNotFound for superseded task, got %v", err)
	}
}

func TestDecide_CancelNeverPosts(t *testing.T) {
	poster := &fakePoster{}
	s := newTestService(t, poster, nil)
	var cb capturedReplies
	ctx := context.Background()

	task, _ := s.Request(ctx, Request{ContextID: "room-1", ActorID: "admin"}, nil)
	err := s.Decide(ctx, Decision{TaskID: task.ID, ActorID: "admin", Option: OptionCancel}, cb.callback())
	if err != nil {
		t.Fatalf("Decide error: %v", err)
	}
	if poster.callCount() != 0 {
		t.Fatal("cancel must never trigger the executor")
	}
	if got := cb.last(t); got.Actions[0] != ActionPostCancelled {
		t.Fatalf("expected cancellation reply, got %+v", got)
	}
	if _, ok, _ := s.registry.GetByID(ctx, task.ID); ok {
		t.Fatal("expected task deleted after cancel")
	}
}

func TestDecide_PostPublishesAndDeletes(t *testing.T) {
	poster := &fakePoster{}
	s := newTestService(t, poster, nil)
	var cb capturedReplies
	ctx := context.Background()

	task, _ := s.Request(ctx, Request{ContextID: "room-1", ActorID: "owner"}, nil)
	err := s.Decide(ctx, Decision{ContextID: "room-1", ActorID: "owner", Option: "POST"}, cb.callback())
	if err != nil {
		t.Fatalf("Decide error: %v", err)
	}
	if poster.callCount() != 1 || poster.calls[0] != "Hello world" {
		t.Fatalf("expected one post of the draft text, got %v", poster.calls)
	}

	reply := cb.last(t)
	if reply.PostURL != "https://twitter.com/quillbot/status/42" || reply.Actions[0] != ActionPostPublished {
		t.Fatalf("unexpected reply: %+v", reply)
	}
	if _, ok, _ := s.registry.GetByID(ctx, task.ID); ok {
		t.Fatal("expected task deleted after post")
	}

	// Duplicate decision after resolution is a no-op.
	err = s.Decide(ctx, Decision{TaskID: task.ID, ActorID: "owner", Option: OptionPost}, nil)
	if !errors.Is(err, ErrTaskNotFound) {
		t.Fatalf("expected ErrTaskNotFound on duplicate decision, got %v", err)
	}
	if poster.callCount() != 1 {
		t.Fatal("duplicate decision must not post again")
	}
}

func TestDecide_UnauthorizedIgnored(t *testing.T) {
	poster := &fakePoster{}
	s := newTestService(t, poster, nil)
	ctx := context.Background()

	task, _ := s.Request(ctx, Request{ContextID: "room-1", ActorID: "admin"}, nil)
	err := s.Decide(ctx, Decision{TaskID: task.ID, ActorID: "member", Option: OptionPost}, nil)
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if poster.callCount() != 0 {
		t.Fatal("unauthorized decision must not trigger the executor")
	}
	// The task stays pending for a legitimate decider.
	if _, ok, _ := s.registry.GetByID(ctx, task.ID); !ok {
		t.Fatal("expected task untouched after unauthorized decision")
	}
	if err := s.Decide(ctx, Decision{TaskID: task.ID, ActorID: "owner", Option: OptionPost}, nil); err != nil {
		t.Fatalf("expected authorized decision to still work, got %v", err)
	}
}

func TestDecide_InvalidOptionKeepsTask(t *testing.T) {
	poster := &fakePoster{}
	s := newTestService(t, poster, nil)
	var cb capturedReplies
	ctx := context.Background()

	task, _ := s.Request(ctx, Request{ContextID: "room-1", ActorID: "admin"}, nil)
	err := s.Decide(ctx, Decision{TaskID: task.ID, ActorID: "admin", Option: "snooze"}, cb.callback())
	if !errors.Is(err, ErrInvalidOption) {
		t.Fatalf("expected ErrInvalidOption, got %v", err)
	}
	reply := cb.last(t)
	if !strings.Contains(reply.Text, "snooze") || reply.Actions[0] != ActionInvalidOption {
		t.Fatalf("unexpected reply: %+v", reply)
	}
	if _, ok, _ := s.registry.GetByID(ctx, task.ID); !ok {
		t.Fatal("expected task to remain pending after invalid option")
	}
	if poster.callCount() != 0 {
		t.Fatal("invalid option must not trigger the executor")
	}
}

func TestDecide_ExecutionFailureRemovesTask(t *testing.T) {
	poster := &fakePoster{err: errors.New("duplicate content")}
	s := newTestService(t, poster, nil)
	var cb capturedReplies
	ctx := context.Background()

	task, _ := s.Request(ctx, Request{ContextID: "room-1", ActorID: "owner"}, nil)
	err := s.Decide(ctx, Decision{TaskID: task.ID, ActorID: "owner", Option: OptionPost}, cb.callback())
	if err == nil || !strings.Contains(err.Error(), "duplicate content") {
		t.Fatalf("expected execution error surfaced, got %v", err)
	}
	reply := cb.last(t)
	if reply.Actions[0] != ActionPostFailed || !strings.Contains(reply.Text, "duplicate content") {
		t.Fatalf("unexpected reply: %+v", reply)
	}
	// No automatic retry: the task is gone and must be re-requested.
	if _, ok, _ := s.registry.GetByID(ctx, task.ID); ok {
		t.Fatal("expected task deleted after failed execution")
	}
}

func TestRequest_ParseFallbackDraftStillQueued(t *testing.T) {
	gen := &fakeGen{draft: drafter.Draft{Text: "Hello world", ParseFallback: true}}
	s := newTestService(t, &fakePoster{}, gen)
	ctx := context.Background()

	task, err := s.Request(ctx, Request{ContextID: "room-1", ActorID: "admin"}, nil)
	if err != nil {
		t.Fatalf("Request error: %v", err)
	}
	if !task.Payload.ParseFallback || task.Payload.Text != "Hello world" {
		t.Fatalf("expected fallback draft queued, got %+v", task.Payload)
	}
}

func TestRequest_GenerationErrorCreatesNothing(t *testing.T) {
	gen := &fakeGen{err: errors.New("model unavailable")}
	s := newTestService(t, &fakePoster{}, gen)

	if _, err := s.Request(context.Background(), Request{ContextID: "room-1", ActorID: "admin"}, nil); err == nil {
		t.Fatal("expected generation error")
	}
	if _, ok, _ := s.Pending(context.Background(), "room-1"); ok {
		t.Fatal("expected no task after generation failure")
	}
}

package drafter

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/postgatehq/postgate/llm"
	"github.com/postgatehq/postgate/persona"
)

type fakeClient struct {
	text string
	err  error

	lastReq llm.Request
}

func (c *fakeClient) Chat(_ context.Context, req llm.Request) (llm.Result, error) {
	c.lastReq = req
	if c.err != nil {
		return llm.Result{}, c.err
	}
	return llm.Result{Text: c.text}, nil
}

func TestGenerate_StructuredOutput(t *testing.T) {
	c := &fakeClient{text: `{"post":"Hello world","thought":"a friendly opener"}`}
	d := New(c, "test-model", persona.Persona{Name: "Quill", Style: []string{"no hashtags"}}, nil)

	draft, err := d.Generate(context.Background(), Request{ContextID: "room-1", Instruction: "say hi"})
	if err != nil {
		t.Fatalf("Generate error: %v", err)
	}
	if draft.Text != "Hello world" {
		t.Fatalf("expected text %q, got %q", "Hello world", draft.Text)
	}
	if draft.Thought != "a friendly opener" {
		t.Fatalf("expected thought, got %q", draft.Thought)
	}
	if draft.ParseFallback {
		t.Fatal("expected no parse fallback")
	}

	if !c.lastReq.ForceJSON {
		t.Fatal("expected ForceJSON request")
	}
	if len(c.lastReq.Messages) != 2 {
		t.Fatalf("expected system+user messages, got %d", len(c.lastReq.Messages))
	}
	if !strings.Contains(c.lastReq.Messages[1].Content, "Quill") {
		t.Fatal("expected persona name in user prompt")
	}
	if !strings.Contains(c.lastReq.Messages[1].Content, "say hi") {
		t.Fatal("expected instruction in user prompt")
	}
	if !strings.Contains(c.lastReq.Messages[0].Content, "280") {
		t.Fatal("expected length target in system prompt")
	}
}

func TestGenerate_JSONInsideProse(t *testing.T) {
	c := &fakeClient{text: "Sure! Here is the post:\n```json\n{\"post\":\"Hello world\",\"thought\":\"t\"}\n```"}
	d := New(c, "test-model", persona.Persona{}, nil)

	draft, err := d.Generate(context.Background(), Request{})
	if err != nil {
		t.Fatalf("Generate error: %v", err)
	}
	if draft.Text != "Hello world" || draft.ParseFallback {
		t.Fatalf("expected recovered structured draft, got %+v", draft)
	}
}

func TestGenerate_FallbackOnUnparseableOutput(t *testing.T) {
	c := &fakeClient{text: `"Hello world\nsecond line"`}
	d := New(c, "test-model", persona.Persona{}, nil)

	draft, err := d.Generate(context.Background(), Request{ContextID: "room-1"})
	if err != nil {
		t.Fatalf("Generate error: %v", err)
	}
	if !draft.ParseFallback {
		t.Fatal("expected parse fallback to be recorded")
	}
	if draft.Text != "Hello world\nsecond line" {
		t.Fatalf("expected quotes stripped and \\n expanded, got %q", draft.Text)
	}
	if draft.Thought != "" {
		t.Fatalf("expected no thought on fallback, got %q", draft.Thought)
	}
}

func TestGenerate_ClientError(t *testing.T) {
	c := &fakeClient{err: errors.New("model unavailable")}
	d := New(c, "test-model", persona.Persona{}, nil)

	if _, err := d.Generate(context.Background(), Request{}); err == nil {
		t.Fatal("expected error when client fails")
	}
}

func TestGenerate_EmptyResponse(t *testing.T) {
	c := &fakeClient{text: "   "}
	d := New(c, "test-model", persona.Persona{}, nil)

	if _, err := d.Generate(context.Background(), Request{}); err == nil {
		t.Fatal("expected error for empty response")
	}
}

func TestFallbackDraft(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"wrapping_quotes", `"Hello"`, "Hello"},
		{"nested_quotes_kept", `say "hi" now`, `say "hi" now`},
		{"single_quotes", `'Hello'`, "Hello"},
		{"newline_escapes", `line one\nline two`, "line one\nline two"},
		{"whitespace", "  Hello  ", "Hello"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := fallbackDraft(tc.in)
			if got.Text != tc.want {
				t.Fatalf("fallbackDraft(%q).Text = %q, want %q", tc.in, got.Text, tc.want)
			}
			if !got.ParseFallback {
				t.Fatal("expected ParseFallback set")
			}
		})
	}
}

func TestStripHTML(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "Hello world", "Hello world"},
		{"tags", "<p>Hello <b>world</b></p>", "Hello world"},
		{"entity", "fish &amp; chips", "fish & chips"},
		{"angle_text", "a < b", "a < b"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := StripHTML(tc.in); got != tc.want {
				t.Fatalf("StripHTML(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

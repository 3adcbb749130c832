// Package drafter turns a posting request into candidate content via an LLM
// call. Parsing the model's structured reply is best-effort: a reply that
// fails to parse still yields a usable draft from the raw text.
package drafter

import (
	"context"
	_ "embed"
	"fmt"
	"log/slog"
	"strings"
	"text/template"

	"github.com/postgatehq/postgate/internal/prompttmpl"
	"github.com/postgatehq/postgate/llm"
	"github.com/postgatehq/postgate/persona"
)

//go:embed prompts/draft_system.tmpl
var draftSystemPromptTemplateSource string

//go:embed prompts/draft_user.tmpl
var draftUserPromptTemplateSource string

var draftPromptTemplateFuncs = template.FuncMap{
	"join": strings.Join,
}

var draftSystemPromptTemplate = prompttmpl.MustParse("draft_system", draftSystemPromptTemplateSource, nil)
var draftUserPromptTemplate = prompttmpl.MustParse("draft_user", draftUserPromptTemplateSource, draftPromptTemplateFuncs)

const defaultMaxLength = 280

// Draft is the candidate content awaiting approval. ParseFallback marks
// drafts recovered from unparseable model output.
type Draft struct {
	Text          string
	Thought       string
	ParseFallback bool
}

type Request struct {
	ContextID   string
	Instruction string
}

type Drafter struct {
	Client    llm.Client
	Model     string
	Persona   persona.Persona
	MaxLength int

	log *slog.Logger
}

func New(client llm.Client, model string, p persona.Persona, log *slog.Logger) *Drafter {
	if log == nil {
		log = slog.Default()
	}
	return &Drafter{
		Client:    client,
		Model:     model,
		Persona:   p,
		MaxLength: defaultMaxLength,
		log:       log,
	}
}

func (d *Drafter) Generate(ctx context.Context, req Request) (Draft, error) {
	if d == nil || d.Client == nil {
		return Draft{}, fmt.Errorf("nil llm client")
	}

	maxLen := d.MaxLength
	if maxLen <= 0 {
		maxLen = defaultMaxLength
	}

	sys, err := prompttmpl.Render(draftSystemPromptTemplate, struct {
		PersonaName string
		MaxLength   int
	}{PersonaName: d.Persona.Name, MaxLength: maxLen})
	if err != nil {
		return Draft{}, err
	}
	user, err := prompttmpl.Render(draftUserPromptTemplate, struct {
		Persona     persona.Persona
		Instruction string
	}{Persona: d.Persona, Instruction: strings.TrimSpace(req.Instruction)})
	if err != nil {
		return Draft{}, err
	}

	res, err := d.Client.Chat(ctx, llm.Request{
		Model:     d.Model,
		ForceJSON: true,
		Messages: []llm.Message{
			{Role: "system", Content: sys},
			{Role: "user", Content: user},
		},
		Parameters: map[string]any{
			"max_tokens":  300,
			"temperature": 0.7,
		},
	})
	if err != nil {
		return Draft{}, fmt.Errorf("draft generation: %w", err)
	}

	raw := strings.TrimSpace(res.Text)
	if raw == "" {
		return Draft{}, fmt.Errorf("empty draft response")
	}

	draft, err := parseDraft(raw)
	if err != nil {
		// Degrade to the raw text rather than failing the request; the
		// human reviewer still sees exactly what would be posted.
		d.log.Warn("draft_parse_fallback",
			"context_id", req.ContextID,
			"error", err.Error(),
		)
		draft = fallbackDraft(raw)
	}

	draft.Text = StripHTML(draft.Text)
	if strings.TrimSpace(draft.Text) == "" {
		return Draft{}, fmt.Errorf("draft has no usable text")
	}
	return draft, nil
}

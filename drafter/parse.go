package drafter

import (
	"fmt"
	"strings"

	"github.com/postgatehq/postgate/internal/jsonutil"
)

type draftPayload struct {
	Post    string `json:"post"`
	Thought string `json:"thought"`
}

// parseDraft extracts the structured draft from model output.
func parseDraft(raw string) (Draft, error) {
	var p draftPayload
	if err := jsonutil.Decode(raw, &p); err != nil {
		return Draft{}, err
	}
	text := strings.TrimSpace(p.Post)
	if text == "" {
		return Draft{}, fmt.Errorf("draft json missing post text")
	}
	return Draft{
		Text:    text,
		Thought: strings.TrimSpace(p.Thought),
	}, nil
}

// fallbackDraft builds a draft from raw model text when structured parsing
// fails: wrapping quotes are stripped and literal \n escapes become real
// newlines.
func fallbackDraft(raw string) Draft {
	text := strings.TrimSpace(raw)
	text = trimWrappingQuotes(text)
	text = strings.ReplaceAll(text, `\n`, "\n")
	return Draft{
		Text:          strings.TrimSpace(text),
		ParseFallback: true,
	}
}

func trimWrappingQuotes(s string) string {
	for len(s) >= 2 {
		first := s[0]
		last := s[len(s)-1]
		if (first == '"' && last == '"') || (first == '\'' && last == '\'') || (first == '`' && last == '`') {
			s = strings.TrimSpace(s[1 : len(s)-1])
			continue
		}
		break
	}
	return s
}

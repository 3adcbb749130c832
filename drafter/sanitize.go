package drafter

import (
	"strings"

	"golang.org/x/net/html"
)

// StripHTML removes markup the model occasionally emits despite being told
// not to, keeping only text content. Entities are decoded by the tokenizer.
func StripHTML(s string) string {
	if !strings.ContainsAny(s, "<&") {
		return s
	}

	z := html.NewTokenizer(strings.NewReader(s))
	var sb strings.Builder
	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			return strings.TrimSpace(sb.String())
		case html.TextToken:
			sb.Write(z.Text())
		}
	}
}

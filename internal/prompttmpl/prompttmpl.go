package prompttmpl

import (
	"strings"
	"text/template"
)

// MustParse parses an embedded prompt template, panicking on error. Prompt
// templates ship with the binary, so a parse failure is a build defect.
func MustParse(name string, source string, funcs template.FuncMap) *template.Template {
	t := template.New(name)
	if funcs != nil {
		t = t.Funcs(funcs)
	}
	return template.Must(t.Parse(source))
}

func Render(t *template.Template, data any) (string, error) {
	var sb strings.Builder
	if err := t.Execute(&sb, data); err != nil {
		return "", err
	}
	return strings.TrimSpace(sb.String()), nil
}

// Package persona loads the character document that shapes generated posts.
// A persona file is markdown with YAML front-matter: the front-matter holds
// the structured fields, the body is free-form voice/bio guidance passed to
// the drafting prompt verbatim.
package persona

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

type Persona struct {
	Name   string   `yaml:"name"`
	Handle string   `yaml:"handle"`
	Topics []string `yaml:"topics"`
	Style  []string `yaml:"style"`

	// Bio is the front-matter-stripped document body.
	Bio string `yaml:"-"`
}

func (p Persona) Empty() bool {
	return strings.TrimSpace(p.Name) == "" &&
		strings.TrimSpace(p.Bio) == "" &&
		len(p.Topics) == 0 &&
		len(p.Style) == 0
}

// Load reads and parses a persona file. A missing path yields a zero
// Persona without error; the drafter works fine without one.
func Load(path string) (Persona, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return Persona{}, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return Persona{}, fmt.Errorf("read persona file: %w", err)
	}
	return Parse(string(b))
}

// Parse splits front-matter from body and unmarshals the YAML block. A
// document without front-matter is treated as all bio.
func Parse(contents string) (Persona, error) {
	fmBlock, body, ok := splitFrontmatter(contents)
	if !ok {
		return Persona{Bio: strings.TrimSpace(contents)}, nil
	}

	var p Persona
	if err := yaml.Unmarshal([]byte(fmBlock), &p); err != nil {
		return Persona{}, fmt.Errorf("parse persona front-matter: %w", err)
	}
	p.Name = strings.TrimSpace(p.Name)
	p.Handle = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(p.Handle), "@"))
	p.Topics = dedupeTrim(p.Topics)
	p.Style = dedupeTrim(p.Style)
	p.Bio = strings.TrimSpace(body)
	return p, nil
}

func splitFrontmatter(contents string) (fm string, body string, ok bool) {
	sc := bufio.NewScanner(strings.NewReader(contents))
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	if !sc.Scan() || strings.TrimSpace(sc.Text()) != "---" {
		return "", "", false
	}

	var fmLines []string
	foundEnd := false
	for sc.Scan() {
		line := sc.Text()
		if strings.TrimSpace(line) == "---" {
			foundEnd = true
			break
		}
		fmLines = append(fmLines, line)
	}
	if !foundEnd {
		return "", "", false
	}

	var bodyLines []string
	for sc.Scan() {
		bodyLines = append(bodyLines, sc.Text())
	}
	return strings.Join(fmLines, "\n"), strings.Join(bodyLines, "\n"), true
}

func dedupeTrim(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(in))
	var out []string
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}

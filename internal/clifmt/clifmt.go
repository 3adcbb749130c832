// Package clifmt colors CLI output when stdout is an interactive
// terminal. Every helper degrades to plain text otherwise, so command
// output stays pipe- and log-friendly.
package clifmt

import (
	"fmt"
	"os"
	"sync"

	"golang.org/x/term"
)

const reset = "\x1b[0m"

var stdoutIsTTY = sync.OnceValue(func() bool {
	if os.Getenv("NO_COLOR") != "" || os.Getenv("TERM") == "dumb" {
		return false
	}
	return term.IsTerminal(int(os.Stdout.Fd()))
})

// Headerf formats a bold cyan section header, for task summaries.
func Headerf(format string, args ...any) string {
	return wrap("1;36", fmt.Sprintf(format, args...))
}

// Success marks a confirmation line, like a published post.
func Success(text string) string { return wrap("32", text) }

// Warn marks degraded outcomes: denied decisions, fallback drafts.
func Warn(text string) string { return wrap("33", text) }

// Dim renders secondary detail such as task ids.
func Dim(text string) string { return wrap("2", text) }

// Key renders a field label in key/value listings.
func Key(text string) string { return wrap("1;33", text) }

func wrap(sgr, text string) string {
	if !stdoutIsTTY() {
		return text
	}
	return "\x1b[" + sgr + "m" + text + reset
}

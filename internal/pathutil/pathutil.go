// Package pathutil normalizes user-supplied filesystem paths from
// config: the database DSN, the persona file, and the audit log all
// accept a leading "~".
package pathutil

import (
	"os"
	"path/filepath"
	"strings"
)

// ExpandHomePath resolves a leading "~" or "~/" against the current
// user's home directory and cleans the result. A path that does not
// start with "~", or a host with no resolvable home, is cleaned and
// returned as-is. Empty input stays empty so callers can keep treating
// an unset config key as "use the default".
func ExpandHomePath(p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return ""
	}
	rest, ok := strings.CutPrefix(p, "~")
	if !ok || (rest != "" && rest[0] != '/') {
		return filepath.Clean(p)
	}
	home, err := os.UserHomeDir()
	if err != nil || strings.TrimSpace(home) == "" {
		return filepath.Clean(p)
	}
	return filepath.Clean(filepath.Join(home, rest))
}

// Package platform wraps the side-effecting posting call. The workflow only
// sees the Poster interface; the concrete client is wired in cmd.
package platform

import "context"

type PostResult struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// Poster publishes approved content. The call is not idempotent at the
// platform level, so callers must never retry blindly.
type Poster interface {
	Post(ctx context.Context, text string) (PostResult, error)
}

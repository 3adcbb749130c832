package workflow

import "context"

// Reply is what the workflow renders back to the requesting conversation.
type Reply struct {
	Text    string   `json:"text"`
	Actions []string `json:"actions,omitempty"`
	TaskID  string   `json:"task_id,omitempty"`
	PostID  string   `json:"post_id,omitempty"`
	PostURL string   `json:"post_url,omitempty"`
}

// Callback delivers a Reply to whatever surface the request came from
// (CLI, HTTP response, chat transport). A nil callback is allowed.
type Callback func(ctx context.Context, r Reply) error

const (
	ActionPostPending   = "POST_PENDING"
	ActionPostPublished = "POST_PUBLISHED"
	ActionPostCancelled = "POST_CANCELLED"
	ActionPostFailed    = "POST_FAILED"
	ActionInvalidOption = "POST_INVALID_OPTION"
	ActionUnauthorized  = "POST_UNAUTHORIZED"
)

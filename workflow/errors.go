package workflow

import "errors"

var (
	// ErrUnauthorized: the actor lacks a privileged role. Requests are
	// declined before any task is created; decisions are ignored with the
	// task left untouched.
	ErrUnauthorized = errors.New("actor lacks required role")

	// ErrTaskNotFound: no pending task matched. Duplicate decisions against
	// an already-resolved task land here and are no-ops.
	ErrTaskNotFound = errors.New("no pending task")

	// ErrInvalidOption: the decision option is not one the task declared.
	// The task stays pending.
	ErrInvalidOption = errors.New("unrecognized decision option")
)

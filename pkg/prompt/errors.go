package prompt

import "errors"

var (
	// ErrAborted signals the user aborted input (e.g., Ctrl+C).
	ErrAborted = errors.New("prompt: aborted")
	// ErrNoOptions is returned when a select control has nothing to pick.
	ErrNoOptions = errors.New("prompt: select has no options")
)

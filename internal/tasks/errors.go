package tasks

import "errors"

var (
	// ErrMissingSource means the source picture document does not exist.
	ErrMissingSource = errors.New("source picture not found")
	ErrMissingGroup  = errors.New("group not found")
	ErrInvalidArgs   = errors.New("invalid task arguments")
	ErrUnknownTask   = errors.New("unknown task")
	ErrNotConfigured = errors.New("engine not configured")
	// ErrPanic wraps a recovered panic from an engine.
	ErrPanic = errors.New("task panicked")
)

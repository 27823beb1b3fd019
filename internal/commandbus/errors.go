package commandbus

import "errors"

var (
	// ErrInvalidCommand is reported when a command topic or body cannot be
	// understood.
	ErrInvalidCommand = errors.New("commandbus: invalid command")

	// ErrNotStarted is returned by Stop before Start.
	ErrNotStarted = errors.New("commandbus: not started")
)

package session

import (
	"errors"
	"fmt"
)

// NoImagesMessage is sent instead of rendering when no channel is configured
const NoImagesMessage = "No images defined. Nothing to display."

var (
	// ErrNoChannelConfigured means a render was requested before any image was set
	ErrNoChannelConfigured = errors.New("no channel configured")
	// ErrClosed is returned for commands submitted after Close
	ErrClosed = errors.New("session closed")
)

// InvalidCommandError covers unknown command names and bad arguments
type InvalidCommandError struct {
	Command string
	Reason  string
}

func (e *InvalidCommandError) Error() string {
	if e.Command == "" {
		return fmt.Sprintf("invalid command: %s", e.Reason)
	}
	return fmt.Sprintf("invalid command %q: %s", e.Command, e.Reason)
}

func invalid(command, format string, args ...any) error {
	return &InvalidCommandError{Command: command, Reason: fmt.Sprintf(format, args...)}
}

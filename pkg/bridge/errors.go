package bridge

import (
	"errors"
	"fmt"
)

var (
	// ErrNotReady indicates the link is not synchronized.
	ErrNotReady = errors.New("link not ready")
	// ErrNoReply indicates a reply for a later command arrived first,
	// so the earlier command will never be answered.
	ErrNoReply = errors.New("no reply")
	// ErrTimeout indicates no reply within the driver timeout.
	ErrTimeout = errors.New("command timeout")
)

// CommandError is the error code carried by a reply.
type CommandError struct {
	Code byte
}

// Error implements error.
func (e *CommandError) Error() string {
	switch e.Code {
	case ErrCodeInvalid:
		return "command invalid"
	case ErrCodeRejected:
		return "command rejected"
	}
	return fmt.Sprintf("command error %d", e.Code)
}

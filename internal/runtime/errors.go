package runtime

import (
	"errors"
	"fmt"

	"github.com/roach88/fusionscope/internal/ir"
)

// ErrorCode categorizes runtime errors.
type ErrorCode string

const (
	// ErrCodeUnknownStream indicates the stream never received an operation.
	ErrCodeUnknownStream ErrorCode = "UNKNOWN_STREAM"

	// ErrCodeEmptyQueue indicates execution was forced on a drained stream.
	ErrCodeEmptyQueue ErrorCode = "EMPTY_QUEUE"

	// ErrCodeInvalidRecord indicates an enqueued record failed validation.
	ErrCodeInvalidRecord ErrorCode = "INVALID_RECORD"
)

// Error is returned by Enqueue and Execute.
type Error struct {
	Code    ErrorCode
	Message string
	Stream  ir.StreamID
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s (stream=%s)", e.Code, e.Message, e.Stream)
}

// IsUnknownStream reports whether err is an UNKNOWN_STREAM error.
func IsUnknownStream(err error) bool {
	return hasCode(err, ErrCodeUnknownStream)
}

// IsEmptyQueue reports whether err is an EMPTY_QUEUE error.
func IsEmptyQueue(err error) bool {
	return hasCode(err, ErrCodeEmptyQueue)
}

// IsInvalidRecord reports whether err is an INVALID_RECORD error.
func IsInvalidRecord(err error) bool {
	return hasCode(err, ErrCodeInvalidRecord)
}

func hasCode(err error, code ErrorCode) bool {
	var re *Error
	if errors.As(err, &re) {
		return re.Code == code
	}
	return false
}

package deepgram

import (
	"errors"
	"fmt"
)

type ErrorStatus string

const (
	ErrorStatusInvalidArgument  ErrorStatus = "invalid_argument"
	ErrorStatusInvalidState     ErrorStatus = "invalid_state"
	ErrorStatusNotConnected     ErrorStatus = "not_connected"
	ErrorStatusTimeout          ErrorStatus = "timeout"
	ErrorStatusWebSocketError   ErrorStatus = "websocket_error"
	ErrorStatusParseError       ErrorStatus = "parse_error"
	ErrorStatusConnectionFailed ErrorStatus = "connection_failed"
	ErrorStatusInterrupted      ErrorStatus = "interrupted"
)

type Error struct {
	Status  ErrorStatus
	Message string
	Code    *int
	Cause   error
}

func (e *Error) Error() string {
	if e.Code != nil {
		return fmt.Sprintf("deepgram: %s (code=%d): %s", e.Status, *e.Code, e.Message)
	}
	return fmt.Sprintf("deepgram: %s: %s", e.Status, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

func NewError(status ErrorStatus, message string) *Error {
	return &Error{
		Status:  status,
		Message: message,
	}
}

func NewErrorWithCode(status ErrorStatus, message string, code int) *Error {
	return &Error{
		Status:  status,
		Message: message,
		Code:    &code,
	}
}

func NewErrorWithCause(status ErrorStatus, message string, cause error) *Error {
	return &Error{
		Status:  status,
		Message: message,
		Cause:   cause,
	}
}

func IsErrorStatus(err error, status ErrorStatus) bool {
	var dgErr *Error
	if errors.As(err, &dgErr) {
		return dgErr.Status == status
	}
	return false
}

var (
	ErrSessionNotConnected     = NewError(ErrorStatusNotConnected, "session is not connected")
	ErrSessionAlreadyConnected = NewError(ErrorStatusInvalidState, "session is already connected")
	ErrSessionNotIdle          = NewError(ErrorStatusInvalidState, "session is not in idle state")
	ErrSessionNotActive        = NewError(ErrorStatusInvalidState, "session is not in active state")
	ErrSessionClosed           = NewError(ErrorStatusInvalidState, "session is closed")
	ErrPoolShutdown            = NewError(ErrorStatusInvalidState, "connection pool is shut down")
	ErrNotFromPool             = NewError(ErrorStatusInvalidState, "session does not belong to this pool")
	ErrAcquireTimeout          = NewError(ErrorStatusTimeout, "failed to acquire a session within the timeout")
)

package core

import "errors"

// Code is a wire-level failure code reported to the initiating connection
// only, never broadcast to the room.
type Code string

const (
	CodeSessionNotFound Code = "SESSION_NOT_FOUND"
	CodeUnauthorized    Code = "UNAUTHORIZED"
	CodeRateLimited     Code = "RATE_LIMIT"
	CodeNotInSession    Code = "NOT_IN_SESSION"
	CodeInvalidData     Code = "INVALID_DATA"
	CodeSendError       Code = "SEND_ERROR"
)

// Error is a failure a client is allowed to see.
type Error struct {
	Code   Code
	Detail string
}

func (e *Error) Error() string { return string(e.Code) + ": " + e.Detail }

func NewError(code Code, detail string) *Error {
	return &Error{Code: code, Detail: detail}
}

// CodeOf extracts the wire code from err, if it carries one.
func CodeOf(err error) (Code, bool) {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Code, true
	}
	return "", false
}

// Registry misuse. These never surface to well-behaved clients.
var (
	ErrNotRegistered = errors.New("connection not registered")
	ErrConflictingID = errors.New("connection id already registered")
)

// ErrNoSession is returned by a SessionStore when the id is unknown.
var ErrNoSession = errors.New("session not found")

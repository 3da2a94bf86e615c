package message

import (
	"errors"
	"fmt"
)

// Well-known failure codes.
const (
	CodeBadRequest     = 400
	CodeUnauthorized   = 401
	CodeForbidden      = 403
	CodeNotFound       = 404
	CodeRequestTimeout = 408
	CodeConflict       = 409
	CodeInternal       = 500
	CodeNotImplemented = 501
)

// ErrUnsupported is returned by Registry users when no decoder matches.
var ErrUnsupported = errors.New("message: unsupported message")

// Error is the failure block carried by a result.
type Error struct {
	Code   int
	Reason string
}

func (e *Error) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("message error %d", e.Code)
	}
	return fmt.Sprintf("message error %d: %s", e.Code, e.Reason)
}

// NewError returns a failure block.
func NewError(code int, reason string) *Error {
	return &Error{Code: code, Reason: reason}
}

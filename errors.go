package model

import (
	"errors"
	"fmt"

	"github.com/decthings/model-go/internal/protocol"
)

// Error is a structured error surfaced by this package's exported API.
type Error struct {
	Op    string    // Operation that failed (e.g., "Run", "CreateModelState")
	Code  ErrorCode // High-level error category
	Msg   string    // Human-readable message
	Inner error      // Wrapped error
}

func (e *Error) Error() string {
	msg := e.Msg
	if msg == "" {
		msg = string(e.Code)
	}
	if e.Op != "" {
		return fmt.Sprintf("model: %s: %s", e.Op, msg)
	}
	return fmt.Sprintf("model: %s", msg)
}

// Unwrap returns the wrapped error for errors.Is/As support.
func (e *Error) Unwrap() error {
	return e.Inner
}

// Is supports errors.Is comparison by error code.
func (e *Error) Is(target error) bool {
	te, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == te.Code
}

// ErrorCode categorizes the failures this package's API can return.
type ErrorCode string

const (
	// CodeException is a generic error surfaced from a model method, wire
	// code "exception" per the RPC protocol.
	CodeException ErrorCode = ErrorCode(protocol.CodeException)
	// CodeInstantiatedModelNotFound is returned for a command referencing
	// an instantiated model id the runner no longer knows about.
	CodeInstantiatedModelNotFound ErrorCode = ErrorCode(protocol.CodeInstantiatedModelNotFound)
	// CodeConnectionFailed covers failures dialing or maintaining the
	// IPC connection to the host.
	CodeConnectionFailed ErrorCode = "connection_failed"
	// CodeProtocolViolation names malformed frames or commands received
	// from the host. Run does not use it: a malformed frame or command ends
	// the session like any other read-loop failure, with
	// CodeConnectionFailed.
	CodeProtocolViolation ErrorCode = "protocol_violation"
	// CodeInvalidConfiguration covers an invalid process environment found
	// by Run, such as IPC_PATH being unset.
	CodeInvalidConfiguration ErrorCode = "invalid_configuration"
)

// NewError creates a new structured error.
func NewError(op string, code ErrorCode, msg string) *Error {
	return &Error{Op: op, Code: code, Msg: msg}
}

// WrapError wraps an existing error with this package's context. If inner is
// already an *Error, its operation is updated but its code is preserved.
func WrapError(op string, code ErrorCode, inner error) *Error {
	if inner == nil {
		return nil
	}
	if me, ok := inner.(*Error); ok {
		return &Error{Op: op, Code: me.Code, Msg: me.Msg, Inner: me.Inner}
	}
	return &Error{Op: op, Code: code, Msg: inner.Error(), Inner: inner}
}

// IsCode reports whether err is an *Error with the given code.
func IsCode(err error, code ErrorCode) bool {
	var me *Error
	if errors.As(err, &me) {
		return me.Code == code
	}
	return false
}

package apperror

import (
	"errors"
	"fmt"
)

// Kind groups errors by how a caller is expected to react.
type Kind string

const (
	KindValidation Kind = "VALIDATION"
	KindNotFound   Kind = "NOT_FOUND"
	KindConflict   Kind = "CONFLICT"
	KindState      Kind = "STATE"
	KindInternal   Kind = "INTERNAL"
)

var (
	ErrValidation = errors.New("validation error")
	ErrNotFound   = errors.New("not found")
	ErrConflict   = errors.New("conflict")
	ErrState      = errors.New("invalid status transition")
)

// Error carries a machine readable code plus the details an operator needs
// to act on a rejected request.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Details map[string]any
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Is lets errors.Is match the kind sentinels.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrValidation:
		return e.Kind == KindValidation
	case ErrNotFound:
		return e.Kind == KindNotFound
	case ErrConflict:
		return e.Kind == KindConflict
	case ErrState:
		return e.Kind == KindState
	}
	return false
}

// With attaches a detail and returns the same error for chaining.
func (e *Error) With(key string, value any) *Error {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

func New(kind Kind, code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

func Wrap(kind Kind, code, message string, err error) *Error {
	return &Error{Kind: kind, Code: code, Message: message, Err: err}
}

func Validation(message string) *Error {
	return New(KindValidation, "VALIDATION_ERROR", message)
}

// ValidationFields reports field -> failed rule pairs.
func ValidationFields(fields map[string]string) *Error {
	return Validation("invalid input").With("fields", fields)
}

func NotFound(entity string, id any) *Error {
	return New(KindNotFound, "NOT_FOUND", entity+" not found").With("entity", entity).With("id", id)
}

func Conflict(code, message string) *Error {
	return New(KindConflict, code, message)
}

// State reports a rejected transition with both sides of it.
func State(current, attempted string) *Error {
	return New(KindState, "INVALID_STATUS_TRANSITION",
		fmt.Sprintf("cannot move from %s to %s", current, attempted)).
		With("current", current).
		With("attempted", attempted)
}

func As(err error) (*Error, bool) {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

func KindOf(err error) Kind {
	if appErr, ok := As(err); ok {
		return appErr.Kind
	}
	return KindInternal
}

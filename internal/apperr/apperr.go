// Package apperr classifies failures surfaced to the command layer.
//
// Kinds map 1:1 to user-facing rejections. None of them is fatal: the
// caller renders the message and the process keeps serving other
// conversations.
package apperr

import (
	"errors"
	"fmt"
)

// Kind is a machine-readable failure class.
type Kind string

const (
	KindUnknown            Kind = ""
	KindNotFound           Kind = "not_found"
	KindInvalidOperation   Kind = "invalid_operation"
	KindInvalidInput       Kind = "invalid_input"
	KindUpstreamFailure    Kind = "upstream_failure"
	KindPersistenceFailure Kind = "persistence_failure"
	KindBusy               Kind = "busy"
)

// Error carries a kind and a message safe to show to chat users.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// ErrorKind lets KindOf classify *Error without a type switch at call sites.
func (e *Error) ErrorKind() Kind { return e.Kind }

// Classified is implemented by errors from other packages that know their kind
// (for example provider.UpstreamError).
type Classified interface {
	error
	ErrorKind() Kind
}

// KindOf returns the kind of the first classified error in err's chain.
func KindOf(err error) Kind {
	var c Classified
	if errors.As(err, &c) {
		return c.ErrorKind()
	}
	return KindUnknown
}

// Is reports whether err is classified as k.
func Is(err error, k Kind) bool {
	return err != nil && KindOf(err) == k
}

func newf(k Kind, format string, args ...any) *Error {
	return &Error{Kind: k, Message: fmt.Sprintf(format, args...)}
}

func NotFound(format string, args ...any) *Error { return newf(KindNotFound, format, args...) }

func InvalidOperation(format string, args ...any) *Error {
	return newf(KindInvalidOperation, format, args...)
}

func InvalidInput(format string, args ...any) *Error { return newf(KindInvalidInput, format, args...) }

func Busy(format string, args ...any) *Error { return newf(KindBusy, format, args...) }

// Wrap attaches a kind and message to an underlying error.
func Wrap(k Kind, err error, message string) *Error {
	return &Error{Kind: k, Message: message, Err: err}
}

// Package errs defines the error taxonomy shared by the index, queue, batch
// and facade packages.
//
// Every failure is an *Error carrying a Kind. errors.Is matches on Kind, so
// callers can test against the exported sentinels:
//
//	if errors.Is(err, errs.ErrQueueOverflow) { ... }
//
// Pos is the 0-based batch position for element-level failures and -1
// otherwise.
package errs

import (
	"fmt"
	"strings"
)

// Kind categorizes the error.
type Kind string

const (
	KindIndexLoad            Kind = "index_load"
	KindConfig               Kind = "config"
	KindUnsupportedBatchType Kind = "unsupported_batch_type"
	KindElementNotARecord    Kind = "element_not_a_record"
	KindMissingSeqKey        Kind = "missing_seq_key"
	KindSeqNotString         Kind = "seq_not_string"
	KindQueueOverflow        Kind = "queue_overflow"
	KindNotFound             Kind = "not_found"
	KindInvalidRange         Kind = "invalid_range"
	KindClosed               Kind = "closed"
)

// Error is the structured error type used throughout the module.
type Error struct {
	Cause  error
	Kind   Kind
	Detail string
	Pos    int
}

// Sentinels for errors.Is. They carry no detail and match any *Error of the
// same Kind.
var (
	ErrIndexLoad            = &Error{Kind: KindIndexLoad, Pos: -1}
	ErrConfig               = &Error{Kind: KindConfig, Pos: -1}
	ErrUnsupportedBatchType = &Error{Kind: KindUnsupportedBatchType, Pos: -1}
	ErrElementNotARecord    = &Error{Kind: KindElementNotARecord, Pos: -1}
	ErrMissingSeqKey        = &Error{Kind: KindMissingSeqKey, Pos: -1}
	ErrSeqNotString         = &Error{Kind: KindSeqNotString, Pos: -1}
	ErrQueueOverflow        = &Error{Kind: KindQueueOverflow, Pos: -1}
	ErrNotFound             = &Error{Kind: KindNotFound, Pos: -1}
	ErrInvalidRange         = &Error{Kind: KindInvalidRange, Pos: -1}
	ErrClosed               = &Error{Kind: KindClosed, Pos: -1}
)

// Error implements the error interface.
func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Kind))
	if e.Pos >= 0 {
		fmt.Fprintf(&b, " at element %d", e.Pos)
	}
	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error { return e.Cause }

// Is reports whether target is an *Error of the same Kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// New creates an error of the given kind that is not tied to a batch element.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Detail: fmt.Sprintf(format, args...), Pos: -1}
}

// Wrap creates an error of the given kind around cause.
func Wrap(kind Kind, cause error, format string, args ...any) *Error {
	return &Error{Kind: kind, Detail: fmt.Sprintf(format, args...), Cause: cause, Pos: -1}
}

// AtElement creates an element-level error for batch position pos.
func AtElement(kind Kind, pos int, format string, args ...any) *Error {
	return &Error{Kind: kind, Detail: fmt.Sprintf(format, args...), Pos: pos}
}

// KindOf returns the Kind of err if it is (or wraps) an *Error, else "".
func KindOf(err error) Kind {
	for err != nil {
		if e, ok := err.(*Error); ok {
			return e.Kind
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return ""
		}
		err = u.Unwrap()
	}
	return ""
}

package flin

import (
	"errors"
	"fmt"

	"github.com/skshohagmiah/flinbase/internal/metrics"
)

// Validation error kinds. Every client-side failure wraps exactly one of
// these, so callers can test with errors.Is.
var (
	ErrMissingValue  = errors.New("missing value")
	ErrWrongType     = errors.New("wrong argument type")
	ErrInvalidEnum   = errors.New("invalid enum value")
	ErrInvalidLimit  = errors.New("invalid limit")
	ErrNotPositive   = errors.New("not a positive integer")
	ErrMissingFilter = errors.New("missing filter query")
)

var kindNames = map[error]string{
	ErrMissingValue:  "missing_value",
	ErrWrongType:     "wrong_type",
	ErrInvalidEnum:   "invalid_enum",
	ErrInvalidLimit:  "invalid_limit",
	ErrNotPositive:   "not_positive",
	ErrMissingFilter: "missing_filter",
}

// Error is a client-side validation failure. It is returned before any
// request is sent.
type Error struct {
	Op    string // modifier or operation, e.g. "limit", "update"
	Param string // offending argument
	Kind  error
	Msg   string
}

func (e *Error) Error() string {
	s := "flin: " + e.Op
	if e.Param != "" {
		s += ": " + e.Param
	}
	s += ": " + e.Kind.Error()
	if e.Msg != "" {
		s += ": " + e.Msg
	}
	return s
}

func (e *Error) Unwrap() error {
	return e.Kind
}

func newError(op, param string, kind error, format string, args ...interface{}) *Error {
	name, ok := kindNames[kind]
	if !ok {
		name = "unknown"
	}
	metrics.ValidationErrorsTotal.WithLabelValues(op, name).Inc()

	return &Error{
		Op:    op,
		Param: param,
		Kind:  kind,
		Msg:   fmt.Sprintf(format, args...),
	}
}

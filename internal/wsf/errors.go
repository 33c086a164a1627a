// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package wsf

import (
	"errors"
	"fmt"
)

// ErrDelayedResult signals that a result is not ready yet. The caller
// should invoke the plugin again later; it is not a failure.
var ErrDelayedResult = errors.New("result not ready yet, try again later")

// UserError is caused by the end user's input. Its message is shown to the
// user verbatim and retrying with the same input will not help.
type UserError struct {
	Msg string
}

func (e *UserError) Error() string { return e.Msg }

// Userf returns a UserError with a formatted message.
func Userf(format string, args ...any) error {
	return &UserError{Msg: fmt.Sprintf(format, args...)}
}

// ModelError is a deployment, configuration, or upstream data fault. Msg
// is the full message; Err is the wrapped cause, if any.
type ModelError struct {
	Msg string
	Err error
}

func (e *ModelError) Error() string {
	if e.Msg == "" && e.Err != nil {
		return e.Err.Error()
	}
	return e.Msg
}

func (e *ModelError) Unwrap() error { return e.Err }

// Modelf returns a ModelError with a formatted message. A %w verb in
// format is honoured.
func Modelf(format string, args ...any) error {
	wrapped := fmt.Errorf(format, args...)
	return &ModelError{Msg: wrapped.Error(), Err: errors.Unwrap(wrapped)}
}

// ResultTooLargeError rejects a result that exceeds a size ceiling. The user
// can fix it by narrowing the search, so it counts as a user error.
type ResultTooLargeError struct {
	Msg  string
	Size int64
}

func (e *ResultTooLargeError) Error() string { return e.Msg }

// FieldError reports that a required field could not be extracted from a
// line of tool output.
type FieldError struct {
	Field string
	Line  string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("could not find %s in %q", e.Field, e.Line)
}

// IsUserError reports whether err (or anything it wraps) was caused by
// user input, including oversized results.
func IsUserError(err error) bool {
	var ue *UserError
	var tl *ResultTooLargeError
	return errors.As(err, &ue) || errors.As(err, &tl)
}

// IsResultTooLarge reports whether err rejects an oversized result.
func IsResultTooLarge(err error) bool {
	var tl *ResultTooLargeError
	return errors.As(err, &tl)
}

// IsDelayed reports whether err is the not-ready-yet signal.
func IsDelayed(err error) bool {
	return errors.Is(err, ErrDelayedResult)
}

// MissingField returns a ModelError wrapping a FieldError for field in line.
func MissingField(field, line string) error {
	fe := &FieldError{Field: field, Line: line}
	return &ModelError{Msg: fe.Error(), Err: fe}
}

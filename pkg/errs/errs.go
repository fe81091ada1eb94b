// pkg/errs/errs.go
package errs

import (
	"errors"
	"fmt"
)

// Error codes recognized across the resolution and deployment pipeline.
// Automated callers branch on the code; Msg carries the identifying key
// (tenant, subtenant, stack, API name) for the operator.
const (
	ConfigNotFound     = "config not found"
	ConfigInvalid      = "config invalid"
	UnknownTenant      = "unknown tenant"
	UnknownSubtenant   = "unknown subtenant"
	MissingStackOutput = "missing stack output"
	StackNotFound      = "stack not found"
	StackHasNoOutputs  = "stack has no outputs"
	NullArgument       = "null argument"
	PayloadTooLarge    = "payload too large"
	Internal           = "internal error"
)

// Error carries a code, a human-readable message and an optional cause.
type Error struct {
	Code string
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	switch {
	case e.Msg != "" && e.Err != nil:
		return e.Msg + ": " + e.Err.Error()
	case e.Msg != "":
		return e.Msg
	case e.Err != nil:
		return e.Err.Error()
	}
	return "<" + e.Code + ">"
}

func (e *Error) Unwrap() error { return e.Err }

// New builds an Error with a formatted message.
func New(code, format string, args ...any) *Error {
	return &Error{Code: code, Msg: fmt.Sprintf(format, args...)}
}

// Wrap builds an Error around a cause, keeping the cause's code if the
// new one is empty.
func Wrap(err error, code, format string, args ...any) *Error {
	if code == "" {
		code = Code(err)
	}
	return &Error{Code: code, Msg: fmt.Sprintf(format, args...), Err: err}
}

// Code returns the code of the first *Error in err's chain, or Internal.
func Code(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) && e.Code != "" {
		return e.Code
	}
	return Internal
}

// Is reports whether err's chain contains an Error with the given code.
func Is(err error, code string) bool {
	for err != nil {
		if e, ok := err.(*Error); ok && e.Code == code {
			return true
		}
		err = errors.Unwrap(err)
	}
	return false
}

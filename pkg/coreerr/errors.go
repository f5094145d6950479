// Package coreerr defines the closed error-kind vocabulary surfaced by the analysis core.
package coreerr

import (
	"errors"
	"fmt"
)

// Kind is one of the closed set of failure kinds the core surfaces to callers.
type Kind string

const (
	InvalidPosition Kind = "invalid_position"
	EngineFailed    Kind = "engine_failed"
	EngineTimeout   Kind = "engine_timeout"
	NNUEUnavailable Kind = "nnue_unavailable"
	Cancelled       Kind = "cancelled"
	InternalError   Kind = "internal_error"
)

// Sentinel errors for errors.Is comparisons. Wrap with Wrap to attach a message and cause.
var (
	ErrInvalidPosition = errors.New(string(InvalidPosition))
	ErrEngineFailed    = errors.New(string(EngineFailed))
	ErrEngineTimeout   = errors.New(string(EngineTimeout))
	ErrNNUEUnavailable = errors.New(string(NNUEUnavailable))
	ErrCancelled       = errors.New(string(Cancelled))
	ErrInternal        = errors.New(string(InternalError))
)

func sentinel(k Kind) error {
	switch k {
	case InvalidPosition:
		return ErrInvalidPosition
	case EngineFailed:
		return ErrEngineFailed
	case EngineTimeout:
		return ErrEngineTimeout
	case NNUEUnavailable:
		return ErrNNUEUnavailable
	case Cancelled:
		return ErrCancelled
	default:
		return ErrInternal
	}
}

// Error is a typed core error: a closed-vocabulary kind, a short message, and an optional cause.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	if e.Cause != nil {
		return e.Cause
	}
	return sentinel(e.Kind)
}

// Is allows errors.Is(err, coreerr.ErrEngineFailed) to match regardless of message/cause.
func (e *Error) Is(target error) bool {
	return target == sentinel(e.Kind)
}

// Wrap constructs a typed Error of the given kind, wrapping cause (which may be nil).
func Wrap(k Kind, message string, cause error) error {
	return &Error{Kind: k, Message: message, Cause: cause}
}

// Wrapf is Wrap with a formatted message.
func Wrapf(k Kind, cause error, format string, args ...any) error {
	return &Error{Kind: k, Message: fmt.Sprintf(format, args...), Cause: cause}
}

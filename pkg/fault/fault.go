package fault

import (
	"errors"
	"fmt"
)

// Kind classifies an error so callers can branch on the category
// instead of matching message strings.
type Kind int

const (
	// Unknown is the zero value for errors that carry no kind.
	Unknown Kind = iota

	// Validation marks malformed or missing caller input.
	Validation

	// NotReady marks an operation attempted before its preconditions
	// were satisfied (e.g. submitting before an action was selected).
	NotReady

	// NotFound marks a missing resource or a lookup miss.
	NotFound

	// External marks a failure in a downstream system (CRM, policy
	// management, LLM backend).
	External
)

func (k Kind) String() string {
	switch k {
	case Validation:
		return "VALIDATION"
	case NotReady:
		return "NOT_READY"
	case NotFound:
		return "NOT_FOUND"
	case External:
		return "EXTERNAL"
	default:
		return "UNKNOWN"
	}
}

// Error is a kinded error. The message is safe to surface to callers.
type Error struct {
	kind Kind
	msg  string
	err  error
}

func (e *Error) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %v", e.msg, e.err)
	}
	return e.msg
}

func (e *Error) Unwrap() error {
	return e.err
}

// Message returns the caller-facing text without the wrapped cause.
func (e *Error) Message() string {
	return e.msg
}

// New creates a kinded error with a formatted message.
func New(kind Kind, format string, args ...interface{}) error {
	return &Error{kind: kind, msg: fmt.Sprintf(format, args...)}
}

// Wrap attaches a kind and message to an underlying cause.
func Wrap(kind Kind, err error, format string, args ...interface{}) error {
	return &Error{kind: kind, msg: fmt.Sprintf(format, args...), err: err}
}

// KindOf extracts the kind from err or any error it wraps.
// Returns Unknown for nil and unkinded errors.
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.kind
	}
	return Unknown
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// MessageOf returns the caller-facing message of a kinded error,
// or err.Error() when the error carries no kind.
func MessageOf(err error) string {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.msg
	}
	return err.Error()
}

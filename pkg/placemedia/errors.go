package placemedia

import (
	"errors"
	"fmt"
)

// Kind is a stable machine-readable error classification carried to
// callers alongside the human message.
type Kind string

// Error kind constants (typed).
const (
	KindInvalidArgument   Kind = "invalid_argument"
	KindPermissionDenied  Kind = "permission_denied"
	KindNotFound          Kind = "not_found"
	KindResourceExhausted Kind = "resource_exhausted"
	KindInternal          Kind = "internal"
)

// Sentinel errors raised by repositories.
var (
	// ErrMediaNotFound indicates a media row was not found
	ErrMediaNotFound = errors.New("media not found")

	// ErrPostNotFound indicates a post was not found
	ErrPostNotFound = errors.New("post not found")
)

// Error is a classified domain error.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// InvalidArgument reports malformed or policy-violating input.
func InvalidArgument(format string, args ...interface{}) error {
	return &Error{Kind: KindInvalidArgument, Message: fmt.Sprintf(format, args...)}
}

// PermissionDenied reports an ownership failure. Missing and not-owned
// resources are reported identically to avoid leaking existence.
func PermissionDenied(format string, args ...interface{}) error {
	return &Error{Kind: KindPermissionDenied, Message: fmt.Sprintf(format, args...)}
}

// NotFound reports an absent entity.
func NotFound(format string, args ...interface{}) error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

// Internal wraps a backend failure.
func Internal(msg string, err error) error {
	return &Error{Kind: KindInternal, Message: msg, Err: err}
}

// LimitError reports a ceiling violation with both the limit and the
// actual value so clients can self-correct.
type LimitError struct {
	Resource string
	Limit    int64
	Actual   int64
}

func (e *LimitError) Error() string {
	return fmt.Sprintf("resource_exhausted: %s limit exceeded (limit %d, actual %d)", e.Resource, e.Limit, e.Actual)
}

// KindOf classifies any error returned by this package.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var le *LimitError
	if errors.As(err, &le) {
		return KindResourceExhausted
	}
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	if errors.Is(err, ErrPostNotFound) || errors.Is(err, ErrMediaNotFound) {
		return KindNotFound
	}
	return KindInternal
}

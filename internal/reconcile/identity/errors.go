// Package identity is the boundary to the external identity service.
// Provider failures are normalized into a closed set of kinds so the
// reconciliation logic never depends on provider wording.
package identity

import (
	"context"
	"errors"
	"fmt"
)

// ErrorKind is the normalized failure taxonomy.
type ErrorKind string

const (
	// KindInvalidCredentials means an account exists but rejected the credential.
	KindInvalidCredentials ErrorKind = "invalid_credentials"

	// KindNotFound means no account exists for the email.
	KindNotFound ErrorKind = "not_found"

	// KindCollision means account creation failed because the email is taken.
	KindCollision ErrorKind = "collision"

	// KindRateLimited means the provider is throttling us.
	KindRateLimited ErrorKind = "rate_limited"

	// KindUnavailable covers timeouts, transport failures and 5xx responses.
	KindUnavailable ErrorKind = "unavailable"

	// KindOther is anything the provider did not let us classify.
	KindOther ErrorKind = "other"
)

// Error wraps a provider failure with its normalized kind.
type Error struct {
	Kind    ErrorKind
	Op      string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("identity %s [%s]: %s: %v", e.Op, e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("identity %s [%s]: %s", e.Op, e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewError creates a normalized identity error.
func NewError(kind ErrorKind, op, message string, err error) *Error {
	return &Error{Kind: kind, Op: op, Message: message, Err: err}
}

// KindOf extracts the kind from err. Context deadline and cancellation map to
// KindUnavailable; anything unrecognised is KindOther. Returns "" for nil.
func KindOf(err error) ErrorKind {
	if err == nil {
		return ""
	}
	var ie *Error
	if errors.As(err, &ie) {
		return ie.Kind
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return KindUnavailable
	}
	return KindOther
}

// Is reports whether err carries the given kind.
func Is(err error, kind ErrorKind) bool {
	return KindOf(err) == kind
}

// Package domainerrors carries coded errors from services to transports.
//
// Services return *Error values so handlers can branch on a stable,
// machine-readable Code while still showing a human-readable Message.
// Infrastructure facts (not found, conflict, unavailable) stay in
// pkg/platform/sentinel and are translated here at the service boundary.
package domainerrors

import (
	"errors"
	"fmt"
)

// Code is the machine-readable error kind surfaced to callers.
type Code string

const (
	// Reconciliation outcomes.
	CodeNoAccount            Code = "no_account"
	CodeWrongPassword        Code = "wrong_password"
	CodeIdentityMissing      Code = "identity_missing"
	CodeSyncPasswordRequired Code = "sync_password_required"
	CodeRateLimited          Code = "rate_limited"
	CodeCollision            Code = "collision"
	CodeAlreadyRegistered    Code = "already_registered"
	CodeValidation           Code = "validation_error"
	CodeStoreUnavailable     Code = "store_unavailable"

	// Generic codes.
	CodeBadRequest   Code = "bad_request"
	CodeNotFound     Code = "not_found"
	CodeConflict     Code = "conflict"
	CodeInvalidState Code = "invalid_state"
	CodeUnauthorized Code = "unauthorized"
	CodeInternal     Code = "internal_error"
)

// Error is a coded domain error.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New builds a coded error without an underlying cause.
func New(code Code, msg string) error {
	return &Error{Code: code, Message: msg}
}

// Wrap attaches a code and message to an underlying cause.
func Wrap(err error, code Code, msg string) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Message: msg, Err: err}
}

// HasCode reports whether any *Error in err's chain carries code.
func HasCode(err error, code Code) bool {
	var de *Error
	for err != nil {
		if !errors.As(err, &de) {
			return false
		}
		if de.Code == code {
			return true
		}
		err = de.Err
	}
	return false
}

// CodeOf returns the outermost code in err's chain, or CodeInternal.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// MessageOf returns the outermost human-readable message in err's chain.
func MessageOf(err error) string {
	var de *Error
	if errors.As(err, &de) {
		return de.Message
	}
	if err == nil {
		return ""
	}
	return err.Error()
}

package models

import (
	dErrors "storefront/pkg/domain-errors"
)

// RegistrationOutcome distinguishes a fully established signup from one whose
// identity side is left for a later login to reconcile.
type RegistrationOutcome string

const (
	RegistrationAuthenticated RegistrationOutcome = "authenticated"
	RegistrationDeferred      RegistrationOutcome = "deferred"
)

// Deferred reasons. ReasonIdentityRateLimited and ReasonSessionUnavailable
// are in addition to the two reasons the signup flow always had; UI callers
// must treat any unknown reason like identity_creation_failed.
const (
	ReasonExistingIdentityWrongPassword = "existing_identity_wrong_password"
	ReasonIdentityCreationFailed        = "identity_creation_failed"
	ReasonIdentityRateLimited           = "identity_rate_limited"
	ReasonSessionUnavailable            = "session_unavailable"
)

// RegistrationResult is either Authenticated{Session, Profile} or
// Deferred{AccountCreated, RequiresManualLogin, Reason}. Reason is one of
// existing_identity_wrong_password, identity_creation_failed,
// identity_rate_limited (the provider throttled the first attempt, so no retry
// was made) or session_unavailable (the account was created but signing in
// failed).
type RegistrationResult struct {
	Outcome RegistrationOutcome
	Profile *ProfileRecord

	// Authenticated
	Session *Session

	// Deferred
	AccountCreated      bool
	RequiresManualLogin bool
	Reason              string
}

// Authenticated builds the success outcome.
func Authenticated(session *Session, profile *ProfileRecord) *RegistrationResult {
	return &RegistrationResult{
		Outcome:        RegistrationAuthenticated,
		Session:        session,
		Profile:        profile,
		AccountCreated: true,
	}
}

// Deferred builds the profile-only outcome.
func Deferred(profile *ProfileRecord, reason string) *RegistrationResult {
	return &RegistrationResult{
		Outcome:             RegistrationDeferred,
		Profile:             profile,
		AccountCreated:      true,
		RequiresManualLogin: true,
		Reason:              reason,
	}
}

// SyncPasswordResult is either a Session (a new identity was bound to the
// desired password) or RequiresRecoveryFlow with the recovery token. ProfileID
// is the diagnosed profile the identity belongs to.
type SyncPasswordResult struct {
	ProfileID            string
	Session              *Session
	RequiresRecoveryFlow bool
	Recovery             *RecoveryToken
}

// SyncPasswordRequiredError is returned by login when both stores hold a
// record but the credential was rejected. It carries the attempted
// credentials so the caller can feed them to repairSyncPassword.
type SyncPasswordRequiredError struct {
	Email    string
	Password string
}

func (e *SyncPasswordRequiredError) Error() string {
	return string(dErrors.CodeSyncPasswordRequired) + ": " + syncPasswordRequiredMessage
}

const syncPasswordRequiredMessage = "account exists in both stores but the credential was rejected; password sync required"

// Unwrap exposes the coded form so dErrors.HasCode and httputil.WriteError see it.
func (e *SyncPasswordRequiredError) Unwrap() error {
	return &dErrors.Error{Code: dErrors.CodeSyncPasswordRequired, Message: syncPasswordRequiredMessage}
}

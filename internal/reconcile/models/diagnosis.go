package models

// DiagnosticState records which of the two stores hold a record for an email.
// It is derived on demand and never persisted.
type DiagnosticState string

const (
	StateAbsent       DiagnosticState = "absent"
	StateProfileOnly  DiagnosticState = "profile_only"
	StateIdentityOnly DiagnosticState = "identity_only"
	StateBoth         DiagnosticState = "both"
)

// StateFrom combines the two presence findings into exactly one state.
func StateFrom(hasProfile, hasIdentity bool) DiagnosticState {
	switch {
	case hasProfile && hasIdentity:
		return StateBoth
	case hasProfile:
		return StateProfileOnly
	case hasIdentity:
		return StateIdentityOnly
	default:
		return StateAbsent
	}
}

func (s DiagnosticState) String() string {
	return string(s)
}

// IsValid checks if the state is one of the four defined states.
func (s DiagnosticState) IsValid() bool {
	switch s {
	case StateAbsent, StateProfileOnly, StateIdentityOnly, StateBoth:
		return true
	}
	return false
}

// Diagnosis is the snapshot a reconciliation decision is taken on.
// Profile is set whenever the profile store holds a record.
type Diagnosis struct {
	Email   string
	State   DiagnosticState
	Profile *ProfileRecord
}

// ThrottleStatus is the RateLimit Probe verdict.
type ThrottleStatus string

const (
	ThrottleOK         ThrottleStatus = "ok"
	ThrottleThrottled  ThrottleStatus = "throttled"
	ThrottleStoreError ThrottleStatus = "store_error"
)

package audit

import (
	"context"
	"time"
)

// EventCategory classifies audit events by their primary purpose.
// This enables different retention policies and routing per category.
type EventCategory string

const (
	// CategoryCompliance covers changes to customer records in either store.
	CategoryCompliance EventCategory = "compliance"

	// CategorySecurity covers failed logins, throttling and recovery requests.
	CategorySecurity EventCategory = "security"

	// CategoryOperations covers routine successful activity.
	CategoryOperations EventCategory = "operations"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	Category  EventCategory `json:"category"`
	Timestamp time.Time     `json:"timestamp"`
	Action    string        `json:"action"`
	Email     string        `json:"email,omitempty"`
	ProfileID string        `json:"profile_id,omitempty"`
	// IdentityID is the external identity account id, when known.
	IdentityID string `json:"identity_id,omitempty"`
	// State is the diagnostic snapshot the decision was taken on.
	State     string `json:"state,omitempty"`
	Decision  string `json:"decision,omitempty"`
	Reason    string `json:"reason,omitempty"`
	RequestID string `json:"request_id,omitempty"`
	ClientIP  string `json:"client_ip,omitempty"`
	UserAgent string `json:"user_agent,omitempty"`
}

// Store persists or forwards audit events.
type Store interface {
	Append(ctx context.Context, event Event) error
}

type AuditEvent string

const (
	EventLoginSucceeded          AuditEvent = "login_succeeded"
	EventLoginFailed             AuditEvent = "login_failed"
	EventRegistrationCompleted   AuditEvent = "registration_completed"
	EventRegistrationDeferred    AuditEvent = "registration_deferred"
	EventIdentityRepaired        AuditEvent = "identity_repaired"
	EventProfileRepaired         AuditEvent = "profile_repaired"
	EventPasswordSynced          AuditEvent = "password_synced"
	EventPasswordRecoveryStarted AuditEvent = "password_recovery_started"
	EventIdentityThrottled       AuditEvent = "identity_throttled"
	EventDiagnosed               AuditEvent = "diagnosed"
)

var eventCategories = map[AuditEvent]EventCategory{
	EventRegistrationCompleted: CategoryCompliance,
	EventRegistrationDeferred:  CategoryCompliance,
	EventIdentityRepaired:      CategoryCompliance,
	EventProfileRepaired:       CategoryCompliance,
	EventPasswordSynced:        CategoryCompliance,

	EventLoginFailed:             CategorySecurity,
	EventPasswordRecoveryStarted: CategorySecurity,
	EventIdentityThrottled:       CategorySecurity,

	EventLoginSucceeded: CategoryOperations,
	EventDiagnosed:      CategoryOperations,
}

// Category returns the EventCategory for this audit event.
// Unknown events default to CategoryOperations.
func (e AuditEvent) Category() EventCategory {
	if cat, ok := eventCategories[e]; ok {
		return cat
	}
	return CategoryOperations
}

// Package ports defines the interfaces the reconciliation service consumes.
// Stores return pkg/platform/sentinel errors; the identity boundary returns
// *identity.Error so callers can branch on identity.KindOf.
package ports

//go:generate mockgen -source=ports.go -destination=mocks/mocks.go -package=mocks

import (
	"context"
	"log/slog"
	"time"

	"storefront/internal/reconcile/models"
	"storefront/pkg/attrs"
	"storefront/pkg/platform/audit"
	"storefront/pkg/requestcontext"
)

// ProfileStore is the business-data document store keyed by email.
type ProfileStore interface {
	// FindByEmail returns sentinel.ErrNotFound when no profile holds email.
	FindByEmail(ctx context.Context, email string) (*models.ProfileRecord, error)

	// Create returns sentinel.ErrConflict when the email is already taken.
	Create(ctx context.Context, record *models.ProfileRecord) (*models.ProfileRecord, error)

	// Update applies patch to the profile with the given id.
	Update(ctx context.Context, id string, patch models.ProfilePatch) (*models.ProfileRecord, error)

	// Probe performs a cheap non-credential read. A throttled store returns
	// sentinel.ErrRateLimited.
	Probe(ctx context.Context) error
}

// IdentityStore is the external credential and session service.
type IdentityStore interface {
	CreateSession(ctx context.Context, email, password string) (*models.Session, error)
	CreateAccount(ctx context.Context, id, email, password, displayName string) (*models.IdentityAccount, error)
	StartRecovery(ctx context.Context, email, callbackURL string) (*models.RecoveryToken, error)
}

// ExistenceChecker is an optional provider-native lookup. When present the
// classifier uses it instead of spending a credential attempt.
type ExistenceChecker interface {
	AccountExists(ctx context.Context, email string) (bool, error)
}

// LinkStore records which identity account was created for which profile.
type LinkStore interface {
	// Save replaces any link already recorded for the profile.
	Save(ctx context.Context, link models.IdentityLink) error
	// FindByProfileID returns sentinel.ErrNotFound when no link exists.
	FindByProfileID(ctx context.Context, profileID string) (*models.IdentityLink, error)
}

// ThrottleLatch remembers that the identity provider throttled us so later
// requests stop submitting credentials until it expires.
type ThrottleLatch interface {
	Trip(ctx context.Context, ttl time.Duration) error
	Tripped(ctx context.Context) (bool, error)
}

// AuditPublisher emits audit events for reconciliation decisions.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// LogAudit logs an audit event to the structured logger and forwards it to
// the publisher when one is configured. Known keys in attrList (email,
// profile_id, identity_id, state, decision, reason) populate the event.
func LogAudit(ctx context.Context, logger *slog.Logger, publisher AuditPublisher, event audit.AuditEvent, attrList ...any) {
	requestID := requestcontext.RequestID(ctx)
	if requestID != "" {
		attrList = append(attrList, "request_id", requestID)
	}

	args := append(attrList, "event", string(event), "log_type", "audit")
	if logger != nil {
		logger.InfoContext(ctx, string(event), args...)
	}

	if publisher == nil {
		return
	}
	err := publisher.Emit(ctx, audit.Event{
		Action:     string(event),
		Email:      attrs.ExtractString(attrList, "email"),
		ProfileID:  attrs.ExtractString(attrList, "profile_id"),
		IdentityID: attrs.ExtractString(attrList, "identity_id"),
		State:      attrs.ExtractString(attrList, "state"),
		Decision:   attrs.ExtractString(attrList, "decision"),
		Reason:     attrs.FirstString(attrList, "reason", "error_code"),
		RequestID:  requestID,
	})
	if err != nil && logger != nil {
		logger.WarnContext(ctx, "failed to emit audit event", "event", string(event), "error", err)
	}
}

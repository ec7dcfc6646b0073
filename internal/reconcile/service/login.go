package service

import (
	"context"
	"errors"

	"storefront/internal/reconcile/identity"
	"storefront/internal/reconcile/models"
	dErrors "storefront/pkg/domain-errors"
	"storefront/pkg/platform/audit"
	"storefront/pkg/platform/sentinel"
)

// Login checks the credential against the identity service. A failure is
// diagnosed into an actionable error: no_account, identity_missing,
// wrong_password or sync_password_required. Login never writes to either
// store; drift found here is repaired only through the explicit repair calls.
func (s *Service) Login(ctx context.Context, emailAddr, password string) (*models.Session, error) {
	ctx, span := s.startSpan(ctx, "reconcile.Login", emailAddr)
	emailAddr = s.normalizeEmail(emailAddr)

	session, state, err := s.login(ctx, emailAddr, password)
	endSpan(span, err)

	if err != nil {
		code := string(dErrors.CodeOf(err))
		s.metrics.IncrementLogin(code)
		s.logAudit(ctx, audit.EventLoginFailed,
			"email", emailAddr,
			"state", string(state),
			"error_code", code,
		)
		return nil, err
	}

	s.metrics.IncrementLogin("success")
	s.logAudit(ctx, audit.EventLoginSucceeded,
		"email", emailAddr,
		"identity_id", session.AccountID,
	)
	return session, nil
}

func (s *Service) login(ctx context.Context, emailAddr, password string) (*models.Session, models.DiagnosticState, error) {
	if err := models.ValidateEmail(emailAddr); err != nil {
		return nil, "", err
	}
	if password == "" {
		return nil, "", dErrors.New(dErrors.CodeValidation, "password is required")
	}

	switch s.CheckThrottled(ctx) {
	case models.ThrottleThrottled:
		return nil, "", dErrors.New(dErrors.CodeRateLimited, "too many sign-in attempts; try again later")
	case models.ThrottleStoreError:
		return nil, "", dErrors.New(dErrors.CodeStoreUnavailable, "profile store unavailable")
	}

	session, err := s.createSession(ctx, emailAddr, password)
	if err == nil {
		return session, "", nil
	}
	switch identity.KindOf(err) {
	case identity.KindRateLimited, identity.KindUnavailable:
		return nil, "", identityFailure(err, "sign-in failed")
	}

	diag, err := s.diagnoseWith(ctx, emailAddr, hintFromLoginFailure(err))
	if err != nil {
		return nil, "", err
	}

	switch diag.State {
	case models.StateAbsent:
		return nil, diag.State, dErrors.New(dErrors.CodeNoAccount, "no account for this email")
	case models.StateProfileOnly:
		// Provisioning a credential from a failed login would reveal which
		// emails have profiles; this needs an explicit repair call.
		return nil, diag.State, dErrors.New(dErrors.CodeIdentityMissing, "profile exists but the credential store has no account")
	case models.StateIdentityOnly:
		return nil, diag.State, dErrors.New(dErrors.CodeWrongPassword, "incorrect password")
	default:
		return nil, diag.State, &models.SyncPasswordRequiredError{Email: emailAddr, Password: password}
	}
}

// FindProfile loads the business profile that goes with a session. A missing
// profile returns not_found so the caller can offer repairCreateProfile.
func (s *Service) FindProfile(ctx context.Context, emailAddr string) (*models.ProfileRecord, error) {
	emailAddr = s.normalizeEmail(emailAddr)
	profile, err := s.profiles.FindByEmail(ctx, emailAddr)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.New(dErrors.CodeNotFound, "no profile for this account")
	}
	if err != nil {
		return nil, profileStoreFailure(err, "profile store unavailable")
	}
	return profile, nil
}

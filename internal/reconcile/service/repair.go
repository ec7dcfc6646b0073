package service

import (
	"context"
	"fmt"

	"storefront/internal/reconcile/identity"
	"storefront/internal/reconcile/models"
	dErrors "storefront/pkg/domain-errors"
	"storefront/pkg/platform/audit"
	"storefront/pkg/requestcontext"
)

const (
	repairCreateIdentity = "create_identity"
	repairCreateProfile  = "create_profile"
	repairSyncPassword   = "sync_password"
)

func invalidState(repair string, want, got models.DiagnosticState) error {
	return dErrors.New(dErrors.CodeInvalidState,
		fmt.Sprintf("%s requires state %s, found %s", repair, want, got))
}

// RepairCreateIdentity provisions the missing identity account for a
// profile-only customer. A link recorded for the profile points at an account
// the provider no longer has; it is replaced by the new account.
func (s *Service) RepairCreateIdentity(ctx context.Context, emailAddr, password string) (*models.IdentityAccount, error) {
	ctx, span := s.startSpan(ctx, "reconcile.RepairCreateIdentity", emailAddr)
	emailAddr = s.normalizeEmail(emailAddr)

	account, outcome, err := s.repairCreateIdentity(ctx, emailAddr, password)
	endSpan(span, err)
	if err != nil {
		s.metrics.IncrementRepair(repairCreateIdentity, string(dErrors.CodeOf(err)))
		return nil, err
	}
	s.metrics.IncrementRepair(repairCreateIdentity, outcome)
	s.logAudit(ctx, audit.EventIdentityRepaired,
		"email", emailAddr,
		"identity_id", account.ID,
		"state", string(models.StateProfileOnly),
		"decision", outcome,
	)
	return account, nil
}

func (s *Service) repairCreateIdentity(ctx context.Context, emailAddr, password string) (*models.IdentityAccount, string, error) {
	if err := models.ValidateEmail(emailAddr); err != nil {
		return nil, "", err
	}
	if err := models.ValidatePassword(password); err != nil {
		return nil, "", err
	}

	diag, err := s.diagnose(ctx, emailAddr)
	if err != nil {
		return nil, "", err
	}
	if diag.State != models.StateProfileOnly {
		return nil, "", invalidState("identity repair", models.StateProfileOnly, diag.State)
	}

	outcome := "created"
	if stale := s.findLink(ctx, diag.Profile); stale != nil {
		s.logger.WarnContext(ctx, "replacing identity link to an account the provider does not report",
			"profile_id", diag.Profile.ID,
			"identity_id", stale.IdentityID,
		)
		outcome = "relinked"
	}

	account, err := s.createAccount(ctx, diag.Profile, emailAddr, password)
	if err != nil {
		return nil, "", identityFailure(err, "failed to create identity account")
	}
	s.touchProfile(ctx, diag.Profile)
	return account, outcome, nil
}

// RepairCreateProfile recreates the missing profile for an identity-only
// customer. fields.Email, when set, must match emailAddr.
func (s *Service) RepairCreateProfile(ctx context.Context, emailAddr string, fields models.ProfileFields) (*models.ProfileRecord, error) {
	ctx, span := s.startSpan(ctx, "reconcile.RepairCreateProfile", emailAddr)
	emailAddr = s.normalizeEmail(emailAddr)

	profile, err := s.repairCreateProfile(ctx, emailAddr, fields)
	endSpan(span, err)
	if err != nil {
		s.metrics.IncrementRepair(repairCreateProfile, string(dErrors.CodeOf(err)))
		return nil, err
	}
	s.metrics.IncrementRepair(repairCreateProfile, "created")
	s.logAudit(ctx, audit.EventProfileRepaired,
		"email", emailAddr,
		"profile_id", profile.ID,
		"state", string(models.StateIdentityOnly),
	)
	return profile, nil
}

func (s *Service) repairCreateProfile(ctx context.Context, emailAddr string, fields models.ProfileFields) (*models.ProfileRecord, error) {
	if fields.Email != "" && s.normalizeEmail(fields.Email) != emailAddr {
		return nil, dErrors.New(dErrors.CodeValidation, "profile email does not match the account email")
	}
	fields.Email = emailAddr
	if err := fields.Validate(); err != nil {
		return nil, err
	}

	diag, err := s.diagnose(ctx, emailAddr)
	if err != nil {
		return nil, err
	}
	if diag.State != models.StateIdentityOnly {
		return nil, invalidState("profile repair", models.StateIdentityOnly, diag.State)
	}
	if err := s.ensureNotRegistered(ctx, emailAddr); err != nil {
		return nil, err
	}
	return s.createProfile(ctx, fields, "")
}

// RepairSyncPassword binds the desired password to the customer. It first
// tries a brand-new identity account; when one already exists it cannot
// overwrite that credential and starts the provider's recovery flow instead.
// When both stores hold the customer and the profile is linked, it goes
// straight to recovery so repeated calls never create a second account. A link
// on a profile-only customer is stale and does not block creation.
func (s *Service) RepairSyncPassword(ctx context.Context, emailAddr, newPassword string) (*models.SyncPasswordResult, error) {
	ctx, span := s.startSpan(ctx, "reconcile.RepairSyncPassword", emailAddr)
	emailAddr = s.normalizeEmail(emailAddr)

	result, err := s.repairSyncPassword(ctx, emailAddr, newPassword)
	endSpan(span, err)
	if err != nil {
		s.metrics.IncrementRepair(repairSyncPassword, string(dErrors.CodeOf(err)))
		return nil, err
	}

	if result.RequiresRecoveryFlow {
		s.metrics.IncrementRepair(repairSyncPassword, "recovery")
		s.logAudit(ctx, audit.EventPasswordRecoveryStarted,
			"email", emailAddr,
			"identity_id", result.Recovery.AccountID,
		)
	} else {
		s.metrics.IncrementRepair(repairSyncPassword, "created")
		s.logAudit(ctx, audit.EventPasswordSynced,
			"email", emailAddr,
			"identity_id", result.Session.AccountID,
		)
	}
	return result, nil
}

func (s *Service) repairSyncPassword(ctx context.Context, emailAddr, newPassword string) (*models.SyncPasswordResult, error) {
	if err := models.ValidateEmail(emailAddr); err != nil {
		return nil, err
	}
	if err := models.ValidatePassword(newPassword); err != nil {
		return nil, err
	}

	diag, err := s.diagnose(ctx, emailAddr)
	if err != nil {
		return nil, err
	}
	if diag.State == models.StateAbsent {
		return nil, dErrors.New(dErrors.CodeNoAccount, "no account for this email")
	}

	profileID := ""
	if diag.Profile != nil {
		profileID = diag.Profile.ID
	}

	if diag.State == models.StateBoth && s.findLink(ctx, diag.Profile) != nil {
		return s.recover(ctx, emailAddr, profileID)
	}

	_, err = s.createAccount(ctx, diag.Profile, emailAddr, newPassword)
	switch {
	case err == nil:
		s.touchProfile(ctx, diag.Profile)
		session, err := s.createSession(ctx, emailAddr, newPassword)
		if err != nil {
			return nil, identityFailure(err, "account created but sign-in failed")
		}
		return &models.SyncPasswordResult{ProfileID: profileID, Session: session}, nil
	case identity.Is(err, identity.KindCollision):
		return s.recover(ctx, emailAddr, profileID)
	default:
		return nil, identityFailure(err, "failed to create identity account")
	}
}

func (s *Service) recover(ctx context.Context, emailAddr, profileID string) (*models.SyncPasswordResult, error) {
	token, err := s.startRecovery(ctx, emailAddr)
	if err != nil {
		return nil, identityFailure(err, "failed to start credential recovery")
	}
	return &models.SyncPasswordResult{ProfileID: profileID, RequiresRecoveryFlow: true, Recovery: token}, nil
}

// touchProfile stamps updatedAt after the profile gained an identity link.
func (s *Service) touchProfile(ctx context.Context, profile *models.ProfileRecord) {
	if profile == nil {
		return
	}
	_, err := s.profiles.Update(ctx, profile.ID, models.ProfilePatch{UpdatedAt: requestcontext.Now(ctx)})
	if err != nil {
		s.logger.WarnContext(ctx, "failed to stamp profile after repair", "profile_id", profile.ID, "error", err)
	}
}

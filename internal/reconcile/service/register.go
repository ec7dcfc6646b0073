package service

import (
	"context"
	"errors"

	"golang.org/x/crypto/bcrypt"

	"storefront/internal/reconcile/identity"
	"storefront/internal/reconcile/models"
	dErrors "storefront/pkg/domain-errors"
	"storefront/pkg/platform/audit"
	"storefront/pkg/platform/sentinel"
	"storefront/pkg/requestcontext"
)

// Register creates the profile first and the identity account second. The
// profile is mandatory: any failure there aborts with no identity side
// effects. The identity side is best effort; when it cannot be established
// the result is Deferred and the next login diagnoses the gap.
func (s *Service) Register(ctx context.Context, fields models.ProfileFields, password string) (*models.RegistrationResult, error) {
	ctx, span := s.startSpan(ctx, "reconcile.Register", fields.Email)
	fields.Email = s.normalizeEmail(fields.Email)

	result, err := s.register(ctx, fields, password)
	endSpan(span, err)
	if err != nil {
		s.metrics.IncrementRegistration("error", string(dErrors.CodeOf(err)))
		return nil, err
	}

	s.metrics.IncrementRegistration(string(result.Outcome), result.Reason)
	if result.Outcome == models.RegistrationAuthenticated {
		s.logAudit(ctx, audit.EventRegistrationCompleted,
			"email", fields.Email,
			"profile_id", result.Profile.ID,
			"identity_id", result.Session.AccountID,
		)
	} else {
		s.logAudit(ctx, audit.EventRegistrationDeferred,
			"email", fields.Email,
			"profile_id", result.Profile.ID,
			"reason", result.Reason,
		)
	}
	return result, nil
}

func (s *Service) register(ctx context.Context, fields models.ProfileFields, password string) (*models.RegistrationResult, error) {
	if err := fields.Validate(); err != nil {
		return nil, err
	}
	if err := models.ValidatePassword(password); err != nil {
		return nil, err
	}
	if err := s.ensureNotRegistered(ctx, fields.Email); err != nil {
		return nil, err
	}

	profile, err := s.createProfile(ctx, fields, password)
	if err != nil {
		return nil, err
	}
	return s.establishIdentity(ctx, profile, password), nil
}

// ensureNotRegistered is the uniqueness guard shared by registration and profile repair.
func (s *Service) ensureNotRegistered(ctx context.Context, emailAddr string) error {
	_, err := s.profiles.FindByEmail(ctx, emailAddr)
	switch {
	case err == nil:
		return dErrors.New(dErrors.CodeAlreadyRegistered, "a profile already exists for this email")
	case errors.Is(err, sentinel.ErrNotFound):
		return nil
	default:
		return profileStoreFailure(err, "profile store unavailable")
	}
}

// createProfile writes the profile record. password may be empty when the
// profile is recreated for an existing identity; no legacy digest is stored then.
func (s *Service) createProfile(ctx context.Context, fields models.ProfileFields, password string) (*models.ProfileRecord, error) {
	now := requestcontext.Now(ctx)
	record := &models.ProfileRecord{
		ID:          s.newID(),
		Email:       fields.Email,
		AccountType: fields.AccountType,
		FirstName:   fields.FirstName,
		LastName:    fields.LastName,
		CompanyName: fields.CompanyName,
		VATNumber:   fields.VATNumber,
		Phone:       fields.Phone,
		Address:     fields.Address,
		Status:      models.ProfileStatusActive,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if password != "" {
		digest, err := bcrypt.GenerateFromPassword([]byte(password), s.cfg.LegacyDigestCost)
		if err != nil {
			s.logger.WarnContext(ctx, "skipping legacy credential digest", "error", err)
		} else {
			record.LegacyCredentialDigest = string(digest)
		}
	}

	created, err := s.profiles.Create(ctx, record)
	switch {
	case err == nil:
		return created, nil
	case errors.Is(err, sentinel.ErrConflict):
		return nil, dErrors.Wrap(err, dErrors.CodeAlreadyRegistered, "a profile already exists for this email")
	case errors.Is(err, sentinel.ErrInvalid):
		return nil, dErrors.Wrap(err, dErrors.CodeValidation, "profile rejected by store")
	default:
		return nil, profileStoreFailure(err, "failed to create profile")
	}
}

// establishIdentity never fails: every identity-side problem becomes a
// Deferred outcome on top of the already created profile.
func (s *Service) establishIdentity(ctx context.Context, profile *models.ProfileRecord, password string) *models.RegistrationResult {
	_, err := s.createAccount(ctx, profile, profile.Email, password)
	if err == nil {
		return s.signInAfterCreate(ctx, profile, password)
	}

	switch identity.KindOf(err) {
	case identity.KindCollision:
		return s.signInExisting(ctx, profile, password, models.ReasonExistingIdentityWrongPassword)
	case identity.KindRateLimited:
		return models.Deferred(profile, models.ReasonIdentityRateLimited)
	}

	s.logger.WarnContext(ctx, "identity creation failed, retrying with a new account id",
		"profile_id", profile.ID,
		"kind", string(identity.KindOf(err)),
	)
	_, err = s.createAccount(ctx, profile, profile.Email, password)
	switch {
	case err == nil:
		return s.signInAfterCreate(ctx, profile, password)
	case identity.Is(err, identity.KindCollision):
		// The first attempt may have landed despite reporting an error.
		return s.signInExisting(ctx, profile, password, models.ReasonIdentityCreationFailed)
	default:
		s.logger.WarnContext(ctx, "identity creation retry failed",
			"profile_id", profile.ID,
			"kind", string(identity.KindOf(err)),
		)
		return models.Deferred(profile, models.ReasonIdentityCreationFailed)
	}
}

func (s *Service) signInAfterCreate(ctx context.Context, profile *models.ProfileRecord, password string) *models.RegistrationResult {
	session, err := s.createSession(ctx, profile.Email, password)
	if err != nil {
		s.logger.WarnContext(ctx, "session after identity creation failed",
			"profile_id", profile.ID,
			"kind", string(identity.KindOf(err)),
		)
		return models.Deferred(profile, models.ReasonSessionUnavailable)
	}
	return models.Authenticated(session, profile)
}

// signInExisting tries the supplied password against an identity account that
// already existed. On success the account is linked to the new profile.
func (s *Service) signInExisting(ctx context.Context, profile *models.ProfileRecord, password, failureReason string) *models.RegistrationResult {
	session, err := s.createSession(ctx, profile.Email, password)
	if err != nil {
		return models.Deferred(profile, failureReason)
	}
	s.saveLink(ctx, profile, session.AccountID)
	return models.Authenticated(session, profile)
}

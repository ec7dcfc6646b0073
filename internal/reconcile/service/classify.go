package service

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/errgroup"

	"storefront/internal/reconcile/identity"
	"storefront/internal/reconcile/models"
	dErrors "storefront/pkg/domain-errors"
	"storefront/pkg/platform/audit"
	"storefront/pkg/platform/sentinel"
)

// Diagnose reports which stores hold a record for email. It never writes.
func (s *Service) Diagnose(ctx context.Context, emailAddr string) (*models.Diagnosis, error) {
	ctx, span := s.startSpan(ctx, "reconcile.Diagnose", emailAddr)
	emailAddr = s.normalizeEmail(emailAddr)
	if err := models.ValidateEmail(emailAddr); err != nil {
		endSpan(span, err)
		return nil, err
	}

	diag, err := s.diagnose(ctx, emailAddr)
	endSpan(span, err)
	if err != nil {
		return nil, err
	}
	s.logAudit(ctx, audit.EventDiagnosed, "email", emailAddr, "state", diag.State.String())
	return diag, nil
}

// identityHint is what an earlier credential attempt in the same request
// already revealed about the identity side.
type identityHint int

const (
	hintUnknown identityHint = iota
	hintExists
	hintMissing
)

// hintFromLoginFailure reads a rejected CreateSession: invalid credentials
// means the account exists, not found means it does not.
func hintFromLoginFailure(err error) identityHint {
	switch identity.KindOf(err) {
	case identity.KindInvalidCredentials:
		return hintExists
	case identity.KindNotFound:
		return hintMissing
	default:
		return hintUnknown
	}
}

func (s *Service) diagnose(ctx context.Context, emailAddr string) (*models.Diagnosis, error) {
	return s.diagnoseWith(ctx, emailAddr, hintUnknown)
}

// diagnoseWith runs the profile lookup and the identity existence check in
// parallel and combines them into one state. Either side failing aborts the
// diagnosis; no state is guessed.
func (s *Service) diagnoseWith(ctx context.Context, emailAddr string, hint identityHint) (*models.Diagnosis, error) {
	var (
		profile     *models.ProfileRecord
		hasIdentity bool
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		rec, err := s.profiles.FindByEmail(gctx, emailAddr)
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil
		}
		if err != nil {
			return profileStoreFailure(err, "profile store unavailable")
		}
		profile = rec
		return nil
	})
	g.Go(func() error {
		exists, err := s.identityExists(gctx, emailAddr, hint)
		if err != nil {
			return err
		}
		hasIdentity = exists
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	diag := &models.Diagnosis{
		Email:   emailAddr,
		State:   models.StateFrom(profile != nil, hasIdentity),
		Profile: profile,
	}
	s.metrics.IncrementDiagnosis(diag.State.String())
	return diag, nil
}

// identityExists prefers the native existence check, then a hint from a
// credential attempt already made in this request. Only without either does
// it submit a random credential and read the failure kind: invalid
// credentials means the account exists, not found means it does not, and
// anything ambiguous counts as existing so no caller attempts a duplicate
// creation.
func (s *Service) identityExists(ctx context.Context, emailAddr string, hint identityHint) (bool, error) {
	if s.existence != nil {
		exists, err := s.checkExistence(ctx, emailAddr)
		if err == nil {
			return exists, nil
		}
		switch identity.KindOf(err) {
		case identity.KindRateLimited, identity.KindUnavailable:
			return false, identityFailure(err, "identity existence check failed")
		}
		s.logger.WarnContext(ctx, "existence check failed", "error", err)
	}

	switch hint {
	case hintExists:
		return true, nil
	case hintMissing:
		return false, nil
	}

	secret, err := probeSecret()
	if err != nil {
		return false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to generate probe credential")
	}

	_, err = s.createSession(ctx, emailAddr, secret)
	switch kind := identity.KindOf(err); kind {
	case "":
		s.logger.WarnContext(ctx, "identity probe unexpectedly authenticated")
		return true, nil
	case identity.KindInvalidCredentials:
		return true, nil
	case identity.KindNotFound:
		return false, nil
	case identity.KindRateLimited, identity.KindUnavailable:
		return false, identityFailure(err, "identity probe failed")
	default:
		s.logger.WarnContext(ctx, "ambiguous identity probe result, assuming account exists", "kind", string(kind))
		return true, nil
	}
}

func (s *Service) checkExistence(ctx context.Context, emailAddr string) (bool, error) {
	start := time.Now()
	exists, err := s.existence.AccountExists(ctx, emailAddr)
	s.observeIdentityCall(ctx, "account_exists", start, err)
	return exists, err
}

// CheckThrottled is the cheap pre-flight before a credential attempt. A set
// throttle latch or a rate-limited profile store read reports throttled; any
// other profile store failure reports store_error.
func (s *Service) CheckThrottled(ctx context.Context) models.ThrottleStatus {
	if s.latch != nil {
		tripped, err := s.latch.Tripped(ctx)
		switch {
		case err != nil:
			s.logger.WarnContext(ctx, "throttle latch unavailable, relying on profile store probe", "error", err)
		case tripped:
			return models.ThrottleThrottled
		}
	}

	err := s.profiles.Probe(ctx)
	switch {
	case err == nil:
		return models.ThrottleOK
	case errors.Is(err, sentinel.ErrRateLimited):
		return models.ThrottleThrottled
	default:
		s.logger.WarnContext(ctx, "profile store probe failed", "error", err)
		return models.ThrottleStoreError
	}
}

// Package service reconciles customer identities split across the profile
// store and the external identity service. It diagnoses which side holds a
// record for an email, drives login and registration on top of that
// diagnosis, and exposes the explicit repair operations.
package service

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/crypto/bcrypt"

	"storefront/internal/reconcile/identity"
	"storefront/internal/reconcile/metrics"
	"storefront/internal/reconcile/models"
	"storefront/internal/reconcile/ports"
	dErrors "storefront/pkg/domain-errors"
	"storefront/pkg/email"
	"storefront/pkg/platform/audit"
	"storefront/pkg/platform/sentinel"
	"storefront/pkg/requestcontext"
)

const tracerName = "storefront/internal/reconcile/service"

// Config holds reconciliation tunables.
type Config struct {
	// FoldEmailCase trims and lower-cases emails at every entry point.
	// Off by default: both stores match emails exactly.
	FoldEmailCase bool
	// ThrottleLatchTTL is how long a provider rate limit suppresses credential attempts.
	ThrottleLatchTTL time.Duration
	// RecoveryCallbackURL is where the provider's recovery email sends the customer.
	RecoveryCallbackURL string
	// LegacyDigestCost is the bcrypt cost of the informational digest on new profiles.
	LegacyDigestCost int
}

func DefaultConfig() Config {
	return Config{
		ThrottleLatchTTL: 60 * time.Second,
		LegacyDigestCost: bcrypt.DefaultCost,
	}
}

type Service struct {
	profiles       ports.ProfileStore
	identity       ports.IdentityStore
	existence      ports.ExistenceChecker
	links          ports.LinkStore
	latch          ports.ThrottleLatch
	auditPublisher ports.AuditPublisher
	logger         *slog.Logger
	metrics        *metrics.Metrics
	tracer         trace.Tracer
	cfg            Config
	newID          func() string
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithAuditPublisher(publisher ports.AuditPublisher) Option {
	return func(s *Service) {
		s.auditPublisher = publisher
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithLinkStore enables the profile to identity mapping that makes repairs idempotent.
func WithLinkStore(links ports.LinkStore) Option {
	return func(s *Service) {
		s.links = links
	}
}

func WithThrottleLatch(latch ports.ThrottleLatch) Option {
	return func(s *Service) {
		s.latch = latch
	}
}

// WithExistenceChecker replaces the wrong-credential probe with a native lookup.
func WithExistenceChecker(checker ports.ExistenceChecker) Option {
	return func(s *Service) {
		s.existence = checker
	}
}

func WithConfig(cfg Config) Option {
	return func(s *Service) {
		if cfg.ThrottleLatchTTL <= 0 {
			cfg.ThrottleLatchTTL = DefaultConfig().ThrottleLatchTTL
		}
		if cfg.LegacyDigestCost == 0 {
			cfg.LegacyDigestCost = DefaultConfig().LegacyDigestCost
		}
		s.cfg = cfg
	}
}

func WithTracer(tracer trace.Tracer) Option {
	return func(s *Service) {
		s.tracer = tracer
	}
}

// WithIDGenerator overrides how profile and identity account ids are minted.
func WithIDGenerator(newID func() string) Option {
	return func(s *Service) {
		s.newID = newID
	}
}

func New(profiles ports.ProfileStore, identityStore ports.IdentityStore, opts ...Option) (*Service, error) {
	if profiles == nil {
		return nil, errors.New("profile store is required")
	}
	if identityStore == nil {
		return nil, errors.New("identity store is required")
	}

	svc := &Service{
		profiles: profiles,
		identity: identityStore,
		cfg:      DefaultConfig(),
		tracer:   otel.Tracer(tracerName),
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(svc)
	}
	if svc.logger == nil {
		svc.logger = slog.Default()
	}
	return svc, nil
}

func (s *Service) normalizeEmail(raw string) string {
	if s.cfg.FoldEmailCase {
		return email.Fold(raw)
	}
	return raw
}

func (s *Service) startSpan(ctx context.Context, name, emailAddr string) (context.Context, trace.Span) {
	return s.tracer.Start(ctx, name, trace.WithAttributes(
		attribute.String("storefront.request_id", requestcontext.RequestID(ctx)),
		attribute.Bool("storefront.email_present", emailAddr != ""),
	))
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, string(dErrors.CodeOf(err)))
	}
	span.End()
}

func (s *Service) logAudit(ctx context.Context, event audit.AuditEvent, attrs ...any) {
	ports.LogAudit(ctx, s.logger, s.auditPublisher, event, attrs...)
}

// -----------------------------------------------------------------------------
// Identity service calls
// -----------------------------------------------------------------------------

func (s *Service) createSession(ctx context.Context, emailAddr, password string) (*models.Session, error) {
	start := time.Now()
	session, err := s.identity.CreateSession(ctx, emailAddr, password)
	s.observeIdentityCall(ctx, "create_session", start, err)
	return session, err
}

// createAccount mints a fresh account id and records the link when the
// account is created for a known profile.
func (s *Service) createAccount(ctx context.Context, profile *models.ProfileRecord, emailAddr, password string) (*models.IdentityAccount, error) {
	accountID := s.newID()
	start := time.Now()
	account, err := s.identity.CreateAccount(ctx, accountID, emailAddr, password, displayNameFor(profile, emailAddr))
	s.observeIdentityCall(ctx, "create_account", start, err)
	if err != nil {
		return nil, err
	}
	if account.ID == "" {
		account.ID = accountID
	}
	s.saveLink(ctx, profile, account.ID)
	return account, nil
}

func (s *Service) startRecovery(ctx context.Context, emailAddr string) (*models.RecoveryToken, error) {
	start := time.Now()
	token, err := s.identity.StartRecovery(ctx, emailAddr, s.cfg.RecoveryCallbackURL)
	s.observeIdentityCall(ctx, "start_recovery", start, err)
	return token, err
}

// observeIdentityCall records latency and trips the throttle latch on any
// rate-limited response.
func (s *Service) observeIdentityCall(ctx context.Context, op string, start time.Time, err error) {
	result := "ok"
	if err != nil {
		result = string(identity.KindOf(err))
	}
	s.metrics.ObserveIdentityCall(op, result, time.Since(start))
	if identity.Is(err, identity.KindRateLimited) {
		s.tripLatch(ctx, op)
	}
}

func (s *Service) tripLatch(ctx context.Context, op string) {
	s.metrics.IncrementThrottleTrips()
	s.logAudit(ctx, audit.EventIdentityThrottled, "op", op, "reason", "provider_rate_limited")
	if s.latch == nil {
		return
	}
	if err := s.latch.Trip(ctx, s.cfg.ThrottleLatchTTL); err != nil {
		s.logger.WarnContext(ctx, "failed to trip identity throttle latch", "op", op, "error", err)
	}
}

func (s *Service) saveLink(ctx context.Context, profile *models.ProfileRecord, identityID string) {
	if s.links == nil || profile == nil {
		return
	}
	link := models.IdentityLink{
		ProfileID:  profile.ID,
		IdentityID: identityID,
		Email:      profile.Email,
		CreatedAt:  requestcontext.Now(ctx),
	}
	if err := s.links.Save(ctx, link); err != nil {
		s.logger.WarnContext(ctx, "failed to record identity link",
			"profile_id", profile.ID,
			"identity_id", identityID,
			"error", err,
		)
	}
}

// findLink returns nil when no link store is configured or none is recorded.
func (s *Service) findLink(ctx context.Context, profile *models.ProfileRecord) *models.IdentityLink {
	if s.links == nil || profile == nil {
		return nil
	}
	link, err := s.links.FindByProfileID(ctx, profile.ID)
	if err != nil {
		if !errors.Is(err, sentinel.ErrNotFound) {
			s.logger.WarnContext(ctx, "failed to read identity link", "profile_id", profile.ID, "error", err)
		}
		return nil
	}
	return link
}

// identityFailure translates a normalized identity error into a coded domain error.
func identityFailure(err error, msg string) error {
	switch identity.KindOf(err) {
	case identity.KindRateLimited:
		return dErrors.Wrap(err, dErrors.CodeRateLimited, "identity service is throttling requests; try again later")
	case identity.KindUnavailable:
		return dErrors.Wrap(err, dErrors.CodeStoreUnavailable, "identity service unavailable")
	case identity.KindCollision:
		return dErrors.Wrap(err, dErrors.CodeCollision, "an identity account already exists for this email")
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, msg)
	}
}

func profileStoreFailure(err error, msg string) error {
	return dErrors.Wrap(err, dErrors.CodeStoreUnavailable, msg)
}

func displayNameFor(profile *models.ProfileRecord, emailAddr string) string {
	if profile != nil {
		if name := profile.DisplayName(); name != "" {
			return name
		}
	}
	return email.DeriveDisplayName(emailAddr)
}

// probeSecret returns a credential that cannot match any real password.
func probeSecret() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return "probe-" + strings.TrimRight(base64.URLEncoding.EncodeToString(buf), "="), nil
}

// Package handler exposes the reconciliation service to the storefront UI forms.
package handler

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"storefront/internal/reconcile/models"
	dErrors "storefront/pkg/domain-errors"
	"storefront/pkg/platform/httputil"
	"storefront/pkg/platform/middleware/admin"
	authmw "storefront/pkg/platform/middleware/auth"
	"storefront/pkg/requestcontext"
)

// Service defines the reconciliation operations the HTTP surface drives.
type Service interface {
	Login(ctx context.Context, email, password string) (*models.Session, error)
	FindProfile(ctx context.Context, email string) (*models.ProfileRecord, error)
	Register(ctx context.Context, fields models.ProfileFields, password string) (*models.RegistrationResult, error)
	RepairCreateIdentity(ctx context.Context, email, password string) (*models.IdentityAccount, error)
	RepairCreateProfile(ctx context.Context, email string, fields models.ProfileFields) (*models.ProfileRecord, error)
	RepairSyncPassword(ctx context.Context, email, newPassword string) (*models.SyncPasswordResult, error)
	Diagnose(ctx context.Context, email string) (*models.Diagnosis, error)
}

// TokenIssuer mints the storefront session token around an identity session.
type TokenIssuer interface {
	IssueSessionToken(session *models.Session, profileID string, now time.Time, ttl time.Duration) (string, time.Time, error)
}

// Config holds handler settings.
type Config struct {
	SessionTTL time.Duration
	AdminToken string
}

// Handler wires reconciliation endpoints to the service.
type Handler struct {
	service   Service
	tokens    TokenIssuer
	validator authmw.TokenValidator
	logger    *slog.Logger
	cfg       Config
}

// New constructs a reconciliation handler with its dependencies.
func New(service Service, tokens TokenIssuer, validator authmw.TokenValidator, logger *slog.Logger, cfg Config) *Handler {
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = time.Hour
	}
	return &Handler{
		service:   service,
		tokens:    tokens,
		validator: validator,
		logger:    logger,
		cfg:       cfg,
	}
}

// Register mounts the reconciliation endpoints on the router. Repairs that
// set a credential for an email take no proof that the caller owns it, so
// they are admin routes for support tooling or a backend that has verified
// the address; they never return a session.
func (h *Handler) Register(r chi.Router) {
	r.Post("/auth/login", h.HandleLogin)
	r.Post("/auth/register", h.HandleRegister)

	r.Group(func(r chi.Router) {
		r.Use(authmw.RequireSession(h.validator, h.logger))
		r.Get("/auth/me", h.HandleMe)
		r.Post("/auth/repair/profile", h.HandleRepairProfile)
	})

	r.Group(func(r chi.Router) {
		r.Use(admin.RequireAdminToken(h.cfg.AdminToken, h.logger))
		r.Get("/admin/diagnose", h.HandleDiagnose)
		r.Post("/admin/repair/identity", h.HandleRepairIdentity)
		r.Post("/admin/repair/password", h.HandleRepairPassword)
	})
}

// HandleLogin handles POST /auth/login. The response carries the profile when
// one exists; profile_missing asks the UI to collect the business fields.
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[CredentialsRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	session, err := h.service.Login(ctx, req.Email, req.Password)
	if err != nil {
		h.logger.InfoContext(ctx, "login rejected",
			"request_id", requestID,
			"error_code", string(dErrors.CodeOf(err)),
		)
		httputil.WriteError(w, err)
		return
	}

	resp := LoginResponse{}
	profile, err := h.service.FindProfile(ctx, session.Email)
	switch {
	case err == nil:
		resp.Profile = toProfileResponse(profile)
	case dErrors.HasCode(err, dErrors.CodeNotFound):
		resp.ProfileMissing = true
	default:
		// The credential check already succeeded; the UI can retry the profile later.
		h.logger.WarnContext(ctx, "profile lookup after login failed",
			"request_id", requestID,
			"error", err,
		)
	}

	issued, ok := h.issueSession(w, ctx, session, resp.profileID())
	if !ok {
		return
	}
	resp.Session = *issued
	httputil.WriteJSON(w, http.StatusOK, resp)
}

func (r LoginResponse) profileID() string {
	if r.Profile == nil {
		return ""
	}
	return r.Profile.ID
}

// HandleRegister handles POST /auth/register.
func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[RegisterRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	result, err := h.service.Register(ctx, req.Fields(req.Email), req.Password)
	if err != nil {
		h.logger.InfoContext(ctx, "registration rejected",
			"request_id", requestID,
			"error_code", string(dErrors.CodeOf(err)),
		)
		httputil.WriteError(w, err)
		return
	}

	resp := RegisterResponse{
		Outcome:             string(result.Outcome),
		AccountCreated:      result.AccountCreated,
		RequiresManualLogin: result.RequiresManualLogin,
		Reason:              result.Reason,
		Profile:             toProfileResponse(result.Profile),
	}
	if result.Session != nil {
		issued, ok := h.issueSession(w, ctx, result.Session, result.Profile.ID)
		if !ok {
			return
		}
		resp.Session = issued
	}
	httputil.WriteJSON(w, http.StatusCreated, resp)
}

// HandleRepairIdentity handles POST /admin/repair/identity for customers whose
// login reported identity_missing.
func (h *Handler) HandleRepairIdentity(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[CredentialsRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	account, err := h.service.RepairCreateIdentity(ctx, req.Email, req.Password)
	if err != nil {
		h.logger.WarnContext(ctx, "identity repair failed",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, RepairIdentityResponse{
		AccountID: account.ID,
		Email:     account.Email,
	})
}

// HandleRepairPassword handles POST /admin/repair/password for customers whose
// login reported sync_password_required. The customer signs in afterwards
// through /auth/login, or follows the emailed recovery link.
func (h *Handler) HandleRepairPassword(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[CredentialsRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	result, err := h.service.RepairSyncPassword(ctx, req.Email, req.Password)
	if err != nil {
		h.logger.WarnContext(ctx, "password repair failed",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	resp := RepairPasswordResponse{
		RequiresRecoveryFlow: result.RequiresRecoveryFlow,
		ProfileID:            result.ProfileID,
	}
	if result.Session != nil {
		resp.AccountID = result.Session.AccountID
	}
	if result.Recovery != nil {
		resp.AccountID = result.Recovery.AccountID
		if !result.Recovery.ExpiresAt.IsZero() {
			expires := result.Recovery.ExpiresAt
			resp.RecoveryExpiresAt = &expires
		}
	}
	status := http.StatusOK
	if result.RequiresRecoveryFlow {
		status = http.StatusAccepted
	}
	httputil.WriteJSON(w, status, resp)
}

// HandleRepairProfile handles POST /auth/repair/profile. The email comes from
// the session token, never from the form.
func (h *Handler) HandleRepairProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	claims := authmw.GetClaims(ctx)
	if claims == nil || claims.Email == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}

	req, ok := httputil.DecodeAndPrepare[ProfileRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	profile, err := h.service.RepairCreateProfile(ctx, claims.Email, req.Fields(claims.Email))
	if err != nil {
		h.logger.WarnContext(ctx, "profile repair failed",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toProfileResponse(profile))
}

// HandleMe handles GET /auth/me.
func (h *Handler) HandleMe(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	claims := authmw.GetClaims(ctx)
	if claims == nil || claims.Email == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}

	profile, err := h.service.FindProfile(ctx, claims.Email)
	switch {
	case err == nil:
		httputil.WriteJSON(w, http.StatusOK, LoginResponse{
			Session: SessionResponse{AccountID: claims.AccountID, Email: claims.Email},
			Profile: toProfileResponse(profile),
		})
	case dErrors.HasCode(err, dErrors.CodeNotFound):
		httputil.WriteJSON(w, http.StatusOK, LoginResponse{
			Session:        SessionResponse{AccountID: claims.AccountID, Email: claims.Email},
			ProfileMissing: true,
		})
	default:
		httputil.WriteError(w, err)
	}
}

// HandleDiagnose handles GET /admin/diagnose?email=.
func (h *Handler) HandleDiagnose(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	email := r.URL.Query().Get("email")
	if email == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "email query parameter is required"))
		return
	}

	diag, err := h.service.Diagnose(ctx, email)
	if err != nil {
		h.logger.WarnContext(ctx, "diagnosis failed",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toDiagnoseResponse(diag))
}

func (h *Handler) issueSession(w http.ResponseWriter, ctx context.Context, session *models.Session, profileID string) (*SessionResponse, bool) {
	token, expiresAt, err := h.tokens.IssueSessionToken(session, profileID, requestcontext.Now(ctx), h.cfg.SessionTTL)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to issue session token",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeInternal, "failed to issue session"))
		return nil, false
	}
	return &SessionResponse{
		Token:     token,
		ExpiresAt: expiresAt,
		AccountID: session.AccountID,
		Email:     session.Email,
	}, true
}

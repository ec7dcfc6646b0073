package handler

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	jwttoken "storefront/internal/jwt_token"
	"storefront/internal/reconcile/handler/mocks"
	"storefront/internal/reconcile/models"
	dErrors "storefront/pkg/domain-errors"
	"storefront/pkg/testutil"
)

const (
	adminToken = "admin-secret"
	testEmail  = "jane@example.com"
)

type HandlerSuite struct {
	suite.Suite
	ctrl    *gomock.Controller
	service *mocks.MockService
	tokens  *jwttoken.JWTService
	router  chi.Router
	now     time.Time
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.service = mocks.NewMockService(s.ctrl)
	s.tokens = jwttoken.NewJWTService("test-signing-key", "storefront", "storefront-web")
	s.now = time.Now()
	s.router = s.newRouter(s.tokens)
}

func (s *HandlerSuite) newRouter(issuer TokenIssuer) chi.Router {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := New(s.service, issuer, jwttoken.NewJWTServiceAdapter(s.tokens), logger, Config{
		SessionTTL: time.Hour,
		AdminToken: adminToken,
	})
	r := chi.NewRouter()
	h.Register(r)
	return r
}

func (s *HandlerSuite) session() *models.Session {
	return &models.Session{
		ID:        "provider-session",
		AccountID: "acc-1",
		Email:     testEmail,
		ExpiresAt: s.now.Add(24 * time.Hour),
	}
}

func (s *HandlerSuite) profile() *models.ProfileRecord {
	return &models.ProfileRecord{
		ID:          "profile-1",
		Email:       testEmail,
		AccountType: models.AccountTypeIndividual,
		FirstName:   "Jane",
		LastName:    "Doe",
		Status:      models.ProfileStatusActive,
	}
}

func (s *HandlerSuite) bearer() string {
	token, _, err := s.tokens.IssueSessionToken(s.session(), "", s.now, time.Hour)
	s.Require().NoError(err)
	return token
}

func credentials(password string) map[string]string {
	return map[string]string{"email": testEmail, "password": password}
}

func registerBody(accountType string) map[string]any {
	return map[string]any{
		"email":        testEmail,
		"password":     "correct-horse",
		"account_type": accountType,
		"first_name":   "Jane",
		"last_name":    "Doe",
		"address":      map[string]string{"street": "Main 1", "city": "Leiden", "country": "nl"},
	}
}

// -----------------------------------------------------------------------------
// Login
// -----------------------------------------------------------------------------

func (s *HandlerSuite) TestLogin_ReturnsSessionAndProfile() {
	s.service.EXPECT().Login(gomock.Any(), testEmail, "correct-horse").Return(s.session(), nil)
	s.service.EXPECT().FindProfile(gomock.Any(), testEmail).Return(s.profile(), nil)

	rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodPost, "/auth/login", credentials("correct-horse")))

	s.Require().Equal(http.StatusOK, rr.Code, rr.Body.String())
	resp := testutil.UnmarshalResponse[LoginResponse](s.T(), rr)
	s.False(resp.ProfileMissing)
	s.Require().NotNil(resp.Profile)
	s.Equal("profile-1", resp.Profile.ID)
	s.Equal("acc-1", resp.Session.AccountID)

	claims, err := s.tokens.ValidateToken(resp.Session.Token)
	s.Require().NoError(err)
	s.Equal("profile-1", claims.ProfileID)
	s.Equal(testEmail, claims.Email)
}

func (s *HandlerSuite) TestLogin_ProfileMissing() {
	s.service.EXPECT().Login(gomock.Any(), testEmail, "correct-horse").Return(s.session(), nil)
	s.service.EXPECT().FindProfile(gomock.Any(), testEmail).
		Return(nil, dErrors.New(dErrors.CodeNotFound, "no profile"))

	rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodPost, "/auth/login", credentials("correct-horse")))

	s.Require().Equal(http.StatusOK, rr.Code)
	resp := testutil.UnmarshalResponse[LoginResponse](s.T(), rr)
	s.True(resp.ProfileMissing)
	s.Nil(resp.Profile)
	s.NotEmpty(resp.Session.Token)
}

func (s *HandlerSuite) TestLogin_ProfileLookupFailureStillSignsIn() {
	s.service.EXPECT().Login(gomock.Any(), testEmail, "correct-horse").Return(s.session(), nil)
	s.service.EXPECT().FindProfile(gomock.Any(), testEmail).
		Return(nil, dErrors.New(dErrors.CodeStoreUnavailable, "down"))

	rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodPost, "/auth/login", credentials("correct-horse")))

	s.Require().Equal(http.StatusOK, rr.Code)
	resp := testutil.UnmarshalResponse[LoginResponse](s.T(), rr)
	s.False(resp.ProfileMissing)
	s.Nil(resp.Profile)
}

func (s *HandlerSuite) TestLogin_ErrorMapping() {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"no account", dErrors.New(dErrors.CodeNoAccount, "no account"), http.StatusNotFound, "no_account"},
		{"wrong password", dErrors.New(dErrors.CodeWrongPassword, "incorrect"), http.StatusUnauthorized, "wrong_password"},
		{"identity missing", dErrors.New(dErrors.CodeIdentityMissing, "missing"), http.StatusConflict, "identity_missing"},
		{"sync password required", &models.SyncPasswordRequiredError{Email: testEmail, Password: "pw"}, http.StatusConflict, "sync_password_required"},
		{"rate limited", dErrors.New(dErrors.CodeRateLimited, "slow down"), http.StatusTooManyRequests, "rate_limited"},
		{"store unavailable", dErrors.New(dErrors.CodeStoreUnavailable, "down"), http.StatusServiceUnavailable, "store_unavailable"},
		{"uncoded", errors.New("boom"), http.StatusInternalServerError, "internal_error"},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			s.service.EXPECT().Login(gomock.Any(), testEmail, "pw-attempt").Return(nil, tt.err)

			rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodPost, "/auth/login", credentials("pw-attempt")))

			testutil.AssertStatusAndError(s.T(), rr, tt.wantStatus, tt.wantCode)
			s.NotContains(rr.Body.String(), "pw-attempt")
		})
	}
}

func (s *HandlerSuite) TestLogin_RejectsBadBodies() {
	rr := testutil.DoRequest(s.router, testutil.NewRequestWithBody(s.T(), http.MethodPost, "/auth/login", `{"email":`))
	testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "bad_request")

	rr = testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodPost, "/auth/login", map[string]string{"email": testEmail}))
	testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "validation_error")
}

func (s *HandlerSuite) TestLogin_TokenFailureIsInternal() {
	issuer := mocks.NewMockTokenIssuer(s.ctrl)
	router := s.newRouter(issuer)
	s.service.EXPECT().Login(gomock.Any(), testEmail, "correct-horse").Return(s.session(), nil)
	s.service.EXPECT().FindProfile(gomock.Any(), testEmail).Return(s.profile(), nil)
	issuer.EXPECT().IssueSessionToken(gomock.Any(), "profile-1", gomock.Any(), time.Hour).
		Return("", time.Time{}, errors.New("signing failed"))

	rr := testutil.DoRequest(router, testutil.NewJSONRequest(s.T(), http.MethodPost, "/auth/login", credentials("correct-horse")))
	testutil.AssertStatusAndError(s.T(), rr, http.StatusInternalServerError, "internal_error")
}

// -----------------------------------------------------------------------------
// Register
// -----------------------------------------------------------------------------

func (s *HandlerSuite) TestRegister_Authenticated() {
	s.service.EXPECT().Register(gomock.Any(), gomock.Any(), "correct-horse").DoAndReturn(
		func(_ any, fields models.ProfileFields, _ string) (*models.RegistrationResult, error) {
			s.Equal(testEmail, fields.Email)
			s.Equal(models.AccountTypeIndividual, fields.AccountType)
			s.Equal("NL", fields.Address.Country)
			return models.Authenticated(s.session(), s.profile()), nil
		})

	rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodPost, "/auth/register", registerBody("Individual")))

	s.Require().Equal(http.StatusCreated, rr.Code, rr.Body.String())
	resp := testutil.UnmarshalResponse[RegisterResponse](s.T(), rr)
	s.Equal("authenticated", resp.Outcome)
	s.True(resp.AccountCreated)
	s.False(resp.RequiresManualLogin)
	s.Require().NotNil(resp.Session)
	s.NotEmpty(resp.Session.Token)
}

func (s *HandlerSuite) TestRegister_Deferred() {
	s.service.EXPECT().Register(gomock.Any(), gomock.Any(), "correct-horse").
		Return(models.Deferred(s.profile(), models.ReasonExistingIdentityWrongPassword), nil)

	rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodPost, "/auth/register", registerBody("individual")))

	s.Require().Equal(http.StatusCreated, rr.Code)
	resp := testutil.UnmarshalResponse[RegisterResponse](s.T(), rr)
	s.Equal("deferred", resp.Outcome)
	s.True(resp.RequiresManualLogin)
	s.Equal(models.ReasonExistingIdentityWrongPassword, resp.Reason)
	s.Nil(resp.Session)
	s.Equal("profile-1", resp.Profile.ID)
}

func (s *HandlerSuite) TestRegister_AlreadyRegistered() {
	s.service.EXPECT().Register(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil, dErrors.New(dErrors.CodeAlreadyRegistered, "exists"))

	rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodPost, "/auth/register", registerBody("individual")))
	testutil.AssertStatusAndError(s.T(), rr, http.StatusConflict, "already_registered")
}

func (s *HandlerSuite) TestRegister_RejectsUnknownAccountType() {
	rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodPost, "/auth/register", registerBody("reseller")))
	testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "validation_error")
}

// -----------------------------------------------------------------------------
// Repairs
// -----------------------------------------------------------------------------

func (s *HandlerSuite) adminPost(path string, body any) *http.Request {
	return testutil.WithAdminToken(testutil.NewJSONRequest(s.T(), http.MethodPost, path, body), adminToken)
}

func (s *HandlerSuite) TestRepairIdentity() {
	s.service.EXPECT().RepairCreateIdentity(gomock.Any(), testEmail, "new-password").
		Return(&models.IdentityAccount{ID: "acc-9", Email: testEmail}, nil)

	rr := testutil.DoRequest(s.router, s.adminPost("/admin/repair/identity", credentials("new-password")))

	s.Require().Equal(http.StatusOK, rr.Code)
	resp := testutil.UnmarshalResponse[RepairIdentityResponse](s.T(), rr)
	s.Equal("acc-9", resp.AccountID)
}

func (s *HandlerSuite) TestRepairIdentity_InvalidState() {
	s.service.EXPECT().RepairCreateIdentity(gomock.Any(), testEmail, "new-password").
		Return(nil, dErrors.New(dErrors.CodeInvalidState, "wrong state"))

	rr := testutil.DoRequest(s.router, s.adminPost("/admin/repair/identity", credentials("new-password")))
	testutil.AssertStatusAndError(s.T(), rr, http.StatusConflict, "invalid_state")
}

func (s *HandlerSuite) TestRepairPassword_RecoveryFlow() {
	expires := s.now.Add(time.Hour)
	s.service.EXPECT().RepairSyncPassword(gomock.Any(), testEmail, "desired-pw").
		Return(&models.SyncPasswordResult{
			RequiresRecoveryFlow: true,
			ProfileID:            "profile-1",
			Recovery:             &models.RecoveryToken{ID: "tok", AccountID: "acc-1", ExpiresAt: expires},
		}, nil)

	rr := testutil.DoRequest(s.router, s.adminPost("/admin/repair/password", credentials("desired-pw")))

	s.Require().Equal(http.StatusAccepted, rr.Code)
	resp := testutil.UnmarshalResponse[RepairPasswordResponse](s.T(), rr)
	s.True(resp.RequiresRecoveryFlow)
	s.Equal("acc-1", resp.AccountID)
	s.Require().NotNil(resp.RecoveryExpiresAt)
	s.NotContains(rr.Body.String(), `"tok"`)
}

func (s *HandlerSuite) TestRepairPassword_ReportsAccountWithoutSession() {
	s.service.EXPECT().RepairSyncPassword(gomock.Any(), testEmail, "desired-pw").
		Return(&models.SyncPasswordResult{ProfileID: "profile-1", Session: s.session()}, nil)

	rr := testutil.DoRequest(s.router, s.adminPost("/admin/repair/password", credentials("desired-pw")))

	s.Require().Equal(http.StatusOK, rr.Code)
	resp := testutil.UnmarshalResponse[RepairPasswordResponse](s.T(), rr)
	s.False(resp.RequiresRecoveryFlow)
	s.Equal("acc-1", resp.AccountID)
	s.Equal("profile-1", resp.ProfileID)
	s.NotContains(rr.Body.String(), `"token"`)
	s.Empty(rr.Result().Cookies())
}

func (s *HandlerSuite) TestRepair_AnonymousCallerIsRejected() {
	// No service expectations: the mock controller fails the test if a
	// repair reaches the service.
	tests := []struct {
		name  string
		path  string
		token string
	}{
		{name: "identity without token", path: "/admin/repair/identity"},
		{name: "password without token", path: "/admin/repair/password"},
		{name: "password with wrong token", path: "/admin/repair/password", token: "guess"},
		{name: "legacy identity route", path: "/auth/repair/identity"},
		{name: "legacy password route", path: "/auth/repair/password"},
	}
	for _, tt := range tests {
		s.Run(tt.name, func() {
			req := testutil.NewJSONRequest(s.T(), http.MethodPost, tt.path, credentials("attacker-pw"))
			if tt.token != "" {
				req = testutil.WithAdminToken(req, tt.token)
			}
			rr := testutil.DoRequest(s.router, req)

			s.NotEqual(http.StatusOK, rr.Code)
			s.NotEqual(http.StatusAccepted, rr.Code)
			s.NotContains(rr.Body.String(), `"token"`)
			s.Empty(rr.Result().Cookies())
		})
	}
}

func (s *HandlerSuite) TestRepairPassword_RequiresAdminToken() {
	rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodPost, "/admin/repair/password", credentials("attacker-pw")))
	testutil.AssertStatusAndError(s.T(), rr, http.StatusUnauthorized, "unauthorized")
}

func (s *HandlerSuite) TestRepairProfile_RequiresSession() {
	rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodPost, "/auth/repair/profile", registerBody("individual")))
	s.Equal(http.StatusUnauthorized, rr.Code)
}

func (s *HandlerSuite) TestRepairProfile_UsesSessionEmail() {
	s.service.EXPECT().RepairCreateProfile(gomock.Any(), testEmail, gomock.Any()).DoAndReturn(
		func(_ any, email string, fields models.ProfileFields) (*models.ProfileRecord, error) {
			s.Equal(email, fields.Email)
			s.Equal("Doe", fields.LastName)
			return s.profile(), nil
		})

	body := map[string]any{
		"first_name": "Jane",
		"last_name":  "Doe",
		"address":    map[string]string{"country": "NL"},
	}
	req := testutil.WithBearer(testutil.NewJSONRequest(s.T(), http.MethodPost, "/auth/repair/profile", body), s.bearer())
	rr := testutil.DoRequest(s.router, req)

	s.Require().Equal(http.StatusCreated, rr.Code, rr.Body.String())
	resp := testutil.UnmarshalResponse[ProfileResponse](s.T(), rr)
	s.Equal("profile-1", resp.ID)
}

func (s *HandlerSuite) TestRepairProfile_RejectsEmailInBody() {
	body := map[string]any{"email": "other@example.com", "first_name": "Jane", "last_name": "Doe"}
	req := testutil.WithBearer(testutil.NewJSONRequest(s.T(), http.MethodPost, "/auth/repair/profile", body), s.bearer())
	rr := testutil.DoRequest(s.router, req)

	testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "bad_request")
}

func (s *HandlerSuite) TestMe() {
	s.service.EXPECT().FindProfile(gomock.Any(), testEmail).
		Return(nil, dErrors.New(dErrors.CodeNotFound, "no profile"))

	req := testutil.WithBearer(testutil.NewJSONRequest(s.T(), http.MethodGet, "/auth/me", nil), s.bearer())
	rr := testutil.DoRequest(s.router, req)

	s.Require().Equal(http.StatusOK, rr.Code)
	resp := testutil.UnmarshalResponse[LoginResponse](s.T(), rr)
	s.True(resp.ProfileMissing)
	s.Equal("acc-1", resp.Session.AccountID)
	s.Empty(resp.Session.Token)
}

// -----------------------------------------------------------------------------
// Admin
// -----------------------------------------------------------------------------

func (s *HandlerSuite) TestDiagnose_RequiresAdminToken() {
	rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodGet, "/admin/diagnose?email="+testEmail, nil))
	s.Equal(http.StatusUnauthorized, rr.Code)
}

func (s *HandlerSuite) TestDiagnose() {
	s.service.EXPECT().Diagnose(gomock.Any(), testEmail).Return(&models.Diagnosis{
		Email:   testEmail,
		State:   models.StateProfileOnly,
		Profile: s.profile(),
	}, nil)

	req := testutil.WithAdminToken(testutil.NewJSONRequest(s.T(), http.MethodGet, "/admin/diagnose?email="+testEmail, nil), adminToken)
	rr := testutil.DoRequest(s.router, req)

	s.Require().Equal(http.StatusOK, rr.Code)
	resp := testutil.UnmarshalResponse[DiagnoseResponse](s.T(), rr)
	s.Equal("profile_only", resp.State)
	s.Equal("profile-1", resp.ProfileID)
}

func (s *HandlerSuite) TestDiagnose_MissingEmail() {
	req := testutil.WithAdminToken(testutil.NewJSONRequest(s.T(), http.MethodGet, "/admin/diagnose", nil), adminToken)
	rr := testutil.DoRequest(s.router, req)
	testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "bad_request")
}

func (s *HandlerSuite) TestRegister_TokenUsesRequestClock() {
	pinned := s.now.Add(-30 * time.Minute)
	issuer := mocks.NewMockTokenIssuer(s.ctrl)
	h := New(s.service, issuer, nil, slog.New(slog.NewTextHandler(io.Discard, nil)), Config{SessionTTL: time.Hour})
	s.service.EXPECT().Register(gomock.Any(), gomock.Any(), "correct-horse").
		Return(models.Authenticated(s.session(), s.profile()), nil)
	issuer.EXPECT().IssueSessionToken(gomock.Any(), "profile-1", pinned, time.Hour).
		Return("signed", pinned.Add(time.Hour), nil)

	req := testutil.WithRequestTime(testutil.NewJSONRequest(s.T(), http.MethodPost, "/auth/register", registerBody("individual")), pinned)
	rr := testutil.DoRequest(http.HandlerFunc(h.HandleRegister), req)

	s.Require().Equal(http.StatusCreated, rr.Code)
	resp := testutil.UnmarshalResponse[RegisterResponse](s.T(), rr)
	s.Equal("signed", resp.Session.Token)
}

func (s *HandlerSuite) TestHandleMe_WithProfile() {
	h := New(s.service, s.tokens, nil, slog.New(slog.NewTextHandler(io.Discard, nil)), Config{})
	s.service.EXPECT().FindProfile(gomock.Any(), testEmail).Return(s.profile(), nil)

	req := testutil.WithSession(testutil.NewJSONRequest(s.T(), http.MethodGet, "/auth/me", nil), "acc-1", testEmail)
	rr := testutil.DoRequest(http.HandlerFunc(h.HandleMe), req)

	s.Require().Equal(http.StatusOK, rr.Code)
	resp := testutil.UnmarshalResponse[LoginResponse](s.T(), rr)
	s.False(resp.ProfileMissing)
	s.Equal("Jane", resp.Profile.FirstName)
}

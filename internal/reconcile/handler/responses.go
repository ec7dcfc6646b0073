package handler

import (
	"time"

	"storefront/internal/reconcile/models"
)

// SessionResponse is the storefront session minted after a successful sign-in.
type SessionResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	AccountID string    `json:"account_id"`
	Email     string    `json:"email"`
}

// ProfileResponse is the customer-facing view of a profile record.
type ProfileResponse struct {
	ID          string         `json:"id"`
	Email       string         `json:"email"`
	AccountType string         `json:"account_type"`
	FirstName   string         `json:"first_name,omitempty"`
	LastName    string         `json:"last_name,omitempty"`
	CompanyName string         `json:"company_name,omitempty"`
	VATNumber   string         `json:"vat_number,omitempty"`
	Phone       string         `json:"phone,omitempty"`
	Address     models.Address `json:"address"`
	Status      string         `json:"status"`
	CreatedAt   time.Time      `json:"created_at"`
}

// LoginResponse merges the identity session with the business profile.
// ProfileMissing tells the UI to offer the profile repair form.
type LoginResponse struct {
	Session        SessionResponse  `json:"session"`
	Profile        *ProfileResponse `json:"profile,omitempty"`
	ProfileMissing bool             `json:"profile_missing"`
}

// RegisterResponse is the HTTP response for POST /auth/register.
type RegisterResponse struct {
	Outcome             string           `json:"outcome"`
	AccountCreated      bool             `json:"account_created"`
	RequiresManualLogin bool             `json:"requires_manual_login"`
	Reason              string           `json:"reason,omitempty"`
	Profile             *ProfileResponse `json:"profile"`
	Session             *SessionResponse `json:"session,omitempty"`
}

// RepairIdentityResponse is the HTTP response for POST /admin/repair/identity.
type RepairIdentityResponse struct {
	AccountID string `json:"account_id"`
	Email     string `json:"email"`
}

// RepairPasswordResponse is the HTTP response for POST /admin/repair/password.
// When RequiresRecoveryFlow is set the customer must follow the emailed link.
type RepairPasswordResponse struct {
	RequiresRecoveryFlow bool       `json:"requires_recovery_flow"`
	RecoveryExpiresAt    *time.Time `json:"recovery_expires_at,omitempty"`
	AccountID            string     `json:"account_id,omitempty"`
	ProfileID            string     `json:"profile_id,omitempty"`
}

// DiagnoseResponse is the HTTP response for GET /admin/diagnose.
type DiagnoseResponse struct {
	Email     string `json:"email"`
	State     string `json:"state"`
	ProfileID string `json:"profile_id,omitempty"`
}

func toProfileResponse(p *models.ProfileRecord) *ProfileResponse {
	if p == nil {
		return nil
	}
	return &ProfileResponse{
		ID:          p.ID,
		Email:       p.Email,
		AccountType: string(p.AccountType),
		FirstName:   p.FirstName,
		LastName:    p.LastName,
		CompanyName: p.CompanyName,
		VATNumber:   p.VATNumber,
		Phone:       p.Phone,
		Address:     p.Address,
		Status:      string(p.Status),
		CreatedAt:   p.CreatedAt,
	}
}

func toDiagnoseResponse(d *models.Diagnosis) *DiagnoseResponse {
	resp := &DiagnoseResponse{Email: d.Email, State: d.State.String()}
	if d.Profile != nil {
		resp.ProfileID = d.Profile.ID
	}
	return resp
}

package handler

import (
	"strings"

	"storefront/internal/reconcile/models"
	dErrors "storefront/pkg/domain-errors"
)

const maxFieldLength = 256

func tooLong(values ...string) bool {
	for _, v := range values {
		if len(v) > maxFieldLength {
			return true
		}
	}
	return false
}

// CredentialsRequest is the body of login and of the identity and password repairs.
type CredentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate checks presence and size only; email syntax and password policy
// are enforced by the service.
func (r *CredentialsRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	if tooLong(r.Email, r.Password) {
		return dErrors.New(dErrors.CodeValidation, "fields must be at most 256 characters")
	}
	if strings.TrimSpace(r.Email) == "" {
		return dErrors.New(dErrors.CodeValidation, "email is required")
	}
	if r.Password == "" {
		return dErrors.New(dErrors.CodeValidation, "password is required")
	}
	return nil
}

// AddressRequest is the postal address portion of a profile form.
type AddressRequest struct {
	Street     string `json:"street"`
	City       string `json:"city"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
}

// ProfileRequest carries the business fields of the signup and profile repair forms.
type ProfileRequest struct {
	AccountType string         `json:"account_type"`
	FirstName   string         `json:"first_name"`
	LastName    string         `json:"last_name"`
	CompanyName string         `json:"company_name"`
	VATNumber   string         `json:"vat_number"`
	Phone       string         `json:"phone"`
	Address     AddressRequest `json:"address"`
}

// Validate trims the form and parses the account type.
func (r *ProfileRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	if tooLong(r.FirstName, r.LastName, r.CompanyName, r.VATNumber, r.Phone,
		r.Address.Street, r.Address.City, r.Address.PostalCode, r.Address.Country) {
		return dErrors.New(dErrors.CodeValidation, "fields must be at most 256 characters")
	}

	r.AccountType = strings.ToLower(strings.TrimSpace(r.AccountType))
	if r.AccountType == "" {
		r.AccountType = string(models.AccountTypeIndividual)
	}
	if !models.AccountType(r.AccountType).IsValid() {
		return dErrors.New(dErrors.CodeValidation, "account_type must be individual or professional")
	}

	r.FirstName = strings.TrimSpace(r.FirstName)
	r.LastName = strings.TrimSpace(r.LastName)
	r.CompanyName = strings.TrimSpace(r.CompanyName)
	r.VATNumber = strings.TrimSpace(r.VATNumber)
	r.Phone = strings.TrimSpace(r.Phone)
	r.Address.Country = strings.ToUpper(strings.TrimSpace(r.Address.Country))
	return nil
}

// Fields converts the form into service input for email.
func (r *ProfileRequest) Fields(email string) models.ProfileFields {
	return models.ProfileFields{
		Email:       email,
		AccountType: models.AccountType(r.AccountType),
		FirstName:   r.FirstName,
		LastName:    r.LastName,
		CompanyName: r.CompanyName,
		VATNumber:   r.VATNumber,
		Phone:       r.Phone,
		Address: models.Address{
			Street:     strings.TrimSpace(r.Address.Street),
			City:       strings.TrimSpace(r.Address.City),
			PostalCode: strings.TrimSpace(r.Address.PostalCode),
			Country:    r.Address.Country,
		},
	}
}

// RegisterRequest is the HTTP request body for POST /auth/register.
type RegisterRequest struct {
	CredentialsRequest
	ProfileRequest
}

func (r *RegisterRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	if err := r.CredentialsRequest.Validate(); err != nil {
		return err
	}
	return r.ProfileRequest.Validate()
}

package models

import (
	"strings"

	"github.com/asaskevich/govalidator"

	dErrors "storefront/pkg/domain-errors"
)

// MinPasswordLength matches the identity service's own policy so we reject
// early instead of leaving a half-created registration.
const MinPasswordLength = 8

// ValidateEmail checks the join key shape only; it never alters the value.
func ValidateEmail(email string) error {
	if !govalidator.StringLength(email, "3", "254") || !govalidator.IsEmail(email) {
		return dErrors.New(dErrors.CodeValidation, "invalid email")
	}
	return nil
}

// ValidatePassword enforces the minimum credential policy.
func ValidatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return dErrors.New(dErrors.CodeValidation, "password must be at least 8 characters")
	}
	if len(password) > 256 {
		return dErrors.New(dErrors.CodeValidation, "password too long")
	}
	return nil
}

// Validate checks profile fields, including the name fields required by the account type.
func (f ProfileFields) Validate() error {
	if err := ValidateEmail(f.Email); err != nil {
		return err
	}
	if !f.AccountType.IsValid() {
		return dErrors.New(dErrors.CodeValidation, "account_type must be 'individual' or 'professional'")
	}

	switch f.AccountType {
	case AccountTypeIndividual:
		if strings.TrimSpace(f.FirstName) == "" || strings.TrimSpace(f.LastName) == "" {
			return dErrors.New(dErrors.CodeValidation, "first_name and last_name are required for individual accounts")
		}
	case AccountTypeProfessional:
		if strings.TrimSpace(f.CompanyName) == "" {
			return dErrors.New(dErrors.CodeValidation, "company_name is required for professional accounts")
		}
	}

	for name, v := range map[string]string{
		"first_name":   f.FirstName,
		"last_name":    f.LastName,
		"company_name": f.CompanyName,
	} {
		if !govalidator.StringLength(v, "0", "120") {
			return dErrors.New(dErrors.CodeValidation, name+" is too long")
		}
	}

	if f.Phone != "" && !isPhone(f.Phone) {
		return dErrors.New(dErrors.CodeValidation, "invalid phone")
	}
	if f.Address.Country != "" && !govalidator.IsISO3166Alpha2(f.Address.Country) {
		return dErrors.New(dErrors.CodeValidation, "address.country must be an ISO 3166 alpha-2 code")
	}
	return nil
}

func isPhone(s string) bool {
	digits := strings.NewReplacer(" ", "", "-", "", "(", "", ")", "", ".", "").Replace(s)
	digits = strings.TrimPrefix(digits, "+")
	return govalidator.IsNumeric(digits) && govalidator.StringLength(digits, "6", "15")
}

package models

import (
	"strings"
	"time"
)

// AccountType decides which name fields a profile must carry.
type AccountType string

const (
	AccountTypeIndividual   AccountType = "individual"
	AccountTypeProfessional AccountType = "professional"
)

// IsValid checks if the account type is one of the supported enum values.
func (t AccountType) IsValid() bool {
	return t == AccountTypeIndividual || t == AccountTypeProfessional
}

// ProfileStatus is the business status of a customer profile.
type ProfileStatus string

const (
	ProfileStatusActive   ProfileStatus = "active"
	ProfileStatusDisabled ProfileStatus = "disabled"
)

// Address is the customer's postal address.
type Address struct {
	Street     string `bson:"street" json:"street"`
	City       string `bson:"city" json:"city"`
	PostalCode string `bson:"postal_code" json:"postal_code"`
	Country    string `bson:"country" json:"country"`
}

// ProfileFields are the business fields a customer supplies at signup or
// when a missing profile is recreated.
type ProfileFields struct {
	Email       string      `json:"email"`
	AccountType AccountType `json:"account_type"`
	FirstName   string      `json:"first_name,omitempty"`
	LastName    string      `json:"last_name,omitempty"`
	CompanyName string      `json:"company_name,omitempty"`
	VATNumber   string      `json:"vat_number,omitempty"`
	Phone       string      `json:"phone,omitempty"`
	Address     Address     `json:"address"`
}

// ProfileRecord is the system of record for customer business data, keyed by email.
type ProfileRecord struct {
	ID          string        `bson:"_id" json:"id"`
	Email       string        `bson:"email" json:"email"`
	AccountType AccountType   `bson:"account_type" json:"account_type"`
	FirstName   string        `bson:"first_name,omitempty" json:"first_name,omitempty"`
	LastName    string        `bson:"last_name,omitempty" json:"last_name,omitempty"`
	CompanyName string        `bson:"company_name,omitempty" json:"company_name,omitempty"`
	VATNumber   string        `bson:"vat_number,omitempty" json:"vat_number,omitempty"`
	Phone       string        `bson:"phone,omitempty" json:"phone,omitempty"`
	Address     Address       `bson:"address" json:"address"`
	Status      ProfileStatus `bson:"status" json:"status"`
	// LegacyCredentialDigest is informational only; the identity service never reads it.
	LegacyCredentialDigest string    `bson:"legacy_credential_digest,omitempty" json:"-"`
	CreatedAt              time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt              time.Time `bson:"updated_at" json:"updated_at"`
}

// DisplayName is the name pushed to the identity service.
// Returns "" when the profile has no usable name fields.
func (p *ProfileRecord) DisplayName() string {
	switch p.AccountType {
	case AccountTypeProfessional:
		if p.CompanyName != "" {
			return p.CompanyName
		}
	case AccountTypeIndividual:
		return strings.TrimSpace(p.FirstName + " " + p.LastName)
	}
	return ""
}

// ProfilePatch carries the fields an update may change. Nil means unchanged.
type ProfilePatch struct {
	Phone     *string
	Address   *Address
	Status    *ProfileStatus
	UpdatedAt time.Time
}

// IdentityAccount is the external identity service's view of a customer.
type IdentityAccount struct {
	ID          string
	Email       string
	DisplayName string
}

// Session is the opaque handle returned by the identity service on a
// successful credential check.
type Session struct {
	ID        string    `json:"id"`
	AccountID string    `json:"account_id"`
	Email     string    `json:"email"`
	ExpiresAt time.Time `json:"expires_at"`
}

// RecoveryToken identifies an out-of-band credential recovery the identity
// service has started. The secret itself is only ever delivered by email.
type RecoveryToken struct {
	ID        string    `json:"id"`
	AccountID string    `json:"account_id"`
	ExpiresAt time.Time `json:"expires_at"`
}

// IdentityLink maps a profile to the identity account created for it.
type IdentityLink struct {
	ProfileID  string
	IdentityID string
	Email      string
	CreatedAt  time.Time
}

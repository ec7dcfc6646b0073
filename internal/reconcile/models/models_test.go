package models

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "storefront/pkg/domain-errors"
)

func TestStateFrom(t *testing.T) {
	assert.Equal(t, StateAbsent, StateFrom(false, false))
	assert.Equal(t, StateProfileOnly, StateFrom(true, false))
	assert.Equal(t, StateIdentityOnly, StateFrom(false, true))
	assert.Equal(t, StateBoth, StateFrom(true, true))

	for _, p := range []bool{true, false} {
		for _, i := range []bool{true, false} {
			assert.True(t, StateFrom(p, i).IsValid())
		}
	}
	assert.False(t, DiagnosticState("partial").IsValid())
}

func TestProfileRecord_DisplayName(t *testing.T) {
	ind := &ProfileRecord{AccountType: AccountTypeIndividual, FirstName: "Jane", LastName: "Doe"}
	assert.Equal(t, "Jane Doe", ind.DisplayName())

	pro := &ProfileRecord{AccountType: AccountTypeProfessional, CompanyName: "Acme BV"}
	assert.Equal(t, "Acme BV", pro.DisplayName())

	empty := &ProfileRecord{AccountType: AccountTypeProfessional}
	assert.Equal(t, "", empty.DisplayName())
}

func TestProfileFields_Validate(t *testing.T) {
	valid := ProfileFields{
		Email:       "jane@example.com",
		AccountType: AccountTypeIndividual,
		FirstName:   "Jane",
		LastName:    "Doe",
		Phone:       "+31 (0)20-123 4567",
		Address:     Address{Street: "Dam 1", City: "Amsterdam", PostalCode: "1012JS", Country: "NL"},
	}
	require.NoError(t, valid.Validate())

	tests := []struct {
		name   string
		mutate func(f *ProfileFields)
	}{
		{"bad email", func(f *ProfileFields) { f.Email = "not-an-email" }},
		{"unknown account type", func(f *ProfileFields) { f.AccountType = "reseller" }},
		{"individual without last name", func(f *ProfileFields) { f.LastName = " " }},
		{"professional without company", func(f *ProfileFields) {
			f.AccountType = AccountTypeProfessional
			f.CompanyName = ""
		}},
		{"bad phone", func(f *ProfileFields) { f.Phone = "call me" }},
		{"bad country", func(f *ProfileFields) { f.Address.Country = "Netherlands" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := valid
			tt.mutate(&f)
			err := f.Validate()
			require.Error(t, err)
			assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
		})
	}

	t.Run("professional with company only", func(t *testing.T) {
		f := ProfileFields{Email: "buyer@acme.test", AccountType: AccountTypeProfessional, CompanyName: "Acme"}
		assert.NoError(t, f.Validate())
	})
}

func TestValidatePassword(t *testing.T) {
	assert.Error(t, ValidatePassword("short"))
	assert.NoError(t, ValidatePassword("long enough"))
}

func TestSyncPasswordRequiredError(t *testing.T) {
	err := error(&SyncPasswordRequiredError{Email: "a@x.com", Password: "hunter22"})
	assert.True(t, dErrors.HasCode(err, dErrors.CodeSyncPasswordRequired))
	assert.NotContains(t, err.Error(), "hunter22")

	var spr *SyncPasswordRequiredError
	require.True(t, errors.As(err, &spr))
	assert.Equal(t, "a@x.com", spr.Email)
}

func TestOutcomes(t *testing.T) {
	p := &ProfileRecord{ID: "p1"}
	d := Deferred(p, ReasonIdentityCreationFailed)
	assert.Equal(t, RegistrationDeferred, d.Outcome)
	assert.True(t, d.AccountCreated)
	assert.True(t, d.RequiresManualLogin)
	assert.Nil(t, d.Session)

	a := Authenticated(&Session{ID: "s1"}, p)
	assert.Equal(t, RegistrationAuthenticated, a.Outcome)
	assert.False(t, a.RequiresManualLogin)
}

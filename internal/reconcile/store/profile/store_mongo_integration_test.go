//go:build integration

package profile_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"storefront/internal/reconcile/models"
	"storefront/internal/reconcile/store/profile"
	"storefront/pkg/platform/sentinel"
	"storefront/pkg/testutil/containers"
)

type MongoStoreSuite struct {
	suite.Suite
	mongo *containers.MongoContainer
	store *profile.MongoStore
}

func TestMongoStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(MongoStoreSuite))
}

func (s *MongoStoreSuite) SetupSuite() {
	s.mongo = containers.GetManager().GetMongo(s.T())
}

func (s *MongoStoreSuite) SetupTest() {
	ctx := context.Background()
	db, err := s.mongo.Database(ctx, "storefront_test")
	s.Require().NoError(err)
	s.store = profile.NewMongo(db)
	s.Require().NoError(s.store.EnsureIndexes(ctx))
}

func (s *MongoStoreSuite) newProfile(id, email string) *models.ProfileRecord {
	now := time.Now().UTC().Truncate(time.Millisecond)
	return &models.ProfileRecord{
		ID:          id,
		Email:       email,
		AccountType: models.AccountTypeIndividual,
		FirstName:   "Ann",
		LastName:    "Smith",
		Address:     models.Address{City: "Utrecht", Country: "NL"},
		Status:      models.ProfileStatusActive,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func (s *MongoStoreSuite) TestCreateFindRoundTrip() {
	ctx := context.Background()
	_, err := s.store.Create(ctx, s.newProfile("p1", "ann@x.com"))
	s.Require().NoError(err)

	got, err := s.store.FindByEmail(ctx, "ann@x.com")
	s.Require().NoError(err)
	s.Equal("p1", got.ID)
	s.Equal("Ann Smith", got.DisplayName())
	s.Equal("Utrecht", got.Address.City)
}

func (s *MongoStoreSuite) TestUniqueEmail() {
	ctx := context.Background()
	_, err := s.store.Create(ctx, s.newProfile("p1", "ann@x.com"))
	s.Require().NoError(err)

	_, err = s.store.Create(ctx, s.newProfile("p2", "ann@x.com"))
	s.ErrorIs(err, sentinel.ErrConflict)
}

func (s *MongoStoreSuite) TestFindMissing() {
	_, err := s.store.FindByEmail(context.Background(), "nobody@x.com")
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *MongoStoreSuite) TestUpdate() {
	ctx := context.Background()
	_, err := s.store.Create(ctx, s.newProfile("p1", "ann@x.com"))
	s.Require().NoError(err)

	phone := "+31301234567"
	at := time.Now().UTC().Truncate(time.Millisecond).Add(time.Hour)
	got, err := s.store.Update(ctx, "p1", models.ProfilePatch{Phone: &phone, UpdatedAt: at})
	s.Require().NoError(err)
	s.Equal(phone, got.Phone)
	s.True(at.Equal(got.UpdatedAt))

	_, err = s.store.Update(ctx, "missing", models.ProfilePatch{Phone: &phone})
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *MongoStoreSuite) TestProbe() {
	s.NoError(s.store.Probe(context.Background()))
}

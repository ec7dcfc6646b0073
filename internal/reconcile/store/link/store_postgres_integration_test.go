//go:build integration

package link_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"storefront/internal/reconcile/models"
	"storefront/internal/reconcile/store/link"
	"storefront/pkg/platform/sentinel"
	"storefront/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *link.PostgresStore
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.postgres = containers.GetManager().GetPostgres(s.T())
	s.Require().NoError(link.EnsureSchema(context.Background(), s.postgres.DB))
	s.Require().NoError(link.EnsureSchema(context.Background(), s.postgres.DB), "schema is re-runnable")
	s.store = link.NewPostgres(s.postgres.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(context.Background(), "identity_links"))
}

func (s *PostgresStoreSuite) TestSaveAndFind() {
	ctx := context.Background()
	created := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)

	s.Require().NoError(s.store.Save(ctx, models.IdentityLink{
		ProfileID: "p1", IdentityID: "acc-1", Email: "a@x.com", CreatedAt: created,
	}))

	got, err := s.store.FindByProfileID(ctx, "p1")
	s.Require().NoError(err)
	s.Equal("acc-1", got.IdentityID)
	s.Equal("a@x.com", got.Email)
	s.True(created.Equal(got.CreatedAt))
}

func (s *PostgresStoreSuite) TestSaveReplacesStaleLink() {
	ctx := context.Background()
	s.Require().NoError(s.store.Save(ctx, models.IdentityLink{ProfileID: "p1", IdentityID: "acc-1", Email: "a@x.com", CreatedAt: time.Now()}))
	s.Require().NoError(s.store.Save(ctx, models.IdentityLink{ProfileID: "p1", IdentityID: "acc-2", Email: "a@x.com", CreatedAt: time.Now()}))

	got, err := s.store.FindByProfileID(ctx, "p1")
	s.Require().NoError(err)
	s.Equal("acc-2", got.IdentityID)
}

func (s *PostgresStoreSuite) TestFindMissing() {
	_, err := s.store.FindByProfileID(context.Background(), "nope")
	s.ErrorIs(err, sentinel.ErrNotFound)
}

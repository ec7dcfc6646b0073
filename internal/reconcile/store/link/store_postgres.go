package link

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"storefront/internal/reconcile/models"
	"storefront/pkg/platform/sentinel"
)

// Schema creates the link table. profile_id is the primary key so a profile
// is linked to at most one identity account.
const Schema = `
CREATE TABLE IF NOT EXISTS identity_links (
	profile_id  TEXT PRIMARY KEY,
	identity_id TEXT NOT NULL,
	email       TEXT NOT NULL,
	created_at  TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS identity_links_identity_id_idx ON identity_links (identity_id);
`

// PostgresStore persists profile to identity links in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// EnsureSchema applies Schema. Safe to run on every start.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("ensure identity_links schema: %w", err)
	}
	return nil
}

// Save upserts by profile id; a newer link replaces the recorded one.
func (s *PostgresStore) Save(ctx context.Context, link models.IdentityLink) error {
	if link.ProfileID == "" || link.IdentityID == "" {
		return sentinel.ErrInvalid
	}
	query := `
		INSERT INTO identity_links (profile_id, identity_id, email, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (profile_id) DO UPDATE
		SET identity_id = EXCLUDED.identity_id,
			email = EXCLUDED.email,
			created_at = EXCLUDED.created_at
	`
	_, err := s.db.ExecContext(ctx, query, link.ProfileID, link.IdentityID, link.Email, link.CreatedAt)
	if err != nil {
		return fmt.Errorf("save identity link: %w: %w", sentinel.ErrUnavailable, err)
	}
	return nil
}

func (s *PostgresStore) FindByProfileID(ctx context.Context, profileID string) (*models.IdentityLink, error) {
	query := `
		SELECT profile_id, identity_id, email, created_at
		FROM identity_links
		WHERE profile_id = $1
	`
	var link models.IdentityLink
	err := s.db.QueryRowContext(ctx, query, profileID).Scan(
		&link.ProfileID,
		&link.IdentityID,
		&link.Email,
		&link.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find identity link: %w: %w", sentinel.ErrUnavailable, err)
	}
	return &link, nil
}

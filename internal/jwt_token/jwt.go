package jwttoken

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"storefront/internal/reconcile/models"
	dErrors "storefront/pkg/domain-errors"
)

// SessionClaims are carried by the storefront session token. The provider
// session id lets the storefront tie the token back to the identity service.
type SessionClaims struct {
	AccountID         string `json:"account_id"`
	ProviderSessionID string `json:"provider_session_id"`
	Email             string `json:"email"`
	ProfileID         string `json:"profile_id,omitempty"`
	jwt.RegisteredClaims
}

// JWTService mints and validates storefront session tokens.
type JWTService struct {
	signingKey []byte
	issuer     string
	audience   string
}

func NewJWTService(signingKey string, issuer string, audience string) *JWTService {
	return &JWTService{
		signingKey: []byte(signingKey),
		issuer:     issuer,
		audience:   audience,
	}
}

// IssueSessionToken wraps an identity service session. The token never
// outlives the provider session it was minted from.
func (s *JWTService) IssueSessionToken(
	session *models.Session,
	profileID string,
	now time.Time,
	ttl time.Duration) (string, time.Time, error) {
	if session == nil {
		return "", time.Time{}, errors.New("session is required")
	}
	expiresAt := now.Add(ttl)
	if !session.ExpiresAt.IsZero() && session.ExpiresAt.Before(expiresAt) {
		expiresAt = session.ExpiresAt
	}

	newToken := jwt.NewWithClaims(jwt.SigningMethodHS256, SessionClaims{
		AccountID:         session.AccountID,
		ProviderSessionID: session.ID,
		Email:             session.Email,
		ProfileID:         profileID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   session.AccountID,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    s.issuer,
			Audience:  []string{s.audience},
			ID:        uuid.NewString(),
		},
	})

	signedToken, err := newToken.SignedString(s.signingKey)
	if err != nil {
		return "", time.Time{}, err
	}
	return signedToken, expiresAt, nil
}

func (s *JWTService) ValidateToken(tokenString string) (*SessionClaims, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &SessionClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return s.signingKey, nil
	}, jwt.WithIssuer(s.issuer), jwt.WithAudience(s.audience))

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, dErrors.New(dErrors.CodeUnauthorized, "token has expired")
		}
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token")
	}

	if !parsed.Valid {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token")
	}

	claims, ok := parsed.Claims.(*SessionClaims)
	if !ok {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token claims")
	}
	return claims, nil
}

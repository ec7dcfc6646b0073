package jwttoken

import (
	authmw "storefront/pkg/platform/middleware/auth"
)

func ToMiddlewareClaims(claims *SessionClaims) *authmw.SessionClaims {
	return &authmw.SessionClaims{
		AccountID: claims.AccountID,
		Email:     claims.Email,
		ProfileID: claims.ProfileID,
		JTI:       claims.ID,
	}
}

// JWTServiceAdapter satisfies authmw.TokenValidator.
type JWTServiceAdapter struct {
	service *JWTService
}

func NewJWTServiceAdapter(service *JWTService) *JWTServiceAdapter {
	return &JWTServiceAdapter{service: service}
}

func (a *JWTServiceAdapter) ValidateToken(tokenString string) (*authmw.SessionClaims, error) {
	claims, err := a.service.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}
	return ToMiddlewareClaims(claims), nil
}

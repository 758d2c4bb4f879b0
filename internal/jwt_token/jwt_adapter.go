package jwttoken

import (
	id "floodrelief/pkg/domain"
	dErrors "floodrelief/pkg/domain-errors"
	authmw "floodrelief/pkg/platform/middleware/auth"
)

// JWTServiceAdapter exposes the service through the middleware's validator interface.
type JWTServiceAdapter struct {
	service *JWTService
}

func NewJWTServiceAdapter(service *JWTService) *JWTServiceAdapter {
	return &JWTServiceAdapter{service: service}
}

func (a *JWTServiceAdapter) ValidateToken(tokenString string) (*authmw.TokenClaims, error) {
	claims, err := a.service.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}
	sessionID, err := id.ParseSessionID(claims.SessionID)
	if err != nil {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token claims")
	}
	return &authmw.TokenClaims{SessionID: sessionID, JTI: claims.ID}, nil
}

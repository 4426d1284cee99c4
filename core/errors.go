package core

import "errors"

var (
	ErrTokenExpired          = errors.New("token has expired")
	ErrTokenRevoked          = errors.New("token has been revoked")
	ErrInvalidToken          = errors.New("invalid token")
	ErrInvalidClaims         = errors.New("invalid claims")
	ErrInvalidSigningMethod  = errors.New("unexpected signing method")
	ErrRevocationUnavailable = errors.New("revocation store unavailable")
	ErrNotFound              = errors.New("not found")
	ErrInvalidArgument       = errors.New("invalid argument")
)

package tokenizer

import "github.com/golang-jwt/jwt/v5"

// AccessClaims combines standard claims with the caller's authority
type AccessClaims struct {
	jwt.RegisteredClaims
	Role string `json:"role"`
}

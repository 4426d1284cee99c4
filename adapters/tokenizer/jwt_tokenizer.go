package tokenizer

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/examportal/backend/core"
	"github.com/examportal/backend/ports"
)

// DefaultIssuer is written to the iss claim when none is configured.
const DefaultIssuer = "examportal"

// JWTTokenizer implements the Tokenizer interface using HS256 JWTs signed
// with a shared secret.
type JWTTokenizer struct {
	secret []byte
	issuer string
	now    func() time.Time
}

// Option configures a JWTTokenizer
type Option func(*JWTTokenizer)

// WithIssuer sets the iss claim written and expected by the tokenizer.
func WithIssuer(issuer string) Option {
	return func(j *JWTTokenizer) { j.issuer = issuer }
}

// WithClock replaces the wall clock used for issuance and expiry checks.
func WithClock(now func() time.Time) Option {
	return func(j *JWTTokenizer) { j.now = now }
}

// NewJWTTokenizer creates a new JWT tokenizer
func NewJWTTokenizer(secret []byte, opts ...Option) ports.Tokenizer {
	j := &JWTTokenizer{
		secret: secret,
		issuer: DefaultIssuer,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(j)
	}
	return j
}

// Issue mints a signed access token for subject.
func (j *JWTTokenizer) Issue(subject, role string, ttl time.Duration) (string, error) {
	if subject == "" {
		return "", fmt.Errorf("empty subject: %w", core.ErrInvalidClaims)
	}

	now := j.now()
	claims := AccessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    j.issuer,
			ID:        uuid.New().String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Role: role,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signedToken, err := token.SignedString(j.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign access token: %w", err)
	}

	return signedToken, nil
}

// ExtractSubject returns the embedded subject without checking the signature.
func (j *JWTTokenizer) ExtractSubject(tokenStr string) (string, bool) {
	claims, err := j.unverified(tokenStr)
	if err != nil || claims.Subject == "" {
		return "", false
	}
	return claims.Subject, true
}

// ExtractRole returns the embedded role claim. Only meaningful after Validate.
func (j *JWTTokenizer) ExtractRole(tokenStr string) (string, error) {
	claims, err := j.unverified(tokenStr)
	if err != nil {
		return "", err
	}
	return claims.Role, nil
}

// ExpiresAt returns the embedded exp claim without checking the signature.
func (j *JWTTokenizer) ExpiresAt(tokenStr string) (time.Time, bool) {
	claims, err := j.unverified(tokenStr)
	if err != nil || claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}

// Validate reports whether the token is authentic, unexpired and issued to
// expectedSubject. Any parse failure counts as invalid.
func (j *JWTTokenizer) Validate(tokenStr, expectedSubject string) bool {
	claims, err := j.Verify(tokenStr)
	if err != nil {
		return false
	}
	return claims.Subject == expectedSubject
}

// Verify checks signature, algorithm, issuer and expiry and returns the claims.
func (j *JWTTokenizer) Verify(tokenStr string) (*core.Claims, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuer(j.issuer),
		jwt.WithTimeFunc(j.now),
	)

	token, err := parser.ParseWithClaims(tokenStr, &AccessClaims{}, func(token *jwt.Token) (interface{}, error) {
		// Validate the signing method
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("%w: %v", core.ErrInvalidSigningMethod, token.Header["alg"])
		}
		return j.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, core.ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", core.ErrInvalidToken, err)
	}

	if !token.Valid {
		return nil, core.ErrInvalidToken
	}

	claims, ok := token.Claims.(*AccessClaims)
	if !ok {
		return nil, core.ErrInvalidClaims
	}

	return toCoreClaims(claims), nil
}

func (j *JWTTokenizer) unverified(tokenStr string) (*AccessClaims, error) {
	claims := &AccessClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tokenStr, claims); err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrInvalidClaims, err)
	}
	return claims, nil
}

func toCoreClaims(claims *AccessClaims) *core.Claims {
	out := &core.Claims{
		ID:      claims.ID,
		Subject: claims.Subject,
		Role:    claims.Role,
	}
	if claims.IssuedAt != nil {
		out.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		out.ExpiresAt = claims.ExpiresAt.Time
	}
	return out
}

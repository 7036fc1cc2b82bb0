// Package swms implements the contractor SWMS submission portal: signed
// access tokens and document intake.
package swms

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrTokenInvalid covers malformed, tampered or wrong-audience tokens.
	ErrTokenInvalid = errors.New("invalid SWMS access token")
	// ErrTokenExpired is returned after the token's expiry has passed.
	ErrTokenExpired = errors.New("expired SWMS access token")
)

const tokenIssuer = "siteward"

// TokenClaims scope a portal token to one contractor and one job site.
type TokenClaims struct {
	ContractorID string `json:"contractor_id"`
	JobSiteID    string `json:"job_site_id"`
	jwt.RegisteredClaims
}

// TokenService issues and validates SWMS portal access tokens.
type TokenService struct {
	secret []byte
	ttl    time.Duration

	// now supplies the current time; tests override it.
	now func() time.Time
}

// NewTokenService creates a TokenService signing with HS256.
func NewTokenService(secret string, ttl time.Duration) *TokenService {
	return &TokenService{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

// Issue mints a token granting document submission for the given
// contractor at the given job site. Returns the token and its expiry.
func (s *TokenService) Issue(contractorID, jobSiteID string) (string, time.Time, error) {
	if contractorID == "" || jobSiteID == "" {
		return "", time.Time{}, fmt.Errorf("contractor ID and job site ID are required")
	}

	now := s.now().UTC()
	expiresAt := now.Add(s.ttl)

	claims := TokenClaims{
		ContractorID: contractorID,
		JobSiteID:    jobSiteID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   contractorID,
			Issuer:    tokenIssuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}

	return signed, expiresAt, nil
}

// Validate parses the token and returns its claims. Expiry maps to
// ErrTokenExpired; every other failure maps to ErrTokenInvalid.
func (s *TokenService) Validate(tokenString string) (*TokenClaims, error) {
	if tokenString == "" {
		return nil, ErrTokenInvalid
	}

	token, err := jwt.ParseWithClaims(tokenString, &TokenClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithIssuer(tokenIssuer), jwt.WithTimeFunc(s.now))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}

	claims, ok := token.Claims.(*TokenClaims)
	if !ok || !token.Valid {
		return nil, ErrTokenInvalid
	}
	if claims.ContractorID == "" || claims.JobSiteID == "" {
		return nil, ErrTokenInvalid
	}

	return claims, nil
}

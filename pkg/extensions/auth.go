package extensions

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrUnauthorized is returned when authentication fails. Implementations
// should wrap this error with additional context.
var ErrUnauthorized = errors.New("unauthorized")

// AuthInfo contains identity information returned after successful
// authentication. UserID is the only required field.
type AuthInfo struct {
	// UserID is the unique identifier for the authenticated user.
	UserID string

	// Roles contains the user's role memberships for authorization
	// decisions. May be empty.
	Roles []string
}

// HasRole checks if the user has a specific role.
func (a *AuthInfo) HasRole(role string) bool {
	for _, r := range a.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// AuthProvider validates authentication tokens and returns user identity.
//
// Implementations must be safe for concurrent use by multiple goroutines.
// Deployments integrate their identity provider (Okta, Azure AD, an internal
// SSO gateway) by implementing this interface; the default JWTAuthProvider
// covers single-instance installs with a shared secret.
type AuthProvider interface {
	// Validate checks if the token is valid and returns the user's identity.
	// Returns ErrUnauthorized (or wrapped) if the token is invalid.
	Validate(ctx context.Context, token string) (*AuthInfo, error)
}

// NopAuthProvider accepts any token and reports a local user. Used in tests
// and trusted local setups only.
type NopAuthProvider struct{}

var _ AuthProvider = (*NopAuthProvider)(nil)

func (p *NopAuthProvider) Validate(_ context.Context, _ string) (*AuthInfo, error) {
	return &AuthInfo{UserID: "local-user", Roles: []string{"admin"}}, nil
}

// =============================================================================
// JWT Provider
// =============================================================================

// DefaultTokenTTL is the lifetime of tokens issued by JWTAuthProvider.
const DefaultTokenTTL = time.Hour

// JWTAuthProvider issues and validates HS256 tokens with a shared secret.
// The username travels in the standard "sub" claim.
type JWTAuthProvider struct {
	secret []byte
	ttl    time.Duration
}

var _ AuthProvider = (*JWTAuthProvider)(nil)

// NewJWTAuthProvider creates a provider signing with the given secret.
// A non-positive ttl falls back to DefaultTokenTTL.
func NewJWTAuthProvider(secret string, ttl time.Duration) *JWTAuthProvider {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &JWTAuthProvider{secret: []byte(secret), ttl: ttl}
}

// Issue creates a signed token for the given username.
func (p *JWTAuthProvider) Issue(username string) (string, error) {
	now := time.Now().UTC()
	claims := jwt.RegisteredClaims{
		Subject:   username,
		ExpiresAt: jwt.NewNumericDate(now.Add(p.ttl)),
		IssuedAt:  jwt.NewNumericDate(now),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(p.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign the token: %w", err)
	}
	return signed, nil
}

// Validate parses and verifies the token, returning the subject as UserID.
func (p *JWTAuthProvider) Validate(_ context.Context, tokenString string) (*AuthInfo, error) {
	token, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{},
		func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
			}
			return p.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	)
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", ErrUnauthorized)
	}

	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok || claims.Subject == "" {
		return nil, fmt.Errorf("token has no subject: %w", ErrUnauthorized)
	}
	return &AuthInfo{UserID: claims.Subject}, nil
}

package security

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultDemoToken is accepted in place of a JWT for local demos
const DefaultDemoToken = "demo-token-odyssey360"

// DemoSubject is the subject reported for the demo token
const DemoSubject = "demo-user"

var (
	ErrMissingToken = errors.New("authorization header is required")
	ErrMalformed    = errors.New("authorization header format must be Bearer {token}")
	ErrInvalidToken = errors.New("could not validate credentials")
)

// Claims identify the caller
type Claims struct {
	Email    string `json:"email,omitempty"`
	DemoMode bool   `json:"demo_mode,omitempty"`
	jwt.RegisteredClaims
}

// Verifier checks bearer tokens
type Verifier struct {
	DemoToken string // Empty disables the demo shortcut
	Secret    []byte // HS256 signing key
}

// NewVerifier creates a verifier
func NewVerifier(demoToken, secret string) *Verifier {
	return &Verifier{DemoToken: demoToken, Secret: []byte(secret)}
}

// BearerToken extracts the token from an Authorization header value
func BearerToken(header string) (string, error) {
	if header == "" {
		return "", ErrMissingToken
	}
	parts := strings.Fields(header)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", ErrMalformed
	}
	return parts[1], nil
}

// Verify validates a token and returns its claims. A token with no subject is rejected.
func (v *Verifier) Verify(token string) (*Claims, error) {
	if token == "" {
		return nil, ErrMissingToken
	}
	if v.DemoToken != "" && token == v.DemoToken {
		return &Claims{
			Email:            "demo@example.com",
			DemoMode:         true,
			RegisteredClaims: jwt.RegisteredClaims{Subject: DemoSubject},
		}, nil
	}
	if len(v.Secret) == 0 {
		return nil, ErrInvalidToken
	}

	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return v.Secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid || claims.Subject == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// VerifyHeader is BearerToken followed by Verify
func (v *Verifier) VerifyHeader(header string) (*Claims, error) {
	token, err := BearerToken(header)
	if err != nil {
		return nil, err
	}
	return v.Verify(token)
}

// Issue signs an HS256 token for subject valid for ttl
func (v *Verifier) Issue(subject string, ttl time.Duration) (string, error) {
	if len(v.Secret) == 0 {
		return "", errors.New("jwt secret is not configured")
	}
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.Secret)
}

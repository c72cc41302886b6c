package token

import (
	"errors"
	"fmt"
	"strings"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
)

const (
	// DefaultTTL matches the 24h lifetime the login endpoint advertises.
	DefaultTTL = 24 * time.Hour

	defaultIssuer   = "cdn-auth-service"
	defaultAudience = "cdn-origin"
)

// Authority issues and validates HS256 bearer tokens. It is the sole arbiter
// of whether a caller is authenticated. An Authority holds no secrets and no
// mutable state; every call is a pure function of its inputs and may run from
// any number of goroutines without coordination.
type Authority struct {
	issuer   string
	audience string
	ttl      time.Duration
}

// Option customizes an Authority.
type Option func(*Authority)

// WithTTL overrides the token lifetime.
func WithTTL(ttl time.Duration) Option {
	return func(a *Authority) {
		if ttl > 0 {
			a.ttl = ttl
		}
	}
}

// WithIssuer overrides the iss claim stamped on issued tokens.
func WithIssuer(issuer string) Option {
	return func(a *Authority) {
		if issuer != "" {
			a.issuer = issuer
		}
	}
}

// WithAudience overrides the aud claim stamped on issued tokens.
func WithAudience(audience string) Option {
	return func(a *Authority) {
		if audience != "" {
			a.audience = audience
		}
	}
}

// NewAuthority builds an authority with the default 24h lifetime unless
// overridden.
func NewAuthority(opts ...Option) *Authority {
	a := &Authority{
		issuer:   defaultIssuer,
		audience: defaultAudience,
		ttl:      DefaultTTL,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Claims is the token payload. Header and payload are integrity-protected,
// not encrypted; anything placed here is readable by the bearer.
type Claims struct {
	jwt.RegisteredClaims
}

// Issue signs a token for subject valid from now until now+TTL. The subject
// must be non-empty and the secret non-empty; issuance touches no external
// systems.
func (a *Authority) Issue(subject string, secret []byte, now time.Time) (string, time.Time, error) {
	if strings.TrimSpace(subject) == "" {
		return "", time.Time{}, ErrInvalidSubject
	}
	if len(secret) == 0 {
		return "", time.Time{}, fmt.Errorf("issue token: empty signing secret")
	}

	expiresAt := now.Add(a.ttl)
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    a.issuer,
			Audience:  jwt.ClaimStrings{a.audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("issue token: %w", err)
	}
	return signed, expiresAt, nil
}

// TTL reports the configured token lifetime.
func (a *Authority) TTL() time.Duration {
	return a.ttl
}

// Validate checks tokenText against each candidate secret and returns the
// authenticated subject. Candidates are tried in order and acceptance is
// order-independent: a token matching any secret in the set passes, which is
// what keeps tokens signed before a rotation valid through the grace window.
//
// Checks run structural, then cryptographic, then temporal. A token expires
// the instant now reaches its exp claim.
func (a *Authority) Validate(tokenText string, secrets [][]byte, now time.Time) (string, error) {
	parts := strings.Split(tokenText, ".")
	if len(parts) != 3 {
		return "", ErrMalformedToken
	}
	for _, part := range parts {
		if part == "" {
			return "", ErrMalformedToken
		}
	}
	if len(secrets) == 0 {
		return "", ErrInvalidSignature
	}

	keySet := jwt.VerificationKeySet{Keys: make([]jwt.VerificationKey, 0, len(secrets))}
	for _, secret := range secrets {
		keySet.Keys = append(keySet.Keys, secret)
	}

	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenText, claims,
		func(*jwt.Token) (interface{}, error) { return keySet, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(func() time.Time { return now }),
	)
	if err != nil {
		// The payload decodes before the library verifies the signature or
		// the exp claim, so a payload missing required fields reports as
		// malformed even when the token is also forged or expired: field
		// checks come before cryptographic and temporal ones.
		if (errors.Is(err, jwt.ErrTokenSignatureInvalid) || errors.Is(err, jwt.ErrTokenExpired)) &&
			missingRequiredClaims(claims) {
			return "", ErrMalformedToken
		}
		return "", mapParseError(err)
	}

	// The library treats a missing exp as valid unless required and does not
	// require sub or iat at all; the payload contract here does.
	if missingRequiredClaims(claims) {
		return "", ErrMalformedToken
	}
	if !now.Before(claims.ExpiresAt.Time) {
		return "", ErrExpired
	}
	return claims.Subject, nil
}

func missingRequiredClaims(claims *Claims) bool {
	return claims.Subject == "" || claims.IssuedAt == nil || claims.ExpiresAt == nil
}

func mapParseError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenMalformed),
		errors.Is(err, jwt.ErrTokenUnverifiable),
		errors.Is(err, jwt.ErrTokenRequiredClaimMissing):
		return ErrMalformedToken
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return ErrInvalidSignature
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrExpired
	default:
		return ErrMalformedToken
	}
}

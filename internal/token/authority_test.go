package token

import (
	"strings"
	"testing"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func secretSet(secrets ...string) [][]byte {
	out := make([][]byte, 0, len(secrets))
	for _, s := range secrets {
		out = append(out, []byte(s))
	}
	return out
}

func TestAuthority_IssueValidateRoundTrip(t *testing.T) {
	a := NewAuthority()

	signed, expiresAt, err := a.Issue("admin", []byte("s3cr3t"), t0)
	require.NoError(t, err)
	assert.Equal(t, t0.Add(24*time.Hour), expiresAt)
	assert.Equal(t, 3, len(strings.Split(signed, ".")))

	subject, err := a.Validate(signed, secretSet("s3cr3t"), t0)
	require.NoError(t, err)
	assert.Equal(t, "admin", subject)
}

func TestAuthority_IssueRejectsBadInputs(t *testing.T) {
	a := NewAuthority()

	_, _, err := a.Issue("", []byte("s3cr3t"), t0)
	assert.ErrorIs(t, err, ErrInvalidSubject)

	_, _, err = a.Issue("   ", []byte("s3cr3t"), t0)
	assert.ErrorIs(t, err, ErrInvalidSubject)

	_, _, err = a.Issue("admin", nil, t0)
	assert.Error(t, err)
}

func TestAuthority_ValidateMalformed(t *testing.T) {
	a := NewAuthority()
	signed, _, err := a.Issue("admin", []byte("s3cr3t"), t0)
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{"empty string", ""},
		{"no delimiter", "notatokenatall"},
		{"two parts", "aaaa.bbbb"},
		{"four parts", signed + ".extra"},
		{"empty signature part", strings.Join(strings.Split(signed, ".")[:2], ".") + "."},
		{"garbage parts", "!!!.???.###"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := a.Validate(tt.token, secretSet("s3cr3t"), t0)
			assert.ErrorIs(t, err, ErrMalformedToken)
		})
	}
}

func signClaims(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func TestAuthority_ValidateMissingRequiredClaims(t *testing.T) {
	a := NewAuthority()

	tests := []struct {
		name   string
		claims jwt.MapClaims
	}{
		{"no subject", jwt.MapClaims{
			"iat": t0.Unix(),
			"exp": t0.Add(24 * time.Hour).Unix(),
		}},
		{"no issued-at", jwt.MapClaims{
			"sub": "admin",
			"exp": t0.Add(24 * time.Hour).Unix(),
		}},
		{"no expiry", jwt.MapClaims{
			"sub": "admin",
			"iat": t0.Unix(),
		}},
		// field checks outrank the temporal check: an expired payload with a
		// missing subject is malformed, not expired
		{"no subject and expired", jwt.MapClaims{
			"iat": t0.Add(-48 * time.Hour).Unix(),
			"exp": t0.Add(-24 * time.Hour).Unix(),
		}},
		{"no issued-at and expired", jwt.MapClaims{
			"sub": "admin",
			"exp": t0.Add(-24 * time.Hour).Unix(),
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			signed := signClaims(t, "s3cr3t", tt.claims)
			_, err := a.Validate(signed, secretSet("s3cr3t"), t0)
			assert.ErrorIs(t, err, ErrMalformedToken)
		})
	}

	// and they outrank the signature check too
	signed := signClaims(t, "wrong-secret", jwt.MapClaims{
		"iat": t0.Unix(),
		"exp": t0.Add(24 * time.Hour).Unix(),
	})
	_, err := a.Validate(signed, secretSet("s3cr3t"), t0)
	assert.ErrorIs(t, err, ErrMalformedToken)
}

func TestAuthority_ValidateTamperedSignature(t *testing.T) {
	a := NewAuthority()
	signed, _, err := a.Issue("admin", []byte("s3cr3t"), t0)
	require.NoError(t, err)

	parts := strings.Split(signed, ".")
	sig := []byte(parts[2])
	// flip a single character of the signature part
	if sig[0] == 'A' {
		sig[0] = 'B'
	} else {
		sig[0] = 'A'
	}
	tampered := parts[0] + "." + parts[1] + "." + string(sig)

	_, err = a.Validate(tampered, secretSet("s3cr3t"), t0)
	assert.ErrorIs(t, err, ErrInvalidSignature)
}

func TestAuthority_ValidateWrongSecret(t *testing.T) {
	a := NewAuthority()
	signed, _, err := a.Issue("admin", []byte("s3cr3t"), t0)
	require.NoError(t, err)

	_, err = a.Validate(signed, secretSet("different"), t0)
	assert.ErrorIs(t, err, ErrInvalidSignature)

	_, err = a.Validate(signed, nil, t0)
	assert.ErrorIs(t, err, ErrInvalidSignature)
}

func TestAuthority_ValidateExpiry(t *testing.T) {
	a := NewAuthority()
	signed, expiresAt, err := a.Issue("admin", []byte("s3cr3t"), t0)
	require.NoError(t, err)

	subject, err := a.Validate(signed, secretSet("s3cr3t"), t0.Add(23*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, "admin", subject)

	_, err = a.Validate(signed, secretSet("s3cr3t"), t0.Add(25*time.Hour))
	assert.ErrorIs(t, err, ErrExpired)

	// expiry is exclusive: the token dies the instant now reaches exp
	_, err = a.Validate(signed, secretSet("s3cr3t"), expiresAt)
	assert.ErrorIs(t, err, ErrExpired)

	_, err = a.Validate(signed, secretSet("s3cr3t"), expiresAt.Add(-time.Second))
	assert.NoError(t, err)
}

func TestAuthority_ValidateSecretSetOrderIndependent(t *testing.T) {
	a := NewAuthority()
	signed, _, err := a.Issue("admin", []byte("secret-a"), t0)
	require.NoError(t, err)

	for _, set := range [][][]byte{
		secretSet("secret-a", "secret-b"),
		secretSet("secret-b", "secret-a"),
	} {
		subject, err := a.Validate(signed, set, t0)
		require.NoError(t, err)
		assert.Equal(t, "admin", subject)
	}

	_, err = a.Validate(signed, secretSet("secret-b"), t0)
	assert.ErrorIs(t, err, ErrInvalidSignature)
}

func TestAuthority_RotationGraceWindow(t *testing.T) {
	a := NewAuthority()
	signed, _, err := a.Issue("admin", []byte("old"), t0)
	require.NoError(t, err)

	// during the grace window both secrets are acceptable
	subject, err := a.Validate(signed, secretSet("new", "old"), t0.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, "admin", subject)

	// once the old secret is dropped the token is dead
	_, err = a.Validate(signed, secretSet("new"), t0.Add(time.Hour))
	assert.ErrorIs(t, err, ErrInvalidSignature)
}

func TestAuthority_CustomTTL(t *testing.T) {
	a := NewAuthority(WithTTL(30 * time.Minute))

	signed, expiresAt, err := a.Issue("svc", []byte("s3cr3t"), t0)
	require.NoError(t, err)
	assert.Equal(t, t0.Add(30*time.Minute), expiresAt)

	_, err = a.Validate(signed, secretSet("s3cr3t"), t0.Add(31*time.Minute))
	assert.ErrorIs(t, err, ErrExpired)
}

func TestKind(t *testing.T) {
	assert.Equal(t, "malformed", Kind(ErrMalformedToken))
	assert.Equal(t, "invalid_signature", Kind(ErrInvalidSignature))
	assert.Equal(t, "expired", Kind(ErrExpired))
	assert.Equal(t, "invalid_subject", Kind(ErrInvalidSubject))
}

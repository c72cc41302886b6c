package token

import "errors"

// Validation and issuance failures. Callers translate all of these into a
// uniform unauthorized response; the specific kind is for logs and metrics only.
var (
	ErrMalformedToken   = errors.New("malformed token")
	ErrInvalidSignature = errors.New("invalid token signature")
	ErrExpired          = errors.New("token expired")
	ErrInvalidSubject   = errors.New("invalid subject")
)

// Kind returns a short stable label for an authority error, suitable for
// metrics and structured logs. Unknown errors report as "malformed".
func Kind(err error) string {
	switch {
	case errors.Is(err, ErrInvalidSignature):
		return "invalid_signature"
	case errors.Is(err, ErrExpired):
		return "expired"
	case errors.Is(err, ErrInvalidSubject):
		return "invalid_subject"
	default:
		return "malformed"
	}
}

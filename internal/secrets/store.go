package secrets

import (
	"context"
	"errors"
)

// ErrNotFound reports that the store holds no signing secret yet.
var ErrNotFound = errors.New("signing secret not found")

// Store supplies opaque signing-key material from an external secret store.
// Implementations never write back; rotation happens on the store's side and
// is observed here by re-fetching.
type Store interface {
	Fetch(ctx context.Context) ([]byte, error)
}

// StaticStore returns a fixed secret, for development and tests.
type StaticStore struct {
	secret []byte
}

// NewStaticStore wraps a literal secret value.
func NewStaticStore(secret []byte) *StaticStore {
	return &StaticStore{secret: secret}
}

// Fetch returns the configured secret.
func (s *StaticStore) Fetch(context.Context) ([]byte, error) {
	if len(s.secret) == 0 {
		return nil, ErrNotFound
	}
	out := make([]byte, len(s.secret))
	copy(out, s.secret)
	return out, nil
}

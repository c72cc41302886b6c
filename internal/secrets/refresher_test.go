package secrets

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/cdn-auth-service/internal/token"
)

type fakeStore struct {
	mu     sync.Mutex
	secret []byte
	err    error
}

func (f *fakeStore) set(secret []byte, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.secret = secret
	f.err = err
}

func (f *fakeStore) Fetch(context.Context) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.secret, f.err
}

func TestStaticStore(t *testing.T) {
	store := NewStaticStore([]byte("dev-secret"))
	got, err := store.Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []byte("dev-secret"), got)

	empty := NewStaticStore(nil)
	_, err = empty.Fetch(context.Background())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRefresher_RotatesOnChange(t *testing.T) {
	keyring := token.NewKeyring([]byte("old"))
	store := &fakeStore{secret: []byte("old")}
	r := NewRefresher(store, keyring, 0, zap.NewNop())

	// same secret: no rotation
	r.refresh(context.Background())
	assert.Equal(t, [][]byte{[]byte("old")}, keyring.Secrets())

	// changed secret: rotate, old secret stays acceptable
	store.set([]byte("new"), nil)
	r.refresh(context.Background())
	assert.Equal(t, [][]byte{[]byte("new"), []byte("old")}, keyring.Secrets())
}

func TestRefresher_KeepsKeyringOnFetchFailure(t *testing.T) {
	keyring := token.NewKeyring([]byte("current"))
	store := &fakeStore{err: errors.New("store unreachable")}
	r := NewRefresher(store, keyring, 0, zap.NewNop())

	r.refresh(context.Background())
	assert.Equal(t, [][]byte{[]byte("current")}, keyring.Secrets())

	store.set(nil, nil)
	r.refresh(context.Background())
	assert.Equal(t, [][]byte{[]byte("current")}, keyring.Secrets())
}

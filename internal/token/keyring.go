package token

import (
	"bytes"
	"sync/atomic"
)

// Keyring holds the signing secrets currently acceptable for validation: the
// active secret plus, after a rotation, its immediate predecessor. The set is
// an immutable snapshot replaced atomically, so a validation call always sees
// a consistent current+previous pair even while a rotation lands.
type Keyring struct {
	snap atomic.Pointer[keyringSnapshot]
}

type keyringSnapshot struct {
	current  []byte
	previous []byte
}

// NewKeyring builds a keyring with a single active secret and no predecessor.
func NewKeyring(current []byte) *Keyring {
	k := &Keyring{}
	k.snap.Store(&keyringSnapshot{current: clone(current)})
	return k
}

// Current returns the active signing secret. Issue always signs with this
// one; previous secrets are accepted for validation only.
func (k *Keyring) Current() []byte {
	return clone(k.snap.Load().current)
}

// Secrets returns the acceptable validation secrets, active first. The slice
// is a copy; callers may hold it across a rotation without observing a torn
// set.
func (k *Keyring) Secrets() [][]byte {
	s := k.snap.Load()
	out := [][]byte{clone(s.current)}
	if len(s.previous) > 0 {
		out = append(out, clone(s.previous))
	}
	return out
}

// Rotate installs next as the active secret, demoting the old active secret
// to the grace-window slot. Rotating to the already-active secret is a no-op
// so a poller can call this on every fetch.
func (k *Keyring) Rotate(next []byte) bool {
	for {
		old := k.snap.Load()
		if bytes.Equal(old.current, next) {
			return false
		}
		replacement := &keyringSnapshot{current: clone(next), previous: clone(old.current)}
		if k.snap.CompareAndSwap(old, replacement) {
			return true
		}
	}
}

// DropPrevious ends the rotation grace window: tokens signed with the
// demoted secret stop validating.
func (k *Keyring) DropPrevious() {
	for {
		old := k.snap.Load()
		if len(old.previous) == 0 {
			return
		}
		if k.snap.CompareAndSwap(old, &keyringSnapshot{current: old.current}) {
			return
		}
	}
}

func clone(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

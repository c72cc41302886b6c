package secrets

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/cdn-auth-service/internal/token"
)

// DefaultRefreshInterval mirrors the 5-minute cache the origin keeps on the
// secret store.
const DefaultRefreshInterval = 5 * time.Minute

// Refresher polls the secret store and rotates the keyring when the stored
// secret changes, keeping the demoted secret in the grace-window slot so
// in-flight tokens survive the rotation. Secret material itself is never
// logged.
type Refresher struct {
	store    Store
	keyring  *token.Keyring
	interval time.Duration
	logger   *zap.Logger
}

// NewRefresher builds a refresher. A non-positive interval falls back to the
// default cadence.
func NewRefresher(store Store, keyring *token.Keyring, interval time.Duration, logger *zap.Logger) *Refresher {
	if interval <= 0 {
		interval = DefaultRefreshInterval
	}
	return &Refresher{store: store, keyring: keyring, interval: interval, logger: logger}
}

// Run polls until ctx is cancelled. Fetch failures are logged and retried on
// the next tick; the keyring keeps serving its last good snapshot.
func (r *Refresher) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.refresh(ctx)
		}
	}
}

func (r *Refresher) refresh(ctx context.Context) {
	secret, err := r.store.Fetch(ctx)
	if err != nil {
		r.logger.Warn("signing secret fetch failed", zap.Error(err))
		return
	}
	if len(secret) == 0 {
		r.logger.Warn("signing secret fetch returned empty value")
		return
	}
	if r.keyring.Rotate(secret) {
		r.logger.Info("signing secret rotated", zap.Int("secret_bytes", len(secret)))
	}
}

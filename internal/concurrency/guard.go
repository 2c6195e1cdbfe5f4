package concurrency

import (
	"context"
	"sync"
	"time"

	"codeberg.org/planhub/server/internal/logger"
	"codeberg.org/planhub/server/internal/tiers"
)

// how long an acquired slot may stay held before the guard reclaims it.
// Handlers that crash without releasing leak a slot for at most this long.
const DefaultSlotTimeout = 2 * time.Minute

// Guard bounds the number of in-flight gated calls per account by tier.
type Guard struct {
	store       CounterStore
	slotTimeout time.Duration
}

// ReleaseFunc returns an acquired slot. Safe to call more than once; only the
// first call (or the auto-release timer, whichever fires first) decrements.
type ReleaseFunc func()

func NewGuard(store CounterStore) *Guard {
	return &Guard{
		store:       store,
		slotTimeout: DefaultSlotTimeout,
	}
}

// WithSlotTimeout overrides the auto-release timeout (tests and tuning)
func (g *Guard) WithSlotTimeout(d time.Duration) *Guard {
	g.slotTimeout = d
	return g
}

// Acquire takes an in-flight slot for the account, or reports that the
// account is at its tier's concurrency ceiling. Unlimited-concurrency tiers
// bypass the counter entirely.
//
// On success the returned release func must be called when the call
// completes; a timer reclaims the slot after the slot timeout as a safety
// net, not as a substitute for explicit release.
func (g *Guard) Acquire(ctx context.Context, accountID string, tier tiers.Tier) (ReleaseFunc, bool, error) {
	ceiling := tiers.PolicyFor(tier).ConcurrentRequests

	if ceiling.IsUnlimited() {
		return func() {}, true, nil
	}

	count, err := g.store.Incr(ctx, accountID)
	if err != nil {
		return nil, false, err
	}

	if count > int64(ceiling.N()) {
		// over the ceiling: roll the increment back and reject
		if _, err := g.store.Decr(ctx, accountID); err != nil {
			logger.ErrorErr(err, "failed to roll back concurrency increment", "account_id", accountID)
		}

		return nil, false, nil
	}

	release := g.releaseOnce(accountID)

	// reclaim the slot if the handler never releases it
	timer := time.AfterFunc(g.slotTimeout, func() {
		release()
	})

	return func() {
		timer.Stop()
		release()
	}, true, nil
}

// Release returns a slot outside the Acquire flow (no-op below zero)
func (g *Guard) Release(ctx context.Context, accountID string) {
	if _, err := g.store.Decr(ctx, accountID); err != nil {
		logger.ErrorErr(err, "failed to release concurrency slot", "account_id", accountID)
	}
}

// builds a decrement that runs at most once, shared between the explicit
// release path and the auto-release timer
func (g *Guard) releaseOnce(accountID string) func() {
	var once sync.Once

	return func() {
		once.Do(func() {
			// detached context: release must not be skipped because the
			// request context was already canceled
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			g.Release(ctx, accountID)
		})
	}
}

// InFlight returns the current in-flight count for an account
func (g *Guard) InFlight(ctx context.Context, accountID string) (int64, error) {
	return g.store.Get(ctx, accountID)
}

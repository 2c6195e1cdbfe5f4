package concurrency

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"codeberg.org/planhub/server/internal/tiers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStore_IncrDecr(t *testing.T) {
	store := NewLocalStore()
	ctx := context.Background()

	count, err := store.Incr(ctx, "acct-1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	count, err = store.Incr(ctx, "acct-1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	count, err = store.Decr(ctx, "acct-1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	// separate accounts do not share counters
	count, err = store.Get(ctx, "acct-2")
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)
}

func TestLocalStore_DecrRemovesZeroEntries(t *testing.T) {
	store := NewLocalStore()
	ctx := context.Background()

	_, err := store.Incr(ctx, "acct-1")
	require.NoError(t, err)

	count, err := store.Decr(ctx, "acct-1")
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)

	assert.Empty(t, store.counts, "zero-valued entries should be removed")

	// decrement below zero clamps at zero
	count, err = store.Decr(ctx, "acct-1")
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)
}

func TestLocalStore_ConcurrentAccess(t *testing.T) {
	store := NewLocalStore()
	ctx := context.Background()

	var wg sync.WaitGroup

	for i := 0; i < 100; i++ {
		wg.Add(1)

		go func() {
			defer wg.Done()
			_, _ = store.Incr(ctx, "acct-1") //nolint:errcheck // local store cannot fail
		}()
	}

	wg.Wait()

	count, err := store.Get(ctx, "acct-1")
	require.NoError(t, err)
	assert.Equal(t, int64(100), count)
}

func TestGuard_AcquireUpToCeiling(t *testing.T) {
	guard := NewGuard(NewLocalStore())
	ctx := context.Background()

	// starter allows a single concurrent request
	release, ok, err := guard.Acquire(ctx, "acct-1", tiers.TierStarter)
	require.NoError(t, err)
	require.True(t, ok)

	_, ok, err = guard.Acquire(ctx, "acct-1", tiers.TierStarter)
	require.NoError(t, err)
	assert.False(t, ok, "second acquire should hit the ceiling")

	release()

	// released slot can be re-acquired
	release2, ok, err := guard.Acquire(ctx, "acct-1", tiers.TierStarter)
	require.NoError(t, err)
	assert.True(t, ok)
	release2()
}

func TestGuard_RejectionRollsBackIncrement(t *testing.T) {
	guard := NewGuard(NewLocalStore())
	ctx := context.Background()

	release, ok, err := guard.Acquire(ctx, "acct-1", tiers.TierStarter)
	require.NoError(t, err)
	require.True(t, ok)

	for i := 0; i < 5; i++ {
		_, ok, err := guard.Acquire(ctx, "acct-1", tiers.TierStarter)
		require.NoError(t, err)
		require.False(t, ok)
	}

	// repeated rejections must not inflate the count past the one real holder
	count, err := guard.InFlight(ctx, "acct-1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	release()
}

func TestGuard_UnlimitedTierBypasses(t *testing.T) {
	store := NewLocalStore()
	guard := NewGuard(store)
	ctx := context.Background()

	for i := 0; i < 50; i++ {
		release, ok, err := guard.Acquire(ctx, "acct-1", tiers.TierAdmin)
		require.NoError(t, err)
		require.True(t, ok)
		release()
	}

	count, err := store.Get(ctx, "acct-1")
	require.NoError(t, err)
	assert.Equal(t, int64(0), count, "unlimited tiers never touch the counter")
}

func TestGuard_ReleaseIsIdempotent(t *testing.T) {
	guard := NewGuard(NewLocalStore())
	ctx := context.Background()

	release, ok, err := guard.Acquire(ctx, "acct-1", tiers.TierPro)
	require.NoError(t, err)
	require.True(t, ok)

	release()
	release()
	release()

	count, err := guard.InFlight(ctx, "acct-1")
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)
}

func TestGuard_AutoReleaseReclaimsLeakedSlot(t *testing.T) {
	guard := NewGuard(NewLocalStore()).WithSlotTimeout(20 * time.Millisecond)
	ctx := context.Background()

	// acquire and "crash" without releasing
	_, ok, err := guard.Acquire(ctx, "acct-1", tiers.TierStarter)
	require.NoError(t, err)
	require.True(t, ok)

	assert.Eventually(t, func() bool {
		count, err := guard.InFlight(ctx, "acct-1")
		return err == nil && count == 0
	}, time.Second, 5*time.Millisecond, "leaked slot should be reclaimed by the timer")
}

func TestGuard_ExplicitReleaseBeatsTimer(t *testing.T) {
	guard := NewGuard(NewLocalStore()).WithSlotTimeout(20 * time.Millisecond)
	ctx := context.Background()

	release, ok, err := guard.Acquire(ctx, "acct-1", tiers.TierStarter)
	require.NoError(t, err)
	require.True(t, ok)

	release()
	time.Sleep(50 * time.Millisecond)

	// the timer firing after an explicit release must not double-decrement
	// a slot acquired in the meantime
	release2, ok, err := guard.Acquire(ctx, "acct-1", tiers.TierStarter)
	require.NoError(t, err)
	require.True(t, ok)

	count, err := guard.InFlight(ctx, "acct-1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	release2()
}

// failing store to verify errors surface to the caller
type failingStore struct{}

func (failingStore) Incr(context.Context, string) (int64, error) {
	return 0, fmt.Errorf("store unavailable")
}

func (failingStore) Decr(context.Context, string) (int64, error) {
	return 0, fmt.Errorf("store unavailable")
}

func (failingStore) Get(context.Context, string) (int64, error) {
	return 0, fmt.Errorf("store unavailable")
}

func TestGuard_StoreFaultSurfaces(t *testing.T) {
	guard := NewGuard(failingStore{})

	_, _, err := guard.Acquire(context.Background(), "acct-1", tiers.TierPro)

	// the guard reports the fault; the gate decides the failure policy
	assert.Error(t, err)
}

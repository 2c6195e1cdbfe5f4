package ratelimit

import (
	"context"
	"fmt"
	"testing"
	"time"

	"codeberg.org/planhub/server/internal/tiers"
	"codeberg.org/planhub/server/planhub/accounts"
	"codeberg.org/planhub/server/planhub/usage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// in-memory counter store for tests
type fakeStore struct {
	resets     int
	increments int
	failNext   bool
}

func (s *fakeStore) ResetDailyUsage(_ context.Context, _ string, _ time.Time) error {
	if s.failNext {
		return fmt.Errorf("store unavailable")
	}

	s.resets++
	return nil
}

func (s *fakeStore) IncrementDailyUsage(_ context.Context, _ string) error {
	if s.failNext {
		return fmt.Errorf("store unavailable")
	}

	s.increments++
	return nil
}

type fakeSink struct {
	entries []*usage.Entry
}

func (s *fakeSink) Append(_ context.Context, entry *usage.Entry) error {
	s.entries = append(s.entries, entry)
	return nil
}

var testNow = time.Date(2025, 6, 15, 10, 30, 0, 0, time.UTC)

func fixedClock() time.Time { return testNow }

func testAccount(tier tiers.Tier, used int) *accounts.Account {
	return &accounts.Account{
		ID:        "acct-1",
		Tier:      tier,
		DailyUsed: used,
		ResetDate: time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC),
		Active:    true,
	}
}

func newTestLimiter() (*Limiter, *fakeStore, *fakeSink) {
	store := &fakeStore{}
	sink := &fakeSink{}
	limiter := New(store, sink).WithClock(fixedClock)

	return limiter, store, sink
}

func TestCheck_AllowsUnderQuota(t *testing.T) {
	limiter, _, _ := newTestLimiter()
	account := testAccount(tiers.TierPro, 10) // pro quota is 100/day

	decision, err := limiter.Check(context.Background(), account, 500)

	require.NoError(t, err)
	assert.True(t, decision.Allowed)
	assert.Equal(t, 90, decision.Remaining)
	assert.False(t, decision.Unlimited)
}

func TestCheck_DeniesAtExactLimit(t *testing.T) {
	limiter, _, _ := newTestLimiter()
	quota := tiers.PolicyFor(tiers.TierPro).DailyRequests.N()
	account := testAccount(tiers.TierPro, quota)

	decision, err := limiter.Check(context.Background(), account, 500)

	require.NoError(t, err)
	assert.False(t, decision.Allowed)
	assert.Equal(t, ReasonQuotaExceeded, decision.Reason)
	assert.Equal(t, 0, decision.Remaining)

	// reset time is the next day boundary
	expected := time.Date(2025, 6, 16, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, expected, decision.ResetTime)
}

func TestCheck_LazyResetOnStaleDay(t *testing.T) {
	limiter, store, _ := newTestLimiter()
	account := testAccount(tiers.TierPro, 100) // exhausted...
	account.ResetDate = testNow.AddDate(0, 0, -3) // ...three days ago

	decision, err := limiter.Check(context.Background(), account, 500)

	require.NoError(t, err)
	assert.True(t, decision.Allowed, "stale counters should be reset before evaluation")
	assert.Equal(t, 100, decision.Remaining)
	assert.Equal(t, 0, account.DailyUsed)
	assert.Equal(t, time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC), account.ResetDate)
	assert.Equal(t, 1, store.resets)
}

func TestCheck_LazyResetIdempotentWithinDay(t *testing.T) {
	limiter, store, _ := newTestLimiter()
	account := testAccount(tiers.TierPro, 5)
	account.ResetDate = testNow.AddDate(0, 0, -1)

	_, err := limiter.Check(context.Background(), account, 500)
	require.NoError(t, err)
	require.Equal(t, 1, store.resets)

	// same day again: no second reset
	_, err = limiter.Check(context.Background(), account, 500)
	require.NoError(t, err)
	assert.Equal(t, 1, store.resets)
}

func TestCheck_InactiveAccountDenied(t *testing.T) {
	limiter, _, _ := newTestLimiter()
	account := testAccount(tiers.TierEnterprise, 0)
	account.Active = false

	decision, err := limiter.Check(context.Background(), account, 500)

	require.NoError(t, err)
	assert.False(t, decision.Allowed)
	assert.Equal(t, ReasonAccountInactive, decision.Reason)
}

func TestCheck_RequestTooLarge_ConsumesNoQuota(t *testing.T) {
	limiter, store, _ := newTestLimiter()
	account := testAccount(tiers.TierStarter, 0) // fresh quota, 4k token ceiling

	decision, err := limiter.Check(context.Background(), account, 5_000)

	require.NoError(t, err)
	assert.False(t, decision.Allowed)
	assert.Equal(t, ReasonRequestTooLarge, decision.Reason)
	assert.Equal(t, 0, store.increments)
	assert.Equal(t, 0, account.DailyUsed)
}

func TestCheck_UnlimitedTiersNeverQuotaDenied(t *testing.T) {
	limiter, _, _ := newTestLimiter()

	for _, tier := range []tiers.Tier{tiers.TierEnterprise, tiers.TierAdmin} {
		account := testAccount(tier, 1_000_000)

		decision, err := limiter.Check(context.Background(), account, 500)

		require.NoError(t, err)
		assert.True(t, decision.Allowed, "tier %s", tier)
		assert.True(t, decision.Unlimited)
		assert.Equal(t, -1, decision.Remaining)
	}
}

func TestCheck_AdminBypassesTokenCeiling(t *testing.T) {
	limiter, _, _ := newTestLimiter()
	account := testAccount(tiers.TierAdmin, 0)

	decision, err := limiter.Check(context.Background(), account, 10_000_000)

	require.NoError(t, err)
	assert.True(t, decision.Allowed)
}

func TestCheck_DailyLimitOverride(t *testing.T) {
	limiter, _, _ := newTestLimiter()
	override := 5
	account := testAccount(tiers.TierPro, 5)
	account.DailyLimit = &override

	decision, err := limiter.Check(context.Background(), account, 500)

	require.NoError(t, err)
	assert.False(t, decision.Allowed, "override should beat the tier default of 100")
	assert.Equal(t, ReasonQuotaExceeded, decision.Reason)
}

func TestRecord_SuccessIncrementsAndLogs(t *testing.T) {
	limiter, store, sink := newTestLimiter()
	account := testAccount(tiers.TierPro, 3)

	err := limiter.Record(context.Background(), account, "generation", "/api/v1/generate", 1200, 0.018, 900*time.Millisecond, OutcomeSuccess)

	require.NoError(t, err)
	assert.Equal(t, 1, store.increments)
	assert.Equal(t, 4, account.DailyUsed)

	require.Len(t, sink.entries, 1)
	entry := sink.entries[0]
	assert.Equal(t, "acct-1", entry.AccountID)
	assert.Equal(t, 1200, entry.TokensUsed)
	assert.Equal(t, 900, entry.LatencyMs)
	assert.Equal(t, tiers.TierPro, entry.Tier)
}

func TestRecord_DeniedLogsZeroTokensWithoutIncrement(t *testing.T) {
	limiter, store, sink := newTestLimiter()
	account := testAccount(tiers.TierPro, 3)

	err := limiter.Record(context.Background(), account, "generation", "/api/v1/generate", 1200, 0.018, 5*time.Millisecond, OutcomeRateLimited)

	require.NoError(t, err)
	assert.Equal(t, 0, store.increments)
	assert.Equal(t, 3, account.DailyUsed)

	require.Len(t, sink.entries, 1)
	assert.Equal(t, 0, sink.entries[0].TokensUsed)
	assert.Equal(t, float64(0), sink.entries[0].Cost)
	assert.Equal(t, OutcomeRateLimited, sink.entries[0].Outcome)
}

func TestRecord_UnlimitedTierLogsWithoutIncrement(t *testing.T) {
	limiter, store, sink := newTestLimiter()
	account := testAccount(tiers.TierEnterprise, 0)

	err := limiter.Record(context.Background(), account, "generation", "/api/v1/generate", 800, 0.01, time.Second, OutcomeSuccess)

	require.NoError(t, err)
	assert.Equal(t, 0, store.increments, "unlimited tiers keep no counter")
	assert.Len(t, sink.entries, 1)
}

// quota=100, dailyUsed=99: one call left, then denied with reset at midnight
func TestScenario_LastCallThenDenied(t *testing.T) {
	limiter, _, _ := newTestLimiter()
	account := testAccount(tiers.TierPro, 99)

	decision, err := limiter.Check(context.Background(), account, 500)
	require.NoError(t, err)
	assert.True(t, decision.Allowed)
	assert.Equal(t, 1, decision.Remaining)

	err = limiter.Record(context.Background(), account, "generation", "/api/v1/generate", 500, 0.005, time.Second, OutcomeSuccess)
	require.NoError(t, err)
	assert.Equal(t, 100, account.DailyUsed)

	decision, err = limiter.Check(context.Background(), account, 500)
	require.NoError(t, err)
	assert.False(t, decision.Allowed)
	assert.Equal(t, 0, decision.Remaining)
	assert.Equal(t, time.Date(2025, 6, 16, 0, 0, 0, 0, time.UTC), decision.ResetTime)
}

func TestCheck_StoreFaultSurfacesToCaller(t *testing.T) {
	limiter, store, _ := newTestLimiter()
	store.failNext = true
	account := testAccount(tiers.TierPro, 5)
	account.ResetDate = testNow.AddDate(0, 0, -1) // forces a reset round trip

	_, err := limiter.Check(context.Background(), account, 500)

	// the limiter itself does not decide failure policy; the gate does
	assert.Error(t, err)
}

package ratelimit

import (
	"context"
	"fmt"
	"time"

	"codeberg.org/planhub/server/internal/tiers"
	"codeberg.org/planhub/server/planhub/accounts"
	"codeberg.org/planhub/server/planhub/usage"
)

// Limiter enforces per-account daily quotas and per-call token ceilings, and
// records every gated call in the usage log.
//
// Check and Record are two separate round trips to the counter store with no
// transaction between them, so two concurrent calls on the same account can
// both see remaining > 0 before either increments. The quota can overshoot by
// the number of in-flight calls; strict enforcement would need an atomic
// decrement-if-positive against the store instead.
type Limiter struct {
	store AccountStore
	sink  UsageSink

	// now is the reference clock; overridable in tests
	now func() time.Time
}

// creates a limiter over the given counter store and usage sink
func New(store AccountStore, sink UsageSink) *Limiter {
	return &Limiter{
		store: store,
		sink:  sink,
		now:   time.Now,
	}
}

// decides whether the account may make a call requesting tokensRequested
// tokens. The account value is the caller's already-fetched row; its counters
// are updated in place when a lazy daily reset fires.
func (l *Limiter) Check(ctx context.Context, account *accounts.Account, tokensRequested int) (*Decision, error) {
	now := l.now()

	// lazy reset: the stored reset date rolling over to a new calendar day is
	// the only quota-rollover mechanism, there is no background job
	if !sameDay(account.ResetDate, now) {
		if err := l.store.ResetDailyUsage(ctx, account.ID, dayOf(now)); err != nil {
			return nil, fmt.Errorf("failed to reset daily usage: %w", err)
		}

		account.DailyUsed = 0
		account.ResetDate = dayOf(now)
	}

	if !account.Active {
		return &Decision{
			Allowed: false,
			Reason:  ReasonAccountInactive,
			Message: "account is deactivated",
		}, nil
	}

	limit := account.EffectiveDailyLimit()

	// the administrative tier and unlimited quotas are never quota-checked
	if account.Tier == tiers.TierAdmin || limit.IsUnlimited() {
		return &Decision{
			Allowed:   true,
			Remaining: -1,
			Unlimited: true,
		}, nil
	}

	remaining := limit.Remaining(account.DailyUsed)
	if remaining <= 0 {
		reset := nextDayBoundary(now)

		return &Decision{
			Allowed:   false,
			Remaining: 0,
			ResetTime: reset,
			Reason:    ReasonQuotaExceeded,
			Message:   fmt.Sprintf("daily limit of %s requests reached", limit),
		}, nil
	}

	// an oversized call is rejected outright and consumes no quota; this is a
	// different failure from quota exhaustion
	maxTokens := tiers.PolicyFor(account.Tier).MaxTokensPerRequest
	if !maxTokens.IsUnlimited() && tokensRequested > maxTokens.N() {
		return &Decision{
			Allowed:   false,
			Remaining: remaining,
			Reason:    ReasonRequestTooLarge,
			Message:   fmt.Sprintf("request of %d tokens exceeds the per-call maximum of %s", tokensRequested, maxTokens),
		}, nil
	}

	return &Decision{
		Allowed:   true,
		Remaining: remaining,
	}, nil
}

// records the outcome of a gated call. Every call is logged, including denied
// ones (with zero tokens); the stored counter moves only on success and only
// for finite-quota tiers.
func (l *Limiter) Record(ctx context.Context, account *accounts.Account, callType, endpoint string, tokensUsed int, cost float64, latency time.Duration, outcome string) error {
	if outcome != OutcomeSuccess {
		tokensUsed = 0
		cost = 0
	}

	entry := &usage.Entry{
		AccountID:  account.ID,
		CallType:   callType,
		Endpoint:   endpoint,
		TokensUsed: tokensUsed,
		Cost:       cost,
		LatencyMs:  int(latency.Milliseconds()),
		Outcome:    outcome,
		Tier:       account.Tier,
	}

	if err := l.sink.Append(ctx, entry); err != nil {
		return fmt.Errorf("failed to append usage log: %w", err)
	}

	if outcome != OutcomeSuccess {
		return nil
	}

	if account.Tier == tiers.TierAdmin || account.EffectiveDailyLimit().IsUnlimited() {
		return nil
	}

	if err := l.store.IncrementDailyUsage(ctx, account.ID); err != nil {
		return fmt.Errorf("failed to increment daily usage: %w", err)
	}

	account.DailyUsed++

	return nil
}

// WithClock replaces the reference clock (tests only)
func (l *Limiter) WithClock(now func() time.Time) *Limiter {
	l.now = now
	return l
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()

	return ay == by && am == bm && ad == bd
}

func dayOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func nextDayBoundary(t time.Time) time.Time {
	return dayOf(t).AddDate(0, 0, 1)
}

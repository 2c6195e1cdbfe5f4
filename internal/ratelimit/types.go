package ratelimit

import (
	"context"
	"time"

	"codeberg.org/planhub/server/planhub/usage"
)

// outcome values recorded in the usage log (must match DB check constraint)
const (
	OutcomeSuccess     = "success"
	OutcomeFailed      = "failed"
	OutcomeRateLimited = "rate_limited"
)

// denial reasons carried on a Decision
const (
	ReasonAccountInactive = "account_inactive"
	ReasonQuotaExceeded   = "quota_exceeded"
	ReasonRequestTooLarge = "request_too_large"
)

// persists per-account daily counters; satisfied by planhub/accounts
type AccountStore interface {
	ResetDailyUsage(ctx context.Context, accountID string, day time.Time) error
	IncrementDailyUsage(ctx context.Context, accountID string) error
}

// append-only audit sink; satisfied by planhub/usage
type UsageSink interface {
	Append(ctx context.Context, entry *usage.Entry) error
}

// Decision is the outcome of a rate limit check
type Decision struct {
	Allowed bool

	// remaining calls under the daily quota after this one; -1 when unlimited
	Remaining int
	Unlimited bool

	// next day boundary; set on quota denials
	ResetTime time.Time

	// denial reason code, empty when allowed
	Reason  string
	Message string
}

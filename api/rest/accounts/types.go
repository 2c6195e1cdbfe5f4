package accounts

import (
	"codeberg.org/planhub/server/api/rest/pagination"
	"codeberg.org/planhub/server/planhub/usage"
)

// UsageResponse summarizes the account's standing against its tier limits
type UsageResponse struct {
	Tier      string `json:"tier"`
	DailyUsed int    `json:"daily_used"`

	// -1 when the daily quota is unlimited
	DailyLimit int    `json:"daily_limit"`
	Remaining  int    `json:"remaining"`
	ResetTime  string `json:"reset_time,omitempty"`

	MaxTokensPerRequest int      `json:"max_tokens_per_request"`
	ConcurrentRequests  int      `json:"concurrent_requests"`
	PremiumFeatures     []string `json:"premium_features"`

	History []usage.DailyCount `json:"history"`
}

// UsageLogResponse wraps a page of the account's usage log
type UsageLogResponse struct {
	Entries    []*usage.Entry  `json:"entries"`
	Pagination pagination.Meta `json:"pagination"`
}

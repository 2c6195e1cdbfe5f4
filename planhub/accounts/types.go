package accounts

import (
	"time"

	"codeberg.org/planhub/server/internal/tiers"
	"github.com/jackc/pgx/v5/pgxpool"
)

// handles account database operations
type Repository struct {
	db *pgxpool.Pool
}

// represents a billable account in the system
type Account struct {
	ID         string     `json:"id"`
	Email      string     `json:"email"`
	Provider   string     `json:"provider"`
	ProviderID string     `json:"-"`
	Name       string     `json:"name"`
	AvatarURL  string     `json:"avatar_url"`
	Tier       tiers.Tier `json:"tier"`
	DailyUsed  int        `json:"daily_used"`
	DailyLimit *int       `json:"daily_limit,omitempty"` // per-account override; nil means tier default
	ResetDate  time.Time  `json:"reset_date"`
	Active     bool       `json:"active"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// returns the daily request limit in effect for the account: the per-account
// override when present, otherwise the tier policy
func (a *Account) EffectiveDailyLimit() tiers.Limit {
	if a.DailyLimit != nil {
		return tiers.LimitOf(*a.DailyLimit)
	}

	return tiers.PolicyFor(a.Tier).DailyRequests
}

// records one tier mutation; rows are append-only
type TierChange struct {
	ID        string     `json:"id"`
	AccountID string     `json:"account_id"`
	OldTier   tiers.Tier `json:"old_tier"`
	NewTier   tiers.Tier `json:"new_tier"`
	ActorID   string     `json:"actor_id"`
	Reason    string     `json:"reason"`
	CreatedAt time.Time  `json:"created_at"`
}

// contains data for updating an account's profile
type UpdateProfileRequest struct {
	Name      string `json:"name"`
	AvatarURL string `json:"avatar_url"`
}

package usage

import (
	"time"

	"codeberg.org/planhub/server/internal/tiers"
	"github.com/jackc/pgx/v5/pgxpool"
)

// handles usage log database operations. The log is append-only: rows are
// never updated or deleted.
type Repository struct {
	db *pgxpool.Pool
}

// Entry is one audit record for a gated call
type Entry struct {
	ID         string     `json:"id"`
	AccountID  string     `json:"account_id"`
	CallType   string     `json:"call_type"`
	Endpoint   string     `json:"endpoint"`
	TokensUsed int        `json:"tokens_used"`
	Cost       float64    `json:"cost"`
	LatencyMs  int        `json:"latency_ms"`
	Outcome    string     `json:"outcome"` // success, failed, rate_limited
	Tier       tiers.Tier `json:"tier"`    // tier at the time of the call
	CreatedAt  time.Time  `json:"created_at"`
}

// one day's aggregated call count
type DailyCount struct {
	Date  string `json:"date"` // format: "2006-01-02"
	Count int    `json:"count"`
}

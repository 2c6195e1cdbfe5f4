package usage

import (
	"context"
	"fmt"

	"codeberg.org/planhub/server/internal/tiers"
	"github.com/jackc/pgx/v5/pgxpool"
)

// creates a new usage log repository
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// appends one entry to the usage log
func (r *Repository) Append(ctx context.Context, entry *Entry) error {
	_, err := r.db.Exec(ctx, queryAppend,
		entry.AccountID,
		entry.CallType,
		entry.Endpoint,
		entry.TokensUsed,
		entry.Cost,
		entry.LatencyMs,
		entry.Outcome,
		entry.Tier.String(),
	)

	if err != nil {
		return fmt.Errorf("failed to append usage entry: %w", err)
	}

	return nil
}

// returns today's successful call count for an account
func (r *Repository) CountToday(ctx context.Context, accountID string) (int, error) {
	var count int

	err := r.db.QueryRow(ctx, queryCountToday, accountID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count today's usage: %w", err)
	}

	return count, nil
}

// returns a page of the account's log entries, newest first, with the total
// row count for pagination
func (r *Repository) ListEntries(ctx context.Context, accountID string, limit, offset int) ([]*Entry, int, error) {
	var total int
	if err := r.db.QueryRow(ctx, queryCountEntries, accountID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count usage entries: %w", err)
	}

	rows, err := r.db.Query(ctx, queryListEntries, accountID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list usage entries: %w", err)
	}

	defer rows.Close()

	entries := []*Entry{}

	for rows.Next() {
		var e Entry
		var tier string

		err := rows.Scan(&e.ID, &e.AccountID, &e.CallType, &e.Endpoint, &e.TokensUsed,
			&e.Cost, &e.LatencyMs, &e.Outcome, &tier, &e.CreatedAt)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan usage entry: %w", err)
		}

		e.Tier = tiers.ParseTier(tier)
		entries = append(entries, &e)
	}

	return entries, total, rows.Err()
}

// returns per-day successful call counts for the last `days` days, newest first
func (r *Repository) DailyHistory(ctx context.Context, accountID string, days int) ([]DailyCount, error) {
	rows, err := r.db.Query(ctx, queryDailyHistory, accountID, days)
	if err != nil {
		return nil, fmt.Errorf("failed to query usage history: %w", err)
	}

	defer rows.Close()

	history := []DailyCount{}

	for rows.Next() {
		var dc DailyCount

		if err := rows.Scan(&dc.Date, &dc.Count); err != nil {
			return nil, fmt.Errorf("failed to scan usage history row: %w", err)
		}

		history = append(history, dc)
	}

	return history, rows.Err()
}

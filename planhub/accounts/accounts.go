package accounts

import (
	"context"
	"fmt"
	"time"

	"codeberg.org/planhub/server/internal/tiers"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// creates a new account repository
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// finds an account by OAuth provider or creates a new one; new accounts get
// the signup defaults (starter tier, zero usage, active)
func (r *Repository) FindOrCreateByProvider(
	ctx context.Context,
	provider, providerID, email, name, avatarURL string,
) (*Account, error) {
	return r.scanAccount(r.db.QueryRow(
		ctx,
		queryFindOrCreateByProvider,
		provider,
		providerID,
		email,
		name,
		avatarURL,
	))
}

// finds an account by its ID
func (r *Repository) FindByID(ctx context.Context, accountID string) (*Account, error) {
	return r.scanAccount(r.db.QueryRow(ctx, queryFindByID, accountID))
}

// updates an account's name and avatar URL
func (r *Repository) UpdateProfile(
	ctx context.Context,
	accountID, name, avatarURL string,
) (*Account, error) {
	return r.scanAccount(r.db.QueryRow(ctx, queryUpdateProfile, name, avatarURL, accountID))
}

// zeroes the daily counter and stamps the new reset day
func (r *Repository) ResetDailyUsage(ctx context.Context, accountID string, day time.Time) error {
	_, err := r.db.Exec(ctx, queryResetDailyUsage, accountID, day)
	if err != nil {
		return fmt.Errorf("failed to reset daily usage: %w", err)
	}

	return nil
}

// adds one to the daily counter
func (r *Repository) IncrementDailyUsage(ctx context.Context, accountID string) error {
	_, err := r.db.Exec(ctx, queryIncrementDailyUsage, accountID)
	if err != nil {
		return fmt.Errorf("failed to increment daily usage: %w", err)
	}

	return nil
}

// changes an account's tier and appends a tier-change history row in the same
// transaction. This is the only sanctioned path for tier mutations.
func (r *Repository) UpdateTier(ctx context.Context, accountID string, newTier tiers.Tier, actorID, reason string) (*Account, error) {
	current, err := r.FindByID(ctx, accountID)
	if err != nil {
		return nil, err
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback after commit is a no-op

	updated, err := r.scanAccount(tx.QueryRow(ctx, queryUpdateTier, accountID, newTier.String()))
	if err != nil {
		return nil, err
	}

	_, err = tx.Exec(ctx, queryInsertTierChange,
		accountID,
		current.Tier.String(),
		newTier.String(),
		actorID,
		reason,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert tier change: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit tier update: %w", err)
	}

	return updated, nil
}

// returns the account's tier mutation history, newest first
func (r *Repository) ListTierChanges(ctx context.Context, accountID string) ([]*TierChange, error) {
	rows, err := r.db.Query(ctx, queryListTierChanges, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tier changes: %w", err)
	}

	defer rows.Close()

	var changes []*TierChange

	for rows.Next() {
		var tc TierChange
		var oldTier, newTier string

		if err := rows.Scan(&tc.ID, &tc.AccountID, &oldTier, &newTier, &tc.ActorID, &tc.Reason, &tc.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan tier change: %w", err)
		}

		tc.OldTier = tiers.ParseTier(oldTier)
		tc.NewTier = tiers.ParseTier(newTier)
		changes = append(changes, &tc)
	}

	return changes, rows.Err()
}

func (r *Repository) scanAccount(row pgx.Row) (*Account, error) {
	var account Account
	var tier string

	err := row.Scan(
		&account.ID,
		&account.Email,
		&account.Provider,
		&account.ProviderID,
		&account.Name,
		&account.AvatarURL,
		&tier,
		&account.DailyUsed,
		&account.DailyLimit,
		&account.ResetDate,
		&account.Active,
		&account.CreatedAt,
		&account.UpdatedAt,
	)

	if err != nil {
		return nil, err
	}

	account.Tier = tiers.ParseTier(tier)

	return &account, nil
}

package accounts

const (
	accountColumns = `id, email, provider, provider_id, name, avatar_url, tier, daily_used, daily_limit, reset_date, active, created_at, updated_at`

	queryFindOrCreateByProvider = `
		INSERT INTO accounts (provider, provider_id, email, name, avatar_url)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (provider, provider_id)
		DO UPDATE SET
			email = EXCLUDED.email,
			name = EXCLUDED.name,
			avatar_url = EXCLUDED.avatar_url,
			updated_at = NOW()
		RETURNING ` + accountColumns

	queryFindByID = `
		SELECT ` + accountColumns + `
		FROM accounts
		WHERE id = $1
	`

	queryUpdateProfile = `
		UPDATE accounts
		SET name = $1, avatar_url = $2, updated_at = NOW()
		WHERE id = $3
		RETURNING ` + accountColumns

	queryResetDailyUsage = `
		UPDATE accounts
		SET daily_used = 0, reset_date = $2, updated_at = NOW()
		WHERE id = $1
	`

	queryIncrementDailyUsage = `
		UPDATE accounts
		SET daily_used = daily_used + 1, updated_at = NOW()
		WHERE id = $1
	`

	queryUpdateTier = `
		UPDATE accounts
		SET tier = $2, updated_at = NOW()
		WHERE id = $1
		RETURNING ` + accountColumns

	queryInsertTierChange = `
		INSERT INTO tier_changes (account_id, old_tier, new_tier, actor_id, reason)
		VALUES ($1, $2, $3, $4, $5)
	`

	queryListTierChanges = `
		SELECT id, account_id, old_tier, new_tier, actor_id, reason, created_at
		FROM tier_changes
		WHERE account_id = $1
		ORDER BY created_at DESC
	`
)

package usage

const (
	queryAppend = `
		INSERT INTO usage_logs (account_id, call_type, endpoint, tokens_used, cost, latency_ms, outcome, tier)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	queryCountToday = `
		SELECT COUNT(*)
		FROM usage_logs
		WHERE account_id = $1
		AND outcome = 'success'
		AND created_at >= CURRENT_DATE
	`

	queryListEntries = `
		SELECT id, account_id, call_type, endpoint, tokens_used, cost, latency_ms, outcome, tier, created_at
		FROM usage_logs
		WHERE account_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	queryCountEntries = `
		SELECT COUNT(*)
		FROM usage_logs
		WHERE account_id = $1
	`

	queryDailyHistory = `
		SELECT DATE(created_at) AS date, COUNT(*) AS count
		FROM usage_logs
		WHERE account_id = $1
		AND outcome = 'success'
		AND created_at >= CURRENT_DATE - make_interval(days => $2)
		GROUP BY DATE(created_at)
		ORDER BY date DESC
	`
)

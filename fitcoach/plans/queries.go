package plans

// table names are substituted from tableFor, never from user input
const (
	queryUpsert = `
		INSERT INTO %s (user_id, start_date, day_count, title, payload)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id, start_date, day_count)
		DO UPDATE SET
			title = EXCLUDED.title,
			payload = EXCLUDED.payload,
			updated_at = NOW()
		RETURNING id, created_at, updated_at
	`
)

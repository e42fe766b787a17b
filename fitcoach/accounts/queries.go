package accounts

const accountColumns = `
	user_id, plan, token_balance, token_expiry_at,
	COALESCE(subscription_status, ''), COALESCE(external_customer_id, ''),
	COALESCE(external_subscription_id, ''), current_period_end,
	COALESCE(last_topup_ref, ''), created_at, updated_at
`

const (
	queryGet = `
		INSERT INTO entitlement_accounts (user_id)
		VALUES ($1)
		ON CONFLICT (user_id) DO UPDATE SET user_id = EXCLUDED.user_id
		RETURNING` + accountColumns

	queryFindByCustomerID = `
		SELECT` + accountColumns + `
		FROM entitlement_accounts
		WHERE external_customer_id = $1
		ORDER BY updated_at DESC
		LIMIT 1
	`

	queryLinkCustomer = `
		INSERT INTO entitlement_accounts (user_id, external_customer_id, external_subscription_id)
		VALUES ($1, $2, NULLIF($3, ''))
		ON CONFLICT (user_id) DO UPDATE SET
			external_customer_id = EXCLUDED.external_customer_id,
			external_subscription_id = COALESCE(EXCLUDED.external_subscription_id, entitlement_accounts.external_subscription_id),
			updated_at = NOW()
		RETURNING` + accountColumns

	queryApplySubscription = `
		UPDATE entitlement_accounts
		SET plan = 'PRO',
			external_subscription_id = NULLIF($2, ''),
			subscription_status = NULLIF($3, ''),
			current_period_end = $4,
			updated_at = NOW()
		WHERE user_id = $1
		RETURNING` + accountColumns

	queryTopUp = `
		UPDATE entitlement_accounts
		SET plan = 'PRO',
			token_balance = $2,
			token_expiry_at = $3,
			last_topup_ref = NULLIF($4, ''),
			updated_at = NOW()
		WHERE user_id = $1
			AND ($4 = '' OR last_topup_ref IS DISTINCT FROM $4)
		RETURNING` + accountColumns

	queryDemote = `
		UPDATE entitlement_accounts
		SET plan = 'FREE',
			token_balance = 0,
			token_expiry_at = NULL,
			subscription_status = NULLIF($2, ''),
			updated_at = NOW()
		WHERE user_id = $1
		RETURNING` + accountColumns

	queryDebit = `
		UPDATE entitlement_accounts
		SET token_balance = token_balance - $2,
			updated_at = NOW()
		WHERE user_id = $1
			AND token_balance >= $2
			AND token_expiry_at > $3
		RETURNING token_balance
	`

	queryLogUsage = `
		INSERT INTO usage_logs (user_id, plan_type, model, input_tokens, output_tokens, cost_units)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
)

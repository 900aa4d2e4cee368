/**
 * Copyright 2025-present Coinbase Global, Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package database

const (
	// User queries
	queryGetActiveUsers = `
		SELECT id, name, email, created_at, updated_at
		FROM users
		WHERE active = 1
		ORDER BY created_at`

	queryInsertUser = `
		INSERT OR IGNORE INTO users (id, name, email) VALUES (?, ?, ?)`

	queryGetUserById = `
		SELECT id, name, email, created_at, updated_at
		FROM users
		WHERE id = ? AND active = 1`

	queryGetUserByEmail = `
		SELECT id, name, email, created_at, updated_at
		FROM users
		WHERE lower(email) = lower(?) AND active = 1`

	// Account queries
	accountColumns = `id, owner_id, name, provider, currency, balance, is_active, created_at, updated_at`

	queryInsertAccount = `
		INSERT INTO accounts (id, owner_id, name, provider, currency, balance, is_active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, '0', 1, ?, ?)`

	queryGetAccount = `
		SELECT ` + accountColumns + `
		FROM accounts
		WHERE id = ?`

	queryListAccounts = `
		SELECT ` + accountColumns + `
		FROM accounts
		WHERE owner_id = ?
		ORDER BY created_at, name`

	queryListActiveAccounts = `
		SELECT ` + accountColumns + `
		FROM accounts
		WHERE owner_id = ? AND is_active = 1
		ORDER BY created_at, name`

	querySumProcessedAmounts = `
		SELECT amount
		FROM transactions
		WHERE account_id = ? AND processed = 1`

	querySumProcessedAmountsUntil = `
		SELECT amount
		FROM transactions
		WHERE account_id = ? AND processed = 1 AND created_at <= ?`

	queryUpdateAccountBalance = `
		UPDATE accounts
		SET balance = ?, updated_at = ?
		WHERE id = ?`

	queryResetAccountBalances = `
		UPDATE accounts
		SET balance = '0', updated_at = ?
		WHERE owner_id = ?`

	queryAccountActivity = `
		SELECT COUNT(*), COALESCE(SUM(CASE WHEN created_at >= ? THEN 1 ELSE 0 END), 0)
		FROM transactions
		WHERE account_id = ?`

	// Transaction queries
	transactionColumns = `id, owner_id, account_id, amount, currency, merchant, category, description,
		raw_payload, transaction_hash, processed, external_id, created_at, ingested_at, updated_at`

	queryCheckDuplicateHash = `
		SELECT id FROM transactions WHERE transaction_hash = ? LIMIT 1`

	queryInsertTransaction = `
		INSERT INTO transactions (
			id, owner_id, account_id, amount, currency, merchant, category, description,
			raw_payload, transaction_hash, processed, external_id, created_at, ingested_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	queryGetTransaction = `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE id = ? AND owner_id = ?`

	queryListTransactions = `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE owner_id = ?
		ORDER BY created_at DESC, id`

	queryListUnprocessed = `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE owner_id = ? AND processed = 0
		ORDER BY created_at DESC, id`

	queryListRecent = `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE owner_id = ?
		ORDER BY ingested_at DESC, created_at DESC, id
		LIMIT ?`

	queryListProcessedInRange = `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE owner_id = ? AND processed = 1 AND created_at >= ? AND created_at <= ?
		ORDER BY created_at, id`

	queryApplyCleaned = `
		UPDATE transactions
		SET amount = ?, created_at = ?, merchant = ?, category = ?, description = ?,
		    processed = 1, updated_at = ?
		WHERE id = ?`

	queryMarkUnprocessed = `
		UPDATE transactions
		SET processed = 0, updated_at = ?
		WHERE id = ? AND owner_id = ?`

	queryResetProcessed = `
		UPDATE transactions
		SET processed = 0, updated_at = ?
		WHERE owner_id = ? AND processed = 1`

	querySetCategory = `
		UPDATE transactions
		SET category = ?, updated_at = ?
		WHERE id = ? AND owner_id = ?`

	queryCountTransactions = `
		SELECT COUNT(*), COALESCE(SUM(CASE WHEN processed = 0 THEN 1 ELSE 0 END), 0)
		FROM transactions
		WHERE owner_id = ?`

	queryCountAllUnprocessed = `
		SELECT COUNT(*) FROM transactions WHERE processed = 0`

	// User stats queries
	queryUpsertUserStats = `
		INSERT INTO user_stats (
			user_id, total_transactions, total_income, total_expense,
			avg_transaction_amount, spent_by_category, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			total_transactions = excluded.total_transactions,
			total_income = excluded.total_income,
			total_expense = excluded.total_expense,
			avg_transaction_amount = excluded.avg_transaction_amount,
			spent_by_category = excluded.spent_by_category,
			updated_at = excluded.updated_at`

	queryGetUserStats = `
		SELECT user_id, total_transactions, total_income, total_expense,
		       avg_transaction_amount, spent_by_category, updated_at
		FROM user_stats
		WHERE user_id = ?`

	// Health queries
	queryTableExists = `
		SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?`
)

// requiredTables must exist for the pipeline to run
var requiredTables = []string{"users", "accounts", "transactions", "user_stats"}

// supportingIndexes are the read-path indexes maintained by the load stage
var supportingIndexes = []string{
	`CREATE INDEX IF NOT EXISTS idx_transactions_owner_created ON transactions(owner_id, created_at)`,
	`CREATE INDEX IF NOT EXISTS idx_transactions_owner_category ON transactions(owner_id, category)`,
	`CREATE INDEX IF NOT EXISTS idx_transactions_owner_merchant ON transactions(owner_id, merchant)`,
	`CREATE INDEX IF NOT EXISTS idx_transactions_account_created ON transactions(account_id, created_at)`,
	`CREATE INDEX IF NOT EXISTS idx_transactions_processed_created ON transactions(processed, created_at)`,
}

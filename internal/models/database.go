package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// User represents an owner of accounts and transactions
type User struct {
	Id        string    `db:"id"`
	Name      string    `db:"name"`
	Email     string    `db:"email"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// Account providers accepted for Account.Provider
const (
	ProviderCSV    = "csv"
	ProviderManual = "manual"
	ProviderUzum   = "Uzum"
	ProviderPayme  = "Payme"
	ProviderClick  = "Click"
)

// Account is a user's money container. Balance is derived from processed
// transactions and rebuilt by the load stage.
type Account struct {
	Id        string          `db:"id"`
	OwnerId   string          `db:"owner_id"`
	Name      string          `db:"name"`
	Provider  string          `db:"provider"`
	Currency  string          `db:"currency"`
	Balance   decimal.Decimal `db:"balance"`
	IsActive  bool            `db:"is_active"`
	CreatedAt time.Time       `db:"created_at"`
	UpdatedAt time.Time       `db:"updated_at"`
}

// Transaction is a single money movement. Amount is positive for income and
// negative for expenses. CreatedAt is the real-world date of the movement and
// IngestedAt is when it was stored.
type Transaction struct {
	Id              string          `db:"id"`
	OwnerId         string          `db:"owner_id"`
	AccountId       string          `db:"account_id"` // empty when not linked
	Amount          decimal.Decimal `db:"amount"`
	Currency        string          `db:"currency"`
	Merchant        string          `db:"merchant"`
	Category        string          `db:"category"`
	Description     string          `db:"description"`
	RawPayload      RawRecord       `db:"raw_payload"`
	TransactionHash string          `db:"transaction_hash"`
	Processed       bool            `db:"processed"`
	ExternalId      string          `db:"external_id"`
	CreatedAt       time.Time       `db:"created_at"`
	IngestedAt      time.Time       `db:"ingested_at"`
	UpdatedAt       time.Time       `db:"updated_at"`
}

// UserStats is the cached per-user snapshot maintained by the load stage
type UserStats struct {
	UserId               string                     `db:"user_id" json:"user_id"`
	TotalTransactions    int                        `db:"total_transactions" json:"total_transactions"`
	TotalIncome          decimal.Decimal            `db:"total_income" json:"total_income"`
	TotalExpense         decimal.Decimal            `db:"total_expense" json:"total_expense"`
	AvgTransactionAmount decimal.Decimal            `db:"avg_transaction_amount" json:"avg_transaction_amount"`
	SpentByCategory      map[string]decimal.Decimal `db:"spent_by_category" json:"spent_by_category"`
	UpdatedAt            time.Time                  `db:"updated_at" json:"updated_at"`
}

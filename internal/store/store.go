package store

import (
	"context"
	"errors"
	"time"

	"finance-etl-go/internal/models"

	"github.com/shopspring/decimal"
)

// Sentinel errors shared across all backend implementations.
var (
	ErrTransactionNotFound  = errors.New("transaction not found")
	ErrAccountNotFound      = errors.New("account not found")
	ErrUserNotFound         = errors.New("user not found")
	ErrDuplicateTransaction = errors.New("duplicate transaction")
	ErrInvalidConfig        = errors.New("invalid configuration")
	ErrRollbackUnsupported  = errors.New("rollback not supported")
	ErrRunInProgress        = errors.New("pipeline run already in progress")
)

// NewTransactionParams contains the fields for inserting a transaction.
// Ingest leaves Processed false; manual entries are stored processed.
type NewTransactionParams struct {
	OwnerId         string
	AccountId       string // optional
	Amount          decimal.Decimal
	Currency        string
	Merchant        string
	Category        string
	Description     string
	RawPayload      models.RawRecord
	TransactionHash string
	ExternalId      string
	CreatedAt       time.Time
	Processed       bool
}

// BatchInsertResult reports the outcome of an atomic batch insert.
// Per-row failures are collected in Errors and do not abort the batch.
type BatchInsertResult struct {
	Saved      int
	Duplicates int
	Errors     []string
}

// CleanedFields are the fields rewritten by the transform stage
type CleanedFields struct {
	Amount      decimal.Decimal
	CreatedAt   time.Time
	Merchant    string
	Category    string
	Description string
}

// NewAccountParams contains the fields for creating an account
type NewAccountParams struct {
	OwnerId  string
	Name     string
	Provider string
	Currency string
}

// AccountActivity counts transactions referencing one account
type AccountActivity struct {
	Total  int
	Recent int
}

// TransactionStore is everything the pipeline needs from transaction storage.
type TransactionStore interface {
	InsertRawBatch(ctx context.Context, rows []NewTransactionParams) (*BatchInsertResult, error)
	CreateTransaction(ctx context.Context, params NewTransactionParams) (*models.Transaction, error)
	GetTransaction(ctx context.Context, ownerId, transactionId string) (*models.Transaction, error)
	ListTransactions(ctx context.Context, ownerId string) ([]models.Transaction, error)
	ListUnprocessed(ctx context.Context, ownerId string) ([]models.Transaction, error)
	ListRecent(ctx context.Context, ownerId string, limit int) ([]models.Transaction, error)
	ListProcessedInRange(ctx context.Context, ownerId string, start, end time.Time) ([]models.Transaction, error)
	ApplyCleaned(ctx context.Context, transactionId string, fields CleanedFields) error
	MarkUnprocessed(ctx context.Context, ownerId, transactionId string) error
	ResetProcessed(ctx context.Context, ownerId string) (int64, error)
	SetCategory(ctx context.Context, ownerId, transactionId, category string) error
	CountTransactions(ctx context.Context, ownerId string) (total int, unprocessed int, err error)
	CountAllUnprocessed(ctx context.Context) (int, error)
}

// AccountStore is everything the pipeline needs from account storage.
type AccountStore interface {
	CreateAccount(ctx context.Context, params NewAccountParams) (*models.Account, error)
	GetAccount(ctx context.Context, accountId string) (*models.Account, error)
	ListAccounts(ctx context.Context, ownerId string, activeOnly bool) ([]models.Account, error)
	SumProcessed(ctx context.Context, accountId string, cutoff *time.Time) (decimal.Decimal, error)
	UpdateBalance(ctx context.Context, accountId string, balance decimal.Decimal) error
	ResetBalances(ctx context.Context, ownerId string) (int64, error)
	GetAccountActivity(ctx context.Context, accountId string, since time.Time) (AccountActivity, error)
}

// StatsStore persists the cached per-user snapshot.
type StatsStore interface {
	UpsertUserStats(ctx context.Context, stats *models.UserStats) error
	// GetUserStats returns nil, nil when no snapshot exists yet.
	GetUserStats(ctx context.Context, userId string) (*models.UserStats, error)
}

// UserStore resolves transaction owners.
type UserStore interface {
	GetUsers(ctx context.Context) ([]models.User, error)
	GetUserById(ctx context.Context, userId string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	CreateUser(ctx context.Context, userId, name, email string) (*models.User, error)
}

// HealthChecker is used by the pipeline health check.
type HealthChecker interface {
	Ping(ctx context.Context) error
	CheckTables(ctx context.Context) error
}

// IndexMaintainer creates supporting indexes. Implementations must be
// idempotent and may be a no-op.
type IndexMaintainer interface {
	EnsureIndexes(ctx context.Context) error
}

// Store defines the contract that every backend must satisfy.
type Store interface {
	TransactionStore
	AccountStore
	StatsStore
	UserStore
	HealthChecker
	IndexMaintainer

	// --- Lifecycle ---
	Close()
}

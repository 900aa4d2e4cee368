package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"finance-etl-go/internal/models"
	"finance-etl-go/internal/store"

	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type rowScanner interface {
	Scan(dest ...any) error
}

// InsertRawBatch stores rows in a single database transaction. Rows whose
// hash already exists (in the table or earlier in the same batch) are counted
// as duplicates and skipped. A failing row is recorded and the batch carries
// on; only a commit failure is returned as an error.
func (s *Service) InsertRawBatch(ctx context.Context, rows []store.NewTransactionParams) (*store.BatchInsertResult, error) {
	zap.L().Debug("Inserting transaction batch", zap.Int("rows", len(rows)))

	result := &store.BatchInsertResult{Errors: []string{}}
	if len(rows) == 0 {
		return result, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := dbTime(time.Now())
	for idx, row := range rows {
		err := insertTransaction(ctx, tx, uuid.New().String(), row, now)
		switch {
		case err == nil:
			result.Saved++
		case errors.Is(err, store.ErrDuplicateTransaction):
			result.Duplicates++
		default:
			zap.L().Warn("Failed to insert row", zap.Int("row", idx+1), zap.Error(err))
			result.Errors = append(result.Errors, fmt.Sprintf("Row %d: %v", idx+1, err))
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit batch: %w", err)
	}

	zap.L().Info("Transaction batch stored",
		zap.Int("saved", result.Saved),
		zap.Int("duplicates", result.Duplicates),
		zap.Int("errors", len(result.Errors)))
	return result, nil
}

// CreateTransaction stores a single transaction and returns it
func (s *Service) CreateTransaction(ctx context.Context, params store.NewTransactionParams) (*models.Transaction, error) {
	id := uuid.New().String()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := insertTransaction(ctx, tx, id, params, dbTime(time.Now())); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	zap.L().Info("Transaction created",
		zap.String("transaction_id", id),
		zap.String("user_id", params.OwnerId),
		zap.String("amount", params.Amount.String()))
	return s.GetTransaction(ctx, params.OwnerId, id)
}

func insertTransaction(ctx context.Context, tx *sql.Tx, id string, p store.NewTransactionParams, now time.Time) error {
	if p.OwnerId == "" {
		return errors.New("transaction has no owner")
	}
	if p.TransactionHash == "" {
		return errors.New("transaction hash is required")
	}

	var existingId string
	err := tx.QueryRowContext(ctx, queryCheckDuplicateHash, p.TransactionHash).Scan(&existingId)
	if err == nil {
		return fmt.Errorf("%w: hash %s already stored as %s", store.ErrDuplicateTransaction, p.TransactionHash, existingId)
	} else if !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("failed to check for duplicate transaction: %w", err)
	}

	payload, err := encodePayload(p.RawPayload)
	if err != nil {
		return fmt.Errorf("failed to encode raw payload: %w", err)
	}

	createdAt := p.CreatedAt
	if createdAt.IsZero() {
		createdAt = now
	}

	_, err = tx.ExecContext(ctx, queryInsertTransaction,
		id, p.OwnerId, nullString(p.AccountId), p.Amount.String(), p.Currency,
		nullString(p.Merchant), nullString(p.Category), nullString(p.Description),
		payload, p.TransactionHash, p.Processed, nullString(p.ExternalId),
		dbTime(createdAt), now, now)
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
			return fmt.Errorf("%w: hash %s", store.ErrDuplicateTransaction, p.TransactionHash)
		}
		return fmt.Errorf("failed to insert transaction: %w", err)
	}
	return nil
}

func (s *Service) GetTransaction(ctx context.Context, ownerId, transactionId string) (*models.Transaction, error) {
	t, err := scanTransaction(s.db.QueryRowContext(ctx, queryGetTransaction, transactionId, ownerId))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", store.ErrTransactionNotFound, transactionId)
		}
		return nil, fmt.Errorf("unable to get transaction: %w", err)
	}
	return t, nil
}

// ListTransactions returns every transaction the user owns, newest first
func (s *Service) ListTransactions(ctx context.Context, ownerId string) ([]models.Transaction, error) {
	return s.queryTransactions(ctx, queryListTransactions, ownerId)
}

// ListUnprocessed returns the user's unprocessed transactions, newest first
func (s *Service) ListUnprocessed(ctx context.Context, ownerId string) ([]models.Transaction, error) {
	return s.queryTransactions(ctx, queryListUnprocessed, ownerId)
}

// ListRecent returns the most recently ingested transactions
func (s *Service) ListRecent(ctx context.Context, ownerId string, limit int) ([]models.Transaction, error) {
	if limit <= 0 {
		limit = 100
	}
	return s.queryTransactions(ctx, queryListRecent, ownerId, limit)
}

// ListProcessedInRange returns processed transactions with start <= created_at <= end
func (s *Service) ListProcessedInRange(ctx context.Context, ownerId string, start, end time.Time) ([]models.Transaction, error) {
	return s.queryTransactions(ctx, queryListProcessedInRange, ownerId, dbTime(start), dbTime(end))
}

func (s *Service) queryTransactions(ctx context.Context, query string, args ...any) ([]models.Transaction, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer closeRows(rows)

	var transactions []models.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		transactions = append(transactions, *t)
	}

	// Check for errors during iteration
	if err := rows.Err(); err != nil {
		zap.L().Error("Error during transaction row iteration", zap.Error(err))
		return nil, fmt.Errorf("error iterating transaction rows: %w", err)
	}

	return transactions, nil
}

// ApplyCleaned writes transform output for one record and marks it processed.
// Each call is its own database transaction.
func (s *Service) ApplyCleaned(ctx context.Context, transactionId string, fields store.CleanedFields) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, queryApplyCleaned,
		fields.Amount.String(), dbTime(fields.CreatedAt),
		nullString(fields.Merchant), nullString(fields.Category), nullString(fields.Description),
		dbTime(time.Now()), transactionId)
	if err != nil {
		return fmt.Errorf("failed to update transaction: %w", err)
	}
	if err := requireAffected(result, store.ErrTransactionNotFound, transactionId); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (s *Service) MarkUnprocessed(ctx context.Context, ownerId, transactionId string) error {
	result, err := s.db.ExecContext(ctx, queryMarkUnprocessed, dbTime(time.Now()), transactionId, ownerId)
	if err != nil {
		return fmt.Errorf("failed to reset processed flag: %w", err)
	}
	return requireAffected(result, store.ErrTransactionNotFound, transactionId)
}

// ResetProcessed flips every processed transaction of the user back to
// unprocessed and returns how many rows changed
func (s *Service) ResetProcessed(ctx context.Context, ownerId string) (int64, error) {
	result, err := s.db.ExecContext(ctx, queryResetProcessed, dbTime(time.Now()), ownerId)
	if err != nil {
		return 0, fmt.Errorf("failed to reset processed flags: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("unable to get rows affected: %w", err)
	}

	zap.L().Info("Processed flags reset", zap.String("user_id", ownerId), zap.Int64("affected", affected))
	return affected, nil
}

func (s *Service) SetCategory(ctx context.Context, ownerId, transactionId, category string) error {
	result, err := s.db.ExecContext(ctx, querySetCategory, nullString(category), dbTime(time.Now()), transactionId, ownerId)
	if err != nil {
		return fmt.Errorf("failed to set category: %w", err)
	}
	return requireAffected(result, store.ErrTransactionNotFound, transactionId)
}

func (s *Service) CountTransactions(ctx context.Context, ownerId string) (int, int, error) {
	var total, unprocessed int
	if err := s.db.QueryRowContext(ctx, queryCountTransactions, ownerId).Scan(&total, &unprocessed); err != nil {
		return 0, 0, fmt.Errorf("failed to count transactions: %w", err)
	}
	return total, unprocessed, nil
}

func (s *Service) CountAllUnprocessed(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, queryCountAllUnprocessed).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count unprocessed transactions: %w", err)
	}
	return count, nil
}

func scanTransaction(row rowScanner) (*models.Transaction, error) {
	var t models.Transaction
	var accountId, merchant, category, description, rawPayload, externalId sql.NullString
	var amountStr string

	err := row.Scan(&t.Id, &t.OwnerId, &accountId, &amountStr, &t.Currency,
		&merchant, &category, &description, &rawPayload, &t.TransactionHash,
		&t.Processed, &externalId, &t.CreatedAt, &t.IngestedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}

	t.Amount, err = decimal.NewFromString(amountStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse amount '%s': %w", amountStr, err)
	}

	t.AccountId = accountId.String
	t.Merchant = merchant.String
	t.Category = category.String
	t.Description = description.String
	t.ExternalId = externalId.String

	if rawPayload.Valid && rawPayload.String != "" {
		t.RawPayload, err = decodePayload(rawPayload.String)
		if err != nil {
			return nil, fmt.Errorf("failed to decode raw payload for %s: %w", t.Id, err)
		}
	}

	return &t, nil
}

func encodePayload(payload models.RawRecord) (sql.NullString, error) {
	if payload == nil {
		return sql.NullString{}, nil
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(b), Valid: true}, nil
}

// decodePayload keeps numbers as json.Number so amounts are never routed
// through float64
func decodePayload(s string) (models.RawRecord, error) {
	dec := json.NewDecoder(strings.NewReader(s))
	dec.UseNumber()

	var payload models.RawRecord
	if err := dec.Decode(&payload); err != nil {
		return nil, err
	}
	return payload, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func requireAffected(result sql.Result, notFound error, id string) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("unable to get rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: %s", notFound, id)
	}
	return nil
}

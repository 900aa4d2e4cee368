package api

import (
	"context"
	"fmt"
	"strings"

	"finance-etl-go/internal/ingest"
	"finance-etl-go/internal/models"
	"finance-etl-go/internal/parsing"
	"finance-etl-go/internal/store"

	"go.uber.org/zap"
)

const (
	defaultRawLimit = 100
	maxRawLimit     = 1000
)

// CreateTransaction stores a hand-entered transaction. It is cleaned and
// categorized on entry and stored as processed.
func (s *FinanceService) CreateTransaction(ctx context.Context, userId string, input models.ManualTransaction) (*models.Transaction, error) {
	if err := s.requireUser(ctx, userId); err != nil {
		return nil, err
	}
	if input.Amount.IsZero() {
		return nil, fmt.Errorf("%w: amount is required", store.ErrInvalidConfig)
	}
	if err := s.requireAccount(ctx, userId, input.AccountId); err != nil {
		return nil, err
	}

	date := input.Date
	if date.IsZero() {
		date = s.now()
	}
	date = parsing.Today(date)

	currency := strings.ToUpper(strings.TrimSpace(input.Currency))
	if currency == "" {
		currency = "UZS"
	}

	merchant := s.rules.NormalizeMerchant(input.Merchant)
	description := strings.TrimSpace(input.Description)
	category := strings.TrimSpace(input.Category)
	if category == "" {
		category = s.rules.Categorize(merchant, description, &input.Amount)
	}

	tx, err := s.db.CreateTransaction(ctx, store.NewTransactionParams{
		OwnerId:     userId,
		AccountId:   input.AccountId,
		Amount:      input.Amount,
		Currency:    currency,
		Merchant:    merchant,
		Category:    category,
		Description: description,
		RawPayload: models.RawRecord{
			"date":        date.Format("2006-01-02"),
			"amount":      input.Amount.String(),
			"merchant":    input.Merchant,
			"category":    input.Category,
			"description": input.Description,
		},
		TransactionHash: ingest.GenerateHash(date.Format("2006-01-02"), input.Amount.String(), merchant, models.SourceManual),
		CreatedAt:       date,
		Processed:       true,
	})
	if err != nil {
		zap.L().Error("Failed to add transaction", zap.String("user_id", userId), zap.Error(err))
		return nil, fmt.Errorf("failed to add transaction: %w", err)
	}
	return tx, nil
}

// UploadCSV ingests a CSV export without running the rest of the pipeline.
// It is refused while a run for the user is in progress.
func (s *FinanceService) UploadCSV(ctx context.Context, userId, accountId string, content []byte) (*models.IngestResult, error) {
	if err := s.requireUser(ctx, userId); err != nil {
		return nil, err
	}
	if len(content) == 0 {
		return nil, fmt.Errorf("%w: uploaded file is empty or unreadable", store.ErrInvalidConfig)
	}
	if err := s.requireAccount(ctx, userId, accountId); err != nil {
		return nil, err
	}

	var result *models.IngestResult
	err := s.pipeline.WithUserLock(userId, func() error {
		var err error
		result, err = s.ingest.IngestFromCSV(ctx, content, userId, accountId)
		return err
	})
	if err != nil {
		zap.L().Error("CSV upload failed", zap.String("user_id", userId), zap.Error(err))
		return nil, fmt.Errorf("upload failed: %w", err)
	}
	return result, nil
}

// IngestWebhook stores one pushed transaction event
func (s *FinanceService) IngestWebhook(ctx context.Context, userId, accountId string, event models.WebhookEvent) (*models.IngestResult, error) {
	if err := s.requireUser(ctx, userId); err != nil {
		return nil, err
	}
	if len(event.Payload) == 0 {
		return nil, fmt.Errorf("%w: webhook payload is empty", store.ErrInvalidConfig)
	}
	if err := s.requireAccount(ctx, userId, accountId); err != nil {
		return nil, err
	}
	return s.ingest.IngestWebhook(ctx, userId, accountId, event)
}

// SyncPayme pulls the user's transactions from the Payme merchant API
func (s *FinanceService) SyncPayme(ctx context.Context, userId, accountId, merchantId, token string) (*models.IngestResult, error) {
	if err := s.requireUser(ctx, userId); err != nil {
		return nil, err
	}
	if err := s.requireAccount(ctx, userId, accountId); err != nil {
		return nil, err
	}

	var result *models.IngestResult
	err := s.pipeline.WithUserLock(userId, func() error {
		var err error
		result, err = s.ingest.IngestFromPayme(ctx, userId, accountId, merchantId, token)
		return err
	})
	return result, err
}

// RawTransactions lists the user's newest transactions, processed or not
func (s *FinanceService) RawTransactions(ctx context.Context, userId string, limit int) ([]models.Transaction, error) {
	if err := s.requireUser(ctx, userId); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = defaultRawLimit
	}
	if limit > maxRawLimit {
		limit = maxRawLimit
	}

	txs, err := s.db.ListRecent(ctx, userId, limit)
	if err != nil {
		zap.L().Error("Failed to list transactions", zap.String("user_id", userId), zap.Error(err))
		return nil, fmt.Errorf("failed to retrieve transactions: %w", err)
	}
	return txs, nil
}

// TransformTransactions cleans every unprocessed transaction of the user.
// It is refused while a run for the user is in progress.
func (s *FinanceService) TransformTransactions(ctx context.Context, userId string) (*models.TransformResult, error) {
	if err := s.requireUser(ctx, userId); err != nil {
		return nil, err
	}

	var result *models.TransformResult
	err := s.pipeline.WithUserLock(userId, func() error {
		var err error
		result, err = s.transform.TransformAllUnprocessed(ctx, userId)
		return err
	})
	return result, err
}

// ReprocessTransaction cleans one transaction again from its raw payload
func (s *FinanceService) ReprocessTransaction(ctx context.Context, userId, transactionId string) (*models.Transaction, error) {
	if err := s.requireUser(ctx, userId); err != nil {
		return nil, err
	}
	if transactionId == "" {
		return nil, fmt.Errorf("%w: transaction_id is required", store.ErrInvalidConfig)
	}
	return s.transform.ReprocessTransaction(ctx, userId, transactionId)
}

// UpdateCategory overrides the category of one transaction
func (s *FinanceService) UpdateCategory(ctx context.Context, userId, transactionId, category string) error {
	if err := s.requireUser(ctx, userId); err != nil {
		return err
	}
	if transactionId == "" {
		return fmt.Errorf("%w: transaction_id is required", store.ErrInvalidConfig)
	}
	if err := s.transform.SetCategory(ctx, userId, transactionId, category); err != nil {
		return err
	}
	s.aggregate.Invalidate(userId)
	return nil
}

// ValidateTransaction checks one transaction against the data quality rules
func (s *FinanceService) ValidateTransaction(ctx context.Context, userId, transactionId string) (*models.ValidationReport, error) {
	if err := s.requireUser(ctx, userId); err != nil {
		return nil, err
	}
	return s.load.ValidateTransaction(ctx, userId, transactionId)
}

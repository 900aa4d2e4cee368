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

package transform

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"finance-etl-go/internal/models"
	"finance-etl-go/internal/parsing"
	"finance-etl-go/internal/store"

	"go.uber.org/multierr"
	"go.uber.org/zap"
)

var (
	ErrUnparseableDate   = errors.New("could not parse date")
	ErrUnparseableAmount = errors.New("could not parse amount")
)

const defaultBatchSize = 100

// Service cleans unprocessed transactions in place
type Service struct {
	store     store.TransactionStore
	rules     *parsing.Rules
	batchSize int
	now       func() time.Time
}

// NewService creates a transform service. A nil rules value uses the
// built-in tables; batchSize only controls progress logging.
func NewService(txStore store.TransactionStore, rules *parsing.Rules, batchSize int) *Service {
	if rules == nil {
		rules = parsing.DefaultRules()
	}
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	return &Service{
		store:     txStore,
		rules:     rules,
		batchSize: batchSize,
		now:       time.Now,
	}
}

// TransformAllUnprocessed cleans every unprocessed transaction of the user.
// Each record is written on its own, so a failing record stays unprocessed
// without affecting the others. The returned error is only set when the
// records could not be listed or ctx ended.
func (s *Service) TransformAllUnprocessed(ctx context.Context, userId string) (*models.TransformResult, error) {
	if userId == "" {
		return nil, fmt.Errorf("%w: user id is required", store.ErrInvalidConfig)
	}

	txs, err := s.store.ListUnprocessed(ctx, userId)
	if err != nil {
		return nil, fmt.Errorf("failed to list unprocessed transactions: %w", err)
	}

	result := &models.TransformResult{Total: len(txs)}
	zap.L().Info("Starting transformation",
		zap.String("run_id", models.RunId(ctx)),
		zap.String("user_id", userId),
		zap.Int("total", result.Total))

	var failures error
	for i := range txs {
		if err := ctx.Err(); err != nil {
			return result, fmt.Errorf("transformation interrupted after %d records: %w", i, err)
		}

		if err := s.TransformTransaction(ctx, &txs[i]); err != nil {
			result.Failed++
			result.Errors = append(result.Errors, err.Error())
			failures = multierr.Append(failures, err)
		} else {
			result.Processed++
		}

		if (i+1)%s.batchSize == 0 {
			zap.L().Debug("Transformation progress",
				zap.String("user_id", userId),
				zap.Int("done", i+1),
				zap.Int("total", result.Total))
		}
	}

	if failures != nil {
		zap.L().Warn("Some transactions could not be transformed",
			zap.String("run_id", models.RunId(ctx)),
			zap.String("user_id", userId),
			zap.Int("failed", result.Failed),
			zap.Error(failures))
	}

	zap.L().Info("Transformation complete",
		zap.String("run_id", models.RunId(ctx)),
		zap.String("user_id", userId),
		zap.Int("processed", result.Processed),
		zap.Int("total", result.Total))
	return result, nil
}

// TransformTransaction re-derives the cleaned fields of tx from its raw
// payload, falling back to the stored values for fields the payload lacks,
// and marks it processed. A stored category is kept as user-assigned.
func (s *Service) TransformTransaction(ctx context.Context, tx *models.Transaction) error {
	fields, err := s.clean(tx)
	if err != nil {
		zap.L().Warn("Could not transform transaction",
			zap.String("transaction_id", tx.Id),
			zap.Error(err))
		return fmt.Errorf("transaction %s: %w", tx.Id, err)
	}

	if err := s.store.ApplyCleaned(ctx, tx.Id, fields); err != nil {
		zap.L().Error("Failed to store transformed transaction",
			zap.String("transaction_id", tx.Id),
			zap.Error(err))
		return fmt.Errorf("transaction %s: %w", tx.Id, err)
	}

	tx.Amount = fields.Amount
	tx.CreatedAt = fields.CreatedAt
	tx.Merchant = fields.Merchant
	tx.Category = fields.Category
	tx.Description = fields.Description
	tx.Processed = true

	zap.L().Debug("Transformed transaction",
		zap.String("transaction_id", tx.Id),
		zap.String("merchant", fields.Merchant),
		zap.String("category", fields.Category))
	return nil
}

func (s *Service) clean(tx *models.Transaction) (store.CleanedFields, error) {
	raw := tx.RawPayload

	var fields store.CleanedFields

	if rawDate, ok := raw.Lookup(models.DateKeys...); ok {
		date, ok := parsing.CleanDate(rawDate, s.now())
		if !ok {
			return fields, fmt.Errorf("%w: %q", ErrUnparseableDate, rawDate)
		}
		fields.CreatedAt = date
	} else if !tx.CreatedAt.IsZero() {
		fields.CreatedAt = parsing.Today(tx.CreatedAt)
	} else {
		return fields, ErrUnparseableDate
	}

	if rawAmount, ok := raw.Lookup(models.AmountKeys...); ok {
		amount, ok := parsing.ParseAmount(rawAmount)
		if !ok {
			return fields, fmt.Errorf("%w: %q", ErrUnparseableAmount, rawAmount)
		}
		fields.Amount = amount
	} else {
		fields.Amount = tx.Amount
	}

	merchant, ok := raw.Lookup(models.MerchantKeys...)
	if !ok {
		merchant = tx.Merchant
	}
	fields.Merchant = s.rules.NormalizeMerchant(merchant)

	description, ok := raw.Lookup(models.DescriptionKeys...)
	if !ok {
		description = tx.Description
	}
	fields.Description = strings.TrimSpace(description)

	if category := strings.TrimSpace(tx.Category); category != "" {
		fields.Category = category
	} else {
		fields.Category = s.rules.Categorize(fields.Merchant, fields.Description, &fields.Amount)
	}

	return fields, nil
}

// ReprocessTransaction clears the processed flag of one transaction and runs
// it through the transform again. Used after rule changes.
func (s *Service) ReprocessTransaction(ctx context.Context, ownerId, transactionId string) (*models.Transaction, error) {
	tx, err := s.store.GetTransaction(ctx, ownerId, transactionId)
	if err != nil {
		return nil, err
	}

	if err := s.store.MarkUnprocessed(ctx, ownerId, transactionId); err != nil {
		return nil, fmt.Errorf("failed to reset transaction: %w", err)
	}
	tx.Processed = false

	if err := s.TransformTransaction(ctx, tx); err != nil {
		return nil, err
	}

	zap.L().Info("Reprocessed transaction",
		zap.String("user_id", ownerId),
		zap.String("transaction_id", transactionId),
		zap.String("category", tx.Category))
	return tx, nil
}

// SetCategory assigns a category by hand. The transform keeps it from then on.
func (s *Service) SetCategory(ctx context.Context, ownerId, transactionId, category string) error {
	category = strings.TrimSpace(category)
	if category == "" {
		return fmt.Errorf("%w: category is required", store.ErrInvalidConfig)
	}

	if !parsing.IsKnownCategory(category) {
		zap.L().Warn("Assigning a category outside the known set",
			zap.String("transaction_id", transactionId),
			zap.String("category", category))
	}

	if err := s.store.SetCategory(ctx, ownerId, transactionId, category); err != nil {
		return fmt.Errorf("failed to set category: %w", err)
	}
	return nil
}

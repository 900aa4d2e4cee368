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

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"finance-etl-go/internal/models"
	"finance-etl-go/internal/store"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

func (s *Service) CreateAccount(ctx context.Context, params store.NewAccountParams) (*models.Account, error) {
	if params.OwnerId == "" {
		return nil, fmt.Errorf("%w: account owner is required", store.ErrInvalidConfig)
	}
	if params.Name == "" {
		return nil, fmt.Errorf("%w: account name is required", store.ErrInvalidConfig)
	}

	if params.Provider == "" {
		params.Provider = models.ProviderManual
	}
	if params.Currency == "" {
		params.Currency = "UZS"
	}

	id := uuid.New().String()
	now := dbTime(time.Now())
	zap.L().Info("Creating account",
		zap.String("id", id),
		zap.String("user_id", params.OwnerId),
		zap.String("name", params.Name),
		zap.String("provider", params.Provider))

	_, err := s.db.ExecContext(ctx, queryInsertAccount,
		id, params.OwnerId, params.Name, params.Provider, params.Currency, now, now)
	if err != nil {
		zap.L().Error("Failed to insert account", zap.String("name", params.Name), zap.Error(err))
		return nil, fmt.Errorf("unable to insert account: %w", err)
	}

	return s.GetAccount(ctx, id)
}

func (s *Service) GetAccount(ctx context.Context, accountId string) (*models.Account, error) {
	account, err := scanAccount(s.db.QueryRowContext(ctx, queryGetAccount, accountId))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", store.ErrAccountNotFound, accountId)
		}
		return nil, fmt.Errorf("unable to get account: %w", err)
	}
	return account, nil
}

func (s *Service) ListAccounts(ctx context.Context, ownerId string, activeOnly bool) ([]models.Account, error) {
	zap.L().Debug("Querying accounts", zap.String("user_id", ownerId), zap.Bool("active_only", activeOnly))

	query := queryListAccounts
	if activeOnly {
		query = queryListActiveAccounts
	}

	rows, err := s.db.QueryContext(ctx, query, ownerId)
	if err != nil {
		zap.L().Error("Failed to query accounts", zap.String("user_id", ownerId), zap.Error(err))
		return nil, fmt.Errorf("unable to query accounts: %w", err)
	}
	defer closeRows(rows)

	var accounts []models.Account
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("unable to scan account row: %w", err)
		}
		accounts = append(accounts, *account)
	}

	// Check for errors during iteration
	if err := rows.Err(); err != nil {
		zap.L().Error("Error during account row iteration", zap.Error(err))
		return nil, fmt.Errorf("error iterating account rows: %w", err)
	}

	return accounts, nil
}

// GetAccountActivity counts all transactions of an account and those dated
// on or after since
func (s *Service) GetAccountActivity(ctx context.Context, accountId string, since time.Time) (store.AccountActivity, error) {
	var activity store.AccountActivity
	err := s.db.QueryRowContext(ctx, queryAccountActivity, dbTime(since), accountId).Scan(&activity.Total, &activity.Recent)
	if err != nil {
		return store.AccountActivity{}, fmt.Errorf("failed to count account activity: %w", err)
	}
	return activity, nil
}

func scanAccount(row rowScanner) (*models.Account, error) {
	var account models.Account
	var balanceStr string
	err := row.Scan(&account.Id, &account.OwnerId, &account.Name, &account.Provider, &account.Currency,
		&balanceStr, &account.IsActive, &account.CreatedAt, &account.UpdatedAt)
	if err != nil {
		return nil, err
	}

	account.Balance, err = decimal.NewFromString(balanceStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse balance '%s': %w", balanceStr, err)
	}
	return &account, nil
}

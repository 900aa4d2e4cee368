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

package api

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"finance-etl-go/internal/models"
	"finance-etl-go/internal/store"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var accountProviders = map[string]bool{
	models.ProviderCSV:    true,
	models.ProviderManual: true,
	models.ProviderUzum:   true,
	models.ProviderPayme:  true,
	models.ProviderClick:  true,
}

// CreateAccount opens an account for the user. Provider defaults to manual
// and currency to UZS.
func (s *FinanceService) CreateAccount(ctx context.Context, params store.NewAccountParams) (*models.Account, error) {
	if err := s.requireUser(ctx, params.OwnerId); err != nil {
		return nil, err
	}
	if strings.TrimSpace(params.Name) == "" {
		return nil, fmt.Errorf("%w: account name is required", store.ErrInvalidConfig)
	}
	if params.Provider != "" && !accountProviders[params.Provider] {
		return nil, fmt.Errorf("%w: unknown provider %q", store.ErrInvalidConfig, params.Provider)
	}
	if params.Currency != "" && len(params.Currency) != 3 {
		return nil, fmt.Errorf("%w: currency must be a 3-letter code, got %q", store.ErrInvalidConfig, params.Currency)
	}
	params.Currency = strings.ToUpper(params.Currency)

	account, err := s.db.CreateAccount(ctx, params)
	if err != nil {
		zap.L().Error("Failed to create account",
			zap.String("user_id", params.OwnerId),
			zap.String("name", params.Name),
			zap.Error(err))
		return nil, fmt.Errorf("failed to create account: %w", err)
	}
	return account, nil
}

// GetAccountBalance returns the stored balance of one of the user's accounts
func (s *FinanceService) GetAccountBalance(ctx context.Context, userId, accountId string) (decimal.Decimal, error) {
	if userId == "" || accountId == "" {
		return decimal.Zero, fmt.Errorf("%w: user_id and account_id are required", store.ErrInvalidConfig)
	}

	account, err := s.db.GetAccount(ctx, accountId)
	if err != nil {
		if !errors.Is(err, store.ErrAccountNotFound) {
			zap.L().Error("Failed to get account balance",
				zap.String("user_id", userId),
				zap.String("account_id", accountId),
				zap.Error(err))
		}
		return decimal.Zero, fmt.Errorf("failed to retrieve balance: %w", err)
	}
	if account.OwnerId != userId {
		return decimal.Zero, fmt.Errorf("failed to retrieve balance: %w: %s", store.ErrAccountNotFound, accountId)
	}

	return account.Balance, nil
}

// GetUserAccounts returns every account of the user, inactive ones included
func (s *FinanceService) GetUserAccounts(ctx context.Context, userId string) ([]models.Account, error) {
	if err := s.requireUser(ctx, userId); err != nil {
		return nil, err
	}

	accounts, err := s.db.ListAccounts(ctx, userId, false)
	if err != nil {
		zap.L().Error("Failed to list accounts", zap.String("user_id", userId), zap.Error(err))
		return nil, fmt.Errorf("failed to retrieve accounts: %w", err)
	}
	return accounts, nil
}

// GetAccountSummary returns the per-account overview of active accounts
func (s *FinanceService) GetAccountSummary(ctx context.Context, userId string) ([]models.AccountSummary, error) {
	if err := s.requireUser(ctx, userId); err != nil {
		return nil, err
	}

	summaries, err := s.load.GetUserAccountSummary(ctx, userId)
	if err != nil {
		zap.L().Error("Failed to get account summary", zap.String("user_id", userId), zap.Error(err))
		return nil, fmt.Errorf("failed to retrieve account summary: %w", err)
	}
	return summaries, nil
}

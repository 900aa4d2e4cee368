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

package load

import (
	"context"
	"fmt"
	"time"

	"finance-etl-go/internal/models"
	"finance-etl-go/internal/parsing"
	"finance-etl-go/internal/store"

	"go.uber.org/zap"
)

// Store is the storage the load stage reads and writes
type Store interface {
	store.TransactionStore
	store.AccountStore
	store.StatsStore
	store.UserStore
	store.IndexMaintainer
}

// Service rebuilds derived data (balances, stats) from processed
// transactions and reports data quality problems
type Service struct {
	store Store
	now   func() time.Time
}

func NewService(s Store) *Service {
	return &Service{store: s, now: time.Now}
}

// LoadProcessedData recomputes balances, ensures indexes, validates the
// user's data and refreshes the stats snapshot. Balances moved by the
// rebuild are listed in BalanceChanges; BalanceIssues holds drift that
// survives it.
func (s *Service) LoadProcessedData(ctx context.Context, userId string) (*models.LoadResult, error) {
	if userId == "" {
		return nil, fmt.Errorf("%w: user id is required", store.ErrInvalidConfig)
	}

	zap.L().Info("Loading processed data",
		zap.String("run_id", models.RunId(ctx)),
		zap.String("user_id", userId))

	balances, err := s.UpdateAllAccountBalances(ctx, userId)
	if err != nil {
		return nil, err
	}

	if err := s.EnsureIndexes(ctx); err != nil {
		zap.L().Warn("Could not create indexes", zap.Error(err))
	}

	report, err := s.ValidateUserData(ctx, userId)
	if err != nil {
		return nil, err
	}

	stats, err := s.UpdateUserStats(ctx, userId)
	if err != nil {
		return nil, err
	}

	result := &models.LoadResult{
		AccountsUpdated: balances.Updated,
		AccountsFailed:  balances.Failed,
		DataValid:       report.InvalidTransactions == 0,
		IssuesFound:     map[string]int{},
		WarningCount:    len(report.Warnings),
		BalanceChanges:  balances.Changes,
		BalanceIssues:   report.BalanceIssues,
		Stats:           stats,
	}
	if !result.DataValid {
		result.IssuesFound = report.CommonErrors
	}

	zap.L().Info("Loading complete",
		zap.String("run_id", models.RunId(ctx)),
		zap.String("user_id", userId),
		zap.Int("accounts_updated", result.AccountsUpdated),
		zap.Int("accounts_failed", result.AccountsFailed),
		zap.Int("balance_changes", len(result.BalanceChanges)),
		zap.Int("balance_issues", len(result.BalanceIssues)),
		zap.Bool("data_valid", result.DataValid))
	return result, nil
}

// EnsureIndexes creates the supporting indexes. It is safe to call repeatedly.
func (s *Service) EnsureIndexes(ctx context.Context) error {
	if err := s.store.EnsureIndexes(ctx); err != nil {
		return fmt.Errorf("failed to ensure indexes: %w", err)
	}
	return nil
}

// GetUserAccountSummary describes every active account of the user with its
// activity over the last 30 days
func (s *Service) GetUserAccountSummary(ctx context.Context, userId string) ([]models.AccountSummary, error) {
	accounts, err := s.store.ListAccounts(ctx, userId, true)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}

	since := parsing.Today(s.now()).AddDate(0, 0, -30)

	summaries := make([]models.AccountSummary, 0, len(accounts))
	for _, account := range accounts {
		activity, err := s.store.GetAccountActivity(ctx, account.Id, since)
		if err != nil {
			return nil, fmt.Errorf("account %s: %w", account.Id, err)
		}
		summaries = append(summaries, models.AccountSummary{
			AccountId:             account.Id,
			AccountName:           account.Name,
			Provider:              account.Provider,
			Currency:              account.Currency,
			Balance:               account.Balance,
			TotalTransactions:     activity.Total,
			RecentTransactions30d: activity.Recent,
			LastUpdated:           account.UpdatedAt,
		})
	}
	return summaries, nil
}

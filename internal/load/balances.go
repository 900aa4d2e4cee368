package load

import (
	"context"
	"fmt"
	"time"

	"finance-etl-go/internal/models"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// BalanceUpdate summarizes a balance rebuild over a user's accounts
type BalanceUpdate struct {
	Updated int
	Failed  int
	Changes []models.BalanceIssue
}

// CalculateAccountBalance sums the processed transactions of an account. A
// non-nil cutoff limits the sum to transactions dated on or before it.
func (s *Service) CalculateAccountBalance(ctx context.Context, accountId string, cutoff *time.Time) (decimal.Decimal, error) {
	balance, err := s.store.SumProcessed(ctx, accountId, cutoff)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to calculate balance for account %s: %w", accountId, err)
	}
	return balance, nil
}

// UpdateAccountBalance recomputes and stores one account's balance
func (s *Service) UpdateAccountBalance(ctx context.Context, accountId string) (decimal.Decimal, error) {
	balance, err := s.CalculateAccountBalance(ctx, accountId, nil)
	if err != nil {
		return decimal.Zero, err
	}
	if err := s.store.UpdateBalance(ctx, accountId, balance); err != nil {
		return decimal.Zero, err
	}

	zap.L().Info("Updated account balance",
		zap.String("account_id", accountId),
		zap.String("balance", balance.String()))
	return balance, nil
}

// UpdateAllAccountBalances rebuilds the balance of every account the user
// owns. A failing account is counted and skipped. Accounts whose stored
// balance moves are listed in Changes.
func (s *Service) UpdateAllAccountBalances(ctx context.Context, userId string) (*BalanceUpdate, error) {
	accounts, err := s.store.ListAccounts(ctx, userId, false)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}

	update := &BalanceUpdate{Changes: []models.BalanceIssue{}}
	for _, account := range accounts {
		balance, err := s.CalculateAccountBalance(ctx, account.Id, nil)
		if err != nil {
			zap.L().Error("Error calculating account balance", zap.String("account_id", account.Id), zap.Error(err))
			update.Failed++
			continue
		}

		change, changed := balanceDifference(account, balance)

		if err := s.store.UpdateBalance(ctx, account.Id, balance); err != nil {
			zap.L().Error("Error updating account balance", zap.String("account_id", account.Id), zap.Error(err))
			update.Failed++
			continue
		}
		update.Updated++

		if changed {
			zap.L().Debug("Account balance changed",
				zap.String("account_id", account.Id),
				zap.String("previous", change.StoredBalance.String()),
				zap.String("balance", change.CalculatedBalance.String()))
			update.Changes = append(update.Changes, change)
		}
	}

	zap.L().Info("Balance update complete",
		zap.String("user_id", userId),
		zap.Int("updated", update.Updated),
		zap.Int("accounts", len(accounts)))
	return update, nil
}

func balanceDifference(account models.Account, calculated decimal.Decimal) (models.BalanceIssue, bool) {
	if account.Balance.Equal(calculated) {
		return models.BalanceIssue{}, false
	}
	return models.BalanceIssue{
		AccountId:         account.Id,
		AccountName:       account.Name,
		StoredBalance:     account.Balance,
		CalculatedBalance: calculated,
		Difference:        account.Balance.Sub(calculated),
	}, true
}

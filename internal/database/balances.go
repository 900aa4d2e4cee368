package database

import (
	"context"
	"fmt"
	"time"

	"finance-etl-go/internal/store"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// SumProcessed returns the sum of processed transaction amounts for an
// account, optionally only those dated on or before cutoff. The sum is taken
// in decimal arithmetic rather than by SQLite.
func (s *Service) SumProcessed(ctx context.Context, accountId string, cutoff *time.Time) (decimal.Decimal, error) {
	zap.L().Debug("Summing processed amounts", zap.String("account_id", accountId))

	query, args := querySumProcessedAmounts, []any{accountId}
	if cutoff != nil {
		query, args = querySumProcessedAmountsUntil, []any{accountId, dbTime(*cutoff)}
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to query amounts: %w", err)
	}
	defer closeRows(rows)

	total := decimal.Zero
	for rows.Next() {
		var amountStr string
		if err := rows.Scan(&amountStr); err != nil {
			return decimal.Zero, fmt.Errorf("failed to scan amount: %w", err)
		}
		amount, err := decimal.NewFromString(amountStr)
		if err != nil {
			return decimal.Zero, fmt.Errorf("failed to parse amount '%s': %w", amountStr, err)
		}
		total = total.Add(amount)
	}

	// Check for errors during iteration
	if err := rows.Err(); err != nil {
		zap.L().Error("Error during amount row iteration", zap.Error(err))
		return decimal.Zero, fmt.Errorf("error iterating amount rows: %w", err)
	}

	return total, nil
}

func (s *Service) UpdateBalance(ctx context.Context, accountId string, balance decimal.Decimal) error {
	result, err := s.db.ExecContext(ctx, queryUpdateAccountBalance, balance.String(), dbTime(time.Now()), accountId)
	if err != nil {
		zap.L().Error("Failed to update balance", zap.String("account_id", accountId), zap.Error(err))
		return fmt.Errorf("failed to update balance: %w", err)
	}
	if err := requireAffected(result, store.ErrAccountNotFound, accountId); err != nil {
		return err
	}

	zap.L().Debug("Balance updated", zap.String("account_id", accountId), zap.String("balance", balance.String()))
	return nil
}

// ResetBalances zeroes every account balance of the user
func (s *Service) ResetBalances(ctx context.Context, ownerId string) (int64, error) {
	result, err := s.db.ExecContext(ctx, queryResetAccountBalances, dbTime(time.Now()), ownerId)
	if err != nil {
		return 0, fmt.Errorf("failed to reset balances: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("unable to get rows affected: %w", err)
	}

	zap.L().Info("Account balances reset", zap.String("user_id", ownerId), zap.Int64("accounts", affected))
	return affected, nil
}

package load

import (
	"context"
	"fmt"
	"time"

	"finance-etl-go/internal/models"
	"finance-etl-go/internal/parsing"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// UpdateUserStats recomputes the user's snapshot from processed transactions
// and replaces the stored one
func (s *Service) UpdateUserStats(ctx context.Context, userId string) (*models.UserStats, error) {
	txs, err := s.store.ListTransactions(ctx, userId)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}

	stats := computeStats(userId, txs)
	stats.UpdatedAt = s.now().UTC().Truncate(time.Second)

	if err := s.store.UpsertUserStats(ctx, stats); err != nil {
		return nil, err
	}

	zap.L().Info("User stats updated",
		zap.String("user_id", userId),
		zap.Int("total_transactions", stats.TotalTransactions),
		zap.String("total_income", stats.TotalIncome.String()),
		zap.String("total_expense", stats.TotalExpense.String()))
	return stats, nil
}

// computeStats folds processed transactions into a snapshot. Expenses are
// reported as positive magnitudes.
func computeStats(userId string, txs []models.Transaction) *models.UserStats {
	stats := &models.UserStats{
		UserId:               userId,
		TotalIncome:          decimal.Zero,
		TotalExpense:         decimal.Zero,
		AvgTransactionAmount: decimal.Zero,
		SpentByCategory:      map[string]decimal.Decimal{},
	}

	absTotal := decimal.Zero
	for _, tx := range txs {
		if !tx.Processed {
			continue
		}
		stats.TotalTransactions++
		absTotal = absTotal.Add(tx.Amount.Abs())

		switch {
		case tx.Amount.IsPositive():
			stats.TotalIncome = stats.TotalIncome.Add(tx.Amount)
		case tx.Amount.IsNegative():
			spent := tx.Amount.Neg()
			stats.TotalExpense = stats.TotalExpense.Add(spent)

			category := tx.Category
			if category == "" {
				category = parsing.CategoryOther
			}
			stats.SpentByCategory[category] = stats.SpentByCategory[category].Add(spent)
		}
	}

	if stats.TotalTransactions > 0 {
		stats.AvgTransactionAmount = absTotal.Div(decimal.NewFromInt(int64(stats.TotalTransactions))).Round(2)
	}
	return stats
}

package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"finance-etl-go/internal/models"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// UpsertUserStats replaces the user's snapshot
func (s *Service) UpsertUserStats(ctx context.Context, stats *models.UserStats) error {
	spent, err := json.Marshal(stats.SpentByCategory)
	if err != nil {
		return fmt.Errorf("failed to encode spent_by_category: %w", err)
	}

	updatedAt := stats.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now()
	}

	_, err = s.db.ExecContext(ctx, queryUpsertUserStats,
		stats.UserId, stats.TotalTransactions,
		stats.TotalIncome.String(), stats.TotalExpense.String(), stats.AvgTransactionAmount.String(),
		string(spent), dbTime(updatedAt))
	if err != nil {
		zap.L().Error("Failed to upsert user stats", zap.String("user_id", stats.UserId), zap.Error(err))
		return fmt.Errorf("failed to upsert user stats: %w", err)
	}

	zap.L().Debug("User stats stored",
		zap.String("user_id", stats.UserId),
		zap.Int("total_transactions", stats.TotalTransactions))
	return nil
}

func (s *Service) GetUserStats(ctx context.Context, userId string) (*models.UserStats, error) {
	var stats models.UserStats
	var income, expense, avg, spent string

	err := s.db.QueryRowContext(ctx, queryGetUserStats, userId).Scan(
		&stats.UserId, &stats.TotalTransactions, &income, &expense, &avg, &spent, &stats.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user stats: %w", err)
	}

	for _, f := range []struct {
		raw  string
		dest *decimal.Decimal
	}{
		{income, &stats.TotalIncome},
		{expense, &stats.TotalExpense},
		{avg, &stats.AvgTransactionAmount},
	} {
		if *f.dest, err = decimal.NewFromString(f.raw); err != nil {
			return nil, fmt.Errorf("failed to parse stats value '%s': %w", f.raw, err)
		}
	}

	if err := json.Unmarshal([]byte(spent), &stats.SpentByCategory); err != nil {
		return nil, fmt.Errorf("failed to decode spent_by_category: %w", err)
	}
	return &stats, nil
}

package api

import (
	"context"
	"fmt"
	"time"

	"finance-etl-go/internal/models"
	"finance-etl-go/internal/parsing"
	"finance-etl-go/internal/store"

	"go.uber.org/zap"
)

const budgetLookbackDays = 90

// Dashboard returns the consolidated analytics payload of the current month
func (s *FinanceService) Dashboard(ctx context.Context, userId string) (*models.Dashboard, error) {
	if err := s.requireUser(ctx, userId); err != nil {
		return nil, err
	}

	dashboard, err := s.aggregate.GetFinancialDashboard(ctx, userId)
	if err != nil {
		zap.L().Error("Failed to build dashboard", zap.String("user_id", userId), zap.Error(err))
		return nil, fmt.Errorf("failed to retrieve dashboard: %w", err)
	}
	return dashboard, nil
}

// SpendingByCategory totals expenses per category between two dates,
// both inclusive
func (s *FinanceService) SpendingByCategory(ctx context.Context, userId string, start, end time.Time) ([]models.CategorySpending, error) {
	if err := s.requireUser(ctx, userId); err != nil {
		return nil, err
	}
	if start.IsZero() || end.IsZero() {
		return nil, fmt.Errorf("%w: start_date and end_date are required", store.ErrInvalidConfig)
	}
	if end.Before(start) {
		return nil, fmt.Errorf("%w: end_date %s is before start_date %s",
			store.ErrInvalidConfig, end.Format("2006-01-02"), start.Format("2006-01-02"))
	}
	return s.aggregate.GetSpendingByCategory(ctx, userId, start, end)
}

// BudgetRecommendations compares roughly three months of spending with the
// income of the same period
func (s *FinanceService) BudgetRecommendations(ctx context.Context, userId string) ([]models.BudgetRecommendation, error) {
	if err := s.requireUser(ctx, userId); err != nil {
		return nil, err
	}

	end := parsing.Today(s.now())
	start := time.Date(end.Year(), end.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, -budgetLookbackDays)
	return s.aggregate.CreateBudgetRecommendations(ctx, userId, start, end)
}

// UserStats refreshes and returns the user's stats snapshot
func (s *FinanceService) UserStats(ctx context.Context, userId string) (*models.UserStats, error) {
	if err := s.requireUser(ctx, userId); err != nil {
		return nil, err
	}

	stats, err := s.load.UpdateUserStats(ctx, userId)
	if err != nil {
		zap.L().Error("Failed to update user stats", zap.String("user_id", userId), zap.Error(err))
		return nil, fmt.Errorf("failed to retrieve user stats: %w", err)
	}
	s.aggregate.Invalidate(userId)
	return stats, nil
}

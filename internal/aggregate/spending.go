package aggregate

import (
	"context"
	"sort"
	"time"

	"finance-etl-go/internal/models"
	"finance-etl-go/internal/parsing"

	"github.com/shopspring/decimal"
)

// GetSpendingByCategory totals the expenses of each category in [start, end],
// largest first
func (s *Service) GetSpendingByCategory(ctx context.Context, userId string, start, end time.Time) ([]models.CategorySpending, error) {
	txs, err := s.processedInRange(ctx, userId, start, end)
	if err != nil {
		return nil, err
	}
	return spendingByCategory(txs), nil
}

// GetMonthlySpendingTrend totals expenses per calendar month over the last
// months months, the current one included, oldest first
func (s *Service) GetMonthlySpendingTrend(ctx context.Context, userId string, months int) ([]models.MonthlySpending, error) {
	if months <= 0 {
		months = s.trendMonths
	}
	today := parsing.Today(s.now())
	start := monthStart(today).AddDate(0, -(months - 1), 0)

	txs, err := s.processedInRange(ctx, userId, start, today)
	if err != nil {
		return nil, err
	}
	return monthlyTrend(txs), nil
}

// GetTopMerchants returns the merchants with the highest expenses in
// [start, end]
func (s *Service) GetTopMerchants(ctx context.Context, userId string, start, end time.Time, limit int) ([]models.MerchantSpending, error) {
	if limit <= 0 {
		limit = s.topMerchants
	}
	txs, err := s.processedInRange(ctx, userId, start, end)
	if err != nil {
		return nil, err
	}
	return topMerchants(txs, limit), nil
}

// GetIncomeAnalysis totals income in [start, end] overall and per category.
// The monthly average counts every calendar month the range touches.
func (s *Service) GetIncomeAnalysis(ctx context.Context, userId string, start, end time.Time) (*models.IncomeAnalysis, error) {
	txs, err := s.processedInRange(ctx, userId, start, end)
	if err != nil {
		return nil, err
	}
	analysis := incomeAnalysis(txs, start, end)
	return &analysis, nil
}

// spendingByCategory groups expenses in first-seen order, then stable sorts
// by amount so ties keep that order
func spendingByCategory(txs []models.Transaction) []models.CategorySpending {
	index := map[string]int{}
	result := []models.CategorySpending{}
	for _, tx := range txs {
		if !tx.Amount.IsNegative() {
			continue
		}
		category := tx.Category
		if category == "" {
			category = parsing.CategoryOther
		}
		i, ok := index[category]
		if !ok {
			i = len(result)
			index[category] = i
			result = append(result, models.CategorySpending{Category: category, Amount: decimal.Zero})
		}
		result[i].Amount = result[i].Amount.Add(tx.Amount.Abs())
		result[i].Count++
	}

	sort.SliceStable(result, func(a, b int) bool {
		return result[a].Amount.GreaterThan(result[b].Amount)
	})
	return result
}

func monthlyTrend(txs []models.Transaction) []models.MonthlySpending {
	index := map[string]int{}
	result := []models.MonthlySpending{}
	for _, tx := range txs {
		if !tx.Amount.IsNegative() {
			continue
		}
		month := tx.CreatedAt.UTC().Format("2006-01")
		i, ok := index[month]
		if !ok {
			i = len(result)
			index[month] = i
			result = append(result, models.MonthlySpending{Month: month, TotalSpending: decimal.Zero})
		}
		result[i].TotalSpending = result[i].TotalSpending.Add(tx.Amount.Abs())
		result[i].TransactionCount++
	}

	sort.Slice(result, func(a, b int) bool { return result[a].Month < result[b].Month })
	return result
}

func topMerchants(txs []models.Transaction, limit int) []models.MerchantSpending {
	index := map[string]int{}
	result := []models.MerchantSpending{}
	for _, tx := range txs {
		if !tx.Amount.IsNegative() || tx.Merchant == "" {
			continue
		}
		i, ok := index[tx.Merchant]
		if !ok {
			i = len(result)
			index[tx.Merchant] = i
			result = append(result, models.MerchantSpending{Merchant: tx.Merchant, Amount: decimal.Zero})
		}
		result[i].Amount = result[i].Amount.Add(tx.Amount.Abs())
		result[i].Count++
	}

	sort.SliceStable(result, func(a, b int) bool {
		return result[a].Amount.GreaterThan(result[b].Amount)
	})
	if len(result) > limit {
		result = result[:limit]
	}
	return result
}

func incomeAnalysis(txs []models.Transaction, start, end time.Time) models.IncomeAnalysis {
	analysis := models.IncomeAnalysis{
		TotalIncome:      decimal.Zero,
		IncomeByCategory: []models.CategorySpending{},
		AverageMonthly:   decimal.Zero,
	}

	index := map[string]int{}
	for _, tx := range txs {
		if !tx.Amount.IsPositive() {
			continue
		}
		analysis.TotalIncome = analysis.TotalIncome.Add(tx.Amount)
		analysis.TotalTransactions++

		category := tx.Category
		if category == "" {
			category = parsing.CategoryOther
		}
		i, ok := index[category]
		if !ok {
			i = len(analysis.IncomeByCategory)
			index[category] = i
			analysis.IncomeByCategory = append(analysis.IncomeByCategory, models.CategorySpending{Category: category, Amount: decimal.Zero})
		}
		analysis.IncomeByCategory[i].Amount = analysis.IncomeByCategory[i].Amount.Add(tx.Amount)
		analysis.IncomeByCategory[i].Count++
	}

	sort.SliceStable(analysis.IncomeByCategory, func(a, b int) bool {
		return analysis.IncomeByCategory[a].Amount.GreaterThan(analysis.IncomeByCategory[b].Amount)
	})

	months := monthsSpanned(start, end)
	analysis.AverageMonthly = analysis.TotalIncome.Div(decimal.NewFromInt(int64(months))).Round(2)
	return analysis
}

// monthsSpanned counts calendar months from start's month to end's month
// inclusive, never less than one
func monthsSpanned(start, end time.Time) int {
	months := (end.Year()-start.Year())*12 + int(end.Month()) - int(start.Month()) + 1
	if months < 1 {
		return 1
	}
	return months
}

func monthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

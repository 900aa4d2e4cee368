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

package aggregate

import (
	"context"
	"fmt"
	"time"

	"finance-etl-go/internal/models"
	"finance-etl-go/internal/parsing"
	"finance-etl-go/internal/store"

	"github.com/patrickmn/go-cache"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultCacheExpiration = 15 * time.Minute
	defaultTrendMonths     = 6
	defaultTopMerchants    = 5

	ckDashboard = "dashboard_%s"

	// Savings and budgets look back this far from the first of the month
	trailingWindowDays = 90
)

var defaultLargeCategoryTotal = decimal.NewFromInt(1000000)

// Store is the storage the aggregate stage reads
type Store interface {
	ListProcessedInRange(ctx context.Context, ownerId string, start, end time.Time) ([]models.Transaction, error)
	store.StatsStore
}

// Service computes analytics over processed transactions
type Service struct {
	store         Store
	reportCache   *cache.Cache
	trendMonths   int
	topMerchants  int
	largeCategory decimal.Decimal
	now           func() time.Time
}

func NewService(s Store, cfg models.AnalyticsConfig) *Service {
	ttl := cfg.DashboardCacheTTL
	if ttl <= 0 {
		ttl = DefaultCacheExpiration
	}
	trendMonths := cfg.TrendMonths
	if trendMonths <= 0 {
		trendMonths = defaultTrendMonths
	}
	topMerchants := cfg.TopMerchantsLimit
	if topMerchants <= 0 {
		topMerchants = defaultTopMerchants
	}
	largeCategory := cfg.LargeCategoryTotal
	if !largeCategory.IsPositive() {
		largeCategory = defaultLargeCategoryTotal
	}

	return &Service{
		store:         s,
		reportCache:   cache.New(ttl, 2*ttl),
		trendMonths:   trendMonths,
		topMerchants:  topMerchants,
		largeCategory: largeCategory,
		now:           time.Now,
	}
}

// processedInRange lists processed transactions dated from start through the
// whole of end's day
func (s *Service) processedInRange(ctx context.Context, userId string, start, end time.Time) ([]models.Transaction, error) {
	if userId == "" {
		return nil, fmt.Errorf("%w: user id is required", store.ErrInvalidConfig)
	}
	endOfDay := parsing.Today(end).AddDate(0, 0, 1).Add(-time.Second)
	txs, err := s.store.ListProcessedInRange(ctx, userId, start, endOfDay)
	if err != nil {
		return nil, fmt.Errorf("failed to list processed transactions: %w", err)
	}
	return txs, nil
}

// GetUserStatsSnapshot returns the snapshot maintained by the load stage, or
// nil when there is none yet
func (s *Service) GetUserStatsSnapshot(ctx context.Context, userId string) (*models.UserStats, error) {
	stats, err := s.store.GetUserStats(ctx, userId)
	if err != nil {
		return nil, fmt.Errorf("failed to get user stats: %w", err)
	}
	return stats, nil
}

// GetFinancialDashboard builds the consolidated analytics payload for the
// current month. Results are cached per user until Invalidate is called or
// the entry expires.
func (s *Service) GetFinancialDashboard(ctx context.Context, userId string) (*models.Dashboard, error) {
	cacheKey := fmt.Sprintf(ckDashboard, userId)
	if cached, found := s.reportCache.Get(cacheKey); found {
		zap.L().Debug("Cache hit for dashboard", zap.String("user_id", userId))
		return cached.(*models.Dashboard), nil
	}

	dashboard, err := s.buildDashboard(ctx, userId)
	if err != nil {
		return nil, err
	}

	s.reportCache.Set(cacheKey, dashboard, cache.DefaultExpiration)
	return dashboard, nil
}

// Invalidate drops the user's cached dashboard
func (s *Service) Invalidate(userId string) {
	s.reportCache.Delete(fmt.Sprintf(ckDashboard, userId))
}

func (s *Service) buildDashboard(ctx context.Context, userId string) (*models.Dashboard, error) {
	today := parsing.Today(s.now())
	thisMonth := monthStart(today)
	trailingStart := thisMonth.AddDate(0, 0, -trailingWindowDays)

	var (
		monthTxs    []models.Transaction
		trailingTxs []models.Transaction
		trend       []models.MonthlySpending
		lifetime    *models.UserStats
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		monthTxs, err = s.processedInRange(gctx, userId, thisMonth, today)
		return err
	})
	g.Go(func() error {
		var err error
		trailingTxs, err = s.processedInRange(gctx, userId, trailingStart, today)
		return err
	})
	g.Go(func() error {
		var err error
		trend, err = s.GetMonthlySpendingTrend(gctx, userId, s.trendMonths)
		return err
	})
	g.Go(func() error {
		var err error
		lifetime, err = s.GetUserStatsSnapshot(gctx, userId)
		return err
	})
	if err := g.Wait(); err != nil {
		zap.L().Error("Failed to build dashboard", zap.String("user_id", userId), zap.Error(err))
		return nil, err
	}

	spending := spendingByCategory(monthTxs)
	income := incomeAnalysis(monthTxs, thisMonth, today)
	savings := savingsAnalysis(trailingTxs)
	trailingIncome, _ := totals(trailingTxs)

	totalSpending := decimal.Zero
	for _, cs := range spending {
		totalSpending = totalSpending.Add(cs.Amount)
	}

	dashboard := &models.Dashboard{
		Period: models.DashboardPeriod{Start: thisMonth, End: today, Type: "current_month"},
		Summary: models.DashboardSummary{
			TotalIncome:     income.TotalIncome,
			TotalSpending:   totalSpending,
			NetCashFlow:     income.TotalIncome.Sub(totalSpending),
			SavingsRate:     savings.SavingsRate,
			FinancialHealth: savings.HealthLevel,
		},
		SpendingByCategory:    spending,
		IncomeBreakdown:       income,
		MonthlyTrend:          trend,
		TopMerchants:          topMerchants(monthTxs, s.topMerchants),
		BudgetRecommendations: budgetRecommendations(spendingByCategory(trailingTxs), trailingIncome),
		Insights:              GenerateInsights(spending, income, savings, trend, s.largeCategory),
		LifetimeSummary:       lifetime,
	}

	zap.L().Info("Dashboard built",
		zap.String("run_id", models.RunId(ctx)),
		zap.String("user_id", userId),
		zap.Int("categories", len(spending)),
		zap.Int("insights", len(dashboard.Insights)))
	return dashboard, nil
}

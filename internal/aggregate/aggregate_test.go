package aggregate

import (
	"context"
	"strings"
	"testing"
	"time"

	"finance-etl-go/internal/database"
	"finance-etl-go/internal/models"
	"finance-etl-go/internal/parsing"
	"finance-etl-go/internal/store"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func tx(amount int64, category, merchant string, at time.Time) models.Transaction {
	return models.Transaction{
		Amount:    decimal.NewFromInt(amount),
		Category:  category,
		Merchant:  merchant,
		CreatedAt: at,
		Processed: true,
	}
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestSpendingByCategory_SortedAndStable(t *testing.T) {
	jan := day(2025, 1, 10)
	txs := []models.Transaction{
		tx(-100, "Transport & Taxi", "Taxi", jan),
		tx(-300, "Food & Restaurants", "Evos", jan),
		tx(1000, "Salary & Income", "Employer", jan),
		tx(-100, "Education", "Course", jan),
		tx(-50, "", "", jan),
		tx(-200, "Food & Restaurants", "KFC", jan),
	}

	got := spendingByCategory(txs)
	want := []struct {
		category string
		amount   int64
		count    int
	}{
		{"Food & Restaurants", 500, 2},
		{"Transport & Taxi", 100, 1},
		{"Education", 100, 1},
		{parsing.CategoryOther, 50, 1},
	}

	if len(got) != len(want) {
		t.Fatalf("Expected %d categories, got %+v", len(want), got)
	}
	for i, w := range want {
		if got[i].Category != w.category || !got[i].Amount.Equal(decimal.NewFromInt(w.amount)) || got[i].Count != w.count {
			t.Errorf("Position %d: expected %+v, got %+v", i, w, got[i])
		}
	}
}

func TestMonthlyTrendAndTopMerchants(t *testing.T) {
	txs := []models.Transaction{
		tx(-100, "Food & Restaurants", "Evos", day(2025, 3, 2)),
		tx(-400, "Shopping & Retail", "Makro", day(2025, 1, 5)),
		tx(-50, "Food & Restaurants", "Evos", day(2025, 1, 20)),
		tx(900, "Salary & Income", "Employer", day(2025, 2, 1)),
		tx(-70, "Other", "", day(2025, 2, 3)),
		tx(-10, "Transport & Taxi", "Taxi", day(2025, 3, 9)),
	}

	trend := monthlyTrend(txs)
	wantMonths := []string{"2025-01", "2025-02", "2025-03"}
	wantTotals := []int64{450, 70, 110}
	if len(trend) != 3 {
		t.Fatalf("Expected 3 months, got %+v", trend)
	}
	for i := range trend {
		if trend[i].Month != wantMonths[i] || !trend[i].TotalSpending.Equal(decimal.NewFromInt(wantTotals[i])) {
			t.Errorf("Month %d: got %+v", i, trend[i])
		}
	}

	merchants := topMerchants(txs, 2)
	if len(merchants) != 2 {
		t.Fatalf("Expected limit of 2, got %+v", merchants)
	}
	if merchants[0].Merchant != "Makro" || merchants[1].Merchant != "Evos" || merchants[1].Count != 2 {
		t.Errorf("Unexpected merchants: %+v", merchants)
	}
}

func TestIncomeAnalysis(t *testing.T) {
	txs := []models.Transaction{
		tx(3000000, "Salary & Income", "Employer", day(2025, 1, 5)),
		tx(1500000, "Transfer & Income", "Friend", day(2025, 2, 5)),
		tx(-100, "Food & Restaurants", "Evos", day(2025, 2, 6)),
		tx(1500000, "Salary & Income", "Employer", day(2025, 3, 5)),
	}

	got := incomeAnalysis(txs, day(2025, 1, 1), day(2025, 3, 31))
	if !got.TotalIncome.Equal(decimal.NewFromInt(6000000)) || got.TotalTransactions != 3 {
		t.Errorf("Unexpected totals: %+v", got)
	}
	if !got.AverageMonthly.Equal(decimal.NewFromInt(2000000)) {
		t.Errorf("Expected monthly average over 3 months, got %s", got.AverageMonthly)
	}
	if len(got.IncomeByCategory) != 2 || got.IncomeByCategory[0].Category != "Salary & Income" || got.IncomeByCategory[0].Count != 2 {
		t.Errorf("Unexpected breakdown: %+v", got.IncomeByCategory)
	}

	if m := monthsSpanned(day(2024, 11, 20), day(2025, 2, 1)); m != 4 {
		t.Errorf("Expected 4 months across a year boundary, got %d", m)
	}
	if m := monthsSpanned(day(2025, 5, 1), day(2025, 4, 1)); m != 1 {
		t.Errorf("Expected at least one month, got %d", m)
	}
}

func TestSavingsAnalysis(t *testing.T) {
	tests := []struct {
		name     string
		income   int64
		expenses int64
		rate     string
		level    string
	}{
		{"twenty percent is excellent", 5000000, 4000000, "20", HealthExcellent},
		{"good", 1000000, 880000, "12", HealthGood},
		{"fair", 1000000, 930000, "7", HealthFair},
		{"overspending", 1000000, 1200000, "-20", HealthNeedsImprovement},
		{"no income", 0, 500000, "0", HealthNeedsImprovement},
		{"rounded to two places", 3, 2, "33.33", HealthExcellent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			txs := []models.Transaction{tx(-tt.expenses, "Other", "", day(2025, 1, 2))}
			if tt.income > 0 {
				txs = append(txs, tx(tt.income, "Salary & Income", "", day(2025, 1, 1)))
			}
			got := savingsAnalysis(txs)
			if !got.SavingsRate.Equal(decimal.RequireFromString(tt.rate)) {
				t.Errorf("Expected rate %s, got %s", tt.rate, got.SavingsRate)
			}
			if got.HealthLevel != tt.level {
				t.Errorf("Expected %s, got %s", tt.level, got.HealthLevel)
			}
			if got.Recommendation == "" {
				t.Error("Expected a recommendation")
			}
		})
	}
}

func TestBudgetRecommendations(t *testing.T) {
	spending := []models.CategorySpending{
		{Category: parsing.CategoryFood, Amount: decimal.NewFromInt(200000)},
		{Category: parsing.CategoryShopping, Amount: decimal.NewFromInt(150000)},
		{Category: parsing.CategoryTransport, Amount: decimal.NewFromInt(105000)},
		{Category: "Pets", Amount: decimal.NewFromInt(100000)},
		{Category: parsing.CategoryEntertainment, Amount: decimal.NewFromInt(10000)},
	}

	got := budgetRecommendations(spending, decimal.NewFromInt(1000000))

	want := []struct {
		category string
		status   string
		urgency  string
		budget   int64
		kind     string
		prefix   string
	}{
		{parsing.CategoryFood, StatusOverBudget, UrgencyHigh, 150000, "needs",
			"You're spending 33% over budget for Food & Restaurants. Try meal planning"},
		{"Pets", StatusOverBudget, UrgencyHigh, 50000, "other",
			"Urgent: You're spending 100% more than recommended for Pets. Review your Pets expenses"},
		{parsing.CategoryTransport, StatusSlightlyOver, UrgencyMedium, 100000, "needs",
			"You're spending 5% over budget for Transport & Taxi. Consider using public transportation"},
		{parsing.CategoryShopping, StatusOnBudget, UrgencyLow, 150000, "wants",
			"Great! You're within budget for Shopping & Retail."},
		{parsing.CategoryEntertainment, StatusUnderBudget, UrgencyLow, 100000, "wants",
			"Good job managing Entertainment & Leisure."},
	}

	if len(got) != len(want) {
		t.Fatalf("Expected %d recommendations, got %d", len(want), len(got))
	}
	for i, w := range want {
		r := got[i]
		if r.Category != w.category || r.Status != w.status || r.Urgency != w.urgency || r.Type != w.kind {
			t.Errorf("Position %d: expected %s/%s/%s, got %+v", i, w.category, w.status, w.urgency, r)
		}
		if !r.RecommendedBudget.Equal(decimal.NewFromInt(w.budget)) {
			t.Errorf("%s: expected budget %d, got %s", w.category, w.budget, r.RecommendedBudget)
		}
		if !strings.HasPrefix(r.Recommendation, w.prefix) {
			t.Errorf("%s: expected recommendation starting %q, got %q", w.category, w.prefix, r.Recommendation)
		}
	}
}

func TestBudgetRecommendations_NoIncome(t *testing.T) {
	got := budgetRecommendations([]models.CategorySpending{{Category: parsing.CategoryFood, Amount: decimal.NewFromInt(10)}}, decimal.Zero)
	if len(got) != 1 || got[0].Status != StatusOverBudget || !strings.HasPrefix(got[0].Recommendation, "Urgent:") {
		t.Errorf("Unexpected recommendation without income: %+v", got)
	}
}

func TestGenerateInsights(t *testing.T) {
	threshold := decimal.NewFromInt(1000000)
	month := func(m string, total int64) models.MonthlySpending {
		return models.MonthlySpending{Month: m, TotalSpending: decimal.NewFromInt(total)}
	}

	t.Run("rising spending and low savings", func(t *testing.T) {
		insights := GenerateInsights(nil, models.IncomeAnalysis{},
			models.SavingsAnalysis{SavingsRate: decimal.NewFromInt(3)},
			[]models.MonthlySpending{month("2025-01", 100), month("2025-02", 150)}, threshold)
		if len(insights) != 2 {
			t.Fatalf("Expected 2 insights, got %+v", insights)
		}
		if insights[0].Type != "warning" || !strings.Contains(insights[0].Message, "increased by 50%") {
			t.Errorf("Unexpected trend insight: %+v", insights[0])
		}
		if insights[1].Type != "alert" || !strings.Contains(insights[1].Message, "3.0%") {
			t.Errorf("Unexpected savings insight: %+v", insights[1])
		}
	})

	t.Run("falling spending and strong savings", func(t *testing.T) {
		insights := GenerateInsights(nil, models.IncomeAnalysis{},
			models.SavingsAnalysis{SavingsRate: decimal.NewFromInt(25)},
			[]models.MonthlySpending{month("2025-01", 100), month("2025-02", 70)}, threshold)
		if len(insights) != 2 || insights[0].Type != "positive" || !strings.Contains(insights[0].Message, "decreased by 30%") {
			t.Fatalf("Unexpected insights: %+v", insights)
		}
		if insights[1].Type != "excellent" || insights[1].Actionable {
			t.Errorf("Unexpected savings insight: %+v", insights[1])
		}
	})

	t.Run("steady spending and middling savings", func(t *testing.T) {
		insights := GenerateInsights(nil, models.IncomeAnalysis{},
			models.SavingsAnalysis{SavingsRate: decimal.NewFromInt(10)},
			[]models.MonthlySpending{month("2025-01", 100), month("2025-02", 110)}, threshold)
		if len(insights) != 0 {
			t.Errorf("Expected no insights, got %+v", insights)
		}
	})

	t.Run("large top category and single salary", func(t *testing.T) {
		spending := []models.CategorySpending{{Category: parsing.CategoryShopping, Amount: decimal.NewFromInt(1500000)}}
		income := models.IncomeAnalysis{IncomeByCategory: []models.CategorySpending{
			{Category: parsing.CategoryTransfer, Count: 3},
			{Category: parsing.CategorySalary, Count: 1},
		}}
		insights := GenerateInsights(spending, income, models.SavingsAnalysis{SavingsRate: decimal.NewFromInt(10)}, nil, threshold)
		if len(insights) != 2 {
			t.Fatalf("Expected 2 insights, got %+v", insights)
		}
		if insights[0].Title != "Top Expense: Shopping & Retail" ||
			insights[0].Message != "You spent 1,500,000 UZS on Shopping & Retail this month. Is this aligned with your priorities?" {
			t.Errorf("Unexpected category insight: %+v", insights[0])
		}
		if insights[1].Title != "Income Source Diversity" {
			t.Errorf("Unexpected income insight: %+v", insights[1])
		}
	})
}

func TestGroupThousands(t *testing.T) {
	tests := map[string]string{
		"0":         "0",
		"999":       "999",
		"1000":      "1,000",
		"1234567.6": "1,234,568",
		"-1000":     "-1,000",
	}
	for in, want := range tests {
		if got := groupThousands(decimal.RequireFromString(in)); got != want {
			t.Errorf("groupThousands(%s) = %q, want %q", in, got, want)
		}
	}
}

func setupTestService(t *testing.T) (*Service, *database.Service, func()) {
	ctx := context.Background()
	db, err := database.NewService(ctx, models.DatabaseConfig{
		Path:         ":memory:",
		MaxOpenConns: 1,
		MaxIdleConns: 1,
		PingTimeout:  time.Second,
	})
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	if _, err := db.CreateUser(ctx, "user1", "Test User", "test@example.com"); err != nil {
		t.Fatalf("Failed to create test user: %v", err)
	}

	service := NewService(db, models.AnalyticsConfig{})
	service.now = func() time.Time { return time.Date(2025, 3, 20, 12, 0, 0, 0, time.UTC) }
	return service, db, db.Close
}

func store1(t *testing.T, db *database.Service, amount int64, category, merchant string, at time.Time, processed bool) {
	t.Helper()
	_, err := db.CreateTransaction(context.Background(), store.NewTransactionParams{
		OwnerId:         "user1",
		Amount:          decimal.NewFromInt(amount),
		Currency:        "UZS",
		Merchant:        merchant,
		Category:        category,
		RawPayload:      models.RawRecord{},
		TransactionHash: uuid.NewString(),
		CreatedAt:       at,
		Processed:       processed,
	})
	if err != nil {
		t.Fatalf("CreateTransaction failed: %v", err)
	}
}

func TestGetFinancialDashboard(t *testing.T) {
	service, db, cleanup := setupTestService(t)
	defer cleanup()

	ctx := context.Background()
	store1(t, db, 5000000, parsing.CategorySalary, "Employer", day(2025, 3, 5), true)
	store1(t, db, -1500000, parsing.CategoryShopping, "Makro", day(2025, 3, 10), true)
	store1(t, db, -500000, parsing.CategoryFood, "Evos", day(2025, 3, 12), true)
	store1(t, db, -1000000, parsing.CategoryFood, "Evos", day(2025, 2, 10), true)
	store1(t, db, -999, parsing.CategoryFood, "Evos", day(2025, 3, 15), false)
	store1(t, db, -1, parsing.CategoryFood, "Evos", day(2025, 3, 21), true)

	dashboard, err := service.GetFinancialDashboard(ctx, "user1")
	if err != nil {
		t.Fatalf("GetFinancialDashboard failed: %v", err)
	}

	if !dashboard.Period.Start.Equal(day(2025, 3, 1)) || !dashboard.Period.End.Equal(day(2025, 3, 20)) || dashboard.Period.Type != "current_month" {
		t.Errorf("Unexpected period: %+v", dashboard.Period)
	}

	summary := dashboard.Summary
	if !summary.TotalIncome.Equal(decimal.NewFromInt(5000000)) ||
		!summary.TotalSpending.Equal(decimal.NewFromInt(2000000)) ||
		!summary.NetCashFlow.Equal(decimal.NewFromInt(3000000)) {
		t.Errorf("Unexpected summary: %+v", summary)
	}
	if !summary.SavingsRate.Equal(decimal.NewFromInt(40)) || summary.FinancialHealth != HealthExcellent {
		t.Errorf("Expected 40%% Excellent over the trailing window, got %s %s", summary.SavingsRate, summary.FinancialHealth)
	}

	if len(dashboard.SpendingByCategory) != 2 || dashboard.SpendingByCategory[0].Category != parsing.CategoryShopping {
		t.Errorf("Unexpected spending: %+v", dashboard.SpendingByCategory)
	}
	if len(dashboard.MonthlyTrend) != 2 || dashboard.MonthlyTrend[0].Month != "2025-02" {
		t.Errorf("Unexpected trend: %+v", dashboard.MonthlyTrend)
	}
	if len(dashboard.TopMerchants) != 2 || dashboard.TopMerchants[0].Merchant != "Makro" {
		t.Errorf("Unexpected merchants: %+v", dashboard.TopMerchants)
	}
	if len(dashboard.BudgetRecommendations) != 2 {
		t.Errorf("Expected budget recommendations for 2 categories, got %+v", dashboard.BudgetRecommendations)
	}

	types := []string{}
	for _, insight := range dashboard.Insights {
		types = append(types, insight.Type)
	}
	if strings.Join(types, ",") != "warning,excellent,info,info" {
		t.Errorf("Unexpected insights: %v", types)
	}
	if dashboard.LifetimeSummary != nil {
		t.Errorf("Expected no lifetime snapshot yet, got %+v", dashboard.LifetimeSummary)
	}

	// Cached until invalidated
	if err := db.UpsertUserStats(ctx, &models.UserStats{UserId: "user1", TotalTransactions: 4, SpentByCategory: map[string]decimal.Decimal{}}); err != nil {
		t.Fatalf("UpsertUserStats failed: %v", err)
	}
	cached, err := service.GetFinancialDashboard(ctx, "user1")
	if err != nil {
		t.Fatalf("GetFinancialDashboard failed: %v", err)
	}
	if cached != dashboard {
		t.Error("Expected the cached dashboard")
	}

	service.Invalidate("user1")
	fresh, err := service.GetFinancialDashboard(ctx, "user1")
	if err != nil {
		t.Fatalf("GetFinancialDashboard failed: %v", err)
	}
	if fresh == dashboard || fresh.LifetimeSummary == nil || fresh.LifetimeSummary.TotalTransactions != 4 {
		t.Errorf("Expected a rebuilt dashboard with the snapshot, got %+v", fresh.LifetimeSummary)
	}
}

func TestGetSpendingByCategory_RangeIsInclusive(t *testing.T) {
	service, db, cleanup := setupTestService(t)
	defer cleanup()

	ctx := context.Background()
	store1(t, db, -10, parsing.CategoryFood, "Evos", day(2025, 1, 1), true)
	store1(t, db, -20, parsing.CategoryFood, "Evos", day(2025, 1, 31), true)
	store1(t, db, -40, parsing.CategoryFood, "Evos", day(2025, 2, 1), true)

	got, err := service.GetSpendingByCategory(ctx, "user1", day(2025, 1, 1), day(2025, 1, 31))
	if err != nil {
		t.Fatalf("GetSpendingByCategory failed: %v", err)
	}
	if len(got) != 1 || !got[0].Amount.Equal(decimal.NewFromInt(30)) || got[0].Count != 2 {
		t.Errorf("Expected both January rows, got %+v", got)
	}

	if _, err := service.GetSpendingByCategory(ctx, "", day(2025, 1, 1), day(2025, 1, 31)); err == nil {
		t.Error("Expected an error for a missing user")
	}
}

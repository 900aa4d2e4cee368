package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// CategorySpending is a per-category total. Amount is always non-negative.
type CategorySpending struct {
	Category string          `json:"category"`
	Amount   decimal.Decimal `json:"amount"`
	Count    int             `json:"count"`
}

// MonthlySpending is one calendar month of expenses
type MonthlySpending struct {
	Month            string          `json:"month"` // YYYY-MM
	TotalSpending    decimal.Decimal `json:"total_spending"`
	TransactionCount int             `json:"transaction_count"`
}

// MerchantSpending is a per-merchant expense total
type MerchantSpending struct {
	Merchant string          `json:"merchant"`
	Amount   decimal.Decimal `json:"amount"`
	Count    int             `json:"count"`
}

// IncomeAnalysis summarizes income over a period
type IncomeAnalysis struct {
	TotalIncome       decimal.Decimal    `json:"total_income"`
	IncomeByCategory  []CategorySpending `json:"income_by_category"`
	AverageMonthly    decimal.Decimal    `json:"average_monthly"`
	TotalTransactions int                `json:"total_transactions"`
}

// SavingsAnalysis is the savings rate and its qualitative tier
type SavingsAnalysis struct {
	SavingsRate    decimal.Decimal `json:"savings_rate"`
	SavingsAmount  decimal.Decimal `json:"savings_amount"`
	TotalIncome    decimal.Decimal `json:"total_income"`
	TotalExpenses  decimal.Decimal `json:"total_expenses"`
	HealthLevel    string          `json:"health_level"`
	Recommendation string          `json:"recommendation"`
}

// BudgetRecommendation compares a category's spending to its target
type BudgetRecommendation struct {
	Category          string          `json:"category"`
	CurrentSpending   decimal.Decimal `json:"current_spending"`
	RecommendedBudget decimal.Decimal `json:"recommended_budget"`
	BudgetPercentage  int             `json:"budget_percentage"`
	Status            string          `json:"status"`
	Urgency           string          `json:"urgency"`
	Recommendation    string          `json:"recommendation"`
	Type              string          `json:"type"`
}

// Insight is a rule-generated observation
type Insight struct {
	Type       string `json:"type"`
	Title      string `json:"title"`
	Message    string `json:"message"`
	Actionable bool   `json:"actionable"`
}

type DashboardPeriod struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
	Type  string    `json:"type"`
}

type DashboardSummary struct {
	TotalIncome     decimal.Decimal `json:"total_income"`
	TotalSpending   decimal.Decimal `json:"total_spending"`
	NetCashFlow     decimal.Decimal `json:"net_cash_flow"`
	SavingsRate     decimal.Decimal `json:"savings_rate"`
	FinancialHealth string          `json:"financial_health"`
}

// Dashboard is the consolidated analytics payload
type Dashboard struct {
	Period                DashboardPeriod        `json:"period"`
	Summary               DashboardSummary       `json:"summary"`
	SpendingByCategory    []CategorySpending     `json:"spending_by_category"`
	IncomeBreakdown       IncomeAnalysis         `json:"income_breakdown"`
	MonthlyTrend          []MonthlySpending      `json:"monthly_trend"`
	TopMerchants          []MerchantSpending     `json:"top_merchants"`
	BudgetRecommendations []BudgetRecommendation `json:"budget_recommendations"`
	Insights              []Insight              `json:"insights"`
	LifetimeSummary       *UserStats             `json:"lifetime_summary"`
}

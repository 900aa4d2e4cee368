package aggregate

import (
	"context"
	"fmt"
	"sort"
	"time"

	"finance-etl-go/internal/models"
	"finance-etl-go/internal/parsing"

	"github.com/shopspring/decimal"
)

// Savings health tiers
const (
	HealthExcellent        = "Excellent"
	HealthGood             = "Good"
	HealthFair             = "Fair"
	HealthNeedsImprovement = "Needs Improvement"
)

// Budget statuses and urgencies
const (
	StatusOverBudget   = "over_budget"
	StatusSlightlyOver = "slightly_over"
	StatusOnBudget     = "on_budget"
	StatusUnderBudget  = "under_budget"

	UrgencyHigh   = "high"
	UrgencyMedium = "medium"
	UrgencyLow    = "low"
)

var (
	hundred    = decimal.NewFromInt(100)
	overFactor = decimal.RequireFromString("1.2")
	underRatio = decimal.RequireFromString("0.8")
	urgentOver = decimal.NewFromInt(50)
)

type savingsTier struct {
	min            decimal.Decimal
	level          string
	recommendation string
}

// Checked top to bottom, first tier whose minimum the rate reaches wins
var savingsTiers = []savingsTier{
	{decimal.NewFromInt(20), HealthExcellent, "Great job! You're saving 20% or more of your income."},
	{decimal.NewFromInt(10), HealthGood, "You're on the right track. Aim for 20% savings rate."},
	{decimal.NewFromInt(5), HealthFair, "Consider reducing expenses to improve your savings rate."},
}

const needsImprovementAdvice = "Focus on increasing income or reducing expenses significantly."

type budgetRule struct {
	percentage int64
	kind       string
}

// Share of income each category should take. Food & Restaurants is a need.
var budgetRules = map[string]budgetRule{
	parsing.CategoryFood:          {15, "needs"},
	parsing.CategoryTransport:     {10, "needs"},
	parsing.CategoryBills:         {15, "needs"},
	parsing.CategoryHealth:        {5, "needs"},
	parsing.CategoryEducation:     {5, "needs"},
	parsing.CategoryShopping:      {15, "wants"},
	parsing.CategoryEntertainment: {10, "wants"},
	parsing.CategoryBank:          {2, "other"},
	parsing.CategoryOther:         {3, "other"},
}

var defaultBudgetRule = budgetRule{5, "other"}

// First tip is the one shown when a category runs over budget
var categoryTips = map[string][]string{
	parsing.CategoryFood: {
		"Try meal planning and cooking at home more often",
		"Consider packing lunch for work/school",
		"Look for restaurant deals and happy hours",
		"Buy groceries in bulk when possible",
	},
	parsing.CategoryTransport: {
		"Consider using public transportation more",
		"Try walking or cycling for short distances",
		"Compare taxi apps for better prices",
		"Consider carpooling with colleagues",
	},
	parsing.CategoryShopping: {
		"Create a shopping list and stick to it",
		"Wait 24 hours before making non-essential purchases",
		"Compare prices online before buying",
		"Consider second-hand options when possible",
	},
	parsing.CategoryEntertainment: {
		"Look for free entertainment options in your city",
		"Consider streaming services instead of cinema",
		"Take advantage of happy hour and weekday discounts",
		"Plan entertainment budget in advance",
	},
	parsing.CategoryBills: {
		"Review your subscriptions and cancel unused ones",
		"Consider energy-saving measures to reduce bills",
		"Shop around for better internet/phone plans",
		"Use automatic payments to avoid late fees",
	},
}

// CalculateSavingsRate computes (income - expenses) / income * 100 over
// [start, end] and its health tier. No income means a rate of zero.
func (s *Service) CalculateSavingsRate(ctx context.Context, userId string, start, end time.Time) (*models.SavingsAnalysis, error) {
	txs, err := s.processedInRange(ctx, userId, start, end)
	if err != nil {
		return nil, err
	}
	analysis := savingsAnalysis(txs)
	return &analysis, nil
}

// CreateBudgetRecommendations compares each category's expenses in
// [start, end] with its share of the income of the same period
func (s *Service) CreateBudgetRecommendations(ctx context.Context, userId string, start, end time.Time) ([]models.BudgetRecommendation, error) {
	txs, err := s.processedInRange(ctx, userId, start, end)
	if err != nil {
		return nil, err
	}
	income, _ := totals(txs)
	return budgetRecommendations(spendingByCategory(txs), income), nil
}

// totals returns income and expenses, both as non-negative values
func totals(txs []models.Transaction) (decimal.Decimal, decimal.Decimal) {
	income, expenses := decimal.Zero, decimal.Zero
	for _, tx := range txs {
		switch {
		case tx.Amount.IsPositive():
			income = income.Add(tx.Amount)
		case tx.Amount.IsNegative():
			expenses = expenses.Add(tx.Amount.Abs())
		}
	}
	return income, expenses
}

func savingsAnalysis(txs []models.Transaction) models.SavingsAnalysis {
	income, expenses := totals(txs)

	rate, amount := decimal.Zero, decimal.Zero
	if !income.IsZero() {
		amount = income.Sub(expenses)
		rate = amount.Div(income).Mul(hundred)
	}

	level, recommendation := HealthNeedsImprovement, needsImprovementAdvice
	for _, tier := range savingsTiers {
		if rate.GreaterThanOrEqual(tier.min) {
			level, recommendation = tier.level, tier.recommendation
			break
		}
	}

	return models.SavingsAnalysis{
		SavingsRate:    rate.Round(2),
		SavingsAmount:  amount,
		TotalIncome:    income,
		TotalExpenses:  expenses,
		HealthLevel:    level,
		Recommendation: recommendation,
	}
}

func budgetRecommendations(spending []models.CategorySpending, income decimal.Decimal) []models.BudgetRecommendation {
	recommendations := make([]models.BudgetRecommendation, 0, len(spending))
	for _, cs := range spending {
		rule, ok := budgetRules[cs.Category]
		if !ok {
			rule = defaultBudgetRule
		}
		budget := income.Mul(decimal.NewFromInt(rule.percentage)).Div(hundred)
		status, urgency := budgetStatus(cs.Amount, budget)

		recommendations = append(recommendations, models.BudgetRecommendation{
			Category:          cs.Category,
			CurrentSpending:   cs.Amount,
			RecommendedBudget: budget,
			BudgetPercentage:  int(rule.percentage),
			Status:            status,
			Urgency:           urgency,
			Recommendation:    categoryRecommendation(cs.Category, cs.Amount, budget, status),
			Type:              rule.kind,
		})
	}

	sort.SliceStable(recommendations, func(a, b int) bool {
		ra, rb := urgencyRank(recommendations[a].Urgency), urgencyRank(recommendations[b].Urgency)
		if ra != rb {
			return ra < rb
		}
		return recommendations[a].CurrentSpending.GreaterThan(recommendations[b].CurrentSpending)
	})
	return recommendations
}

func budgetStatus(spent, budget decimal.Decimal) (string, string) {
	switch {
	case spent.GreaterThan(budget.Mul(overFactor)):
		return StatusOverBudget, UrgencyHigh
	case spent.GreaterThan(budget):
		return StatusSlightlyOver, UrgencyMedium
	case spent.LessThan(budget.Mul(underRatio)):
		return StatusUnderBudget, UrgencyLow
	default:
		return StatusOnBudget, UrgencyLow
	}
}

func urgencyRank(urgency string) int {
	switch urgency {
	case UrgencyHigh:
		return 0
	case UrgencyMedium:
		return 1
	default:
		return 2
	}
}

func categoryRecommendation(category string, spent, budget decimal.Decimal, status string) string {
	switch status {
	case StatusOnBudget:
		return fmt.Sprintf("Great! You're within budget for %s.", category)
	case StatusUnderBudget:
		return fmt.Sprintf("Good job managing %s. You're spending less than recommended.", category)
	}

	tips, ok := categoryTips[category]
	if !ok {
		tips = []string{
			fmt.Sprintf("Review your %s expenses and identify areas to reduce", category),
			fmt.Sprintf("Set a monthly budget for %s and track it regularly", category),
			"Look for alternatives that cost less but provide similar value",
		}
	}

	// No income in the period leaves nothing to measure the overage against
	if budget.IsZero() {
		return fmt.Sprintf("Urgent: You're spending on %s with no income recorded for this period. %s", category, tips[0])
	}

	over := spent.Sub(budget).Div(budget).Mul(hundred)
	if over.GreaterThan(urgentOver) {
		return fmt.Sprintf("Urgent: You're spending %s%% more than recommended for %s. %s", over.StringFixed(0), category, tips[0])
	}
	return fmt.Sprintf("You're spending %s%% over budget for %s. %s", over.StringFixed(0), category, tips[0])
}

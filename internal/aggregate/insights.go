package aggregate

import (
	"fmt"
	"strings"

	"finance-etl-go/internal/models"
	"finance-etl-go/internal/parsing"

	"github.com/shopspring/decimal"
)

var (
	trendRise     = decimal.RequireFromString("1.2")
	trendFall     = decimal.RequireFromString("0.8")
	lowSavings    = decimal.NewFromInt(5)
	strongSavings = decimal.NewFromInt(20)
)

// GenerateInsights turns the dashboard figures into short observations.
// largeCategory is the amount above which the top category is called out.
func GenerateInsights(spending []models.CategorySpending, income models.IncomeAnalysis,
	savings models.SavingsAnalysis, trend []models.MonthlySpending, largeCategory decimal.Decimal) []models.Insight {
	insights := []models.Insight{}

	if n := len(trend); n >= 2 {
		current, previous := trend[n-1].TotalSpending, trend[n-2].TotalSpending
		if !previous.IsZero() {
			ratio := current.Div(previous)
			switch {
			case current.GreaterThan(previous.Mul(trendRise)):
				insights = append(insights, models.Insight{
					Type:       "warning",
					Title:      "Spending Increased Significantly",
					Message:    fmt.Sprintf("Your spending increased by %s%% this month. Review your largest expense categories.", ratio.Sub(decimal.NewFromInt(1)).Mul(hundred).StringFixed(0)),
					Actionable: true,
				})
			case current.LessThan(previous.Mul(trendFall)):
				insights = append(insights, models.Insight{
					Type:       "positive",
					Title:      "Great Job Reducing Spending!",
					Message:    fmt.Sprintf("Your spending decreased by %s%% this month. Keep it up!", decimal.NewFromInt(1).Sub(ratio).Mul(hundred).StringFixed(0)),
					Actionable: false,
				})
			}
		}
	}

	switch rate := savings.SavingsRate; {
	case rate.LessThan(lowSavings):
		insights = append(insights, models.Insight{
			Type:       "alert",
			Title:      "Low Savings Rate",
			Message:    fmt.Sprintf("Your savings rate is %s%%. Consider reducing expenses or increasing income to reach at least 10%%.", rate.StringFixed(1)),
			Actionable: true,
		})
	case rate.GreaterThanOrEqual(strongSavings):
		insights = append(insights, models.Insight{
			Type:       "excellent",
			Title:      "Excellent Savings Habits!",
			Message:    fmt.Sprintf("Your savings rate is %s%%. You're building great financial security!", rate.StringFixed(1)),
			Actionable: false,
		})
	}

	if len(spending) > 0 && spending[0].Amount.GreaterThan(largeCategory) {
		top := spending[0]
		insights = append(insights, models.Insight{
			Type:       "info",
			Title:      "Top Expense: " + top.Category,
			Message:    fmt.Sprintf("You spent %s UZS on %s this month. Is this aligned with your priorities?", groupThousands(top.Amount), top.Category),
			Actionable: true,
		})
	}

	for _, cat := range income.IncomeByCategory {
		if cat.Category == parsing.CategorySalary {
			if cat.Count == 1 {
				insights = append(insights, models.Insight{
					Type:       "info",
					Title:      "Income Source Diversity",
					Message:    "Consider diversifying your income sources for better financial stability.",
					Actionable: true,
				})
			}
			break
		}
	}

	return insights
}

// groupThousands renders a whole amount with comma thousand separators
func groupThousands(d decimal.Decimal) string {
	digits := d.Abs().StringFixed(0)

	var b strings.Builder
	if d.Round(0).IsNegative() {
		b.WriteByte('-')
	}
	for i, r := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	return b.String()
}

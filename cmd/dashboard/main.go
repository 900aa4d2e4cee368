package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"

	"finance-etl-go/internal/common"
	"finance-etl-go/internal/config"
	"finance-etl-go/internal/models"

	"go.uber.org/zap"
)

func printDashboard(user *common.UserInfo, d *models.Dashboard) {
	common.PrintHeader(fmt.Sprintf("FINANCIAL DASHBOARD: %s (%s to %s)",
		user.Name, d.Period.Start.Format("2006-01-02"), d.Period.End.Format("2006-01-02")), common.WideWidth)

	fmt.Printf("Income:        %s\n", common.FormatMoney(d.Summary.TotalIncome, ""))
	fmt.Printf("Spending:      %s\n", common.FormatMoney(d.Summary.TotalSpending, ""))
	fmt.Printf("Net cash flow: %s\n", common.FormatMoney(d.Summary.NetCashFlow, ""))
	fmt.Printf("Savings rate:  %s (%s)\n", common.FormatPercent(d.Summary.SavingsRate), d.Summary.FinancialHealth)

	if len(d.SpendingByCategory) > 0 {
		common.PrintSection("Spending by category", common.WideWidth-1)
		for i, c := range d.SpendingByCategory {
			fmt.Printf("%s %-26s %24s (%d)\n", common.BoxPrefix(i == len(d.SpendingByCategory)-1),
				c.Category, common.FormatMoney(c.Amount, ""), c.Count)
		}
	}

	if len(d.TopMerchants) > 0 {
		common.PrintSection("Top merchants", common.WideWidth-1)
		for i, m := range d.TopMerchants {
			fmt.Printf("%s %-26s %24s (%d)\n", common.BoxPrefix(i == len(d.TopMerchants)-1),
				m.Merchant, common.FormatMoney(m.Amount, ""), m.Count)
		}
	}

	if len(d.MonthlyTrend) > 0 {
		common.PrintSection("Monthly trend", common.WideWidth-1)
		for i, m := range d.MonthlyTrend {
			fmt.Printf("%s %-8s %24s (%d)\n", common.BoxPrefix(i == len(d.MonthlyTrend)-1),
				m.Month, common.FormatMoney(m.TotalSpending, ""), m.TransactionCount)
		}
	}

	if len(d.BudgetRecommendations) > 0 {
		common.PrintSection("Budget", common.WideWidth-1)
		for i, b := range d.BudgetRecommendations {
			fmt.Printf("%s %-26s %-18s %s\n", common.BoxPrefix(i == len(d.BudgetRecommendations)-1),
				b.Category, b.Status, b.Recommendation)
		}
	}

	if len(d.Insights) > 0 {
		common.PrintSection("Insights", common.WideWidth-1)
		for i, in := range d.Insights {
			fmt.Printf("%s [%s] %s: %s\n", common.BoxPrefix(i == len(d.Insights)-1), in.Type, in.Title, in.Message)
		}
	}

	if d.LifetimeSummary != nil {
		common.PrintFooter(fmt.Sprintf("LIFETIME: %d transactions, income %s, expenses %s",
			d.LifetimeSummary.TotalTransactions,
			common.FormatMoney(d.LifetimeSummary.TotalIncome, ""),
			common.FormatMoney(d.LifetimeSummary.TotalExpense, "")), common.WideWidth)
		return
	}
	common.PrintSeparator("=", common.WideWidth)
}

func main() {
	ctx := context.Background()

	_, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	userFlag := flag.String("user", "", "User id or email (required)")
	jsonFlag := flag.Bool("json", false, "Print the dashboard as JSON")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		zap.L().Fatal("Failed to load config", zap.Error(err))
	}

	services, err := common.InitializeServices(ctx, cfg)
	if err != nil {
		zap.L().Fatal("Failed to initialize services", zap.Error(err))
	}
	defer services.Close()

	user, err := common.ResolveUser(ctx, services.DbService, *userFlag)
	if err != nil {
		zap.L().Fatal("Failed to resolve user", zap.Error(err))
	}

	dashboard, err := services.FinanceService.Dashboard(ctx, user.Id)
	if err != nil {
		zap.L().Fatal("Failed to build dashboard", zap.String("user_id", user.Id), zap.Error(err))
	}

	if *jsonFlag {
		out, err := json.MarshalIndent(dashboard, "", "  ")
		if err != nil {
			zap.L().Fatal("Failed to marshal dashboard", zap.Error(err))
		}
		fmt.Println(string(out))
		return
	}
	printDashboard(user, dashboard)
}

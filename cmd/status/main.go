package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"finance-etl-go/internal/common"
	"finance-etl-go/internal/config"
	"finance-etl-go/internal/models"

	"go.uber.org/zap"
)

func printHealth(report *models.HealthReport) {
	common.PrintHeader(fmt.Sprintf("SYSTEM HEALTH: %s", report.OverallStatus), common.DefaultWidth)
	for i, check := range report.Checks {
		fmt.Printf("%s %-22s %-8s %s\n", common.BoxPrefix(i == len(report.Checks)-1), check.Name, check.Status, check.Message)
	}
	for _, rec := range report.Recommendations {
		fmt.Printf("\n→ %s\n", rec)
	}
}

func main() {
	ctx := context.Background()

	logger, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	emailFlag := flag.String("email", "", "Filter by specific user email (optional)")
	healthFlag := flag.Bool("health", false, "Also run the system health check")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}

	services, err := common.InitializeServices(ctx, cfg)
	if err != nil {
		logger.Fatal("Failed to initialize services", zap.Error(err))
	}
	defer services.Close()

	unhealthy := false
	if *healthFlag {
		report := services.FinanceService.HealthCheck(ctx)
		printHealth(report)
		unhealthy = report.OverallStatus != models.OverallHealthy
	}

	users, err := common.InitializeUsers(ctx, services.DbService, *emailFlag, logger)
	if err != nil {
		logger.Fatal("Failed to initialize users", zap.Error(err))
	}

	common.PrintHeader("PIPELINE STATUS", common.DefaultWidth)
	fmt.Printf("%-30s %8s %12s %10s  %s\n", "USER", "TOTAL", "UNPROCESSED", "DONE", "STATUS")
	common.PrintSeparator("-", common.DefaultWidth)

	needsTransform := 0
	for _, user := range users {
		status, err := services.FinanceService.PipelineStatus(ctx, user.Id)
		if err != nil {
			logger.Error("Failed to get pipeline status", zap.String("user_id", user.Id), zap.Error(err))
			continue
		}
		if status.NeedsProcessing {
			needsTransform++
		}
		fmt.Printf("%-30s %8d %12d %9.2f%%  %s\n",
			user.Email,
			status.TotalTransactions,
			status.UnprocessedTransactions,
			status.ProcessingPercentage,
			status.Status)
	}

	common.PrintFooter(fmt.Sprintf("SUMMARY: %d of %d users need a transform", needsTransform, len(users)), common.DefaultWidth)

	if unhealthy {
		services.Close()
		loggerCleanup()
		os.Exit(1)
	}
}

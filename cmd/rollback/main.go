package main

import (
	"context"
	"flag"
	"fmt"

	"finance-etl-go/internal/common"
	"finance-etl-go/internal/config"
	"finance-etl-go/internal/models"

	"go.uber.org/zap"
)

func main() {
	ctx := context.Background()

	_, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	userFlag := flag.String("user", "", "User id or email (required)")
	stepFlag := flag.String("step", "", "Step to roll back: transform or load (required)")
	flag.Parse()

	step, err := models.ParseStep(*stepFlag)
	if err != nil {
		zap.L().Fatal("Invalid step", zap.Error(err))
	}

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

	result, err := services.FinanceService.Rollback(ctx, user.Id, step)
	if err != nil {
		zap.L().Fatal("Rollback failed",
			zap.String("user_id", user.Id),
			zap.String("step", string(step)),
			zap.Error(err))
	}

	common.PrintHeader("ROLLBACK", common.DefaultWidth)
	fmt.Printf("Status:   %s\n", result.Status)
	fmt.Printf("Message:  %s\n", result.Message)
	fmt.Printf("Affected: %d\n", result.Affected)
	common.PrintSeparator("=", common.DefaultWidth)
}

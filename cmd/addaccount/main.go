package main

import (
	"context"
	"flag"
	"fmt"

	"finance-etl-go/internal/common"
	"finance-etl-go/internal/config"
	"finance-etl-go/internal/models"
	"finance-etl-go/internal/store"

	"go.uber.org/zap"
)

func main() {
	ctx := context.Background()

	_, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	userFlag := flag.String("user", "", "User id or email (required)")
	nameFlag := flag.String("name", "", "Account name (required)")
	providerFlag := flag.String("provider", models.ProviderManual, "Provider: csv, manual, Uzum, Payme or Click")
	currencyFlag := flag.String("currency", "", "Three-letter currency code (default: UZS)")
	flag.Parse()

	if *nameFlag == "" {
		zap.L().Fatal("The --name flag is required")
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

	account, err := services.FinanceService.CreateAccount(ctx, store.NewAccountParams{
		OwnerId:  user.Id,
		Name:     *nameFlag,
		Provider: *providerFlag,
		Currency: *currencyFlag,
	})
	if err != nil {
		zap.L().Fatal("Failed to create account", zap.Error(err))
	}

	common.PrintHeader("ACCOUNT CREATED", common.DefaultWidth)
	fmt.Printf("ID:       %s\n", account.Id)
	fmt.Printf("Owner:    %s (%s)\n", user.Name, user.Email)
	fmt.Printf("Name:     %s\n", account.Name)
	fmt.Printf("Provider: %s\n", account.Provider)
	fmt.Printf("Currency: %s\n", account.Currency)
	common.PrintSeparator("=", common.DefaultWidth)
}

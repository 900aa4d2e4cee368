package main

import (
	"context"
	"flag"
	"fmt"

	"finance-etl-go/internal/common"
	"finance-etl-go/internal/config"

	"go.uber.org/zap"
)

func seedAccounts(ctx context.Context, services *common.Services, accountsFile string) {
	zap.L().Info("Loading account seeds", zap.String("file", accountsFile))
	seeds, err := common.LoadAccountSeeds(accountsFile)
	if err != nil {
		zap.L().Fatal("Failed to load account seeds", zap.Error(err))
	}
	zap.L().Info("Account seeds loaded", zap.Int("count", len(seeds)))

	users, err := services.DbService.GetUsers(ctx)
	if err != nil {
		zap.L().Fatal("Failed to read users from database", zap.Error(err))
	}

	var created, existing int
	var failed []string

	for _, user := range users {
		zap.L().Info("Processing user",
			zap.String("id", user.Id),
			zap.String("name", user.Name),
			zap.String("email", user.Email))

		stats, err := common.EnsureAccounts(ctx, services.FinanceService, user.Id, seeds)
		if err != nil {
			zap.L().Error("Failed to seed accounts", zap.String("user_id", user.Id), zap.Error(err))
			failed = append(failed, user.Name)
			continue
		}
		created += stats.Created
		existing += stats.Existing
		for _, name := range stats.Failed {
			failed = append(failed, fmt.Sprintf("%s/%s", user.Name, name))
		}
	}

	if len(failed) > 0 {
		zap.L().Warn("Account seeding completed with some failures",
			zap.Int("accounts_created", created),
			zap.Int("accounts_existing", existing),
			zap.Strings("failed_user_accounts", failed))
		return
	}
	zap.L().Info("Account seeding completed successfully",
		zap.Int("accounts_created", created),
		zap.Int("accounts_existing", existing))
}

func main() {
	ctx := context.Background()

	_, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	initFlag := flag.Bool("init", false, "Initialize the database and print its health")
	accountsFlag := flag.String("accounts", "accounts.yaml", "Account seed file")
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

	if *initFlag {
		// Schema creation happens when the database service opens
		report := services.PipelineService.GetHealthCheck(ctx)
		zap.L().Info("Database initialized",
			zap.String("path", cfg.Database.Path),
			zap.String("health", report.OverallStatus))
	}

	seedAccounts(ctx, services, *accountsFlag)
}

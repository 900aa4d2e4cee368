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

package main

import (
	"context"
	"flag"
	"fmt"

	"finance-etl-go/internal/api"
	"finance-etl-go/internal/common"
	"finance-etl-go/internal/config"
	"finance-etl-go/internal/models"

	"go.uber.org/zap"
)

type balanceStats struct {
	totalUsers        int
	totalAccounts     int
	usersWithAccounts int
}

func printAccount(account models.AccountSummary, isLast bool) {
	symbol := common.BoxPrefix(isLast)

	fmt.Printf("%s %-18s %-8s: %24s (txs: %d, last 30d: %d, updated: %s)\n",
		symbol,
		account.AccountName,
		account.Provider,
		common.FormatMoney(account.Balance, account.Currency),
		account.TotalTransactions,
		account.RecentTransactions30d,
		account.LastUpdated.Format("2006-01-02 15:04:05"))
}

func printUserHeader(user common.UserInfo, accountCount int) {
	fmt.Printf("\n┌─ User: %s (%s)\n", user.Name, user.Email)
	fmt.Printf("│  ID: %s\n", user.Id)
	fmt.Printf("│  Accounts: %d\n", accountCount)
	fmt.Println("├" + "──────────────────────────────────────────────────────────────────────────────")
}

func processUser(ctx context.Context, user common.UserInfo, finance *api.FinanceService) (int, error) {
	summary, err := finance.GetAccountSummary(ctx, user.Id)
	if err != nil {
		return 0, fmt.Errorf("failed to get account summary: %w", err)
	}

	if len(summary) == 0 {
		return 0, nil
	}

	printUserHeader(user, len(summary))
	for i, account := range summary {
		printAccount(account, i == len(summary)-1)
	}

	return len(summary), nil
}

func main() {
	ctx := context.Background()

	logger, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	// Parse command line flags
	emailFlag := flag.String("email", "", "Filter by specific user email (optional)")
	flag.Parse()

	logger.Info("Starting balance query")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}

	logger.Info("Connecting to database", zap.String("path", cfg.Database.Path))
	services, err := common.InitializeServices(ctx, cfg)
	if err != nil {
		logger.Fatal("Failed to initialize services", zap.Error(err))
	}
	defer services.Close()

	users, err := common.InitializeUsers(ctx, services.DbService, *emailFlag, logger)
	if err != nil {
		logger.Fatal("Failed to initialize users", zap.Error(err))
	}

	common.PrintHeader("ACCOUNT BALANCE REPORT", common.WideWidth)

	stats := balanceStats{}
	for _, user := range users {
		stats.totalUsers++

		accountCount, err := processUser(ctx, user, services.FinanceService)
		if err != nil {
			logger.Error("Failed to process user",
				zap.String("user_id", user.Id),
				zap.String("user_name", user.Name),
				zap.Error(err))
			continue
		}

		if accountCount > 0 {
			stats.usersWithAccounts++
			stats.totalAccounts += accountCount
		}
	}

	summary := fmt.Sprintf("SUMMARY: %d users with accounts (%d active accounts across %d users queried)",
		stats.usersWithAccounts, stats.totalAccounts, stats.totalUsers)
	common.PrintFooter(summary, common.WideWidth)

	logger.Info("Balance query completed",
		zap.Int("users_queried", stats.totalUsers),
		zap.Int("users_with_accounts", stats.usersWithAccounts),
		zap.Int("total_accounts", stats.totalAccounts))
}

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
	"regexp"
	"strings"

	"finance-etl-go/internal/common"
	"finance-etl-go/internal/config"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

func validateEmail(email string) error {
	if email == "" {
		return fmt.Errorf("email cannot be empty")
	}
	if !emailRegex.MatchString(email) {
		return fmt.Errorf("invalid email format: %s", email)
	}
	return nil
}

func validateName(name string) error {
	if name == "" {
		return fmt.Errorf("name cannot be empty")
	}
	if len(name) < 2 {
		return fmt.Errorf("name must be at least 2 characters")
	}
	return nil
}

func main() {
	ctx := context.Background()

	_, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	nameFlag := flag.String("name", "", "User's full name (required)")
	emailFlag := flag.String("email", "", "User's email address (required)")
	accountsFlag := flag.String("accounts", "accounts.yaml", "Account seed file; empty skips account creation")
	flag.Parse()

	if *nameFlag == "" || *emailFlag == "" {
		zap.L().Fatal("Both flags are required: --name and --email")
	}
	if err := validateName(*nameFlag); err != nil {
		zap.L().Fatal("Invalid name", zap.Error(err))
	}
	if err := validateEmail(*emailFlag); err != nil {
		zap.L().Fatal("Invalid email", zap.Error(err))
	}

	zap.L().Info("Starting user creation process",
		zap.String("name", *nameFlag),
		zap.String("email", *emailFlag))

	cfg, err := config.Load()
	if err != nil {
		zap.L().Fatal("Failed to load config", zap.Error(err))
	}

	services, err := common.InitializeServices(ctx, cfg)
	if err != nil {
		zap.L().Fatal("Failed to initialize services", zap.Error(err))
	}
	defer services.Close()

	userId := uuid.New().String()
	user, err := services.DbService.CreateUser(ctx, userId, *nameFlag, *emailFlag)
	if err != nil {
		if strings.Contains(err.Error(), "already exists") {
			zap.L().Fatal("User already exists with this email", zap.String("email", *emailFlag))
		}
		zap.L().Fatal("Failed to create user", zap.Error(err))
	}

	common.PrintHeader("USER CREATED", common.DefaultWidth)
	fmt.Printf("ID:    %s\n", user.Id)
	fmt.Printf("Name:  %s\n", user.Name)
	fmt.Printf("Email: %s\n", user.Email)
	common.PrintSeparator("=", common.DefaultWidth)

	if *accountsFlag == "" {
		fmt.Println("\nNo account seed file given; add accounts with: go run cmd/addaccount/main.go")
		return
	}

	seeds, err := common.LoadAccountSeeds(*accountsFlag)
	if err != nil {
		zap.L().Fatal("Failed to load account seeds", zap.Error(err))
	}
	if len(seeds) == 0 {
		fmt.Printf("\nNo accounts configured in %s\n", *accountsFlag)
		return
	}

	stats, err := common.EnsureAccounts(ctx, services.FinanceService, user.Id, seeds)
	if err != nil {
		zap.L().Fatal("Failed to create accounts", zap.Error(err))
	}

	common.PrintHeader("ACCOUNT SETUP SUMMARY", common.DefaultWidth)
	fmt.Printf("Configured:        %d\n", len(seeds))
	fmt.Printf("Created:           %d\n", stats.Created)
	fmt.Printf("Failed:            %d\n", len(stats.Failed))
	if len(stats.Failed) > 0 {
		fmt.Printf("Failed Accounts:   %s\n", strings.Join(stats.Failed, ", "))
	}
	common.PrintSeparator("=", common.DefaultWidth)

	if len(stats.Failed) > 0 {
		zap.L().Warn("User created but some accounts failed",
			zap.String("user_id", user.Id),
			zap.Int("created", stats.Created),
			zap.Strings("failed_accounts", stats.Failed))
		fmt.Println("You can re-run setup to retry: go run cmd/setup/main.go")
		return
	}
	zap.L().Info("User and accounts created successfully",
		zap.String("user_id", user.Id),
		zap.Int("accounts_created", stats.Created))
}

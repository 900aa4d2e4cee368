package common

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"finance-etl-go/internal/api"
	"finance-etl-go/internal/models"
	"finance-etl-go/internal/store"

	"go.uber.org/zap"
	"gopkg.in/yaml.v2"
)

// AccountSeed is one account every user should have
type AccountSeed struct {
	Name     string `yaml:"name"`
	Provider string `yaml:"provider"`
	Currency string `yaml:"currency"`
}

type AccountsConfig struct {
	Accounts []AccountSeed `yaml:"accounts"`
}

var seedProviders = map[string]bool{
	models.ProviderCSV:    true,
	models.ProviderManual: true,
	models.ProviderUzum:   true,
	models.ProviderPayme:  true,
	models.ProviderClick:  true,
}

// LoadAccountSeeds reads the account seed file. Relative paths are resolved
// against the working directory.
func LoadAccountSeeds(accountsFile string) ([]AccountSeed, error) {
	var accountsPath string
	if filepath.IsAbs(accountsFile) {
		accountsPath = accountsFile
	} else {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get working directory: %w", err)
		}
		accountsPath = filepath.Join(wd, accountsFile)
	}

	data, err := os.ReadFile(accountsPath)
	if err != nil {
		return nil, fmt.Errorf("unable to read %s: %w", accountsFile, err)
	}

	return ParseAccountSeeds(data)
}

// ParseAccountSeeds decodes and validates seed YAML
func ParseAccountSeeds(data []byte) ([]AccountSeed, error) {
	var config AccountsConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("unable to parse account seeds: %w", err)
	}

	seen := make(map[string]bool)
	for i, seed := range config.Accounts {
		if seed.Name == "" {
			return nil, fmt.Errorf("account at index %d missing name", i)
		}
		if seen[seed.Name] {
			return nil, fmt.Errorf("account %q listed twice", seed.Name)
		}
		seen[seed.Name] = true

		if seed.Provider == "" {
			config.Accounts[i].Provider = models.ProviderManual
		} else if !seedProviders[seed.Provider] {
			return nil, fmt.Errorf("account %q has unknown provider %q", seed.Name, seed.Provider)
		}
		if seed.Currency == "" {
			config.Accounts[i].Currency = "UZS"
		}
	}

	return config.Accounts, nil
}

// SeedStats counts the outcome of EnsureAccounts
type SeedStats struct {
	Created  int
	Existing int
	Failed   []string
}

// EnsureAccounts creates every seeded account the user does not have yet.
// Accounts are matched by name; existing ones are left untouched.
func EnsureAccounts(ctx context.Context, finance *api.FinanceService, userId string, seeds []AccountSeed) (SeedStats, error) {
	var stats SeedStats

	accounts, err := finance.GetUserAccounts(ctx, userId)
	if err != nil {
		return stats, fmt.Errorf("error listing accounts: %w", err)
	}
	existing := make(map[string]bool, len(accounts))
	for _, account := range accounts {
		existing[account.Name] = true
	}

	for _, seed := range seeds {
		if existing[seed.Name] {
			zap.L().Debug("Account already exists",
				zap.String("user_id", userId),
				zap.String("account", seed.Name))
			stats.Existing++
			continue
		}

		account, err := finance.CreateAccount(ctx, store.NewAccountParams{
			OwnerId:  userId,
			Name:     seed.Name,
			Provider: seed.Provider,
			Currency: seed.Currency,
		})
		if err != nil {
			zap.L().Error("Failed to create account",
				zap.String("user_id", userId),
				zap.String("account", seed.Name),
				zap.Error(err))
			stats.Failed = append(stats.Failed, seed.Name)
			continue
		}

		zap.L().Info("Created account",
			zap.String("user_id", userId),
			zap.String("account_id", account.Id),
			zap.String("account", account.Name),
			zap.String("provider", account.Provider))
		stats.Created++
	}

	return stats, nil
}

package load

import (
	"context"
	"errors"
	"fmt"
	"time"

	"finance-etl-go/internal/models"
	"finance-etl-go/internal/parsing"
	"finance-etl-go/internal/store"

	"github.com/shopspring/decimal"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

var largeAmountWithoutMerchant = decimal.NewFromInt(100000)

// Validation messages
const (
	msgTransactionNotFound = "Transaction not found"
	msgAmountZero          = "Amount is zero - possible data entry error"
	msgDateMissing         = "Date cannot be null"
	msgDateFuture          = "Transaction date is in the future"
	msgDateTooOld          = "Transaction date is very old - verify data"
	msgNoOwner             = "Transaction has no owner"
	msgAccountNotFound     = "Referenced account not found"
	msgAccountNotOwned     = "Account does not belong to transaction owner"
	msgLargeNoMerchant     = "Large transaction missing merchant name"
)

// references holds what a transaction points to, resolved ahead of the
// checks. A nil account means the reference did not resolve.
type references struct {
	ownerFound bool
	account    *models.Account
}

// ValidateTransaction checks one transaction of the owner
func (s *Service) ValidateTransaction(ctx context.Context, ownerId, transactionId string) (*models.ValidationReport, error) {
	tx, err := s.store.GetTransaction(ctx, ownerId, transactionId)
	if errors.Is(err, store.ErrTransactionNotFound) {
		return &models.ValidationReport{Valid: false, Errors: []string{msgTransactionNotFound}, Warnings: []string{}}, nil
	}
	if err != nil {
		return nil, err
	}

	ownerFound, err := s.ownerExists(ctx, tx.OwnerId)
	if err != nil {
		return nil, err
	}
	refs := references{ownerFound: ownerFound}
	if tx.AccountId != "" {
		if refs.account, err = s.lookupAccount(ctx, tx.AccountId); err != nil {
			return nil, err
		}
	}

	report := checkTransaction(tx, refs, s.now())
	return &report, nil
}

// ValidateUserData validates every transaction of the user and compares each
// stored account balance with the recomputed one. Nothing is modified.
func (s *Service) ValidateUserData(ctx context.Context, userId string) (*models.UserValidationReport, error) {
	txs, err := s.store.ListTransactions(ctx, userId)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	ownerFound, err := s.ownerExists(ctx, userId)
	if err != nil {
		return nil, err
	}
	accounts, err := s.store.ListAccounts(ctx, userId, false)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}

	known := make(map[string]*models.Account, len(accounts))
	for i := range accounts {
		known[accounts[i].Id] = &accounts[i]
	}

	report := &models.UserValidationReport{
		TotalTransactions: len(txs),
		Warnings:          []string{},
		CommonErrors:      map[string]int{},
		BalanceIssues:     []models.BalanceIssue{},
	}

	var lookupErrs error
	now := s.now()
	for i := range txs {
		tx := &txs[i]
		refs := references{ownerFound: ownerFound}
		if tx.AccountId != "" {
			account, ok := known[tx.AccountId]
			if !ok {
				// Either missing or owned by someone else
				account, err = s.lookupAccount(ctx, tx.AccountId)
				if err != nil {
					lookupErrs = multierr.Append(lookupErrs, err)
					continue
				}
				known[tx.AccountId] = account
			}
			refs.account = account
		}

		result := checkTransaction(tx, refs, now)
		if result.Valid {
			report.ValidTransactions++
		} else {
			report.InvalidTransactions++
			for _, msg := range result.Errors {
				report.CommonErrors[msg]++
			}
		}
		report.Warnings = append(report.Warnings, result.Warnings...)
	}
	if lookupErrs != nil {
		return nil, fmt.Errorf("failed to resolve accounts: %w", lookupErrs)
	}

	for _, account := range accounts {
		calculated, err := s.CalculateAccountBalance(ctx, account.Id, nil)
		if err != nil {
			return nil, err
		}
		if issue, drifted := balanceDifference(account, calculated); drifted {
			report.BalanceIssues = append(report.BalanceIssues, issue)
		}
	}

	zap.L().Info("Validation complete",
		zap.String("user_id", userId),
		zap.Int("valid", report.ValidTransactions),
		zap.Int("total", report.TotalTransactions),
		zap.Int("warnings", len(report.Warnings)))
	return report, nil
}

func (s *Service) ownerExists(ctx context.Context, ownerId string) (bool, error) {
	if ownerId == "" {
		return false, nil
	}
	_, err := s.store.GetUserById(ctx, ownerId)
	if errors.Is(err, store.ErrUserNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to resolve owner: %w", err)
	}
	return true, nil
}

func (s *Service) lookupAccount(ctx context.Context, accountId string) (*models.Account, error) {
	account, err := s.store.GetAccount(ctx, accountId)
	if errors.Is(err, store.ErrAccountNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to resolve account %s: %w", accountId, err)
	}
	return account, nil
}

func checkTransaction(tx *models.Transaction, refs references, now time.Time) models.ValidationReport {
	errs := []string{}
	warnings := []string{}

	if tx.Amount.IsZero() {
		warnings = append(warnings, msgAmountZero)
	}

	if tx.CreatedAt.IsZero() {
		errs = append(errs, msgDateMissing)
	} else {
		day := parsing.Today(tx.CreatedAt)
		if day.After(parsing.Today(now)) {
			warnings = append(warnings, msgDateFuture)
		} else if day.Year() < 2000 {
			warnings = append(warnings, msgDateTooOld)
		}
	}

	if !refs.ownerFound {
		errs = append(errs, msgNoOwner)
	}

	if tx.AccountId != "" {
		if refs.account == nil {
			errs = append(errs, msgAccountNotFound)
		} else if refs.account.OwnerId != tx.OwnerId {
			errs = append(errs, msgAccountNotOwned)
		}
	}

	if tx.Category != "" && !parsing.IsKnownCategory(tx.Category) {
		warnings = append(warnings, "Unknown category: "+tx.Category)
	}

	if tx.Merchant == "" && tx.Amount.Abs().GreaterThan(largeAmountWithoutMerchant) {
		warnings = append(warnings, msgLargeNoMerchant)
	}

	return models.ValidationReport{Valid: len(errs) == 0, Errors: errs, Warnings: warnings}
}

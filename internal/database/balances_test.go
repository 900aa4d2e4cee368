package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"finance-etl-go/internal/models"
	"finance-etl-go/internal/store"

	"github.com/shopspring/decimal"
)

func createTestAccount(t *testing.T, service *Service, name string) *models.Account {
	t.Helper()
	account, err := service.CreateAccount(context.Background(), store.NewAccountParams{
		OwnerId:  "user1",
		Name:     name,
		Provider: models.ProviderManual,
		Currency: "UZS",
	})
	if err != nil {
		t.Fatalf("CreateAccount failed: %v", err)
	}
	return account
}

func TestCreateAccount(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()

	account := createTestAccount(t, service, "Wallet")
	if account.OwnerId != "user1" || account.Name != "Wallet" || !account.IsActive {
		t.Errorf("Unexpected account: %+v", account)
	}
	if !account.Balance.Equal(decimal.Zero) {
		t.Errorf("Expected zero opening balance, got %s", account.Balance)
	}

	_, err := service.CreateAccount(context.Background(), store.NewAccountParams{OwnerId: "user1"})
	if !errors.Is(err, store.ErrInvalidConfig) {
		t.Errorf("Expected invalid config for missing name, got: %v", err)
	}

	_, err = service.GetAccount(context.Background(), "missing")
	if !errors.Is(err, store.ErrAccountNotFound) {
		t.Errorf("Expected account not found, got: %v", err)
	}
}

func TestSumProcessed_NoTransactions(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()

	account := createTestAccount(t, service, "Empty")

	sum, err := service.SumProcessed(context.Background(), account.Id, nil)
	if err != nil {
		t.Fatalf("SumProcessed failed: %v", err)
	}
	if !sum.Equal(decimal.Zero) {
		t.Errorf("Expected 0, got %s", sum)
	}
}

func TestSumProcessed_OnlyProcessedAndCutoff(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()

	ctx := context.Background()
	account := createTestAccount(t, service, "Card")

	rows := []struct {
		hash      string
		amount    string
		date      time.Time
		processed bool
	}{
		{"a", "0.1", day(2025, 1, 1), true},
		{"b", "0.2", day(2025, 1, 2), true},
		{"c", "-30000", day(2025, 2, 1), true},
		{"d", "999", day(2025, 1, 3), false},
	}
	for _, r := range rows {
		params := rawRow(r.hash, r.amount, r.date)
		params.AccountId = account.Id
		params.Processed = r.processed
		if _, err := service.CreateTransaction(ctx, params); err != nil {
			t.Fatalf("CreateTransaction failed: %v", err)
		}
	}

	sum, err := service.SumProcessed(ctx, account.Id, nil)
	if err != nil {
		t.Fatalf("SumProcessed failed: %v", err)
	}
	if want := decimal.RequireFromString("-29999.7"); !sum.Equal(want) {
		t.Errorf("Expected %s, got %s", want, sum)
	}

	cutoff := day(2025, 1, 31)
	sum, err = service.SumProcessed(ctx, account.Id, &cutoff)
	if err != nil {
		t.Fatalf("SumProcessed with cutoff failed: %v", err)
	}
	if want := decimal.RequireFromString("0.3"); !sum.Equal(want) {
		t.Errorf("Expected exact %s, got %s", want, sum)
	}
}

func TestUpdateAndResetBalances(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()

	ctx := context.Background()
	first := createTestAccount(t, service, "First")
	second := createTestAccount(t, service, "Second")

	if err := service.UpdateBalance(ctx, first.Id, decimal.NewFromInt(-30000)); err != nil {
		t.Fatalf("UpdateBalance failed: %v", err)
	}
	if err := service.UpdateBalance(ctx, second.Id, decimal.NewFromInt(5)); err != nil {
		t.Fatalf("UpdateBalance failed: %v", err)
	}

	got, err := service.GetAccount(ctx, first.Id)
	if err != nil {
		t.Fatalf("GetAccount failed: %v", err)
	}
	if !got.Balance.Equal(decimal.NewFromInt(-30000)) {
		t.Errorf("Expected -30000, got %s", got.Balance)
	}

	affected, err := service.ResetBalances(ctx, "user1")
	if err != nil {
		t.Fatalf("ResetBalances failed: %v", err)
	}
	if affected != 2 {
		t.Errorf("Expected 2 accounts reset, got %d", affected)
	}

	accounts, err := service.ListAccounts(ctx, "user1", false)
	if err != nil {
		t.Fatalf("ListAccounts failed: %v", err)
	}
	for _, a := range accounts {
		if !a.Balance.Equal(decimal.Zero) {
			t.Errorf("Account %s not reset: %s", a.Name, a.Balance)
		}
	}

	if err := service.UpdateBalance(ctx, "missing", decimal.Zero); !errors.Is(err, store.ErrAccountNotFound) {
		t.Errorf("Expected account not found, got: %v", err)
	}
}

func TestListAccounts_ActiveOnly(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()

	ctx := context.Background()
	createTestAccount(t, service, "Active")
	closed := createTestAccount(t, service, "Closed")
	if _, err := service.db.Exec("UPDATE accounts SET is_active = 0 WHERE id = ?", closed.Id); err != nil {
		t.Fatalf("Failed to deactivate account: %v", err)
	}

	all, err := service.ListAccounts(ctx, "user1", false)
	if err != nil {
		t.Fatalf("ListAccounts failed: %v", err)
	}
	active, err := service.ListAccounts(ctx, "user1", true)
	if err != nil {
		t.Fatalf("ListAccounts failed: %v", err)
	}
	if len(all) != 2 || len(active) != 1 || active[0].Name != "Active" {
		t.Errorf("Expected 2 accounts with 1 active, got all=%d active=%d", len(all), len(active))
	}
}

func TestGetAccountActivity(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()

	ctx := context.Background()
	account := createTestAccount(t, service, "Card")
	for i, date := range []time.Time{day(2025, 1, 1), day(2025, 3, 1), day(2025, 3, 5)} {
		params := rawRow(string(rune('a'+i)), "-1", date)
		params.AccountId = account.Id
		if _, err := service.CreateTransaction(ctx, params); err != nil {
			t.Fatalf("CreateTransaction failed: %v", err)
		}
	}

	activity, err := service.GetAccountActivity(ctx, account.Id, day(2025, 2, 1))
	if err != nil {
		t.Fatalf("GetAccountActivity failed: %v", err)
	}
	if activity.Total != 3 || activity.Recent != 2 {
		t.Errorf("Expected total=3 recent=2, got %+v", activity)
	}
}

func TestUserStats_UpsertReplaces(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()

	ctx := context.Background()

	stats, err := service.GetUserStats(ctx, "user1")
	if err != nil {
		t.Fatalf("GetUserStats failed: %v", err)
	}
	if stats != nil {
		t.Fatalf("Expected no snapshot yet, got %+v", stats)
	}

	first := &models.UserStats{
		UserId:               "user1",
		TotalTransactions:    2,
		TotalIncome:          decimal.NewFromInt(1000000),
		TotalExpense:         decimal.NewFromInt(50000),
		AvgTransactionAmount: decimal.NewFromInt(525000),
		SpentByCategory:      map[string]decimal.Decimal{"Food & Restaurants": decimal.NewFromInt(50000)},
	}
	if err := service.UpsertUserStats(ctx, first); err != nil {
		t.Fatalf("UpsertUserStats failed: %v", err)
	}

	second := &models.UserStats{
		UserId:               "user1",
		TotalTransactions:    1,
		TotalIncome:          decimal.Zero,
		TotalExpense:         decimal.RequireFromString("10.55"),
		AvgTransactionAmount: decimal.RequireFromString("10.55"),
		SpentByCategory:      map[string]decimal.Decimal{"Other": decimal.RequireFromString("10.55")},
	}
	if err := service.UpsertUserStats(ctx, second); err != nil {
		t.Fatalf("Second UpsertUserStats failed: %v", err)
	}

	got, err := service.GetUserStats(ctx, "user1")
	if err != nil {
		t.Fatalf("GetUserStats failed: %v", err)
	}
	if got.TotalTransactions != 1 || !got.TotalExpense.Equal(decimal.RequireFromString("10.55")) {
		t.Errorf("Snapshot not replaced: %+v", got)
	}
	if len(got.SpentByCategory) != 1 || !got.SpentByCategory["Other"].Equal(decimal.RequireFromString("10.55")) {
		t.Errorf("Unexpected category map: %v", got.SpentByCategory)
	}
}

func TestHealthCheckers(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()

	ctx := context.Background()
	if err := service.Ping(ctx); err != nil {
		t.Errorf("Ping failed: %v", err)
	}
	if err := service.CheckTables(ctx); err != nil {
		t.Errorf("CheckTables failed: %v", err)
	}

	// Index creation is idempotent
	for i := 0; i < 2; i++ {
		if err := service.EnsureIndexes(ctx); err != nil {
			t.Fatalf("EnsureIndexes run %d failed: %v", i+1, err)
		}
	}

	if _, err := service.db.Exec("DROP TABLE user_stats"); err != nil {
		t.Fatalf("Failed to drop table: %v", err)
	}
	if err := service.CheckTables(ctx); err == nil {
		t.Error("Expected CheckTables to report the missing table")
	}
}

func TestGetUserById_NotFound(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()

	_, err := service.GetUserById(context.Background(), "nobody")
	if !errors.Is(err, store.ErrUserNotFound) {
		t.Errorf("Expected user not found, got: %v", err)
	}

	user, err := service.GetUserById(context.Background(), "user1")
	if err != nil {
		t.Fatalf("GetUserById failed: %v", err)
	}
	if user.Email != "test@example.com" {
		t.Errorf("Unexpected user: %+v", user)
	}
}

package database

import (
	"context"
	"errors"
	"strings"
	"testing"

	"finance-etl-go/internal/store"
)

func TestUsers(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()

	ctx := context.Background()

	user, err := service.CreateUser(ctx, "user2", " Jane Doe ", "Jane@Example.com")
	if err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	if user.Name != "Jane Doe" || user.Email != "jane@example.com" {
		t.Errorf("Expected trimmed name and lower-cased email, got %+v", user)
	}

	found, err := service.GetUserByEmail(ctx, "JANE@example.com")
	if err != nil {
		t.Fatalf("GetUserByEmail failed: %v", err)
	}
	if found.Id != "user2" {
		t.Errorf("Expected user2, got %s", found.Id)
	}

	if _, err := service.CreateUser(ctx, "user3", "Other", "jane@example.com"); err == nil || !strings.Contains(err.Error(), "already exists") {
		t.Errorf("Expected an already exists error, got %v", err)
	}
	if _, err := service.CreateUser(ctx, "", "Other", "other@example.com"); !errors.Is(err, store.ErrInvalidConfig) {
		t.Errorf("Expected ErrInvalidConfig, got %v", err)
	}
	if _, err := service.GetUserById(ctx, "ghost"); !errors.Is(err, store.ErrUserNotFound) {
		t.Errorf("Expected ErrUserNotFound, got %v", err)
	}

	users, err := service.GetUsers(ctx)
	if err != nil {
		t.Fatalf("GetUsers failed: %v", err)
	}
	if len(users) != 2 {
		t.Errorf("Expected 2 users, got %d", len(users))
	}
}

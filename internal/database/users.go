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

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"finance-etl-go/internal/models"
	"finance-etl-go/internal/store"

	"go.uber.org/zap"
)

// GetUsers lists every user, oldest first. The pipeline CLIs iterate this
// list when no user filter is given.
func (s *Service) GetUsers(ctx context.Context) ([]models.User, error) {
	rows, err := s.db.QueryContext(ctx, queryGetActiveUsers)
	if err != nil {
		zap.L().Error("Failed to query users", zap.Error(err))
		return nil, fmt.Errorf("unable to query users: %w", err)
	}
	defer closeRows(rows)

	var users []models.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating user rows: %w", err)
	}

	zap.L().Debug("Retrieved users", zap.Int("count", len(users)))
	return users, nil
}

func (s *Service) GetUserById(ctx context.Context, userId string) (*models.User, error) {
	return s.getUser(ctx, queryGetUserById, "user_id", userId)
}

// GetUserByEmail matches the email case-insensitively
func (s *Service) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.getUser(ctx, queryGetUserByEmail, "email", strings.TrimSpace(email))
}

func (s *Service) getUser(ctx context.Context, query, field, key string) (*models.User, error) {
	user, err := scanUser(s.db.QueryRowContext(ctx, query, key))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", store.ErrUserNotFound, key)
		}
		zap.L().Error("Failed to query user", zap.String(field, key), zap.Error(err))
		return nil, err
	}
	return user, nil
}

// CreateUser inserts a user. An existing email or id is an error.
func (s *Service) CreateUser(ctx context.Context, userId, name, email string) (*models.User, error) {
	name = strings.TrimSpace(name)
	email = strings.ToLower(strings.TrimSpace(email))
	if userId == "" || name == "" || email == "" {
		return nil, fmt.Errorf("%w: user id, name and email are required", store.ErrInvalidConfig)
	}

	result, err := s.db.ExecContext(ctx, queryInsertUser, userId, name, email)
	if err != nil {
		zap.L().Error("Failed to insert user", zap.String("email", email), zap.Error(err))
		return nil, fmt.Errorf("unable to insert user: %w", err)
	}

	// INSERT OR IGNORE reports a clash as zero affected rows
	if n, err := result.RowsAffected(); err != nil {
		return nil, fmt.Errorf("unable to get rows affected: %w", err)
	} else if n == 0 {
		return nil, fmt.Errorf("user with email %s or id %s already exists", email, userId)
	}

	zap.L().Info("User created", zap.String("user_id", userId), zap.String("email", email))
	return s.GetUserById(ctx, userId)
}

func scanUser(row rowScanner) (*models.User, error) {
	var user models.User
	if err := row.Scan(&user.Id, &user.Name, &user.Email, &user.CreatedAt, &user.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("unable to scan user row: %w", err)
	}
	return &user, nil
}

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

package common

import (
	"context"
	"fmt"

	"finance-etl-go/internal/store"

	"go.uber.org/zap"
)

// UserInfo represents simplified user information for command-line utilities
type UserInfo struct {
	Id    string
	Name  string
	Email string
}

// InitializeUsers resolves the users a command should act on. An email
// filter selects one user; no filter selects all of them.
func InitializeUsers(ctx context.Context, userStore store.UserStore, emailFilter string, logger *zap.Logger) ([]UserInfo, error) {
	var users []UserInfo

	if emailFilter != "" {
		logger.Info("Looking up user by email", zap.String("email", emailFilter))
		user, err := userStore.GetUserByEmail(ctx, emailFilter)
		if err != nil {
			return nil, fmt.Errorf("user not found: %w", err)
		}
		users = append(users, UserInfo{
			Id:    user.Id,
			Name:  user.Name,
			Email: user.Email,
		})
	} else {
		allUsers, err := userStore.GetUsers(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to get users: %w", err)
		}
		for _, u := range allUsers {
			users = append(users, UserInfo{
				Id:    u.Id,
				Name:  u.Name,
				Email: u.Email,
			})
		}
	}

	logger.Info("Retrieved users", zap.Int("count", len(users)))
	return users, nil
}

// ResolveUser finds one user by id or, failing that, by email
func ResolveUser(ctx context.Context, userStore store.UserStore, idOrEmail string) (*UserInfo, error) {
	if idOrEmail == "" {
		return nil, fmt.Errorf("%w: a user id or email is required", store.ErrInvalidConfig)
	}

	user, err := userStore.GetUserById(ctx, idOrEmail)
	if err != nil {
		user, err = userStore.GetUserByEmail(ctx, idOrEmail)
		if err != nil {
			return nil, fmt.Errorf("user not found: %w", err)
		}
	}
	return &UserInfo{Id: user.Id, Name: user.Name, Email: user.Email}, nil
}

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

package api

import (
	"context"
	"fmt"
	"time"

	"finance-etl-go/internal/aggregate"
	"finance-etl-go/internal/ingest"
	"finance-etl-go/internal/load"
	"finance-etl-go/internal/models"
	"finance-etl-go/internal/parsing"
	"finance-etl-go/internal/pipeline"
	"finance-etl-go/internal/store"
	"finance-etl-go/internal/transform"
)

// FinanceServiceConfig contains the services behind the facade
type FinanceServiceConfig struct {
	Store     store.Store
	Rules     *parsing.Rules
	Ingest    *ingest.Service
	Transform *transform.Service
	Load      *load.Service
	Aggregate *aggregate.Service
	Pipeline  *pipeline.Service
}

// FinanceService validates caller input and exposes the user-facing
// operations of the pipeline
type FinanceService struct {
	db        store.Store
	rules     *parsing.Rules
	ingest    *ingest.Service
	transform *transform.Service
	load      *load.Service
	aggregate *aggregate.Service
	pipeline  *pipeline.Service
	now       func() time.Time
}

func NewFinanceService(cfg FinanceServiceConfig) *FinanceService {
	rules := cfg.Rules
	if rules == nil {
		rules = parsing.DefaultRules()
	}
	return &FinanceService{
		db:        cfg.Store,
		rules:     rules,
		ingest:    cfg.Ingest,
		transform: cfg.Transform,
		load:      cfg.Load,
		aggregate: cfg.Aggregate,
		pipeline:  cfg.Pipeline,
		now:       time.Now,
	}
}

// HealthCheck reports the health of the whole system
func (s *FinanceService) HealthCheck(ctx context.Context) *models.HealthReport {
	return s.pipeline.GetHealthCheck(ctx)
}

// requireUser checks that the user id names a stored user
func (s *FinanceService) requireUser(ctx context.Context, userId string) error {
	if userId == "" {
		return fmt.Errorf("%w: user_id is required", store.ErrInvalidConfig)
	}
	if _, err := s.db.GetUserById(ctx, userId); err != nil {
		return fmt.Errorf("unknown user %s: %w", userId, err)
	}
	return nil
}

// requireAccount checks that a non-empty account id belongs to the user
func (s *FinanceService) requireAccount(ctx context.Context, userId, accountId string) error {
	if accountId == "" {
		return nil
	}
	_, err := s.GetAccountBalance(ctx, userId, accountId)
	return err
}

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

package ingest

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"finance-etl-go/internal/models"
	"finance-etl-go/internal/parsing"
	"finance-etl-go/internal/store"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/net/http2"
	"golang.org/x/time/rate"
)

const paymeEndpoint = "https://checkout.paycom.uz/api"

// Service pulls transactions from CSV, JSON APIs and webhooks and stores them
// unprocessed
type Service struct {
	store           store.TransactionStore
	httpClient      http.Client
	webhookLimiter  *rate.Limiter
	defaultCurrency string
	paymeURL        string
	now             func() time.Time
}

func NewService(txStore store.TransactionStore, cfg models.IngestConfig) (*Service, error) {
	if cfg.FetchTimeout <= 0 {
		return nil, fmt.Errorf("%w: fetch timeout must be positive, got %v", store.ErrInvalidConfig, cfg.FetchTimeout)
	}
	if cfg.WebhookRatePerSecond <= 0 || cfg.WebhookBurst <= 0 {
		return nil, fmt.Errorf("%w: webhook rate and burst must be positive", store.ErrInvalidConfig)
	}

	httpClient, err := createCustomHttpClient(cfg.FetchTimeout)
	if err != nil {
		return nil, fmt.Errorf("failed to create http client: %w", err)
	}

	currency := cfg.DefaultCurrency
	if currency == "" {
		currency = "UZS"
	}

	return &Service{
		store:           txStore,
		httpClient:      httpClient,
		webhookLimiter:  rate.NewLimiter(rate.Limit(cfg.WebhookRatePerSecond), cfg.WebhookBurst),
		defaultCurrency: currency,
		paymeURL:        paymeEndpoint,
		now:             time.Now,
	}, nil
}

// createCustomHttpClient bounds the whole request, headers included, by
// timeout
func createCustomHttpClient(timeout time.Duration) (http.Client, error) {
	tr := &http.Transport{
		ResponseHeaderTimeout: timeout,
		Proxy:                 http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			KeepAlive: 30 * time.Second,
			Timeout:   15 * time.Second,
		}).DialContext,
		MaxIdleConns:          10,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		MaxIdleConnsPerHost:   5,
		ExpectContinueTimeout: 5 * time.Second,
	}

	if err := http2.ConfigureTransport(tr); err != nil {
		return http.Client{}, err
	}

	return http.Client{
		Transport: tr,
		Timeout:   timeout,
	}, nil
}

// IngestFromCSV reads, standardizes and stores the rows of a CSV export.
// accountId is optional.
func (s *Service) IngestFromCSV(ctx context.Context, content []byte, userId, accountId string) (*models.IngestResult, error) {
	if userId == "" {
		return nil, fmt.Errorf("%w: user id is required", store.ErrInvalidConfig)
	}

	rows, err := ReadCSV(content)
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV: %w", err)
	}

	records := make([]models.StandardRecord, 0, len(rows))
	for _, row := range rows {
		records = append(records, ToStandardFormat(row, models.SourceCSV))
	}

	return s.persist(ctx, records, userId, accountId)
}

// persist stores standardized records as one atomic batch
func (s *Service) persist(ctx context.Context, records []models.StandardRecord, userId, accountId string) (*models.IngestResult, error) {
	today := parsing.Today(s.now())

	rows := make([]store.NewTransactionParams, 0, len(records))
	for _, r := range records {
		// Provisional values; transform re-derives them from the raw payload.
		amount, ok := parsing.ParseAmount(r.Amount)
		if !ok {
			amount = decimal.Zero
		}
		createdAt, ok := parsing.ParseDate(r.Date)
		if !ok {
			createdAt = today
		}

		rows = append(rows, store.NewTransactionParams{
			OwnerId:         userId,
			AccountId:       accountId,
			Amount:          amount,
			Currency:        s.defaultCurrency,
			Merchant:        strings.TrimSpace(r.Merchant),
			Category:        r.Category,
			Description:     strings.TrimSpace(r.Description),
			RawPayload:      r.RawPayload,
			TransactionHash: r.TransactionHash,
			ExternalId:      r.ExternalId,
			CreatedAt:       createdAt,
		})
	}

	batch, err := s.store.InsertRawBatch(ctx, rows)
	if err != nil {
		zap.L().Error("Ingest batch failed",
			zap.String("run_id", models.RunId(ctx)),
			zap.String("user_id", userId),
			zap.Error(err))
		return nil, fmt.Errorf("failed to save transactions: %w", err)
	}

	result := &models.IngestResult{
		Total:      len(records),
		Saved:      batch.Saved,
		Duplicates: batch.Duplicates,
		Errors:     batch.Errors,
	}
	if result.Errors == nil {
		result.Errors = []string{}
	}

	zap.L().Info("Ingest batch stored",
		zap.String("run_id", models.RunId(ctx)),
		zap.String("user_id", userId),
		zap.Int("total", result.Total),
		zap.Int("saved", result.Saved),
		zap.Int("duplicates", result.Duplicates),
		zap.Int("errors", len(result.Errors)))
	return result, nil
}

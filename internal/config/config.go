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

package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"finance-etl-go/internal/models"

	"github.com/shopspring/decimal"
)

func Load() (*models.Config, error) {
	connMaxLifetime, err := getEnvDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute)
	if err != nil {
		return nil, err
	}

	connMaxIdleTime, err := getEnvDuration("DB_CONN_MAX_IDLE_TIME", 30*time.Second)
	if err != nil {
		return nil, err
	}

	pingTimeout, err := getEnvDuration("DB_PING_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, err
	}

	fetchTimeout, err := getEnvDuration("API_FETCH_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, err
	}

	scheduleInterval, err := getEnvDuration("SCHEDULE_INTERVAL", 24*time.Hour)
	if err != nil {
		return nil, err
	}

	cacheTTL, err := getEnvDuration("DASHBOARD_CACHE_TTL", 15*time.Minute)
	if err != nil {
		return nil, err
	}

	largeCategory, err := getEnvDecimal("LARGE_CATEGORY_TOTAL", decimal.NewFromInt(1_000_000))
	if err != nil {
		return nil, err
	}

	webhookRate, err := getEnvFloat("WEBHOOK_RATE_PER_SECOND", 10)
	if err != nil {
		return nil, err
	}

	return &models.Config{
		Database: models.DatabaseConfig{
			Path:             getEnvString("DATABASE_PATH", "finance.db"),
			MaxOpenConns:     getEnvInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:     getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime:  connMaxLifetime,
			ConnMaxIdleTime:  connMaxIdleTime,
			PingTimeout:      pingTimeout,
			CreateDummyUsers: getEnvBool("CREATE_DUMMY_USERS", false),
		},
		Ingest: models.IngestConfig{
			FetchTimeout:         fetchTimeout,
			WebhookRatePerSecond: webhookRate,
			WebhookBurst:         getEnvInt("WEBHOOK_BURST", 30),
			DefaultCurrency:      getEnvString("DEFAULT_CURRENCY", "UZS"),
			RulesFile:            getEnvString("RULES_FILE", ""),
		},
		Pipeline: models.PipelineConfig{
			TransformBatchSize: getEnvInt("TRANSFORM_BATCH_SIZE", 100),
			BacklogThreshold:   getEnvInt("BACKLOG_THRESHOLD", 1000),
			ScheduleInterval:   scheduleInterval,
		},
		Analytics: models.AnalyticsConfig{
			DashboardCacheTTL:  cacheTTL,
			TrendMonths:        getEnvInt("TREND_MONTHS", 6),
			TopMerchantsLimit:  getEnvInt("TOP_MERCHANTS_LIMIT", 5),
			LargeCategoryTotal: largeCategory,
		},
	}, nil
}

func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	if value := os.Getenv(key); value != "" {
		duration, err := time.ParseDuration(value)
		if err != nil {
			return 0, fmt.Errorf("invalid duration for %s: %q (%w)", key, value, err)
		}
		return duration, nil
	}
	return defaultValue, nil
}

func getEnvDecimal(key string, defaultValue decimal.Decimal) (decimal.Decimal, error) {
	if value := os.Getenv(key); value != "" {
		d, err := decimal.NewFromString(value)
		if err != nil {
			return decimal.Zero, fmt.Errorf("invalid decimal for %s: %q (%w)", key, value, err)
		}
		return d, nil
	}
	return defaultValue, nil
}

func getEnvFloat(key string, defaultValue float64) (float64, error) {
	if value := os.Getenv(key); value != "" {
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid number for %s: %q (%w)", key, value, err)
		}
		return f, nil
	}
	return defaultValue, nil
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

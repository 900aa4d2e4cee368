package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Config represents the application configuration
type Config struct {
	Database  DatabaseConfig
	Ingest    IngestConfig
	Pipeline  PipelineConfig
	Analytics AnalyticsConfig
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Path             string
	MaxOpenConns     int
	MaxIdleConns     int
	ConnMaxLifetime  time.Duration
	ConnMaxIdleTime  time.Duration
	PingTimeout      time.Duration
	CreateDummyUsers bool
}

// IngestConfig holds source ingestion settings
type IngestConfig struct {
	FetchTimeout         time.Duration
	WebhookRatePerSecond float64
	WebhookBurst         int
	DefaultCurrency      string
	RulesFile            string
}

// PipelineConfig holds orchestrator settings
type PipelineConfig struct {
	TransformBatchSize int
	BacklogThreshold   int
	ScheduleInterval   time.Duration
}

// AnalyticsConfig holds aggregate/reporting settings
type AnalyticsConfig struct {
	DashboardCacheTTL  time.Duration
	TrendMonths        int
	TopMerchantsLimit  int
	LargeCategoryTotal decimal.Decimal
}

package common

import (
	"context"
	"fmt"
	"log"
	"strings"

	"finance-etl-go/internal/aggregate"
	"finance-etl-go/internal/api"
	"finance-etl-go/internal/database"
	"finance-etl-go/internal/ingest"
	"finance-etl-go/internal/load"
	"finance-etl-go/internal/models"
	"finance-etl-go/internal/parsing"
	"finance-etl-go/internal/pipeline"
	"finance-etl-go/internal/transform"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// init loads environment variables from .env file if it exists
func init() {
	// A missing .env is fine; variables may come from the shell or the container
	if err := godotenv.Load(); err != nil {
		log.Printf("Note: No .env file found or unable to load it: %v\n", err)
		log.Println("Make sure to set environment variables via export or other means")
	} else {
		log.Println("✓ Loaded environment variables from .env file")
	}
}

type Services struct {
	DbService        *database.Service
	Rules            *parsing.Rules
	IngestService    *ingest.Service
	TransformService *transform.Service
	LoadService      *load.Service
	AggregateService *aggregate.Service
	PipelineService  *pipeline.Service
	FinanceService   *api.FinanceService
}

func InitializeLogger() (*zap.Logger, func()) {
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	zap.ReplaceGlobals(logger)

	cleanup := func() {
		if err := logger.Sync(); err != nil {
			if !isIgnorableSyncError(err) {
				log.Printf("Failed to sync logger: %v\n", err)
			}
		}
	}

	return logger, cleanup
}

// InitializeServices opens the database and wires every pipeline stage
func InitializeServices(ctx context.Context, cfg *models.Config) (*Services, error) {
	dbService, err := database.NewService(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}

	rules := parsing.DefaultRules()
	if cfg.Ingest.RulesFile != "" {
		zap.L().Info("Loading categorization rules", zap.String("file", cfg.Ingest.RulesFile))
		rules, err = parsing.LoadRules(cfg.Ingest.RulesFile)
		if err != nil {
			dbService.Close()
			return nil, fmt.Errorf("failed to load rules: %w", err)
		}
	}

	ingestService, err := ingest.NewService(dbService, cfg.Ingest)
	if err != nil {
		dbService.Close()
		return nil, err
	}

	transformService := transform.NewService(dbService, rules, cfg.Pipeline.TransformBatchSize)
	loadService := load.NewService(dbService)
	aggregateService := aggregate.NewService(dbService, cfg.Analytics)

	pipelineService := pipeline.NewService(pipeline.ServiceConfig{
		Store:            dbService,
		Ingest:           ingestService,
		Transform:        transformService,
		Load:             loadService,
		Aggregate:        aggregateService,
		BacklogThreshold: cfg.Pipeline.BacklogThreshold,
	})

	financeService := api.NewFinanceService(api.FinanceServiceConfig{
		Store:     dbService,
		Rules:     rules,
		Ingest:    ingestService,
		Transform: transformService,
		Load:      loadService,
		Aggregate: aggregateService,
		Pipeline:  pipelineService,
	})

	zap.L().Info("Services initialized",
		zap.String("database", cfg.Database.Path),
		zap.Int("transform_batch_size", cfg.Pipeline.TransformBatchSize),
		zap.Int("backlog_threshold", cfg.Pipeline.BacklogThreshold))

	return &Services{
		DbService:        dbService,
		Rules:            rules,
		IngestService:    ingestService,
		TransformService: transformService,
		LoadService:      loadService,
		AggregateService: aggregateService,
		PipelineService:  pipelineService,
		FinanceService:   financeService,
	}, nil
}

// InitializeDatabaseOnly initializes just the database service
// Useful for read-only operations like querying balances
func InitializeDatabaseOnly(ctx context.Context, cfg *models.Config) (*database.Service, error) {
	dbService, err := database.NewService(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}
	return dbService, nil
}

func (cs *Services) Close() {
	if cs.DbService != nil {
		cs.DbService.Close()
	}
}

func isIgnorableSyncError(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "sync /dev/stderr: inappropriate ioctl for device") ||
		strings.Contains(msg, "sync /dev/stdout: inappropriate ioctl for device")
}

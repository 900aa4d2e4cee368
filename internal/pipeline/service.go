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

package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"finance-etl-go/internal/models"
	"finance-etl-go/internal/store"

	"github.com/google/uuid"
)

const (
	DefaultBacklogThreshold = 1000

	logStepPipeline = "pipeline"
)

// Ingester is the ingest stage
type Ingester interface {
	IngestFromCSV(ctx context.Context, content []byte, userId, accountId string) (*models.IngestResult, error)
	IngestFromAPI(ctx context.Context, userId, accountId string, cfg models.ApiConfig) (*models.IngestResult, error)
}

// Transformer is the transform stage
type Transformer interface {
	TransformAllUnprocessed(ctx context.Context, userId string) (*models.TransformResult, error)
}

// Loader is the load stage
type Loader interface {
	LoadProcessedData(ctx context.Context, userId string) (*models.LoadResult, error)
}

// Aggregator is the aggregate stage
type Aggregator interface {
	GetFinancialDashboard(ctx context.Context, userId string) (*models.Dashboard, error)
	Invalidate(userId string)
}

// Store is the storage the orchestrator queries directly for status,
// health and rollback
type Store interface {
	CountTransactions(ctx context.Context, ownerId string) (total int, unprocessed int, err error)
	CountAllUnprocessed(ctx context.Context) (int, error)
	ResetProcessed(ctx context.Context, ownerId string) (int64, error)
	ResetBalances(ctx context.Context, ownerId string) (int64, error)
	store.HealthChecker
}

// ServiceConfig contains the collaborators of the orchestrator
type ServiceConfig struct {
	Store            Store
	Ingest           Ingester
	Transform        Transformer
	Load             Loader
	Aggregate        Aggregator
	BacklogThreshold int
}

// Service runs the four stages for one user at a time
type Service struct {
	store     Store
	ingest    Ingester
	transform Transformer
	load      Loader
	aggregate Aggregator
	locker    *Locker

	backlogThreshold int
	now              func() time.Time
}

func NewService(cfg ServiceConfig) *Service {
	threshold := cfg.BacklogThreshold
	if threshold <= 0 {
		threshold = DefaultBacklogThreshold
	}
	return &Service{
		store:            cfg.Store,
		ingest:           cfg.Ingest,
		transform:        cfg.Transform,
		load:             cfg.Load,
		aggregate:        cfg.Aggregate,
		locker:           NewLocker(),
		backlogThreshold: threshold,
		now:              time.Now,
	}
}

func stepContext(ctx context.Context, userId string, step models.PipelineStep) context.Context {
	runId := models.RunId(ctx)
	if runId == "" {
		runId = uuid.NewString()
	}
	return models.WithRunContext(ctx, &models.RunContext{RunId: runId, UserId: userId, Step: step})
}

// WithUserLock runs fn while holding the user's run lock. It fails with
// ErrRunInProgress when a run for the user is already in progress.
func (s *Service) WithUserLock(userId string, fn func() error) error {
	if !s.locker.TryLock(userId) {
		return fmt.Errorf("%w: user %s", store.ErrRunInProgress, userId)
	}
	defer s.locker.Unlock(userId)
	return fn()
}

// lockedStep runs a single stage under the user's run lock. A busy user gets
// a cancelled result without the stage running.
func (s *Service) lockedStep(ctx context.Context, userId string, step models.PipelineStep, run func(context.Context) models.StepResult) models.StepResult {
	var result models.StepResult
	err := s.WithUserLock(userId, func() error {
		result = run(ctx)
		return nil
	})
	if err != nil {
		ctx = stepContext(ctx, userId, step)
		runLog := newRunLog(userId, models.RunId(ctx), s.now)
		runLog.Error(string(step), fmt.Sprintf("Step cancelled: %v", err))
		result = failedStep(step, err, runLog)
		result.Status = models.StatusCancelled
	}
	return result
}

// RunIngest ingests either CSV content or an API pull, whichever is supplied
func (s *Service) RunIngest(ctx context.Context, userId, accountId string, content []byte, apiCfg *models.ApiConfig) models.StepResult {
	return s.lockedStep(ctx, userId, models.StepIngest, func(ctx context.Context) models.StepResult {
		return s.runIngest(ctx, userId, accountId, content, apiCfg)
	})
}

func (s *Service) runIngest(ctx context.Context, userId, accountId string, content []byte, apiCfg *models.ApiConfig) models.StepResult {
	ctx = stepContext(ctx, userId, models.StepIngest)
	step := string(models.StepIngest)
	runLog := newRunLog(userId, models.RunId(ctx), s.now)
	runLog.Info(step, "Starting data ingestion...")

	result, err := s.ingestSource(ctx, runLog, userId, accountId, content, apiCfg)
	if err != nil {
		runLog.Error(step, fmt.Sprintf("Ingestion failed: %v", err))
		return failedStep(models.StepIngest, err, runLog)
	}

	runLog.Info(step, "Data ingestion completed successfully")
	return models.StepResult{
		Step:   models.StepIngest,
		Status: models.StatusCompleted,
		Ingest: result,
		Logs:   runLog.Entries(),
	}
}

func (s *Service) ingestSource(ctx context.Context, runLog *RunLog, userId, accountId string, content []byte, apiCfg *models.ApiConfig) (*models.IngestResult, error) {
	step := string(models.StepIngest)

	switch {
	case len(content) > 0:
		runLog.Info(step, "Processing CSV file...")
		result, err := s.ingest.IngestFromCSV(ctx, content, userId, accountId)
		if err != nil {
			return nil, err
		}
		runLog.Info(step, fmt.Sprintf("CSV processed: %d saved, %d duplicates", result.Saved, result.Duplicates))
		return result, nil

	case apiCfg != nil:
		apiType := apiCfg.Type
		if apiType == "" {
			apiType = "generic"
		}
		runLog.Info(step, fmt.Sprintf("Fetching data from %s API...", apiType))

		if accountId == "" {
			return nil, fmt.Errorf("%w: account id is required for API ingestion", store.ErrInvalidConfig)
		}
		if apiCfg.Url == "" {
			return nil, fmt.Errorf("%w: API url is required for API ingestion", store.ErrInvalidConfig)
		}

		result, err := s.ingest.IngestFromAPI(ctx, userId, accountId, *apiCfg)
		if err != nil {
			return nil, err
		}
		runLog.Info(step, fmt.Sprintf("API data processed: %d saved", result.Saved))
		return result, nil

	default:
		return nil, fmt.Errorf("%w: either file content or API config must be provided", store.ErrInvalidConfig)
	}
}

// RunTransform cleans every unprocessed transaction of the user
func (s *Service) RunTransform(ctx context.Context, userId string) models.StepResult {
	return s.lockedStep(ctx, userId, models.StepTransform, func(ctx context.Context) models.StepResult {
		return s.runTransform(ctx, userId)
	})
}

func (s *Service) runTransform(ctx context.Context, userId string) models.StepResult {
	ctx = stepContext(ctx, userId, models.StepTransform)
	step := string(models.StepTransform)
	runLog := newRunLog(userId, models.RunId(ctx), s.now)
	runLog.Info(step, "Starting data transformation...")

	result, err := s.transform.TransformAllUnprocessed(ctx, userId)
	if err != nil {
		runLog.Error(step, fmt.Sprintf("Transformation failed: %v", err))
		return failedStep(models.StepTransform, err, runLog)
	}

	runLog.Info(step, fmt.Sprintf("Transformation completed: %d/%d processed", result.Processed, result.Total))
	if result.Failed > 0 {
		runLog.Warn(step, fmt.Sprintf("%d transactions failed to transform", result.Failed))
	}

	return models.StepResult{
		Step:      models.StepTransform,
		Status:    models.StatusCompleted,
		Transform: result,
		Logs:      runLog.Entries(),
	}
}

// RunLoad rebuilds balances, validates and refreshes the stats snapshot.
// The user's cached dashboard is dropped once the load succeeds.
func (s *Service) RunLoad(ctx context.Context, userId string) models.StepResult {
	return s.lockedStep(ctx, userId, models.StepLoad, func(ctx context.Context) models.StepResult {
		return s.runLoad(ctx, userId)
	})
}

func (s *Service) runLoad(ctx context.Context, userId string) models.StepResult {
	ctx = stepContext(ctx, userId, models.StepLoad)
	step := string(models.StepLoad)
	runLog := newRunLog(userId, models.RunId(ctx), s.now)
	runLog.Info(step, "Starting data loading...")

	result, err := s.load.LoadProcessedData(ctx, userId)
	if err != nil {
		runLog.Error(step, fmt.Sprintf("Loading failed: %v", err))
		return failedStep(models.StepLoad, err, runLog)
	}
	s.aggregate.Invalidate(userId)

	runLog.Info(step, fmt.Sprintf("Data loading completed: %d accounts updated", result.AccountsUpdated))
	if !result.DataValid {
		runLog.Warn(step, "Data validation issues found")
	}
	if n := len(result.BalanceChanges); n > 0 {
		runLog.Info(step, fmt.Sprintf("%d account balances changed", n))
	}
	if n := len(result.BalanceIssues); n > 0 {
		runLog.Warn(step, fmt.Sprintf("%d account balances disagree with their transactions", n))
	}

	return models.StepResult{
		Step:   models.StepLoad,
		Status: models.StatusCompleted,
		Load:   result,
		Logs:   runLog.Entries(),
	}
}

// RunAggregate builds a fresh dashboard for the user
func (s *Service) RunAggregate(ctx context.Context, userId string) models.StepResult {
	return s.lockedStep(ctx, userId, models.StepAggregate, func(ctx context.Context) models.StepResult {
		return s.runAggregate(ctx, userId)
	})
}

func (s *Service) runAggregate(ctx context.Context, userId string) models.StepResult {
	ctx = stepContext(ctx, userId, models.StepAggregate)
	step := string(models.StepAggregate)
	runLog := newRunLog(userId, models.RunId(ctx), s.now)
	runLog.Info(step, "Starting data aggregation...")

	s.aggregate.Invalidate(userId)
	dashboard, err := s.aggregate.GetFinancialDashboard(ctx, userId)
	if err != nil {
		runLog.Error(step, fmt.Sprintf("Aggregation failed: %v", err))
		return failedStep(models.StepAggregate, err, runLog)
	}

	runLog.Info(step, fmt.Sprintf("Aggregation completed: %d insights generated", len(dashboard.Insights)))
	return models.StepResult{
		Step:      models.StepAggregate,
		Status:    models.StatusCompleted,
		Aggregate: dashboard,
		Logs:      runLog.Entries(),
	}
}

func failedStep(step models.PipelineStep, err error, runLog *RunLog) models.StepResult {
	return models.StepResult{
		Step:   step,
		Status: models.StatusFailed,
		Error:  err.Error(),
		Logs:   runLog.Entries(),
	}
}

var stepTitles = map[models.PipelineStep]string{
	models.StepIngest:    "Step 1: Ingestion",
	models.StepTransform: "Step 2: Transformation",
	models.StepLoad:      "Step 3: Loading",
	models.StepAggregate: "Step 4: Aggregation",
}

// RunPipeline runs the requested stages in order. It never returns an
// error: every outcome, including failures, is described by the result.
// A stage failure halts the remaining stages and keeps what already ran.
func (s *Service) RunPipeline(ctx context.Context, req models.RunRequest) *models.RunResult {
	runId := uuid.NewString()
	ctx = models.WithRunContext(ctx, &models.RunContext{RunId: runId, UserId: req.UserId})

	steps := req.Steps
	if len(steps) == 0 {
		steps = models.AllSteps()
	}
	names := make([]string, 0, len(steps))
	for _, step := range steps {
		names = append(names, string(step))
	}

	runLog := newRunLog(req.UserId, runId, s.now)
	runLog.Info(logStepPipeline, fmt.Sprintf("Starting ETL pipeline for user %s", req.UserId))
	runLog.Info(logStepPipeline, fmt.Sprintf("Steps to run: [%s]", strings.Join(names, ", ")))

	result := &models.RunResult{
		RunId:       runId,
		Status:      models.StatusRunning,
		UserId:      req.UserId,
		StepsRun:    steps,
		StepResults: []models.StepResult{},
	}

	if !s.locker.TryLock(req.UserId) {
		result.Status = models.StatusCancelled
		runLog.Error(logStepPipeline, fmt.Sprintf("ETL pipeline cancelled: %v", store.ErrRunInProgress))
		return s.finish(result, runLog)
	}
	defer s.locker.Unlock(req.UserId)

	for _, step := range models.AllSteps() {
		if !containsStep(steps, step) {
			continue
		}
		if err := ctx.Err(); err != nil {
			result.Status = models.StatusCancelled
			runLog.Warn(logStepPipeline, fmt.Sprintf("ETL pipeline cancelled before %s: %v", step, err))
			return s.finish(result, runLog)
		}

		var stepResult models.StepResult
		switch step {
		case models.StepIngest:
			if len(req.FileContent) == 0 && req.ApiConfig == nil {
				runLog.Info(logStepPipeline, "Skipping ingestion: no source data provided")
				continue
			}
			runLog.Info(logStepPipeline, stepTitles[step])
			stepResult = s.runIngest(ctx, req.UserId, req.AccountId, req.FileContent, req.ApiConfig)
		case models.StepTransform:
			runLog.Info(logStepPipeline, stepTitles[step])
			stepResult = s.runTransform(ctx, req.UserId)
		case models.StepLoad:
			runLog.Info(logStepPipeline, stepTitles[step])
			stepResult = s.runLoad(ctx, req.UserId)
		case models.StepAggregate:
			runLog.Info(logStepPipeline, stepTitles[step])
			stepResult = s.runAggregate(ctx, req.UserId)
		}
		result.StepResults = append(result.StepResults, stepResult)

		if stepResult.Status == models.StatusFailed {
			if err := ctx.Err(); err != nil {
				result.Status = models.StatusCancelled
				runLog.Warn(logStepPipeline, fmt.Sprintf("ETL pipeline cancelled during %s: %v", step, err))
				return s.finish(result, runLog)
			}
			result.Status = models.StatusFailed
			runLog.Error(logStepPipeline, fmt.Sprintf("ETL pipeline failed: %s failed: %s", step, stepResult.Error))
			return s.finish(result, runLog)
		}
	}

	result.Status = models.StatusCompleted
	runLog.Info(logStepPipeline, "ETL pipeline completed successfully")
	return s.finish(result, runLog)
}

func (s *Service) finish(result *models.RunResult, runLog *RunLog) *models.RunResult {
	result.Summary = runLog.Summary()
	result.TotalDuration = result.Summary.DurationSeconds
	return result
}

func containsStep(steps []models.PipelineStep, step models.PipelineStep) bool {
	for _, s := range steps {
		if s == step {
			return true
		}
	}
	return false
}

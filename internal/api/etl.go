package api

import (
	"context"
	"fmt"

	"finance-etl-go/internal/models"
	"finance-etl-go/internal/store"
)

// RunCSVPipeline runs ingest, transform, load and aggregate over a CSV
// export. Stage failures are reported in the result, not as an error.
func (s *FinanceService) RunCSVPipeline(ctx context.Context, userId, accountId string, content []byte) (*models.RunResult, error) {
	if err := s.requireUser(ctx, userId); err != nil {
		return nil, err
	}
	if len(content) == 0 {
		return nil, fmt.Errorf("%w: uploaded file is empty or unreadable", store.ErrInvalidConfig)
	}
	if err := s.requireAccount(ctx, userId, accountId); err != nil {
		return nil, err
	}

	return s.pipeline.RunPipeline(ctx, models.RunRequest{
		UserId:      userId,
		AccountId:   accountId,
		FileContent: content,
	}), nil
}

// RunAPIPipeline runs the full pipeline over an API pull
func (s *FinanceService) RunAPIPipeline(ctx context.Context, userId, accountId string, apiCfg models.ApiConfig) (*models.RunResult, error) {
	if err := s.requireUser(ctx, userId); err != nil {
		return nil, err
	}
	if err := s.requireAccount(ctx, userId, accountId); err != nil {
		return nil, err
	}

	return s.pipeline.RunPipeline(ctx, models.RunRequest{
		UserId:    userId,
		AccountId: accountId,
		ApiConfig: &apiCfg,
	}), nil
}

// RunSteps runs the named stages over data already stored
func (s *FinanceService) RunSteps(ctx context.Context, userId string, steps []models.PipelineStep) (*models.RunResult, error) {
	if err := s.requireUser(ctx, userId); err != nil {
		return nil, err
	}
	if len(steps) == 0 {
		return nil, fmt.Errorf("%w: at least one step is required", store.ErrInvalidConfig)
	}
	return s.pipeline.RunPipeline(ctx, models.RunRequest{UserId: userId, Steps: steps}), nil
}

func (s *FinanceService) TransformOnly(ctx context.Context, userId string) (models.StepResult, error) {
	if err := s.requireUser(ctx, userId); err != nil {
		return models.StepResult{}, err
	}
	return s.pipeline.RunTransform(ctx, userId), nil
}

func (s *FinanceService) LoadOnly(ctx context.Context, userId string) (models.StepResult, error) {
	if err := s.requireUser(ctx, userId); err != nil {
		return models.StepResult{}, err
	}
	return s.pipeline.RunLoad(ctx, userId), nil
}

func (s *FinanceService) AggregateOnly(ctx context.Context, userId string) (models.StepResult, error) {
	if err := s.requireUser(ctx, userId); err != nil {
		return models.StepResult{}, err
	}
	return s.pipeline.RunAggregate(ctx, userId), nil
}

// PipelineStatus reports whether the user's data needs a transform
func (s *FinanceService) PipelineStatus(ctx context.Context, userId string) (*models.StatusReport, error) {
	if err := s.requireUser(ctx, userId); err != nil {
		return nil, err
	}
	return s.pipeline.GetPipelineStatus(ctx, userId)
}

// Rollback undoes the transform or load stage for the user
func (s *FinanceService) Rollback(ctx context.Context, userId string, step models.PipelineStep) (*models.RollbackResult, error) {
	if err := s.requireUser(ctx, userId); err != nil {
		return nil, err
	}
	return s.pipeline.Rollback(ctx, userId, step)
}

// SchedulePipeline describes a recurring run for the user
func (s *FinanceService) SchedulePipeline(ctx context.Context, userId, scheduleType string) (*models.ScheduleConfig, error) {
	if err := s.requireUser(ctx, userId); err != nil {
		return nil, err
	}
	return s.pipeline.SchedulePipelineRun(userId, scheduleType)
}

package pipeline

import (
	"context"
	"fmt"

	"finance-etl-go/internal/models"
	"finance-etl-go/internal/store"

	"go.uber.org/zap"
)

const rollbackSuccess = "success"

// Rollback undoes the effect of one stage for the user. Transform rollback
// marks every transaction unprocessed; load rollback zeroes every account
// balance until the next load recomputes it. Ingest and aggregate cannot
// be rolled back.
func (s *Service) Rollback(ctx context.Context, userId string, step models.PipelineStep) (*models.RollbackResult, error) {
	if userId == "" {
		return nil, fmt.Errorf("%w: user id is required", store.ErrInvalidConfig)
	}
	if step != models.StepTransform && step != models.StepLoad {
		return nil, fmt.Errorf("%w: Rollback not supported for step: %s", store.ErrRollbackUnsupported, step)
	}

	if !s.locker.TryLock(userId) {
		return nil, fmt.Errorf("cannot roll back %s for user %s: %w", step, userId, store.ErrRunInProgress)
	}
	defer s.locker.Unlock(userId)

	zap.L().Info("Starting rollback", zap.String("user_id", userId), zap.String("step", string(step)))

	var (
		affected int64
		err      error
	)
	switch step {
	case models.StepTransform:
		affected, err = s.store.ResetProcessed(ctx, userId)
	case models.StepLoad:
		affected, err = s.store.ResetBalances(ctx, userId)
	}
	if err != nil {
		zap.L().Error("Rollback failed",
			zap.String("user_id", userId),
			zap.String("step", string(step)),
			zap.Error(err))
		return nil, fmt.Errorf("failed to roll back %s: %w", step, err)
	}
	s.aggregate.Invalidate(userId)

	result := &models.RollbackResult{
		Status:   rollbackSuccess,
		Step:     step,
		Message:  fmt.Sprintf("Rolled back %s step for user %s", step, userId),
		Affected: affected,
	}
	zap.L().Info(result.Message, zap.Int64("affected", affected))
	return result, nil
}

package pipeline

import (
	"context"
	"fmt"
	"math"

	"finance-etl-go/internal/models"
	"finance-etl-go/internal/store"
)

const (
	statusReady          = "ready"
	statusNeedsTransform = "needs_transform"
)

// GetPipelineStatus reports how much of the user's data still needs a
// transform. A user without transactions is fully processed.
func (s *Service) GetPipelineStatus(ctx context.Context, userId string) (*models.StatusReport, error) {
	if userId == "" {
		return nil, fmt.Errorf("%w: user id is required", store.ErrInvalidConfig)
	}

	total, unprocessed, err := s.store.CountTransactions(ctx, userId)
	if err != nil {
		return nil, fmt.Errorf("failed to count transactions: %w", err)
	}

	percentage := 100.0
	if total > 0 {
		percentage = math.Round(float64(total-unprocessed)/float64(total)*100*100) / 100
	}

	status := statusReady
	if unprocessed > 0 {
		status = statusNeedsTransform
	}

	return &models.StatusReport{
		UserId:                  userId,
		TotalTransactions:       total,
		UnprocessedTransactions: unprocessed,
		ProcessedTransactions:   total - unprocessed,
		ProcessingPercentage:    percentage,
		NeedsProcessing:         unprocessed > 0,
		Status:                  status,
	}, nil
}

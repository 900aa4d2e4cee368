package ingest

import (
	"context"
	"fmt"

	"finance-etl-go/internal/models"
	"finance-etl-go/internal/store"
)

// IngestWebhook stores a single pushed event. Calls are throttled by the
// service's rate limiter and block until a token is available or ctx ends.
func (s *Service) IngestWebhook(ctx context.Context, userId, accountId string, event models.WebhookEvent) (*models.IngestResult, error) {
	if userId == "" {
		return nil, fmt.Errorf("%w: user id is required", store.ErrInvalidConfig)
	}
	if len(event.Payload) == 0 {
		return nil, fmt.Errorf("%w: webhook payload is empty", store.ErrInvalidConfig)
	}

	if err := s.webhookLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("webhook throttled: %w", err)
	}

	record := ToStandardFormat(event.Payload, webhookSource(event.EventType))
	return s.persist(ctx, []models.StandardRecord{record}, userId, accountId)
}

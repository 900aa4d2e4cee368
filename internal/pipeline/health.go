package pipeline

import (
	"context"
	"fmt"

	"finance-etl-go/internal/models"

	"go.uber.org/zap"
)

// GetHealthCheck checks storage reachability, the schema and the
// system-wide unprocessed backlog. Each check runs even if an earlier one
// failed.
func (s *Service) GetHealthCheck(ctx context.Context) *models.HealthReport {
	report := &models.HealthReport{
		OverallStatus:   models.OverallHealthy,
		Checks:          []models.HealthCheck{},
		Recommendations: []string{},
		Timestamp:       s.now().UTC(),
	}

	if err := s.store.Ping(ctx); err != nil {
		report.Fail("database_connectivity", fmt.Sprintf("Database connection failed: %v", err))
	} else {
		report.Pass("database_connectivity", "Database connection successful")
	}

	if err := s.store.CheckTables(ctx); err != nil {
		report.Fail("table_structure", fmt.Sprintf("Table structure issue: %v", err))
	} else {
		report.Pass("table_structure", "All required tables exist")
	}

	// A backlog only warrants a warning, it never makes the system unhealthy
	unprocessed, err := s.store.CountAllUnprocessed(ctx)
	switch {
	case err != nil:
		report.Checks = append(report.Checks, models.HealthCheck{
			Name:    "data_quality",
			Status:  models.HealthFail,
			Message: fmt.Sprintf("Data quality check failed: %v", err),
		})
	case unprocessed > s.backlogThreshold:
		report.Checks = append(report.Checks, models.HealthCheck{
			Name:    "data_quality",
			Status:  models.HealthWarning,
			Message: fmt.Sprintf("High number of unprocessed transactions: %d", unprocessed),
		})
		report.Recommendations = append(report.Recommendations,
			"Consider running transform pipeline to process unprocessed transactions")
	default:
		report.Pass("data_quality", fmt.Sprintf("Low unprocessed transaction count: %d", unprocessed))
	}

	zap.L().Info("Health check complete",
		zap.String("overall_status", report.OverallStatus),
		zap.Int("checks", len(report.Checks)),
		zap.Int("recommendations", len(report.Recommendations)))
	return report
}

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"go.uber.org/zap"
)

func (s *Service) Ping(ctx context.Context) error {
	var one int
	if err := s.db.QueryRowContext(ctx, "SELECT 1").Scan(&one); err != nil {
		return err
	}
	return nil
}

// CheckTables returns an error naming the first missing table
func (s *Service) CheckTables(ctx context.Context) error {
	for _, table := range requiredTables {
		var name string
		err := s.db.QueryRowContext(ctx, queryTableExists, table).Scan(&name)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("missing table %s", table)
		}
		if err != nil {
			return fmt.Errorf("unable to inspect table %s: %w", table, err)
		}
	}
	return nil
}

// EnsureIndexes creates the read-path indexes if they do not exist
func (s *Service) EnsureIndexes(ctx context.Context) error {
	for _, stmt := range supportingIndexes {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			zap.L().Warn("Failed to create index", zap.String("statement", stmt), zap.Error(err))
			return fmt.Errorf("unable to create index: %w", err)
		}
	}
	zap.L().Debug("Supporting indexes ensured", zap.Int("count", len(supportingIndexes)))
	return nil
}

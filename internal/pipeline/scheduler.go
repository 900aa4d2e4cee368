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
	"errors"
	"fmt"
	"sync"
	"time"

	"finance-etl-go/internal/models"
	"finance-etl-go/internal/store"

	"go.uber.org/zap"
)

const (
	ScheduleDaily   = "daily"
	ScheduleWeekly  = "weekly"
	ScheduleMonthly = "monthly"
)

var scheduleIntervals = map[string]time.Duration{
	ScheduleDaily:   24 * time.Hour,
	ScheduleWeekly:  7 * 24 * time.Hour,
	ScheduleMonthly: 30 * 24 * time.Hour,
}

// ErrSchedulerStarted is returned when Start is called on a scheduler that
// already ran or was stopped
var ErrSchedulerStarted = errors.New("scheduler already started")

// SchedulePipelineRun describes a recurring transform/load/aggregate run
// for the user. The first run is due immediately.
func (s *Service) SchedulePipelineRun(userId, scheduleType string) (*models.ScheduleConfig, error) {
	if userId == "" {
		return nil, fmt.Errorf("%w: user id is required", store.ErrInvalidConfig)
	}
	if scheduleType == "" {
		scheduleType = ScheduleDaily
	}
	if _, ok := scheduleIntervals[scheduleType]; !ok {
		return nil, fmt.Errorf("%w: unknown schedule type %q", store.ErrInvalidConfig, scheduleType)
	}

	return &models.ScheduleConfig{
		UserId:       userId,
		ScheduleType: scheduleType,
		Enabled:      true,
		NextRun:      s.now().UTC(),
		Steps:        []models.PipelineStep{models.StepTransform, models.StepLoad, models.StepAggregate},
	}, nil
}

// SchedulerConfig contains configuration for Scheduler
type SchedulerConfig struct {
	Pipeline *Service
	Schedule models.ScheduleConfig
	// Interval overrides the period implied by the schedule type
	Interval time.Duration
}

// Scheduler runs a user's scheduled steps on a fixed period until stopped.
// Schedules live only in memory.
type Scheduler struct {
	pipeline *Service
	interval time.Duration

	mutex    sync.RWMutex
	schedule models.ScheduleConfig
	started  bool

	stopOnce sync.Once
	stopChan chan struct{}
	doneChan chan struct{}
}

func NewScheduler(cfg SchedulerConfig) (*Scheduler, error) {
	if cfg.Pipeline == nil {
		return nil, fmt.Errorf("%w: scheduler needs a pipeline", store.ErrInvalidConfig)
	}
	interval := cfg.Interval
	if interval <= 0 {
		var ok bool
		if interval, ok = scheduleIntervals[cfg.Schedule.ScheduleType]; !ok {
			return nil, fmt.Errorf("%w: unknown schedule type %q", store.ErrInvalidConfig, cfg.Schedule.ScheduleType)
		}
	}

	return &Scheduler{
		pipeline: cfg.Pipeline,
		interval: interval,
		schedule: cfg.Schedule,
		stopChan: make(chan struct{}),
		doneChan: make(chan struct{}),
	}, nil
}

// Start begins the run loop in the background. A scheduler starts at most
// once.
func (sc *Scheduler) Start(ctx context.Context) error {
	sc.mutex.Lock()
	if !sc.schedule.Enabled {
		sc.mutex.Unlock()
		return fmt.Errorf("%w: schedule for user %s is disabled", store.ErrInvalidConfig, sc.schedule.UserId)
	}
	if sc.started {
		sc.mutex.Unlock()
		return fmt.Errorf("%w: user %s", ErrSchedulerStarted, sc.schedule.UserId)
	}
	sc.started = true
	sc.mutex.Unlock()

	go sc.runLoop(ctx)

	zap.L().Info("Pipeline scheduler started",
		zap.String("user_id", sc.schedule.UserId),
		zap.String("schedule_type", sc.schedule.ScheduleType),
		zap.Duration("interval", sc.interval))
	return nil
}

// Stop gracefully stops the scheduler and waits for an in-flight run. A
// scheduler that never started is closed without waiting.
func (sc *Scheduler) Stop() {
	sc.stopOnce.Do(func() {
		sc.mutex.Lock()
		running := sc.started
		sc.started = true
		sc.mutex.Unlock()

		zap.L().Info("Stopping pipeline scheduler", zap.String("user_id", sc.schedule.UserId))
		close(sc.stopChan)
		if running {
			<-sc.doneChan
		} else {
			close(sc.doneChan)
		}
		zap.L().Info("Pipeline scheduler stopped", zap.String("user_id", sc.schedule.UserId))
	})
}

// Done is closed once the run loop has exited
func (sc *Scheduler) Done() <-chan struct{} {
	return sc.doneChan
}

// Config returns a snapshot of the schedule with its last and next run
func (sc *Scheduler) Config() models.ScheduleConfig {
	sc.mutex.RLock()
	defer sc.mutex.RUnlock()
	cfg := sc.schedule
	cfg.Steps = append([]models.PipelineStep(nil), sc.schedule.Steps...)
	return cfg
}

func (sc *Scheduler) runLoop(ctx context.Context) {
	defer close(sc.doneChan)

	ticker := time.NewTicker(sc.interval)
	defer ticker.Stop()

	sc.runOnce(ctx)

	for {
		select {
		case <-ticker.C:
			sc.runOnce(ctx)
		case <-sc.stopChan:
			return
		case <-ctx.Done():
			return
		}
	}
}

func (sc *Scheduler) runOnce(ctx context.Context) {
	cfg := sc.Config()

	result := sc.pipeline.RunPipeline(ctx, models.RunRequest{
		UserId: cfg.UserId,
		Steps:  cfg.Steps,
	})

	finished := sc.pipeline.now().UTC()
	sc.mutex.Lock()
	sc.schedule.LastRun = &finished
	sc.schedule.NextRun = finished.Add(sc.interval)
	sc.mutex.Unlock()

	if result.Status != models.StatusCompleted {
		zap.L().Warn("Scheduled pipeline run did not complete",
			zap.String("run_id", result.RunId),
			zap.String("user_id", cfg.UserId),
			zap.String("status", string(result.Status)))
		return
	}
	zap.L().Info("Scheduled pipeline run completed",
		zap.String("run_id", result.RunId),
		zap.String("user_id", cfg.UserId),
		zap.Float64("duration_seconds", result.TotalDuration))
}

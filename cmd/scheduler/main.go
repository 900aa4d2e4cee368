package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"finance-etl-go/internal/common"
	"finance-etl-go/internal/config"
	"finance-etl-go/internal/pipeline"

	"go.uber.org/zap"
)

func main() {
	emailFilter := flag.String("email", "", "Only schedule the user with this email (default: all users)")
	scheduleType := flag.String("schedule", "daily", "Schedule type: daily, weekly or monthly")
	intervalFlag := flag.Duration("interval", 0, "Override the schedule period (default: SCHEDULE_INTERVAL, then the schedule type)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		_, _ = zap.NewProduction()
		zap.L().Fatal("Failed to load configuration", zap.Error(err))
	}

	logger, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	zap.L().Info("Starting finance ETL scheduler", zap.String("schedule_type", *scheduleType))

	services, err := common.InitializeServices(ctx, cfg)
	if err != nil {
		zap.L().Fatal("Failed to initialize services", zap.Error(err))
	}
	defer services.Close()

	users, err := common.InitializeUsers(ctx, services.DbService, *emailFilter, logger)
	if err != nil {
		zap.L().Fatal("Failed to initialize users", zap.Error(err))
	}

	interval := *intervalFlag
	if interval <= 0 && *scheduleType == pipeline.ScheduleDaily {
		interval = cfg.Pipeline.ScheduleInterval
	}

	// One scheduler per user; runs of different users do not block each other
	schedulers := make([]*pipeline.Scheduler, 0, len(users))
	for _, user := range users {
		schedule, err := services.FinanceService.SchedulePipeline(ctx, user.Id, *scheduleType)
		if err != nil {
			zap.L().Fatal("Failed to create schedule", zap.String("user_id", user.Id), zap.Error(err))
		}

		sc, err := pipeline.NewScheduler(pipeline.SchedulerConfig{
			Pipeline: services.PipelineService,
			Schedule: *schedule,
			Interval: interval,
		})
		if err != nil {
			zap.L().Fatal("Failed to create scheduler", zap.String("user_id", user.Id), zap.Error(err))
		}

		if err := sc.Start(ctx); err != nil {
			zap.L().Error("Failed to start scheduler for user",
				zap.String("user_id", user.Id),
				zap.String("email", user.Email),
				zap.Error(err))
			continue
		}
		schedulers = append(schedulers, sc)
	}

	if len(schedulers) == 0 {
		zap.L().Fatal("No schedulers started successfully")
	}

	zap.L().Info("All schedulers running", zap.Int("active", len(schedulers)))
	zap.L().Info("Press Ctrl+C to stop")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	zap.L().Info("Shutdown signal received, stopping all schedulers...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	done := make(chan struct{})
	go func() {
		var wg sync.WaitGroup
		for _, sc := range schedulers {
			wg.Add(1)
			go func(sc *pipeline.Scheduler) {
				defer wg.Done()
				sc.Stop()
			}(sc)
		}
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		zap.L().Info("All schedulers stopped gracefully")
	case <-shutdownCtx.Done():
		// Cancelling the run context aborts in-flight stages
		cancel()
		zap.L().Warn("Forced shutdown after timeout")
	}
}

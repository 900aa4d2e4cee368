package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"finance-etl-go/internal/aggregate"
	"finance-etl-go/internal/database"
	"finance-etl-go/internal/ingest"
	"finance-etl-go/internal/load"
	"finance-etl-go/internal/models"
	"finance-etl-go/internal/store"
	"finance-etl-go/internal/transform"

	"github.com/shopspring/decimal"
)

const scenarioCSV = "date,amount,merchant\n2025-01-15,-50000,Starbucks\n2025-01-16,1000000,Salary\n"

func setupTestDb(t *testing.T) (*database.Service, func()) {
	ctx := context.Background()
	db, err := database.NewService(ctx, models.DatabaseConfig{
		Path:         ":memory:",
		MaxOpenConns: 1,
		MaxIdleConns: 1,
		PingTimeout:  time.Second,
	})
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	if _, err := db.CreateUser(ctx, "user1", "Test User", "test@example.com"); err != nil {
		t.Fatalf("Failed to create test user: %v", err)
	}
	return db, db.Close
}

func setupTestService(t *testing.T) (*Service, *database.Service, func()) {
	db, cleanup := setupTestDb(t)

	ingestService, err := ingest.NewService(db, models.IngestConfig{
		FetchTimeout:         time.Second,
		WebhookRatePerSecond: 1,
		WebhookBurst:         1,
	})
	if err != nil {
		t.Fatalf("Failed to create ingest service: %v", err)
	}

	service := NewService(ServiceConfig{
		Store:     db,
		Ingest:    ingestService,
		Transform: transform.NewService(db, nil, 100),
		Load:      load.NewService(db),
		Aggregate: aggregate.NewService(db, models.AnalyticsConfig{}),
	})
	return service, db, cleanup
}

// stubStages lets a test decide how each stage behaves
type stubStages struct {
	transformErr error
	calls        []string
}

func (s *stubStages) IngestFromCSV(ctx context.Context, content []byte, userId, accountId string) (*models.IngestResult, error) {
	s.calls = append(s.calls, "ingest")
	return &models.IngestResult{Total: 1, Saved: 1}, nil
}

func (s *stubStages) IngestFromAPI(ctx context.Context, userId, accountId string, cfg models.ApiConfig) (*models.IngestResult, error) {
	s.calls = append(s.calls, "ingest_api")
	return &models.IngestResult{Total: 3, Saved: 3}, nil
}

func (s *stubStages) TransformAllUnprocessed(ctx context.Context, userId string) (*models.TransformResult, error) {
	s.calls = append(s.calls, "transform")
	if s.transformErr != nil {
		return nil, s.transformErr
	}
	return &models.TransformResult{Total: 2, Processed: 1, Failed: 1}, nil
}

func (s *stubStages) LoadProcessedData(ctx context.Context, userId string) (*models.LoadResult, error) {
	s.calls = append(s.calls, "load")
	return &models.LoadResult{AccountsUpdated: 1, DataValid: true}, nil
}

func (s *stubStages) GetFinancialDashboard(ctx context.Context, userId string) (*models.Dashboard, error) {
	s.calls = append(s.calls, "aggregate")
	return &models.Dashboard{Insights: []models.Insight{{Type: "info"}}}, nil
}

func (s *stubStages) Invalidate(userId string) {
	s.calls = append(s.calls, "invalidate")
}

func setupStubService(t *testing.T, stages *stubStages) (*Service, func()) {
	db, cleanup := setupTestDb(t)
	return NewService(ServiceConfig{
		Store:     db,
		Ingest:    stages,
		Transform: stages,
		Load:      stages,
		Aggregate: stages,
	}), cleanup
}

func hasLog(logs []models.LogEntry, level, message string) bool {
	for _, entry := range logs {
		if entry.Level == level && strings.Contains(entry.Message, message) {
			return true
		}
	}
	return false
}

func TestRunPipeline_CSVEndToEnd(t *testing.T) {
	service, db, cleanup := setupTestService(t)
	defer cleanup()

	ctx := context.Background()
	account, err := db.CreateAccount(ctx, store.NewAccountParams{OwnerId: "user1", Name: "Uzum card", Provider: models.ProviderUzum})
	if err != nil {
		t.Fatalf("CreateAccount failed: %v", err)
	}

	result := service.RunPipeline(ctx, models.RunRequest{
		UserId:      "user1",
		AccountId:   account.Id,
		FileContent: []byte(scenarioCSV),
	})

	if result.Status != models.StatusCompleted {
		t.Fatalf("Expected completed, got %s: %+v", result.Status, result.Summary.Logs)
	}
	if result.RunId == "" || len(result.StepsRun) != 4 || len(result.StepResults) != 4 {
		t.Fatalf("Unexpected run shape: %+v", result)
	}

	ingestResult, _ := result.StepResult(models.StepIngest)
	if ingestResult.Ingest == nil || ingestResult.Ingest.Saved != 2 || ingestResult.Ingest.Duplicates != 0 {
		t.Errorf("Unexpected ingest result: %+v", ingestResult.Ingest)
	}
	if !hasLog(ingestResult.Logs, models.LevelInfo, "CSV processed: 2 saved, 0 duplicates") {
		t.Errorf("Missing ingest log line: %+v", ingestResult.Logs)
	}

	transformResult, _ := result.StepResult(models.StepTransform)
	if transformResult.Transform == nil || transformResult.Transform.Processed != 2 {
		t.Errorf("Unexpected transform result: %+v", transformResult.Transform)
	}

	loadResult, _ := result.StepResult(models.StepLoad)
	if loadResult.Load == nil || loadResult.Load.AccountsUpdated != 1 {
		t.Errorf("Unexpected load result: %+v", loadResult.Load)
	}
	// Fresh transactions move the balance without counting as drift
	for _, entry := range loadResult.Logs {
		if entry.Level == models.LevelWarning {
			t.Errorf("Unexpected warning from a clean load: %+v", entry)
		}
	}
	if !hasLog(loadResult.Logs, models.LevelInfo, "1 account balances changed") {
		t.Errorf("Expected the balance change to be logged: %+v", loadResult.Logs)
	}
	if loadResult.Load != nil && len(loadResult.Load.BalanceIssues) != 0 {
		t.Errorf("Expected no balance issues, got %+v", loadResult.Load.BalanceIssues)
	}

	aggregateResult, _ := result.StepResult(models.StepAggregate)
	if aggregateResult.Aggregate == nil {
		t.Error("Expected a dashboard from the aggregate stage")
	}

	stored, err := db.GetAccount(ctx, account.Id)
	if err != nil {
		t.Fatalf("GetAccount failed: %v", err)
	}
	if !stored.Balance.Equal(decimal.NewFromInt(950000)) {
		t.Errorf("Expected balance 950000, got %s", stored.Balance)
	}

	if !hasLog(result.Summary.Logs, models.LevelInfo, "Starting ETL pipeline for user user1") ||
		!hasLog(result.Summary.Logs, models.LevelInfo, "ETL pipeline completed successfully") {
		t.Errorf("Missing run log lines: %+v", result.Summary.Logs)
	}
	if result.Summary.TotalLogs != len(result.Summary.Logs) || result.TotalDuration < 0 {
		t.Errorf("Inconsistent summary: %+v", result.Summary)
	}

	// Re-running the same file stores nothing new
	again := service.RunPipeline(ctx, models.RunRequest{
		UserId:      "user1",
		AccountId:   account.Id,
		FileContent: []byte(scenarioCSV),
		Steps:       []models.PipelineStep{models.StepIngest},
	})
	rerun, _ := again.StepResult(models.StepIngest)
	if again.Status != models.StatusCompleted || rerun.Ingest == nil || rerun.Ingest.Saved != 0 || rerun.Ingest.Duplicates != 2 {
		t.Errorf("Expected 2 duplicates on re-ingest, got %+v", rerun.Ingest)
	}
}

func TestRunPipeline_StageFailureHaltsRun(t *testing.T) {
	stages := &stubStages{transformErr: errors.New("database is locked")}
	service, cleanup := setupStubService(t, stages)
	defer cleanup()

	result := service.RunPipeline(context.Background(), models.RunRequest{UserId: "user1"})

	if result.Status != models.StatusFailed {
		t.Fatalf("Expected failed, got %s", result.Status)
	}
	if strings.Join(stages.calls, ",") != "transform" {
		t.Errorf("Expected only transform to run, got %v", stages.calls)
	}
	if len(result.StepResults) != 1 {
		t.Fatalf("Expected the failed step to be kept, got %+v", result.StepResults)
	}

	failed := result.StepResults[0]
	if failed.Status != models.StatusFailed || failed.Error != "database is locked" {
		t.Errorf("Unexpected step result: %+v", failed)
	}
	if !hasLog(failed.Logs, models.LevelError, "Transformation failed: database is locked") {
		t.Errorf("Missing stage error log: %+v", failed.Logs)
	}
	if !hasLog(result.Summary.Logs, models.LevelInfo, "Skipping ingestion") ||
		!hasLog(result.Summary.Logs, models.LevelError, "ETL pipeline failed") {
		t.Errorf("Missing run log lines: %+v", result.Summary.Logs)
	}
}

func TestRunPipeline_StepSubsetRunsInOrder(t *testing.T) {
	stages := &stubStages{}
	service, cleanup := setupStubService(t, stages)
	defer cleanup()

	result := service.RunPipeline(context.Background(), models.RunRequest{
		UserId:    "user1",
		AccountId: "acc1",
		ApiConfig: &models.ApiConfig{Url: "https://example.test/tx"},
		Steps:     []models.PipelineStep{models.StepLoad, models.StepIngest},
	})

	if result.Status != models.StatusCompleted {
		t.Fatalf("Expected completed, got %s", result.Status)
	}
	if got := strings.Join(stages.calls, ","); got != "ingest_api,load,invalidate" {
		t.Errorf("Unexpected call order: %s", got)
	}

	transformResult := service.RunTransform(context.Background(), "user1")
	if !hasLog(transformResult.Logs, models.LevelWarning, "1 transactions failed to transform") {
		t.Errorf("Expected a warning for failed records: %+v", transformResult.Logs)
	}
}

func TestRunPipeline_RunInProgress(t *testing.T) {
	stages := &stubStages{}
	service, cleanup := setupStubService(t, stages)
	defer cleanup()

	if !service.locker.TryLock("user1") {
		t.Fatal("Expected to acquire the lock")
	}

	result := service.RunPipeline(context.Background(), models.RunRequest{UserId: "user1"})
	if result.Status != models.StatusCancelled || len(stages.calls) != 0 {
		t.Errorf("Expected a cancelled run with no stages, got %s %v", result.Status, stages.calls)
	}
	if !hasLog(result.Summary.Logs, models.LevelError, store.ErrRunInProgress.Error()) {
		t.Errorf("Expected the log to name the running pipeline: %+v", result.Summary.Logs)
	}

	if _, err := service.Rollback(context.Background(), "user1", models.StepLoad); !errors.Is(err, store.ErrRunInProgress) {
		t.Errorf("Expected ErrRunInProgress from rollback, got %v", err)
	}

	// Single stages are refused as well
	standalone := []models.StepResult{
		service.RunIngest(context.Background(), "user1", "", []byte(scenarioCSV), nil),
		service.RunTransform(context.Background(), "user1"),
		service.RunLoad(context.Background(), "user1"),
		service.RunAggregate(context.Background(), "user1"),
	}
	for _, stepResult := range standalone {
		if stepResult.Status != models.StatusCancelled || !strings.Contains(stepResult.Error, store.ErrRunInProgress.Error()) {
			t.Errorf("Expected %s to be cancelled while a run is in progress, got %s %q", stepResult.Step, stepResult.Status, stepResult.Error)
		}
	}
	if len(stages.calls) != 0 {
		t.Errorf("Expected no stage to run while locked, got %v", stages.calls)
	}
	if err := service.WithUserLock("user1", func() error { return nil }); !errors.Is(err, store.ErrRunInProgress) {
		t.Errorf("Expected ErrRunInProgress from WithUserLock, got %v", err)
	}

	// Other users are unaffected
	other := service.RunPipeline(context.Background(), models.RunRequest{UserId: "user2", Steps: []models.PipelineStep{models.StepLoad}})
	if other.Status != models.StatusCompleted {
		t.Errorf("Expected another user's run to complete, got %s", other.Status)
	}

	service.locker.Unlock("user1")
	if service.locker.IsProcessing("user1") {
		t.Error("Expected the lock to be released")
	}
	if result := service.RunTransform(context.Background(), "user1"); result.Status != models.StatusCompleted {
		t.Errorf("Expected the transform to run once unlocked, got %s", result.Status)
	}
	if service.locker.IsProcessing("user1") {
		t.Error("Expected a single stage to release the lock")
	}
}

func TestRunPipeline_CancelledContext(t *testing.T) {
	stages := &stubStages{}
	service, cleanup := setupStubService(t, stages)
	defer cleanup()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result := service.RunPipeline(ctx, models.RunRequest{UserId: "user1"})
	if result.Status != models.StatusCancelled || len(stages.calls) != 0 {
		t.Errorf("Expected a cancelled run with no stages, got %s %v", result.Status, stages.calls)
	}
	if service.locker.IsProcessing("user1") {
		t.Error("Expected the lock to be released after the run")
	}
}

func TestRunIngest_ConfigErrors(t *testing.T) {
	stages := &stubStages{}
	service, cleanup := setupStubService(t, stages)
	defer cleanup()

	ctx := context.Background()
	tests := []struct {
		name      string
		accountId string
		apiCfg    *models.ApiConfig
		message   string
	}{
		{"no source", "acc1", nil, "either file content or API config must be provided"},
		{"api without account", "", &models.ApiConfig{Url: "https://example.test"}, "account id is required"},
		{"api without url", "acc1", &models.ApiConfig{Type: "payme"}, "API url is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := service.RunIngest(ctx, "user1", tt.accountId, nil, tt.apiCfg)
			if result.Status != models.StatusFailed || !strings.Contains(result.Error, tt.message) {
				t.Errorf("Expected failure containing %q, got %+v", tt.message, result)
			}
			if !strings.Contains(result.Error, store.ErrInvalidConfig.Error()) {
				t.Errorf("Expected an invalid config error, got %q", result.Error)
			}
		})
	}
	if len(stages.calls) != 0 {
		t.Errorf("Expected no ingestion calls, got %v", stages.calls)
	}
}

func TestGetPipelineStatus(t *testing.T) {
	service, _, cleanup := setupTestService(t)
	defer cleanup()

	ctx := context.Background()
	status, err := service.GetPipelineStatus(ctx, "user1")
	if err != nil {
		t.Fatalf("GetPipelineStatus failed: %v", err)
	}
	if status.TotalTransactions != 0 || status.ProcessingPercentage != 100 || status.Status != "ready" {
		t.Errorf("Unexpected empty status: %+v", status)
	}

	if result := service.RunIngest(ctx, "user1", "", []byte(scenarioCSV), nil); result.Status != models.StatusCompleted {
		t.Fatalf("RunIngest failed: %s", result.Error)
	}

	status, err = service.GetPipelineStatus(ctx, "user1")
	if err != nil {
		t.Fatalf("GetPipelineStatus failed: %v", err)
	}
	if status.TotalTransactions != 2 || status.UnprocessedTransactions != 2 || status.ProcessedTransactions != 0 ||
		status.ProcessingPercentage != 0 || !status.NeedsProcessing || status.Status != "needs_transform" {
		t.Errorf("Unexpected status after ingest: %+v", status)
	}

	if result := service.RunTransform(ctx, "user1"); result.Status != models.StatusCompleted {
		t.Fatalf("RunTransform failed: %s", result.Error)
	}
	status, err = service.GetPipelineStatus(ctx, "user1")
	if err != nil {
		t.Fatalf("GetPipelineStatus failed: %v", err)
	}
	if status.ProcessingPercentage != 100 || status.NeedsProcessing || status.Status != "ready" {
		t.Errorf("Unexpected status after transform: %+v", status)
	}

	if _, err := service.GetPipelineStatus(ctx, ""); !errors.Is(err, store.ErrInvalidConfig) {
		t.Errorf("Expected ErrInvalidConfig, got %v", err)
	}
}

// failingHealth breaks every health check
type failingHealth struct {
	Store
}

func (failingHealth) Ping(ctx context.Context) error {
	return errors.New("connection refused")
}

func (failingHealth) CheckTables(ctx context.Context) error {
	return errors.New("no such table: accounts")
}

func (failingHealth) CountAllUnprocessed(ctx context.Context) (int, error) {
	return 0, errors.New("connection refused")
}

func TestGetHealthCheck(t *testing.T) {
	service, _, cleanup := setupTestService(t)
	defer cleanup()

	ctx := context.Background()
	report := service.GetHealthCheck(ctx)
	if report.OverallStatus != models.OverallHealthy || len(report.Checks) != 3 || len(report.Recommendations) != 0 {
		t.Fatalf("Unexpected healthy report: %+v", report)
	}
	for _, check := range report.Checks {
		if check.Status != models.HealthPass {
			t.Errorf("Expected %s to pass, got %+v", check.Name, check)
		}
	}

	// A backlog over the threshold is a warning, not a failure
	service.backlogThreshold = 1
	if result := service.RunIngest(ctx, "user1", "", []byte(scenarioCSV), nil); result.Status != models.StatusCompleted {
		t.Fatalf("RunIngest failed: %s", result.Error)
	}
	report = service.GetHealthCheck(ctx)
	if report.OverallStatus != models.OverallHealthy || report.Checks[2].Status != models.HealthWarning || len(report.Recommendations) != 1 {
		t.Errorf("Expected a backlog warning, got %+v", report)
	}
	if report.Checks[2].Message != "High number of unprocessed transactions: 2" {
		t.Errorf("Unexpected backlog message: %q", report.Checks[2].Message)
	}

	service.store = failingHealth{Store: service.store}
	report = service.GetHealthCheck(ctx)
	if report.OverallStatus != models.OverallUnhealthy {
		t.Errorf("Expected unhealthy, got %+v", report)
	}
	for _, check := range report.Checks {
		if check.Status != models.HealthFail {
			t.Errorf("Expected %s to fail, got %+v", check.Name, check)
		}
	}
}

func TestRollback(t *testing.T) {
	service, db, cleanup := setupTestService(t)
	defer cleanup()

	ctx := context.Background()
	account, err := db.CreateAccount(ctx, store.NewAccountParams{OwnerId: "user1", Name: "Cash"})
	if err != nil {
		t.Fatalf("CreateAccount failed: %v", err)
	}
	result := service.RunPipeline(ctx, models.RunRequest{UserId: "user1", AccountId: account.Id, FileContent: []byte(scenarioCSV)})
	if result.Status != models.StatusCompleted {
		t.Fatalf("RunPipeline failed: %+v", result.Summary.Logs)
	}

	rollback, err := service.Rollback(ctx, "user1", models.StepLoad)
	if err != nil {
		t.Fatalf("Rollback load failed: %v", err)
	}
	if rollback.Status != "success" || rollback.Message != "Rolled back load step for user user1" || rollback.Affected != 1 {
		t.Errorf("Unexpected load rollback: %+v", rollback)
	}
	stored, err := db.GetAccount(ctx, account.Id)
	if err != nil {
		t.Fatalf("GetAccount failed: %v", err)
	}
	if !stored.Balance.IsZero() {
		t.Errorf("Expected a zero balance after rollback, got %s", stored.Balance)
	}

	rollback, err = service.Rollback(ctx, "user1", models.StepTransform)
	if err != nil {
		t.Fatalf("Rollback transform failed: %v", err)
	}
	if rollback.Message != "Rolled back transform step for user user1" || rollback.Affected != 2 {
		t.Errorf("Unexpected transform rollback: %+v", rollback)
	}
	status, err := service.GetPipelineStatus(ctx, "user1")
	if err != nil {
		t.Fatalf("GetPipelineStatus failed: %v", err)
	}
	if status.UnprocessedTransactions != 2 {
		t.Errorf("Expected every transaction unprocessed, got %+v", status)
	}

	// The next load rebuilds the balance from scratch
	result = service.RunPipeline(ctx, models.RunRequest{UserId: "user1", Steps: []models.PipelineStep{models.StepTransform, models.StepLoad}})
	if result.Status != models.StatusCompleted {
		t.Fatalf("RunPipeline failed: %+v", result.Summary.Logs)
	}
	stored, err = db.GetAccount(ctx, account.Id)
	if err != nil {
		t.Fatalf("GetAccount failed: %v", err)
	}
	if !stored.Balance.Equal(decimal.NewFromInt(950000)) {
		t.Errorf("Expected the balance to be rebuilt, got %s", stored.Balance)
	}

	for _, step := range []models.PipelineStep{models.StepIngest, models.StepAggregate} {
		_, err := service.Rollback(ctx, "user1", step)
		if !errors.Is(err, store.ErrRollbackUnsupported) {
			t.Errorf("Expected ErrRollbackUnsupported for %s, got %v", step, err)
		}
		if err != nil && !strings.Contains(err.Error(), "Rollback not supported for step: "+string(step)) {
			t.Errorf("Unexpected message: %v", err)
		}
	}
}

func TestSchedulePipelineRun(t *testing.T) {
	stages := &stubStages{}
	service, cleanup := setupStubService(t, stages)
	defer cleanup()

	fixed := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)
	service.now = func() time.Time { return fixed }

	schedule, err := service.SchedulePipelineRun("user1", "")
	if err != nil {
		t.Fatalf("SchedulePipelineRun failed: %v", err)
	}
	if schedule.ScheduleType != ScheduleDaily || !schedule.Enabled || schedule.LastRun != nil || !schedule.NextRun.Equal(fixed) {
		t.Errorf("Unexpected schedule: %+v", schedule)
	}
	if len(schedule.Steps) != 3 || schedule.Steps[0] != models.StepTransform || schedule.Steps[2] != models.StepAggregate {
		t.Errorf("Unexpected steps: %v", schedule.Steps)
	}

	if _, err := service.SchedulePipelineRun("user1", "hourly"); !errors.Is(err, store.ErrInvalidConfig) {
		t.Errorf("Expected ErrInvalidConfig for an unknown schedule, got %v", err)
	}

	scheduler, err := NewScheduler(SchedulerConfig{Pipeline: service, Schedule: *schedule, Interval: time.Hour})
	if err != nil {
		t.Fatalf("NewScheduler failed: %v", err)
	}
	if err := scheduler.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	scheduler.Stop()
	scheduler.Stop()

	cfg := scheduler.Config()
	if cfg.LastRun == nil || !cfg.LastRun.Equal(fixed) || !cfg.NextRun.Equal(fixed.Add(time.Hour)) {
		t.Errorf("Expected one run to be recorded, got %+v", cfg)
	}
	if got := strings.Join(stages.calls, ","); got != "transform,load,invalidate,invalidate,aggregate" {
		t.Errorf("Unexpected scheduled calls: %s", got)
	}
}

func TestScheduler_StartStopGuards(t *testing.T) {
	stages := &stubStages{}
	service, cleanup := setupStubService(t, stages)
	defer cleanup()

	schedule, err := service.SchedulePipelineRun("user1", ScheduleWeekly)
	if err != nil {
		t.Fatalf("SchedulePipelineRun failed: %v", err)
	}

	// Stopping a scheduler that never started returns at once
	idle, err := NewScheduler(SchedulerConfig{Pipeline: service, Schedule: *schedule})
	if err != nil {
		t.Fatalf("NewScheduler failed: %v", err)
	}
	stopped := make(chan struct{})
	go func() {
		idle.Stop()
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("Stop without Start blocked")
	}
	select {
	case <-idle.Done():
	default:
		t.Error("Expected Done to be closed after Stop")
	}
	if err := idle.Start(context.Background()); !errors.Is(err, ErrSchedulerStarted) {
		t.Errorf("Expected ErrSchedulerStarted after Stop, got %v", err)
	}
	if len(stages.calls) != 0 {
		t.Errorf("Expected no runs from a stopped scheduler, got %v", stages.calls)
	}

	scheduler, err := NewScheduler(SchedulerConfig{Pipeline: service, Schedule: *schedule, Interval: time.Hour})
	if err != nil {
		t.Fatalf("NewScheduler failed: %v", err)
	}
	if err := scheduler.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if err := scheduler.Start(context.Background()); !errors.Is(err, ErrSchedulerStarted) {
		t.Errorf("Expected ErrSchedulerStarted on a second Start, got %v", err)
	}
	scheduler.Stop()

	disabled := *schedule
	disabled.Enabled = false
	off, err := NewScheduler(SchedulerConfig{Pipeline: service, Schedule: disabled})
	if err != nil {
		t.Fatalf("NewScheduler failed: %v", err)
	}
	if err := off.Start(context.Background()); !errors.Is(err, store.ErrInvalidConfig) {
		t.Errorf("Expected ErrInvalidConfig for a disabled schedule, got %v", err)
	}
	off.Stop()
}

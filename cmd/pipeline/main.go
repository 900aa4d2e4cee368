package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"finance-etl-go/internal/common"
	"finance-etl-go/internal/config"
	"finance-etl-go/internal/models"

	"go.uber.org/zap"
)

type headerFlags map[string]string

func (h headerFlags) String() string {
	parts := make([]string, 0, len(h))
	for k, v := range h {
		parts = append(parts, k+"="+v)
	}
	return strings.Join(parts, ",")
}

func (h headerFlags) Set(value string) error {
	key, val, ok := strings.Cut(value, "=")
	if !ok || key == "" {
		return fmt.Errorf("expected key=value, got %q", value)
	}
	h[key] = val
	return nil
}

func printStep(step models.StepResult) {
	fmt.Printf("\n┌─ %s: %s\n", step.Step, step.Status)
	switch {
	case step.Ingest != nil:
		fmt.Printf("│  rows: %d, saved: %d, duplicates: %d, errors: %d\n",
			step.Ingest.Total, step.Ingest.Saved, step.Ingest.Duplicates, len(step.Ingest.Errors))
	case step.Transform != nil:
		fmt.Printf("│  processed: %d/%d, failed: %d\n",
			step.Transform.Processed, step.Transform.Total, step.Transform.Failed)
	case step.Load != nil:
		fmt.Printf("│  accounts updated: %d, data valid: %t, warnings: %d\n",
			step.Load.AccountsUpdated, step.Load.DataValid, step.Load.WarningCount)
	case step.Aggregate != nil:
		fmt.Printf("│  income: %s, spending: %s, health: %s\n",
			step.Aggregate.Summary.TotalIncome.StringFixed(2),
			step.Aggregate.Summary.TotalSpending.StringFixed(2),
			step.Aggregate.Summary.FinancialHealth)
	}
	if step.Error != "" {
		fmt.Printf("│  error: %s\n", step.Error)
	}
	for i, entry := range step.Logs {
		fmt.Printf("%s [%s] %s\n", common.BoxPrefix(i == len(step.Logs)-1), entry.Level, entry.Message)
	}
}

func main() {
	_, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	userFlag := flag.String("user", "", "User id or email (required)")
	accountFlag := flag.String("account", "", "Account id the source data belongs to")
	fileFlag := flag.String("file", "", "CSV file to ingest")
	apiUrlFlag := flag.String("api-url", "", "JSON API to pull transactions from")
	apiTypeFlag := flag.String("api-type", "generic", "API type: generic, payme or click")
	stepsFlag := flag.String("steps", "", "Comma-separated steps to run (default: all)")
	jsonFlag := flag.Bool("json", false, "Print the run result as JSON")
	apiHeaders := headerFlags{}
	flag.Var(apiHeaders, "api-header", "API request header as key=value (repeatable)")
	flag.Parse()

	if *fileFlag != "" && *apiUrlFlag != "" {
		zap.L().Fatal("Use either --file or --api-url, not both")
	}

	steps, err := models.ParseSteps(*stepsFlag)
	if err != nil {
		zap.L().Fatal("Invalid steps", zap.Error(err))
	}

	cfg, err := config.Load()
	if err != nil {
		zap.L().Fatal("Failed to load config", zap.Error(err))
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	services, err := common.InitializeServices(ctx, cfg)
	if err != nil {
		zap.L().Fatal("Failed to initialize services", zap.Error(err))
	}
	defer services.Close()

	user, err := common.ResolveUser(ctx, services.DbService, *userFlag)
	if err != nil {
		zap.L().Fatal("Failed to resolve user", zap.Error(err))
	}

	req := models.RunRequest{
		UserId:    user.Id,
		AccountId: *accountFlag,
		Steps:     steps,
	}
	if *fileFlag != "" {
		content, err := os.ReadFile(*fileFlag)
		if err != nil {
			zap.L().Fatal("Failed to read CSV file", zap.String("file", *fileFlag), zap.Error(err))
		}
		req.FileContent = content
	}
	if *apiUrlFlag != "" {
		req.ApiConfig = &models.ApiConfig{
			Type:    *apiTypeFlag,
			Url:     *apiUrlFlag,
			Headers: apiHeaders,
		}
	}

	result := services.PipelineService.RunPipeline(ctx, req)

	if *jsonFlag {
		out, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			zap.L().Fatal("Failed to marshal run result", zap.Error(err))
		}
		fmt.Println(string(out))
	} else {
		common.PrintHeader(fmt.Sprintf("PIPELINE RUN %s (%s)", result.RunId, user.Email), common.WideWidth)
		for _, step := range result.StepResults {
			printStep(step)
		}
		common.PrintFooter(fmt.Sprintf("STATUS: %s in %.2fs", result.Status, result.TotalDuration), common.WideWidth)
	}

	if result.Status != models.StatusCompleted {
		services.Close()
		loggerCleanup()
		os.Exit(1)
	}
}

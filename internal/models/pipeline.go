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

package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// PipelineStatus is the state of a run or of a single stage
type PipelineStatus string

const (
	StatusPending   PipelineStatus = "pending"
	StatusRunning   PipelineStatus = "running"
	StatusCompleted PipelineStatus = "completed"
	StatusFailed    PipelineStatus = "failed"
	StatusCancelled PipelineStatus = "cancelled"
)

// PipelineStep names one of the four stages
type PipelineStep string

const (
	StepIngest    PipelineStep = "ingest"
	StepTransform PipelineStep = "transform"
	StepLoad      PipelineStep = "load"
	StepAggregate PipelineStep = "aggregate"
)

// AllSteps returns the stages in execution order
func AllSteps() []PipelineStep {
	return []PipelineStep{StepIngest, StepTransform, StepLoad, StepAggregate}
}

// ParseStep converts a user-supplied name into a PipelineStep
func ParseStep(name string) (PipelineStep, error) {
	switch step := PipelineStep(strings.ToLower(strings.TrimSpace(name))); step {
	case StepIngest, StepTransform, StepLoad, StepAggregate:
		return step, nil
	default:
		return "", fmt.Errorf("unknown pipeline step: %q", name)
	}
}

// ParseSteps parses a comma separated list such as "transform,load"
func ParseSteps(list string) ([]PipelineStep, error) {
	if strings.TrimSpace(list) == "" {
		return nil, nil
	}
	var steps []PipelineStep
	for _, part := range strings.Split(list, ",") {
		step, err := ParseStep(part)
		if err != nil {
			return nil, err
		}
		steps = append(steps, step)
	}
	return steps, nil
}

// Log levels used in run logs
const (
	LevelInfo    = "info"
	LevelWarning = "warning"
	LevelError   = "error"
)

// LogEntry is one line of a run log
type LogEntry struct {
	Timestamp      time.Time `json:"timestamp"`
	Step           string    `json:"step"`
	Message        string    `json:"message"`
	Level          string    `json:"level"`
	ElapsedSeconds float64   `json:"elapsed_seconds"`
}

// StepResult is the outcome of a single stage. Exactly one of the typed
// result fields is set when Status is completed.
type StepResult struct {
	Step      PipelineStep     `json:"step"`
	Status    PipelineStatus   `json:"status"`
	Ingest    *IngestResult    `json:"ingest,omitempty"`
	Transform *TransformResult `json:"transform,omitempty"`
	Load      *LoadResult      `json:"load,omitempty"`
	Aggregate *Dashboard       `json:"aggregate,omitempty"`
	Error     string           `json:"error,omitempty"`
	Logs      []LogEntry       `json:"logs"`
}

// RunRequest describes one pipeline run
type RunRequest struct {
	UserId      string
	AccountId   string
	FileContent []byte
	ApiConfig   *ApiConfig
	Steps       []PipelineStep // nil means all four
}

// RunSummary wraps the run-level log
type RunSummary struct {
	UserId          string     `json:"user_id"`
	StartTime       time.Time  `json:"start_time"`
	EndTime         time.Time  `json:"end_time"`
	DurationSeconds float64    `json:"duration_seconds"`
	TotalLogs       int        `json:"total_logs"`
	Logs            []LogEntry `json:"logs"`
}

// RunResult is returned for every full run, successful or not
type RunResult struct {
	RunId         string         `json:"run_id"`
	Status        PipelineStatus `json:"status"`
	UserId        string         `json:"user_id"`
	StepsRun      []PipelineStep `json:"steps_run"`
	StepResults   []StepResult   `json:"step_results"`
	Summary       RunSummary     `json:"pipeline_summary"`
	TotalDuration float64        `json:"total_duration"`
}

// StepResult returns the recorded result for step, if the step ran
func (r *RunResult) StepResult(step PipelineStep) (StepResult, bool) {
	for _, sr := range r.StepResults {
		if sr.Step == step {
			return sr, true
		}
	}
	return StepResult{}, false
}

// StatusReport answers "does this user need a transform"
type StatusReport struct {
	UserId                  string  `json:"user_id"`
	TotalTransactions       int     `json:"total_transactions"`
	UnprocessedTransactions int     `json:"unprocessed_transactions"`
	ProcessedTransactions   int     `json:"processed_transactions"`
	ProcessingPercentage    float64 `json:"processing_percentage"`
	NeedsProcessing         bool    `json:"needs_processing"`
	Status                  string  `json:"status"`
}

// Health check values
const (
	HealthPass    = "pass"
	HealthWarning = "warning"
	HealthFail    = "fail"

	OverallHealthy   = "healthy"
	OverallUnhealthy = "unhealthy"
)

// HealthCheck is one named check
type HealthCheck struct {
	Name    string `json:"name"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

// HealthReport is the system-wide health summary
type HealthReport struct {
	OverallStatus   string        `json:"overall_status"`
	Checks          []HealthCheck `json:"checks"`
	Recommendations []string      `json:"recommendations"`
	Timestamp       time.Time     `json:"timestamp"`
}

// Pass records a passing check
func (r *HealthReport) Pass(name, message string) {
	r.Checks = append(r.Checks, HealthCheck{Name: name, Status: HealthPass, Message: message})
}

// Fail records a failing check and marks the system unhealthy
func (r *HealthReport) Fail(name, message string) {
	r.Checks = append(r.Checks, HealthCheck{Name: name, Status: HealthFail, Message: message})
	r.OverallStatus = OverallUnhealthy
}

// RollbackResult reports a successful rollback
type RollbackResult struct {
	Status   string       `json:"status"`
	Step     PipelineStep `json:"step"`
	Message  string       `json:"message"`
	Affected int64        `json:"affected"`
}

// ScheduleConfig describes a recurring run for one user
type ScheduleConfig struct {
	UserId       string         `json:"user_id"`
	ScheduleType string         `json:"schedule_type"`
	Enabled      bool           `json:"enabled"`
	LastRun      *time.Time     `json:"last_run"`
	NextRun      time.Time      `json:"next_run"`
	Steps        []PipelineStep `json:"steps_to_run"`
}

// TransformResult summarizes a transform batch
type TransformResult struct {
	Total     int      `json:"total"`
	Processed int      `json:"processed"`
	Failed    int      `json:"failed"`
	Skipped   int      `json:"skipped"`
	Errors    []string `json:"errors,omitempty"`
}

// BalanceIssue records a stored balance that differs from the recomputed one
type BalanceIssue struct {
	AccountId         string          `json:"account_id"`
	AccountName       string          `json:"account_name"`
	StoredBalance     decimal.Decimal `json:"stored_balance"`
	CalculatedBalance decimal.Decimal `json:"calculated_balance"`
	Difference        decimal.Decimal `json:"difference"`
}

// ValidationReport is the result of validating one transaction
type ValidationReport struct {
	Valid    bool     `json:"valid"`
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

// UserValidationReport aggregates validation over all of a user's data
type UserValidationReport struct {
	TotalTransactions   int            `json:"total_transactions"`
	ValidTransactions   int            `json:"valid_transactions"`
	InvalidTransactions int            `json:"invalid_transactions"`
	Warnings            []string       `json:"warnings"`
	CommonErrors        map[string]int `json:"common_errors"`
	BalanceIssues       []BalanceIssue `json:"balance_issues"`
}

// LoadResult summarizes a load stage
type LoadResult struct {
	AccountsUpdated int            `json:"accounts_updated"`
	AccountsFailed  int            `json:"accounts_failed"`
	DataValid       bool           `json:"data_valid"`
	IssuesFound     map[string]int `json:"issues_found"`
	WarningCount    int            `json:"warning_count"`
	BalanceChanges  []BalanceIssue `json:"balance_changes"`
	BalanceIssues   []BalanceIssue `json:"balance_issues"`
	Stats           *UserStats     `json:"stats,omitempty"`
}

// AccountSummary is the per-account overview
type AccountSummary struct {
	AccountId             string          `json:"account_id"`
	AccountName           string          `json:"account_name"`
	Provider              string          `json:"provider"`
	Currency              string          `json:"currency"`
	Balance               decimal.Decimal `json:"balance"`
	TotalTransactions     int             `json:"total_transactions"`
	RecentTransactions30d int             `json:"recent_transactions_30d"`
	LastUpdated           time.Time       `json:"last_updated"`
}

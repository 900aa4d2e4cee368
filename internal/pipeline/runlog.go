package pipeline

import (
	"time"

	"finance-etl-go/internal/models"

	"go.uber.org/zap"
)

// RunLog accumulates the timestamped entries of one stage or one run.
// Each stage call owns its own RunLog and hands the entries back in its
// result, so concurrent runs never share log state.
type RunLog struct {
	userId  string
	runId   string
	start   time.Time
	entries []models.LogEntry
	now     func() time.Time
}

func newRunLog(userId, runId string, now func() time.Time) *RunLog {
	return &RunLog{
		userId:  userId,
		runId:   runId,
		start:   now(),
		entries: []models.LogEntry{},
		now:     now,
	}
}

func (l *RunLog) Info(step, message string) {
	l.add(step, message, models.LevelInfo)
}

func (l *RunLog) Warn(step, message string) {
	l.add(step, message, models.LevelWarning)
}

func (l *RunLog) Error(step, message string) {
	l.add(step, message, models.LevelError)
}

func (l *RunLog) add(step, message, level string) {
	at := l.now()
	l.entries = append(l.entries, models.LogEntry{
		Timestamp:      at,
		Step:           step,
		Message:        message,
		Level:          level,
		ElapsedSeconds: at.Sub(l.start).Seconds(),
	})

	fields := []zap.Field{
		zap.String("run_id", l.runId),
		zap.String("user_id", l.userId),
		zap.String("step", step),
	}
	switch level {
	case models.LevelError:
		zap.L().Error(message, fields...)
	case models.LevelWarning:
		zap.L().Warn(message, fields...)
	default:
		zap.L().Info(message, fields...)
	}
}

// Entries returns a copy of the accumulated entries
func (l *RunLog) Entries() []models.LogEntry {
	out := make([]models.LogEntry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Summary closes the log and reports its duration
func (l *RunLog) Summary() models.RunSummary {
	end := l.now()
	return models.RunSummary{
		UserId:          l.userId,
		StartTime:       l.start,
		EndTime:         end,
		DurationSeconds: end.Sub(l.start).Seconds(),
		TotalLogs:       len(l.entries),
		Logs:            l.Entries(),
	}
}

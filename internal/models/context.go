package models

import (
	"context"
)

type runContextKey struct{}

// RunContext carries the identity of the pipeline run through context so
// stage services can tag their log lines without changing their signatures.
type RunContext struct {
	RunId  string
	UserId string
	Step   PipelineStep
}

// WithRunContext attaches run identity to a context.
func WithRunContext(ctx context.Context, rc *RunContext) context.Context {
	return context.WithValue(ctx, runContextKey{}, rc)
}

// GetRunContext retrieves run identity from context, or nil if absent.
func GetRunContext(ctx context.Context) *RunContext {
	rc, _ := ctx.Value(runContextKey{}).(*RunContext)
	return rc
}

// RunId returns the run id stored in ctx, or "" outside a run.
func RunId(ctx context.Context) string {
	if rc := GetRunContext(ctx); rc != nil {
		return rc.RunId
	}
	return ""
}

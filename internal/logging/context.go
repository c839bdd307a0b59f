package logging

import (
	"context"
	"log/slog"

	"subgen/internal/services"
)

// ContextFields returns the job, stage, and batch correlation fields carried
// by ctx.
func ContextFields(ctx context.Context) []Attr {
	if ctx == nil {
		return nil
	}
	var fields []Attr
	add := func(key string, value string, ok bool) {
		if ok && value != "" {
			fields = append(fields, slog.String(key, value))
		}
	}
	id, ok := services.JobIDFromContext(ctx)
	add(FieldJobID, id, ok)
	stage, ok := services.StageFromContext(ctx)
	add(FieldStage, stage, ok)
	rid, ok := services.RequestIDFromContext(ctx)
	add(FieldCorrelationID, rid, ok)
	return fields
}

// WithContext returns logger annotated with ContextFields(ctx).
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	if fields := ContextFields(ctx); len(fields) > 0 {
		return logger.With(Args(fields...)...)
	}
	return logger
}

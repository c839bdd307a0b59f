package catalog

import (
	"context"
	"errors"
	"fmt"

	"subgen/internal/pipeline"
)

// BatchRunner processes files in order. *pipeline.Processor satisfies it.
type BatchRunner interface {
	RunBatch(ctx context.Context, sources []string, opts pipeline.BatchOptions) pipeline.Summary
}

// Run transcribes up to limit pending entries, shortest first, and records
// each outcome as it finishes so an interrupted run resumes where it
// stopped. limit <= 0 processes every pending entry.
func Run(ctx context.Context, store *Store, runner BatchRunner, limit int, opts pipeline.BatchOptions) (pipeline.Summary, error) {
	entries, err := store.Pending(ctx, limit)
	if err != nil {
		return pipeline.Summary{}, err
	}
	sources := make([]string, 0, len(entries))
	for _, e := range entries {
		sources = append(sources, e.Path)
	}
	if len(sources) == 0 {
		return pipeline.Summary{}, nil
	}

	var markErrs []error
	next := opts.OnResult
	opts.OnResult = func(r pipeline.Result) {
		if err := Record(context.WithoutCancel(ctx), store, r); err != nil {
			markErrs = append(markErrs, err)
		}
		if next != nil {
			next(r)
		}
	}
	summary := runner.RunBatch(ctx, sources, opts)
	if len(markErrs) > 0 {
		return summary, fmt.Errorf("update catalog: %w", errors.Join(markErrs...))
	}
	return summary, nil
}

// Record stores one pipeline result against its catalog entry.
func Record(ctx context.Context, store *Store, r pipeline.Result) error {
	switch r.Status {
	case pipeline.StatusSucceeded:
		return store.MarkDone(ctx, r.Source, r.OutputPath)
	case pipeline.StatusSkipped:
		return store.MarkSkipped(ctx, r.Source, r.OutputPath)
	case pipeline.StatusInterrupted:
		// Left pending for the next run.
		return nil
	default:
		return store.MarkFailed(ctx, r.Source, r.Err)
	}
}

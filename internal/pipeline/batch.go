package pipeline

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"subgen/internal/logging"
	"subgen/internal/services"
)

// BatchOptions tunes RunBatch.
type BatchOptions struct {
	// Stop, when closed, ends the batch after the file in progress.
	Stop <-chan struct{}
	// OnStart is called before each file.
	OnStart func(index, total int, source string)
	// OnResult receives each finished file's result.
	OnResult func(Result)
}

// Summary counts batch outcomes. Interrupted counts files aborted by
// cancellation plus files never started.
type Summary struct {
	Succeeded   int
	Skipped     int
	Failed      int
	Interrupted int
	Results     []Result
}

// Total returns the number of inputs the batch was given.
func (s Summary) Total() int {
	return s.Succeeded + s.Skipped + s.Failed + s.Interrupted
}

// Err returns a non-nil error when any file failed or the batch stopped
// early. Skipped files count as success.
func (s Summary) Err() error {
	switch {
	case s.Failed > 0 && s.Interrupted > 0:
		return fmt.Errorf("%d of %d files failed; %d not processed: %w", s.Failed, s.Total(), s.Interrupted, context.Canceled)
	case s.Failed > 0:
		return fmt.Errorf("%d of %d files failed", s.Failed, s.Total())
	case s.Interrupted > 0:
		return fmt.Errorf("interrupted; %d of %d files not processed: %w", s.Interrupted, s.Total(), context.Canceled)
	}
	return nil
}

// RunBatch processes sources strictly in order. A failure never stops the
// batch; only Stop or ctx cancellation does, and then the remaining files
// count as interrupted.
func (p *Processor) RunBatch(ctx context.Context, sources []string, opts BatchOptions) Summary {
	ctx = services.WithRequestID(ctx, uuid.NewString())
	logger := logging.WithContext(ctx, p.logger)
	summary := Summary{Results: make([]Result, 0, len(sources))}

	for i, source := range sources {
		if stopRequested(ctx, opts.Stop) {
			summary.Interrupted += len(sources) - i
			logging.WarnWithContext(logger, "batch stopped before completion", "batch_interrupted",
				logging.Int("remaining", len(sources)-i),
				logging.String(logging.FieldErrorHint, "rerun the same command; finished files are skipped"),
				logging.String(logging.FieldImpact, "remaining files left without subtitles"),
			)
			break
		}
		if opts.OnStart != nil {
			opts.OnStart(i, len(sources), source)
		}

		result := p.Process(ctx, source)
		switch result.Status {
		case StatusSucceeded:
			summary.Succeeded++
		case StatusSkipped:
			summary.Skipped++
		case StatusInterrupted:
			summary.Interrupted++
		default:
			summary.Failed++
		}
		summary.Results = append(summary.Results, result)
		if opts.OnResult != nil {
			opts.OnResult(result)
		}
	}

	logger.Info("batch complete",
		logging.String(logging.FieldEventType, "batch_complete"),
		logging.Int("succeeded", summary.Succeeded),
		logging.Int("skipped", summary.Skipped),
		logging.Int("failed", summary.Failed),
		logging.Int("interrupted", summary.Interrupted),
	)
	return summary
}

func stopRequested(ctx context.Context, stop <-chan struct{}) bool {
	if ctx.Err() != nil {
		return true
	}
	if stop == nil {
		return false
	}
	select {
	case <-stop:
		return true
	default:
		return false
	}
}

package main

import (
	"context"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"subgen/internal/config"
	"subgen/internal/logging"
	"subgen/internal/pipeline"
	"subgen/internal/preflight"
)

// staleWorkDirAge is how old an orphaned job directory must be before a new
// run deletes it.
const staleWorkDirAge = 24 * time.Hour

func newTranscribeCommand(ctx *commandContext) *cobra.Command {
	var overrides runOverrides

	cmd := &cobra.Command{
		Use:   "transcribe <media>...",
		Short: "Transcribe media files into subtitles",
		Long: `Transcribe each media file in order. Every file is processed independently;
a failure is reported and the batch continues. The exit status is non-zero
when any file failed or the batch was interrupted.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			base, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			cfg, err := overrides.apply(cmd, *base)
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			return executeBatch(cmd, &cfg, logger, len(args),
				func(runCtx context.Context, p *pipeline.Processor, opts pipeline.BatchOptions) (pipeline.Summary, error) {
					return p.RunBatch(runCtx, args, opts), nil
				})
		},
	}
	overrides.register(cmd)
	return cmd
}

type batchFunc func(ctx context.Context, p *pipeline.Processor, opts pipeline.BatchOptions) (pipeline.Summary, error)

// executeBatch runs preflight, wires the processor, and reports each result.
func executeBatch(cmd *cobra.Command, cfg *config.Config, logger *slog.Logger, total int, run batchFunc) error {
	if err := preflight.Failures(preflight.RunAll(cmd.Context(), cfg)); err != nil {
		return err
	}
	pipeline.CleanStale(cfg.Paths.WorkDir, staleWorkDirAge, logger)

	processor, closeEngine, err := buildProcessor(cfg, logger)
	if err != nil {
		return err
	}
	defer closeEngine()

	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	runCtx, interrupts := newInterruptHandler(parent, cmd.ErrOrStderr())
	defer interrupts.Close()

	logger.Debug("batch configuration",
		logging.String(logging.FieldEventType, "batch_config"),
		logging.String("backend", cfg.Recognizer.Backend),
		logging.String("model", cfg.Recognizer.Model),
		logging.String("mode", cfg.Output.Mode),
		logging.String("format", cfg.Output.Format),
		logging.String("on_conflict", cfg.Output.OnConflict),
		logging.Int("files", total),
	)

	reporter := newBatchReporter(cmd.OutOrStdout(), cmd.ErrOrStderr(), total)
	summary, err := run(runCtx, processor, reporter.batchOptions(interrupts.Stop()))
	reporter.finish(summary)
	if err != nil {
		return err
	}
	return summary.Err()
}

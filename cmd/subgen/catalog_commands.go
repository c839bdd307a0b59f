package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"subgen/internal/catalog"
	"subgen/internal/config"
	"subgen/internal/media/ffprobe"
	"subgen/internal/pipeline"
)

func newCatalogCommand(ctx *commandContext) *cobra.Command {
	catalogCmd := &cobra.Command{
		Use:   "catalog",
		Short: "Track media that still needs subtitles",
	}
	catalogCmd.AddCommand(newCatalogScanCommand(ctx))
	catalogCmd.AddCommand(newCatalogListCommand(ctx))
	catalogCmd.AddCommand(newCatalogRunCommand(ctx))
	catalogCmd.AddCommand(newCatalogResetCommand(ctx))
	return catalogCmd
}

func openCatalog(ctx *commandContext) (*config.Config, *catalog.Store, error) {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return nil, nil, err
	}
	store, err := catalog.Open(cfg.Catalog.Path)
	if err != nil {
		return nil, nil, err
	}
	return cfg, store, nil
}

func newCatalogScanCommand(ctx *commandContext) *cobra.Command {
	var keywordsFile string

	cmd := &cobra.Command{
		Use:   "scan <dir>",
		Short: "Probe media under a directory and record it in the catalog",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, store, err := openCatalog(ctx)
			if err != nil {
				return err
			}
			defer store.Close()
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}

			root, err := config.ExpandPath(args[0])
			if err != nil {
				return err
			}
			filter := catalog.Filter{Extensions: cfg.Catalog.Extensions}
			path := cfg.Catalog.KeywordsFile
			if cmd.Flags().Changed("keywords-file") {
				if path, err = config.ExpandPath(keywordsFile); err != nil {
					return err
				}
			}
			if strings.TrimSpace(path) != "" {
				if filter.Keywords, err = catalog.LoadKeywords(path); err != nil {
					return err
				}
			}

			scanner := catalog.NewScanner(store, ffprobe.NewProber(cfg.FFprobeBinary()), logger)
			result, err := scanner.Scan(cmd.Context(), root, filter)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%d media files: %d added, %d updated, %d unchanged, %d errors\n",
				result.Seen, result.Added, result.Updated, result.Unchanged, len(result.Errors))
			for _, scanErr := range result.Errors {
				fmt.Fprintf(out, "  error  %s: %v\n", scanErr.Path, scanErr.Error)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&keywordsFile, "keywords-file", "", "File of filename keywords, one per line (overrides catalog.keywords_file)")
	return cmd
}

func newCatalogListCommand(ctx *commandContext) *cobra.Command {
	var pendingOnly bool
	var statusFilter string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List catalogued media",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, store, err := openCatalog(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			var entries []*catalog.Entry
			switch {
			case pendingOnly:
				entries, err = store.Pending(cmd.Context(), 0)
			case statusFilter != "":
				status, ok := catalog.ParseStatus(strings.ToLower(strings.TrimSpace(statusFilter)))
				if !ok {
					return fmt.Errorf("unknown status %q (want pending, done, failed, or skipped)", statusFilter)
				}
				entries, err = store.List(cmd.Context(), status)
			default:
				entries, err = store.List(cmd.Context())
			}
			if err != nil {
				return err
			}

			if asJSON {
				if entries == nil {
					entries = []*catalog.Entry{}
				}
				return writeJSON(cmd.OutOrStdout(), entries)
			}
			out := cmd.OutOrStdout()
			if len(entries) == 0 {
				fmt.Fprintln(out, "Catalog is empty")
				return nil
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Status", "Duration", "Size", "Audio", "Subs", "Path"},
				catalogRows(entries),
				1, 2,
			))
			return nil
		},
	}
	cmd.Flags().BoolVar(&pendingOnly, "pending", false, "Only files awaiting transcription, shortest first")
	cmd.Flags().StringVar(&statusFilter, "status", "", "Filter by status (pending, done, failed, skipped)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output JSON")
	return cmd
}

func catalogRows(entries []*catalog.Entry) [][]string {
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, []string{
			string(e.Status),
			pipeline.FormatClock(e.Duration),
			humanize.IBytes(uint64(max(e.SizeBytes, 0))),
			yesNo(e.HasAudio),
			yesNo(e.HasSubtitles),
			e.Path,
		})
	}
	return rows
}

func newCatalogRunCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var overrides runOverrides

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Transcribe pending catalog entries, shortest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			base, store, err := openCatalog(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			lock, err := catalog.AcquireRunLock(store.Path())
			if err != nil {
				return err
			}
			defer lock.Release()

			cfg, err := overrides.apply(cmd, *base)
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}

			pending, err := store.Pending(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if len(pending) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "Nothing pending")
				return nil
			}
			return executeBatch(cmd, &cfg, logger, len(pending),
				func(runCtx context.Context, p *pipeline.Processor, opts pipeline.BatchOptions) (pipeline.Summary, error) {
					return catalog.Run(runCtx, store, p, limit, opts)
				})
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum number of files to process (0 for all)")
	overrides.register(cmd)
	return cmd
}

func newCatalogResetCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Return failed entries to pending",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, store, err := openCatalog(ctx)
			if err != nil {
				return err
			}
			defer store.Close()
			n, err := store.Reset(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Reset %d failed entries\n", n)
			return nil
		},
	}
}

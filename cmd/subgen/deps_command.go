package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"subgen/internal/deps"
	"subgen/internal/preflight"
)

func newDepsCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "deps",
		Short: "Show external tool availability",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			statuses := preflight.CheckSystemDeps(cmd.Context(), cfg, deps.DefaultOutputRunner)
			if asJSON {
				if err := writeJSON(cmd.OutOrStdout(), statuses); err != nil {
					return err
				}
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), renderTable(
					[]string{"Tool", "Status", "Path", "Version", "Purpose"},
					depsRows(statuses),
				))
			}
			if missing := deps.Missing(statuses); len(missing) > 0 {
				names := make([]string, 0, len(missing))
				for _, m := range missing {
					names = append(names, m.Name)
				}
				return errors.New("missing required tools: " + strings.Join(names, ", "))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output JSON")
	return cmd
}

func depsRows(statuses []deps.Status) [][]string {
	rows := make([][]string, 0, len(statuses))
	for _, s := range statuses {
		state := "ok"
		switch {
		case !s.Available && s.Optional:
			state = "absent (optional)"
		case !s.Available:
			state = "MISSING"
		}
		location := s.Path
		if location == "" {
			location = s.Detail
		}
		rows = append(rows, []string{s.Name, state, location, s.Version, s.Description})
	}
	return rows
}

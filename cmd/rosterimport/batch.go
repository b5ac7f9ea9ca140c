package main

import (
	"fmt"

	"github.com/JonMunkholm/RosterImport/internal/config"
	"github.com/JonMunkholm/RosterImport/internal/logging"
	"github.com/spf13/cobra"
)

func newBatchCmd(a *app) *cobra.Command {
	var (
		manifestPath string
		dryRun       bool
	)

	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Import several rosters listed in a YAML manifest",
		Long: `Imports each roster of the manifest in order, sharing one database
connection. Every roster is read and validated before the first insert.
The first failing roster stops the batch; earlier rosters stay imported.`,
		Example: `  rosterimport batch --manifest rosters.yaml --dry-run`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			m, err := config.LoadManifest(manifestPath)
			if err != nil {
				return err
			}
			rosters, err := m.Rosters(a.cfg.Roster)
			if err != nil {
				return err
			}

			batches := make([]mappedBatch, 0, len(rosters))
			for _, r := range rosters {
				b, err := readRoster(ctx, r)
				if err != nil {
					return err
				}
				batches = append(batches, b)
			}

			st, release, err := openStore(ctx, a.cfg, dryRun)
			if err != nil {
				return err
			}
			defer release()

			out := cmd.OutOrStdout()
			var inserted, skipped int
			for i, b := range batches {
				runCtx := logging.WithRunID(ctx, "")
				report, err := runBatch(runCtx, st, b, dryRun, out)
				printReport(out, fmt.Sprintf("[%d/%d] %s", i+1, len(batches), b.table.Path), report)
				if err != nil {
					return fmt.Errorf("roster %s: %w", b.table.Path, err)
				}
				inserted += report.Inserted
				skipped += report.Skipped
			}

			fmt.Fprintf(out, "batch complete: %d rosters, %d inserted, %d skipped\n", len(batches), inserted, skipped)
			return nil
		},
	}

	cmd.Flags().StringVarP(&manifestPath, "manifest", "m", "", "YAML manifest listing rosters")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Look up students but insert nothing")
	_ = cmd.MarkFlagRequired("manifest")
	return cmd
}

package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/JonMunkholm/RosterImport/internal/artifact"
	"github.com/JonMunkholm/RosterImport/internal/core"
	"github.com/spf13/cobra"
)

func newApplyCmd(a *app) *cobra.Command {
	var (
		path   string
		dryRun bool
	)

	cmd := &cobra.Command{
		Use:   "apply",
		Short: "Import the students embedded in a previously exported script",
		Long: `Reads the roster embedded in a script written by export and runs it
through the same required-field and duplicate checks as import, without
needing psql. Entries missing a field follow ROSTER_MALFORMED_POLICY.`,
		Example: `  rosterimport apply --artifact mca.sql`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if path == "" {
				path = a.cfg.Artifact.Out
			}
			if path == "" {
				return errors.New("--artifact is required")
			}

			f, err := os.Open(path)
			if err != nil {
				return fmt.Errorf("open artifact: %w", err)
			}
			records, err := artifact.Parse(f)
			f.Close()
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}

			st, release, err := openStore(ctx, a.cfg, dryRun)
			if err != nil {
				return err
			}
			defer release()

			out := cmd.OutOrStdout()
			im, err := core.NewImporter(st, core.ImporterConfig{
				Policy:   a.cfg.Roster.Policy(),
				DryRun:   dryRun,
				Reporter: reportMalformed(out),
			})
			if err != nil {
				return err
			}

			report, err := im.ImportRecords(core.ContextWithSource(ctx, path, ""), records)
			printReport(out, path, report)
			return err
		},
	}

	cmd.Flags().StringVar(&path, "artifact", "", "Script written by export (env ARTIFACT_OUT)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Look up students but insert nothing")
	return cmd
}

package main

import (
	"github.com/spf13/cobra"
)

func newImportCmd(a *app) *cobra.Command {
	var (
		flags  rosterFlags
		dryRun bool
	)

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Insert new students from a roster into the database",
		Long: `Reads the roster, skips students whose RFID UID or enrollment number
already exists (in the database or earlier in the same roster) and inserts
the rest. A database error stops the run; students inserted before it stay.`,
		Example: `  rosterimport import --file MCA_2024.xlsx --sheet MCA --section 6f1c2a
  rosterimport import --dry-run`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			batch, err := readRoster(ctx, flags.apply(a.cfg.Roster))
			if err != nil {
				return err
			}

			st, release, err := openStore(ctx, a.cfg, dryRun)
			if err != nil {
				return err
			}
			defer release()

			out := cmd.OutOrStdout()
			report, err := runBatch(ctx, st, batch, dryRun, out)
			printReport(out, batch.table.Path, report)
			return err
		},
	}

	flags.register(cmd)
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Look up students but insert nothing")
	return cmd
}

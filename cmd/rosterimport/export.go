package main

import (
	"fmt"
	"os"

	"github.com/JonMunkholm/RosterImport/internal/artifact"
	"github.com/JonMunkholm/RosterImport/internal/core"
	"github.com/JonMunkholm/RosterImport/internal/logging"
	"github.com/JonMunkholm/RosterImport/internal/store"
	"github.com/spf13/cobra"
)

func newExportCmd(a *app) *cobra.Command {
	var (
		flags rosterFlags
		out   string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write a roster as a re-runnable SQL import script",
		Long: `Reads and maps the roster without touching the database and writes a
PostgreSQL script that inserts each student unless one with the same RFID
UID or enrollment number exists. Duplicates inside the roster are dropped
before writing.`,
		Example: `  rosterimport export --file MCA_2024.xlsx --section 6f1c2a --out mca.sql
  psql "$DATABASE_URL" -f mca.sql`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if out == "" {
				out = a.cfg.Artifact.Out
			}

			batch, err := readRoster(ctx, flags.apply(a.cfg.Roster))
			if err != nil {
				return err
			}

			// A dry run against an empty store applies the malformed-row
			// policy and drops in-roster duplicates.
			w := cmd.OutOrStdout()
			report, err := runBatch(ctx, store.NewMemory(), batch, true, w)
			if err != nil {
				return err
			}

			var records []core.StudentRecord
			for _, o := range report.Outcomes {
				if o.Kind == core.OutcomeWouldInsert {
					records = append(records, o.Record)
				}
			}

			if err := writeArtifact(out, records); err != nil {
				return err
			}

			logging.FromContext(ctx).Info("artifact written", "path", out, "students", len(records))
			fmt.Fprintf(w, "wrote %d students to %s (%d duplicates, %d malformed rows left out)\n",
				len(records), out, report.Skipped, report.Malformed)
			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVarP(&out, "out", "o", "", "Script path (env ARTIFACT_OUT)")
	return cmd
}

func writeArtifact(path string, records []core.StudentRecord) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create artifact: %w", err)
	}
	if err := artifact.Write(f, records); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

package main

import (
	"github.com/JonMunkholm/RosterImport/internal/config"
	"github.com/JonMunkholm/RosterImport/internal/core"
	"github.com/JonMunkholm/RosterImport/internal/logging"
	"github.com/spf13/cobra"
)

// app carries state shared by all subcommands.
type app struct {
	cfg *config.Config

	logLevel  string
	logFormat string
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "rosterimport",
		Short: "Import student rosters from spreadsheets",
		Long: `rosterimport reads a roster spreadsheet, maps each row to a student
and inserts the students that do not exist yet. Existing students are
matched by RFID UID or enrollment number and skipped, so runs are repeatable.

Settings come from the environment (and .env); flags override them.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if a.logLevel != "" {
				cfg.Logging.Level = a.logLevel
			}
			if a.logFormat != "" {
				cfg.Logging.Format = a.logFormat
			}
			logging.Setup(cfg.Logging.Level, cfg.Logging.Format)
			a.cfg = cfg
			return nil
		},
	}

	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "Log level: debug, info, warn, error (env LOG_LEVEL)")
	root.PersistentFlags().StringVar(&a.logFormat, "log-format", "", "Log format: text or json (env LOG_FORMAT)")

	root.AddCommand(
		newImportCmd(a),
		newExportCmd(a),
		newApplyCmd(a),
		newInspectCmd(a),
		newBatchCmd(a),
	)
	return root
}

// rosterFlags are the per-batch overrides shared by import and export.
type rosterFlags struct {
	file      string
	sheet     string
	sectionID string
	abort     bool
	unwrap    bool
}

func (f *rosterFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.file, "file", "f", "", "Roster spreadsheet (env ROSTER_FILE)")
	cmd.Flags().StringVar(&f.sheet, "sheet", "", "Sheet name, default first sheet (env ROSTER_SHEET)")
	cmd.Flags().StringVar(&f.sectionID, "section", "", "Section id for every student (env ROSTER_SECTION_ID)")
	cmd.Flags().BoolVar(&f.abort, "abort-on-malformed", false, "Stop at the first malformed row (env ROSTER_MALFORMED_POLICY=abort)")
	cmd.Flags().BoolVar(&f.unwrap, "unwrap-excel-text", false, `Strip ="..." wrappers from RFID and enrollment cells (env ROSTER_UNWRAP_EXCEL_TEXT)`)
}

// apply overlays set flags on the environment roster settings.
func (f *rosterFlags) apply(r config.RosterConfig) config.RosterConfig {
	if f.file != "" {
		r.File = f.file
	}
	if f.sheet != "" {
		r.Sheet = f.sheet
	}
	if f.sectionID != "" {
		r.SectionID = f.sectionID
	}
	if f.abort {
		r.MalformedPolicy = string(core.PolicyAbort)
	}
	if f.unwrap {
		r.UnwrapExcelText = true
	}
	return r
}

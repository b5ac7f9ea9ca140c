package main

import (
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/JonMunkholm/RosterImport/internal/source"
	"github.com/spf13/cobra"
)

func newInspectCmd(a *app) *cobra.Command {
	var (
		file        string
		sheet       string
		countColumn string
	)

	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "List the sheets, headers and sizes of a spreadsheet",
		Long: `Prints every sheet with its row count, width and header row, which
helps choose ROSTER_SHEET and the ROSTER_COL_* positions. With
--count-column, also tallies the values of one column (for example the
Status column of an attendance export).`,
		Example: `  rosterimport inspect --file MCA_2024.xlsx
  rosterimport inspect --file attendance.xlsx --sheet Report --count-column Status`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if file == "" {
				file = a.cfg.Roster.File
			}
			if file == "" {
				return errors.New("--file is required")
			}

			wb, err := source.Inspect(file)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "%s (%s, %d sheets)\n", wb.Path, wb.Format, len(wb.Sheets))
			tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "SHEET\tROWS\tCOLS\tHEADER")
			for _, s := range wb.Sheets {
				fmt.Fprintf(tw, "%s\t%d\t%d\t%s\n", s.Name, s.Rows, s.Columns, formatHeader(s.Header))
			}
			tw.Flush()

			if countColumn == "" {
				return nil
			}

			table, err := source.Read(file, sheet)
			if err != nil {
				return err
			}
			counts, err := source.CountValues(table.Rows, countColumn)
			if err != nil {
				return err
			}

			fmt.Fprintf(w, "\n%s in %s:\n", countColumn, table.Sheet)
			tw = tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
			for _, c := range counts {
				v := c.Value
				if v == "" {
					v = "(blank)"
				}
				fmt.Fprintf(tw, "  %s\t%d\n", v, c.Count)
			}
			return tw.Flush()
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "Spreadsheet to inspect (env ROSTER_FILE)")
	cmd.Flags().StringVar(&sheet, "sheet", "", "Sheet for --count-column, default first sheet")
	cmd.Flags().StringVar(&countColumn, "count-column", "", "Header of a column whose values to tally")
	return cmd
}

// formatHeader renders header cells with their 0-based positions.
func formatHeader(header []string) string {
	parts := make([]string, 0, len(header))
	for i, h := range header {
		if h == "" {
			continue
		}
		parts = append(parts, fmt.Sprintf("%d:%s", i, h))
	}
	return strings.Join(parts, "  ")
}

package main

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/JonMunkholm/RosterImport/internal/config"
	"github.com/JonMunkholm/RosterImport/internal/core"
	"github.com/JonMunkholm/RosterImport/internal/logging"
	"github.com/JonMunkholm/RosterImport/internal/source"
	"github.com/JonMunkholm/RosterImport/internal/store"
)

// mappedBatch is a roster read from disk and mapped to row results.
type mappedBatch struct {
	roster  config.RosterConfig
	table   source.Table
	results []core.RowResult
}

// readRoster validates r, reads its table and maps every data row.
func readRoster(ctx context.Context, r config.RosterConfig) (mappedBatch, error) {
	if err := r.Validate(); err != nil {
		return mappedBatch{}, err
	}

	mapper, err := core.NewMapper(r.MapperConfig())
	if err != nil {
		return mappedBatch{}, err
	}

	table, err := source.Read(r.File, r.Sheet)
	if err != nil {
		return mappedBatch{}, err
	}

	results := mapper.MapRows(table.Rows)
	logging.FromContext(ctx).Info("roster read",
		"file", table.Path,
		"sheet", table.Sheet,
		"rows", len(table.Rows),
		"data_rows", len(results),
		"malformed", len(core.Malformed(results)),
	)
	return mappedBatch{roster: r, table: table, results: results}, nil
}

// openStore returns the store for a run and a release func.
// Dry runs without a database URL use an empty in-memory store.
func openStore(ctx context.Context, cfg *config.Config, dryRun bool) (core.Store, func(), error) {
	if dryRun && cfg.Database.URL == "" {
		logging.FromContext(ctx).Warn("dry run without DATABASE_URL: existing students are not checked")
		return store.NewMemory(), func() {}, nil
	}

	if err := cfg.Database.RequireURL(); err != nil {
		return nil, nil, err
	}

	pool, err := store.Connect(ctx, cfg.Database)
	if err != nil {
		return nil, nil, err
	}

	pg, err := store.NewPostgres(pool, cfg.Store.Table)
	if err != nil {
		pool.Close()
		return nil, nil, err
	}
	return pg, pool.Close, nil
}

// runBatch pushes a mapped batch through an importer on st.
func runBatch(ctx context.Context, st core.Store, b mappedBatch, dryRun bool, out io.Writer) (core.ImportReport, error) {
	im, err := core.NewImporter(st, core.ImporterConfig{
		Policy:   b.roster.Policy(),
		DryRun:   dryRun,
		Reporter: reportMalformed(out),
	})
	if err != nil {
		return core.ImportReport{}, err
	}

	ctx = core.ContextWithSource(ctx, b.table.Path, b.table.Sheet)
	return im.Run(ctx, b.results)
}

// reportMalformed prints each malformed row as it is met.
func reportMalformed(out io.Writer) core.Reporter {
	return func(o core.Outcome) {
		if o.Kind == core.OutcomeMalformed {
			fmt.Fprintf(out, "row %d: %s\n", o.RowIndex+1, o.Reason)
		}
	}
}

// printReport writes a one-line summary followed by skipped rows.
func printReport(w io.Writer, label string, r core.ImportReport) {
	verb := "inserted"
	if r.DryRun {
		verb = "would insert"
	}
	fmt.Fprintf(w, "%s: %d rows, %s %d, skipped %d, malformed %d (run %s, %s)\n",
		label, r.Total, verb, r.Inserted, r.Skipped, r.Malformed, r.RunID, r.Duration.Round(time.Millisecond))

	var skipped []core.Outcome
	for _, o := range r.Outcomes {
		if o.Skipped() {
			skipped = append(skipped, o)
		}
	}
	if len(skipped) == 0 {
		return
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "  ROW\tENROLLMENT\tRFID\tNAME\tREASON")
	for _, o := range skipped {
		fmt.Fprintf(tw, "  %d\t%s\t%s\t%s\t%s\n",
			o.RowIndex+1, o.Record.EnrollmentNo, o.Record.RFIDUID, o.Record.Name, o.Reason)
	}
	tw.Flush()
}

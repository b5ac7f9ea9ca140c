package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/JonMunkholm/RosterImport/internal/logging"
	"github.com/go-playground/validator/v10"
)

// Reasons attached to skipped outcomes.
const (
	reasonExisting       = "already exists"
	reasonBatchDuplicate = "duplicate in batch"

	fieldRFIDUID      = "rfid_uid"
	fieldEnrollmentNo = "enrollment_no"
)

// ImporterConfig configures an Importer.
type ImporterConfig struct {
	Policy   MalformedPolicy // Default PolicySkip
	DryRun   bool            // Look up but never insert
	Reporter Reporter        // Optional per-row callback
}

// Importer de-duplicates candidate records against a Store and inserts the rest.
// An Importer is not safe for concurrent use; each Run is strictly sequential.
type Importer struct {
	store    Store
	cfg      ImporterConfig
	validate *validator.Validate
}

// NewImporter returns an Importer writing to store.
func NewImporter(store Store, cfg ImporterConfig) (*Importer, error) {
	if store == nil {
		return nil, errors.New("store is required")
	}
	policy, ok := ParseMalformedPolicy(string(cfg.Policy))
	if !ok {
		return nil, fmt.Errorf("unknown malformed-row policy %q (want skip or abort)", cfg.Policy)
	}
	cfg.Policy = policy
	return &Importer{store: store, cfg: cfg, validate: newRecordValidator()}, nil
}

// batchSet tracks identifiers accepted earlier in the current run.
type batchSet struct {
	rfid       map[string]struct{}
	enrollment map[string]struct{}
}

func newBatchSet(n int) *batchSet {
	return &batchSet{
		rfid:       make(map[string]struct{}, n),
		enrollment: make(map[string]struct{}, n),
	}
}

// match returns the field a record shares with an accepted record, or "".
func (b *batchSet) match(rec StudentRecord) string {
	if _, ok := b.rfid[rec.RFIDUID]; ok {
		return fieldRFIDUID
	}
	if _, ok := b.enrollment[rec.EnrollmentNo]; ok {
		return fieldEnrollmentNo
	}
	return ""
}

func (b *batchSet) add(rec StudentRecord) {
	b.rfid[rec.RFIDUID] = struct{}{}
	b.enrollment[rec.EnrollmentNo] = struct{}{}
}

// matchedField names the field an existing student shares with rec.
func matchedField(existing *PersistedStudent, rec StudentRecord) string {
	if existing.RFIDUID == rec.RFIDUID {
		return fieldRFIDUID
	}
	return fieldEnrollmentNo
}

// ImportRecords runs records that did not come through a Mapper, such as
// those read back from an artifact. Values are trimmed and checked like mapped
// cells; a record missing a required field becomes a malformed row under the
// configured policy. Records are numbered from zero in the report.
func (im *Importer) ImportRecords(ctx context.Context, records []StudentRecord) (ImportReport, error) {
	results := make([]RowResult, len(records))
	for i, r := range records {
		rec := StudentRecord{
			Name:         CleanCell(r.Name),
			RFIDUID:      CleanCell(r.RFIDUID),
			EnrollmentNo: CleanCell(r.EnrollmentNo),
			SectionID:    CleanCell(r.SectionID),
		}
		data := []string{rec.Name, rec.RFIDUID, rec.EnrollmentNo, rec.SectionID}
		if bad := checkRecord(im.validate, i, rec, data); bad != nil {
			results[i] = RowResult{RowIndex: i, Err: bad}
			continue
		}
		results[i] = RowResult{RowIndex: i, Record: &rec}
	}
	return im.Run(ctx, results)
}

// Run processes mapped rows in order. For each record it checks the in-run set,
// then the store, then inserts. Blank rows are ignored. Malformed rows are
// reported, and under PolicyAbort the first one is returned as the error.
//
// Any store failure stops the run and is returned as a *StoreError together
// with the partial report. Inserts made before the failure are kept.
func (im *Importer) Run(ctx context.Context, results []RowResult) (ImportReport, error) {
	start := time.Now()
	if logging.RunID(ctx) == "" {
		ctx = logging.WithRunID(ctx, "")
	}
	fields := append(sourceFields(ctx), "dry_run", im.cfg.DryRun, "policy", im.cfg.Policy)
	logger := logging.WithFields(ctx, fields...)

	report := ImportReport{
		RunID:  logging.RunID(ctx),
		DryRun: im.cfg.DryRun,
	}
	finish := func(err error) (ImportReport, error) {
		report.Duration = time.Since(start)
		if err != nil {
			logger.Error("import stopped",
				"error", err,
				"inserted", report.Inserted,
				"skipped", report.Skipped,
				"malformed", report.Malformed,
			)
		} else {
			logger.Info("import completed",
				"total", report.Total,
				"inserted", report.Inserted,
				"skipped", report.Skipped,
				"malformed", report.Malformed,
				"duration", report.Duration,
			)
		}
		return report, err
	}

	seen := newBatchSet(len(results))
	logger.Info("import started", "rows", len(results))

	for _, r := range results {
		if err := ctx.Err(); err != nil {
			return finish(fmt.Errorf("import cancelled before row %d: %w", r.RowIndex, err))
		}

		if r.Record == nil {
			if r.Err == nil || r.Blank() {
				continue
			}
			report.Total++
			report.Malformed++
			im.emit(&report, Outcome{RowIndex: r.RowIndex, Kind: OutcomeMalformed, Reason: r.Err.Reason})
			logger.Warn("malformed row", "line", r.Err.Line, "reason", r.Err.Reason)
			if im.cfg.Policy == PolicyAbort {
				return finish(*r.Err)
			}
			continue
		}

		report.Total++
		rec := *r.Record

		if field := seen.match(rec); field != "" {
			report.Skipped++
			im.emit(&report, Outcome{
				RowIndex: r.RowIndex,
				Kind:     OutcomeBatchDuplicate,
				Record:   rec,
				Reason:   reasonBatchDuplicate + ": " + field,
			})
			logger.Debug("duplicate in batch", "row", r.RowIndex, "field", field)
			continue
		}

		existing, err := im.store.FindExisting(ctx, rec.RFIDUID, rec.EnrollmentNo)
		if err != nil {
			return finish(&StoreError{Op: "query", RowIndex: r.RowIndex, Record: rec, Err: err})
		}
		if existing != nil {
			field := matchedField(existing, rec)
			report.Skipped++
			im.emit(&report, Outcome{
				RowIndex: r.RowIndex,
				Kind:     OutcomeExisting,
				Record:   rec,
				ID:       existing.ID,
				Reason:   reasonExisting + ": " + field,
			})
			logger.Debug("student exists", "row", r.RowIndex, "field", field, "id", existing.ID)
			continue
		}

		if im.cfg.DryRun {
			report.Inserted++
			im.emit(&report, Outcome{RowIndex: r.RowIndex, Kind: OutcomeWouldInsert, Record: rec})
			seen.add(rec)
			continue
		}

		saved, err := im.store.Insert(ctx, rec)
		if err != nil {
			return finish(&StoreError{Op: "insert", RowIndex: r.RowIndex, Record: rec, Err: err})
		}
		report.Inserted++
		im.emit(&report, Outcome{RowIndex: r.RowIndex, Kind: OutcomeInserted, Record: rec, ID: saved.ID})
		seen.add(rec)
	}

	return finish(nil)
}

func (im *Importer) emit(report *ImportReport, o Outcome) {
	report.Outcomes = append(report.Outcomes, o)
	if im.cfg.Reporter != nil {
		im.cfg.Reporter(o)
	}
}

// pkg/cleaner/cleaner.go
package cleaner

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/David-Botos/sales-etl/pkg/converter"
	"github.com/David-Botos/sales-etl/pkg/model"
)

// Cleaner repairs raw sales records so that every surviving row has all nine
// fields. It performs no I/O.
type Cleaner struct {
	logger    *zap.Logger
	converter *converter.Converter
	runID     string
	now       func() time.Time
}

// StepReport summarises one cleaning step
type StepReport struct {
	Name     string
	RowsIn   int
	RowsOut  int
	Dropped  int
	Filled   map[string]int
	Duration time.Duration
}

// Report is the outcome of a cleaning run
type Report struct {
	RunID      string
	RowsIn     int
	RowsOut    int
	Before     model.Profile
	After      model.Profile
	Steps      []StepReport
	Operations []model.CleaningOperation
}

// Dropped returns the number of rows discarded across all steps
func (r *Report) Dropped() int {
	total := 0
	for _, s := range r.Steps {
		total += s.Dropped
	}
	return total
}

// FilledByColumn returns the number of values filled per column
func (r *Report) FilledByColumn() map[string]int {
	filled := make(map[string]int)
	for _, s := range r.Steps {
		for col, n := range s.Filled {
			filled[col] += n
		}
	}
	return filled
}

// NewCleaner creates a Cleaner
func NewCleaner(logger *zap.Logger) *Cleaner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Cleaner{
		logger:    logger,
		converter: converter.NewConverter(logger),
		now:       time.Now,
	}
}

// WithRunID returns a copy of the cleaner that stamps audit records with id
func (c *Cleaner) WithRunID(id string) *Cleaner {
	cp := *c
	cp.runID = id
	return &cp
}

// WithClock returns a copy of the cleaner that timestamps audit records with now
func (c *Cleaner) WithClock(now func() time.Time) *Cleaner {
	cp := *c
	cp.now = now
	return &cp
}

// Clean normalizes the extracted table into typed records and applies the
// repair steps. The raw table is not modified.
func (c *Cleaner) Clean(raw *model.RawTable) (model.RecordSet, *Report, error) {
	if raw == nil {
		return nil, nil, errors.New("raw table cannot be nil")
	}

	report := &Report{RunID: c.runID, RowsIn: raw.Len(), Before: raw.Profile()}
	c.logProfile("Raw dataset profile", report.Before)

	start := time.Now()
	log := newOpLog(c.runID, StepNormalizeTypes, c.now)
	rs, err := normalizeRaw(c.converter, raw, log)
	if err != nil {
		return nil, report, fmt.Errorf("%s: %w", StepNormalizeTypes, err)
	}
	c.finishStep(report, log, raw.Len(), len(rs), time.Since(start))

	return c.repair(rs, report)
}

// CleanRecords applies every step to an already typed record set. Running it
// on its own output changes nothing.
func (c *Cleaner) CleanRecords(rs model.RecordSet) (model.RecordSet, *Report, error) {
	report := &Report{RunID: c.runID, RowsIn: len(rs), Before: rs.Profile()}
	c.logProfile("Input dataset profile", report.Before)

	start := time.Now()
	log := newOpLog(c.runID, StepNormalizeTypes, c.now)
	out := normalizeRecords(c.converter, rs, log)
	c.finishStep(report, log, len(rs), len(out), time.Since(start))

	return c.repair(out, report)
}

func (c *Cleaner) repair(rs model.RecordSet, report *Report) (model.RecordSet, *Report, error) {
	for _, step := range repairSteps {
		start := time.Now()
		log := newOpLog(c.runID, step.name, c.now)

		out, err := step.apply(rs, log)
		if err != nil {
			c.logger.Error("Cleaning step failed",
				zap.String("step", step.name),
				zap.Int("rows", len(rs)),
				zap.Error(err))
			return nil, report, fmt.Errorf("%s: %w", step.name, err)
		}

		c.finishStep(report, log, len(rs), len(out), time.Since(start))
		rs = out
	}

	report.RowsOut = len(rs)
	report.After = rs.Profile()
	c.logProfile("Cleaned dataset profile", report.After)

	c.logger.Info("Cleaning complete",
		zap.Int("rows_in", report.RowsIn),
		zap.Int("rows_out", report.RowsOut),
		zap.Int("dropped", report.Dropped()),
		zap.Int("operations", len(report.Operations)))

	return rs, report, nil
}

func (c *Cleaner) finishStep(report *Report, log *opLog, rowsIn, rowsOut int, elapsed time.Duration) {
	sr := StepReport{
		Name:     log.step,
		RowsIn:   rowsIn,
		RowsOut:  rowsOut,
		Dropped:  log.dropped,
		Filled:   log.filled,
		Duration: elapsed,
	}
	report.Steps = append(report.Steps, sr)
	report.Operations = append(report.Operations, log.ops...)

	fields := []zap.Field{
		zap.String("step", sr.Name),
		zap.Int("rows_in", sr.RowsIn),
		zap.Int("rows_out", sr.RowsOut),
		zap.Duration("elapsed", sr.Duration),
	}
	if sr.Dropped > 0 {
		fields = append(fields, zap.Int("dropped", sr.Dropped))
	}
	for col, n := range sr.Filled {
		fields = append(fields, zap.Int("filled_"+col, n))
	}
	c.logger.Debug("Cleaning step complete", fields...)
}

// logProfile writes the dataset summary
func (c *Cleaner) logProfile(msg string, p model.Profile) {
	missing := make([]zap.Field, 0, len(p.Missing))
	for _, col := range model.RecordColumns {
		if n := p.Missing[col]; n > 0 {
			missing = append(missing, zap.Int(col, n))
		}
	}

	c.logger.Info(msg,
		zap.Int("rows", p.Rows),
		zap.Int("columns", p.Columns),
		zap.Int("missing_total", p.TotalMissing()),
		zap.Int("duplicate_rows", p.Duplicates),
		zap.Dict("missing", missing...))
}

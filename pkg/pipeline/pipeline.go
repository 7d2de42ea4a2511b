// Package pipeline runs one batch: extract, clean, model, verify, stage and
// trigger the downstream load.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/David-Botos/sales-etl/pkg/cleaner"
	"github.com/David-Botos/sales-etl/pkg/extract"
	"github.com/David-Botos/sales-etl/pkg/loader"
	"github.com/David-Botos/sales-etl/pkg/metrics"
	"github.com/David-Botos/sales-etl/pkg/model"
	"github.com/David-Botos/sales-etl/pkg/modeler"
	"github.com/David-Botos/sales-etl/pkg/storage"
	"github.com/David-Botos/sales-etl/pkg/transfer"
)

// Components are the collaborators a run talks to
type Components struct {
	Source   extract.Source
	Store    storage.ObjectStore
	Trigger  loader.Trigger   // defaults to loader.NoopTrigger
	Recorder cleaner.Recorder // defaults to cleaner.NopRecorder
}

// Settings tune the orchestration boundary
type Settings struct {
	Retry             transfer.RetryPolicy
	UploadConcurrency int
	PushgatewayURL    string
}

// Pipeline wires the stages of a batch run together
type Pipeline struct {
	source   extract.Source
	stager   *transfer.TransferManager
	trigger  loader.Trigger
	recorder cleaner.Recorder
	verifier *transfer.Verifier
	modeler  *modeler.Modeler
	settings Settings
	logger   *zap.Logger
	now      func() time.Time
}

// New creates a pipeline
func New(c Components, s Settings, logger *zap.Logger) (*Pipeline, error) {
	if c.Source == nil {
		return nil, fmt.Errorf("source is required")
	}
	if c.Store == nil {
		return nil, fmt.Errorf("object store is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if c.Trigger == nil {
		c.Trigger = loader.NoopTrigger{}
	}
	if c.Recorder == nil {
		c.Recorder = cleaner.NopRecorder{}
	}

	stager := transfer.NewTransferManager(c.Store, logger).
		WithConcurrency(s.UploadConcurrency).
		WithRetryPolicy(s.Retry).
		WithObserver(func(u transfer.UploadResult) {
			metrics.RecordUpload(u.Table, u.Success, u.Bytes)
		})

	return &Pipeline{
		source:   c.Source,
		stager:   stager,
		trigger:  c.Trigger,
		recorder: c.Recorder,
		verifier: transfer.NewVerifier(logger),
		modeler:  modeler.NewModeler(logger),
		settings: s,
		logger:   logger,
		now:      time.Now,
	}, nil
}

// Run executes one batch. Nothing is persisted before the staging step, so
// a run abandoned earlier leaves no trace.
func (p *Pipeline) Run(ctx context.Context) *Result {
	start := p.now()
	result := newResult(uuid.New().String())
	logger := p.logger.With(zap.String("runId", result.RunID))

	logger.Info("Starting pipeline run", zap.String("source", p.source.Name()))

	err := p.run(ctx, logger, result)
	result.Elapsed = p.now().Sub(start)
	result.Success = err == nil
	result.Err = err
	metrics.RecordRun(result.Success)

	if err != nil {
		result.Message = fmt.Sprintf("failed at %s: %v", result.FailedStage, err)
		metrics.RecordError(result.FailedStage, result.Category().String())
		logger.Error("Pipeline run failed",
			zap.String("stage", result.FailedStage),
			zap.String("category", result.Category().String()),
			zap.Duration("elapsed", result.Elapsed),
			zap.Error(err))
	} else {
		result.Message = fmt.Sprintf("loaded %d sales rows", result.TableRows[model.SalesTable.Name])
		logger.Info("Pipeline run succeeded",
			zap.Duration("elapsed", result.Elapsed),
			zap.Int("rowsExtracted", result.RowsExtracted),
			zap.Int("rowsCleaned", result.RowsCleaned),
			zap.Int("rowsDropped", result.RowsDropped))
	}

	if p.settings.PushgatewayURL != "" {
		if err := metrics.Push(context.WithoutCancel(ctx), p.settings.PushgatewayURL, "sales_etl", result.RunID); err != nil {
			logger.Warn("Failed to push metrics", zap.Error(err))
		}
	}

	return result
}

func (p *Pipeline) run(ctx context.Context, logger *zap.Logger, result *Result) error {
	var (
		raw     *model.RawTable
		cleaned model.RecordSet
		report  *cleaner.Report
		tables  *model.Tables
	)

	err := p.stage(ctx, result, StageExtract, func() error {
		var (
			attempts int
			err      error
		)
		raw, attempts, err = transfer.Retry(ctx, p.settings.Retry, logger, StageExtract, p.source.Extract)
		if err != nil {
			return fmt.Errorf("extract from %s after %d attempt(s): %w", p.source.Name(), attempts, err)
		}
		result.RowsExtracted = raw.Len()
		metrics.RecordRows(metrics.RowsExtracted, raw.Len())
		return nil
	})
	if err != nil {
		return err
	}

	err = p.stage(ctx, result, StageClean, func() error {
		var err error
		c := cleaner.NewCleaner(logger).WithRunID(result.RunID)
		cleaned, report, err = c.Clean(raw)
		if err != nil {
			return err
		}
		result.RowsCleaned = len(cleaned)
		result.RowsDropped = report.Dropped()
		metrics.RecordRows(metrics.RowsCleaned, len(cleaned))
		metrics.RecordRows(metrics.RowsDropped, report.Dropped())
		metrics.RecordFills(report.FilledByColumn())
		return nil
	})
	if err != nil {
		return err
	}

	err = p.stage(ctx, result, StageModel, func() error {
		var err error
		tables, err = p.modeler.Model(cleaned, raw)
		if err != nil {
			return err
		}
		result.TableRows = tables.RowCounts()
		return nil
	})
	if err != nil {
		return err
	}

	err = p.stage(ctx, result, StageVerify, func() error {
		return p.verifier.Verify(tables).Err()
	})
	if err != nil {
		return err
	}

	err = p.stage(ctx, result, StageUpload, func() error {
		staged, err := p.stager.StageTables(ctx, tables)
		if staged != nil {
			result.LandedKeys = staged.LandedKeys()
		}
		return err
	})
	if err != nil {
		return err
	}

	err = p.stage(ctx, result, StageTrigger, func() error {
		resp, attempts, err := transfer.Retry(ctx, p.settings.Retry, logger, StageTrigger, p.trigger.Trigger)
		result.LoaderResponse = resp
		if err != nil {
			return fmt.Errorf("trigger %s after %d attempt(s): %w", p.trigger.Name(), attempts, err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	// The audit trail is best effort; the data has already been loaded.
	err = p.stage(ctx, result, StageAudit, func() error {
		if err := p.recorder.RecordCleaningOperations(ctx, report.Operations); err != nil {
			logger.Warn("Failed to record cleaning operations",
				zap.Int("operations", len(report.Operations)),
				zap.Error(err))
		}
		return nil
	})
	if err != nil {
		// A cancelled audit does not fail a run whose data already landed.
		result.FailedStage = ""
		logger.Warn("Skipped recording cleaning operations", zap.Error(err))
	}

	return nil
}

// stage runs fn unless ctx is already done, timing it and noting a failure
func (p *Pipeline) stage(ctx context.Context, result *Result, name string, fn func() error) error {
	if err := ctx.Err(); err != nil {
		result.FailedStage = name
		return err
	}

	start := p.now()
	err := fn()
	elapsed := p.now().Sub(start)

	result.StageDurations[name] = elapsed
	metrics.RecordStage(name, elapsed.Seconds())

	if err != nil {
		result.FailedStage = name
		return err
	}

	p.logger.Debug("Stage complete",
		zap.String("stage", name),
		zap.Duration("duration", elapsed))
	return nil
}

package transfer

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/David-Botos/sales-etl/pkg/converter"
	"github.com/David-Botos/sales-etl/pkg/model"
	"github.com/David-Botos/sales-etl/pkg/storage"
)

// defaultConcurrency stages all five tables at once
const defaultConcurrency = 5

// UploadObserver is told about every finished upload
type UploadObserver func(result UploadResult)

// TransferManager stages encoded tables in an object store. Uploads are
// independent and run concurrently; Stage returns only after all of them
// have finished, and fails if any one failed.
type TransferManager struct {
	store       storage.ObjectStore
	converter   *converter.Converter
	logger      *zap.Logger
	concurrency int
	retry       RetryPolicy
	observers   []UploadObserver
}

// NewTransferManager creates a new transfer manager
func NewTransferManager(store storage.ObjectStore, logger *zap.Logger) *TransferManager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TransferManager{
		store:       store,
		converter:   converter.NewConverter(logger),
		logger:      logger,
		concurrency: defaultConcurrency,
		retry:       NoRetry,
	}
}

// WithConcurrency sets the number of uploads in flight
func (tm *TransferManager) WithConcurrency(n int) *TransferManager {
	if n > 0 {
		tm.concurrency = n
	}
	return tm
}

// WithRetryPolicy sets how each upload is retried
func (tm *TransferManager) WithRetryPolicy(p RetryPolicy) *TransferManager {
	tm.retry = p
	return tm
}

// WithObserver registers a callback for finished uploads
func (tm *TransferManager) WithObserver(o UploadObserver) *TransferManager {
	tm.observers = append(tm.observers, o)
	return tm
}

// StageTables encodes the modelled tables and the raw archive and stages them
func (tm *TransferManager) StageTables(ctx context.Context, tables *model.Tables) (*StageResult, error) {
	encoded, err := tm.converter.EncodeTables(tables)
	if err != nil {
		return nil, err
	}

	jobs := make([]UploadJob, 0, len(encoded))
	for _, e := range encoded {
		key, err := DestinationKey(e.Table)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, NewUploadJob(e.Table, key, e.Body, e.Rows))
	}

	return tm.Stage(ctx, jobs)
}

// Stage runs the upload jobs and waits for all of them
func (tm *TransferManager) Stage(ctx context.Context, jobs []UploadJob) (*StageResult, error) {
	result := &StageResult{
		Uploads:   make([]UploadResult, len(jobs)),
		StartTime: time.Now(),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(tm.concurrency)

	for i, job := range jobs {
		i, job := i, job
		g.Go(func() error {
			upload := tm.upload(gctx, job)
			result.Uploads[i] = *upload
			for _, o := range tm.observers {
				o(*upload)
			}
			if upload.Err != nil {
				return &UploadError{Table: job.Table, Key: job.Key, Err: upload.Err}
			}
			return nil
		})
	}

	err := g.Wait()
	result.Complete()

	if err != nil {
		tm.logger.Error("Staging failed",
			zap.Int("jobs", len(jobs)),
			zap.Int("failed", len(result.Failed())),
			zap.Error(err))
		return result, err
	}

	tm.logger.Info("All uploads landed",
		zap.Strings("keys", result.LandedKeys()),
		zap.String("bytes", FormatBytes(result.TotalBytes())),
		zap.String("duration", FormatDuration(result.Duration)))

	return result, nil
}

func (tm *TransferManager) upload(ctx context.Context, job UploadJob) *UploadResult {
	result := NewUploadResult(job)

	location, attempts, err := Retry(ctx, tm.retry, tm.logger, "upload "+job.Key,
		func(ctx context.Context) (string, error) {
			return tm.store.Put(ctx, job.Key, job.Body, job.ContentType)
		})
	result.Attempts = attempts
	result.Location = location
	if err != nil {
		err = fmt.Errorf("after %d attempt(s): %w", attempts, err)
	}
	result.Complete(err)

	if err != nil {
		tm.logger.Warn("Upload failed",
			zap.String("table", job.Table),
			zap.String("key", job.Key),
			zap.Error(err))
		return result
	}

	tm.logger.Info("Upload landed",
		zap.String("table", job.Table),
		zap.String("location", location),
		zap.Int("rows", job.Rows),
		zap.String("bytes", FormatBytes(result.Bytes)),
		zap.Int("attempts", attempts),
		zap.Duration("duration", result.Duration))
	return result
}

package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"go.uber.org/zap"

	"github.com/David-Botos/sales-etl/pkg/cleaner"
	"github.com/David-Botos/sales-etl/pkg/config"
	"github.com/David-Botos/sales-etl/pkg/connector"
	"github.com/David-Botos/sales-etl/pkg/extract"
	"github.com/David-Botos/sales-etl/pkg/loader"
	"github.com/David-Botos/sales-etl/pkg/storage"
	"github.com/David-Botos/sales-etl/pkg/transfer"
)

// builder accumulates connections so they can be closed together
type builder struct {
	cfg     *config.Config
	logger  *zap.Logger
	factory *connector.ConnectorFactory
	closers []func() error
	awsCfg  *aws.Config
}

// SettingsFromConfig returns the orchestration settings for cfg
func SettingsFromConfig(cfg *config.Config) Settings {
	return Settings{
		Retry: transfer.RetryPolicy{
			Attempts: cfg.RetryAttempts,
			Delay:    cfg.RetryDelay,
		},
		UploadConcurrency: cfg.UploadConcurrency,
		PushgatewayURL:    cfg.MetricsPushgatewayURL,
	}
}

// Build wires a pipeline from configuration. The returned close function
// releases every connection opened on the way.
func Build(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Pipeline, func() error, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	b := &builder{
		cfg:     cfg,
		logger:  logger,
		factory: connector.NewConnectorFactory(cfg, logger),
	}

	p, err := b.build(ctx)
	if err != nil {
		if closeErr := b.close(); closeErr != nil {
			logger.Warn("Failed to close connections", zap.Error(closeErr))
		}
		return nil, nil, err
	}
	return p, b.close, nil
}

func (b *builder) build(ctx context.Context) (*Pipeline, error) {
	source, err := b.source(ctx)
	if err != nil {
		return nil, err
	}

	store, err := b.store(ctx)
	if err != nil {
		return nil, err
	}

	var pg *connector.PostgresConnector
	if b.cfg.NeedsPostgres() {
		pg, err = b.factory.CreatePostgresConnector(ctx)
		if err != nil {
			return nil, err
		}
		b.closers = append(b.closers, pg.Close)
	}

	trigger, err := b.trigger(ctx, store, pg)
	if err != nil {
		return nil, err
	}

	var recorder cleaner.Recorder = cleaner.NopRecorder{}
	if b.cfg.AuditEnabled {
		recorder, err = cleaner.NewPostgresRecorder(ctx, pg.DB(), b.logger)
		if err != nil {
			return nil, err
		}
	}

	return New(Components{
		Source:   source,
		Store:    store,
		Trigger:  trigger,
		Recorder: recorder,
	}, SettingsFromConfig(b.cfg), b.logger)
}

func (b *builder) source(ctx context.Context) (extract.Source, error) {
	switch b.cfg.Source {
	case config.SourceMockaroo:
		return extract.NewMockarooSource(b.cfg.Mockaroo, b.logger), nil
	case config.SourceFile:
		return extract.NewFileSource(b.cfg.SourceFile, b.logger), nil
	case config.SourceSnowflake:
		sf, err := b.factory.CreateSnowflakeConnector(ctx)
		if err != nil {
			return nil, err
		}
		b.closers = append(b.closers, sf.Close)
		return extract.NewSnowflakeSource(sf, b.cfg.Snowflake.SourceTable, b.logger), nil
	default:
		return nil, fmt.Errorf("unknown source %q", b.cfg.Source)
	}
}

func (b *builder) store(ctx context.Context) (storage.ObjectStore, error) {
	if b.cfg.OutputDir != "" {
		return storage.NewLocalStore(b.cfg.OutputDir, b.logger), nil
	}
	awsCfg, err := b.aws(ctx)
	if err != nil {
		return nil, err
	}
	return storage.NewS3Store(awsCfg, b.cfg.AWS.Bucket, b.logger), nil
}

func (b *builder) trigger(ctx context.Context, store storage.ObjectStore, pg *connector.PostgresConnector) (loader.Trigger, error) {
	switch b.cfg.Loader.Mode {
	case config.LoaderLambda:
		awsCfg, err := b.aws(ctx)
		if err != nil {
			return nil, err
		}
		return loader.NewLambdaTrigger(awsCfg, b.cfg.Loader.FunctionName, b.logger), nil
	case config.LoaderPostgres:
		return loader.NewPostgresLoader(pg.DB(), store, b.logger)
	case config.LoaderNone:
		return loader.NoopTrigger{}, nil
	default:
		return nil, fmt.Errorf("unknown loader mode %q", b.cfg.Loader.Mode)
	}
}

// aws loads the SDK configuration once
func (b *builder) aws(ctx context.Context) (aws.Config, error) {
	if b.awsCfg == nil {
		awsCfg, err := storage.LoadAWSConfig(ctx, b.cfg.AWS)
		if err != nil {
			return aws.Config{}, err
		}
		b.awsCfg = &awsCfg
	}
	return *b.awsCfg, nil
}

func (b *builder) close() error {
	var errs []error
	for i := len(b.closers) - 1; i >= 0; i-- {
		if err := b.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	b.closers = nil
	return errors.Join(errs...)
}

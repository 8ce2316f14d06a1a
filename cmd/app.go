package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	outboundmsg "contractabi/internal/adapter/outbound/messaging"
	"contractabi/internal/adapter/outbound/repository"
	"contractabi/internal/adapter/outbound/selector"
	"contractabi/internal/adapter/outbound/sink"
	"contractabi/internal/adapter/outbound/source"
	"contractabi/internal/adapter/outbound/telemetry"
	"contractabi/internal/application/common/retry"
	"contractabi/internal/application/common/slogger"
	"contractabi/internal/application/service"
	"contractabi/internal/config"
	"contractabi/internal/version"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nats-io/nats.go"
	"github.com/spf13/afero"
)

// appOptions selects which optional backends a command needs.
type appOptions struct {
	store   bool
	publish bool
	format  string
	stdin   io.Reader
	stdout  io.Writer
}

// app holds the wired services and the resources behind them.
type app struct {
	extraction *service.ExtractionService
	batch      *service.BatchExtractionService
	sinks      *sink.Factory
	telemetry  *telemetry.Provider
	publisher  *outboundmsg.NATSABIPublisher
	pool       *pgxpool.Pool
}

// newApp wires services from configuration. PostgreSQL and NATS are only
// connected when opts asks for them.
func newApp(ctx context.Context, cfg *config.Config, opts appOptions) (*app, error) {
	if opts.stdin == nil {
		opts.stdin = os.Stdin
	}
	if opts.stdout == nil {
		opts.stdout = os.Stdout
	}
	if opts.format == "" {
		opts.format = cfg.Output.Format
	}

	a := &app{}
	fs := afero.NewOsFs()
	hasher := selector.NewKeccakHasher()
	sources := source.NewFileProvider(fs, opts.stdin, cfg.Extraction.MaxSourceBytes)
	a.sinks = sink.NewFactory(fs, opts.stdout, opts.format, cfg.Output.Pretty)

	var serviceOpts []service.ExtractionServiceOption

	metrics, err := a.setupMetrics(ctx, cfg)
	if err != nil {
		return nil, err
	}
	serviceOpts = append(serviceOpts, service.WithMetrics(metrics))

	if opts.store {
		pool, err := connectDatabase(ctx, cfg)
		if err != nil {
			a.Close(ctx)
			return nil, err
		}
		a.pool = pool
		serviceOpts = append(serviceOpts, service.WithRepository(repository.NewPostgreSQLABIRepository(pool, hasher)))
	}

	if opts.publish {
		publisher, err := connectPublisher(ctx, cfg)
		if err != nil {
			a.Close(ctx)
			return nil, err
		}
		a.publisher = publisher
		serviceOpts = append(serviceOpts, service.WithPublisher(publisher))
	}

	a.extraction = service.NewExtractionService(cfg.Extraction, sources, hasher, serviceOpts...)
	a.batch = service.NewBatchExtractionService(a.extraction, sources, a.sinks, cfg.Batch, metrics)
	return a, nil
}

func (a *app) setupMetrics(ctx context.Context, cfg *config.Config) (*service.ExtractionMetrics, error) {
	if !cfg.Metrics.Enabled {
		return nil, nil
	}
	provider, err := telemetry.NewProvider(ctx, telemetry.Config{
		ServiceName:    cfg.Metrics.ServiceName,
		ServiceVersion: version.GetVersion().Version,
	})
	if err != nil {
		return nil, fmt.Errorf("setup metrics: %w", err)
	}
	provider.SetGlobal()
	a.telemetry = provider

	metrics, err := service.NewExtractionMetricsWithProvider(provider.MeterProvider())
	if err != nil {
		return nil, fmt.Errorf("setup metrics: %w", err)
	}
	return metrics, nil
}

// isTransientConnectError reports startup failures worth retrying: the server
// is not up yet or did not answer in time.
func isTransientConnectError(err error) bool {
	return errors.Is(err, repository.ErrConnectionFailed) ||
		errors.Is(err, nats.ErrNoServers) ||
		errors.Is(err, nats.ErrTimeout) ||
		errors.Is(err, context.DeadlineExceeded)
}

func connectDatabase(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
	var pool *pgxpool.Pool
	err := retry.Do(ctx, retry.DefaultPolicy(), isTransientConnectError, "connect database", func(ctx context.Context) error {
		var err error
		pool, err = repository.NewDatabaseConnection(ctx, repository.DatabaseConfigFrom(cfg.Database))
		return err
	})
	return pool, err
}

func connectPublisher(ctx context.Context, cfg *config.Config) (*outboundmsg.NATSABIPublisher, error) {
	publisher, err := outboundmsg.NewNATSABIPublisher(cfg.NATS)
	if err != nil {
		return nil, err
	}
	err = retry.Do(ctx, retry.DefaultPolicy(), isTransientConnectError, "connect NATS", func(context.Context) error {
		return publisher.Connect()
	})
	if err != nil {
		return nil, err
	}
	if err := publisher.EnsureStream(); err != nil {
		_ = publisher.Disconnect()
		return nil, err
	}
	return publisher, nil
}

// serveMetrics runs the scrape endpoint in the background when metrics are enabled.
func (a *app) serveMetrics(ctx context.Context, addr string, health telemetry.HealthFunc) {
	if a.telemetry == nil || addr == "" {
		return
	}
	go func() {
		if err := a.telemetry.Serve(ctx, addr, health); err != nil {
			slogger.Error(ctx, "Metrics endpoint failed", slogger.Fields{"error": err.Error()})
		}
	}()
}

// Close releases connections and flushes metrics.
func (a *app) Close(ctx context.Context) {
	if a.publisher != nil {
		_ = a.publisher.Disconnect()
	}
	if a.pool != nil {
		a.pool.Close()
	}
	if a.telemetry != nil {
		if err := a.telemetry.Shutdown(context.WithoutCancel(ctx)); err != nil && !errors.Is(err, context.Canceled) {
			slogger.Warn(ctx, "Metrics shutdown failed", slogger.Fields{"error": err.Error()})
		}
	}
}

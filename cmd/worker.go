package cmd

import (
	"context"
	"time"

	"contractabi/internal/adapter/inbound/messaging"
	"contractabi/internal/adapter/outbound/repository"
	"contractabi/internal/application/common/slogger"
	"contractabi/internal/application/service"

	"github.com/spf13/cobra"
)

const workerShutdownTimeout = 15 * time.Second

// workerFlags holds the worker command flags.
type workerFlags struct {
	publish bool
	store   bool
}

// newWorkerCmd creates and returns the worker command.
func newWorkerCmd() *cobra.Command {
	var flags workerFlags

	cmd := &cobra.Command{
		Use:   "worker",
		Short: "Answer ABI extraction requests from NATS",
		Long: `Start the worker service that answers ABI extraction requests.

The worker:
- Joins the queue group on the extraction request subject (<prefix>.extract.request)
- Extracts the ABI of the source text carried by each request
- Replies with the ABI or a coded error
- Optionally stores ABIs in PostgreSQL and publishes ABI extracted events

Configuration is loaded from config files and environment variables.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runWorkerService(cmd.Context(), flags)
		},
	}

	cmd.Flags().BoolVar(&flags.publish, "publish", true, "publish an ABI extracted event per request")
	cmd.Flags().BoolVar(&flags.store, "store", false, "connect PostgreSQL so requests may ask for storage")
	return cmd
}

// runWorkerService starts the consumer and blocks until ctx is done.
func runWorkerService(ctx context.Context, flags workerFlags) error {
	cfg := GetConfig()

	slogger.Info(ctx, "Starting worker service", slogger.Fields{
		"queue_group": cfg.NATS.QueueGroup,
		"nats_url":    cfg.NATS.URL,
		"publish":     flags.publish,
		"store":       flags.store,
	})

	a, err := newApp(ctx, cfg, appOptions{store: flags.store, publish: flags.publish})
	if err != nil {
		return err
	}
	defer a.Close(ctx)

	handler := service.NewExtractionRequestHandler(a.extraction, flags.publish)
	consumer, err := messaging.NewExtractionRequestConsumer(messaging.ConsumerConfigFrom(cfg), cfg.NATS, handler)
	if err != nil {
		return err
	}
	if err := consumer.Start(ctx); err != nil {
		return err
	}

	a.serveMetrics(ctx, cfg.Metrics.Addr, func() (bool, any) {
		health := consumer.Health()
		healthy := health.IsRunning && health.IsConnected
		details := map[string]any{
			"consumer": health,
			"stats":    consumer.GetStats(),
		}
		if a.publisher != nil {
			publisher := a.publisher.GetConnectionHealth()
			healthy = healthy && publisher.Connected
			details["publisher"] = publisher
			details["messages"] = a.publisher.GetMessageMetrics()
		}
		if a.pool != nil {
			db, err := repository.CollectHealthMetrics(ctx, a.pool)
			if err != nil {
				healthy = false
				details["database"] = err.Error()
			} else {
				details["database"] = db
			}
		}
		return healthy, details
	})

	slogger.Info(ctx, "Worker service started", slogger.Fields{
		"subject":     consumer.Subject(),
		"queue_group": consumer.QueueGroup(),
	})

	<-ctx.Done()
	slogger.Info(ctx, "Shutting down worker service", nil)

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), workerShutdownTimeout)
	defer cancel()
	if err := consumer.Stop(shutdownCtx); err != nil {
		slogger.Error(shutdownCtx, "Failed to stop consumer", slogger.Fields{"error": err.Error()})
		return err
	}

	slogger.Info(shutdownCtx, "Worker service stopped", nil)
	return nil
}

func init() { //nolint:gochecknoinits // Standard Cobra CLI pattern for command registration
	rootCmd.AddCommand(newWorkerCmd())
}

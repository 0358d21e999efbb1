package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/temcen/vendex/internal/messaging"
)

func newWatchCommand(root *rootOptions) *cobra.Command {
	var (
		group         string
		statsInterval time.Duration
	)

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Follow completed comparisons on the event topic",
		Long: `Joins a consumer group on the comparisons topic and prints one line per
comparison.completed event until interrupted. Use a dedicated --group so the
purchase-order prefill consumer keeps its own offsets. With --verbose, consumer
lag and offsets are logged to stderr every --stats-interval.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := root.load()
			if err != nil {
				return err
			}
			if len(cfg.Kafka.Brokers) == 0 {
				return errors.New("kafka.brokers is not configured")
			}

			bus := messaging.NewMessageBus(cfg, logger).WithConsumer(cfg.Kafka.Brokers, group)
			defer bus.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			logger.SetOutput(cmd.ErrOrStderr())
			if statsInterval > 0 {
				go watchConsumerStats(ctx, logger, bus, statsInterval)
			}
			defer reportConsumerStats(logger, bus)

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Watching %s as %s (Ctrl+C to stop)\n", bus.Topic(), group)

			err = bus.ConsumeComparisons(ctx, func(event messaging.ComparisonEvent) error {
				return writeEvent(out, event)
			})
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}

	cmd.Flags().StringVarP(&group, "group", "g", "vendex-watch", "kafka consumer group")
	cmd.Flags().DurationVar(&statsInterval, "stats-interval", 30*time.Second, "how often to log consumer stats with --verbose (0 disables)")
	return cmd
}

type consumerStats interface {
	GetMetrics() map[string]interface{}
}

func watchConsumerStats(ctx context.Context, logger *logrus.Logger, src consumerStats, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			reportConsumerStats(logger, src)
		}
	}
}

func reportConsumerStats(logger *logrus.Logger, src consumerStats) {
	logger.WithFields(logrus.Fields(src.GetMetrics())).Info("Consumer stats")
}

func writeEvent(w io.Writer, event messaging.ComparisonEvent) error {
	_, err := fmt.Fprintf(w, "%s  %s  %s x %g  top=%s @ %.2f (score %.2f, %d vendors, %s)\n",
		event.Timestamp.UTC().Format(time.RFC3339),
		event.ComparisonID,
		event.Material,
		event.Quantity,
		event.TopVendor.Name,
		event.TopVendor.UnitPrice,
		event.TopVendor.TotalScore,
		event.VendorCount,
		event.Profile,
	)
	return err
}

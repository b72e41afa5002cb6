package cli

import (
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/couchcryptid/epi-report-service/internal/adapter/kafka"
)

var errExportDisabled = errors.New("export is disabled: set KAFKA_BROKERS or EXPORT_ENABLED=true")

func newPublishCmd(a *app) *cobra.Command {
	var opts tableOptions
	cmd := &cobra.Command{
		Use:   "publish",
		Short: "Aggregate entity reports and publish every cell to the export topic",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !a.cfg.ExportEnabled {
				return errExportDisabled
			}
			a.wire(nil)
			tbl, err := opts.build(a)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			writer := kafka.NewWriter(a.cfg, nil, a.logger)
			defer func() {
				if err := writer.Close(); err != nil {
					a.logger.Error("kafka writer close error", "error", err)
				}
			}()

			n, err := writer.Publish(ctx, tbl)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "published %d messages to %s\n", n, a.cfg.KafkaTopic)
			return nil
		},
	}
	opts.bind(cmd)
	return cmd
}

// Package cli wires the report components into the reports command.
package cli

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/couchcryptid/epi-report-service/internal/aggregate"
	"github.com/couchcryptid/epi-report-service/internal/annotations"
	"github.com/couchcryptid/epi-report-service/internal/config"
	"github.com/couchcryptid/epi-report-service/internal/dates"
	"github.com/couchcryptid/epi-report-service/internal/observability"
	"github.com/couchcryptid/epi-report-service/internal/paths"
	"github.com/couchcryptid/epi-report-service/internal/report"
	"github.com/couchcryptid/epi-report-service/internal/stats"
)

// app holds the configuration and components shared by every subcommand.
// Components are wired by each command so that only serve registers
// metrics with the default registry.
type app struct {
	cfg    *config.Config
	logger *slog.Logger

	paths  *paths.Resolver
	loader *report.Loader
	engine *aggregate.Engine
	dates  *dates.Service
	stats  *stats.Lookup
}

type rootFlags struct {
	dataDir   string
	logLevel  string
	logFormat string
}

// NewRootCmd builds the reports command tree.
func NewRootCmd() *cobra.Command {
	a := &app{}
	var flags rootFlags

	cmd := &cobra.Command{
		Use:           "reports",
		Short:         "Query, serve and export epidemiological report archives",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			return a.configure(flags)
		},
	}
	cmd.PersistentFlags().StringVar(&flags.dataDir, "data-dir", "", "data root (overrides DATA_DIR)")
	cmd.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "log level (overrides LOG_LEVEL)")
	cmd.PersistentFlags().StringVar(&flags.logFormat, "log-format", "", "json or text (overrides LOG_FORMAT)")

	cmd.AddCommand(
		newServeCmd(a),
		newDatesCmd(a),
		newAggregateCmd(a),
		newValidateCmd(a),
		newPublishCmd(a),
	)
	return cmd
}

// Execute runs the reports command with os.Args.
func Execute() error {
	return NewRootCmd().Execute()
}

func (a *app) configure(flags rootFlags) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if flags.dataDir != "" {
		cfg.DataDir = flags.dataDir
	}
	if flags.logLevel != "" {
		cfg.LogLevel = flags.logLevel
	}
	if flags.logFormat != "" {
		cfg.LogFormat = flags.logFormat
	}
	a.cfg = cfg
	a.logger = observability.NewLogger(cfg)
	return nil
}

// wire builds the core components over the configured data root. metrics
// may be nil.
func (a *app) wire(metrics *observability.Metrics) {
	a.paths = paths.New(a.cfg.DataDir)
	a.loader = report.NewLoader(a.paths, metrics, a.logger)
	a.engine = aggregate.NewEngine(a.loader, metrics, a.logger)
	a.dates = dates.NewService(a.paths, metrics)
	a.stats = stats.NewLookup(a.paths)
}

func (a *app) keyDates() ([]annotations.KeyDate, error) {
	if a.cfg.KeyDatesFile == "" {
		return nil, nil
	}
	kd, err := annotations.Load(a.cfg.KeyDatesFile)
	if err != nil {
		return nil, err
	}
	a.logger.Info("key dates loaded", "path", a.cfg.KeyDatesFile, "count", len(kd))
	return kd, nil
}

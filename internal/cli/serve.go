package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	httpadapter "github.com/couchcryptid/epi-report-service/internal/adapter/http"
	"github.com/couchcryptid/epi-report-service/internal/observability"
)

func newServeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the report API with health, readiness and metrics endpoints",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.serve(cmd.Context())
		},
	}
}

func (a *app) serve(parent context.Context) error {
	a.wire(observability.NewMetrics())
	a.loader.EnableCache(a.cfg.ReportCacheSize)

	keyDates, err := a.keyDates()
	if err != nil {
		return err
	}

	svc := &httpadapter.Services{
		Loader:   a.loader,
		Engine:   a.engine,
		Dates:    a.dates,
		Stats:    a.stats,
		KeyDates: keyDates,
	}
	srv := httpadapter.NewServer(a.cfg.HTTPAddr, svc, a.dates, a.logger)

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errc := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errc:
		return fmt.Errorf("http server: %w", err)
	}
	a.logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("http server shutdown error", "error", err)
	}
	a.logger.Info("shutdown complete")
	return nil
}

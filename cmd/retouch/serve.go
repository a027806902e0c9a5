package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/gogpu/retouch/dispatch"
)

func newServeCommand(g *globals) *cobra.Command {
	var metricsAddr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve JSON-lines commands on stdin/stdout",
		Long: "serve reads one JSON request per line from stdin and writes one JSON response per line to stdout.\n" +
			"Commands: open_image, apply_operation, undo, redo, preview, export_image, history_state, clear.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if !cmd.Flags().Changed("metrics-addr") {
				metricsAddr = g.cfg.MetricsAddr
			}

			eng := g.engine()
			defer eng.Close()
			d := dispatch.New(eng, g.cfg.PreviewConstraints())
			defer d.Close()

			if metricsAddr != "" {
				srv := &http.Server{
					Addr:              metricsAddr,
					Handler:           metricsMux(),
					ReadHeaderTimeout: 5 * time.Second,
				}
				go func() {
					g.logger.Info("metrics listening", "addr", metricsAddr)
					if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
						g.logger.Error("metrics server failed", "error", err)
					}
				}()
				defer func() {
					shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
					defer cancel()
					_ = srv.Shutdown(shutdownCtx)
				}()
			}

			g.logger.Info("serving", "workers", eng.Workers())
			err := d.Serve(ctx, cmd.InOrStdin(), cmd.OutOrStdout(), eng.Workers())
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address (e.g. :9090)")
	return cmd
}

func metricsMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	return mux
}

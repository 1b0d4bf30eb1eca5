package cli

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/lucasnoah/stagetrack/internal/config"
	"github.com/lucasnoah/stagetrack/internal/metrics"
	"github.com/lucasnoah/stagetrack/internal/web"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the tracker registry over a JSON HTTP API",
	Long: `Start an HTTP API holding the tracker registry in memory.

Pipelines from the config file seed the registry at startup. All changes are
lost when the process exits. Prometheus metrics are exposed on /metrics unless
metrics.enabled is false.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadValidConfig()
		if err != nil {
			return err
		}
		if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
			cfg.Server.Addr = addr
		}
		logger, err := newLogger(cmd, cfg)
		if err != nil {
			return err
		}

		reg, err := config.Seed(cfg)
		if err != nil {
			return err
		}

		opts := web.Options{Logger: logger}
		if cfg.MetricsEnabled() {
			promReg := prometheus.NewRegistry()
			promReg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
			mcfg := metrics.DefaultConfig()
			mcfg.Registry = promReg
			mcfg.Namespace = cfg.Metrics.Namespace
			rec, err := metrics.New(mcfg)
			if err != nil {
				return fmt.Errorf("register metrics: %w", err)
			}
			opts.Metrics = rec
			opts.Gatherer = promReg
		}

		ln, err := net.Listen("tcp", cfg.Server.Addr)
		if err != nil {
			return fmt.Errorf("listen %s: %w", cfg.Server.Addr, err)
		}

		srv := &http.Server{
			Handler:     web.NewServer(reg, opts).Handler(),
			ReadTimeout: cfg.ReadTimeout(),
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			logger.Info("stagetrack API listening", "addr", ln.Addr().String(), "trackers", reg.Len())
			if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("serve: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout())
			defer cancel()
			logger.Info("shutting down", "timeout", cfg.ShutdownTimeout())
			return srv.Shutdown(shutdownCtx)
		})
		return g.Wait()
	},
}

func init() {
	serveCmd.Flags().String("addr", "", "Listen address (overrides server.addr)")
}

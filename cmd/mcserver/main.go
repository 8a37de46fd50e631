// Command mcserver runs the protocol server core: it loads configuration,
// wires the session manager and dispatch table, and serves connections
// until interrupted.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/parallelstone/mcserver-core/internal/config"
	"github.com/parallelstone/mcserver-core/internal/handlers"
	"github.com/parallelstone/mcserver-core/internal/manager"
	"github.com/parallelstone/mcserver-core/internal/metrics"
	"github.com/parallelstone/mcserver-core/internal/netcore"
	"github.com/parallelstone/mcserver-core/internal/server"
	"github.com/parallelstone/mcserver-core/internal/session"
)

var configPath string

func main() {
	root := &cobra.Command{
		Use:   "mcserver",
		Short: "Minecraft Java-Edition protocol server core",
		RunE:  run,
	}
	root.Flags().StringVarP(&configPath, "config", "c", "", "path to server.yaml")
	root.Version = "0.1.0"

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := zap.NewProduction()
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	defer log.Sync()

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	deps := &handlers.Deps{
		ProtocolVersion:      cfg.ProtocolVersion,
		VersionName:          cfg.VersionName,
		Motd:                 cfg.Motd,
		MaxPlayers:           cfg.MaxPlayers,
		OnlineMode:           cfg.OnlineMode,
		CompressionThreshold: cfg.CompressionThreshold,
		Metrics:              m,
		Log:                  log,
	}

	srv := server.New(server.Config{
		ListenAddr: cfg.ListenAddr,
		NetcoreOpts: netcore.Options{
			TCPNoDelay:   cfg.TCPNoDelay,
			TCPKeepAlive: cfg.TCPKeepAlive,
		},
		SessionOpts: session.Options{
			MaxPacketSize:    cfg.MaxPacketSize,
			MaxQueuedPackets: cfg.MaxQueuedPackets,
			IdleTimeout:      cfg.IdleTimeout,
			ReadChunkSize:    4096,
		},
		ManagerLimits: manager.Limits{
			MaxSessions: cfg.MaxSessions,
			MaxPerIP:    cfg.MaxPerIP,
			IdleTimeout: cfg.IdleTimeout,
			SweepPeriod: manager.DefaultLimits().SweepPeriod,
		},
	}, log, deps)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
		metricsSrv := &http.Server{Addr: cfg.MetricsAddr, Handler: mux}
		go func() {
			if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Warn("metrics server stopped", zap.Error(err))
			}
		}()
		go func() {
			<-ctx.Done()
			_ = metricsSrv.Close()
		}()
	}

	log.Info("starting mcserver", zap.String("addr", cfg.ListenAddr), zap.String("version", cfg.VersionName))
	return srv.Run(ctx)
}

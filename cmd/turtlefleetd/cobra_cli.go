package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/fenwicklabs/turtlefleet/pkg/audit"
	"github.com/fenwicklabs/turtlefleet/pkg/config"
	"github.com/fenwicklabs/turtlefleet/pkg/fleet"
	"github.com/fenwicklabs/turtlefleet/pkg/health"
	"github.com/fenwicklabs/turtlefleet/pkg/observability"
	"github.com/fenwicklabs/turtlefleet/pkg/server"
	"github.com/fenwicklabs/turtlefleet/pkg/task"
	"github.com/fenwicklabs/turtlefleet/pkg/tui"
	"github.com/fenwicklabs/turtlefleet/pkg/world"
)

var (
	flagAddr       string
	flagLogLevel   string
	flagLogFormat  string
	flagHealthHost string
	flagHealthPort int
)

func newLogger() *slog.Logger {
	level := slog.LevelInfo
	switch flagLogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	opts := &slog.HandlerOptions{Level: level}
	if flagLogFormat == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

func newRootCmd() *cobra.Command {
	cfg := config.Default()

	root := &cobra.Command{
		Use:   "turtlefleetd",
		Short: "turtlefleetd is the command-and-control server for a turtle fleet",
		Long: `turtlefleetd tracks a fleet of remote autonomous agents exploring a shared
3D voxel world, plans paths across it, and composes mining commands on top
of generated routes.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&flagAddr, "addr", cfg.Addr, "HTTP listen address")
	root.PersistentFlags().StringVar(&flagLogLevel, "log-level", cfg.LogLevel, "log level (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&flagLogFormat, "log-format", cfg.LogFormat, "log format (text, json)")
	root.PersistentFlags().StringVar(&flagHealthHost, "health-host", cfg.HealthHost, "liveness/readiness probe bind host")
	root.PersistentFlags().IntVar(&flagHealthPort, "health-port", cfg.HealthPort, "liveness/readiness probe bind port")

	root.AddCommand(newServeCmd(cfg), newDashboardCmd(), newVersionCmd())
	return root
}

func newServeCmd(cfg config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the fleet HTTP boundary",
		RunE: func(cmd *cobra.Command, args []string) error {
			log := newLogger()

			fleetStore := fleet.NewMemoryStore()
			worldModel := world.New()
			metrics := observability.NewRegistry()
			auditLog := audit.NewRingStore(cfg.AuditRingSize)
			planner := task.New(fleetStore, worldModel, metrics, log)

			srv := server.New(flagAddr, fleetStore, worldModel, planner, metrics, auditLog, log)

			healthSrv := health.NewServer(flagHealthHost, flagHealthPort)
			healthSrv.RegisterCheck("fleet_store", func() (bool, string) {
				return fleetStore != nil, "fleet store initialized"
			})
			healthSrv.RegisterCheck("world_model", func() (bool, string) {
				return worldModel != nil, "world model initialized"
			})

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			healthErrc := healthSrv.Start()
			go func() {
				if err := <-healthErrc; err != nil {
					log.Error("health server error", "error", err)
				}
			}()
			healthSrv.SetReady(true)

			go func() {
				<-ctx.Done()
				shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout())
				defer cancel()
				if err := healthSrv.Stop(shutdownCtx); err != nil {
					log.Error("error stopping health server", "error", err)
				}
				if err := srv.Shutdown(shutdownCtx); err != nil {
					log.Error("error during shutdown", "error", err)
				}
			}()

			return srv.Start(ctx)
		},
	}
}

func newDashboardCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dashboard",
		Short: "Launch the terminal dashboard against a running server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return tui.Run("http://" + flagAddr)
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the turtlefleetd version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("turtlefleetd", formatVersion())
		},
	}
}

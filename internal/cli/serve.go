package cli

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/rileyhilliard/televisor/internal/lifecycle"
	"github.com/rileyhilliard/televisor/internal/logger"
	"github.com/rileyhilliard/televisor/internal/server"
	"github.com/rileyhilliard/televisor/internal/televisor"
)

var serveAddrFlag string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the display headless with an HTTP status API",
	Long: `Run the televisor without a terminal UI. The derived display is served
as JSON so a browser or signage player can render it.

Endpoints:
  GET  /healthz                   Liveness and backend connection
  GET  /api/televisor             Current display snapshot
  POST /api/televisor/refresh     Re-fetch the record now
  PUT  /api/televisor/state/:s    Report active, inactive or background

SIGUSR1 sends the display to the background and SIGUSR2 brings it back.

Examples:
  televisor serve
  televisor serve --addr :9090`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return serveCommand(cmd.Context(), serveAddrFlag)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddrFlag, "addr", "", "listen address (overrides server.addr)")
}

// serveCommand runs the headless display until ctx ends.
func serveCommand(ctx context.Context, addr string) error {
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if addr == "" {
		addr = cfg.Server.Addr
	}
	if logFile != "" {
		if err := logToFile(logFile); err != nil {
			return err
		}
	}

	lg := logger.NewEnvLogger("[televisor]")

	client, err := dialWithStatus(ctx, cfg, lg, os.Stderr)
	if err != nil {
		return err
	}
	defer client.Close()

	hub := lifecycle.NewHub()
	store := televisor.NewStore()
	ctrl := newController(cfg, newService(client, cfg, lg), newFeed(cfg, lg), hub, store.Sink(), lg)

	stopSignals := lifecycle.WatchSignals(ctx, hub)
	defer stopSignals()

	srv := server.New(addr, server.Deps{
		Snapshots:   store,
		Transport:   client,
		Refresh:     ctrl.Refresh,
		Transitions: hub,
		Logger:      lg,
	})

	ctrl.Mount(context.WithoutCancel(ctx))
	err = srv.Run(ctx)
	shutdown(hub, ctrl, lg)
	return err
}

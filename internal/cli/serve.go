package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pointy-labs/pointy/internal/config"
	"github.com/pointy-labs/pointy/internal/launcher"
	"github.com/pointy-labs/pointy/internal/server"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var (
	serveAddr     string
	serveNoUpdate bool
	serveNoWatch  bool
)

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (default: listen_addr setting)")
	serveCmd.Flags().BoolVar(&serveNoUpdate, "no-auto-update", false, "Disable periodic extension updates")
	serveCmd.Flags().BoolVar(&serveNoWatch, "no-watch", false, "Do not watch the extensions directory")
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the local API for the launcher UI",
	Long: `Serve the launcher API on listen_addr until interrupted.

The server streams extensions-updated events on /api/events, exposes
Prometheus metrics on /metrics, re-notifies when the extensions directory
changes on disk, and updates extensions every auto_update_interval.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		return withService(func(svc *launcher.Service) error {
			return serve(ctx, svc)
		})
	},
}

func serve(ctx context.Context, svc *launcher.Service) error {
	addr := serveAddr
	if addr == "" {
		addr = config.Current().ListenAddr
	}
	srv := server.New(addr, svc,
		server.WithEvents(svc.Hub()),
		server.WithMetrics(svc.MetricsHandler()),
		server.WithLogger(logger.With().Str("component", "server").Logger()))

	g, ctx := errgroup.WithContext(ctx)
	g.Go(srv.Start)
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	if !serveNoWatch {
		g.Go(func() error { return svc.Watch(ctx) })
	}
	if !serveNoUpdate {
		g.Go(func() error {
			svc.AutoUpdate(ctx)
			return nil
		})
	}

	svc.Notify(ctx)
	logger.Info().Str("addr", addr).Msg("launcher API ready")
	return g.Wait()
}

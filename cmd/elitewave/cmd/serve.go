package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	internalhttp "github.com/digitallive06-cyber/Elite-wave-GO/internal/http"
	"github.com/digitallive06-cyber/Elite-wave-GO/internal/http/handlers"
	"github.com/digitallive06-cyber/Elite-wave-GO/internal/observability"
	"github.com/digitallive06-cyber/Elite-wave-GO/internal/playback"
	"github.com/digitallive06-cyber/Elite-wave-GO/internal/proxy"
	"github.com/digitallive06-cyber/Elite-wave-GO/internal/service/events"
	"github.com/digitallive06-cyber/Elite-wave-GO/internal/version"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the elitewave server",
	Long: `Start the elitewave HTTP server.

The server provides:
- The stream proxy (default /stream-proxy?url=...)
- REST API for profiles, catalog browsing and server-side playback
- A live feed of playback state transitions (Server-Sent Events)
- Health, liveness and readiness endpoints
- Prometheus metrics (default /metrics)
- OpenAPI documentation at /docs`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("host", "0.0.0.0", "Host to bind to")
	serveCmd.Flags().Int("port", 8080, "Port to listen on")
	serveCmd.Flags().String("database", "elitewave.db", "Database DSN (file path for sqlite)")
	serveCmd.Flags().String("public-url", "", "Externally visible stream proxy URL used in rewritten playlists")

	mustBindPFlag("server.host", serveCmd.Flags().Lookup("host"))
	mustBindPFlag("server.port", serveCmd.Flags().Lookup("port"))
	mustBindPFlag("database.dsn", serveCmd.Flags().Lookup("database"))
	mustBindPFlag("proxy.public_url", serveCmd.Flags().Lookup("public-url"))
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := slog.Default()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	profiles, db, err := openProfiles(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Warn("failed to close database", slog.String("error", err.Error()))
		}
	}()

	proxyService := proxy.New(cfg.Proxy, proxy.WithLogger(logger))
	feed := events.New(events.DefaultMaxEvents)
	player := newPlayer(cfg, observability.WithComponent(logger, "playback"), cfg.PlayerProxyEndpoint(), feed.Record)

	server := internalhttp.NewServer(cfg.Server, logger, version.Version, cfg.Proxy.Path)

	handlers.NewHealthHandler(version.Version).
		WithDB(db).
		WithPlayer(player).
		Register(server.API())

	// Documentation first: the raw routes registered afterwards replace
	// the huma handlers on the same path.
	streamProxyHandler := handlers.NewStreamProxyHandler(proxyService, cfg.Proxy.Path)
	streamProxyHandler.Register(server.API())
	streamProxyHandler.RegisterChiRoutes(server.Router())

	handlers.NewProfileHandler(profiles).Register(server.API())
	handlers.NewCatalogHandler(profiles, cfg.PlayerProxyEndpoint()).Register(server.API())
	handlers.NewPlaybackHandler(player, profiles).Register(server.API())

	eventsHandler := handlers.NewPlaybackEventsHandler(feed)
	eventsHandler.Register(server.API())
	eventsHandler.RegisterChiRoutes(server.Router())

	if cfg.Metrics.Enabled {
		handlers.NewMetricsHandler(cfg.Metrics.Path).RegisterChiRoutes(server.Router())
	}

	logger.Info("starting elitewave server",
		slog.String("address", cfg.Server.Address()),
		slog.String("proxy_path", cfg.Proxy.Path),
		slog.String("proxy_endpoint", cfg.PlayerProxyEndpoint()),
		slog.String("database", cfg.Database.Driver),
		slog.String("version", version.Version),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return server.ListenAndServe(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		if err := player.Stop(); err != nil && !errors.Is(err, playback.ErrNoSession) {
			return fmt.Errorf("stopping player: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	logger.Info("elitewave server stopped")
	return nil
}

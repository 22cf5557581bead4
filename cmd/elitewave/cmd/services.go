package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/digitallive06-cyber/Elite-wave-GO/internal/config"
	"github.com/digitallive06-cyber/Elite-wave-GO/internal/database"
	"github.com/digitallive06-cyber/Elite-wave-GO/internal/hlsengine"
	"github.com/digitallive06-cyber/Elite-wave-GO/internal/metrics"
	"github.com/digitallive06-cyber/Elite-wave-GO/internal/playback"
	"github.com/digitallive06-cyber/Elite-wave-GO/internal/repository"
	"github.com/digitallive06-cyber/Elite-wave-GO/internal/service"
)

// openProfiles opens the profile store and returns the service over it.
// The caller closes the returned database.
func openProfiles(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*service.ProfileService, *database.DB, error) {
	db, err := database.Open(ctx, cfg.Database, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("opening database: %w", err)
	}

	profiles := service.NewProfileService(repository.NewProfileRepository(db.DB), cfg.Catalog).
		WithLogger(logger)
	return profiles, db, nil
}

// newPlayer builds a player backed by the HLS engine. An empty
// proxyEndpoint plays streams directly from their origin.
func newPlayer(cfg *config.Config, logger *slog.Logger, proxyEndpoint string, hooks ...func(playback.Transition)) *playback.Player {
	opts := []playback.SessionOption{
		playback.WithLoadTimeout(cfg.Playback.LoadTimeout),
		playback.WithSessionLogger(logger),
		playback.WithTransitionHook(func(tr playback.Transition) {
			metrics.RecordPlaybackTransition(tr.From.String(), tr.To.String())
			for _, hook := range hooks {
				hook(tr)
			}
		}),
	}
	if proxyEndpoint != "" {
		opts = append(opts, playback.WithProxyEndpoint(proxyEndpoint))
	}

	return playback.NewPlayer(hlsengine.NewFactory(hlsengine.WithLogger(logger)), opts...)
}

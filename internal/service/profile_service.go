// Package service provides the business logic behind the API and CLI.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/digitallive06-cyber/Elite-wave-GO/internal/catalog"
	"github.com/digitallive06-cyber/Elite-wave-GO/internal/config"
	"github.com/digitallive06-cyber/Elite-wave-GO/internal/models"
	"github.com/digitallive06-cyber/Elite-wave-GO/internal/observability"
	"github.com/digitallive06-cyber/Elite-wave-GO/internal/repository"
	"github.com/digitallive06-cyber/Elite-wave-GO/pkg/xtream"
)

// Profile service errors.
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrProfileNotFound    = errors.New("profile not found")
	ErrProfileExists      = errors.New("a profile with this name already exists")
)

// ProfileService manages saved panel accounts and connects them to the
// catalog.
type ProfileService struct {
	repo        repository.ProfileRepository
	catalogCfg  config.CatalogConfig
	catalogOpts []catalog.Option
	logger      *slog.Logger
}

// NewProfileService creates a profile service. opts are applied to every
// catalog service it builds.
func NewProfileService(repo repository.ProfileRepository, cfg config.CatalogConfig, opts ...catalog.Option) *ProfileService {
	return &ProfileService{
		repo:        repo,
		catalogCfg:  cfg,
		catalogOpts: opts,
		logger:      slog.Default(),
	}
}

// WithLogger sets the logger for the service.
func (s *ProfileService) WithLogger(logger *slog.Logger) *ProfileService {
	s.logger = observability.WithComponent(logger, "profiles")
	return s
}

// Save validates a profile, checks its credentials against the panel and
// stores it. Profiles with a zero ID are created, others updated.
func (s *ProfileService) Save(ctx context.Context, profile *models.Profile) error {
	profile.Normalize()
	if err := profile.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	existing, err := s.repo.GetByName(ctx, profile.Name)
	if err != nil {
		return fmt.Errorf("checking profile name: %w", err)
	}
	if existing != nil && existing.ID != profile.ID {
		return ErrProfileExists
	}

	if !profile.ID.IsZero() {
		current, err := s.repo.GetByID(ctx, profile.ID)
		if err != nil {
			return fmt.Errorf("getting profile: %w", err)
		}
		if current == nil {
			return ErrProfileNotFound
		}
	}

	if _, err := s.authenticate(ctx, profile); err != nil {
		return err
	}
	now := models.Now()
	profile.LastConnectedAt = &now

	if profile.ID.IsZero() {
		if err := s.repo.Create(ctx, profile); err != nil {
			return fmt.Errorf("creating profile: %w", err)
		}
		s.logger.InfoContext(ctx, "created profile",
			slog.String("id", profile.ID.String()),
			slog.String("name", profile.Name),
		)
		return nil
	}

	if err := s.repo.Update(ctx, profile); err != nil {
		return fmt.Errorf("updating profile: %w", err)
	}
	s.logger.InfoContext(ctx, "updated profile",
		slog.String("id", profile.ID.String()),
		slog.String("name", profile.Name),
	)
	return nil
}

// Get returns a profile by ID.
func (s *ProfileService) Get(ctx context.Context, id models.ULID) (*models.Profile, error) {
	profile, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("getting profile: %w", err)
	}
	if profile == nil {
		return nil, ErrProfileNotFound
	}
	return profile, nil
}

// Find returns a profile by ID or, failing that, by name.
func (s *ProfileService) Find(ctx context.Context, ref string) (*models.Profile, error) {
	if id, err := models.ParseULID(ref); err == nil {
		profile, err := s.repo.GetByID(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("getting profile: %w", err)
		}
		if profile != nil {
			return profile, nil
		}
	}

	profile, err := s.repo.GetByName(ctx, ref)
	if err != nil {
		return nil, fmt.Errorf("getting profile by name: %w", err)
	}
	if profile == nil {
		return nil, ErrProfileNotFound
	}
	return profile, nil
}

// List returns every profile ordered by name.
func (s *ProfileService) List(ctx context.Context) ([]*models.Profile, error) {
	profiles, err := s.repo.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing profiles: %w", err)
	}
	return profiles, nil
}

// Delete removes a profile.
func (s *ProfileService) Delete(ctx context.Context, id models.ULID) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("deleting profile: %w", err)
	}
	s.logger.InfoContext(ctx, "deleted profile", slog.String("id", id.String()))
	return nil
}

// Connect loads a profile, authenticates it and returns a catalog scoped to
// it. opts are applied after the service-wide catalog options.
func (s *ProfileService) Connect(ctx context.Context, id models.ULID, opts ...catalog.Option) (svc *catalog.Service, err error) {
	done := observability.TimedOperationWithError(ctx, s.logger, "connect_profile", &err)
	defer done()

	profile, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	svc, err = s.authenticate(ctx, profile, opts...)
	if err != nil {
		return nil, err
	}

	if err := s.repo.TouchConnected(ctx, profile.ID); err != nil {
		s.logger.WarnContext(ctx, "failed to record profile connection",
			slog.String("id", profile.ID.String()),
			slog.String("error", err.Error()),
		)
	}
	return svc, nil
}

func (s *ProfileService) authenticate(ctx context.Context, profile *models.Profile, opts ...catalog.Option) (*catalog.Service, error) {
	all := make([]catalog.Option, 0, len(s.catalogOpts)+len(opts)+1)
	all = append(all, catalog.WithLogger(s.logger))
	all = append(all, s.catalogOpts...)
	all = append(all, opts...)

	svc := catalog.New(catalog.Account{
		ServerURL: profile.ServerURL,
		Username:  profile.Username,
		Password:  profile.Password,
	}, s.catalogCfg, all...)

	if _, err := svc.Authenticate(ctx); err != nil {
		if errors.Is(err, xtream.ErrInvalidCredentials) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("authenticating profile: %w", err)
	}
	return svc, nil
}

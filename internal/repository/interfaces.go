// Package repository defines data access interfaces for elitewave entities.
// All database access goes through these interfaces so services can be
// tested against an in-memory database.
package repository

import (
	"context"

	"github.com/digitallive06-cyber/Elite-wave-GO/internal/models"
)

// ProfileRepository defines operations for profile persistence.
type ProfileRepository interface {
	// Create creates a new profile.
	Create(ctx context.Context, profile *models.Profile) error
	// GetByID retrieves a profile by ID.
	GetByID(ctx context.Context, id models.ULID) (*models.Profile, error)
	// GetByName retrieves a profile by name.
	GetByName(ctx context.Context, name string) (*models.Profile, error)
	// GetAll retrieves all profiles ordered by name.
	GetAll(ctx context.Context) ([]*models.Profile, error)
	// Update updates an existing profile.
	Update(ctx context.Context, profile *models.Profile) error
	// TouchConnected sets the last connected timestamp.
	TouchConnected(ctx context.Context, id models.ULID) error
	// Delete deletes a profile by ID.
	Delete(ctx context.Context, id models.ULID) error
}

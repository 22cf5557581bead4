package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/digitallive06-cyber/Elite-wave-GO/internal/models"
)

// profileRepo implements ProfileRepository using GORM.
type profileRepo struct {
	db *gorm.DB
}

// NewProfileRepository creates a new ProfileRepository.
func NewProfileRepository(db *gorm.DB) *profileRepo {
	return &profileRepo{db: db}
}

// Create creates a new profile.
func (r *profileRepo) Create(ctx context.Context, profile *models.Profile) error {
	if err := r.db.WithContext(ctx).Create(profile).Error; err != nil {
		return fmt.Errorf("creating profile: %w", err)
	}
	return nil
}

// GetByID retrieves a profile by ID. A missing profile yields nil, nil.
func (r *profileRepo) GetByID(ctx context.Context, id models.ULID) (*models.Profile, error) {
	var profile models.Profile
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&profile).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("getting profile by ID: %w", err)
	}
	return &profile, nil
}

// GetByName retrieves a profile by name. A missing profile yields nil, nil.
func (r *profileRepo) GetByName(ctx context.Context, name string) (*models.Profile, error) {
	var profile models.Profile
	if err := r.db.WithContext(ctx).Where("name = ?", name).First(&profile).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("getting profile by name: %w", err)
	}
	return &profile, nil
}

// GetAll retrieves every profile ordered by name.
func (r *profileRepo) GetAll(ctx context.Context) ([]*models.Profile, error) {
	var profiles []*models.Profile
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&profiles).Error; err != nil {
		return nil, fmt.Errorf("getting all profiles: %w", err)
	}
	return profiles, nil
}

// Update saves every field of an existing profile.
func (r *profileRepo) Update(ctx context.Context, profile *models.Profile) error {
	if err := r.db.WithContext(ctx).Save(profile).Error; err != nil {
		return fmt.Errorf("updating profile: %w", err)
	}
	return nil
}

// TouchConnected records a successful connection.
func (r *profileRepo) TouchConnected(ctx context.Context, id models.ULID) error {
	err := r.db.WithContext(ctx).Model(&models.Profile{}).
		Where("id = ?", id).
		Update("last_connected_at", models.Now()).Error
	if err != nil {
		return fmt.Errorf("updating profile last connected: %w", err)
	}
	return nil
}

// Delete permanently removes a profile by ID so its name can be reused.
func (r *profileRepo) Delete(ctx context.Context, id models.ULID) error {
	if err := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Profile{}).Error; err != nil {
		return fmt.Errorf("deleting profile: %w", err)
	}
	return nil
}

// Ensure profileRepo implements ProfileRepository at compile time.
var _ ProfileRepository = (*profileRepo)(nil)

package repository

import (
	"context"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/digitallive06-cyber/Elite-wave-GO/internal/models"
)

func setupProfileTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Profile{}))

	return db
}

func newProfile(name string) *models.Profile {
	return &models.Profile{
		Name:      name,
		ServerURL: "http://panel.example.com",
		Username:  "alice",
		Password:  "hunter2",
	}
}

func TestProfileRepo_Create(t *testing.T) {
	repo := NewProfileRepository(setupProfileTestDB(t))
	ctx := context.Background()

	profile := newProfile("Home")
	require.NoError(t, repo.Create(ctx, profile))
	assert.False(t, profile.ID.IsZero())

	// Names are unique.
	assert.Error(t, repo.Create(ctx, newProfile("Home")))
}

func TestProfileRepo_GetByID(t *testing.T) {
	repo := NewProfileRepository(setupProfileTestDB(t))
	ctx := context.Background()

	profile := newProfile("Home")
	require.NoError(t, repo.Create(ctx, profile))

	t.Run("found", func(t *testing.T) {
		found, err := repo.GetByID(ctx, profile.ID)
		require.NoError(t, err)
		require.NotNil(t, found)
		assert.Equal(t, "Home", found.Name)
		assert.Equal(t, "hunter2", found.Password)
	})

	t.Run("not found", func(t *testing.T) {
		found, err := repo.GetByID(ctx, models.NewULID())
		require.NoError(t, err)
		assert.Nil(t, found)
	})
}

func TestProfileRepo_GetByName(t *testing.T) {
	repo := NewProfileRepository(setupProfileTestDB(t))
	ctx := context.Background()
	require.NoError(t, repo.Create(ctx, newProfile("Office")))

	found, err := repo.GetByName(ctx, "Office")
	require.NoError(t, err)
	require.NotNil(t, found)

	missing, err := repo.GetByName(ctx, "Cabin")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestProfileRepo_GetAll_OrderedByName(t *testing.T) {
	repo := NewProfileRepository(setupProfileTestDB(t))
	ctx := context.Background()

	for _, name := range []string{"Zulu", "Alpha", "Mike"} {
		require.NoError(t, repo.Create(ctx, newProfile(name)))
	}

	profiles, err := repo.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, profiles, 3)
	assert.Equal(t, "Alpha", profiles[0].Name)
	assert.Equal(t, "Mike", profiles[1].Name)
	assert.Equal(t, "Zulu", profiles[2].Name)
}

func TestProfileRepo_UpdateAndTouch(t *testing.T) {
	repo := NewProfileRepository(setupProfileTestDB(t))
	ctx := context.Background()

	profile := newProfile("Home")
	require.NoError(t, repo.Create(ctx, profile))

	profile.ServerURL = "https://panel2.example.com"
	require.NoError(t, repo.Update(ctx, profile))
	require.NoError(t, repo.TouchConnected(ctx, profile.ID))

	found, err := repo.GetByID(ctx, profile.ID)
	require.NoError(t, err)
	assert.Equal(t, "https://panel2.example.com", found.ServerURL)
	require.NotNil(t, found.LastConnectedAt)
}

func TestProfileRepo_Delete(t *testing.T) {
	repo := NewProfileRepository(setupProfileTestDB(t))
	ctx := context.Background()

	profile := newProfile("Home")
	require.NoError(t, repo.Create(ctx, profile))
	require.NoError(t, repo.Delete(ctx, profile.ID))

	found, err := repo.GetByID(ctx, profile.ID)
	require.NoError(t, err)
	assert.Nil(t, found)

	profiles, err := repo.GetAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, profiles)

	// The name is free again.
	require.NoError(t, repo.Create(ctx, newProfile("Home")))
}

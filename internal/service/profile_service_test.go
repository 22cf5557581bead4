package service

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/digitallive06-cyber/Elite-wave-GO/internal/catalog"
	"github.com/digitallive06-cyber/Elite-wave-GO/internal/config"
	"github.com/digitallive06-cyber/Elite-wave-GO/internal/models"
	"github.com/digitallive06-cyber/Elite-wave-GO/internal/observability"
	"github.com/digitallive06-cyber/Elite-wave-GO/internal/repository"
	"github.com/digitallive06-cyber/Elite-wave-GO/pkg/httpclient"
	"github.com/digitallive06-cyber/Elite-wave-GO/pkg/xtream"
)

// newPanel accepts alice/hunter2 and lists two live channels.
func newPanel(t *testing.T) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("username") != "alice" || q.Get("password") != "hunter2" {
			_, _ = w.Write([]byte(`{"user_info":{"auth":0}}`))
			return
		}
		switch q.Get("action") {
		case "":
			_, _ = w.Write([]byte(`{"user_info":{"auth":1,"status":"Active"}}`))
		case "get_live_streams":
			_ = json.NewEncoder(w).Encode([]map[string]any{
				{"name": "One", "stream_id": 1},
				{"name": "Two", "stream_id": 2},
			})
		default:
			http.Error(w, "unsupported", http.StatusBadRequest)
		}
	}))
	t.Cleanup(server.Close)
	return server
}

func setupProfileService(t *testing.T, logBuf *bytes.Buffer) *ProfileService {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Profile{}))

	httpCfg := httpclient.DefaultConfig()
	httpCfg.RetryAttempts = 0

	svc := NewProfileService(repository.NewProfileRepository(db), config.CatalogConfig{},
		catalog.WithHTTPClient(httpclient.New(httpCfg)))
	if logBuf != nil {
		svc.WithLogger(observability.NewLoggerWithWriter(config.LoggingConfig{Level: "debug", Format: "json"}, logBuf))
	}
	return svc
}

func TestProfileService_Save(t *testing.T) {
	panel := newPanel(t)
	var logs bytes.Buffer
	svc := setupProfileService(t, &logs)
	ctx := context.Background()

	profile := &models.Profile{Name: " Home ", ServerURL: panel.URL + "/", Username: "alice", Password: "hunter2"}
	require.NoError(t, svc.Save(ctx, profile))

	assert.False(t, profile.ID.IsZero())
	assert.Equal(t, "Home", profile.Name)
	assert.Equal(t, panel.URL, profile.ServerURL)
	assert.NotNil(t, profile.LastConnectedAt)
	assert.NotContains(t, logs.String(), "hunter2")

	profiles, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, profiles, 1)

	// Updating keeps the ID.
	id := profile.ID
	profile.Name = "Living room"
	require.NoError(t, svc.Save(ctx, profile))
	assert.Equal(t, id, profile.ID)

	got, err := svc.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Living room", got.Name)
}

func TestProfileService_Save_InvalidCredentials(t *testing.T) {
	panel := newPanel(t)
	svc := setupProfileService(t, nil)
	ctx := context.Background()

	err := svc.Save(ctx, &models.Profile{Name: "Home", ServerURL: panel.URL, Username: "alice", Password: "wrong"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	profiles, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, profiles)
}

func TestProfileService_Save_Validation(t *testing.T) {
	svc := setupProfileService(t, nil)

	err := svc.Save(context.Background(), &models.Profile{Name: "Home", ServerURL: "http://panel"})
	var verr models.ErrValidation
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "credentials", verr.Field)
}

func TestProfileService_Save_DuplicateName(t *testing.T) {
	panel := newPanel(t)
	svc := setupProfileService(t, nil)
	ctx := context.Background()

	require.NoError(t, svc.Save(ctx, &models.Profile{Name: "Home", ServerURL: panel.URL, Username: "alice", Password: "hunter2"}))
	err := svc.Save(ctx, &models.Profile{Name: "Home", ServerURL: panel.URL, Username: "alice", Password: "hunter2"})
	assert.ErrorIs(t, err, ErrProfileExists)
}

func TestProfileService_Save_UnknownID(t *testing.T) {
	panel := newPanel(t)
	svc := setupProfileService(t, nil)

	profile := &models.Profile{Name: "Home", ServerURL: panel.URL, Username: "alice", Password: "hunter2"}
	profile.ID = models.NewULID()
	assert.ErrorIs(t, svc.Save(context.Background(), profile), ErrProfileNotFound)
}

func TestProfileService_Save_PanelDown(t *testing.T) {
	panel := newPanel(t)
	url := panel.URL
	panel.Close()

	svc := setupProfileService(t, nil)
	err := svc.Save(context.Background(), &models.Profile{Name: "Home", ServerURL: url, Username: "alice", Password: "hunter2"})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidCredentials)
	assert.ErrorContains(t, err, "authenticating profile")
}

func TestProfileService_Connect(t *testing.T) {
	panel := newPanel(t)
	svc := setupProfileService(t, nil)
	ctx := context.Background()

	profile := &models.Profile{Name: "Home", ServerURL: panel.URL, Username: "alice", Password: "hunter2"}
	require.NoError(t, svc.Save(ctx, profile))

	cat, err := svc.Connect(ctx, profile.ID, catalog.WithProxyEndpoint("http://tv.local/stream-proxy"))
	require.NoError(t, err)

	channels, err := cat.LiveChannels(ctx, "")
	require.NoError(t, err)
	require.Len(t, channels, 2)
	assert.Contains(t, channels[0].URL, "http://tv.local/stream-proxy?url=")

	_, err = svc.Connect(ctx, models.NewULID())
	assert.ErrorIs(t, err, ErrProfileNotFound)
}

func TestProfileService_Connect_CredentialsRevoked(t *testing.T) {
	panel := newPanel(t)
	svc := setupProfileService(t, nil)
	ctx := context.Background()

	profile := &models.Profile{Name: "Home", ServerURL: panel.URL, Username: "alice", Password: "hunter2"}
	require.NoError(t, svc.Save(ctx, profile))

	// Change the stored password behind the service's back.
	profile.Password = "changed"
	require.NoError(t, svc.repo.Update(ctx, profile))

	_, err := svc.Connect(ctx, profile.ID)
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestProfileService_FindAndDelete(t *testing.T) {
	panel := newPanel(t)
	svc := setupProfileService(t, nil)
	ctx := context.Background()

	profile := &models.Profile{Name: "Home", ServerURL: panel.URL, Username: "alice", Password: "hunter2"}
	require.NoError(t, svc.Save(ctx, profile))

	byID, err := svc.Find(ctx, profile.ID.String())
	require.NoError(t, err)
	assert.Equal(t, profile.ID, byID.ID)

	byName, err := svc.Find(ctx, "Home")
	require.NoError(t, err)
	assert.Equal(t, profile.ID, byName.ID)

	_, err = svc.Find(ctx, "Cabin")
	assert.ErrorIs(t, err, ErrProfileNotFound)

	require.NoError(t, svc.Delete(ctx, profile.ID))
	assert.ErrorIs(t, svc.Delete(ctx, profile.ID), ErrProfileNotFound)
}

func TestInvalidCredentialsIsNotVendorError(t *testing.T) {
	assert.NotErrorIs(t, ErrInvalidCredentials, xtream.ErrInvalidCredentials)
}

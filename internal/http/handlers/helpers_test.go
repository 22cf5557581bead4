package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/digitallive06-cyber/Elite-wave-GO/internal/catalog"
	"github.com/digitallive06-cyber/Elite-wave-GO/internal/config"
	"github.com/digitallive06-cyber/Elite-wave-GO/internal/playback"
	"github.com/digitallive06-cyber/Elite-wave-GO/internal/repository"
	"github.com/digitallive06-cyber/Elite-wave-GO/internal/service"
	"github.com/digitallive06-cyber/Elite-wave-GO/pkg/httpclient"
)

// stubEngine accepts every load and never reports events.
type stubEngine struct{}

func (stubEngine) Load(string) error  { return nil }
func (stubEngine) StartLoad()         {}
func (stubEngine) RecoverMediaError() {}
func (stubEngine) Destroy()           {}

func stubEngineFactory(playback.EngineEvents) playback.Engine { return stubEngine{} }

// newPanel serves a small Xtream panel for alice/hunter2 with two live
// channels and a two-programme guide for channel 1.
func newPanel(t *testing.T, guideStart int64) *httptest.Server {
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
		case "get_live_categories":
			_, _ = w.Write([]byte(`[{"category_id":"7","category_name":"News","parent_id":0}]`))
		case "get_live_streams":
			_ = json.NewEncoder(w).Encode([]map[string]any{
				{"name": "One", "stream_id": 1, "category_id": "7"},
				{"name": "Two", "stream_id": "2", "category_id": "7", "direct_source": "http://cdn.test/two.m3u8"},
			})
		case "get_short_epg":
			if q.Get("stream_id") != "1" {
				http.Error(w, "no guide", http.StatusInternalServerError)
				return
			}
			_ = json.NewEncoder(w).Encode(map[string]any{
				"epg_listings": []map[string]any{
					{"title": "TW9ybmluZw==", "start_timestamp": guideStart, "stop_timestamp": guideStart + 3600},
					{"title": "Tm9vbg==", "start_timestamp": guideStart + 3600, "stop_timestamp": guideStart + 7200},
				},
			})
		default:
			http.Error(w, "unsupported", http.StatusBadRequest)
		}
	}))
	t.Cleanup(server.Close)
	return server
}

func newProfileService(t *testing.T) *service.ProfileService {
	t.Helper()

	httpCfg := httpclient.DefaultConfig()
	httpCfg.RetryAttempts = 0

	return service.NewProfileService(
		repository.NewProfileRepository(newTestDB(t).DB),
		config.CatalogConfig{EPGLimit: catalog.DefaultGuideLimit},
		catalog.WithHTTPClient(httpclient.New(httpCfg)),
	)
}

// newTestAPI returns a chi router with a huma API mounted on it.
func newTestAPI() (*chi.Mux, huma.API) {
	router := chi.NewRouter()
	return router, humachi.New(router, huma.DefaultConfig("elitewave test", "1.0.0"))
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}

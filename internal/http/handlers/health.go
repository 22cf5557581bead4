package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/digitallive06-cyber/Elite-wave-GO/internal/database"
	"github.com/digitallive06-cyber/Elite-wave-GO/internal/playback"
)

// slowPing marks the profile store as slow in /health.
const slowPing = 100 * time.Millisecond

// HealthHandler serves /health, /livez and /readyz. The database and the
// player are optional; absent ones are reported, never treated as faults.
type HealthHandler struct {
	version string
	started time.Time
	db      *database.DB
	player  *playback.Player
}

func NewHealthHandler(version string) *HealthHandler {
	return &HealthHandler{version: version, started: time.Now()}
}

// WithDB adds the profile store to the checks.
func (h *HealthHandler) WithDB(db *database.DB) *HealthHandler {
	h.db = db
	return h
}

// WithPlayer adds the server-side player to the checks.
func (h *HealthHandler) WithPlayer(player *playback.Player) *HealthHandler {
	h.player = player
	return h
}

type (
	HealthInput struct{}
	LivezInput  struct{}
	ReadyzInput struct{}
)

type HealthOutput struct {
	Body HealthResponse
}

type LivezOutput struct {
	Body struct {
		Status string `json:"status"`
	}
}

type ReadyzOutput struct {
	Body struct {
		Status     string            `json:"status"`
		Components map[string]string `json:"components"`
	}
}

func (h *HealthHandler) Register(api huma.API) {
	system := []string{"System"}
	huma.Register(api, huma.Operation{
		OperationID: "getHealth",
		Method:      http.MethodGet,
		Path:        "/health",
		Summary:     "Health check",
		Description: "Service status with host load, memory, profile store and player state",
		Tags:        system,
	}, h.GetHealth)
	huma.Register(api, huma.Operation{
		OperationID: "getLivez",
		Method:      http.MethodGet,
		Path:        "/livez",
		Summary:     "Liveness probe",
		Tags:        system,
	}, h.GetLivez)
	huma.Register(api, huma.Operation{
		OperationID: "getReadyz",
		Method:      http.MethodGet,
		Path:        "/readyz",
		Summary:     "Readiness probe",
		Description: "Ready once the profile store answers a ping",
		Tags:        system,
	}, h.GetReadyz)
}

func (h *HealthHandler) GetHealth(ctx context.Context, _ *HealthInput) (*HealthOutput, error) {
	now := time.Now()
	up := now.Sub(h.started)
	db := h.databaseHealth(ctx)
	player := h.playbackHealth()

	return &HealthOutput{Body: HealthResponse{
		Status:        "healthy",
		Timestamp:     now.UTC().Format(time.RFC3339),
		Version:       h.version,
		Uptime:        up.Round(time.Second).String(),
		UptimeSeconds: up.Seconds(),
		CPUInfo:       cpuInfo(ctx),
		Memory:        memoryInfo(ctx),
		Components:    HealthComponents{Database: db, Playback: player},
		Checks:        map[string]string{"database": db.Status, "playback": player.Status},
	}}, nil
}

func (h *HealthHandler) GetLivez(context.Context, *LivezInput) (*LivezOutput, error) {
	out := &LivezOutput{}
	out.Body.Status = "ok"
	return out, nil
}

// GetReadyz answers 200 in every case; Status carries the verdict.
func (h *HealthHandler) GetReadyz(ctx context.Context, _ *ReadyzInput) (*ReadyzOutput, error) {
	out := &ReadyzOutput{}
	out.Body.Status = "not_ready"
	out.Body.Components = map[string]string{"database": "not_configured", "proxy": "ok"}

	switch {
	case h.db == nil:
	case h.db.Ping(ctx) != nil:
		out.Body.Components["database"] = "error"
	default:
		out.Body.Components["database"] = "ok"
		out.Body.Status = "ready"
	}
	return out, nil
}

func (h *HealthHandler) databaseHealth(ctx context.Context) DatabaseHealth {
	if h.db == nil {
		return DatabaseHealth{Status: "unknown"}
	}
	pool, err := h.db.Check(ctx)
	out := DatabaseHealth{
		Status:            "ok",
		Driver:            pool.Driver,
		ResponseTimeMS:    float64(pool.PingTime.Microseconds()) / 1000,
		ActiveConnections: pool.InUse,
		IdleConnections:   pool.Idle,
	}
	if err != nil {
		out.Status = "error"
	} else if pool.PingTime > slowPing {
		out.Status = "slow"
	}
	return out
}

func (h *HealthHandler) playbackHealth() PlaybackHealth {
	if h.player == nil {
		return PlaybackHealth{Status: "disabled"}
	}
	snap, err := h.player.Snapshot()
	if errors.Is(err, playback.ErrNoSession) {
		return PlaybackHealth{Status: "idle"}
	}
	status := "ok"
	if snap.State == playback.StateError {
		status = "error"
	}
	return PlaybackHealth{Status: status, State: snap.State.String()}
}

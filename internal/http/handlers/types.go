// Package handlers provides HTTP API handlers for elitewave.
package handlers

import (
	"time"

	"github.com/digitallive06-cyber/Elite-wave-GO/internal/catalog"
	"github.com/digitallive06-cyber/Elite-wave-GO/internal/models"
	"github.com/digitallive06-cyber/Elite-wave-GO/pkg/xtream"
)

// Profile types

// ProfileResponse represents a saved panel account in API responses.
// The password is never returned.
type ProfileResponse struct {
	ID              models.ULID `json:"id"`
	CreatedAt       time.Time   `json:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at"`
	Name            string      `json:"name"`
	ServerURL       string      `json:"server_url"`
	Username        string      `json:"username"`
	LastConnectedAt *time.Time  `json:"last_connected_at,omitempty"`
}

// ProfileFromModel converts a model to a response.
func ProfileFromModel(p *models.Profile) ProfileResponse {
	return ProfileResponse{
		ID:              p.ID,
		CreatedAt:       p.CreatedAt,
		UpdatedAt:       p.UpdatedAt,
		Name:            p.Name,
		ServerURL:       p.ServerURL,
		Username:        p.Username,
		LastConnectedAt: p.LastConnectedAt,
	}
}

// CreateProfileRequest is the request body for saving a profile.
type CreateProfileRequest struct {
	Name      string `json:"name" minLength:"1" maxLength:"255" doc:"Display name"`
	ServerURL string `json:"server_url" minLength:"1" doc:"Panel base URL, e.g. http://panel.example.com:8080"`
	Username  string `json:"username" minLength:"1" doc:"Panel username"`
	Password  string `json:"password" minLength:"1" doc:"Panel password"`
}

// ToModel converts the request to a model.
func (r *CreateProfileRequest) ToModel() *models.Profile {
	return &models.Profile{
		Name:      r.Name,
		ServerURL: r.ServerURL,
		Username:  r.Username,
		Password:  r.Password,
	}
}

// Catalog types

// CategoryResponse is one panel category.
type CategoryResponse struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	ParentID int64  `json:"parent_id,omitempty"`
}

// CategoryFromXtream converts a panel category to a response.
func CategoryFromXtream(c xtream.Category) CategoryResponse {
	return CategoryResponse{
		ID:       c.CategoryID.String(),
		Name:     c.CategoryName,
		ParentID: c.ParentID.Int(),
	}
}

// StreamItemResponse is one catalog entry.
type StreamItemResponse struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	IconURL    string `json:"icon_url,omitempty"`
	CategoryID string `json:"category_id,omitempty"`
	Extension  string `json:"extension,omitempty"`
}

// StreamItemFromCatalog converts a catalog item to a response.
func StreamItemFromCatalog(item catalog.Item) StreamItemResponse {
	return StreamItemResponse(item)
}

// ProgramResponse is one decoded guide listing.
type ProgramResponse struct {
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Start       time.Time `json:"start"`
	Stop        time.Time `json:"stop"`
}

// ProgramFromListing converts a decoded listing to a response.
func ProgramFromListing(l xtream.EPGListing) ProgramResponse {
	return ProgramResponse{
		Title:       l.Title,
		Description: l.Description,
		Start:       l.StartTime(),
		Stop:        l.StopTime(),
	}
}

// Health types

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status        string            `json:"status"`
	Timestamp     string            `json:"timestamp"`
	Version       string            `json:"version"`
	Uptime        string            `json:"uptime"`
	UptimeSeconds float64           `json:"uptime_seconds"`
	CPUInfo       CPUInfo           `json:"cpu_info"`
	Memory        MemoryInfo        `json:"memory"`
	Components    HealthComponents  `json:"components"`
	Checks        map[string]string `json:"checks"`
}

// CPUInfo contains load averages for the host.
type CPUInfo struct {
	Cores              int     `json:"cores"`
	Load1Min           float64 `json:"load_1min"`
	Load5Min           float64 `json:"load_5min"`
	Load15Min          float64 `json:"load_15min"`
	LoadPercentage1Min float64 `json:"load_percentage_1min"`
}

// MemoryInfo contains host and process memory usage.
type MemoryInfo struct {
	TotalMemoryMB     float64 `json:"total_memory_mb"`
	UsedMemoryMB      float64 `json:"used_memory_mb"`
	AvailableMemoryMB float64 `json:"available_memory_mb"`
	ProcessMemoryMB   float64 `json:"process_memory_mb"`
	Goroutines        int     `json:"goroutines"`
}

// HealthComponents reports the state of individual subsystems.
type HealthComponents struct {
	Database DatabaseHealth `json:"database"`
	Playback PlaybackHealth `json:"playback"`
}

// DatabaseHealth describes the profile store connection.
type DatabaseHealth struct {
	Status            string  `json:"status"`
	Driver            string  `json:"driver,omitempty"`
	ResponseTimeMS    float64 `json:"response_time_ms"`
	ActiveConnections int     `json:"active_connections"`
	IdleConnections   int     `json:"idle_connections"`
}

// PlaybackHealth describes the headless player, when one is attached.
type PlaybackHealth struct {
	Status string `json:"status"`
	State  string `json:"state,omitempty"`
}

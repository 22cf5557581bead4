// Package config loads elitewave settings from defaults, an optional YAML
// file and ELITEWAVE_ environment variables, in rising precedence.
package config

import (
	"net"
	"strconv"
	"time"
)

// Config is the whole elitewave configuration. Keys are snake_case in
// YAML and map to ELITEWAVE_<SECTION>_<KEY> in the environment.
type Config struct {
	Server   ServerConfig   `mapstructure:"server" yaml:"server"`
	Database DatabaseConfig `mapstructure:"database" yaml:"database"`
	Logging  LoggingConfig  `mapstructure:"logging" yaml:"logging"`
	Proxy    ProxyConfig    `mapstructure:"proxy" yaml:"proxy"`
	Playback PlaybackConfig `mapstructure:"playback" yaml:"playback"`
	Catalog  CatalogConfig  `mapstructure:"catalog" yaml:"catalog"`
	Metrics  MetricsConfig  `mapstructure:"metrics" yaml:"metrics"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host            string        `mapstructure:"host" yaml:"host"`
	Port            int           `mapstructure:"port" yaml:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout" yaml:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout" yaml:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
	CORSOrigins     []string      `mapstructure:"cors_origins" yaml:"cors_origins"`
}

// DatabaseConfig holds database connection configuration.
type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver" yaml:"driver"` // sqlite, postgres, mysql
	DSN             string        `mapstructure:"dsn" yaml:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns" yaml:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns" yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime" yaml:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time" yaml:"conn_max_idle_time"`
	LogLevel        string        `mapstructure:"log_level" yaml:"log_level"` // silent, error, warn, info
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level      string `mapstructure:"level" yaml:"level"`   // trace, debug, info, warn, error
	Format     string `mapstructure:"format" yaml:"format"` // json, text
	AddSource  bool   `mapstructure:"add_source" yaml:"add_source"`
	TimeFormat string `mapstructure:"time_format" yaml:"time_format"`
}

// ProxyConfig holds stream proxy configuration.
type ProxyConfig struct {
	// Path is the route the proxy is mounted on.
	Path string `mapstructure:"path" yaml:"path"`
	// PublicURL overrides the externally visible proxy endpoint used when
	// rewriting playlists. Empty means derive it from the request.
	PublicURL string `mapstructure:"public_url" yaml:"public_url"`
	// UserAgent is sent to stream origins.
	UserAgent             string        `mapstructure:"user_agent" yaml:"user_agent"`
	ResponseHeaderTimeout time.Duration `mapstructure:"response_header_timeout" yaml:"response_header_timeout"`
	// MaxPlaylistSize bounds how much of a playlist is buffered for rewriting.
	// Supports human-readable values like "2MiB" or raw byte counts.
	MaxPlaylistSize ByteSize `mapstructure:"max_playlist_size" yaml:"max_playlist_size"`
}

// PlaybackConfig tunes the player.
type PlaybackConfig struct {
	// LoadTimeout is how long a stream may stay loading before it is
	// treated as a network failure.
	LoadTimeout time.Duration `mapstructure:"load_timeout" yaml:"load_timeout"`
	// ProxyEndpoint is the proxy URL the player routes streams through.
	// Empty means the local server's proxy path.
	ProxyEndpoint string `mapstructure:"proxy_endpoint" yaml:"proxy_endpoint"`
}

// CatalogConfig holds Xtream panel client configuration.
type CatalogConfig struct {
	Timeout           time.Duration `mapstructure:"timeout" yaml:"timeout"`
	RetryAttempts     int           `mapstructure:"retry_attempts" yaml:"retry_attempts"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second" yaml:"requests_per_second"`
	EPGLimit          int           `mapstructure:"epg_limit" yaml:"epg_limit"`
}

// MetricsConfig holds Prometheus metrics configuration.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Path    string `mapstructure:"path" yaml:"path"`
}

// Address is the listen address.
func (c *ServerConfig) Address() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// LocalBaseURL returns a URL clients on this machine can reach the server on.
func (c *ServerConfig) LocalBaseURL() string {
	host := c.Host
	if ip := net.ParseIP(host); host == "" || (ip != nil && ip.IsUnspecified()) {
		host = "localhost"
	}
	return "http://" + net.JoinHostPort(host, strconv.Itoa(c.Port))
}

// PlayerProxyEndpoint returns the proxy endpoint the player should use.
func (c *Config) PlayerProxyEndpoint() string {
	if c.Playback.ProxyEndpoint != "" {
		return c.Playback.ProxyEndpoint
	}
	if c.Proxy.PublicURL != "" {
		return c.Proxy.PublicURL
	}
	return c.Server.LocalBaseURL() + c.Proxy.Path
}

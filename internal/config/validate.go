package config

import (
	"errors"
	"fmt"
	"net/url"
	"slices"
	"strings"
	"time"
)

const (
	maxPort                  = 65535
	maxCatalogRetryAttempts  = 10
	minLoadTimeout           = time.Second
	minResponseHeaderTimeout = time.Second
)

var (
	databaseDrivers = []string{"sqlite", "postgres", "mysql"}
	queryLogLevels  = []string{"", "silent", "error", "warn", "info"}
	logLevels       = []string{"trace", "debug", "info", "warn", "error"}
	logFormats      = []string{"json", "text"}
)

// problems collects every invalid setting so one run reports them all.
type problems []error

func (p *problems) check(ok bool, format string, args ...any) {
	if !ok {
		*p = append(*p, fmt.Errorf(format, args...))
	}
}

func (p *problems) oneOf(key, value string, allowed []string) {
	p.check(slices.Contains(allowed, value), "%s must be one of: %s", key, strings.Join(slices.DeleteFunc(slices.Clone(allowed), func(s string) bool { return s == "" }), ", "))
}

func (p *problems) httpURL(key, value string) {
	p.check(value == "" || isAbsoluteHTTPURL(value), "%s must be an absolute http(s) URL", key)
}

// Validate reports every invalid setting, joined into one error.
func (c *Config) Validate() error {
	var p problems

	p.check(c.Server.Port >= 1 && c.Server.Port <= maxPort, "server.port must be between 1 and %d", maxPort)

	p.oneOf("database.driver", c.Database.Driver, databaseDrivers)
	p.check(c.Database.DSN != "", "database.dsn is required")
	p.check(c.Database.MaxOpenConns >= 1, "database.max_open_conns must be at least 1")
	p.check(c.Database.MaxIdleConns >= 0, "database.max_idle_conns must not be negative")
	p.oneOf("database.log_level", c.Database.LogLevel, queryLogLevels)

	p.oneOf("logging.level", c.Logging.Level, logLevels)
	p.oneOf("logging.format", c.Logging.Format, logFormats)

	p.check(strings.HasPrefix(c.Proxy.Path, "/"), "proxy.path must start with /")
	p.httpURL("proxy.public_url", c.Proxy.PublicURL)
	p.check(c.Proxy.ResponseHeaderTimeout >= minResponseHeaderTimeout, "proxy.response_header_timeout must be at least %s", minResponseHeaderTimeout)
	p.check(c.Proxy.MaxPlaylistSize > 0, "proxy.max_playlist_size must be positive")

	p.check(c.Playback.LoadTimeout >= minLoadTimeout, "playback.load_timeout must be at least %s", minLoadTimeout)
	p.httpURL("playback.proxy_endpoint", c.Playback.ProxyEndpoint)

	p.check(c.Catalog.RetryAttempts >= 0 && c.Catalog.RetryAttempts <= maxCatalogRetryAttempts, "catalog.retry_attempts must be between 0 and %d", maxCatalogRetryAttempts)
	p.check(c.Catalog.RequestsPerSecond >= 0, "catalog.requests_per_second must not be negative")
	p.check(c.Catalog.EPGLimit >= 1, "catalog.epg_limit must be at least 1")

	p.check(!c.Metrics.Enabled || strings.HasPrefix(c.Metrics.Path, "/"), "metrics.path must start with /")

	return errors.Join(p...)
}

func isAbsoluteHTTPURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

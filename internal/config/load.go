package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

// EnvPrefix namespaces environment overrides: server.port is read from
// ELITEWAVE_SERVER_PORT.
const EnvPrefix = "ELITEWAVE"

const browserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// defaults lists every key with its built-in value. Keys absent from this
// table are not picked up from the environment.
var defaults = map[string]any{
	"server.host":             "0.0.0.0",
	"server.port":             8080,
	"server.read_timeout":     30 * time.Second,
	"server.write_timeout":    time.Duration(0),
	"server.shutdown_timeout": 10 * time.Second,
	"server.cors_origins":     []string{"*"},

	"database.driver":             "sqlite",
	"database.dsn":                "elitewave.db",
	"database.max_open_conns":     10,
	"database.max_idle_conns":     5,
	"database.conn_max_lifetime":  time.Hour,
	"database.conn_max_idle_time": 30 * time.Minute,
	"database.log_level":          "warn",

	"logging.level":       "info",
	"logging.format":      "json",
	"logging.add_source":  false,
	"logging.time_format": time.RFC3339,

	"proxy.path":                    "/stream-proxy",
	"proxy.public_url":              "",
	"proxy.user_agent":              browserUserAgent,
	"proxy.response_header_timeout": 20 * time.Second,
	"proxy.max_playlist_size":       "2MiB",

	"playback.load_timeout":   15 * time.Second,
	"playback.proxy_endpoint": "",

	"catalog.timeout":             30 * time.Second,
	"catalog.retry_attempts":      2,
	"catalog.requests_per_second": 5.0,
	"catalog.epg_limit":           4,

	"metrics.enabled": true,
	"metrics.path":    "/metrics",
}

// SetDefaults installs the built-in values on v.
func SetDefaults(v *viper.Viper) {
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
}

// BindEnv makes v read ELITEWAVE_ variables.
func BindEnv(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
}

// AddSearchPaths points v at config.yaml in the working directory, then
// ~/.elitewave, then /etc/elitewave.
func AddSearchPaths(v *viper.Viper) {
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(filepath.Join(home, ".elitewave"))
	}
	v.AddConfigPath("/etc/elitewave")
}

// Load builds the configuration from path, or from the search paths when
// path is empty. A missing file is only an error when path names it.
func Load(path string) (*Config, error) {
	v := viper.New()
	SetDefaults(v)
	if path != "" {
		v.SetConfigFile(path)
	} else {
		AddSearchPaths(v)
	}
	BindEnv(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}
	return FromViper(v)
}

// Defaults is the configuration with nothing but built-in values.
func Defaults() (*Config, error) {
	v := viper.New()
	SetDefaults(v)
	return FromViper(v)
}

// FromViper decodes v into a Config and validates it.
func FromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	hook := mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
		mapstructure.TextUnmarshallerHookFunc(),
	)
	if err := v.Unmarshal(&cfg, viper.DecodeHook(hook)); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return &cfg, nil
}

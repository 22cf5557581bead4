// Package cmd holds the elitewave cobra commands.
package cmd

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/digitallive06-cyber/Elite-wave-GO/internal/config"
	"github.com/digitallive06-cyber/Elite-wave-GO/internal/observability"
	"github.com/digitallive06-cyber/Elite-wave-GO/internal/version"
)

var (
	cfgFile string
	// configReadErr is kept until logging is up so it can be reported.
	configReadErr error
)

var rootCmd = &cobra.Command{
	Use:     version.ApplicationName,
	Short:   "IPTV player, stream proxy and catalog browser",
	Version: version.Short(),
	Long: `elitewave plays live IPTV channels from Xtream Codes panels.

It runs a stream proxy that rewrites HLS playlists so every segment is
fetched through it, keeps saved panel profiles, browses their live, movie
and series catalogs with programme guides, and drives a headless player
that recovers from stream errors on its own.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		setupLogging(cmd.Root().PersistentFlags())
		if configReadErr != nil {
			return fmt.Errorf("reading config file: %w", configReadErr)
		}
		if used := viper.ConfigFileUsed(); used != "" {
			slog.Debug("config file loaded", slog.String("path", used))
		}
		return nil
	},
}

// Execute runs the command named on the command line.
func Execute() error {
	if err := rootCmd.Execute(); err != nil {
		return fmt.Errorf("executing root command: %w", err)
	}
	return nil
}

func init() {
	cobra.OnInitialize(readConfig)

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default ./config.yaml, ~/.elitewave/config.yaml or /etc/elitewave/config.yaml)")
	// Not bound to viper: an unset flag must not shadow env or file values.
	flags.String("log-level", "info", "log level (trace, debug, info, warn, error)")
	flags.String("log-format", "json", "log format (text, json)")
}

// readConfig layers the config file and ELITEWAVE_ variables over the
// defaults in the global viper instance.
func readConfig() {
	v := viper.GetViper()
	config.SetDefaults(v)
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		config.AddSearchPaths(v)
	}
	config.BindEnv(v)

	err := v.ReadInConfig()
	var notFound viper.ConfigFileNotFoundError
	if err != nil && !errors.As(err, &notFound) {
		configReadErr = err
	}
}

// loadConfig decodes and validates the merged configuration.
func loadConfig() (*config.Config, error) {
	cfg, err := config.FromViper(viper.GetViper())
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return cfg, nil
}

// setupLogging installs the default logger. --log-level and --log-format
// win over env and file values only when given explicitly.
func setupLogging(flags *pflag.FlagSet) {
	logCfg := config.LoggingConfig{
		Level:      viper.GetString("logging.level"),
		Format:     viper.GetString("logging.format"),
		AddSource:  viper.GetBool("logging.add_source"),
		TimeFormat: viper.GetString("logging.time_format"),
	}
	if flags.Changed("log-level") {
		logCfg.Level, _ = flags.GetString("log-level")
	}
	if flags.Changed("log-format") {
		logCfg.Format, _ = flags.GetString("log-format")
	}
	logCfg.Level = strings.ToLower(logCfg.Level)
	logCfg.Format = strings.ToLower(logCfg.Format)

	logger := observability.NewLoggerWithWriter(logCfg, os.Stderr)
	observability.SetDefault(observability.WithApp(logger, version.ApplicationName))
}

// mustBindPFlag binds a command flag to a config key.
func mustBindPFlag(key string, flag *pflag.Flag) {
	if err := viper.BindPFlag(key, flag); err != nil {
		panic(fmt.Sprintf("binding flag %q to %q: %v", flag.Name, key, err))
	}
}

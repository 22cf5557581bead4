package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/digitallive06-cyber/Elite-wave-GO/internal/config"
)

var configDumpDefaults bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Configuration management commands",
}

var configDumpCmd = &cobra.Command{
	Use:   "dump",
	Short: "Dump the effective configuration",
	Long: `Dump the configuration in YAML format.

By default this prints the effective configuration: defaults merged with
the config file and ELITEWAVE_ environment variables. With --defaults only
the built-in defaults are printed, which makes a template:

  elitewave config dump --defaults > config.yaml

Environment variables use the ELITEWAVE_ prefix and underscores for nesting.
Example: proxy.public_url -> ELITEWAVE_PROXY_PUBLIC_URL`,
	Args: cobra.NoArgs,
	RunE: runConfigDump,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configDumpCmd)
	configDumpCmd.Flags().BoolVar(&configDumpDefaults, "defaults", false, "print built-in defaults only")
}

func runConfigDump(cmd *cobra.Command, _ []string) error {
	var (
		cfg *config.Config
		err error
	)
	if configDumpDefaults {
		cfg, err = config.Defaults()
	} else {
		cfg, err = loadConfig()
	}
	if err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "# elitewave configuration")
	fmt.Fprintln(out, "# Duration format: 30s, 5m, 1h")
	fmt.Fprintln(out, "# Size format: 2MiB, 512KB")
	fmt.Fprintln(out)
	_, err = out.Write(data)
	return err
}

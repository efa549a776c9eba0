package commands

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var configShowSecrets bool

// ConfigCmd rappresenta il comando config
var ConfigCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration",
	Long: `Print the effective configuration as YAML, after defaults,
config file, environment and credential resolution. Credentials are
masked unless --show-secrets is set.`,
	RunE: runConfig,
}

func init() {
	ConfigCmd.Flags().BoolVar(&configShowSecrets, "show-secrets", false, "Print credentials in clear text")
}

func runConfig(cmd *cobra.Command, args []string) error {
	zerolog.SetGlobalLevel(zerolog.ErrorLevel)

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	out := *cfg
	if !configShowSecrets {
		out = cfg.Masked()
	}

	raw, err := yaml.Marshal(out)
	if err != nil {
		return fmt.Errorf("failed to render config: %w", err)
	}

	fmt.Print(string(raw))
	return nil
}

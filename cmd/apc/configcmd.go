package main

import (
	"github.com/spf13/cobra"

	"github.com/fyrsmithlabs/agent-precommit/internal/config"
)

var configDefault bool

func init() {
	configCmd.Flags().BoolVar(&configDefault, "default", false, "print the built-in default configuration")
	rootCmd.AddCommand(configCmd)
}

// configCmd prints the effective configuration as TOML
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration as TOML",
	Long: `Print the configuration apc would use, as TOML.

Examples:
  # Start a new project configuration from the defaults
  apc config --default > agent-precommit.toml`,
	Args: cobra.NoArgs,
	RunE: runConfig,
}

func runConfig(cmd *cobra.Command, args []string) error {
	cfg := config.Default()
	if !configDefault {
		ws, err := resolveWorkspace()
		if err != nil {
			return err
		}
		cfg = ws.Config
	}
	return config.Encode(cmd.OutOrStdout(), cfg)
}

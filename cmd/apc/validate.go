package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fyrsmithlabs/agent-precommit/internal/config"
	"github.com/fyrsmithlabs/agent-precommit/internal/mode"
	"github.com/fyrsmithlabs/agent-precommit/internal/runner"
)

func init() {
	rootCmd.AddCommand(validateCmd)
}

// validateCmd checks the configuration without running anything
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate " + config.FileName,
	Long: `Parse and validate the configuration, then report each mode's checks.

Exits 78 when the configuration is invalid. A missing pre-commit config
is reported but does not fail validation.`,
	Args: cobra.NoArgs,
	RunE: runValidate,
}

func runValidate(cmd *cobra.Command, args []string) error {
	ws, err := resolveWorkspace()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	cfg := ws.Config

	if cfg.Path == "" {
		fmt.Fprintf(out, "%s no config file found, using built-in defaults\n", warnStyle.Render("!"))
	} else {
		fmt.Fprintf(out, "%s %s: %d checks\n", passStyle.Render("✓"), cfg.Path, len(cfg.Checks))
	}

	for _, m := range mode.All() {
		mc := cfg.Mode(m)
		policy := "aggregate"
		if mc.FailFast {
			policy = "fail-fast"
		}
		fmt.Fprintf(out, "  %-6s %d checks, %d parallel groups, %s\n", m, len(mc.Checks), len(mc.ParallelGroups), dimStyle.Render(policy))
	}

	if cfg.Integration.PreCommit {
		info, err := runner.New(ws).PreCommit()
		if err != nil {
			fmt.Fprintf(out, "%s pre-commit: %v\n", warnStyle.Render("!"), err)
		} else {
			fmt.Fprintf(out, "%s pre-commit: %d repos, %d hooks\n", passStyle.Render("✓"), info.Repos, len(info.Hooks))
			if ids := info.HookIDs(); len(ids) > 0 {
				fmt.Fprintf(out, "  %s\n", dimStyle.Render(strings.Join(ids, ", ")))
			}
		}
	}
	return nil
}

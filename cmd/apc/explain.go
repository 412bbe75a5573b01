package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fyrsmithlabs/agent-precommit/internal/detector"
	"github.com/fyrsmithlabs/agent-precommit/internal/executor"
	"github.com/fyrsmithlabs/agent-precommit/internal/runner"
)

var (
	explainMode string
	explainJSON bool
)

func init() {
	explainCmd.Flags().StringVar(&explainMode, "mode", "", "explain as if this mode were forced")
	explainCmd.Flags().BoolVar(&explainJSON, "json", false, "print as JSON")
	rootCmd.AddCommand(explainCmd)
}

// explainCmd shows the mode decision and the resulting plan
var explainCmd = &cobra.Command{
	Use:     "explain",
	Aliases: []string{"detect"},
	Short:   "Show which mode applies, why, and what would run",
	Args:    cobra.NoArgs,
	RunE:    runExplain,
}

type explainOutput struct {
	Detection detector.Detection `json:"detection"`
	Root      string             `json:"root"`
	Branch    string             `json:"branch,omitempty"`
	Config    string             `json:"config,omitempty"`
	Plan      *executor.Plan     `json:"plan"`
}

func runExplain(cmd *cobra.Command, args []string) error {
	ws, err := resolveWorkspace()
	if err != nil {
		return err
	}

	r := runner.New(ws, runner.WithLogger(logger))
	det, plan, err := r.Plan(runner.RunOptions{Mode: explainMode})
	if err != nil {
		return err
	}

	if explainJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		if err := enc.Encode(explainOutput{
			Detection: det,
			Root:      ws.Root,
			Branch:    ws.Branch,
			Config:    ws.Config.Path,
			Plan:      plan,
		}); err != nil {
			return fmt.Errorf("encoding explanation: %w", err)
		}
		return nil
	}

	renderExplain(cmd.OutOrStdout(), det, ws, plan)
	return nil
}

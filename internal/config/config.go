// Package config loads and validates agent-precommit.toml: the registry of
// checks, the per-mode check lists with their parallel groups and timeouts,
// and the runtime settings read from APC_* environment variables.
package config

import (
	"sort"
	"time"

	"github.com/fyrsmithlabs/agent-precommit/internal/condition"
	"github.com/fyrsmithlabs/agent-precommit/internal/mode"
)

// FileName is the configuration file searched for by Find.
const FileName = "agent-precommit.toml"

// DefaultPreCommitPath is the pre-commit framework config location.
const DefaultPreCommitPath = ".pre-commit-config.yaml"

// Default per-check timeouts by mode.
const (
	DefaultHumanTimeout = 30 * time.Second
	DefaultAgentTimeout = 15 * time.Minute
)

// Config is the validated configuration. It is read-only after Parse.
type Config struct {
	Detection   DetectionConfig
	Integration IntegrationConfig
	Checks      map[string]*CheckDefinition
	Modes       map[mode.Mode]*ModeConfig

	// Path is the file the config was loaded from; empty for Default().
	Path string
}

// DetectionConfig extends mode detection.
type DetectionConfig struct {
	// AgentEnvVars are extra variable names whose presence means Agent mode.
	AgentEnvVars []string
}

// IntegrationConfig controls the pre-commit framework integration.
type IntegrationConfig struct {
	PreCommit     bool
	PreCommitPath string
}

// CheckDefinition is one named verification command.
type CheckDefinition struct {
	Name        string
	Run         string
	Description string
	EnabledIf   condition.Expr
	// Timeout overrides the mode timeout when non-zero.
	Timeout time.Duration
	Env     map[string]string
}

// ModeConfig is the check policy for one mode.
type ModeConfig struct {
	Checks         []string
	ParallelGroups [][]string
	// Timeout is the default per-check timeout. Zero means unbounded.
	Timeout time.Duration
	// RunTimeout bounds the whole run. Zero means unbounded.
	RunTimeout time.Duration
	FailFast   bool
}

// Mode returns the policy for m, or an empty policy if m is unconfigured.
func (c *Config) Mode(m mode.Mode) *ModeConfig {
	if mc, ok := c.Modes[m]; ok {
		return mc
	}
	return &ModeConfig{FailFast: m.DefaultFailFast()}
}

// Check returns the named definition.
func (c *Config) Check(name string) (*CheckDefinition, bool) {
	def, ok := c.Checks[name]
	return def, ok
}

// CheckNames returns all registered check names, sorted.
func (c *Config) CheckNames() []string {
	names := make([]string, 0, len(c.Checks))
	for name := range c.Checks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// TimeoutFor returns the effective per-check timeout of def under mc.
func (mc *ModeConfig) TimeoutFor(def *CheckDefinition) time.Duration {
	if def != nil && def.Timeout > 0 {
		return def.Timeout
	}
	return mc.Timeout
}

// Default returns the built-in configuration used when no file exists.
func Default() *Config {
	checks := []*CheckDefinition{
		{
			Name:        "pre-commit",
			Run:         "pre-commit run",
			Description: "Run pre-commit on staged files",
			EnabledIf:   condition.FileExists{Path: DefaultPreCommitPath},
		},
		{
			Name:        "pre-commit-all",
			Run:         "pre-commit run --all-files",
			Description: "Run pre-commit on all files",
			EnabledIf:   condition.FileExists{Path: DefaultPreCommitPath},
		},
		{
			Name:        "test-unit",
			Run:         "echo 'No test command configured. Define checks.test-unit.run in " + FileName + ".'",
			Description: "Run unit tests",
		},
		{
			Name:        "no-merge-conflicts",
			Run:         noMergeConflictsScript,
			Description: "Ensure no merge conflicts with main/master",
		},
	}

	cfg := &Config{
		Integration: IntegrationConfig{PreCommitPath: DefaultPreCommitPath},
		Checks:      make(map[string]*CheckDefinition, len(checks)),
		Modes: map[mode.Mode]*ModeConfig{
			mode.Human: {
				Checks:   []string{"pre-commit"},
				Timeout:  DefaultHumanTimeout,
				FailFast: true,
			},
			mode.Agent: {
				Checks:  []string{"pre-commit-all", "no-merge-conflicts", "test-unit"},
				Timeout: DefaultAgentTimeout,
			},
		},
	}
	for _, def := range checks {
		cfg.Checks[def.Name] = def
	}
	cfg.Modes[mode.CI] = cfg.Modes[mode.Agent].clone()
	return cfg
}

func (mc *ModeConfig) clone() *ModeConfig {
	out := *mc
	out.Checks = append([]string(nil), mc.Checks...)
	if mc.ParallelGroups != nil {
		out.ParallelGroups = make([][]string, len(mc.ParallelGroups))
		for i, g := range mc.ParallelGroups {
			out.ParallelGroups[i] = append([]string(nil), g...)
		}
	}
	return &out
}

const noMergeConflictsScript = `git fetch origin main --quiet 2>/dev/null || git fetch origin master --quiet 2>/dev/null || true
MAIN_BRANCH=$(git rev-parse --verify origin/main >/dev/null 2>&1 && echo "main" || echo "master")
BASE=$(git merge-base HEAD origin/$MAIN_BRANCH 2>/dev/null || echo "")
if [ -n "$BASE" ]; then
    if git merge-tree $BASE HEAD origin/$MAIN_BRANCH 2>/dev/null | grep -q "^<<<<<<<"; then
        echo "Would conflict with $MAIN_BRANCH"
        exit 1
    fi
fi
echo "No conflicts with $MAIN_BRANCH"`

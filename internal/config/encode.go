package config

import (
	"fmt"
	"io"

	"github.com/BurntSushi/toml"

	"github.com/fyrsmithlabs/agent-precommit/internal/condition"
	"github.com/fyrsmithlabs/agent-precommit/internal/mode"
)

// Encode writes cfg as TOML. Parsing the output yields an equivalent Config.
func Encode(w io.Writer, cfg *Config) error {
	out := fileConfig{
		Integration: &fileIntegration{
			PreCommit:     cfg.Integration.PreCommit,
			PreCommitPath: cfg.Integration.PreCommitPath,
		},
		Checks: make(map[string]*fileCheck, len(cfg.Checks)),
	}
	if len(cfg.Detection.AgentEnvVars) > 0 {
		out.Detection = &fileDetection{AgentEnvVars: cfg.Detection.AgentEnvVars}
	}

	for name, def := range cfg.Checks {
		fc := &fileCheck{
			Run:         def.Run,
			Description: def.Description,
			Timeout:     durationPtr(def.Timeout),
			Env:         def.Env,
		}
		if def.EnabledIf != nil {
			fc.EnabledIf = condition.Encode(def.EnabledIf)
		}
		out.Checks[name] = fc
	}

	for _, m := range mode.All() {
		mc, ok := cfg.Modes[m]
		if !ok {
			continue
		}
		fm := encodeMode(mc)
		switch m {
		case mode.Human:
			out.Human = fm
		case mode.Agent:
			out.Agent = fm
		case mode.CI:
			out.CI = fm
		}
	}

	if err := toml.NewEncoder(w).Encode(out); err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	return nil
}

func encodeMode(mc *ModeConfig) *fileMode {
	timeout := Duration(mc.Timeout)
	failFast := mc.FailFast
	checks := mc.Checks
	if checks == nil {
		checks = []string{}
	}
	return &fileMode{
		Checks:         checks,
		Timeout:        &timeout,
		FailFast:       &failFast,
		ParallelGroups: mc.ParallelGroups,
		RunTimeout:     durationPtr(mc.RunTimeout),
	}
}

package config

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/fyrsmithlabs/agent-precommit/internal/condition"
	"github.com/fyrsmithlabs/agent-precommit/internal/mode"
)

// fileConfig mirrors the on-disk TOML layout.
type fileConfig struct {
	Detection   *fileDetection        `toml:"detection,omitempty"`
	Integration *fileIntegration      `toml:"integration,omitempty"`
	Human       *fileMode             `toml:"human,omitempty"`
	Agent       *fileMode             `toml:"agent,omitempty"`
	CI          *fileMode             `toml:"ci,omitempty"`
	Checks      map[string]*fileCheck `toml:"checks,omitempty"`
}

type fileDetection struct {
	AgentEnvVars []string `toml:"agent_env_vars,omitempty"`
}

type fileIntegration struct {
	PreCommit     bool   `toml:"pre_commit"`
	PreCommitPath string `toml:"pre_commit_path,omitempty"`
}

type fileMode struct {
	Checks         []string   `toml:"checks"`
	Timeout        *Duration  `toml:"timeout,omitempty"`
	FailFast       *bool      `toml:"fail_fast,omitempty"`
	ParallelGroups [][]string `toml:"parallel_groups,omitempty"`
	RunTimeout     *Duration  `toml:"run_timeout,omitempty"`
}

type fileCheck struct {
	Run         string            `toml:"run"`
	Description string            `toml:"description,omitempty"`
	Timeout     *Duration         `toml:"timeout,omitempty"`
	Env         map[string]string `toml:"env,omitempty"`
	EnabledIf   map[string]any    `toml:"enabled_if,omitempty"`
}

// Load reads and parses the file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	cfg.Path = path
	return cfg, nil
}

// Parse decodes and validates a TOML document. Every problem found is
// reported; the returned error matches ErrInvalidConfig.
func Parse(data []byte) (*Config, error) {
	var raw fileConfig
	md, err := toml.Decode(string(data), &raw)
	if err != nil {
		return nil, &Error{Msg: "parse", Err: err}
	}

	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, errorf("", "unknown key(s): %s", strings.Join(keys, ", "))
	}

	return raw.build()
}

func (raw *fileConfig) build() (*Config, error) {
	var errs []error
	cfg := &Config{
		Integration: IntegrationConfig{PreCommitPath: DefaultPreCommitPath},
		Checks:      make(map[string]*CheckDefinition, len(raw.Checks)),
		Modes:       make(map[mode.Mode]*ModeConfig, 3),
	}

	if raw.Detection != nil && len(raw.Detection.AgentEnvVars) > 0 {
		seen := make(map[string]bool)
		for i, name := range raw.Detection.AgentEnvVars {
			field := fmt.Sprintf("detection.agent_env_vars[%d]", i)
			switch {
			case strings.TrimSpace(name) == "":
				errs = append(errs, errorf(field, "must not be empty"))
			case seen[name]:
				errs = append(errs, errorf(field, "%q listed twice", name))
			}
			seen[name] = true
		}
		cfg.Detection.AgentEnvVars = append([]string(nil), raw.Detection.AgentEnvVars...)
	}

	if raw.Integration != nil {
		cfg.Integration.PreCommit = raw.Integration.PreCommit
		if raw.Integration.PreCommitPath != "" {
			cfg.Integration.PreCommitPath = raw.Integration.PreCommitPath
		}
	}

	names := make([]string, 0, len(raw.Checks))
	for name := range raw.Checks {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		def, err := buildCheck(name, raw.Checks[name])
		if err != nil {
			errs = append(errs, err)
			continue
		}
		cfg.Checks[name] = def
	}

	sections := []struct {
		m   mode.Mode
		raw *fileMode
	}{
		{mode.Human, raw.Human},
		{mode.Agent, raw.Agent},
		{mode.CI, raw.CI},
	}
	for _, s := range sections {
		if s.raw == nil {
			if s.m == mode.CI {
				cfg.Modes[mode.CI] = cfg.Modes[mode.Agent].clone()
				continue
			}
			cfg.Modes[s.m] = defaultModeConfig(s.m)
			continue
		}
		mc := buildMode(s.m, s.raw)
		errs = append(errs, validateMode(s.m, mc, raw.Checks)...)
		cfg.Modes[s.m] = mc
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return cfg, nil
}

func buildCheck(name string, raw *fileCheck) (*CheckDefinition, error) {
	field := "checks." + name
	if strings.TrimSpace(name) == "" {
		return nil, errorf("checks", "check name must not be empty")
	}
	if raw == nil || strings.TrimSpace(raw.Run) == "" {
		return nil, errorf(field+".run", "must not be empty")
	}

	def := &CheckDefinition{
		Name:        name,
		Run:         raw.Run,
		Description: raw.Description,
	}
	if raw.Timeout != nil {
		def.Timeout = raw.Timeout.Duration()
	}
	if len(raw.Env) > 0 {
		def.Env = make(map[string]string, len(raw.Env))
		for k, v := range raw.Env {
			if strings.TrimSpace(k) == "" || strings.Contains(k, "=") {
				return nil, errorf(field+".env", "invalid variable name %q", k)
			}
			def.Env[k] = v
		}
	}
	if raw.EnabledIf != nil {
		expr, err := condition.Decode(raw.EnabledIf)
		if err != nil {
			return nil, &Error{Field: field + ".enabled_if", Err: err}
		}
		def.EnabledIf = expr
	}
	return def, nil
}

func defaultModeConfig(m mode.Mode) *ModeConfig {
	mc := &ModeConfig{FailFast: m.DefaultFailFast(), Timeout: DefaultAgentTimeout}
	if m == mode.Human {
		mc.Timeout = DefaultHumanTimeout
	}
	return mc
}

func buildMode(m mode.Mode, raw *fileMode) *ModeConfig {
	mc := defaultModeConfig(m)
	if len(raw.Checks) > 0 {
		mc.Checks = append([]string(nil), raw.Checks...)
	}
	if raw.Timeout != nil {
		mc.Timeout = raw.Timeout.Duration()
	}
	if raw.RunTimeout != nil {
		mc.RunTimeout = raw.RunTimeout.Duration()
	}
	if raw.FailFast != nil {
		mc.FailFast = *raw.FailFast
	}
	if len(raw.ParallelGroups) > 0 {
		mc.ParallelGroups = make([][]string, len(raw.ParallelGroups))
		for i, g := range raw.ParallelGroups {
			mc.ParallelGroups[i] = append([]string(nil), g...)
		}
	}
	return mc
}

// validateMode checks references against the raw registry so a check that
// failed its own validation is not reported a second time as undefined.
func validateMode(m mode.Mode, mc *ModeConfig, registry map[string]*fileCheck) []error {
	var errs []error
	section := m.String()

	listed := make(map[string]bool, len(mc.Checks))
	for i, name := range mc.Checks {
		field := fmt.Sprintf("%s.checks[%d]", section, i)
		if _, ok := registry[name]; !ok {
			errs = append(errs, errorf(field, "undefined check %q", name))
		}
		if listed[name] {
			errs = append(errs, errorf(field, "check %q listed twice", name))
		}
		listed[name] = true
	}

	grouped := make(map[string]bool)
	for gi, group := range mc.ParallelGroups {
		gfield := fmt.Sprintf("%s.parallel_groups[%d]", section, gi)
		if len(group) == 0 {
			errs = append(errs, errorf(gfield, "group must not be empty"))
			continue
		}
		for _, name := range group {
			if _, ok := registry[name]; !ok {
				errs = append(errs, errorf(gfield, "undefined check %q", name))
				continue
			}
			if !listed[name] {
				errs = append(errs, errorf(gfield, "check %q is not in %s.checks", name, section))
			}
			if grouped[name] {
				errs = append(errs, errorf(gfield, "check %q already belongs to a group", name))
			}
			grouped[name] = true
		}
	}
	return errs
}

package secrets

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	gitleaksConfig "github.com/zricethezav/gitleaks/v8/config"
	"github.com/zricethezav/gitleaks/v8/detect"
)

// RedactOptions locates the allowlists applied on top of the default rules.
type RedactOptions struct {
	ProjectDir string // directory holding .gitleaks.toml
	UserPath   string // user allowlist file
}

// Result is the outcome of one Redact call.
type Result struct {
	Content string
	// ByRule counts redacted secrets per Gitleaks rule ID.
	ByRule map[string]int
}

// Total returns the number of secrets redacted.
func (r Result) Total() int {
	n := 0
	for _, c := range r.ByRule {
		n += c
	}
	return n
}

// Redactor replaces detected secrets with [REDACTED:rule-id] markers.
// It is safe for concurrent use.
type Redactor struct {
	mu       sync.Mutex
	detector *detect.Detector
}

// NewRedactor builds a redactor from the default Gitleaks configuration
// and the allowlists named in opts.
func NewRedactor(opts RedactOptions) (*Redactor, error) {
	allowlist, err := LoadAllowlists(opts.ProjectDir, opts.UserPath)
	if err != nil {
		return nil, fmt.Errorf("loading allowlists: %w", err)
	}

	d, err := detect.NewDetectorDefaultConfig()
	if err != nil {
		return nil, fmt.Errorf("loading detection rules: %w", err)
	}
	if !allowlist.Empty() {
		if err := applyAllowlist(&d.Config, allowlist); err != nil {
			return nil, err
		}
	}
	return &Redactor{detector: d}, nil
}

// Redact scans content and masks every secret found.
func (r *Redactor) Redact(content string) Result {
	res := Result{Content: content, ByRule: map[string]int{}}
	if content == "" {
		return res
	}

	r.mu.Lock()
	findings := r.detector.DetectString(content)
	r.mu.Unlock()
	if len(findings) == 0 {
		return res
	}

	// Longest first so a secret that contains another is masked whole.
	sort.SliceStable(findings, func(i, j int) bool {
		return len(findings[i].Secret) > len(findings[j].Secret)
	})
	for _, f := range findings {
		if f.Secret == "" || !strings.Contains(res.Content, f.Secret) {
			continue
		}
		res.Content = strings.ReplaceAll(res.Content, f.Secret, "[REDACTED:"+f.RuleID+"]")
		res.ByRule[f.RuleID]++
	}
	return res
}

// RedactString is Redact without the per-rule counts.
func (r *Redactor) RedactString(content string) string {
	return r.Redact(content).Content
}

func applyAllowlist(cfg *gitleaksConfig.Config, allowlist *Allowlist) error {
	global := &gitleaksConfig.Allowlist{
		Description: "agent-precommit allowlist",
		StopWords:   allowlist.StopWords,
	}
	for _, pattern := range allowlist.Regexes {
		re, err := compilePattern(pattern)
		if err != nil {
			return fmt.Errorf("%w: %q: %v", ErrInvalidRegex, pattern, err)
		}
		global.Regexes = append(global.Regexes, re)
	}
	cfg.Allowlists = append(cfg.Allowlists, global)
	return nil
}

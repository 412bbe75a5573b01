package secrets

import (
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

const openAIKey = "sk-proj-abcdefghijklmnopqrstuvwxyz1234567890123456"

func newRedactor(t *testing.T, opts RedactOptions) *Redactor {
	t.Helper()
	r, err := NewRedactor(opts)
	if err != nil {
		t.Fatalf("NewRedactor() error = %v", err)
	}
	return r
}

func TestRedact_NoSecrets(t *testing.T) {
	r := newRedactor(t, RedactOptions{})
	content := "ok  \tgithub.com/acme/widget\t0.012s\n"

	res := r.Redact(content)
	if res.Content != content {
		t.Errorf("Content = %q, want unchanged", res.Content)
	}
	if res.Total() != 0 {
		t.Errorf("Total() = %d, want 0", res.Total())
	}
	if got := r.Redact(""); got.Content != "" {
		t.Errorf("Redact(\"\") = %q", got.Content)
	}
}

func TestRedact_Secret(t *testing.T) {
	r := newRedactor(t, RedactOptions{})
	content := "--- FAIL: TestClient\n    client_test.go:12: using key " + openAIKey + "\nFAIL\n"

	res := r.Redact(content)
	if res.Total() == 0 {
		t.Skip("Gitleaks did not detect this pattern")
	}
	if strings.Contains(res.Content, openAIKey) {
		t.Error("secret still present after redaction")
	}
	if !strings.Contains(res.Content, "[REDACTED:") {
		t.Errorf("Content = %q, want a redaction marker", res.Content)
	}
	if !strings.HasPrefix(res.Content, "--- FAIL: TestClient\n") || !strings.HasSuffix(res.Content, "\nFAIL\n") {
		t.Errorf("surrounding output changed: %q", res.Content)
	}
	if r.RedactString(content) != res.Content {
		t.Error("RedactString() disagrees with Redact()")
	}
}

func TestRedact_Allowlist(t *testing.T) {
	content := "export KEY=\"" + openAIKey + "\"\n"
	if newRedactor(t, RedactOptions{}).Redact(content).Total() == 0 {
		t.Skip("Gitleaks did not detect this pattern")
	}

	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, ProjectAllowlistFile), `[allowlist]
regexes = ['''sk-proj-abcdefghijklmnop.*''']
`)
	res := newRedactor(t, RedactOptions{ProjectDir: dir}).Redact(content)
	if res.Content != content {
		t.Errorf("allowlisted secret was redacted: %q", res.Content)
	}
}

func TestNewRedactor_BadAllowlist(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, ProjectAllowlistFile), "not toml [")

	if _, err := NewRedactor(RedactOptions{ProjectDir: dir}); err == nil {
		t.Error("NewRedactor() error = nil, want allowlist error")
	}
}

func TestRedact_Concurrent(t *testing.T) {
	r := newRedactor(t, RedactOptions{})
	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = r.RedactString("line one\nkey " + openAIKey + "\n")
		}()
	}
	wg.Wait()
}

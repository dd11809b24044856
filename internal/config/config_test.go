package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range Keys() {
		t.Setenv(EnvPrefix+"_"+strings.ToUpper(k), "")
		os.Unsetenv(EnvPrefix + "_" + strings.ToUpper(k))
	}
	t.Setenv("OPENROUTER_API_KEY", "")
	os.Unsetenv("OPENROUTER_API_KEY")
}

func TestLoadDefaultsWhenFileMissing(t *testing.T) {
	clearEnv(t)
	c, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	want := &Global{
		Provider:          "openrouter",
		OllamaHost:        "http://127.0.0.1:11434",
		HTTPTimeoutSec:    60,
		ServiceTimeoutSec: 15,
		SampleRows:        5,
		Aggregation:       "mean",
		LogLevel:          "warn",
	}
	if diff := cmp.Diff(want, c); diff != "" {
		t.Fatalf("defaults mismatch (-want +got):\n%s", diff)
	}
	if err := c.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
	if diff := cmp.Diff(want, Default()); diff != "" {
		t.Fatalf("Default() disagrees with Load (-want +got):\n%s", diff)
	}
}

func TestLoadPrecedenceEnvOverFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := "provider: ollama\nmodel: llama3.1:8b\nsample_rows: 9\naggregation: sum\n"
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("TABLECHART_SAMPLE_ROWS", "3")
	t.Setenv("OPENROUTER_API_KEY", "sk-from-env")
	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.Provider != "ollama" || c.Model != "llama3.1:8b" || c.Aggregation != "sum" {
		t.Fatalf("file values not applied: %+v", c)
	}
	if c.SampleRows != 3 {
		t.Fatalf("env should override file, got sample_rows=%d", c.SampleRows)
	}
	if c.APIKey != "sk-from-env" {
		t.Fatalf("expected api key from OPENROUTER_API_KEY, got %q", c.APIKey)
	}
}

func TestLoadRejectsBrokenFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("provider: [unclosed\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestSaveRoundTrip(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := c.Set("service_timeout_sec", "30"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := c.Set("api_key", "sk-secret-1234"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := Save(c, path); err != nil {
		t.Fatalf("Save: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Fatalf("config should be private, got %v", info.Mode().Perm())
	}
	back, err := Load(path)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if diff := cmp.Diff(c, back); diff != "" {
		t.Fatalf("round trip mismatch (-saved +loaded):\n%s", diff)
	}
	if back.ServiceTimeout().Seconds() != 30 {
		t.Fatalf("unexpected service timeout %v", back.ServiceTimeout())
	}
}

func TestSetValidates(t *testing.T) {
	c := &Global{Provider: "openrouter", Aggregation: "mean", LogLevel: "warn"}
	bad := map[string]string{
		"provider":         "gemini",
		"aggregation":      "median",
		"log_level":        "trace",
		"sample_rows":      "-1",
		"http_timeout_sec": "soon",
		"colour":           "blue",
	}
	for k, v := range bad {
		cp := *c
		if err := cp.Set(k, v); err == nil {
			t.Fatalf("Set(%q, %q) should fail", k, v)
		}
	}
	if err := c.Set("provider", "None"); err != nil || c.Provider != "none" {
		t.Fatalf("expected provider none, got %q err=%v", c.Provider, err)
	}
}

func TestMaskedKey(t *testing.T) {
	cases := map[string]string{"": "", "abc": "***", "sk-secret-1234": "**********1234"}
	for in, want := range cases {
		c := Global{APIKey: in}
		if got := c.MaskedKey(); got != want {
			t.Fatalf("MaskedKey(%q) = %q, want %q", in, got, want)
		}
	}
}

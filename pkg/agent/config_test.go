package agent_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/bitop-dev/shellagent/pkg/agent"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	f := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(f, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return f
}

func env(vals map[string]string) func(string) string {
	return func(k string) string { return vals[k] }
}

func TestLoadFileConfig_EmptyPathDefaults(t *testing.T) {
	cfg, err := agent.LoadFileConfig("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Provider != "google" || cfg.Shell != "/bin/sh" || cfg.ListenAddr != ":8000" {
		t.Errorf("defaults = %+v", cfg)
	}
	if cfg.Log.Level != "info" {
		t.Errorf("log level = %q", cfg.Log.Level)
	}
}

func TestLoadFileConfig_YAML(t *testing.T) {
	f := writeConfig(t, "shellagent.yaml", `
provider: openai
model: gpt-4o
base_url: http://localhost:11434/v1
max_tokens: 512
temperature: 0.2
http_timeout: 30s
listen_addr: 127.0.0.1:9000
log:
  level: debug
  format: json
`)
	cfg, err := agent.LoadFileConfig(f)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Provider != "openai" || cfg.Model != "gpt-4o" || cfg.MaxTokens != 512 {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.Temperature == nil || *cfg.Temperature != 0.2 {
		t.Errorf("temperature = %v", cfg.Temperature)
	}
	if cfg.Log.Level != "debug" || cfg.Log.Format != "json" {
		t.Errorf("log = %+v", cfg.Log)
	}
	// Unset fields keep their defaults.
	if cfg.Shell != "/bin/sh" {
		t.Errorf("shell = %q", cfg.Shell)
	}
}

func TestLoadFileConfig_TOML(t *testing.T) {
	f := writeConfig(t, "shellagent.toml", `
provider = "google"
model = "gemini-2.0-flash"
shell = "/bin/bash"
describe_host = true

[log]
level = "warn"
`)
	cfg, err := agent.LoadFileConfig(f)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Model != "gemini-2.0-flash" || cfg.Shell != "/bin/bash" || !cfg.DescribeHost {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.Log.Level != "warn" || cfg.Log.Format != "console" {
		t.Errorf("log = %+v", cfg.Log)
	}
}

func TestLoadFileConfig_EnvExpansion(t *testing.T) {
	t.Setenv("TEST_SHELLAGENT_MODEL", "gemini-from-env")
	f := writeConfig(t, "c.yaml", "model: ${TEST_SHELLAGENT_MODEL}\n")
	cfg, err := agent.LoadFileConfig(f)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Model != "gemini-from-env" {
		t.Errorf("model = %q", cfg.Model)
	}
}

func TestLoadFileConfig_Missing(t *testing.T) {
	if _, err := agent.LoadFileConfig(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error")
	}
}

func TestLoadFileConfig_BadTOML(t *testing.T) {
	f := writeConfig(t, "bad.toml", "provider = \n")
	if _, err := agent.LoadFileConfig(f); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestResolve_Defaults(t *testing.T) {
	fc := agent.DefaultFileConfig()
	cfg, err := fc.Resolve(env(map[string]string{"GEMINI_API_KEY": "g-key"}))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.APIKey != "g-key" || cfg.Model != "gemini-1.5-flash" || cfg.HTTPTimeout != 0 {
		t.Errorf("cfg = %+v", cfg)
	}
}

func TestResolve_MissingKey(t *testing.T) {
	fc := agent.DefaultFileConfig()
	_, err := fc.Resolve(env(nil))
	if err == nil || !strings.Contains(err.Error(), "GEMINI_API_KEY") {
		t.Fatalf("err = %v", err)
	}
}

func TestResolve_OpenAIKeyEnv(t *testing.T) {
	fc := agent.FileConfig{Provider: "OpenAI"}
	cfg, err := fc.Resolve(env(map[string]string{"OPENAI_API_KEY": "sk"}))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Provider != "openai" || cfg.Model != "gpt-4o-mini" || cfg.Shell != "/bin/sh" {
		t.Errorf("cfg = %+v", cfg)
	}
}

func TestResolve_CustomKeyEnv(t *testing.T) {
	fc := agent.FileConfig{APIKeyEnv: "MY_KEY"}
	cfg, err := fc.Resolve(env(map[string]string{"MY_KEY": "x", "GEMINI_API_KEY": "ignored"}))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.APIKey != "x" {
		t.Errorf("api key = %q", cfg.APIKey)
	}
}

func TestResolve_Timeout(t *testing.T) {
	fc := agent.FileConfig{HTTPTimeout: "90s"}
	cfg, err := fc.Resolve(env(map[string]string{"GEMINI_API_KEY": "k"}))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.HTTPTimeout != 90*time.Second {
		t.Errorf("timeout = %s", cfg.HTTPTimeout)
	}

	fc.HTTPTimeout = "soon"
	if _, err := fc.Resolve(env(map[string]string{"GEMINI_API_KEY": "k"})); err == nil {
		t.Error("expected duration parse error")
	}
}

func TestResolve_UnknownProvider(t *testing.T) {
	fc := agent.FileConfig{Provider: "bedrock"}
	if _, err := fc.Resolve(env(map[string]string{"GEMINI_API_KEY": "k"})); err == nil {
		t.Fatal("expected error")
	}
}

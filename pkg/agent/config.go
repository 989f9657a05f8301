package agent

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/goccy/go-yaml"

	"github.com/bitop-dev/shellagent/pkg/logging"
)

// Provider identifiers accepted in FileConfig.Provider.
const (
	ProviderGoogle = "google"
	ProviderOpenAI = "openai"
)

// defaultKeyEnv is the variable the API key is read from when api_key_env
// is not set.
var defaultKeyEnv = map[string]string{
	ProviderGoogle: "GEMINI_API_KEY",
	ProviderOpenAI: "OPENAI_API_KEY",
}

var defaultModel = map[string]string{
	ProviderGoogle: "gemini-1.5-flash",
	ProviderOpenAI: "gpt-4o-mini",
}

// FileConfig is the on-disk configuration, in YAML or TOML. Every field is
// optional.
type FileConfig struct {
	// Provider: "google" (default) | "openai" (or any openai-compatible
	// endpoint via BaseURL).
	Provider string `yaml:"provider" toml:"provider"`

	// Model ID. Defaults per provider.
	Model string `yaml:"model" toml:"model"`

	// BaseURL overrides the provider endpoint.
	BaseURL string `yaml:"base_url" toml:"base_url"`

	// APIKeyEnv names the environment variable holding the API key.
	// Defaults to GEMINI_API_KEY or OPENAI_API_KEY.
	APIKeyEnv string `yaml:"api_key_env" toml:"api_key_env"`

	SystemPrompt string `yaml:"system_prompt" toml:"system_prompt"`

	// DescribeHost appends date, cwd and shell to the system prompt.
	DescribeHost bool `yaml:"describe_host" toml:"describe_host"`

	// MaxTokens caps the reply length (0 = provider default).
	MaxTokens int `yaml:"max_tokens" toml:"max_tokens"`

	// Temperature controls randomness (nil = provider default).
	Temperature *float64 `yaml:"temperature" toml:"temperature"`

	// HTTPTimeout bounds each chat call, as a Go duration. Empty = none.
	HTTPTimeout string `yaml:"http_timeout" toml:"http_timeout"`

	// Shell is the interpreter commands run under. Defaults to /bin/sh.
	Shell string `yaml:"shell" toml:"shell"`

	// ListenAddr is the HTTP listen address. Defaults to :8000.
	ListenAddr string `yaml:"listen_addr" toml:"listen_addr"`

	Log logging.Config `yaml:"log" toml:"log"`
}

// Config is the resolved runtime configuration: defaults applied, durations
// parsed and the API key read from the environment. It is built once at
// startup and passed down.
type Config struct {
	Provider     string
	Model        string
	BaseURL      string
	APIKey       string
	SystemPrompt string
	DescribeHost bool
	MaxTokens    int
	Temperature  *float64
	HTTPTimeout  time.Duration
	Shell        string
	ListenAddr   string
	Log          logging.Config
}

// DefaultFileConfig returns the configuration used when no file is given.
func DefaultFileConfig() FileConfig {
	return FileConfig{
		Provider:   ProviderGoogle,
		Shell:      "/bin/sh",
		ListenAddr: ":8000",
		Log:        logging.DefaultConfig(),
	}
}

// LoadFileConfig reads path over the defaults. Files ending in .toml are
// parsed as TOML, anything else as YAML. ${ENV_VAR} references are expanded
// before parsing. An empty path returns the defaults.
func LoadFileConfig(path string) (*FileConfig, error) {
	cfg := DefaultFileConfig()
	if path == "" {
		return &cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	expanded := os.ExpandEnv(string(data))

	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if _, err := toml.Decode(expanded, &cfg); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
	default:
		if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}
	return &cfg, nil
}

// Resolve validates c and produces the runtime Config. getenv is normally
// os.Getenv; a missing API key is an error.
func (c *FileConfig) Resolve(getenv func(string) string) (*Config, error) {
	provider := strings.ToLower(strings.TrimSpace(c.Provider))
	if provider == "" {
		provider = ProviderGoogle
	}
	if _, ok := defaultKeyEnv[provider]; !ok {
		return nil, fmt.Errorf("config: unknown provider %q (want %s or %s)", c.Provider, ProviderGoogle, ProviderOpenAI)
	}

	out := &Config{
		Provider:     provider,
		Model:        strings.TrimSpace(c.Model),
		BaseURL:      strings.TrimSpace(c.BaseURL),
		SystemPrompt: c.SystemPrompt,
		DescribeHost: c.DescribeHost,
		MaxTokens:    c.MaxTokens,
		Temperature:  c.Temperature,
		Shell:        strings.TrimSpace(c.Shell),
		ListenAddr:   strings.TrimSpace(c.ListenAddr),
		Log:          c.Log,
	}
	if out.Model == "" {
		out.Model = defaultModel[provider]
	}
	if out.Shell == "" {
		out.Shell = "/bin/sh"
	}
	if out.ListenAddr == "" {
		out.ListenAddr = ":8000"
	}
	if out.MaxTokens < 0 {
		return nil, fmt.Errorf("config: max_tokens must not be negative")
	}
	if s := strings.TrimSpace(c.HTTPTimeout); s != "" {
		d, err := time.ParseDuration(s)
		if err != nil {
			return nil, fmt.Errorf("config: parse http_timeout: %w", err)
		}
		out.HTTPTimeout = d
	}

	keyEnv := strings.TrimSpace(c.APIKeyEnv)
	if keyEnv == "" {
		keyEnv = defaultKeyEnv[provider]
	}
	out.APIKey = strings.TrimSpace(getenv(keyEnv))
	if out.APIKey == "" {
		return nil, fmt.Errorf("config: %s is not set", keyEnv)
	}
	return out, nil
}

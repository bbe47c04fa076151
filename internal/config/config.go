package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	yamlv3 "gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix of datenollm-specific environment overrides.
// Nested keys use a double underscore: DATENOLLM_SERVER__PORT -> server.port.
const EnvPrefix = "DATENOLLM_"

// legacyEnv maps the environment variables of the original deployment onto
// config keys. Numeric values that fail to parse are ignored.
var legacyEnv = map[string]string{
	"OPENAI_API_KEY":         "api_key",
	"OPENAI_API_MODEL":       "model",
	"OPENAI_API_MAX_TOKENS":  "max_tokens",
	"OPENAI_API_TEMPERATURE": "temperature",
	"OPENAI_API_TOP_P":       "top_p",
	"OPENAI_API_BASE":        "openai_api_base",
	"GRADIO_FLAGGING_DIR":    "flagging_dir",
	"DATENO_API_KEY":         "dateno.api_key",
	"HF_TOKEN":               "client.token",
	"DATENOLLM_DEBUG":        "log_level",
}

// Load reads configuration from the given YAML file, then overlays the
// conventional OPENAI_*/GRADIO_*/DATENO_* variables and finally DATENOLLM_*
// overrides.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	cfg := DefaultConfig()

	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("accessing config %s: %w", path, err)
	}

	if err := k.Load(env.ProviderWithValue("", ".", legacyValue), nil); err != nil {
		return nil, fmt.Errorf("loading legacy env: %w", err)
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		if s == "DATENOLLM_DEBUG" {
			return ""
		}
		key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
		return strings.ReplaceAll(key, "__", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("loading env overrides: %w", err)
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	return cfg, nil
}

// legacyValue translates one environment variable. An empty key tells koanf
// to skip the variable.
func legacyValue(name, value string) (string, interface{}) {
	key, ok := legacyEnv[name]
	if !ok || strings.TrimSpace(value) == "" {
		return "", nil
	}
	switch key {
	case "max_tokens":
		n, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return "", nil
		}
		return key, n
	case "temperature", "top_p":
		f, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			return "", nil
		}
		return key, f
	}
	return key, value
}

// Save writes the configuration to the given YAML file path.
func (c *Config) Save(path string) error {
	data, err := yamlv3.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

// Validate checks that the model defaults needed by the orchestrator are
// present. It returns a *Error describing the first problem found.
func (c *Config) Validate() error {
	if c.Model == "" {
		return &Error{Field: "model", Reason: "is required"}
	}
	if c.MaxTokens <= 0 {
		return &Error{Field: "max_tokens", Reason: "must be positive"}
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		return &Error{Field: "temperature", Reason: "must be between 0 and 2"}
	}
	if c.TopP < 0 || c.TopP > 1 {
		return &Error{Field: "top_p", Reason: "must be between 0 and 1"}
	}
	if c.OpenAIAPIBase == "" {
		return &Error{Field: "openai_api_base", Reason: "is required"}
	}
	u, err := url.Parse(c.OpenAIAPIBase)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return &Error{Field: "openai_api_base", Reason: fmt.Sprintf("%q is not an absolute URL", c.OpenAIAPIBase)}
	}
	if c.APIKey == "" && !IsLocalBase(c.OpenAIAPIBase) {
		return &Error{Field: "api_key", Reason: "is required (set OPENAI_API_KEY)"}
	}
	if c.FlaggingDir == "" {
		return &Error{Field: "flagging_dir", Reason: "is required"}
	}
	return nil
}

// IsLocalBase reports whether the API base points at a local server, which
// usually runs without an API key.
func IsLocalBase(base string) bool {
	u, err := url.Parse(base)
	if err != nil {
		return false
	}
	switch u.Hostname() {
	case "localhost", "127.0.0.1", "::1":
		return true
	}
	return false
}

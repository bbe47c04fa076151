package config

import "fmt"

// Config is the top-level datenollm configuration, corresponding to .datenollm.yml.
type Config struct {
	APIKey        string       `yaml:"api_key,omitempty" koanf:"api_key"`
	Prompt        string       `yaml:"prompt,omitempty" koanf:"prompt"`
	PromptFile    string       `yaml:"prompt_file" koanf:"prompt_file"`
	Model         string       `yaml:"model" koanf:"model"`
	MaxTokens     int          `yaml:"max_tokens" koanf:"max_tokens"`
	Temperature   float64      `yaml:"temperature" koanf:"temperature"`
	TopP          float64      `yaml:"top_p" koanf:"top_p"`
	OpenAIAPIBase string       `yaml:"openai_api_base" koanf:"openai_api_base"`
	FlaggingDir   string       `yaml:"flagging_dir" koanf:"flagging_dir"`
	LogLevel      string       `yaml:"log_level" koanf:"log_level"`
	Server        ServerConfig `yaml:"server" koanf:"server"`
	Dateno        DatenoConfig `yaml:"dateno" koanf:"dateno"`
	Client        ClientConfig `yaml:"client" koanf:"client"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port           int    `yaml:"port" koanf:"port"`
	RequestTimeout int    `yaml:"request_timeout_seconds" koanf:"request_timeout_seconds"`
	AuthToken      string `yaml:"auth_token,omitempty" koanf:"auth_token"`
	AllowAll       bool   `yaml:"allow_all_origins" koanf:"allow_all_origins"`
	DatabasePath   string `yaml:"database_path" koanf:"database_path"`
}

// DatenoConfig holds settings for the Dateno dataset search index.
type DatenoConfig struct {
	BaseURL string `yaml:"base_url" koanf:"base_url"`
	APIKey  string `yaml:"api_key,omitempty" koanf:"api_key"`
	Limit   int    `yaml:"limit" koanf:"limit"`
}

// ClientConfig holds settings used by the CLI when talking to a server.
type ClientConfig struct {
	Address string `yaml:"address" koanf:"address"`
	Token   string `yaml:"token,omitempty" koanf:"token"`
}

// Error reports a missing or invalid configuration value.
type Error struct {
	Field  string
	Reason string
}

func (e *Error) Error() string {
	return fmt.Sprintf("config: %s %s", e.Field, e.Reason)
}

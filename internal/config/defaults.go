package config

// Default values used when neither the config file nor the environment set them.
const (
	DefaultModel         = "openai/gpt-4.1-mini"
	DefaultMaxTokens     = 2048
	DefaultTemperature   = 0.7
	DefaultTopP          = 0.95
	DefaultOpenAIAPIBase = "https://openrouter.ai/api/v1"
	DefaultFlaggingDir   = ".gradio/flagged"
	DefaultPromptFile    = "prompt.md"
	DefaultDatenoBaseURL = "https://api.dateno.io"
	DefaultDatenoLimit   = 500
	DefaultServerPort    = 7861
)

// ModelPresets are offered by the init wizard. Any OpenAI-compatible model
// identifier is accepted in the config file.
var ModelPresets = []string{
	"openai/gpt-4.1-mini",
	"openai/gpt-4.1",
	"openai/gpt-4o-mini",
	"anthropic/claude-sonnet-4",
	"google/gemini-2.5-flash",
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		PromptFile:    DefaultPromptFile,
		Model:         DefaultModel,
		MaxTokens:     DefaultMaxTokens,
		Temperature:   DefaultTemperature,
		TopP:          DefaultTopP,
		OpenAIAPIBase: DefaultOpenAIAPIBase,
		FlaggingDir:   DefaultFlaggingDir,
		LogLevel:      "info",
		Server: ServerConfig{
			Port:           DefaultServerPort,
			RequestTimeout: 120,
			DatabasePath:   ".datenollm/journal.db",
		},
		Dateno: DatenoConfig{
			BaseURL: DefaultDatenoBaseURL,
			Limit:   DefaultDatenoLimit,
		},
		Client: ClientConfig{
			Address: "http://127.0.0.1:7861",
		},
	}
}

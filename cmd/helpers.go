package cmd

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/ziadkadry99/datenollm/internal/client"
	"github.com/ziadkadry99/datenollm/internal/config"
	"github.com/ziadkadry99/datenollm/internal/llm"
	"github.com/ziadkadry99/datenollm/internal/orchestrator"
	"github.com/ziadkadry99/datenollm/internal/response"
)

// loadConfig loads the config, providing a user-friendly error.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w\nRun `datenollm init` to create a config file", err)
	}
	return cfg, nil
}

// createOrchestrator wires the OpenAI-compatible provider and the schema
// validator into a new orchestrator.
func createOrchestrator(cfg *config.Config, log logrus.FieldLogger) (*orchestrator.Orchestrator, error) {
	provider := llm.NewOpenAIProvider(cfg.APIKey, cfg.OpenAIAPIBase)
	validator, err := response.NewSchemaValidator()
	if err != nil {
		return nil, fmt.Errorf("compiling response schema: %w", err)
	}
	orch, err := orchestrator.New(*cfg, provider, validator, log)
	if err != nil {
		return nil, fmt.Errorf("configuring orchestrator: %w", err)
	}
	return orch, nil
}

// newClient builds an API client from --addr/--token, falling back to the
// config file.
func newClient(cfg *config.Config) *client.Client {
	addr := clientAddr
	if addr == "" {
		addr = cfg.Client.Address
	}
	token := clientToken
	if token == "" {
		token = cfg.Client.Token
	}
	return client.New(addr, token)
}

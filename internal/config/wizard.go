package config

import (
	"fmt"
	"strconv"

	"github.com/manifoldco/promptui"
)

// RunWizard runs an interactive configuration wizard, saves the result to
// path and returns it.
func RunWizard(path string) (*Config, error) {
	fmt.Println("Welcome to datenollm! Let's configure the query server.")
	fmt.Println()

	cfg := DefaultConfig()

	modelPrompt := promptui.Select{
		Label: "Select default model",
		Items: ModelPresets,
	}
	_, model, err := modelPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("model selection: %w", err)
	}
	cfg.Model = model

	basePrompt := promptui.Prompt{
		Label:     "OpenAI-compatible API base",
		Default:   cfg.OpenAIAPIBase,
		AllowEdit: true,
	}
	base, err := basePrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("api base prompt: %w", err)
	}
	cfg.OpenAIAPIBase = base

	tokensPrompt := promptui.Prompt{
		Label:     "Max tokens per response",
		Default:   strconv.Itoa(cfg.MaxTokens),
		AllowEdit: true,
		Validate: func(s string) error {
			n, err := strconv.Atoi(s)
			if err != nil || n <= 0 {
				return fmt.Errorf("enter a positive integer")
			}
			return nil
		},
	}
	tokens, err := tokensPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("max tokens prompt: %w", err)
	}
	cfg.MaxTokens, _ = strconv.Atoi(tokens)

	flaggingPrompt := promptui.Prompt{
		Label:     "Flagging log directory",
		Default:   cfg.FlaggingDir,
		AllowEdit: true,
	}
	flaggingDir, err := flaggingPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("flagging dir prompt: %w", err)
	}
	cfg.FlaggingDir = flaggingDir

	if err := cfg.Save(path); err != nil {
		return nil, err
	}

	fmt.Printf("\nConfiguration saved to %s\n", path)
	fmt.Println("Export OPENAI_API_KEY before running `datenollm serve`.")
	return cfg, nil
}

package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/datenollm/internal/client"
)

var askOpts client.AskOptions

var askCmd = &cobra.Command{
	Use:   "ask <query>",
	Short: "Generate Dateno search queries for a question",
	Long: `Sends the question to a running datenollm server and prints the JSON query
list. With --history the stored conversation is sent along and the new
turn pair is saved back to the file.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		out, err := newClient(cfg).Ask(cmd.Context(), strings.Join(args, " "), askOpts)
		if err != nil {
			return err
		}
		fmt.Println(out)
		return nil
	},
}

func init() {
	askCmd.Flags().StringVar(&askOpts.HistoryPath, "history", "", "conversation history JSON file")
	askCmd.Flags().StringVar(&askOpts.PromptPath, "prompt", "", "system prompt file overriding the server prompt")
	askCmd.Flags().StringVar(&askOpts.Model, "model", "", "model override")
	askCmd.Flags().IntVar(&askOpts.MaxTokens, "max-tokens", 0, "max tokens override")
	askCmd.Flags().Float64Var(&askOpts.Temperature, "temperature", 0, "temperature override")
	askCmd.Flags().Float64Var(&askOpts.TopP, "top-p", 0, "top_p override")
	addClientFlags(askCmd)
	rootCmd.AddCommand(askCmd)
}

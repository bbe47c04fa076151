package cmd

import (
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/ziadkadry99/datenollm/internal/logging"
)

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "datenollm",
	Short: "LLM-backed query generation for Dateno dataset search",
	Long: `datenollm turns natural-language questions into structured Dateno
search queries using an OpenAI-compatible chat model. It runs as an HTTP
and WebSocket server, as an MCP tool server, or as a client for either.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// A missing .env is fine; the variables may come from the shell.
		_ = godotenv.Load()
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", ".datenollm.yml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

// newLogger builds the stderr logger. --verbose forces debug level.
func newLogger(level string) *logrus.Logger {
	if verbose {
		level = "debug"
	}
	return logging.New(level)
}

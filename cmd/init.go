package cmd

import (
	"github.com/spf13/cobra"

	"github.com/ziadkadry99/datenollm/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize datenollm configuration with an interactive wizard",
	Long:  `Runs an interactive wizard to pick the model, API base and server settings and writes them to the config file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := config.RunWizard(cfgFile)
		return err
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}

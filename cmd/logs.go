package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var logsOutput string

var logsCmd = &cobra.Command{
	Use:   "logs",
	Short: "Download the server's flagging log",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if logsOutput == "" || logsOutput == "-" {
			return newClient(cfg).GetLogs(cmd.Context(), os.Stdout)
		}
		f, err := os.Create(logsOutput)
		if err != nil {
			return fmt.Errorf("creating %s: %w", logsOutput, err)
		}
		if err := newClient(cfg).GetLogs(cmd.Context(), f); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Flagging log saved to %s\n", logsOutput)
		return nil
	},
}

func init() {
	logsCmd.Flags().StringVarP(&logsOutput, "output", "o", "log.csv", "destination file, - for stdout")
	addClientFlags(logsCmd)
	rootCmd.AddCommand(logsCmd)
}

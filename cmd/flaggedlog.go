package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/datenollm/internal/flagging"
	"github.com/ziadkadry99/datenollm/internal/history"
)

var flaggedOutput string

var flaggedLogCmd = &cobra.Command{
	Use:   "flagged-log <log.csv|glob>",
	Short: "Convert flagging logs into a history JSON file",
	Long: `Reads one flagging log, or every log matching a doublestar pattern such as
'.gradio/**/log.csv', and writes the flattened conversation as history JSON.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		h, err := flagging.ReadAll(args[0])
		if err != nil {
			return err
		}
		if flaggedOutput == "" || flaggedOutput == "-" {
			data, err := history.Marshal(h)
			if err != nil {
				return err
			}
			_, err = os.Stdout.Write(data)
			return err
		}
		if err := history.Save(flaggedOutput, h); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Wrote %d turns to %s\n", len(h), flaggedOutput)
		return nil
	},
}

func init() {
	flaggedLogCmd.Flags().StringVarP(&flaggedOutput, "output", "o", "-", "destination history file, - for stdout")
	rootCmd.AddCommand(flaggedLogCmd)
}

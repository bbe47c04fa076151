package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/datenollm/internal/history"
)

var contextCmd = &cobra.Command{
	Use:   "context <history.json> <context.json>",
	Short: "Keep only the rated question/answer pairs of a history",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		h, err := history.Load(args[0])
		if err != nil {
			return err
		}
		ctx := history.ToContext(h)
		if err := history.Save(args[1], ctx); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Kept %d of %d turns\n", len(ctx), len(h))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(contextCmd)
}

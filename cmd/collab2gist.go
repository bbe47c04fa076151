package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/datenollm/internal/notebook"
)

var collab2gistCmd = &cobra.Command{
	Use:   "collab2gist",
	Short: "Strip Colab widget state from a notebook read on stdin",
	Long: `Reads a Jupyter notebook on stdin and writes it to stdout without
metadata.widgets, so GitHub Gist can render it.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		var nb map[string]any
		if err := json.NewDecoder(os.Stdin).Decode(&nb); err != nil {
			return fmt.Errorf("decoding notebook: %w", err)
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", " ")
		enc.SetEscapeHTML(false)
		return enc.Encode(notebook.StripWidgets(nb))
	},
}

func init() {
	rootCmd.AddCommand(collab2gistCmd)
}

package cmd

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/datenollm/internal/history"
	"github.com/ziadkadry99/datenollm/internal/orchestrator"
)

var (
	filterData    string
	filterHistory string
	filterModel   string
)

var filterCmd = &cobra.Command{
	Use:   "filter <instruction>",
	Short: "Ask the model to filter a JSON document",
	Long: `Sends the instruction together with the JSON document from --data to the
server's filter endpoint and prints the answer.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		raw, err := readInput([]string{filterData})
		if err != nil {
			return err
		}
		var data any
		if err := json.Unmarshal([]byte(raw), &data); err != nil {
			return fmt.Errorf("decoding data: %w", err)
		}
		h := history.History{}
		if filterHistory != "" {
			if h, err = history.Load(filterHistory); err != nil {
				return err
			}
		}

		req := orchestrator.FilterRequest{
			Message: strings.Join(args, " "),
			History: h,
			Data:    data,
		}
		req.Model = filterModel
		out, err := newClient(cfg).Filter(cmd.Context(), req)
		if err != nil {
			return err
		}
		fmt.Println(out)
		return nil
	},
}

func init() {
	filterCmd.Flags().StringVar(&filterData, "data", "-", "JSON document to filter, - for stdin")
	filterCmd.Flags().StringVar(&filterHistory, "history", "", "conversation history JSON file")
	filterCmd.Flags().StringVar(&filterModel, "model", "", "model override")
	addClientFlags(filterCmd)
	rootCmd.AddCommand(filterCmd)
}

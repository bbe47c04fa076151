package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/datenollm/internal/flagging"
)

var likeCmd = &cobra.Command{
	Use:   "like <row> <like|dislike> <log.csv>",
	Short: "Replay feedback for a row of a flagging log",
	Long: `Reads the conversation stored in the given data row (zero based) of a
flagging log and sends it to the server as liked or disliked.`,
	Args: cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		row, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("row must be an integer: %w", err)
		}
		var like bool
		switch strings.ToLower(args[1]) {
		case "like":
			like = true
		case "dislike":
		default:
			return fmt.Errorf("expected like or dislike, got %q", args[1])
		}

		index, h, found, err := flagging.Conversation(args[2], row)
		if err != nil {
			return err
		}
		if !found {
			return fmt.Errorf("%s has no row %d", args[2], row)
		}

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if err := newClient(cfg).Like(cmd.Context(), index, h, like); err != nil {
			return err
		}
		fmt.Printf("Recorded %s for row %d (index %d)\n", strings.ToLower(args[1]), row, index)
		return nil
	},
}

func init() {
	addClientFlags(likeCmd)
	rootCmd.AddCommand(likeCmd)
}

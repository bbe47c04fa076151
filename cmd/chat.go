package cmd

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"github.com/ziadkadry99/datenollm/internal/client"
	"github.com/ziadkadry99/datenollm/internal/history"
)

var (
	chatHistory string
	chatModel   string
)

var feedbackChoices = []string{"No feedback", "Like", "Dislike"}

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Interactive query session with like/dislike feedback",
	Long: `Starts an interactive session against a running datenollm server. Every
answer can be marked Like or Dislike; marked answers are stored in the
history file and sent to the server's flagging log. An empty question or
Ctrl-C ends the session.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		c := newClient(cfg)
		file := history.File{Path: chatHistory}
		ctx := cmd.Context()

		for {
			q := promptui.Prompt{Label: "Question"}
			question, err := q.Run()
			if errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrEOF) {
				return nil
			}
			if err != nil {
				return fmt.Errorf("reading question: %w", err)
			}
			question = strings.TrimSpace(question)
			if question == "" {
				return nil
			}

			answer, err := c.Ask(ctx, question, client.AskOptions{HistoryPath: chatHistory, Model: chatModel})
			if err != nil {
				return err
			}
			fmt.Println(answer)

			sel := promptui.Select{Label: "Feedback", Items: feedbackChoices}
			_, choice, err := sel.Run()
			if errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrEOF) {
				return nil
			}
			if err != nil {
				return fmt.Errorf("reading feedback: %w", err)
			}
			if choice == feedbackChoices[0] {
				continue
			}

			h, err := file.Load()
			if err != nil {
				return err
			}
			h = h.MarkLast(history.Feedback(choice), time.Now())
			if err := file.Save(h); err != nil {
				return err
			}
			if err := c.Like(ctx, len(h)-1, h, choice == string(history.FeedbackLike)); err != nil {
				return fmt.Errorf("sending feedback: %w", err)
			}
		}
	},
}

func init() {
	chatCmd.Flags().StringVar(&chatHistory, "history", "datenollm-chat.json", "conversation history JSON file")
	chatCmd.Flags().StringVar(&chatModel, "model", "", "model override")
	addClientFlags(chatCmd)
	rootCmd.AddCommand(chatCmd)
}

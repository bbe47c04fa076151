package cmd

import "github.com/spf13/cobra"

var (
	clientAddr  string
	clientToken string
)

// addClientFlags registers the server address and token flags on commands
// that talk to a running server.
func addClientFlags(c *cobra.Command) {
	c.Flags().StringVar(&clientAddr, "addr", "", "server address (default from config client.address)")
	c.Flags().StringVar(&clientToken, "token", "", "bearer token (default $HF_TOKEN)")
}

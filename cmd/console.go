package cmd

import (
	"github.com/spf13/cobra"

	"github.com/lehigh-university-libraries/mviewer/internal/tui"
)

func newConsoleCmd() *cobra.Command {
	var url string

	cmd := &cobra.Command{
		Use:   "console",
		Short: "Drive a viewer session from the terminal",
		Long: `Opens a websocket session on a running mviewer server. Arrow keys pan,
+ and - zoom, and ':' sends any wire command.`,
		Example: `  mviewer console --url ws://localhost:8888/ws`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return tui.Run(cmd.Context(), url)
		},
	}

	cmd.Flags().StringVar(&url, "url", "ws://localhost:8888/ws", "Websocket URL of the server")

	return cmd
}

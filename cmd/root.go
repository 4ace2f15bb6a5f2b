package cmd

import (
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mviewer",
		Short: "Interactive astronomical image view server built on Montage",
		Long: `mviewer serves browser and terminal clients that pan, zoom and pick on
FITS images. Each client connection gets its own session; rendering is done
by the Montage command line tools.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Load .env file if present (ignore errors)
			_ = godotenv.Load()
		},
	}

	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newConsoleCmd())
	cmd.AddCommand(newSamplesCmd())

	return cmd
}

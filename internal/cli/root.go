package cli

import (
	"os"

	"github.com/spf13/cobra"
)

func Execute() {
	cmd := newRootCmd()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var logLevel string

	cmd := &cobra.Command{
		Use:          "tictactoe",
		Short:        "Two-player tic-tac-toe in the terminal or the browser",
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override the configured log level (debug, info, warn, error)")
	cmd.AddCommand(newServeCmd(&logLevel), newPlayCmd(&logLevel))
	return cmd
}

package cli

import (
	"ctchen222/tictactoe/internal/logger"
	"io"
	"os"

	"github.com/spf13/cobra"
)

func newPlayCmd(logLevel *string) *cobra.Command {
	var logFile string

	cmd := &cobra.Command{
		Use:   "play",
		Short: "Play a hot-seat game in the terminal",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			// The TUI owns the terminal, so logs only go to a file when asked.
			var w io.Writer = io.Discard
			if logFile != "" {
				f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
				if err != nil {
					return err
				}
				defer f.Close()
				w = f
			}
			logger.InitWriter(w, levelOr(*logLevel, "info"), false)

			return runTUI()
		},
	}

	cmd.Flags().StringVar(&logFile, "log-file", "", "write logs to this file while playing")
	return cmd
}

func levelOr(level, fallback string) string {
	if level != "" {
		return level
	}
	return fallback
}

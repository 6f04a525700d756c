package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "playercore",
	Short: "Gapless audio playback engine",
	Long: `playercore - an event-loop-driven, gapless audio playback engine.

A single Player state machine feeds one Sink from a FIFO of decoded
tracks, timed against the sink's own reported output latency so that
track-to-track transitions play with no audible gap and no double-counted
silence.

Commands:
  - play: play one or more audio files back to back, gaplessly`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

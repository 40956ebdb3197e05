// Command gdrelay polls one or more Google Drive locations for activity
// and relays it to downstream media-server tooling (Plex, Kavita,
// Jellyfin, Stash, Discord, rclone, ...).
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

const (
	exitOK            = 0
	exitConfigError   = 1
	exitBootstrapFail = 2
)

var rootCmd = &cobra.Command{
	Use:   "gdrelay [settings-dir]",
	Short: "gdrelay - Google Drive activity poller and dispatcher",
	Long:  `Watches one or more Google Drive ancestors for activity and relays each event to configured downstream dispatchers (Plex, Kavita, Jellyfin, Stash, Discord, rclone, and more).`,
	Args:  cobra.MaximumNArgs(1),
	RunE:  runRoot,
}

var (
	devMode bool
	dryRun  bool
)

func init() {
	rootCmd.PersistentFlags().BoolVar(&devMode, "dev", false, "enable human-readable development logging instead of JSON")
	rootCmd.Flags().BoolVar(&dryRun, "dry-run", false, "load and print the merged settings without starting any poller")
	rootCmd.AddCommand(validateCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitConfigError)
	}
}

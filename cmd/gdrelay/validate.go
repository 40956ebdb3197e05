package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/gdrelay/gdrelay/internal/config"
)

var validateCmd = &cobra.Command{
	Use:   "validate [settings-dir]",
	Short: "load and print the fully merged settings without starting any poller",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		settings, err := config.Load(settingsDirs(args))
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(exitConfigError)
		}
		return printSettings(settings)
	},
}

// printSettings renders the fully resolved Settings tree (hardcoded
// defaults deep-merged with the settings file and environment overrides)
// back out as YAML by marshalling the Go struct with yaml.v3. Fields with
// yaml tags keep their settings-file names, but the embedded defaults
// appear under "globaldefaults" and untagged fields under their
// lower-cased Go names, so the output is not a drop-in settings file.
func printSettings(settings config.Settings) error {
	out, err := yaml.Marshal(settings)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}
	fmt.Println(string(out))
	return nil
}

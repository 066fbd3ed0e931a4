// Package cmd provides Cobra CLI commands for voce.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/bnema/voce/internal/cli"
	"github.com/bnema/voce/internal/domain/build"
)

var (
	app        *cli.App
	buildInfo  build.Info
	configFile string
	rootCmd    = &cobra.Command{
		Use:   "voce",
		Short: "A tabbed browser shell with an assistant command channel",
		Long: `Voce - a keyboard and voice driven browser shell.

Voce drives Chrome over the DevTools protocol (or an in-process engine for
scripting and tests) and shows tabs, windows and the address bar in the
terminal. An assistant channel turns utterances such as "open new tab" or
"close this window" into browser commands.

Use 'voce browse' to start a session, or 'voce intent' to check how an
utterance is understood.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			// Skip initialization for commands that don't need app context
			switch cmd.Name() {
			case "help", "completion":
				return nil
			}

			var err error
			app, err = cli.NewApp(configFile)
			if err != nil {
				return fmt.Errorf("initialize app: %w", err)
			}
			// Set build info from main.go
			app.BuildInfo = buildInfo
			return nil
		},
		PersistentPostRun: func(_ *cobra.Command, _ []string) {
			if app != nil {
				_ = app.Close()
			}
		},
	}
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (default $XDG_CONFIG_HOME/voce/config.toml)")
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// GetApp returns the initialized app (for use by subcommands).
func GetApp() *cli.App {
	return app
}

// SetBuildInfo sets the build information (called from main.go before Execute).
func SetBuildInfo(info build.Info) {
	buildInfo = info
}

package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var intentCmd = &cobra.Command{
	Use:   "intent <utterance...>",
	Short: "Show the command an utterance maps to",
	Long: `Resolve an utterance the way the assistant channel does and print the
resulting browser command.

Examples:
  voce intent open new tab       # open_tab
  voce intent "close ths window" # close_current_window (fuzzy match)`,
	Args: cobra.MinimumNArgs(1),
	RunE: runIntent,
}

func init() {
	rootCmd.AddCommand(intentCmd)
}

func runIntent(cmd *cobra.Command, args []string) error {
	app := GetApp()
	if app == nil {
		return fmt.Errorf("app not initialized")
	}

	command, err := app.ParseIntent(strings.Join(args, " "))
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), command.String())
	return nil
}

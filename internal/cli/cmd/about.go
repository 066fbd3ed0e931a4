package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var aboutCmd = &cobra.Command{
	Use:   "about",
	Short: "Show version and build information",
	Long:  `Display version, build info, repository URL, and contributors.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		app := GetApp()
		if app == nil {
			return fmt.Errorf("app not initialized")
		}
		fmt.Fprintln(cmd.OutOrStdout(), app.RenderAbout())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(aboutCmd)
}

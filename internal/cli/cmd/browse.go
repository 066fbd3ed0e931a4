package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/bnema/voce/internal/cli"
)

var browseFlags struct {
	engine     string
	headless   bool
	noTUI      bool
	intentFile string
	stdin      bool
	watch      bool
}

var browseCmd = &cobra.Command{
	Use:   "browse [url]",
	Short: "Start a browser session",
	Long: `Start a browser session.

If a URL is provided, the first window opens it. Otherwise it opens the home
page. Input that does not look like a URL is sent to the search engine.

Examples:
  voce browse                          # Open the home page
  voce browse example.com              # Open a URL
  voce browse --intent-file /tmp/say   # Follow an intent file
  echo "open new tab" | voce browse --no-tui --stdin --renderer memory`,
	Args: cobra.MaximumNArgs(1),
	RunE: runBrowse,
}

func init() {
	f := browseCmd.Flags()
	f.StringVar(&browseFlags.engine, "renderer", "", "rendering engine: cdp or memory (default from config)")
	f.BoolVar(&browseFlags.headless, "headless", false, "run Chrome without a visible window")
	f.BoolVar(&browseFlags.noTUI, "no-tui", false, "run without the terminal chrome, auto-confirming dialogs")
	f.StringVar(&browseFlags.intentFile, "intent-file", "", "follow this file for assistant utterances")
	f.BoolVar(&browseFlags.stdin, "stdin", false, "read assistant utterances from stdin (requires --no-tui)")
	f.BoolVar(&browseFlags.watch, "watch-config", false, "reload the config file on change")
	rootCmd.AddCommand(browseCmd)
}

func runBrowse(cmd *cobra.Command, args []string) error {
	app := GetApp()
	if app == nil {
		return fmt.Errorf("app not initialized")
	}

	opts := cli.BrowseOptions{
		Engine:     browseFlags.engine,
		NoTUI:      browseFlags.noTUI,
		IntentFile: browseFlags.intentFile,
		Stdin:      browseFlags.stdin,
		Watch:      browseFlags.watch,
		In:         cmd.InOrStdin(),
		Out:        cmd.OutOrStdout(),
	}
	if len(args) > 0 {
		opts.URL = args[0]
	}
	if cmd.Flags().Changed("headless") {
		headless := browseFlags.headless
		opts.Headless = &headless
	}

	ctx, stop := signal.NotifyContext(app.Ctx(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return app.Browse(ctx, opts)
}

package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/bnema/voce/internal/domain/build"
	"github.com/bnema/voce/internal/domain/entity"
	"github.com/bnema/voce/internal/domain/intent"
	"github.com/bnema/voce/internal/infrastructure/config"
)

// RenderAbout renders build info next to the logo.
func (a *App) RenderAbout() string {
	logoStyle := lipgloss.NewStyle().Foreground(a.Theme.Accent).Bold(true)
	logo := logoStyle.MarginTop(1).MarginLeft(2).Render(`██    ██
██    ██
 ██  ██
  ████
   ██`)

	info := a.BuildInfo
	key := a.Theme.Subtle
	val := a.Theme.Highlight
	lines := []string{
		fmt.Sprintf("%s %s", key.Render("Version"), val.Render(info.Version)),
		fmt.Sprintf("%s  %s", key.Render("Commit"), val.Render(info.Commit)),
		fmt.Sprintf("%s   %s", key.Render("Built"), val.Render(info.BuildDate)),
		fmt.Sprintf("%s      %s", key.Render("Go"), val.Render(info.GoVersion)),
		"",
		key.Render(build.RepoURL()),
		key.Render("by " + strings.Join(build.Contributors(), ", ")),
	}
	body := lipgloss.NewStyle().MarginTop(1).Render(strings.Join(lines, "\n"))
	return lipgloss.JoinHorizontal(lipgloss.Top, logo, "   ", body)
}

// ParseIntent resolves an utterance with the configured fuzzy ratio.
func (a *App) ParseIntent(text string) (entity.Command, error) {
	matcher := intent.NewMatcher()
	matcher.MaxDistanceRatio = a.Config.Assistant.FuzzyRatio
	return matcher.Parse(text)
}

// RenderConfig lists the effective settings.
func (a *App) RenderConfig() string {
	c := a.Config
	file := a.Manager.GetConfigFile()
	if file == "" {
		file = "(defaults)"
	}
	rows := [][2]string{
		{"file", file},
		{"home_url", c.HomeURL},
		{"search_engine_base", c.SearchEngineBase},
		{"app_name", c.AppName},
		{"logging.level", c.Logging.Level},
		{"logging.format", c.Logging.Format},
		{"renderer.engine", string(c.Renderer.Engine)},
		{"renderer.headless", fmt.Sprint(c.Renderer.Headless)},
		{"renderer.exec_path", c.Renderer.ExecPath},
		{"renderer.debug_port", fmt.Sprint(c.Renderer.DebugPort)},
		{"renderer.user_data_dir", c.Renderer.UserDataDir},
		{"renderer.action_timeout", c.Renderer.ActionTimeout.String()},
		{"assistant.enabled", fmt.Sprint(c.Assistant.Enabled)},
		{"assistant.intent_file", c.Assistant.IntentFile},
		{"assistant.stdin", fmt.Sprint(c.Assistant.Stdin)},
		{"assistant.retry_backoff", c.Assistant.RetryBackoff.String()},
		{"assistant.fuzzy_ratio", fmt.Sprint(c.Assistant.FuzzyRatio)},
		{"assistant.greeting", c.Assistant.Greeting},
		{"window.confirm_close", fmt.Sprint(c.Window.ConfirmClose)},
	}

	var b strings.Builder
	b.WriteString(a.Theme.Title.Render("voce configuration"))
	b.WriteString("\n")
	for _, r := range rows {
		fmt.Fprintf(&b, "%-26s %s\n", a.Theme.Subtle.Render(r[0]), a.Theme.Highlight.Render(r[1]))
	}
	return b.String()
}

// InitConfig writes the default config file unless one exists. An empty
// path means the --config file, then the XDG location.
func (a *App) InitConfig(path string) (string, error) {
	if path == "" {
		path = a.Manager.GetConfigFile()
		if path == "" {
			var err error
			if path, err = config.GetConfigFile(); err != nil {
				return "", err
			}
		}
	}
	return a.Manager.WriteDefault(path)
}

package config

import "time"

// Default configuration constants
const (
	defaultHomeURL          = "https://duckduckgo.com/"
	defaultSearchEngineBase = "https://duckduckgo.com"
	defaultAppName          = "Voce Browser"

	defaultLogLevel  = "info"
	defaultLogFormat = "console"

	defaultDebugPort     = 9222
	defaultActionTimeout = 30 * time.Second

	defaultRetryBackoff = time.Second
	defaultFuzzyRatio   = 0.2
	defaultGreeting     = "Hi, I'm Voce. Ask me to open or close tabs and windows."
)

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		HomeURL:          defaultHomeURL,
		SearchEngineBase: defaultSearchEngineBase,
		AppName:          defaultAppName,
		Logging: LoggingConfig{
			Level:  defaultLogLevel,
			Format: defaultLogFormat,
		},
		Renderer: RendererConfig{
			Engine:        RendererCDP,
			DebugPort:     defaultDebugPort,
			ActionTimeout: defaultActionTimeout,
		},
		Assistant: AssistantConfig{
			Enabled:      true,
			RetryBackoff: defaultRetryBackoff,
			FuzzyRatio:   defaultFuzzyRatio,
			Greeting:     defaultGreeting,
		},
		Window: WindowConfig{
			ConfirmClose: true,
		},
	}
}

// setDefaults registers every default with viper so that env overrides
// and partial config files resolve against them.
func (m *Manager) setDefaults() {
	d := DefaultConfig()

	m.viper.SetDefault("home_url", d.HomeURL)
	m.viper.SetDefault("search_engine_base", d.SearchEngineBase)
	m.viper.SetDefault("app_name", d.AppName)

	m.viper.SetDefault("logging.level", d.Logging.Level)
	m.viper.SetDefault("logging.format", d.Logging.Format)

	m.viper.SetDefault("renderer.engine", string(d.Renderer.Engine))
	m.viper.SetDefault("renderer.headless", d.Renderer.Headless)
	m.viper.SetDefault("renderer.exec_path", d.Renderer.ExecPath)
	m.viper.SetDefault("renderer.debug_port", d.Renderer.DebugPort)
	m.viper.SetDefault("renderer.user_data_dir", d.Renderer.UserDataDir)
	m.viper.SetDefault("renderer.action_timeout", d.Renderer.ActionTimeout.String())

	m.viper.SetDefault("assistant.enabled", d.Assistant.Enabled)
	m.viper.SetDefault("assistant.intent_file", d.Assistant.IntentFile)
	m.viper.SetDefault("assistant.stdin", d.Assistant.Stdin)
	m.viper.SetDefault("assistant.retry_backoff", d.Assistant.RetryBackoff.String())
	m.viper.SetDefault("assistant.fuzzy_ratio", d.Assistant.FuzzyRatio)
	m.viper.SetDefault("assistant.greeting", d.Assistant.Greeting)

	m.viper.SetDefault("window.confirm_close", d.Window.ConfirmClose)
}

// Package config provides configuration management for voce with Viper integration.
package config

import "time"

// File permission constants
const (
	dirPerm  = 0755 // Standard directory permissions (rwxr-xr-x)
	filePerm = 0644 // Standard file permissions (rw-r--r--)
)

// Config represents the complete configuration for voce.
type Config struct {
	// HomeURL is opened in new windows and by the home action.
	HomeURL string `mapstructure:"home_url" toml:"home_url"`
	// SearchEngineBase receives "?q=<words>" for non-URL address input,
	// or replaces a "%s" placeholder when present.
	SearchEngineBase string `mapstructure:"search_engine_base" toml:"search_engine_base"`
	// AppName is appended to window titles: "<page title> - <app name>".
	AppName string `mapstructure:"app_name" toml:"app_name"`

	Logging   LoggingConfig   `mapstructure:"logging" toml:"logging"`
	Renderer  RendererConfig  `mapstructure:"renderer" toml:"renderer"`
	Assistant AssistantConfig `mapstructure:"assistant" toml:"assistant"`
	Window    WindowConfig    `mapstructure:"window" toml:"window"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `mapstructure:"level" toml:"level"`
	Format string `mapstructure:"format" toml:"format"`
}

// RendererEngine selects the rendering backend.
type RendererEngine string

const (
	// RendererCDP drives Chrome/Chromium over the DevTools protocol.
	RendererCDP RendererEngine = "cdp"
	// RendererMemory is the in-process engine (no network, no pixels).
	RendererMemory RendererEngine = "memory"
)

// RendererConfig configures the rendering backend.
type RendererConfig struct {
	Engine RendererEngine `mapstructure:"engine" toml:"engine"`
	// Headless runs Chrome without a visible window.
	Headless bool `mapstructure:"headless" toml:"headless"`
	// ExecPath overrides Chrome discovery.
	ExecPath string `mapstructure:"exec_path" toml:"exec_path"`
	// DebugPort is the remote debugging port, also used for the inspector front-end.
	DebugPort int `mapstructure:"debug_port" toml:"debug_port"`
	// UserDataDir is the Chrome profile directory. Empty means a temporary profile.
	UserDataDir string `mapstructure:"user_data_dir" toml:"user_data_dir"`
	// ActionTimeout bounds each renderer round trip (navigate, query title...).
	ActionTimeout time.Duration `mapstructure:"action_timeout" toml:"action_timeout"`
}

// AssistantConfig configures the assistant command channel.
type AssistantConfig struct {
	Enabled bool `mapstructure:"enabled" toml:"enabled"`
	// IntentFile is followed for new lines; each line is one utterance.
	IntentFile string `mapstructure:"intent_file" toml:"intent_file"`
	// Stdin reads utterances from standard input (headless mode only).
	Stdin bool `mapstructure:"stdin" toml:"stdin"`
	// RetryBackoff is the pause after a failed read before retrying.
	RetryBackoff time.Duration `mapstructure:"retry_backoff" toml:"retry_backoff"`
	// FuzzyRatio is the accepted edit distance per phrase character (0 disables).
	FuzzyRatio float64 `mapstructure:"fuzzy_ratio" toml:"fuzzy_ratio"`
	// Greeting is spoken once, on the first completed page load.
	Greeting string `mapstructure:"greeting" toml:"greeting"`
}

// WindowConfig configures window behavior.
type WindowConfig struct {
	// ConfirmClose asks before closing a window.
	ConfirmClose bool `mapstructure:"confirm_close" toml:"confirm_close"`
}

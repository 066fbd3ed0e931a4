package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/spf13/viper"
)

// Manager handles configuration loading, watching, and reloading.
type Manager struct {
	config    *Config
	viper     *viper.Viper
	mu        sync.RWMutex
	callbacks []func(*Config)
	watching  bool
}

// NewManager creates a new configuration manager. An explicit configFile
// takes precedence over the XDG config directory and the working directory.
func NewManager(configFile string) (*Manager, error) {
	v := viper.New()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		configDir, err := GetConfigDir()
		if err != nil {
			return nil, fmt.Errorf("failed to determine config directory: %w\nCheck XDG_CONFIG_HOME environment variable or HOME directory", err)
		}
		v.AddConfigPath(configDir)
		v.AddConfigPath(".") // Current directory for development
	}
	v.SetConfigType("toml")

	// VOCE_HOME_URL, VOCE_RENDERER_ENGINE, VOCE_ASSISTANT_INTENT_FILE, ...
	v.SetEnvPrefix("VOCE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.BindEnv("logging.level", "VOCE_LOG_LEVEL"); err != nil {
		return nil, fmt.Errorf("failed to bind VOCE_LOG_LEVEL: %w", err)
	}
	if err := v.BindEnv("logging.format", "VOCE_LOG_FORMAT"); err != nil {
		return nil, fmt.Errorf("failed to bind VOCE_LOG_FORMAT: %w", err)
	}

	return &Manager{
		viper:     v,
		callbacks: make([]func(*Config), 0),
	}, nil
}

// Load loads the configuration from file and environment variables.
// A missing config file is not an error: defaults apply.
func (m *Manager) Load() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.setDefaults()

	if err := m.readConfigFile(); err != nil {
		return err
	}

	config, err := m.unmarshalConfig()
	if err != nil {
		return err
	}
	normalizeConfig(config)

	if err := validateConfig(config); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}

	m.config = config
	return nil
}

func (m *Manager) readConfigFile() error {
	err := m.viper.ReadInConfig()
	if err == nil {
		return nil
	}

	var notFound viper.ConfigFileNotFoundError
	if errors.As(err, &notFound) || errors.Is(err, os.ErrNotExist) {
		return nil
	}

	configFile := m.viper.ConfigFileUsed()
	if configFile == "" {
		configDir, _ := GetConfigDir()
		configFile = filepath.Join(configDir, "config.toml")
	}
	return fmt.Errorf("failed to read config file at %s: %w\nCheck the file format (must be valid TOML) and permissions", configFile, err)
}

func (m *Manager) unmarshalConfig() (*Config, error) {
	config := &Config{}
	if err := m.viper.Unmarshal(config); err != nil {
		return nil, fmt.Errorf(
			"failed to parse config file at %s: %w\nCheck for syntax errors, invalid values, or type mismatches",
			m.viper.ConfigFileUsed(),
			err,
		)
	}
	return config, nil
}

func normalizeConfig(config *Config) {
	config.HomeURL = strings.TrimSpace(config.HomeURL)
	config.SearchEngineBase = strings.TrimRight(strings.TrimSpace(config.SearchEngineBase), "?")
	config.AppName = strings.TrimSpace(config.AppName)
	if config.AppName == "" {
		config.AppName = defaultAppName
	}

	switch strings.ToLower(string(config.Renderer.Engine)) {
	case string(RendererMemory):
		config.Renderer.Engine = RendererMemory
	default:
		config.Renderer.Engine = RendererCDP
	}

	config.Logging.Level = strings.ToLower(strings.TrimSpace(config.Logging.Level))
	config.Logging.Format = strings.ToLower(strings.TrimSpace(config.Logging.Format))

	if config.Assistant.RetryBackoff <= 0 {
		config.Assistant.RetryBackoff = defaultRetryBackoff
	}
	if config.Assistant.IntentFile != "" && strings.HasPrefix(config.Assistant.IntentFile, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			config.Assistant.IntentFile = filepath.Join(home, config.Assistant.IntentFile[2:])
		}
	}
}

// Get returns the current configuration (thread-safe).
func (m *Manager) Get() *Config {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.config == nil {
		return DefaultConfig()
	}
	configCopy := *m.config
	return &configCopy
}

// GetConfigFile returns the path to the configuration file being used.
func (m *Manager) GetConfigFile() string {
	return m.viper.ConfigFileUsed()
}

// WriteDefault writes the default configuration to path (or the XDG config
// file when path is empty). Existing files are never overwritten.
func (m *Manager) WriteDefault(path string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if path == "" {
		var err error
		path, err = GetConfigFile()
		if err != nil {
			return "", err
		}
	}
	if err := os.MkdirAll(filepath.Dir(path), dirPerm); err != nil {
		return "", fmt.Errorf("create config directory: %w", err)
	}

	m.setDefaults()
	m.viper.SetConfigType("toml")
	if err := m.viper.SafeWriteConfigAs(path); err != nil {
		return "", fmt.Errorf("failed to write config file: %w", err)
	}
	if err := os.Chmod(path, filePerm); err != nil {
		return "", fmt.Errorf("set config file permissions: %w", err)
	}
	return path, nil
}

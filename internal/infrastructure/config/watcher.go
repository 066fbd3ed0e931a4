package config

import (
	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// Watch starts watching the config file for changes and reloads automatically.
// Reload failures keep the previous configuration.
func (m *Manager) Watch(log *zerolog.Logger) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.watching || m.viper.ConfigFileUsed() == "" {
		return
	}

	m.viper.OnConfigChange(func(e fsnotify.Event) {
		log.Debug().Str("op", e.Op.String()).Str("file", e.Name).Msg("config change detected")

		m.mu.Lock()
		if err := m.reload(); err != nil {
			log.Warn().Err(err).Msg("failed to reload config")
			m.mu.Unlock()
			return
		}
		m.notifyCallbacksLocked()
	})
	m.viper.WatchConfig()

	m.watching = true
}

// notifyCallbacksLocked copies callbacks and config, releases lock, then notifies.
// Must be called with m.mu held for write. Releases the lock before calling callbacks.
func (m *Manager) notifyCallbacksLocked() {
	config := *m.config
	callbacks := make([]func(*Config), len(m.callbacks))
	copy(callbacks, m.callbacks)
	m.mu.Unlock()

	for _, callback := range callbacks {
		callback(&config)
	}
}

// OnConfigChange registers a callback function to be called when config changes.
func (m *Manager) OnConfigChange(callback func(*Config)) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.callbacks = append(m.callbacks, callback)
}

// reload reloads the configuration (internal method, must be called with lock held for write).
func (m *Manager) reload() error {
	if err := m.viper.ReadInConfig(); err != nil {
		return err
	}
	config, err := m.unmarshalConfig()
	if err != nil {
		return err
	}
	normalizeConfig(config)
	if err := validateConfig(config); err != nil {
		return err
	}
	m.config = config
	return nil
}

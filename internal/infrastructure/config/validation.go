package config

import (
	"fmt"
	"net/url"
	"strings"
)

// validateConfig performs comprehensive validation of configuration values
func validateConfig(config *Config) error {
	var validationErrors []string

	validationErrors = append(validationErrors, validateURLs(config)...)
	validationErrors = append(validationErrors, validateLogging(config)...)
	validationErrors = append(validationErrors, validateRenderer(config)...)
	validationErrors = append(validationErrors, validateAssistant(config)...)

	if len(validationErrors) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(validationErrors, "\n  - "))
	}

	return nil
}

func validateURLs(config *Config) []string {
	var validationErrors []string
	if !isAbsoluteURL(config.HomeURL) {
		validationErrors = append(validationErrors, "home_url must be an absolute URL")
	}
	base := strings.Replace(config.SearchEngineBase, "%s", "", 1)
	if !isAbsoluteURL(base) {
		validationErrors = append(validationErrors, "search_engine_base must be an absolute URL")
	}
	if strings.Count(config.SearchEngineBase, "%s") > 1 {
		validationErrors = append(validationErrors, "search_engine_base may contain at most one %s placeholder")
	}
	return validationErrors
}

func validateLogging(config *Config) []string {
	var validationErrors []string
	switch config.Logging.Level {
	case "", "trace", "debug", "info", "warn", "warning", "error", "disabled", "off":
	default:
		validationErrors = append(validationErrors, "logging.level must be one of: trace, debug, info, warn, error, disabled")
	}
	switch config.Logging.Format {
	case "", "console", "json":
	default:
		validationErrors = append(validationErrors, "logging.format must be one of: console, json")
	}
	return validationErrors
}

func validateRenderer(config *Config) []string {
	var validationErrors []string
	if config.Renderer.DebugPort < 0 || config.Renderer.DebugPort > 65535 {
		validationErrors = append(validationErrors, "renderer.debug_port must be between 0 and 65535")
	}
	if config.Renderer.ActionTimeout < 0 {
		validationErrors = append(validationErrors, "renderer.action_timeout must be non-negative")
	}
	return validationErrors
}

func validateAssistant(config *Config) []string {
	if config.Assistant.FuzzyRatio < 0 || config.Assistant.FuzzyRatio > 1 {
		return []string{"assistant.fuzzy_ratio must be between 0 and 1"}
	}
	return nil
}

func isAbsoluteURL(raw string) bool {
	u, err := url.Parse(raw)
	return err == nil && u.Scheme != "" && (u.Host != "" || u.Opaque != "")
}

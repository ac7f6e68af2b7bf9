// Package config resolves the yzconfig CLI's own settings. Defaults and
// YZCONFIG_-prefixed environment variables are overlaid with the overlay
// engine; CLI flags take precedence: CLI flags > Environment variables >
// Defaults.
package config

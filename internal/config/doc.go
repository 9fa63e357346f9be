// Package config loads and validates the application configuration from
// environment variables and optional config files, exposing it as typed
// structs grouped by concern.
package config

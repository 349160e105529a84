// Package config handles loading and parsing of configuration from YAML files
// and environment variables. It defines the application configuration structure
// including server settings, the ordered provider list, health policy tuning
// (failure window and optional failure threshold), logging and metrics options.
package config

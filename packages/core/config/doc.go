// Package config handles configuration loading and management for commentclient.
//
// It provides functionality for:
//   - Loading configuration from JSON or YAML files
//   - Overriding values from COMMENT_CLIENT_* environment variables
//   - Default configuration values
//   - Watching the config file so the API key can rotate without a restart
package config

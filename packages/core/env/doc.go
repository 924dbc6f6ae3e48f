// Package env loads environment variables for commentclient.
//
// It provides functionality for:
//   - Loading .env files and exporting them to the process environment
//   - Collecting prefixed variables (COMMENT_CLIENT_*) for config overrides
package env

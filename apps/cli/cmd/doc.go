// Package cmd implements the commentclient CLI commands using Cobra.
//
// Available commands:
//   - request: Send one request to the comments service
//   - probe: Sample latency and error mix of an endpoint
//   - config: Show the effective configuration with secrets masked
//   - mock: Start a stand-in comments service from route files
//   - version: Show version information
//
// Every command reads the same configuration: a config file, a .env file
// and COMMENT_CLIENT_* environment variables, in increasing precedence.
package cmd

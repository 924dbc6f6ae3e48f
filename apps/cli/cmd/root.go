package cmd

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

var (
	configFlag      string
	envFileFlag     string
	noColorFlag     bool
	watchConfigFlag bool
)

var rootCmd = &cobra.Command{
	Use:   "commentclient",
	Short: "Talk to the discussion forum comments service.",
	Long: `commentclient sends authenticated requests to the comments service,
classifies its failures and reports request timings.

Configuration is read from .commentclient.{json,yaml} (or --config),
then .env, then COMMENT_CLIENT_* environment variables.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if noColorFlag {
			color.NoColor = true
		}
	},
}

func Execute(v, bt string) {
	version = v
	buildTime = bt
	if err := rootCmd.Execute(); err != nil {
		color.New(color.FgRed).Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(exitCode(err))
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFlag, "config", getEnvString("COMMENT_CLIENT_CONFIG", ""), "Path to config file (env: COMMENT_CLIENT_CONFIG)")
	rootCmd.PersistentFlags().StringVar(&envFileFlag, "env-file", getEnvString("COMMENT_CLIENT_ENV_FILE", ".env"), "Path to .env file (env: COMMENT_CLIENT_ENV_FILE)")
	rootCmd.PersistentFlags().BoolVar(&noColorFlag, "no-color", getEnvBool("COMMENT_CLIENT_NO_COLOR", false), "Disable colored output (env: COMMENT_CLIENT_NO_COLOR)")
	rootCmd.PersistentFlags().BoolVar(&watchConfigFlag, "watch-config", false, "Reload the API key when the config file changes")

	rootCmd.AddCommand(requestCmd)
	rootCmd.AddCommand(probeCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}

// Environment variable helpers
func getEnvString(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		return val == "true" || val == "1" || val == "yes"
	}
	return defaultVal
}

func usageError(format string, args ...any) error {
	return withExitCode(ExitUsageError, fmt.Errorf(format, args...))
}

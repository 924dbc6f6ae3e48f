package cmd

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show the effective configuration",
	Long: `Print the configuration after merging the config file, .env and
COMMENT_CLIENT_* variables. API keys are masked.

Examples:
  commentclient config
  commentclient config --format yaml
  COMMENT_CLIENT_TIMEOUT_MS=2000 commentclient config`,
	Args: cobra.NoArgs,
	RunE: configCommand,
}

var configFormatFlag string

func init() {
	configCmd.Flags().StringVarP(&configFormatFlag, "format", "f", "json", "Output format: json or yaml")
}

func configCommand(cmd *cobra.Command, args []string) error {
	cfg, path, _, err := loadConfig()
	if err != nil {
		return err
	}

	if path != "" {
		fmt.Fprintf(cmd.ErrOrStderr(), "# loaded from %s\n", path)
	} else {
		fmt.Fprintln(cmd.ErrOrStderr(), "# no config file found, using defaults")
	}

	redacted := cfg.Redacted()
	switch strings.ToLower(configFormatFlag) {
	case "yaml", "yml":
		out, err := yaml.Marshal(redacted)
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), string(out))
	case "json":
		out, err := json.MarshalIndent(redacted, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(out))
	default:
		return usageError("unknown format %q: use json or yaml", configFormatFlag)
	}
	return nil
}

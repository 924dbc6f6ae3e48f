package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/abdul-hamid-achik/commentclient/packages/logger"
	"github.com/abdul-hamid-achik/commentclient/packages/mock"
)

var (
	mockPortFlag        int
	mockDelayFlag       time.Duration
	mockAPIKeyFlag      string
	mockMaintenanceFlag bool
	mockVerboseFlag     bool
)

var mockCmd = &cobra.Command{
	Use:   "mock <routes-file>...",
	Short: "Start a stand-in comments service",
	Long: `Start an HTTP server that answers the routes listed in YAML or JSON
route files, for trying the client without a real forum.

Route file format:
  routes:
    - method: GET
      path: /api/v1/threads/{thread_id}
      status: 200
      body: '{"id":"{thread_id}"}'

Examples:
  commentclient mock routes.yaml
  commentclient mock routes.yaml --port 4567 --delay 100ms
  commentclient mock routes.yaml --api-key secret
  commentclient mock routes.yaml --maintenance`,
	Args: cobra.MinimumNArgs(1),
	RunE: mockCommand,
}

func init() {
	mockCmd.Flags().IntVarP(&mockPortFlag, "port", "p", 4567, "Port to run the mock server on")
	mockCmd.Flags().DurationVar(&mockDelayFlag, "delay", 0, "Delay to add to all responses (e.g., 100ms, 1s)")
	mockCmd.Flags().StringVar(&mockAPIKeyFlag, "api-key", "", "Reject requests without this API key")
	mockCmd.Flags().BoolVar(&mockMaintenanceFlag, "maintenance", false, "Answer every request with the maintenance status")
	mockCmd.Flags().BoolVarP(&mockVerboseFlag, "verbose", "v", false, "Log every request")
	rootCmd.AddCommand(mockCmd)
}

func mockCommand(cmd *cobra.Command, args []string) error {
	cfg, _, _, err := loadConfig()
	if err != nil {
		return err
	}

	level := slog.LevelInfo
	if mockVerboseFlag {
		level = slog.LevelDebug
	}
	log := logger.NewWithWriter(os.Stderr, cfg.Log.Format, level)

	server := mock.NewServer(
		mock.WithAPIKey(mockAPIKeyFlag),
		mock.WithDelay(mockDelayFlag),
		mock.WithMaintenanceStatus(cfg.MaintenanceStatus),
		mock.WithLogger(log),
	)
	for _, path := range args {
		if err := server.LoadRoutes(path); err != nil {
			return withExitCode(ExitConfigError, err)
		}
	}
	server.SetMaintenance(mockMaintenanceFlag)

	routes := server.Routes()
	if len(routes) == 0 {
		return withExitCode(ExitConfigError, fmt.Errorf("no routes found in the provided files"))
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Loaded %d routes from %d files\n", len(routes), len(args))
	for _, r := range routes {
		fmt.Fprintf(cmd.OutOrStdout(), "  %-6s %s -> %d\n", r.Method, r.Path, r.Status)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return server.ListenAndServe(ctx, fmt.Sprintf(":%d", mockPortFlag))
}

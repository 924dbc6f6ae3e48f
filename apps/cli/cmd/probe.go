package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/abdul-hamid-achik/commentclient/packages/stress"
)

var probeCmd = &cobra.Command{
	Use:   "probe <URL>",
	Short: "Sample latency and error mix of an endpoint",
	Long: `Send a fixed number of paced requests and report latency percentiles
and counts per failure kind. Requests are never retried.

Examples:
  commentclient probe /api/v1/threads --count 100 --rate 20
  commentclient probe /api/v1/threads -X POST -d body=hi -n 50 -c 8
  commentclient probe /api/v1/threads -n 200 --threshold "p95<200ms,errors<1%"`,
	Args: cobra.ExactArgs(1),
	RunE: probeCommand,
}

var (
	probeMethodFlag      string
	probeCountFlag       int
	probeRateFlag        float64
	probeConcurrencyFlag int
	probeDataFlag        []string
	probeThresholdFlag   string
	probeJSONFlag        bool
)

func init() {
	defaults := stress.DefaultConfig()
	probeCmd.Flags().StringVarP(&probeMethodFlag, "method", "X", defaults.Method, "HTTP method")
	probeCmd.Flags().IntVarP(&probeCountFlag, "count", "n", defaults.Count, "Total requests to send")
	probeCmd.Flags().Float64VarP(&probeRateFlag, "rate", "r", defaults.Rate, "Requests per second (0 for unpaced)")
	probeCmd.Flags().IntVarP(&probeConcurrencyFlag, "concurrency", "c", defaults.Concurrency, "Maximum requests in flight")
	probeCmd.Flags().StringArrayVarP(&probeDataFlag, "data", "d", nil, "Payload field as key=value (repeatable)")
	probeCmd.Flags().StringVar(&probeThresholdFlag, "threshold", "", "Pass/fail thresholds (e.g., \"p95<200ms,errors<1%\")")
	probeCmd.Flags().BoolVar(&probeJSONFlag, "json", false, "Output results as JSON")

	_ = probeCmd.RegisterFlagCompletionFunc("method", completeMethods)
}

func probeCommand(cmd *cobra.Command, args []string) error {
	payload, err := parseData(probeDataFlag)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	s, err := newSession(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	cfg, err := buildProbeConfig(resolveURL(s.config.BaseURL, args[0]), payload)
	if err != nil {
		return err
	}

	probe, err := stress.NewProbe(cfg, s.client)
	if err != nil {
		return withExitCode(ExitUsageError, err)
	}

	summary, runErr := probe.Run(ctx)
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		return runErr
	}
	if runErr != nil {
		fmt.Fprintln(cmd.ErrOrStderr(), "\nReceived interrupt, reporting partial results...")
	}

	results := summary.Evaluate(cfg.Thresholds)
	reporter := stress.NewReporter(
		stress.WithWriter(cmd.OutOrStdout()),
		stress.WithNoColor(noColorFlag),
	)
	if probeJSONFlag {
		if err := reporter.JSONSummary(summary, results); err != nil {
			return err
		}
	} else {
		reporter.Summary(summary, results)
	}

	var failed []string
	for _, r := range results {
		if !r.Passed {
			failed = append(failed, r.Name)
		}
	}
	if len(failed) > 0 {
		return withExitCode(ExitThresholdFailure, fmt.Errorf("thresholds exceeded: %s", strings.Join(failed, ", ")))
	}
	return nil
}

func buildProbeConfig(url string, payload map[string]any) (*stress.Config, error) {
	cfg := stress.DefaultConfig()
	cfg.Method = strings.ToUpper(probeMethodFlag)
	cfg.URL = url
	cfg.Payload = payload
	cfg.Count = probeCountFlag
	cfg.Rate = probeRateFlag
	cfg.Concurrency = probeConcurrencyFlag

	if probeThresholdFlag != "" {
		t, err := stress.ParseThresholds(probeThresholdFlag)
		if err != nil {
			return nil, usageError("invalid thresholds: %v", err)
		}
		cfg.Thresholds = t
	}

	if err := cfg.Validate(); err != nil {
		return nil, withExitCode(ExitUsageError, err)
	}
	return cfg, nil
}

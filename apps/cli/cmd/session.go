package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/abdul-hamid-achik/commentclient/packages/core/config"
	"github.com/abdul-hamid-achik/commentclient/packages/core/env"
	"github.com/abdul-hamid-achik/commentclient/packages/export/metrics"
	commenthttp "github.com/abdul-hamid-achik/commentclient/packages/http"
	"github.com/abdul-hamid-achik/commentclient/packages/logger"
)

// session is everything a command needs to send requests.
type session struct {
	config  *config.Config
	logger  *slog.Logger
	client  *commenthttp.Client
	closers []func() error
}

// loadConfig resolves the effective configuration and the file it came
// from ("" when defaults were used).
func loadConfig() (*config.Config, string, map[string]string, error) {
	if _, err := env.LoadOptionalDotEnv(envFileFlag); err != nil {
		return nil, "", nil, withExitCode(ExitConfigError, fmt.Errorf("loading %s: %w", envFileFlag, err))
	}
	envVars := env.LoadSystemEnv(config.EnvPrefix)

	path := configFlag
	if path == "" {
		path = config.FindConfigFile(".")
	}

	cfg, err := config.Load(path, envVars)
	if err != nil {
		return nil, "", nil, withExitCode(ExitConfigError, err)
	}
	return cfg, path, envVars, nil
}

func newSession(ctx context.Context) (*session, error) {
	cfg, path, envVars, err := loadConfig()
	if err != nil {
		return nil, err
	}

	s := &session{
		config: cfg,
		logger: logger.New(logger.Options{
			Level:  cfg.Log.Level,
			Format: cfg.Log.Format,
			Output: cfg.Log.Output,
		}),
	}

	emitter, err := s.buildEmitter(cfg.Metrics)
	if err != nil {
		s.Close()
		return nil, withExitCode(ExitConfigError, err)
	}

	opts := []commenthttp.ClientOption{
		commenthttp.WithTimeout(cfg.TimeoutDuration()),
		commenthttp.WithMaintenanceStatus(cfg.MaintenanceStatus),
		commenthttp.WithEmitter(emitter),
		commenthttp.WithLogger(s.logger),
		commenthttp.WithAPIKey(cfg.APIKey),
	}

	if watchConfigFlag {
		if path == "" {
			s.Close()
			return nil, usageError("--watch-config needs a config file")
		}
		w, err := config.NewWatcher(path, envVars, s.logger)
		if err != nil {
			s.Close()
			return nil, withExitCode(ExitConfigError, err)
		}
		go func() { _ = w.Run(ctx) }()
		s.closers = append(s.closers, w.Close)
		opts = append(opts, commenthttp.WithKeySource(w))
	}

	s.client = commenthttp.NewClient(opts...)
	return s, nil
}

func (s *session) buildEmitter(m config.MetricsConfig) (metrics.Emitter, error) {
	var emitters []metrics.Emitter

	if dd := m.DataDog; dd != nil {
		ddOpts := []metrics.DataDogOption{
			metrics.WithDataDogErrorHandler(func(err error) {
				s.logger.Warn("datadog flush failed", slog.Any("error", err))
			}),
		}
		if dd.APIKey != "" {
			ddOpts = append(ddOpts, metrics.WithDataDogAPIKey(dd.APIKey))
		}
		if dd.Site != "" {
			ddOpts = append(ddOpts, metrics.WithDataDogSite(dd.Site))
		}
		if len(dd.Tags) > 0 {
			ddOpts = append(ddOpts, metrics.WithDataDogTags(dd.Tags))
		}
		ddEmitter := metrics.NewDataDogEmitter(ddOpts...)
		emitters = append(emitters, ddEmitter)
		s.closers = append(s.closers, ddEmitter.Close)
	}

	if p := m.Prometheus; p != nil {
		reg := prometheus.NewRegistry()
		promEmitter := metrics.NewPrometheusEmitter(metrics.WithPrometheusRegistry(reg))
		emitters = append(emitters, promEmitter)

		if p.Listen != "" {
			mux := http.NewServeMux()
			mux.Handle("/metrics", promEmitter.Handler())
			server := &http.Server{Addr: p.Listen, Handler: mux}
			go func() {
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					s.logger.Error("prometheus listener stopped", slog.String("addr", p.Listen), slog.Any("error", err))
				}
			}()
			s.closers = append(s.closers, server.Close)
			s.logger.Info("prometheus metrics available", slog.String("url", "http://"+hostPort(p.Listen)+"/metrics"))
		}
	}

	if j := m.JSON; j != nil {
		switch j.Path {
		case "", "-":
			emitters = append(emitters, metrics.NewJSONEmitter(os.Stdout))
		default:
			file, err := os.OpenFile(j.Path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
			if err != nil {
				return nil, fmt.Errorf("opening metrics file: %w", err)
			}
			emitters = append(emitters, metrics.NewJSONEmitter(file))
			s.closers = append(s.closers, file.Close)
		}
	}

	return metrics.Combine(emitters...), nil
}

// Close flushes emitters and stops background work, newest first.
func (s *session) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			s.logger.Warn("shutdown", slog.Any("error", err))
		}
	}
	s.closers = nil
}

// resolveURL joins relative targets onto the configured base URL.
func resolveURL(baseURL, target string) string {
	if baseURL == "" || strings.Contains(target, "://") {
		return target
	}
	return strings.TrimRight(baseURL, "/") + "/" + strings.TrimLeft(target, "/")
}

func hostPort(listen string) string {
	if strings.HasPrefix(listen, ":") {
		return "localhost" + listen
	}
	return listen
}

// parseData turns repeated key=value flags into a payload. A repeated key
// becomes a list, which is sent as repeated form or query fields.
func parseData(pairs []string) (map[string]any, error) {
	payload := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return nil, usageError("invalid data %q: expected key=value", pair)
		}
		switch existing := payload[key].(type) {
		case nil:
			payload[key] = value
		case []any:
			payload[key] = append(existing, value)
		default:
			payload[key] = []any{existing, value}
		}
	}
	return payload, nil
}

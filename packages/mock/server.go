// Package mock is a stand-in comments service for local development and
// tests. It answers scripted routes, can be switched into maintenance
// mode, and records what every request carried.
package mock

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"gopkg.in/yaml.v3"

	commenthttp "github.com/abdul-hamid-achik/commentclient/packages/http"
)

// Received is one request as seen by the server.
type Received struct {
	Method    string
	Path      string
	RequestID string
	APIKey    string
	Query     url.Values
	Form      url.Values
}

// Server is a fake comments service
type Server struct {
	router            *Router
	apiKey            string
	delay             time.Duration
	maintenanceStatus int
	maintenance       atomic.Bool
	logger            *slog.Logger

	mu       sync.Mutex
	received []Received
}

// Option is a functional option for Server
type Option func(*Server)

// WithAPIKey rejects requests that do not carry key with 401.
func WithAPIKey(key string) Option {
	return func(s *Server) {
		s.apiKey = key
	}
}

// WithDelay adds a delay to all responses
func WithDelay(delay time.Duration) Option {
	return func(s *Server) {
		s.delay = delay
	}
}

// WithMaintenanceStatus sets the status returned in maintenance mode.
func WithMaintenanceStatus(status int) Option {
	return func(s *Server) {
		s.maintenanceStatus = status
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		s.logger = l
	}
}

// NewServer creates a new mock server
func NewServer(opts ...Option) *Server {
	s := &Server{
		router:            NewRouter(),
		maintenanceStatus: commenthttp.DefaultMaintenanceStatus,
		logger:            slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handle adds a route. body may reference {name} path parameters.
func (s *Server) Handle(method, path string, status int, body string) error {
	return s.router.Add(&Route{Method: method, Path: path, Status: status, Body: body})
}

type routeFile struct {
	Routes []*Route `json:"routes" yaml:"routes"`
}

// LoadRoutes adds the routes listed in a YAML or JSON file.
func (s *Server) LoadRoutes(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var file routeFile
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &file)
	default:
		err = json.Unmarshal(data, &file)
	}
	if err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}

	for _, route := range file.Routes {
		if err := s.router.Add(route); err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
	}
	return nil
}

// SetMaintenance switches maintenance mode. While on, every request is
// answered with the maintenance status.
func (s *Server) SetMaintenance(on bool) {
	s.maintenance.Store(on)
}

// Requests returns a copy of everything received so far.
func (s *Server) Requests() []Received {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Received, len(s.received))
	copy(out, s.received)
	return out
}

func (s *Server) Routes() []*Route {
	return s.router.Routes()
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	status := s.serve(w, r)
	s.logger.Debug("mock request",
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.Int("status", status),
		slog.Duration("duration", time.Since(start)))
}

func (s *Server) serve(w http.ResponseWriter, r *http.Request) int {
	if s.delay > 0 {
		time.Sleep(s.delay)
	}

	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return http.StatusBadRequest
	}
	s.record(r)

	if s.apiKey != "" && r.Header.Get(commenthttp.APIKeyHeader) != s.apiKey {
		http.Error(w, "invalid api key", http.StatusUnauthorized)
		return http.StatusUnauthorized
	}

	if s.maintenance.Load() {
		http.Error(w, "service is under maintenance", s.maintenanceStatus)
		return s.maintenanceStatus
	}

	route, params := s.router.Match(r.Method, r.URL.Path)
	if route == nil {
		http.NotFound(w, r)
		return http.StatusNotFound
	}

	for key, value := range route.Headers {
		w.Header().Set(key, value)
	}
	if w.Header().Get("Content-Type") == "" {
		w.Header().Set("Content-Type", "application/json")
	}
	w.WriteHeader(route.Status)
	_, _ = w.Write([]byte(route.render(params)))
	return route.Status
}

func (s *Server) record(r *http.Request) {
	query := r.URL.Query()
	s.mu.Lock()
	s.received = append(s.received, Received{
		Method:    r.Method,
		Path:      r.URL.Path,
		RequestID: query.Get(commenthttp.RequestIDParam),
		APIKey:    r.Header.Get(commenthttp.APIKeyHeader),
		Query:     query,
		Form:      r.PostForm,
	})
	s.mu.Unlock()
}

// ListenAndServe serves on addr until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	server := &http.Server{
		Addr:    addr,
		Handler: s,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	s.logger.Info("mock server starting", slog.String("addr", addr), slog.Int("routes", len(s.Routes())))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

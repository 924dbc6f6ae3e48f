package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrMissingAPIKey is returned by Validate when requireApiKey is set and no key is configured.
var ErrMissingAPIKey = errors.New("config: api key required but not configured")

// Config represents the commentclient configuration
type Config struct {
	APIKey            string        `json:"apiKey,omitempty" yaml:"apiKey,omitempty"`
	BaseURL           string        `json:"baseUrl,omitempty" yaml:"baseUrl,omitempty"`
	Timeout           int           `json:"timeout,omitempty" yaml:"timeout,omitempty"` // milliseconds
	MaintenanceStatus int           `json:"maintenanceStatus,omitempty" yaml:"maintenanceStatus,omitempty"`
	RequireAPIKey     *bool         `json:"requireApiKey,omitempty" yaml:"requireApiKey,omitempty"`
	Metrics           MetricsConfig `json:"metrics,omitempty" yaml:"metrics,omitempty"`
	Log               LogConfig     `json:"log,omitempty" yaml:"log,omitempty"`
}

// MetricsConfig selects the sinks request timings are emitted to
type MetricsConfig struct {
	DataDog    *DataDogConfig    `json:"datadog,omitempty" yaml:"datadog,omitempty"`
	Prometheus *PrometheusConfig `json:"prometheus,omitempty" yaml:"prometheus,omitempty"`
	JSON       *JSONConfig       `json:"json,omitempty" yaml:"json,omitempty"`
}

type DataDogConfig struct {
	APIKey string   `json:"apiKey,omitempty" yaml:"apiKey,omitempty"`
	Site   string   `json:"site,omitempty" yaml:"site,omitempty"`
	Tags   []string `json:"tags,omitempty" yaml:"tags,omitempty"`
}

type PrometheusConfig struct {
	Listen string `json:"listen,omitempty" yaml:"listen,omitempty"` // e.g. ":9102"
}

type JSONConfig struct {
	Path string `json:"path,omitempty" yaml:"path,omitempty"` // "-" for stdout
}

type LogConfig struct {
	Level  string `json:"level,omitempty" yaml:"level,omitempty"`
	Format string `json:"format,omitempty" yaml:"format,omitempty"`
	Output string `json:"output,omitempty" yaml:"output,omitempty"`
}

// boolPtr returns a pointer to a bool value
func boolPtr(b bool) *bool {
	return &b
}

// BoolPtr is exported version of boolPtr for external use
func BoolPtr(b bool) *bool {
	return &b
}

// getBool returns the value of a bool pointer, or the default if nil
func getBool(b *bool, defaultVal bool) bool {
	if b == nil {
		return defaultVal
	}
	return *b
}

// GetRequireAPIKey returns the require API key setting, defaulting to false
func (c *Config) GetRequireAPIKey() bool {
	return getBool(c.RequireAPIKey, false)
}

// TimeoutDuration returns Timeout as a duration, falling back to the default
func (c *Config) TimeoutDuration() time.Duration {
	if c.Timeout <= 0 {
		return DefaultTimeoutMs * time.Millisecond
	}
	return time.Duration(c.Timeout) * time.Millisecond
}

// ConfigFilenames contains the possible config file names
var ConfigFilenames = []string{
	".commentclient.json",
	"commentclient.json",
	".commentclient.yaml",
	".commentclient.yml",
}

// LoadConfig loads configuration from the specified path or searches for config files
func LoadConfig(path string) (*Config, error) {
	if path != "" {
		return loadConfigFromFile(path)
	}

	return FindAndLoadConfig(".")
}

// FindAndLoadConfig searches for a config file in the given directory
func FindAndLoadConfig(dir string) (*Config, error) {
	path := FindConfigFile(dir)
	if path == "" {
		return DefaultConfig(), nil
	}
	return loadConfigFromFile(path)
}

// FindConfigFile returns the first config file present in dir, or "".
func FindConfigFile(dir string) string {
	for _, filename := range ConfigFilenames {
		configPath := filepath.Join(dir, filename)
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}
	}
	return ""
}

func loadConfigFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	config := DefaultConfig()
	if err := decode(path, data, config); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	config.expandEnv()

	return config, nil
}

func decode(path string, data []byte, config *Config) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return yaml.Unmarshal(data, config)
	default:
		return json.Unmarshal(data, config)
	}
}

// expandEnv resolves ${VAR} references in secrets and URLs.
func (c *Config) expandEnv() {
	c.APIKey = os.ExpandEnv(c.APIKey)
	c.BaseURL = os.ExpandEnv(c.BaseURL)
	if c.Metrics.DataDog != nil {
		c.Metrics.DataDog.APIKey = os.ExpandEnv(c.Metrics.DataDog.APIKey)
	}
}

// ApplyEnv overrides values from prefix-stripped environment variables,
// typically env.LoadSystemEnv(EnvPrefix).
func (c *Config) ApplyEnv(vars map[string]string) error {
	if v, ok := vars["API_KEY"]; ok {
		c.APIKey = v
	}
	if v, ok := vars["BASE_URL"]; ok {
		c.BaseURL = v
	}
	if v, ok := vars["TIMEOUT_MS"]; ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%sTIMEOUT_MS: %w", EnvPrefix, err)
		}
		c.Timeout = n
	}
	if v, ok := vars["MAINTENANCE_STATUS"]; ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%sMAINTENANCE_STATUS: %w", EnvPrefix, err)
		}
		c.MaintenanceStatus = n
	}
	if v, ok := vars["REQUIRE_API_KEY"]; ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%sREQUIRE_API_KEY: %w", EnvPrefix, err)
		}
		c.RequireAPIKey = boolPtr(b)
	}
	if v, ok := vars["LOG_LEVEL"]; ok {
		c.Log.Level = v
	}
	if v, ok := vars["LOG_FORMAT"]; ok {
		c.Log.Format = v
	}
	if v, ok := vars["LOG_OUTPUT"]; ok {
		c.Log.Output = v
	}
	return nil
}

// Validate checks ranges and, when requireApiKey is set, that a key exists.
func (c *Config) Validate() error {
	if c.Timeout < 0 {
		return fmt.Errorf("config: timeout must not be negative, got %d", c.Timeout)
	}
	if c.MaintenanceStatus != 0 && (c.MaintenanceStatus < 100 || c.MaintenanceStatus > 599) {
		return fmt.Errorf("config: maintenanceStatus %d is not an HTTP status", c.MaintenanceStatus)
	}
	if c.MaintenanceStatus >= 200 && c.MaintenanceStatus < 300 {
		return fmt.Errorf("config: maintenanceStatus %d is a success status", c.MaintenanceStatus)
	}
	if c.GetRequireAPIKey() && strings.TrimSpace(c.APIKey) == "" {
		return ErrMissingAPIKey
	}
	return nil
}

// Merge merges another config into this one, with other taking precedence
func (c *Config) Merge(other *Config) *Config {
	if other == nil {
		return c
	}

	result := *c // Copy

	if other.APIKey != "" {
		result.APIKey = other.APIKey
	}
	if other.BaseURL != "" {
		result.BaseURL = other.BaseURL
	}
	if other.Timeout > 0 {
		result.Timeout = other.Timeout
	}
	if other.MaintenanceStatus > 0 {
		result.MaintenanceStatus = other.MaintenanceStatus
	}
	if other.RequireAPIKey != nil {
		result.RequireAPIKey = other.RequireAPIKey
	}

	if other.Metrics.DataDog != nil {
		result.Metrics.DataDog = other.Metrics.DataDog
	}
	if other.Metrics.Prometheus != nil {
		result.Metrics.Prometheus = other.Metrics.Prometheus
	}
	if other.Metrics.JSON != nil {
		result.Metrics.JSON = other.Metrics.JSON
	}

	if other.Log.Level != "" {
		result.Log.Level = other.Log.Level
	}
	if other.Log.Format != "" {
		result.Log.Format = other.Log.Format
	}
	if other.Log.Output != "" {
		result.Log.Output = other.Log.Output
	}

	return &result
}

// Redacted returns a copy safe to print, with secrets masked.
func (c *Config) Redacted() *Config {
	out := *c
	out.APIKey = mask(c.APIKey)
	if c.Metrics.DataDog != nil {
		dd := *c.Metrics.DataDog
		dd.APIKey = mask(dd.APIKey)
		out.Metrics.DataDog = &dd
	}
	return &out
}

func mask(secret string) string {
	if secret == "" {
		return ""
	}
	if len(secret) <= 4 {
		return "****"
	}
	return "****" + secret[len(secret)-4:]
}

// SaveConfig saves the configuration to a file
func (c *Config) SaveConfig(path string) error {
	var (
		data []byte
		err  error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err = yaml.Marshal(c)
	default:
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// Load reads the config at path (or searches the working directory when
// path is empty), applies env overrides and validates the result.
func Load(path string, envVars map[string]string) (*Config, error) {
	cfg, err := LoadConfig(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnv(envVars); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

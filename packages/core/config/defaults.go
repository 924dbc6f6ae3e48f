package config

const (
	// DefaultTimeoutMs bounds every call to the comments service
	DefaultTimeoutMs = 5000
	// DefaultMaintenanceStatus is the status the hosting platform returns in maintenance mode
	DefaultMaintenanceStatus = 503
	// EnvPrefix prefixes every environment override
	EnvPrefix = "COMMENT_CLIENT_"
)

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	return &Config{
		Timeout:           DefaultTimeoutMs,
		MaintenanceStatus: DefaultMaintenanceStatus,
		RequireAPIKey:     boolPtr(false),
		Log: LogConfig{
			Level:  "info",
			Format: "text",
			Output: "stderr",
		},
	}
}

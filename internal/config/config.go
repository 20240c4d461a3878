package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Default configuration values
const (
	DefaultMaxBodySize int64 = 2 * 1024 * 1024 // 2MB
	DefaultConfigPath        = "config.yaml"
)

// Config holds the configuration for the agent service
type Config struct {
	Log struct {
		Level           string   `yaml:"level"`            // DEBUG, INFO, WARN, ERROR
		Format          string   `yaml:"format"`           // text, json
		Output          string   `yaml:"output"`           // comma separated: stdout, stderr, /path/to/file
		QuietComponents []string `yaml:"quiet_components"` // components logged at WARN and above only
		Rotation        struct {
			MaxSize    int  `yaml:"max_size"`    // Megabytes
			MaxBackups int  `yaml:"max_backups"` // Number of old files to keep
			MaxAge     int  `yaml:"max_age"`     // Days to keep
			Compress   bool `yaml:"compress"`
		} `yaml:"rotation"`
	} `yaml:"log"`

	Server struct {
		Port            int           `yaml:"port"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
		MaxBodySize     int64         `yaml:"max_body_size"`
	} `yaml:"server"`

	LLM LLMConfig `yaml:"llm"`

	Metrics struct {
		Enabled bool   `yaml:"enabled"`
		Path    string `yaml:"path"`
	} `yaml:"metrics"`

	// Where the file layer came from, reported once logging is configured
	Source struct {
		Path  string
		Found bool
	} `yaml:"-"`
}

// LLMConfig holds configuration for the vendor LLM provider
type LLMConfig struct {
	Provider          string        `yaml:"provider"` // anthropic, openai, gemini
	Model             string        `yaml:"model"`    // Empty selects the provider default
	Endpoint          string        `yaml:"endpoint"` // Empty selects the vendor SDK default
	APIKey            string        `yaml:"-"`        // From Env only
	MaxTokens         int64         `yaml:"max_tokens"`
	Timeout           time.Duration `yaml:"timeout"`
	VerifyOnStart     bool          `yaml:"verify_on_start"`
	ErrorAsCompletion bool          `yaml:"error_as_completion"`
}

// GetLogLevel returns the slog.Level based on Log.Level string
func (c *Config) GetLogLevel() slog.Level {
	switch strings.ToUpper(c.Log.Level) {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR", "CRITICAL":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// ModelOrDefault returns the configured model, falling back to the provider default
func (c *LLMConfig) ModelOrDefault() string {
	if c.Model != "" {
		return c.Model
	}
	return DefaultModel(c.Provider)
}

// Defaults returns a Config populated with built-in defaults only
func Defaults() *Config {
	cfg := &Config{}

	cfg.Log.Level = "INFO"
	cfg.Log.Format = "text"
	cfg.Log.Output = "stdout,app.log"
	cfg.Log.QuietComponents = []string{ComponentHTTPTransport, ComponentHTTPServer}
	cfg.Log.Rotation.MaxSize = 100
	cfg.Log.Rotation.MaxBackups = 10
	cfg.Log.Rotation.MaxAge = 7
	cfg.Log.Rotation.Compress = true

	cfg.Server.Port = 8001
	cfg.Server.ReadTimeout = 10 * time.Second
	cfg.Server.WriteTimeout = 90 * time.Second
	cfg.Server.ShutdownTimeout = 5 * time.Second
	cfg.Server.MaxBodySize = DefaultMaxBodySize

	cfg.LLM.Provider = ProviderAnthropic
	cfg.LLM.MaxTokens = DefaultMaxTokens
	cfg.LLM.Timeout = 60 * time.Second

	cfg.Metrics.Enabled = true
	cfg.Metrics.Path = "/metrics"

	return cfg
}

// LoadConfig loads configuration from CONFIG_PATH (or config.yaml) and supplements it
// with environment variables
func LoadConfig() (*Config, error) {
	return LoadConfigFrom("")
}

// LoadConfigFrom is LoadConfig with an explicit file path. An empty path falls back to
// CONFIG_PATH, then config.yaml. A missing file is not an error.
func LoadConfigFrom(configPath string) (*Config, error) {
	cfg := Defaults()

	if configPath == "" {
		configPath = getEnv("CONFIG_PATH", DefaultConfigPath)
	}
	cfg.Source.Path = configPath

	data, err := os.ReadFile(configPath)
	if err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("unmarshal config %s: %w", configPath, err)
		}
		cfg.Source.Found = true
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("read config %s: %w", configPath, err)
	}

	cfg.LLM.Provider = strings.ToLower(getEnv("LLM_PROVIDER", cfg.LLM.Provider))
	cfg.LLM.Model = getEnv("LLM_MODEL", cfg.LLM.Model)
	cfg.LLM.Endpoint = getEnv("LLM_ENDPOINT", cfg.LLM.Endpoint)

	// Vendor specific key first, LLM_API_KEY overrides it
	if envVar := APIKeyEnvVar(cfg.LLM.Provider); envVar != "" {
		cfg.LLM.APIKey = getEnv(envVar, cfg.LLM.APIKey)
	}
	cfg.LLM.APIKey = getEnv("LLM_API_KEY", cfg.LLM.APIKey)

	if timeout := getEnvDuration("LLM_TIMEOUT", 0); timeout != 0 {
		cfg.LLM.Timeout = timeout
	}
	if envPort := getEnvInt("PORT", 0); envPort != 0 {
		cfg.Server.Port = envPort
	}
	if envLogLevel := os.Getenv("LOG_LEVEL"); envLogLevel != "" {
		cfg.Log.Level = envLogLevel
	}
	if envLogFormat := os.Getenv("LOG_FORMAT"); envLogFormat != "" {
		cfg.Log.Format = envLogFormat
	}
	if envLogOutput := getEnv("LOG_OUTPUT", ""); envLogOutput != "" {
		cfg.Log.Output = envLogOutput
	}
	if envLogMaxSize := getEnvInt("LOG_MAX_SIZE", 0); envLogMaxSize != 0 {
		cfg.Log.Rotation.MaxSize = envLogMaxSize
	}
	if envLogMaxBackups := getEnvInt("LOG_MAX_BACKUPS", 0); envLogMaxBackups != 0 {
		cfg.Log.Rotation.MaxBackups = envLogMaxBackups
	}
	if envLogMaxAge := getEnvInt("LOG_MAX_AGE", 0); envLogMaxAge != 0 {
		cfg.Log.Rotation.MaxAge = envLogMaxAge
	}

	return cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	var errs []string

	if !IsSupportedProvider(c.LLM.Provider) {
		errs = append(errs, fmt.Sprintf("unsupported llm provider: %q", c.LLM.Provider))
	} else if strings.TrimSpace(c.LLM.APIKey) == "" {
		errs = append(errs, fmt.Sprintf("%s (or LLM_API_KEY) is required", APIKeyEnvVar(c.LLM.Provider)))
	}

	if c.LLM.MaxTokens <= 0 {
		errs = append(errs, fmt.Sprintf("invalid llm max_tokens: %d", c.LLM.MaxTokens))
	}

	if c.LLM.Timeout < 0 {
		errs = append(errs, fmt.Sprintf("invalid llm timeout: %s", c.LLM.Timeout))
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("invalid server port: %d", c.Server.Port))
	}

	if c.Server.MaxBodySize <= 0 {
		errs = append(errs, fmt.Sprintf("invalid max body size: %d", c.Server.MaxBodySize))
	}

	if c.Metrics.Enabled && !strings.HasPrefix(c.Metrics.Path, "/") {
		errs = append(errs, fmt.Sprintf("invalid metrics path: %q", c.Metrics.Path))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config invalid: %s", strings.Join(errs, "; "))
	}
	return nil
}

// Helper functions for reading environment variables

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return fallback
}

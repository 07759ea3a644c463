package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	// maxPagesPerRun is the number of provider calls one search can make (start 1..91 by 10).
	maxPagesPerRun = 10
	// writeMarginSec covers record writing and rendering after the last provider call.
	writeMarginSec = 10
)

// Config holds the serprank configuration.
type Config struct {
	HTTP    HTTPConfig    `yaml:"http"`
	Google  GoogleConfig  `yaml:"google"`
	Output  OutputConfig  `yaml:"output"`
	Logging LoggingConfig `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// GoogleConfig holds Custom Search API credentials and client settings.
type GoogleConfig struct {
	APIKey     string `yaml:"api_key"`
	CX         string `yaml:"cx"`       // programmable search engine id
	BaseURL    string `yaml:"base_url"` // default: https://www.googleapis.com
	TimeoutSec int    `yaml:"timeout_sec"`
}

// Timeout returns the per-request client timeout.
func (g GoogleConfig) Timeout() time.Duration {
	return time.Duration(g.TimeoutSec) * time.Second
}

// OutputConfig holds record file settings.
type OutputConfig struct {
	Dir string `yaml:"dir"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	return LoadFile(findConfigPath(env))
}

// LoadFile reads configuration from an explicit YAML path.
func LoadFile(path string) (Config, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	// Substitute env variables of the form ${VAR}
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// LoadDotEnv exports variables from an optional .env file so ${VAR} references
// in the YAML can resolve from it. A missing file is not an error, and variables
// already set in the process environment win.
func LoadDotEnv(path string) error {
	if err := godotenv.Load(filepath.Clean(path)); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.Port == 0 {
		c.HTTP.Port = 8080
	}
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 120
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Google.BaseURL == "" {
		c.Google.BaseURL = "https://www.googleapis.com"
	}
	if c.Google.TimeoutSec <= 0 {
		c.Google.TimeoutSec = 10
	}
	if c.Output.Dir == "" {
		c.Output.Dir = "."
	}
	// A form submission must outlive every provider call it can make.
	if floor := maxPagesPerRun*c.Google.TimeoutSec + writeMarginSec; c.HTTP.WriteTimeoutSec < floor {
		c.HTTP.WriteTimeoutSec = floor
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if strings.TrimSpace(c.Google.APIKey) == "" {
		return fmt.Errorf("google.api_key is required")
	}
	if strings.TrimSpace(c.Google.CX) == "" {
		return fmt.Errorf("google.cx is required")
	}
	if !strings.HasPrefix(c.Google.BaseURL, "http://") && !strings.HasPrefix(c.Google.BaseURL, "https://") {
		return fmt.Errorf("google.base_url must be an http(s) URL, got %q", c.Google.BaseURL)
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}

// Package config loads service configuration from an optional YAML file with
// environment variable overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

// Config holds server and coregistration settings.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Storage StorageConfig `yaml:"storage"`
	Coreg   CoregConfig   `yaml:"coreg"`
	Logging LoggingConfig `yaml:"logging"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port               string   `yaml:"port"`
	CORSAllowedOrigins []string `yaml:"cors_allowed_origins,omitempty"` // Empty allows all origins.
}

// StorageConfig locates input and output datasets. Either location may be a
// bucket URL (file://, s3:// or gs://) instead of a directory.
type StorageConfig struct {
	DataDir   string `yaml:"data_dir"`
	OutputDir string `yaml:"output_dir"`
}

// CoregConfig tunes the coregistration engine.
type CoregConfig struct {
	Parallelism int     `yaml:"parallelism"` // Concurrent time slices; below 2 is sequential.
	Tolerance   float64 `yaml:"tolerance"`   // Grid check tolerance; 0 compares exactly.
}

// LoggingConfig configures zap.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
}

// DefaultConfig returns the configuration used when no file is present.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port: "8080",
		},
		Storage: StorageConfig{
			DataDir:   "./data",
			OutputDir: "./output",
		},
		Coreg: CoregConfig{
			Parallelism: 1,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load loads configuration from a YAML file. A missing file yields the
// defaults; environment variables override both.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
		case err != nil:
			return nil, fmt.Errorf("failed to read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config: %w", err)
			}
		}
	}

	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the configuration to a YAML file.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	if c.Coreg.Parallelism < 0 {
		return fmt.Errorf("coreg.parallelism must not be negative, got %d", c.Coreg.Parallelism)
	}
	if c.Coreg.Tolerance < 0 {
		return fmt.Errorf("coreg.tolerance must not be negative, got %g", c.Coreg.Tolerance)
	}
	if _, err := zapcore.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("invalid logging.level: %w", err)
	}
	return nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() error {
	if port := os.Getenv("PORT"); port != "" {
		c.Server.Port = port
	}
	if origins := os.Getenv("CORS_ALLOWED_ORIGINS"); origins != "" {
		c.Server.CORSAllowedOrigins = splitList(origins)
	}
	if dir := os.Getenv("DATA_DIR"); dir != "" {
		c.Storage.DataDir = dir
	}
	if dir := os.Getenv("OUTPUT_DIR"); dir != "" {
		c.Storage.OutputDir = dir
	}
	if v := os.Getenv("COREG_PARALLELISM"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid COREG_PARALLELISM: %w", err)
		}
		c.Coreg.Parallelism = n
	}
	if v := os.Getenv("COREG_TOLERANCE"); v != "" {
		tol, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("invalid COREG_TOLERANCE: %w", err)
		}
		c.Coreg.Tolerance = tol
	}
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// NewLogger builds a production zap logger at the configured level.
func (c LoggingConfig) NewLogger() (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(c.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}
	zc := zap.NewProductionConfig()
	zc.Level = zap.NewAtomicLevelAt(level)
	logger, err := zc.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return logger, nil
}

// Package config provides configuration loading and management.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultConfigDir is the directory name for qadim configuration.
	DefaultConfigDir = ".qadim"
	// DefaultConfigFile is the default config file name.
	DefaultConfigFile = "config.yaml"
	// DefaultDBFile is the default SQLite database file name.
	DefaultDBFile = "qadim.db"
	// DefaultCollection is the default Qdrant collection name.
	DefaultCollection = "qadim_docs"
)

// Duration wraps time.Duration so values can be written as "2s" or "500ms"
// in YAML.
type Duration time.Duration

// UnmarshalYAML parses a duration string.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("parsing duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML renders the duration as a string.
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Config holds static infrastructure configuration (read-only after init).
type Config struct {
	LLM      LLMConfig              `yaml:"llm,omitempty"`
	Embedder EmbedderConfig         `yaml:"embedder,omitempty"`
	Qdrant   QdrantConfig           `yaml:"qdrant,omitempty"`
	SQLite   SQLiteConfig           `yaml:"sqlite,omitempty"`
	S3       S3Config               `yaml:"s3,omitempty"`
	SMTP     SMTPConfig             `yaml:"smtp,omitempty"`
	Queues   map[string]QueueConfig `yaml:"queues,omitempty"`
	Worker   WorkerConfig           `yaml:"worker,omitempty"`
}

// LLMConfig holds configuration for the LLM provider.
type LLMConfig struct {
	Provider    string  `yaml:"provider,omitempty"`
	Model       string  `yaml:"model,omitempty"`
	APIKey      string  `yaml:"api_key,omitempty"`
	Temperature float32 `yaml:"temperature,omitempty"`
	MaxTokens   int     `yaml:"max_tokens,omitempty"`
}

// EmbedderConfig holds configuration for the embedding provider.
type EmbedderConfig struct {
	Provider string `yaml:"provider,omitempty"`
	Model    string `yaml:"model,omitempty"`
	APIKey   string `yaml:"api_key,omitempty"`
}

// QdrantConfig holds configuration for the Qdrant vector database.
type QdrantConfig struct {
	Host       string `yaml:"host,omitempty"`
	Port       int    `yaml:"port,omitempty"`
	Collection string `yaml:"collection,omitempty"`
	APIKey     string `yaml:"api_key,omitempty"`
}

// SQLiteConfig holds configuration for the SQLite database backing both the
// relational store and the job queue.
type SQLiteConfig struct {
	Path string `yaml:"path,omitempty"`
}

// S3Config holds configuration for raw document archival. Archival is
// optional: an empty bucket disables it.
type S3Config struct {
	Bucket string `yaml:"bucket,omitempty"`
	Region string `yaml:"region,omitempty"`
	Prefix string `yaml:"prefix,omitempty"`
}

// SMTPConfig holds configuration for outbound notification mail. An empty
// host disables delivery.
type SMTPConfig struct {
	Host     string `yaml:"host,omitempty"`
	Port     int    `yaml:"port,omitempty"`
	Username string `yaml:"username,omitempty"`
	Password string `yaml:"password,omitempty"`
	From     string `yaml:"from,omitempty"`
}

// QueueConfig overrides parts of a queue's built-in policy. Zero fields keep
// the built-in value.
type QueueConfig struct {
	MaxAttempts     int      `yaml:"max_attempts,omitempty"`
	BackoffBase     Duration `yaml:"backoff_base,omitempty"`
	RetainCompleted int      `yaml:"retain_completed,omitempty"`
	RetainFailed    int      `yaml:"retain_failed,omitempty"`
}

// WorkerConfig tunes the worker daemon.
type WorkerConfig struct {
	// PollInterval is how long an idle worker waits between queue checks.
	PollInterval Duration `yaml:"poll_interval,omitempty"`

	// RequestTimeout bounds each outbound call a handler makes.
	RequestTimeout Duration `yaml:"request_timeout,omitempty"`
}

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		LLM: LLMConfig{
			Provider: "openai",
			Model:    "gpt-4o-mini",
		},
		Embedder: EmbedderConfig{
			Provider: "openai",
			Model:    "text-embedding-3-small",
		},
		Qdrant: QdrantConfig{
			Host:       "localhost",
			Port:       6334,
			Collection: DefaultCollection,
		},
		Worker: WorkerConfig{
			PollInterval:   Duration(500 * time.Millisecond),
			RequestTimeout: Duration(30 * time.Second),
		},
	}
}

// Load loads configuration from the .qadim directory in the given path.
func Load(basePath string) (*Config, error) {
	configFile := ConfigFilePath(basePath)

	data, err := os.ReadFile(configFile)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("config file not found: %s (run 'qadim init' first)", configFile)
	}
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	// Start with defaults
	cfg := Default()

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if cfg.SQLite.Path == "" {
		cfg.SQLite.Path = SQLitePath(basePath)
	}

	// Apply environment variable overrides
	cfg.applyEnvOverrides()

	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		if c.LLM.APIKey == "" {
			c.LLM.APIKey = key
		}
		if c.Embedder.APIKey == "" {
			c.Embedder.APIKey = key
		}
	}
	if key := os.Getenv("QDRANT_API_KEY"); key != "" {
		if c.Qdrant.APIKey == "" {
			c.Qdrant.APIKey = key
		}
	}
	if pw := os.Getenv("SMTP_PASSWORD"); pw != "" {
		if c.SMTP.Password == "" {
			c.SMTP.Password = pw
		}
	}
}

// ConfigDir returns the path to the .qadim config directory.
func ConfigDir(basePath string) string {
	return filepath.Join(basePath, DefaultConfigDir)
}

// ConfigFilePath returns the path to the config file.
func ConfigFilePath(basePath string) string {
	return filepath.Join(basePath, DefaultConfigDir, DefaultConfigFile)
}

// SQLitePath returns the default SQLite database path.
func SQLitePath(basePath string) string {
	return filepath.Join(basePath, DefaultConfigDir, DefaultDBFile)
}

// Exists checks if a qadim config exists in the given path.
func Exists(basePath string) bool {
	_, err := os.Stat(ConfigFilePath(basePath))
	return err == nil
}

// Package config loads the YAML configuration of ragcore and ragctl.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the ragcore configuration.
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Database  DatabaseConfig  `yaml:"database"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	LLM       LLMConfig       `yaml:"llm"`
	RAG       RAGConfig       `yaml:"rag"`
	Ingest    IngestConfig    `yaml:"ingest"`
	Storage   StorageConfig   `yaml:"storage"`
	Auth      AuthConfig      `yaml:"auth"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// Database drivers.
const (
	DriverRedis    = "redis"
	DriverValkey   = "valkey"
	DriverPostgres = "postgres"
)

// DatabaseConfig holds database connection settings.
// Addrs is used by redis and valkey, DSN by postgres.
type DatabaseConfig struct {
	Driver           string   `yaml:"driver"`
	Addrs            []string `yaml:"addrs"`
	Password         string   `yaml:"password"`
	DSN              string   `yaml:"dsn"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// EmbeddingConfig holds embedding provider settings.
type EmbeddingConfig struct {
	Provider          string  `yaml:"provider"`
	APIKey            string  `yaml:"api_key"`
	BaseURL           string  `yaml:"base_url"`
	Model             string  `yaml:"model"`
	Dimensions        int     `yaml:"dimensions"`
	TimeoutSec        int     `yaml:"timeout_sec"`
	MaxBatchSize      int     `yaml:"max_batch_size"`
	RequestsPerSecond float64 `yaml:"requests_per_second"` // 0 = unlimited
	Burst             int     `yaml:"burst"`
	CooldownSec       int     `yaml:"cooldown_sec"`
	Cache             bool    `yaml:"cache"`
	CacheTTLHours     int     `yaml:"cache_ttl_hours"`
}

// LLMConfig holds chat completion settings.
type LLMConfig struct {
	Provider    string  `yaml:"provider"`
	APIKey      string  `yaml:"api_key"`
	BaseURL     string  `yaml:"base_url"`
	Model       string  `yaml:"model"`
	MaxTokens   int     `yaml:"max_tokens"`
	Temperature float32 `yaml:"temperature"`
	TimeoutSec  int     `yaml:"timeout_sec"`
	CountTokens bool    `yaml:"count_tokens"`
}

// RAGConfig holds chunking and retrieval settings.
type RAGConfig struct {
	TokenBudget        int      `yaml:"token_budget"`
	RelevanceThreshold *float64 `yaml:"relevance_threshold"`
	TopK               int      `yaml:"top_k"`
	MaxTopK            int      `yaml:"max_top_k"`
	MaxQuestionLength  int      `yaml:"max_question_length"`
	Workers            int      `yaml:"workers"`            // similarity scoring parallelism
	ContextMaxTokens   int      `yaml:"context_max_tokens"` // lowest-ranked chunks are dropped beyond this
}

// IngestConfig holds ingestion queue settings.
type IngestConfig struct {
	Workers            int     `yaml:"workers"`
	QueueSize          int     `yaml:"queue_size"`
	MaxAttempts        int     `yaml:"max_attempts"`
	InitialBackoffMs   int     `yaml:"initial_backoff_ms"`
	MaxBackoffMs       int     `yaml:"max_backoff_ms"`
	BackoffMultiplier  float64 `yaml:"backoff_multiplier"`
	MaxContentBytes    int     `yaml:"max_content_bytes"`
	StaleProcessingSec int     `yaml:"stale_processing_sec"` // processing without updates this long may be re-ingested
}

// StorageConfig holds blob and key layout settings.
type StorageConfig struct {
	BlobRoot  string `yaml:"blob_root"`
	KeyPrefix string `yaml:"key_prefix"`
}

// Threshold returns the configured relevance threshold.
func (c RAGConfig) Threshold() float64 {
	if c.RelevanceThreshold == nil {
		return DefaultRelevanceThreshold
	}
	return *c.RelevanceThreshold
}

// Backoff returns the initial and maximum retry delays.
func (c IngestConfig) Backoff() (initial, maximum time.Duration) {
	return time.Duration(c.InitialBackoffMs) * time.Millisecond, time.Duration(c.MaxBackoffMs) * time.Millisecond
}

// Defaults shared with the rest of the system.
const (
	DefaultRelevanceThreshold = 0.7
	DefaultTopK               = 12
	DefaultMaxTopK            = 50
	DefaultDimensions         = 1536
)

// Load reads configuration from a YAML file by environment name (local, dev, prod, test).
func Load(env string) (Config, error) {
	return LoadFile(findConfigPath(env))
}

// LoadFile reads configuration from an explicit path.
func LoadFile(path string) (Config, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	return Parse(data)
}

// Parse expands ${VAR} references, decodes YAML, applies defaults and validates.
func Parse(data []byte) (Config, error) {
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

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 90
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 15
	}

	if c.Database.Driver == "" {
		c.Database.Driver = DriverRedis
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}

	if c.Embedding.Provider == "" {
		c.Embedding.Provider = "openai"
	}
	if c.Embedding.Model == "" {
		c.Embedding.Model = "text-embedding-3-small"
	}
	if c.Embedding.Dimensions <= 0 {
		c.Embedding.Dimensions = DefaultDimensions
	}
	if c.Embedding.TimeoutSec <= 0 {
		c.Embedding.TimeoutSec = 30
	}
	if c.Embedding.MaxBatchSize <= 0 {
		c.Embedding.MaxBatchSize = 2048
	}
	if c.Embedding.Burst <= 0 {
		c.Embedding.Burst = 1
	}
	if c.Embedding.CooldownSec <= 0 {
		c.Embedding.CooldownSec = 5
	}
	if c.Embedding.CacheTTLHours <= 0 {
		c.Embedding.CacheTTLHours = 24 * 7
	}

	if c.LLM.Provider == "" {
		c.LLM.Provider = "openai"
	}
	if c.LLM.APIKey == "" {
		c.LLM.APIKey = c.Embedding.APIKey
	}
	if c.LLM.BaseURL == "" {
		c.LLM.BaseURL = c.Embedding.BaseURL
	}
	if c.LLM.Model == "" {
		c.LLM.Model = "gpt-4"
	}
	if c.LLM.MaxTokens <= 0 {
		c.LLM.MaxTokens = 800
	}
	if c.LLM.Temperature <= 0 {
		c.LLM.Temperature = 0.3
	}
	if c.LLM.TimeoutSec <= 0 {
		c.LLM.TimeoutSec = 60
	}

	if c.RAG.TokenBudget <= 0 {
		c.RAG.TokenBudget = 900
	}
	if c.RAG.TopK <= 0 {
		c.RAG.TopK = DefaultTopK
	}
	if c.RAG.MaxTopK <= 0 {
		c.RAG.MaxTopK = DefaultMaxTopK
	}
	if c.RAG.MaxQuestionLength <= 0 {
		c.RAG.MaxQuestionLength = 2000
	}
	if c.RAG.Workers <= 0 {
		c.RAG.Workers = 4
	}
	if c.RAG.ContextMaxTokens <= 0 {
		c.RAG.ContextMaxTokens = 12000
	}

	if c.Ingest.Workers <= 0 {
		c.Ingest.Workers = 2
	}
	if c.Ingest.QueueSize <= 0 {
		c.Ingest.QueueSize = 100
	}
	if c.Ingest.MaxAttempts <= 0 {
		c.Ingest.MaxAttempts = 3
	}
	if c.Ingest.InitialBackoffMs <= 0 {
		c.Ingest.InitialBackoffMs = 1000
	}
	if c.Ingest.MaxBackoffMs <= 0 {
		c.Ingest.MaxBackoffMs = 30000
	}
	if c.Ingest.BackoffMultiplier < 1 {
		c.Ingest.BackoffMultiplier = 2
	}
	if c.Ingest.MaxContentBytes <= 0 {
		c.Ingest.MaxContentBytes = 10 << 20
	}
	if c.Ingest.StaleProcessingSec <= 0 {
		c.Ingest.StaleProcessingSec = 900
	}

	if c.Storage.BlobRoot == "" {
		c.Storage.BlobRoot = "data/blobs"
	}
	if c.Storage.KeyPrefix == "" {
		c.Storage.KeyPrefix = "ragcore:"
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	var errs []error
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		errs = append(errs, fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port))
	}

	switch c.Database.Driver {
	case DriverRedis, DriverValkey:
		if len(c.Database.Addrs) == 0 {
			errs = append(errs, fmt.Errorf("database.addrs is required for driver %q", c.Database.Driver))
		}
	case DriverPostgres:
		if c.Database.DSN == "" {
			errs = append(errs, errors.New("database.dsn is required for driver \"postgres\""))
		}
	default:
		errs = append(errs, fmt.Errorf("database.driver must be redis, valkey or postgres, got %q", c.Database.Driver))
	}

	if c.Embedding.RequestsPerSecond < 0 {
		errs = append(errs, fmt.Errorf("embedding.requests_per_second must not be negative, got %v", c.Embedding.RequestsPerSecond))
	}
	if t := c.RAG.Threshold(); t < -1 || t > 1 {
		errs = append(errs, fmt.Errorf("rag.relevance_threshold must be within [-1, 1], got %v", t))
	}
	if c.RAG.TopK > c.RAG.MaxTopK {
		errs = append(errs, fmt.Errorf("rag.top_k (%d) must not exceed rag.max_top_k (%d)", c.RAG.TopK, c.RAG.MaxTopK))
	}
	if c.LLM.Temperature > 2 {
		errs = append(errs, fmt.Errorf("llm.temperature must be within (0, 2], got %v", c.LLM.Temperature))
	}
	if c.Ingest.MaxBackoffMs < c.Ingest.InitialBackoffMs {
		errs = append(errs, errors.New("ingest.max_backoff_ms must not be below ingest.initial_backoff_ms"))
	}
	return errors.Join(errs...)
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// Relative to the source file, for tests run from package directories.
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b)))
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// envVarRegex matches ${VAR} and ${VAR:-default}.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1])
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}

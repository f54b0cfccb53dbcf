// Package config loads the circulars service configuration from YAML.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/poiesic/circulars/ai"
	"github.com/poiesic/circulars/extract"
	"gopkg.in/yaml.v3"
)

// CorpusConfig locates the documents to serve.
type CorpusConfig struct {
	Dir        string   `yaml:"dir"`
	Extensions []string `yaml:"extensions,omitempty"`
}

// AIConfig configures the OpenAI-compatible embedding and answer services.
// Host applies to both services unless a specific host is set.
type AIConfig struct {
	Host            string `yaml:"host"`
	EmbeddingHost   string `yaml:"embedding_host,omitempty"`
	AnswerHost      string `yaml:"answer_host,omitempty"`
	EmbeddingModel  string `yaml:"embedding_model"`
	AnswerModel     string `yaml:"answer_model"`
	APITokenEnv     string `yaml:"api_token_env"`
	MaxContextChars int    `yaml:"max_context_chars"`
}

// SearchConfig tunes query handling.
type SearchConfig struct {
	PoolSize              int `yaml:"pool_size"`
	CapabilityTimeoutSecs int `yaml:"capability_timeout_secs"`
}

// IngestionConfig tunes corpus loading.
type IngestionConfig struct {
	Mode         string `yaml:"mode"`
	Workers      int    `yaml:"workers"`
	BatchSize    int    `yaml:"batch_size"`
	MaxAttempts  int    `yaml:"max_attempts"`
	RetryDelayMs int    `yaml:"retry_delay_ms"`
	SkipFailures bool   `yaml:"skip_failures"`
	OCRLanguage  string `yaml:"ocr_language,omitempty"`
	OCRDPI       int    `yaml:"ocr_dpi"`
}

// QAConfig tunes question and answer generation.
type QAConfig struct {
	MaxQuestions int `yaml:"max_questions"`
}

// CacheConfig configures the persistent extraction and embedding cache.
// An empty Dir disables caching.
type CacheConfig struct {
	Dir string `yaml:"dir"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Addr                string `yaml:"addr"`
	ReadTimeoutSecs     int    `yaml:"read_timeout_secs"`
	WriteTimeoutSecs    int    `yaml:"write_timeout_secs"`
	ShutdownTimeoutSecs int    `yaml:"shutdown_timeout_secs"`
}

// AppConfig is the root application configuration structure.
type AppConfig struct {
	Corpus    CorpusConfig    `yaml:"corpus"`
	AI        AIConfig        `yaml:"ai"`
	Search    SearchConfig    `yaml:"search"`
	Ingestion IngestionConfig `yaml:"ingestion"`
	QA        QAConfig        `yaml:"qa"`
	Cache     CacheConfig     `yaml:"cache"`
	Server    ServerConfig    `yaml:"server"`
}

// Load reads a config from path. A missing file yields the defaults; unset
// fields in an existing file are filled with defaults.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}
		return nil, err
	}
	var cfg AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	applyDefaults(&cfg)
	return &cfg, nil
}

// Save writes the config to the given path, creating directories as needed.
func Save(path string, cfg *AppConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Default returns the built-in configuration.
func Default() *AppConfig {
	cfg := &AppConfig{}
	applyDefaults(cfg)
	return cfg
}

func applyDefaults(cfg *AppConfig) {
	aiDefaults := ai.DefaultConfig()

	if cfg.Corpus.Dir == "" {
		cfg.Corpus.Dir = "circulars"
	}
	if cfg.AI.Host == "" {
		cfg.AI.Host = aiDefaults.EmbeddingHost
	}
	if cfg.AI.EmbeddingModel == "" {
		cfg.AI.EmbeddingModel = aiDefaults.EmbeddingModel
	}
	if cfg.AI.AnswerModel == "" {
		cfg.AI.AnswerModel = aiDefaults.AnswerModel
	}
	if cfg.AI.APITokenEnv == "" {
		cfg.AI.APITokenEnv = "OPENAI_API_KEY"
	}
	if cfg.AI.MaxContextChars == 0 {
		cfg.AI.MaxContextChars = ai.DefaultMaxContextChars
	}
	if cfg.Search.PoolSize == 0 {
		cfg.Search.PoolSize = 5
	}
	if cfg.Ingestion.Mode == "" {
		cfg.Ingestion.Mode = string(extract.ModeOCR)
	}
	if cfg.Ingestion.BatchSize == 0 {
		cfg.Ingestion.BatchSize = 16
	}
	if cfg.Ingestion.MaxAttempts == 0 {
		cfg.Ingestion.MaxAttempts = 3
	}
	if cfg.Ingestion.RetryDelayMs == 0 {
		cfg.Ingestion.RetryDelayMs = 500
	}
	if cfg.Ingestion.OCRDPI == 0 {
		cfg.Ingestion.OCRDPI = extract.DefaultDPI
	}
	if cfg.QA.MaxQuestions == 0 {
		cfg.QA.MaxQuestions = 16
	}
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":5000"
	}
	if cfg.Server.ReadTimeoutSecs == 0 {
		cfg.Server.ReadTimeoutSecs = 10
	}
	if cfg.Server.WriteTimeoutSecs == 0 {
		cfg.Server.WriteTimeoutSecs = 120
	}
	if cfg.Server.ShutdownTimeoutSecs == 0 {
		cfg.Server.ShutdownTimeoutSecs = 15
	}
}

// Validate reports configuration values no component would accept.
func (c *AppConfig) Validate() error {
	if c.Corpus.Dir == "" {
		return errors.New("config: corpus.dir is required")
	}
	if _, err := extract.ParseMode(c.Ingestion.Mode); err != nil {
		return fmt.Errorf("config: ingestion.mode: %w", err)
	}
	if c.Search.PoolSize < 1 {
		return fmt.Errorf("config: search.pool_size must be positive, got %d", c.Search.PoolSize)
	}
	if c.Search.CapabilityTimeoutSecs < 0 {
		return errors.New("config: search.capability_timeout_secs must not be negative")
	}
	if c.Ingestion.BatchSize < 1 {
		return fmt.Errorf("config: ingestion.batch_size must be positive, got %d", c.Ingestion.BatchSize)
	}
	if c.Ingestion.MaxAttempts < 1 {
		return fmt.Errorf("config: ingestion.max_attempts must be positive, got %d", c.Ingestion.MaxAttempts)
	}
	if c.QA.MaxQuestions < 1 {
		return fmt.Errorf("config: qa.max_questions must be positive, got %d", c.QA.MaxQuestions)
	}
	return c.AIServiceConfig().Validate()
}

// AIServiceConfig converts the ai section into an ai.Config. The API token
// is read from the environment variable named by api_token_env.
func (c *AppConfig) AIServiceConfig() *ai.Config {
	embeddingHost, answerHost := c.AI.Host, c.AI.Host
	if c.AI.EmbeddingHost != "" {
		embeddingHost = c.AI.EmbeddingHost
	}
	if c.AI.AnswerHost != "" {
		answerHost = c.AI.AnswerHost
	}
	cfg := ai.NewConfig(
		ai.WithEmbeddingHost(embeddingHost),
		ai.WithAnswerHost(answerHost),
		ai.WithEmbeddingModel(c.AI.EmbeddingModel),
		ai.WithAnswerModel(c.AI.AnswerModel),
		ai.WithAPIToken(os.Getenv(c.AI.APITokenEnv)),
		ai.WithMaxContextChars(c.AI.MaxContextChars),
	)
	cfg.Normalize()
	return cfg
}

// CapabilityTimeout returns the per-call timeout, zero when unbounded.
func (c *AppConfig) CapabilityTimeout() time.Duration {
	return time.Duration(c.Search.CapabilityTimeoutSecs) * time.Second
}

// RetryDelay returns the base embedding retry delay.
func (c *AppConfig) RetryDelay() time.Duration {
	return time.Duration(c.Ingestion.RetryDelayMs) * time.Millisecond
}

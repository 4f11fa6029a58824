// Package config provides configuration loading and structs for the kotae server.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application.
type Config struct {
	Debug      bool             `yaml:"debug"`
	Server     ServerConfig     `yaml:"server"`
	Storage    StorageConfig    `yaml:"storage"`
	Embedding  EmbeddingConfig  `yaml:"embedding"`
	Retrieval  RetrievalConfig  `yaml:"retrieval"`
	Generation GenerationConfig `yaml:"generation"`
	Watch      WatchConfig      `yaml:"watch"`
}

// ServerConfig holds HTTP server and upload settings.
type ServerConfig struct {
	Host              string   `yaml:"host"`
	Port              int      `yaml:"port"`
	MaxUploadMB       int      `yaml:"max_upload_mb"`
	UploadDir         string   `yaml:"upload_dir"`
	AllowedExtensions []string `yaml:"allowed_extensions"`
}

// MaxUploadBytes returns the upload size ceiling in bytes.
func (s *ServerConfig) MaxUploadBytes() int64 {
	return int64(s.MaxUploadMB) * 1024 * 1024
}

// StorageConfig holds the ingestion audit log location.
type StorageConfig struct {
	DatabasePath string `yaml:"database_path"`
}

// EmbeddingConfig selects and configures the embedding provider.
// Provider is one of "hash", "openai" or "onnx".
type EmbeddingConfig struct {
	Provider          string  `yaml:"provider"`
	Dimensions        int     `yaml:"dimensions"`
	BatchSize         int     `yaml:"batch_size"`
	CacheSize         int     `yaml:"cache_size"`
	ModelPath         string  `yaml:"model_path"`
	MaxTokens         int     `yaml:"max_tokens"`
	BaseURL           string  `yaml:"base_url"`
	APIKeyEnv         string  `yaml:"api_key_env"`
	Model             string  `yaml:"model"`
	RequestsPerSecond float64 `yaml:"requests_per_second"`
}

// RetrievalConfig holds chunking, capacity and ranking settings.
type RetrievalConfig struct {
	ChunkSize    int `yaml:"chunk_size"`
	ChunkOverlap int `yaml:"chunk_overlap"`
	MaxDocuments int `yaml:"max_documents"`
	// MaxSegments caps the total segment count across all documents; 0 disables the cap.
	MaxSegments int `yaml:"max_segments"`
	TopK        int `yaml:"top_k"`
}

// GenerationConfig configures the answer generator.
// Provider is "openai" (any OpenAI-compatible completion endpoint) or "none".
type GenerationConfig struct {
	Provider           string        `yaml:"provider"`
	BaseURL            string        `yaml:"base_url"`
	APIKeyEnv          string        `yaml:"api_key_env"`
	Model              string        `yaml:"model"`
	MaxTokens          int           `yaml:"max_tokens"`
	Temperature        float32       `yaml:"temperature"`
	TopP               float32       `yaml:"top_p"`
	FrequencyPenalty   float32       `yaml:"frequency_penalty"`
	PresencePenalty    float32       `yaml:"presence_penalty"`
	ContextChars       int           `yaml:"context_chars"`
	Timeout            time.Duration `yaml:"timeout"`
	QuestionEchoFilter *bool         `yaml:"question_echo_filter"`
	RequestsPerSecond  float64       `yaml:"requests_per_second"`
}

// EchoFilterOrDefault reports whether the question-echo post-filter is on; defaults to true.
func (g *GenerationConfig) EchoFilterOrDefault() bool {
	if g.QuestionEchoFilter != nil {
		return *g.QuestionEchoFilter
	}
	return true
}

// WatchConfig holds inbox directories whose new files are ingested automatically.
type WatchConfig struct {
	Directories []string `yaml:"directories"`
	Extensions  []string `yaml:"extensions"`
}

// ErrInvalidConfig is wrapped by every validation failure.
var ErrInvalidConfig = errors.New("invalid config")

// Load reads and parses the config file at path, expands paths, applies defaults
// and validates the result. Returns an error if the file cannot be read or parsed,
// or if the resulting configuration is invalid.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	ApplyDefaults(&cfg)

	configDir := filepath.Dir(path)
	cfg.Storage.DatabasePath = expandPath(cfg.Storage.DatabasePath, configDir)
	cfg.Server.UploadDir = expandPath(cfg.Server.UploadDir, configDir)
	if cfg.Embedding.ModelPath != "" {
		cfg.Embedding.ModelPath = expandPath(cfg.Embedding.ModelPath, configDir)
	}
	for i := range cfg.Watch.Directories {
		cfg.Watch.Directories[i] = expandPath(cfg.Watch.Directories[i], configDir)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings that would make ingestion or querying misbehave.
// The chunk overlap must be strictly smaller than the chunk size or the
// windowing would never advance.
func (c *Config) Validate() error {
	r := c.Retrieval
	switch {
	case r.ChunkSize <= 0:
		return fmt.Errorf("%w: retrieval.chunk_size must be positive, got %d", ErrInvalidConfig, r.ChunkSize)
	case r.ChunkOverlap < 0:
		return fmt.Errorf("%w: retrieval.chunk_overlap must not be negative, got %d", ErrInvalidConfig, r.ChunkOverlap)
	case r.ChunkOverlap >= r.ChunkSize:
		return fmt.Errorf("%w: retrieval.chunk_overlap (%d) must be less than chunk_size (%d)", ErrInvalidConfig, r.ChunkOverlap, r.ChunkSize)
	case r.MaxDocuments <= 0:
		return fmt.Errorf("%w: retrieval.max_documents must be positive, got %d", ErrInvalidConfig, r.MaxDocuments)
	case r.MaxSegments < 0:
		return fmt.Errorf("%w: retrieval.max_segments must not be negative, got %d", ErrInvalidConfig, r.MaxSegments)
	case r.TopK <= 0:
		return fmt.Errorf("%w: retrieval.top_k must be positive, got %d", ErrInvalidConfig, r.TopK)
	}
	if c.Embedding.Dimensions <= 0 {
		return fmt.Errorf("%w: embedding.dimensions must be positive, got %d", ErrInvalidConfig, c.Embedding.Dimensions)
	}
	if c.Embedding.BatchSize <= 0 {
		return fmt.Errorf("%w: embedding.batch_size must be positive, got %d", ErrInvalidConfig, c.Embedding.BatchSize)
	}
	switch c.Embedding.Provider {
	case "hash", "openai", "onnx":
	default:
		return fmt.Errorf("%w: unknown embedding.provider %q (supported: hash, openai, onnx)", ErrInvalidConfig, c.Embedding.Provider)
	}
	switch c.Generation.Provider {
	case "openai", "none":
	default:
		return fmt.Errorf("%w: unknown generation.provider %q (supported: openai, none)", ErrInvalidConfig, c.Generation.Provider)
	}
	if c.Generation.Timeout <= 0 {
		return fmt.Errorf("%w: generation.timeout must be positive", ErrInvalidConfig)
	}
	if c.Server.MaxUploadMB <= 0 {
		return fmt.Errorf("%w: server.max_upload_mb must be positive, got %d", ErrInvalidConfig, c.Server.MaxUploadMB)
	}
	if len(c.Server.AllowedExtensions) == 0 {
		return fmt.Errorf("%w: server.allowed_extensions must not be empty", ErrInvalidConfig)
	}
	return nil
}

// expandPath converts a path to absolute. Paths starting with "./" are relative to configDir;
// other relative paths are relative to the home directory.
func expandPath(path string, configDir string) string {
	if filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// CorpusConfig locates the corpus and the persisted index artifacts.
type CorpusConfig struct {
	Path       string `yaml:"path"`
	IndexPath  string `yaml:"index_path"`
	ChunksPath string `yaml:"chunks_path"`
}

// ChunkerConfig configures how the corpus is split into chunks.
type ChunkerConfig struct {
	Size    int `yaml:"size"`
	Overlap int `yaml:"overlap"`
}

// RetrievalConfig configures nearest-neighbor retrieval.
type RetrievalConfig struct {
	TopK int `yaml:"top_k"`
}

// EmbedderConfig selects and configures the embedding backend.
type EmbedderConfig struct {
	Type        string `yaml:"type"`
	Model       string `yaml:"model"`
	BaseURL     string `yaml:"base_url,omitempty"`
	APIKeyEnv   string `yaml:"api_key_env,omitempty"`
	TimeoutSecs int    `yaml:"timeout_secs"`
	Dimensions  int    `yaml:"dimensions,omitempty"`
}

// GeneratorConfig selects and configures the text-generation backend.
type GeneratorConfig struct {
	Type        string `yaml:"type"`
	Model       string `yaml:"model"`
	BaseURL     string `yaml:"base_url,omitempty"`
	APIKeyEnv   string `yaml:"api_key_env,omitempty"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// LoggingConfig configures the structured logger.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// AppConfig is the root application configuration structure.
type AppConfig struct {
	Corpus    CorpusConfig    `yaml:"corpus"`
	Chunker   ChunkerConfig   `yaml:"chunker"`
	Retrieval RetrievalConfig `yaml:"retrieval"`
	Embedder  EmbedderConfig  `yaml:"embedder"`
	Generator GeneratorConfig `yaml:"generator"`
	Logging   LoggingConfig   `yaml:"logging"`
}

const (
	DefaultCorpusPath      = "data/notes.txt"
	DefaultIndexPath       = "index.bin"
	DefaultChunksPath      = "chunks.gob"
	DefaultChunkSize       = 900
	DefaultChunkOverlap    = 100
	DefaultTopK            = 5
	DefaultEmbedModel      = "nomic-embed-text"
	DefaultChatModel       = "gemma:2b"
	DefaultEmbedTimeout    = 30
	DefaultGenerateTimeout = 15
)

// Load reads a config from a specified path. If the file does not exist, returns defaults.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			cfg := Default()
			applyEnvOverrides(cfg)
			return cfg, nil
		}
		return nil, err
	}
	var cfg AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	applyConfigDefaults(&cfg)
	applyEnvOverrides(&cfg)
	return &cfg, nil
}

// LoadDefault tries ./config.yaml first, then ~/.config/tradecoach/config.yaml.
// If neither exists, it writes defaults to ~/.config/tradecoach/config.yaml and returns them.
func LoadDefault() (*AppConfig, string, error) {
	cwdPath := "config.yaml"
	if _, err := os.Stat(cwdPath); err == nil {
		cfg, err := Load(cwdPath)
		return cfg, cwdPath, err
	}
	userPath, err := defaultUserConfigPath()
	if err != nil {
		return nil, "", err
	}
	if _, err := os.Stat(userPath); err == nil {
		cfg, err := Load(userPath)
		return cfg, userPath, err
	}
	cfg := Default()
	if err := Save(userPath, cfg); err != nil {
		return nil, "", err
	}
	applyEnvOverrides(cfg)
	return cfg, userPath, nil
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

// Validate rejects configurations the pipeline cannot run with.
func (c *AppConfig) Validate() error {
	if c.Chunker.Size <= 0 {
		return fmt.Errorf("chunker.size must be positive, got %d", c.Chunker.Size)
	}
	if c.Chunker.Overlap < 0 || c.Chunker.Overlap >= c.Chunker.Size {
		return fmt.Errorf("chunker.overlap must be in [0, %d), got %d", c.Chunker.Size, c.Chunker.Overlap)
	}
	if c.Retrieval.TopK <= 0 {
		return fmt.Errorf("retrieval.top_k must be positive, got %d", c.Retrieval.TopK)
	}
	switch c.Embedder.Type {
	case "ollama", "openai", "hash", "tfidf":
	default:
		return fmt.Errorf("unknown embedder: %s", c.Embedder.Type)
	}
	switch c.Generator.Type {
	case "ollama", "openai":
	default:
		return fmt.Errorf("unknown generator: %s", c.Generator.Type)
	}
	if c.Corpus.Path == "" || c.Corpus.IndexPath == "" || c.Corpus.ChunksPath == "" {
		return errors.New("corpus paths must not be empty")
	}
	return nil
}

func defaultUserConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "tradecoach", "config.yaml"), nil
}

// Default returns the built-in configuration.
func Default() *AppConfig {
	cfg := &AppConfig{}
	applyConfigDefaults(cfg)
	return cfg
}

func applyConfigDefaults(cfg *AppConfig) {
	if cfg.Corpus.Path == "" {
		cfg.Corpus.Path = DefaultCorpusPath
	}
	if cfg.Corpus.IndexPath == "" {
		cfg.Corpus.IndexPath = DefaultIndexPath
	}
	if cfg.Corpus.ChunksPath == "" {
		cfg.Corpus.ChunksPath = DefaultChunksPath
	}
	// overlap 0 is a legal explicit setting, so it is only defaulted together with size
	if cfg.Chunker.Size == 0 {
		cfg.Chunker.Size = DefaultChunkSize
		if cfg.Chunker.Overlap == 0 {
			cfg.Chunker.Overlap = DefaultChunkOverlap
		}
	}
	if cfg.Retrieval.TopK == 0 {
		cfg.Retrieval.TopK = DefaultTopK
	}
	if cfg.Embedder.Type == "" {
		cfg.Embedder.Type = "ollama"
	}
	if cfg.Embedder.Model == "" && cfg.Embedder.Type == "ollama" {
		cfg.Embedder.Model = DefaultEmbedModel
	}
	if cfg.Embedder.TimeoutSecs == 0 {
		cfg.Embedder.TimeoutSecs = DefaultEmbedTimeout
	}
	if cfg.Generator.Type == "" {
		cfg.Generator.Type = "ollama"
	}
	if cfg.Generator.Model == "" && cfg.Generator.Type == "ollama" {
		cfg.Generator.Model = DefaultChatModel
	}
	if cfg.Generator.TimeoutSecs == 0 {
		cfg.Generator.TimeoutSecs = DefaultGenerateTimeout
	}
	for _, c := range []*string{&cfg.Embedder.APIKeyEnv, &cfg.Generator.APIKeyEnv} {
		if *c == "" {
			*c = "OPENAI_API_KEY"
		}
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "text"
	}
}

// applyEnvOverrides lets the environment win over the file.
func applyEnvOverrides(cfg *AppConfig) {
	if host := os.Getenv("OLLAMA_HOST"); host != "" {
		if cfg.Embedder.Type == "ollama" {
			cfg.Embedder.BaseURL = host
		}
		if cfg.Generator.Type == "ollama" {
			cfg.Generator.BaseURL = host
		}
	}
	if m := os.Getenv("TRADECOACH_EMBED_MODEL"); m != "" {
		cfg.Embedder.Model = m
	}
	if m := os.Getenv("TRADECOACH_CHAT_MODEL"); m != "" {
		cfg.Generator.Model = m
	}
}

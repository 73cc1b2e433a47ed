// Package embedding selects the embedding backend named in the configuration.
package embedding

import (
	"fmt"
	"time"

	"tradecoach/internal/config"
	"tradecoach/internal/domain"
	"tradecoach/internal/embedding/hash"
	"tradecoach/internal/embedding/ollama"
	"tradecoach/internal/embedding/openai"
	"tradecoach/internal/embedding/tfidf"
)

// New assembles the embedder described by cfg.
func New(cfg config.EmbedderConfig) (domain.Embedder, error) {
	timeout := time.Duration(cfg.TimeoutSecs) * time.Second
	switch cfg.Type {
	case "ollama", "":
		return ollama.NewClient(ollama.Config{
			BaseURL: cfg.BaseURL,
			Model:   cfg.Model,
			Timeout: timeout,
		}), nil
	case "openai":
		client, err := openai.NewClient(openai.Config{
			BaseURL:   cfg.BaseURL,
			APIKeyEnv: cfg.APIKeyEnv,
			Model:     cfg.Model,
			Timeout:   timeout,
		})
		if err != nil {
			return nil, fmt.Errorf("openai embedder init failed: %w", err)
		}
		return client, nil
	case "hash":
		return hash.NewEmbedder(cfg.Dimensions), nil
	case "tfidf":
		return tfidf.NewVectorizer(), nil
	default:
		return nil, fmt.Errorf("unknown embedder: %s", cfg.Type)
	}
}

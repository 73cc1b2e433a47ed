// Package generation selects the text-generation backend named in the configuration.
package generation

import (
	"fmt"
	"time"

	"tradecoach/internal/config"
	"tradecoach/internal/domain"
	"tradecoach/internal/generation/ollama"
	"tradecoach/internal/generation/openai"
)

// New assembles the generator described by cfg.
func New(cfg config.GeneratorConfig) (domain.Generator, error) {
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
			return nil, fmt.Errorf("openai generator init failed: %w", err)
		}
		return client, nil
	default:
		return nil, fmt.Errorf("unknown generator: %s", cfg.Type)
	}
}

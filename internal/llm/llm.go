// Package llm builds the generative collaborator used when extraction cannot
// answer a question.
package llm

import (
	"fmt"
	"strings"
	"time"

	"contractqa/internal/domain"
	"contractqa/internal/llm/openai"
)

// Config selects and configures a generator.
type Config struct {
	Provider          string
	BaseURL           string
	APIKeyEnv         string
	Model             string
	Timeout           time.Duration
	MaxRetries        int
	RequestsPerMinute int
}

// New returns the configured generator, rate limited when RequestsPerMinute
// is positive. An empty or "none" provider yields a nil generator, which makes
// every non-extractive answer fall back to excerpts.
func New(cfg Config) (domain.Generator, error) {
	var gen domain.Generator
	switch strings.ToLower(cfg.Provider) {
	case "openai", "ollama", "openai-compatible":
		g, err := openai.NewGenerator(openai.Config{
			BaseURL:    cfg.BaseURL,
			APIKeyEnv:  cfg.APIKeyEnv,
			Model:      cfg.Model,
			Timeout:    cfg.Timeout,
			MaxRetries: cfg.MaxRetries,
		})
		if err != nil {
			return nil, err
		}
		gen = g
	case "", "none":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown llm provider: %s (supported: openai, ollama, none)", cfg.Provider)
	}
	if cfg.RequestsPerMinute > 0 {
		gen = RateLimited(gen, cfg.RequestsPerMinute, 1)
	}
	return gen, nil
}

package generate

import (
	"fmt"
	"os"

	"github.com/hyperjump/kotae/internal/config"
)

// New builds the generator selected by cfg.Provider, wrapped in Guarded.
func New(cfg config.GenerationConfig) (Generator, error) {
	var inner Generator
	switch cfg.Provider {
	case "", "openai":
		inner = NewOpenAIGenerator(OpenAIOptions{
			APIKey:            os.Getenv(cfg.APIKeyEnv),
			BaseURL:           cfg.BaseURL,
			Model:             cfg.Model,
			MaxTokens:         cfg.MaxTokens,
			Temperature:       cfg.Temperature,
			TopP:              cfg.TopP,
			ContextChars:      cfg.ContextChars,
			FrequencyPenalty:  cfg.FrequencyPenalty,
			PresencePenalty:   cfg.PresencePenalty,
			RequestsPerSecond: cfg.RequestsPerSecond,
		})
	case "none":
		inner = Extractive{}
	default:
		return nil, fmt.Errorf("unknown generation provider %q", cfg.Provider)
	}
	return NewGuarded(inner, cfg.EchoFilterOrDefault()), nil
}

package generate

import (
	"context"
	"errors"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"
)

// ErrNoChoices is returned when the completion response is empty.
var ErrNoChoices = errors.New("completion returned no choices")

// OpenAIOptions configures an OpenAIGenerator.
type OpenAIOptions struct {
	APIKey       string
	BaseURL      string
	Model        string
	MaxTokens    int
	Temperature  float32
	TopP         float32
	ContextChars int
	// Penalties are sent as the OpenAI frequency_penalty and presence_penalty
	// fields; zero leaves the server default in place.
	FrequencyPenalty float32
	PresencePenalty  float32
	// RequestsPerSecond limits outgoing calls; <= 0 means unlimited.
	RequestsPerSecond float64
}

// OpenAIGenerator calls an OpenAI-compatible /completions endpoint, such as a
// llama.cpp server hosting a local model.
type OpenAIGenerator struct {
	client  *openai.Client
	opts    OpenAIOptions
	limiter *rate.Limiter
}

// NewOpenAIGenerator creates a generator. An empty BaseURL uses the public
// OpenAI API.
func NewOpenAIGenerator(opts OpenAIOptions) *OpenAIGenerator {
	cfg := openai.DefaultConfig(opts.APIKey)
	if opts.BaseURL != "" {
		cfg.BaseURL = opts.BaseURL
	}
	limiter := rate.NewLimiter(rate.Inf, 1)
	if opts.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), 1)
	}
	return &OpenAIGenerator{
		client:  openai.NewClientWithConfig(cfg),
		opts:    opts,
		limiter: limiter,
	}
}

// Generate sends the rendered prompt and returns the raw completion text.
func (g *OpenAIGenerator) Generate(ctx context.Context, contextText, question string) (string, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return "", err
	}
	resp, err := g.client.CreateCompletion(ctx, openai.CompletionRequest{
		Model:            g.opts.Model,
		Prompt:           BuildPrompt(contextText, question, g.opts.ContextChars),
		MaxTokens:        g.opts.MaxTokens,
		Temperature:      g.opts.Temperature,
		TopP:             g.opts.TopP,
		FrequencyPenalty: g.opts.FrequencyPenalty,
		PresencePenalty:  g.opts.PresencePenalty,
		Stop:             StopSequences,
	})
	if err != nil {
		return "", fmt.Errorf("completion request: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrNoChoices
	}
	return resp.Choices[0].Text, nil
}

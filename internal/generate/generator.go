// Package generate turns a retrieved context and a question into an answer.
package generate

import (
	"context"
	"strings"
)

// Canned answers returned instead of model output.
const (
	NoContextAnswer = "No relevant information found in documents."
	EmptyAnswer     = "I couldn't determine an answer from the documents."
	EchoedAnswer    = "The documents mention this topic but don't provide a clear definition."
)

// Generator answers question using only the given context.
type Generator interface {
	Generate(ctx context.Context, contextText, question string) (string, error)
}

// GeneratorFunc adapts a function to Generator.
type GeneratorFunc func(ctx context.Context, contextText, question string) (string, error)

// Generate calls f.
func (f GeneratorFunc) Generate(ctx context.Context, contextText, question string) (string, error) {
	return f(ctx, contextText, question)
}

// Guarded wraps a Generator with the answer policy: an empty context is
// answered without calling the model, and the model's answer goes through
// PostProcess.
type Guarded struct {
	inner      Generator
	echoFilter bool
}

// NewGuarded wraps inner. echoFilter enables the question-echo heuristic.
func NewGuarded(inner Generator, echoFilter bool) *Guarded {
	return &Guarded{inner: inner, echoFilter: echoFilter}
}

// Generate implements Generator.
func (g *Guarded) Generate(ctx context.Context, contextText, question string) (string, error) {
	if strings.TrimSpace(contextText) == "" {
		return NoContextAnswer, nil
	}
	answer, err := g.inner.Generate(ctx, contextText, question)
	if err != nil {
		return "", err
	}
	return PostProcess(answer, question, g.echoFilter), nil
}

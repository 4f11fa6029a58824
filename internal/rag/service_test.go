package rag

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyperjump/kotae/internal/generate"
)

type retrieverFunc func(ctx context.Context, query string, topK int) string

func (f retrieverFunc) SearchDocuments(ctx context.Context, query string, topK int) string {
	return f(ctx, query, topK)
}

func staticContext(text string) Retriever {
	return retrieverFunc(func(context.Context, string, int) string { return text })
}

var secondsPattern = regexp.MustCompile(`^\d+\.\d{2}s$`)

func TestService_Ask(t *testing.T) {
	var gotContext, gotQuestion string
	gen := generate.GeneratorFunc(func(_ context.Context, c, q string) (string, error) {
		gotContext, gotQuestion = c, q
		return "Chlorophyll absorbs light.", nil
	})
	var gotTopK int
	ret := retrieverFunc(func(_ context.Context, q string, k int) string {
		gotTopK = k
		return "From bio.txt (relevance: 0.80):\nchlorophyll"
	})
	s := NewService(ret, gen, WithTopK(4))

	resp, err := s.Ask(context.Background(), "What absorbs light?")
	require.NoError(t, err)
	assert.Equal(t, "success", resp.Status)
	assert.Equal(t, "Chlorophyll absorbs light.", resp.Answer)
	assert.Equal(t, "From bio.txt (relevance: 0.80):\nchlorophyll", gotContext)
	assert.Equal(t, "What absorbs light?", gotQuestion)
	assert.Equal(t, 4, gotTopK)
	assert.Regexp(t, secondsPattern, resp.Timings.ContextSearch)
	assert.Regexp(t, secondsPattern, resp.Timings.AnswerGeneration)
	assert.Regexp(t, secondsPattern, resp.Timings.Total)
}

func TestService_AskTimeout(t *testing.T) {
	gen := generate.GeneratorFunc(func(ctx context.Context, _, _ string) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	})
	s := NewService(staticContext("ctx"), gen, WithTimeout(20*time.Millisecond))

	start := time.Now()
	_, err := s.Ask(context.Background(), "q")
	assert.ErrorIs(t, err, ErrTimeout)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestService_AskTimeoutWithStuckGenerator(t *testing.T) {
	block := make(chan struct{})
	defer close(block)
	gen := generate.GeneratorFunc(func(context.Context, string, string) (string, error) {
		<-block
		return "late", nil
	})
	s := NewService(staticContext("ctx"), gen, WithTimeout(20*time.Millisecond))

	_, err := s.Ask(context.Background(), "q")
	assert.ErrorIs(t, err, ErrTimeout)
}

func TestService_AskCallerCancel(t *testing.T) {
	gen := generate.GeneratorFunc(func(ctx context.Context, _, _ string) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	})
	s := NewService(staticContext("ctx"), gen)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()
	_, err := s.Ask(ctx, "q")
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, ErrTimeout)
}

func TestService_AskGeneratorError(t *testing.T) {
	gen := generate.GeneratorFunc(func(context.Context, string, string) (string, error) {
		return "", errors.New("model crashed")
	})
	s := NewService(staticContext("ctx"), gen)

	_, err := s.Ask(context.Background(), "q")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrTimeout)
	assert.Contains(t, err.Error(), "model crashed")
}

func TestService_AskEmptyContext(t *testing.T) {
	inner := generate.GeneratorFunc(func(context.Context, string, string) (string, error) {
		t.Fatal("model must not be called without context")
		return "", nil
	})
	s := NewService(staticContext(""), generate.NewGuarded(inner, true))

	resp, err := s.Ask(context.Background(), "q")
	require.NoError(t, err)
	assert.Equal(t, generate.NoContextAnswer, resp.Answer)
}

func TestFormatSeconds(t *testing.T) {
	assert.Equal(t, "1.50s", formatSeconds(1500*time.Millisecond))
	assert.Equal(t, "0.00s", formatSeconds(0))
}

package generate

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyperjump/kotae/internal/config"
)

func TestMentionsQuestion(t *testing.T) {
	tests := []struct {
		answer, question string
		want             bool
	}{
		{"What is photosynthesis? It is a process.", "what is photosynthesis?", true},
		{"Photosynthesis converts light to energy.", "What is photosynthesis?", false},
		{"anything", "", false},
		{"anything", "   ", false},
		{"THE ANSWER IS 42", "answer is 42", true},
	}
	for _, tt := range tests {
		if got := MentionsQuestion(tt.answer, tt.question); got != tt.want {
			t.Errorf("MentionsQuestion(%q, %q) = %v, want %v", tt.answer, tt.question, got, tt.want)
		}
	}
}

func TestPostProcess(t *testing.T) {
	q := "what is rust"
	assert.Equal(t, EmptyAnswer, PostProcess("  \n ", q, true))
	assert.Equal(t, EchoedAnswer, PostProcess("You asked: What is Rust", q, true))
	assert.Equal(t, "You asked: What is Rust", PostProcess(" You asked: What is Rust ", q, false))
	assert.Equal(t, "A language.", PostProcess("A language.\n", q, true))
}

func TestBuildPrompt(t *testing.T) {
	p := BuildPrompt(strings.Repeat("é", 50), "Why?", 10)
	assert.Contains(t, p, "### Context Extracts:\n"+strings.Repeat("é", 10)+"\n\n### Question:\nWhy?\n")
	assert.True(t, strings.HasPrefix(p, "### Task:\n"))
	assert.True(t, strings.HasSuffix(p, "### Answer:"))

	full := BuildPrompt("short", "q", 0)
	assert.Contains(t, full, "### Context Extracts:\nshort\n")
}

func TestGuarded(t *testing.T) {
	ctx := context.Background()
	calls := 0
	inner := GeneratorFunc(func(_ context.Context, c, q string) (string, error) {
		calls++
		return " answer for " + q + " ", nil
	})
	g := NewGuarded(inner, true)

	got, err := g.Generate(ctx, "", "q")
	require.NoError(t, err)
	assert.Equal(t, NoContextAnswer, got)
	assert.Equal(t, 0, calls, "empty context must not reach the model")

	got, err = g.Generate(ctx, "From a.txt (relevance: 0.90):\ntext", "something")
	require.NoError(t, err)
	assert.Equal(t, EchoedAnswer, got)

	g = NewGuarded(inner, false)
	got, err = g.Generate(ctx, "ctx", "something")
	require.NoError(t, err)
	assert.Equal(t, "answer for something", got)

	failing := NewGuarded(GeneratorFunc(func(context.Context, string, string) (string, error) {
		return "", errors.New("down")
	}), true)
	_, err = failing.Generate(ctx, "ctx", "q")
	assert.EqualError(t, err, "down")
}

func TestExtractive(t *testing.T) {
	ctxText := "From a.txt (relevance: 0.80):\nfirst body\n\nFrom b.txt (relevance: 0.10):\nsecond"
	got, err := Extractive{}.Generate(context.Background(), ctxText, "q")
	require.NoError(t, err)
	assert.Equal(t, "first body\n\n(source: a.txt)", got)
}

func TestOpenAIGenerator_Generate(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/completions" {
			http.NotFound(w, r)
			return
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"c1","object":"text_completion","model":"phi-2","choices":[{"text":" Plants use light. ","index":0,"finish_reason":"stop"}]}`))
	}))
	defer srv.Close()

	g := NewOpenAIGenerator(OpenAIOptions{
		BaseURL:      srv.URL + "/v1",
		Model:        "phi-2.Q4_K_M.gguf",
		MaxTokens:    350,
		Temperature:  0.3,
		TopP:         0.9,
		ContextChars: 1800,

		FrequencyPenalty: 0.5,
	})
	answer, err := g.Generate(context.Background(), "From a.txt (relevance: 0.90):\nlight", "How do plants eat?")
	require.NoError(t, err)
	assert.Equal(t, " Plants use light. ", answer)

	assert.Equal(t, "phi-2.Q4_K_M.gguf", got["model"])
	assert.EqualValues(t, 350, got["max_tokens"])
	assert.EqualValues(t, 0.5, got["frequency_penalty"])
	assert.NotContains(t, got, "presence_penalty")
	assert.Equal(t, []any{"\n###", "Document:"}, got["stop"])
	assert.Contains(t, got["prompt"], "### Question:\nHow do plants eat?")
}

func TestOpenAIGenerator_NoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	g := NewOpenAIGenerator(OpenAIOptions{BaseURL: srv.URL + "/v1", Model: "m"})
	_, err := g.Generate(context.Background(), "c", "q")
	assert.ErrorIs(t, err, ErrNoChoices)
}

func TestOpenAIGenerator_HonorsContext(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	g := NewOpenAIGenerator(OpenAIOptions{BaseURL: srv.URL + "/v1", Model: "m"})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := g.Generate(ctx, "c", "q")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNew(t *testing.T) {
	g, err := New(config.GenerationConfig{Provider: "none"})
	require.NoError(t, err)
	got, err := g.Generate(context.Background(), "", "q")
	require.NoError(t, err)
	assert.Equal(t, NoContextAnswer, got)

	_, err = New(config.GenerationConfig{Provider: "gpt-in-a-box"})
	assert.Error(t, err)
}

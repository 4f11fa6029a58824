// Package rag answers questions by retrieving context from the search engine
// and passing it to a generator, all under one deadline.
package rag

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/kotae/internal/generate"
	"github.com/hyperjump/kotae/internal/metrics"
	"github.com/hyperjump/kotae/internal/models"
)

// ErrTimeout is returned when answering takes longer than the configured timeout.
var ErrTimeout = errors.New("processing timeout")

const defaultTimeout = 60 * time.Second

// Retriever returns the formatted context for a query. An empty string means
// nothing relevant was found.
type Retriever interface {
	SearchDocuments(ctx context.Context, query string, topK int) string
}

// Service answers questions.
type Service struct {
	retriever Retriever
	generator generate.Generator
	topK      int
	timeout   time.Duration
	logger    *zap.Logger
	metrics   *metrics.Metrics
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the service logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// WithMetrics records answer outcomes and stage durations.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithTimeout sets the deadline for retrieval plus generation.
func WithTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithTopK sets how many segments are retrieved per question; <= 0 leaves
// the choice to the retriever.
func WithTopK(k int) Option {
	return func(s *Service) { s.topK = k }
}

// NewService creates a Service.
func NewService(retriever Retriever, generator generate.Generator, opts ...Option) *Service {
	s := &Service{
		retriever: retriever,
		generator: generator,
		timeout:   defaultTimeout,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type generation struct {
	answer string
	err    error
}

// Ask retrieves context for question and generates an answer. If the whole
// operation outlives the timeout it returns ErrTimeout; cancellation of ctx
// by the caller is returned as ctx.Err().
func (s *Service) Ask(ctx context.Context, question string) (*models.AskResponse, error) {
	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	s.logger.Info("question received", zap.String("question", question))

	contextText := s.retriever.SearchDocuments(ctx, question, s.topK)
	searchTime := time.Since(start)
	s.logger.Debug("context search done",
		zap.Duration("elapsed", searchTime),
		zap.Int("context_chars", len(contextText)))
	if ctx.Err() != nil {
		s.logger.Warn("context search outlived the deadline", zap.Duration("timeout", s.timeout))
		s.metrics.ObserveAnswer("timeout", searchTime, 0)
		return nil, s.deadlineError(ctx)
	}

	genStart := time.Now()
	done := make(chan generation, 1)
	go func() {
		answer, err := s.generator.Generate(ctx, contextText, question)
		done <- generation{answer: answer, err: err}
	}()

	var res generation
	select {
	case res = <-done:
	case <-ctx.Done():
		res.err = ctx.Err()
	}
	genTime := time.Since(genStart)

	if res.err != nil && ctx.Err() != nil {
		err := s.deadlineError(ctx)
		if errors.Is(err, ErrTimeout) {
			s.logger.Warn("answer generation timed out", zap.Duration("timeout", s.timeout))
			s.metrics.ObserveAnswer("timeout", searchTime, genTime)
		}
		return nil, err
	}
	if res.err != nil {
		s.logger.Error("answer generation failed", zap.Error(res.err))
		s.metrics.ObserveAnswer("error", searchTime, genTime)
		return nil, fmt.Errorf("generate answer: %w", res.err)
	}

	total := time.Since(start)
	s.logger.Info("answer generated",
		zap.Duration("generation", genTime),
		zap.Duration("total", total))
	s.metrics.ObserveAnswer("success", searchTime, genTime)
	return &models.AskResponse{
		Status: "success",
		Answer: res.answer,
		Timings: models.Timings{
			ContextSearch:    formatSeconds(searchTime),
			AnswerGeneration: formatSeconds(genTime),
			Total:            formatSeconds(total),
		},
	}, nil
}

// deadlineError maps an expired context to ErrTimeout and a cancelled one to
// its own error.
func (s *Service) deadlineError(ctx context.Context) error {
	if err := ctx.Err(); !errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return ErrTimeout
}

func formatSeconds(d time.Duration) string {
	return fmt.Sprintf("%.2fs", d.Seconds())
}

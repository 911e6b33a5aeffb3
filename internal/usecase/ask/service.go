// Package ask answers natural-language questions from a project's ingested documents.
package ask

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/kailas-cloud/ragcore/internal/domain"
	"github.com/kailas-cloud/ragcore/internal/domain/answer"
	logpkg "github.com/kailas-cloud/ragcore/internal/logger"
	"github.com/kailas-cloud/ragcore/internal/metrics"
	"github.com/kailas-cloud/ragcore/internal/similarity"
)

// Fixed user-facing texts.
const (
	InsufficientContextMessage = "Insufficient context available in project documents to answer your question."
	ApologyMessage             = "I encountered an error while generating the response. Please try again."
)

// DefaultMaxQuestionLength caps questions in characters.
const DefaultMaxQuestionLength = 2000

// Request is a single ask call. TopK <= 0 uses the configured default.
type Request struct {
	ProjectID string
	Question  string
	TopK      int
}

// Service retrieves relevant chunks and generates a cited answer.
type Service struct {
	chunks      ChunkLoader
	embed       domain.Embedder
	ranker      Ranker
	gen         Generator
	threshold   float64
	topK        int
	maxTopK     int
	maxQuestion int
	counter     TokenCounter
	maxContext  int
	logger      *zap.Logger
}

// New creates an ask service with default retrieval settings.
func New(chunks ChunkLoader, embed domain.Embedder, ranker Ranker, gen Generator, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		chunks:      chunks,
		embed:       embed,
		ranker:      ranker,
		gen:         gen,
		threshold:   similarity.DefaultThreshold,
		topK:        similarity.DefaultTopK,
		maxTopK:     50,
		maxQuestion: DefaultMaxQuestionLength,
		logger:      logger,
	}
}

// WithRetrieval overrides the relevance threshold and top-k limits.
func (s *Service) WithRetrieval(threshold float64, topK, maxTopK int) *Service {
	if threshold >= -1 && threshold <= 1 {
		s.threshold = threshold
	}
	if topK > 0 {
		s.topK = topK
	}
	if maxTopK > 0 {
		s.maxTopK = maxTopK
	}
	if s.topK > s.maxTopK {
		s.topK = s.maxTopK
	}
	return s
}

// WithMaxQuestionLength overrides the question length cap.
func (s *Service) WithMaxQuestionLength(n int) *Service {
	if n > 0 {
		s.maxQuestion = n
	}
	return s
}

// WithContextBudget drops the lowest-ranked chunks until the rendered context
// fits in maxTokens as counted by counter.
func (s *Service) WithContextBudget(counter TokenCounter, maxTokens int) *Service {
	s.counter = counter
	s.maxContext = maxTokens
	return s
}

// Ask answers the question. Insufficient context and generation failures are
// reported through Answer.Outcome, not as errors.
func (s *Service) Ask(ctx context.Context, req Request) (answer.Answer, error) {
	question := strings.TrimSpace(req.Question)
	if err := s.validate(req.ProjectID, question); err != nil {
		return answer.Answer{}, err
	}
	start := time.Now()
	logger := logpkg.FromContext(ctx, s.logger).With(zap.String("project_id", req.ProjectID))

	candidates, err := s.chunks.LoadCompleted(ctx, req.ProjectID)
	if err != nil {
		return answer.Answer{}, fmt.Errorf("load chunks: %w", err)
	}
	if len(candidates) == 0 {
		logger.Info("no completed documents in project")
		return s.insufficient(), nil
	}

	res, err := s.embed.Embed(ctx, question)
	if err != nil {
		if !errors.Is(err, domain.ErrEmbeddingProviderError) && !errors.Is(err, domain.ErrRateLimited) {
			err = fmt.Errorf("%w: %w", domain.ErrEmbeddingProviderError, err)
		}
		return answer.Answer{}, fmt.Errorf("embed question: %w", err)
	}

	ranked, err := s.ranker.Rank(ctx, res.Embedding, candidates, similarity.Options{
		Threshold: s.threshold,
		TopK:      s.effectiveTopK(req.TopK),
	})
	if err != nil {
		return answer.Answer{}, fmt.Errorf("rank chunks: %w", err)
	}
	metrics.AskRankedChunks.Observe(float64(len(ranked)))
	if len(ranked) == 0 {
		logger.Info("no chunk above relevance threshold",
			zap.Int("candidates", len(candidates)),
			zap.Float64("threshold", s.threshold),
		)
		return s.insufficient(), nil
	}

	if fitted := FitContext(ranked, s.counter, s.maxContext); len(fitted) < len(ranked) {
		logger.Info("context trimmed to token budget",
			zap.Int("ranked", len(ranked)),
			zap.Int("kept", len(fitted)),
			zap.Int("max_tokens", s.maxContext),
		)
		ranked = fitted
	}

	completion, err := s.gen.Generate(ctx, question, BuildContext(ranked))
	if err != nil {
		logger.Error("answer generation failed", zap.Error(err))
		metrics.AskOutcomesTotal.WithLabelValues(string(answer.GenerationFailed)).Inc()
		return answer.Answer{
			Text:      ApologyMessage,
			Citations: []answer.Citation{},
			Outcome:   answer.GenerationFailed,
		}, nil
	}

	out := answer.Answer{
		Text:       completion.Text,
		Citations:  FormatCitations(ranked),
		Confidence: Confidence(ranked),
		Outcome:    answer.Answered,
	}
	metrics.AskOutcomesTotal.WithLabelValues(string(answer.Answered)).Inc()
	logger.Info("question answered",
		zap.Int("candidates", len(candidates)),
		zap.Int("citations", len(out.Citations)),
		zap.Float64("confidence", out.Confidence),
		zap.Duration("duration", time.Since(start)),
	)
	return out, nil
}

func (s *Service) validate(projectID, question string) error {
	if projectID == "" {
		return fmt.Errorf("project ID is required: %w", domain.ErrInvalidRequest)
	}
	if question == "" {
		return fmt.Errorf("question is required: %w", domain.ErrInvalidRequest)
	}
	if n := utf8.RuneCountInString(question); n > s.maxQuestion {
		return fmt.Errorf("question has %d characters, max %d: %w", n, s.maxQuestion, domain.ErrInvalidRequest)
	}
	return nil
}

func (s *Service) effectiveTopK(requested int) int {
	if requested <= 0 {
		return s.topK
	}
	return min(requested, s.maxTopK)
}

func (s *Service) insufficient() answer.Answer {
	metrics.AskOutcomesTotal.WithLabelValues(string(answer.InsufficientContext)).Inc()
	return answer.Insufficient(InsufficientContextMessage)
}

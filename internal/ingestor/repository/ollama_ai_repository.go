package repository

import (
	"context"
	"fmt"
	"time"

	"roundtable-ingestor/internal/ingestor/dto"
	"roundtable-ingestor/pkg/logger"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
)

const policySummaryMaxTokens = 800

// NewOllamaModel connects to an Ollama server asking for JSON output.
func NewOllamaModel(serverURL, model string) (llms.Model, error) {
	llm, err := ollama.New(
		ollama.WithModel(model),
		ollama.WithServerURL(serverURL),
		ollama.WithFormat("json"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize ollama model: %w", err)
	}
	return llm, nil
}

// ollamaAIRepository is an implementation of AIRepository backed by any langchaingo model.
type ollamaAIRepository struct {
	llm     llms.Model
	logger  *logger.Logger
	timeout time.Duration
}

// NewOllamaAIRepository creates a new instance of ollamaAIRepository.
func NewOllamaAIRepository(llm llms.Model, log *logger.Logger, timeout time.Duration) AIRepository {
	return &ollamaAIRepository{llm: llm, logger: log, timeout: timeout}
}

func (r *ollamaAIRepository) SummarizePolicy(ctx context.Context, input dto.SummaryInput) (*dto.PolicySummary, error) {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	content := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeHuman, BuildPolicySummaryPrompt(input)),
	}
	resp, err := r.llm.GenerateContent(ctx, content, llms.WithMaxTokens(policySummaryMaxTokens))
	if err != nil {
		r.logger.Error("Failed to generate policy summary", logger.ErrorField(err), logger.StringField("url", input.SourceURL))
		return nil, fmt.Errorf("failed to generate policy summary: %w", err)
	}
	if resp == nil || len(resp.Choices) == 0 || resp.Choices[0] == nil {
		return nil, fmt.Errorf("invalid response from ollama: no choices")
	}

	return ParsePolicySummary(resp.Choices[0].Content)
}

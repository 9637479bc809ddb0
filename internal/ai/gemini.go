package ai

import (
	"context"
	"errors"
	"fmt"
	"time"

	"kointos-backend/pkg/config"
	"kointos-backend/pkg/logger"
	"kointos-backend/pkg/ratelimit"

	"golang.org/x/time/rate"
	"google.golang.org/genai"
)

// ContentGenerator is the part of the genai client the Gemini invoker uses.
type ContentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// GeminiInvoker calls the Gemini API through google.golang.org/genai.
type GeminiInvoker struct {
	models         ContentGenerator
	model          string
	requestLimiter *rate.Limiter
	tokenLimiter   *ratelimit.TokenLimiter
	logger         *logger.Logger
}

// NewGeminiClient creates the genai client for cfg.
func NewGeminiClient(ctx context.Context, cfg config.Gemini) (*genai.Client, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("gemini api key is required")
	}
	return genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
}

// NewGeminiInvoker creates an invoker limited to cfg.MaxRequestPerMinute requests.
func NewGeminiInvoker(models ContentGenerator, cfg config.Gemini, log *logger.Logger) *GeminiInvoker {
	limit := rate.Inf
	if cfg.MaxRequestPerMinute > 0 {
		limit = rate.Every(time.Minute / time.Duration(cfg.MaxRequestPerMinute))
	}
	return &GeminiInvoker{
		models:         models,
		model:          cfg.Model,
		requestLimiter: rate.NewLimiter(limit, 1),
		tokenLimiter:   ratelimit.NewTokenLimiter(cfg.MaxTokenPerMinute),
		logger:         log,
	}
}

// Invoke sends the prompt as a single user turn.
func (g *GeminiInvoker) Invoke(ctx context.Context, req Request) (*Response, error) {
	if err := g.requestLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("failed to wait for request limit: %w", err)
	}
	if err := g.tokenLimiter.Wait(ctx, req.MaxTokens); err != nil {
		return nil, fmt.Errorf("failed to wait for token limit: %w", err)
	}

	contents := []*genai.Content{genai.NewContentFromText(req.Prompt, genai.RoleUser)}
	cfg := &genai.GenerateContentConfig{
		MaxOutputTokens: int32(req.MaxTokens),
		Temperature:     req.Temperature,
	}

	resp, err := g.models.GenerateContent(ctx, g.model, contents, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to generate content: %w", err)
	}

	text := resp.Text()
	if text == "" {
		return nil, errors.New("no content in Gemini response")
	}

	out := &Response{Response: text}
	if resp.UsageMetadata != nil {
		out.Usage.InputTokens = int(resp.UsageMetadata.PromptTokenCount)
		out.Usage.OutputTokens = int(resp.UsageMetadata.CandidatesTokenCount)
	}
	g.logger.Debug("Gemini response received",
		logger.StringField("model", g.model),
		logger.IntField("remaining_tokens", g.tokenLimiter.GetRemaining()),
	)
	return out, nil
}

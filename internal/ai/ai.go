// Package ai runs prompts against a text generation model.
package ai

import (
	"context"
	"errors"
	"fmt"
	"time"

	"kointos-backend/pkg/config"
	"kointos-backend/pkg/logger"
)

// ErrPromptRequired is returned for an empty prompt.
var ErrPromptRequired = errors.New("prompt is required")

const (
	DefaultMaxTokens   = 500
	DefaultTemperature = float32(0.7)
	defaultTimeout     = 300 * time.Second
)

// Request is one prompt invocation. A nil Temperature takes the default.
type Request struct {
	Prompt      string
	MaxTokens   int
	Temperature *float32
}

// Usage reports token consumption.
type Usage struct {
	InputTokens  int
	OutputTokens int
}

// Response is the model output for a Request.
type Response struct {
	Response string
	Usage    Usage
}

// Invoker is a text generation backend. Requests reaching an Invoker carry a non-empty
// prompt and resolved defaults.
type Invoker interface {
	Invoke(ctx context.Context, req Request) (*Response, error)
}

// Service validates requests, applies defaults and delegates to an Invoker.
type Service struct {
	invoker     Invoker
	maxTokens   int
	temperature float32
	timeout     time.Duration
	logger      *logger.Logger
}

// NewService creates a Service. Zero values in cfg take the package defaults.
func NewService(invoker Invoker, cfg config.AI, log *logger.Logger) (*Service, error) {
	s := &Service{
		invoker:     invoker,
		maxTokens:   DefaultMaxTokens,
		temperature: DefaultTemperature,
		timeout:     defaultTimeout,
		logger:      log,
	}
	if cfg.DefaultMaxTokens > 0 {
		s.maxTokens = cfg.DefaultMaxTokens
	}
	if cfg.DefaultTemperature > 0 {
		s.temperature = cfg.DefaultTemperature
	}
	if cfg.Timeout != "" {
		d, err := time.ParseDuration(cfg.Timeout)
		if err != nil {
			return nil, fmt.Errorf("invalid ai timeout: %w", err)
		}
		s.timeout = d
	}
	return s, nil
}

// Invoke runs req. Failures of the backend are wrapped as "ai service error".
func (s *Service) Invoke(ctx context.Context, req Request) (*Response, error) {
	if req.Prompt == "" {
		return nil, ErrPromptRequired
	}
	if req.MaxTokens <= 0 {
		req.MaxTokens = s.maxTokens
	}
	if req.Temperature == nil {
		t := s.temperature
		req.Temperature = &t
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	resp, err := s.invoker.Invoke(ctx, req)
	if err != nil {
		s.logger.Error("AI invocation failed", logger.ErrorField(err), logger.IntField("max_tokens", req.MaxTokens))
		return nil, fmt.Errorf("ai service error: %w", err)
	}

	s.logger.Debug("AI invocation completed",
		logger.IntField("input_tokens", resp.Usage.InputTokens),
		logger.IntField("output_tokens", resp.Usage.OutputTokens),
	)
	return resp, nil
}

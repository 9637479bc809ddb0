package ai

import (
	"context"
	"fmt"

	"kointos-backend/pkg/config"
	"kointos-backend/pkg/logger"
)

const (
	ProviderCanned = "canned"
	ProviderGemini = "gemini"
)

// NewInvoker builds the invoker named by cfg.Provider. An empty provider is canned.
func NewInvoker(ctx context.Context, cfg config.AI, gemini config.Gemini, log *logger.Logger) (Invoker, error) {
	switch cfg.Provider {
	case "", ProviderCanned:
		return NewCannedInvoker(), nil
	case ProviderGemini:
		client, err := NewGeminiClient(ctx, gemini)
		if err != nil {
			return nil, fmt.Errorf("failed to create gemini client: %w", err)
		}
		return NewGeminiInvoker(client.Models, gemini, log), nil
	default:
		return nil, fmt.Errorf("unknown ai provider %q", cfg.Provider)
	}
}

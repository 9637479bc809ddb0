package http

import (
	"net/http"

	"kointos-backend/internal/ai"
	"kointos-backend/internal/api/dto"
	"kointos-backend/pkg/logger"

	"github.com/labstack/echo/v4"
)

// AIHandler exposes the AI invocation function.
type AIHandler struct {
	aiService *ai.Service
	logger    *logger.Logger
}

// NewAIHandler creates a new AIHandler.
func NewAIHandler(aiService *ai.Service, logger *logger.Logger) *AIHandler {
	return &AIHandler{aiService: aiService, logger: logger}
}

// RegisterRoutes registers the AI routes to the Echo group.
func (h *AIHandler) RegisterRoutes(g *echo.Group) {
	g.POST("/invoke", h.Invoke)
}

// Invoke godoc
// @Summary Run a prompt
// @Description maxTokens defaults to 500 and temperature to 0.7.
// @Tags ai
// @Accept  json
// @Produce  json
// @Param   request  body    dto.InvokeAIRequest  true  "Prompt"
// @Success 200 {object} dto.InvokeAIResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 401 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /ai/invoke [post]
func (h *AIHandler) Invoke(c echo.Context) error {
	var req dto.InvokeAIRequest
	if err := decodeJSON(c.Request().Body, &req); err != nil {
		return respondError(c, h.logger, err)
	}

	resp, err := h.aiService.Invoke(c.Request().Context(), ai.Request{
		Prompt:      req.Prompt,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	})
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return c.JSON(http.StatusOK, dto.InvokeAIResponse{
		Response: resp.Response,
		Usage: dto.UsageDTO{
			InputTokens:  resp.Usage.InputTokens,
			OutputTokens: resp.Usage.OutputTokens,
		},
	})
}

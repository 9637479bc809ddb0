package dto

// InvokeAIRequest is the body of an AI invocation.
type InvokeAIRequest struct {
	Prompt      string   `json:"prompt"`
	MaxTokens   int      `json:"maxTokens,omitempty"`
	Temperature *float32 `json:"temperature,omitempty"`
}

// UsageDTO reports token consumption.
type UsageDTO struct {
	InputTokens  int `json:"inputTokens"`
	OutputTokens int `json:"outputTokens"`
}

// InvokeAIResponse is the result of an AI invocation.
type InvokeAIResponse struct {
	Response string   `json:"response"`
	Usage    UsageDTO `json:"usage"`
}

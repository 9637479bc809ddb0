package ai

import (
	"context"
	"unicode/utf16"
)

const cannedOutputTokens = 150

// CannedInvoker answers every prompt with a fixed analysis template without calling a model.
type CannedInvoker struct{}

func NewCannedInvoker() *CannedInvoker {
	return &CannedInvoker{}
}

// Invoke echoes the prompt into the template. Input tokens are the prompt length in UTF-16
// code units.
func (CannedInvoker) Invoke(ctx context.Context, req Request) (*Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &Response{
		Response: "AI Analysis for: " + req.Prompt + "\n\n" +
			"Sentiment: Neutral\n" +
			"Technical Analysis: Market data shows normal trading patterns.\n" +
			"Note: Full model integration pending configuration.",
		Usage: Usage{
			InputTokens:  len(utf16.Encode([]rune(req.Prompt))),
			OutputTokens: cannedOutputTokens,
		},
	}, nil
}

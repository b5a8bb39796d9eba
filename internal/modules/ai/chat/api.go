package chat

import (
	"context"
	"fmt"

	"github.com/reusedev/batch-hub/internal/consts"
	"github.com/reusedev/batch-hub/internal/modules/ai"
)

const enhanceModel = "gpt-4o-mini"

const enhanceSystemPrompt = "You rewrite short ideas into rich prompts for image and video generation. " +
	"Keep the subject, add concrete style, lighting and composition details. " +
	"Answer with the rewritten prompt only."

// EnhancePrompt rewrites a terse user idea into a generation-ready
// prompt, reusing the image fallback chain's first token.
func EnhancePrompt(ctx context.Context, idea string) (string, error) {
	manager := ai.Manager(consts.ClassImage)
	if manager == nil {
		return "", fmt.Errorf("request order not configured")
	}
	token := manager.GetTokenIterator()()
	if token == nil {
		return "", fmt.Errorf("no supplier available")
	}
	request := &CommonRequest{
		Model: enhanceModel,
		Messages: []Message{
			{Role: "system", Content: enhanceSystemPrompt},
			{Role: "user", Content: idea},
		},
	}
	requester := NewRequester(ctx, token.Token, request, &CommonParser{})
	response, err := requester.Do()
	if err != nil {
		return "", err
	}
	if !response.Succeed() {
		return "", fmt.Errorf("chat request failed: %s", response.RawBody())
	}
	return response.Content()
}

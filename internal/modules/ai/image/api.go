package image

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/reusedev/batch-hub/internal/consts"
	"github.com/reusedev/batch-hub/internal/modules/ai"
	"github.com/reusedev/batch-hub/internal/modules/logs"
)

type EditRequest struct {
	ImageURLs  []string `json:"image_urls"`
	ImageBytes [][]byte `json:"image_bytes"`
	Prompt     string   `json:"prompt"`
	Quality    string   `json:"quality"`
	Size       string   `json:"size"`
	TaskKey    string   `json:"task_key"`
}

// Edit walks the image fallback chain until one supplier delivers. All
// attempted responses come back, last one decides the outcome.
func Edit(ctx context.Context, request EditRequest) []Response {
	ret := make([]Response, 0, 1)
	manager := ai.Manager(consts.ClassImage)
	if manager == nil {
		return ret
	}
	getToken := manager.GetTokenIterator()
	for {
		token := getToken()
		if token == nil {
			break
		}
		logs.Logger.Info().Str("task_key", request.TaskKey).Str("supplier", token.Supplier.String()).
			Str("token_desc", token.Desc).Str("model", token.Model).Msg("Attempting image edit request")
		response, err := edit(ctx, request, token)
		if err != nil {
			logs.Logger.Error().Err(err).Str("task_key", request.TaskKey).
				Str("supplier", token.Supplier.String()).Str("model", token.Model).
				Msg("Image edit request failed")
			continue
		}
		ret = append(ret, response)
		if response.Succeed() {
			break
		}
		// A content-policy refusal repeats on every channel, stop here.
		if response.GetError() != nil && errors.Is(response.GetError(), PromptError) {
			break
		}
		if ShouldBanToken(response) {
			manager.Ban(token.Supplier, time.Now().Add(10*time.Minute))
		}
	}
	return ret
}

func edit(ctx context.Context, request EditRequest, token *ai.TokenWithModel) (Response, error) {
	switch consts.Model(token.Model) {
	case consts.GPTImage1:
		content := &Image1Request{
			ImageBytes: request.ImageBytes,
			Prompt:     request.Prompt,
			Quality:    request.Quality,
			Size:       request.Size,
		}
		requester := NewRequester(ctx, token.Token, content, NewImage1Parser())
		requester.SetTaskKey(request.TaskKey)
		return requester.Do(), nil
	case consts.FlashImage:
		content := &FlashImageRequest{
			Model:      token.Model,
			ImageURLs:  request.ImageURLs,
			ImageBytes: request.ImageBytes,
			Prompt:     request.Prompt,
		}
		requester := NewRequester(ctx, token.Token, content, NewFlashImageParser())
		requester.SetTaskKey(request.TaskKey)
		return requester.Do(), nil
	}
	return nil, fmt.Errorf("not support model: %s", token.Model)
}

func NewImage1Parser() *GenericParser {
	return NewGenericParser(&OpenAIURLStrategy{}, &OpenAIB64Strategy{})
}

func NewFlashImageParser() *GenericParser {
	return NewGenericParser(&MarkdownURLStrategy{}, &GenericB64Strategy{})
}

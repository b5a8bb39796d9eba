package image

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/reusedev/batch-hub/internal/consts"
	"github.com/reusedev/batch-hub/internal/modules/logs"
)

type Parser[T any] interface {
	Parse(resp *http.Response, response T) error
}

type GenericParser struct {
	urlStrategy URLParseStrategy
	b64Strategy B64ParseStrategy
}

func NewGenericParser(urlStrategy URLParseStrategy, b64Strategy B64ParseStrategy) *GenericParser {
	return &GenericParser{
		urlStrategy: urlStrategy,
		b64Strategy: b64Strategy,
	}
}

func (g *GenericParser) Parse(resp *http.Response, response Response) error {
	if resp.StatusCode != http.StatusOK {
		// Read body with a timeout, some channels hold the connection
		// open for minutes on error responses.
		ctx, cancel := context.WithTimeout(context.Background(), time.Second*90)
		defer cancel()
		type result struct {
			data []byte
			err  error
		}
		resultCh := make(chan result, 1)
		go func() {
			data, err := io.ReadAll(resp.Body)
			resultCh <- result{data: data, err: err}
		}()
		var respBody []byte
		select {
		case res := <-resultCh:
			if res.err != nil {
				return res.err
			}
			respBody = res.data
		case <-ctx.Done():
		}
		response.SetBasicResponse(resp.StatusCode, string(respBody))
		if detectedErr := DetectError(response, string(respBody)); detectedErr != nil {
			response.SetError(detectedErr)
		}
		return nil
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	response.SetBasicResponse(resp.StatusCode, string(body))
	urls, err := g.urlStrategy.ExtractURLs(body)
	if err != nil {
		logs.Logger.Err(err).Str("task_key", response.GetTaskKey()).
			Msg("Extract urls error")
	}
	response.SetURLs(urls)
	if g.b64Strategy != nil {
		b64s, err := g.b64Strategy.ExtractB64s(body)
		if err != nil {
			logs.Logger.Err(err).Str("task_key", response.GetTaskKey()).
				Msg("Extract b64s error")
		}
		response.SetB64s(b64s)
	}
	if !response.Succeed() {
		logs.Logger.Warn().
			Str("task_key", response.GetTaskKey()).
			Str("supplier", response.GetSupplier()).
			Str("token_desc", response.GetTokenDesc()).
			Str("model", response.GetModel()).
			Int("status_code", resp.StatusCode).
			Int64("req_consume_ms", response.ReqConsumeMs()).
			Str("body", string(body)).
			Msg("image resp error")
		if detectedErr := DetectError(response, string(body)); detectedErr != nil {
			response.SetError(detectedErr)
		}
	}
	return nil
}

var (
	PromptError     = errors.New("prompt rejected by content policy")
	NoImageError    = errors.New("no image extracted from response")
	StatusCodeError = errors.New("non-200 status code")
)

// errorMap holds the literal refusal phrases each supplier channel
// returns for a given model.
var (
	errorMap = map[string]map[string]error{
		consts.Geek.String() + consts.GPTImage1.String(): {
			"Your request may contain content that is not allowed by our safety system. Please try change the prompt and image.": PromptError,
		},
		consts.V3.String() + consts.GPTImage1.String(): {
			"输入的提示词或视频的输出内容违反了OpenAI的相关服务政策，请调整提示词后进行重试": PromptError,
		},
		consts.Tuzi.String() + consts.FlashImage.String(): {
			"图片检测系统认为内容可能违反相关政策": PromptError,
		},
		consts.Geek.String() + consts.FlashImage.String(): {
			"IMAGE_SAFETY": PromptError,
		},
	}
)

// DetectError classifies a failed response. PromptError means the
// supplier refused the request content, anything else is an upstream
// delivery problem.
func DetectError(response Response, body string) error {
	if response.Succeed() {
		return nil
	}
	if errs, ok := errorMap[response.GetSupplier()+response.GetModel()]; ok {
		for key, err := range errs {
			if strings.Contains(body, key) {
				return err
			}
		}
	}
	if response.GetStatusCode() != http.StatusOK {
		return StatusCodeError
	}
	if len(response.GetURLs()) == 0 && len(response.GetB64s()) == 0 {
		return NoImageError
	}
	return nil
}

func ShouldBanToken(response Response) bool {
	c := response.GetStatusCode()
	if c >= 500 && c < 600 {
		return true
	}
	return false
}

package chat

import (
	"fmt"
	"io"
	"net/http"
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/reusedev/batch-hub/internal/modules/logs"
)

type Response interface {
	RawBody() string
	Succeed() bool
	Content() (string, error)
}

type Parser interface {
	Parse(resp *http.Response, response Response) error
}

type CommonResponse struct {
	Supplier   string        `json:"supplier"`
	TokenDesc  string        `json:"token_desc"`
	Model      string        `json:"model"`
	Duration   time.Duration `json:"duration"`
	Body       string        `json:"body"`
	StatusCode int           `json:"status_code"`
}

func (c *CommonResponse) RawBody() string {
	return c.Body
}

func (c *CommonResponse) Succeed() bool {
	return c.StatusCode == http.StatusOK
}

// Content returns the assistant message of the first choice.
func (c *CommonResponse) Content() (string, error) {
	var s struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := jsoniter.Unmarshal([]byte(c.Body), &s); err != nil {
		return "", err
	}
	if len(s.Choices) == 0 {
		return "", fmt.Errorf("no choices in chat response")
	}
	return s.Choices[0].Message.Content, nil
}

type CommonParser struct{}

func (c *CommonParser) Parse(resp *http.Response, response Response) error {
	realResp := response.(*CommonResponse)
	realResp.StatusCode = resp.StatusCode
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		logs.Logger.Warn().Str("supplier", realResp.Supplier).
			Str("token_desc", realResp.TokenDesc).
			Int("status_code", resp.StatusCode).
			Dur("duration", realResp.Duration).
			Str("body", string(body)).
			Msg("chat request failed")
	}
	realResp.Body = string(body)
	return nil
}

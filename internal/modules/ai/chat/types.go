package chat

import (
	"bytes"
	"io"

	jsoniter "github.com/json-iterator/go"
)

type RequestContent interface {
	Body() (io.Reader, error)
	ContentType() string
	Path() string
	InitResponse(supplier string, tokenDesc string) Response
}

type CommonRequest struct {
	Model    string    `json:"model"`
	Messages []Message `json:"messages"`
}

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

func (c *CommonRequest) Body() (io.Reader, error) {
	b, err := jsoniter.Marshal(c)
	if err != nil {
		return nil, err
	}
	return bytes.NewBuffer(b), nil
}

func (c *CommonRequest) ContentType() string {
	return "application/json"
}

func (c *CommonRequest) Path() string {
	return "v1/chat/completions"
}

func (c *CommonRequest) InitResponse(supplier string, tokenDesc string) Response {
	return &CommonResponse{
		Supplier:  supplier,
		TokenDesc: tokenDesc,
		Model:     c.Model,
	}
}

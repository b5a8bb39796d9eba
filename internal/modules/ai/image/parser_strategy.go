package image

import (
	"regexp"
	"strings"

	jsoniter "github.com/json-iterator/go"
)

type URLParseStrategy interface {
	ExtractURLs(body []byte) ([]string, error)
}

type B64ParseStrategy interface {
	ExtractB64s(body []byte) ([]string, error)
}

// MarkdownURLStrategy extracts image links from chat-completion answers
// whose content embeds them as markdown.
type MarkdownURLStrategy struct{}

func (m *MarkdownURLStrategy) ExtractURLs(body []byte) ([]string, error) {
	var urls []string
	var content string

	var chatResp struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := jsoniter.Unmarshal(body, &chatResp); err == nil && len(chatResp.Choices) > 0 {
		content = chatResp.Choices[0].Message.Content
	} else {
		content = string(body)
	}

	markdownReg := `!\[.*?\]\((https?://[^)]+)\)`
	pattern, _ := regexp.Compile(markdownReg)
	matches := pattern.FindAllStringSubmatch(content, -1)
	for _, match := range matches {
		if len(match) >= 2 {
			url := match[1]
			url = strings.ReplaceAll(url, "\\u0026", "&")
			urls = append(urls, url)
		}
	}

	// Some channels answer with a bare link instead of markdown.
	if len(urls) == 0 {
		reg := `(https?[^)\s]+)`
		pattern, _ = regexp.Compile(reg)
		matches = pattern.FindAllStringSubmatch(content, -1)
		for _, match := range matches {
			if len(match) >= 2 {
				url := match[1]
				url = strings.ReplaceAll(url, "\\u0026", "&")
				urls = append(urls, url)
			}
		}
	}

	return urls, nil
}

// OpenAIURLStrategy reads the images-API data array.
type OpenAIURLStrategy struct{}

func (o *OpenAIURLStrategy) ExtractURLs(body []byte) ([]string, error) {
	var urls []string
	var s struct {
		Data []struct {
			URL           string `json:"url,omitempty"`
			B64JSON       string `json:"b64_json,omitempty"`
			RevisedPrompt string `json:"revised_prompt,omitempty"`
		} `json:"data"`
	}
	err := jsoniter.Unmarshal(body, &s)
	if err != nil {
		return nil, err
	}
	for _, v := range s.Data {
		if v.URL != "" {
			urls = append(urls, v.URL)
		}
	}
	return urls, nil
}

// OpenAIB64Strategy reads base64 payloads from the images-API data array.
type OpenAIB64Strategy struct{}

func (o *OpenAIB64Strategy) ExtractB64s(body []byte) ([]string, error) {
	var b64s []string
	var s struct {
		Data []struct {
			B64JSON string `json:"b64_json,omitempty"`
		} `json:"data"`
	}
	err := jsoniter.Unmarshal(body, &s)
	if err != nil {
		return nil, err
	}
	for _, v := range s.Data {
		if v.B64JSON != "" {
			b64s = append(b64s, v.B64JSON)
		}
	}
	return b64s, nil
}

// GenericB64Strategy picks up a data-URI base64 payload anywhere in the
// body. A miss is not an error, URL-only responses are common.
type GenericB64Strategy struct{}

func (m *GenericB64Strategy) ExtractB64s(body []byte) ([]string, error) {
	input := string(body)
	prefix := "base64,"
	index := strings.Index(input, prefix)
	if index == -1 {
		return nil, nil
	}
	var b64 string
	if strings.HasSuffix(input, ")") {
		b64 = input[index+len(prefix) : len(input)-1]
	} else {
		b64 = input[index+len(prefix):]
	}
	return []string{b64}, nil
}

package image

import (
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/reusedev/batch-hub/internal/consts"
)

func TestMarkdownURLStrategy(t *testing.T) {
	tests := []struct {
		name string
		body string
		want []string
	}{
		{
			name: "chat completion with markdown",
			body: `{"choices":[{"message":{"content":"Here you go ![result](https://cdn.example.com/a.png)"}}]}`,
			want: []string{"https://cdn.example.com/a.png"},
		},
		{
			name: "raw markdown content",
			body: `![image](https://cdn.example.com/b.png)`,
			want: []string{"https://cdn.example.com/b.png"},
		},
		{
			name: "escaped ampersand",
			body: `![image](https://cdn.example.com/c.png?a=1&b=2)`,
			want: []string{"https://cdn.example.com/c.png?a=1&b=2"},
		},
		{
			name: "bare link fallback",
			body: `{"choices":[{"message":{"content":"done: https://cdn.example.com/d.png"}}]}`,
			want: []string{"https://cdn.example.com/d.png"},
		},
		{
			name: "no link",
			body: `{"choices":[{"message":{"content":"sorry, cannot help"}}]}`,
			want: nil,
		},
	}
	s := &MarkdownURLStrategy{}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.ExtractURLs([]byte(tt.body))
			if err != nil {
				t.Fatalf("ExtractURLs() error = %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("ExtractURLs() = %v, want %v", got, tt.want)
			}
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Errorf("url[%d] = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestOpenAIURLStrategy(t *testing.T) {
	body := `{"data":[{"url":"https://cdn.example.com/a.png"},{"url":"https://cdn.example.com/b.png"},{"b64_json":"aGVsbG8="}]}`
	s := &OpenAIURLStrategy{}
	got, err := s.ExtractURLs([]byte(body))
	if err != nil {
		t.Fatalf("ExtractURLs() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("ExtractURLs() = %v, want 2 urls", got)
	}
}

func TestOpenAIB64Strategy(t *testing.T) {
	body := `{"data":[{"b64_json":"aGVsbG8="}]}`
	s := &OpenAIB64Strategy{}
	got, err := s.ExtractB64s([]byte(body))
	if err != nil {
		t.Fatalf("ExtractB64s() error = %v", err)
	}
	if len(got) != 1 || got[0] != "aGVsbG8=" {
		t.Errorf("ExtractB64s() = %v", got)
	}
}

func TestGenericB64StrategyMissIsNil(t *testing.T) {
	s := &GenericB64Strategy{}
	got, err := s.ExtractB64s([]byte(`{"data":[{"url":"https://cdn.example.com/a.png"}]}`))
	if err != nil {
		t.Fatalf("ExtractB64s() error = %v", err)
	}
	if got != nil {
		t.Errorf("ExtractB64s() = %v, want nil on miss", got)
	}
}

func newTestResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

func TestGenericParserSuccess(t *testing.T) {
	parser := NewFlashImageParser()
	ret := &BaseResponse{Supplier: consts.Tuzi.String(), Model: consts.FlashImage.String()}
	resp := newTestResponse(http.StatusOK, `{"choices":[{"message":{"content":"![x](https://cdn.example.com/out.png)"}}]}`)
	if err := parser.Parse(resp, ret); err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if !ret.Succeed() {
		t.Fatal("response should succeed")
	}
	if ret.GetURLs()[0] != "https://cdn.example.com/out.png" {
		t.Errorf("url = %q", ret.GetURLs()[0])
	}
	if ret.GetError() != nil {
		t.Errorf("error = %v, want nil", ret.GetError())
	}
}

func TestGenericParserRefusalIsPromptError(t *testing.T) {
	parser := NewFlashImageParser()
	ret := &BaseResponse{Supplier: consts.Tuzi.String(), Model: consts.FlashImage.String()}
	resp := newTestResponse(http.StatusOK, `{"choices":[{"message":{"content":"图片检测系统认为内容可能违反相关政策"}}]}`)
	if err := parser.Parse(resp, ret); err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if ret.Succeed() {
		t.Fatal("refusal should not succeed")
	}
	if !errors.Is(ret.GetError(), PromptError) {
		t.Errorf("error = %v, want PromptError", ret.GetError())
	}
}

func TestGenericParserUpstreamFailure(t *testing.T) {
	parser := NewImage1Parser()
	ret := &BaseResponse{Supplier: consts.Geek.String(), Model: consts.GPTImage1.String()}
	resp := newTestResponse(http.StatusBadGateway, `{"error":"upstream unavailable"}`)
	if err := parser.Parse(resp, ret); err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if !errors.Is(ret.GetError(), StatusCodeError) {
		t.Errorf("error = %v, want StatusCodeError", ret.GetError())
	}
}

func TestDetectError(t *testing.T) {
	tests := []struct {
		name     string
		response *BaseResponse
		body     string
		want     error
	}{
		{
			name:     "geek safety refusal",
			response: &BaseResponse{Supplier: consts.Geek.String(), Model: consts.GPTImage1.String(), StatusCode: http.StatusOK},
			body:     `{"error":{"message":"Your request may contain content that is not allowed by our safety system. Please try change the prompt and image."}}`,
			want:     PromptError,
		},
		{
			name:     "server error",
			response: &BaseResponse{Supplier: consts.Geek.String(), Model: consts.GPTImage1.String(), StatusCode: http.StatusInternalServerError},
			body:     `oops`,
			want:     StatusCodeError,
		},
		{
			name:     "empty success body",
			response: &BaseResponse{Supplier: consts.Geek.String(), Model: consts.GPTImage1.String(), StatusCode: http.StatusOK},
			body:     `{"data":[]}`,
			want:     NoImageError,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DetectError(tt.response, tt.body)
			if !errors.Is(got, tt.want) {
				t.Errorf("DetectError() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestShouldBanToken(t *testing.T) {
	if !ShouldBanToken(&BaseResponse{StatusCode: 503}) {
		t.Error("503 should ban")
	}
	if ShouldBanToken(&BaseResponse{StatusCode: 429}) {
		t.Error("429 should not ban")
	}
	if ShouldBanToken(&BaseResponse{StatusCode: 200}) {
		t.Error("200 should not ban")
	}
}

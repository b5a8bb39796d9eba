package chat

import (
	"context"
	"net/http"
	"time"

	"github.com/reusedev/batch-hub/internal/modules/ai"
	"github.com/reusedev/batch-hub/internal/modules/http_client"
	"github.com/reusedev/batch-hub/internal/modules/logs"
	"github.com/reusedev/batch-hub/tools"
)

type Requester struct {
	ctx          context.Context
	token        ai.Token
	baseURL      string // test override
	RequestTypes RequestContent
	Parser       Parser
}

func NewRequester(ctx context.Context, token ai.Token, requestTypes RequestContent, parser Parser) *Requester {
	return &Requester{
		ctx:          ctx,
		token:        token,
		RequestTypes: requestTypes,
		Parser:       parser,
	}
}

func (r *Requester) Do() (Response, error) {
	client := http_client.New()
	body, err := r.RequestTypes.Body()
	if err != nil {
		return nil, err
	}
	base := r.baseURL
	if base == "" {
		base = r.token.GetSupplier().BaseURL()
	}
	req, err := client.NewRequest(
		http.MethodPost,
		tools.FullURL(base, r.RequestTypes.Path()),
		http_client.WithHeader("Authorization", "Bearer "+r.token.Token),
		http_client.WithHeader("Content-Type", r.RequestTypes.ContentType()),
		http_client.WithBody(body),
		http_client.WithContext(r.ctx),
	)
	if err != nil {
		return nil, err
	}
	start := time.Now()
	resp, err := client.Do(req)
	duration := time.Since(start)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	logs.Logger.Info().Str("supplier", r.token.Supplier.String()).
		Str("token_desc", r.token.Desc).
		Str("path", r.RequestTypes.Path()).
		Str("method", req.Method).
		Int("status_code", resp.StatusCode).
		Dur("duration", duration).
		Msg("chat request")
	ret := r.RequestTypes.InitResponse(r.token.Supplier.String(), r.token.Desc)
	if c, ok := ret.(*CommonResponse); ok {
		c.Duration = duration
	}
	err = r.Parser.Parse(resp, ret)
	if err != nil {
		return nil, err
	}
	return ret, nil
}

package video

import (
	"context"
	"net/http"
	"time"

	"github.com/reusedev/batch-hub/internal/modules/ai"
	"github.com/reusedev/batch-hub/internal/modules/http_client"
	"github.com/reusedev/batch-hub/internal/modules/logs"
	"github.com/reusedev/batch-hub/tools"
)

// SubmitRequester fires one submit call. Driving the job to completion
// is the caller's loop, this layer only talks to the channel.
type SubmitRequester struct {
	ctx     context.Context
	token   ai.Token
	baseURL string // empty means supplier default
	Request Request[SubmitResponse]
	Parser  Parser[SubmitResponse]
	TaskKey string
}

func NewSubmitRequester(ctx context.Context, token ai.Token, request Request[SubmitResponse], parser Parser[SubmitResponse]) *SubmitRequester {
	return &SubmitRequester{
		ctx:     ctx,
		token:   token,
		Request: request,
		Parser:  parser,
	}
}

func (r *SubmitRequester) SetTaskKey(taskKey string) *SubmitRequester {
	r.TaskKey = taskKey
	return r
}

func (r *SubmitRequester) Do() SubmitResponse {
	ret := r.Request.InitResponse(r.token.Supplier.String(), r.token.Desc)
	ret.SetTaskKey(r.TaskKey)

	client := http_client.New()
	body, contentType, err := r.Request.BodyContentType(r.token.Supplier)
	if err != nil {
		ret.SetError(err)
		return ret
	}
	req, err := client.NewRequest(
		http.MethodPost,
		tools.FullURL(requestBaseURL(r.baseURL, r.token), r.Request.Path(r.token.Supplier)),
		http_client.WithHeader("Authorization", "Bearer "+r.token.Token),
		http_client.WithHeader("Content-Type", contentType),
		http_client.WithBody(body),
		http_client.WithContext(r.ctx),
	)
	if err != nil {
		ret.SetError(err)
		return ret
	}
	reqAt := time.Now()
	resp, err := client.Do(req)
	respAt := time.Now()
	ret.SetReqAt(reqAt)
	ret.SetRespAt(respAt)
	if err != nil {
		ret.SetError(err)
		return ret
	}
	defer resp.Body.Close()
	logs.Logger.Info().
		Str("task_key", r.TaskKey).
		Str("supplier", r.token.Supplier.String()).
		Str("token_desc", r.token.Desc).
		Str("path", r.Request.Path(r.token.Supplier)).
		Str("method", req.Method).
		Int("status_code", resp.StatusCode).
		Dur("req_consume_ms", respAt.Sub(reqAt)).
		Msg("video submit request")
	if err := r.Parser.Parse(resp, ret); err != nil {
		ret.SetError(err)
	}
	return ret
}

type StatusRequester struct {
	ctx     context.Context
	token   ai.Token
	baseURL string
	Request Request[StatusResponse]
	Parser  Parser[StatusResponse]
	TaskKey string
}

func NewStatusRequester(ctx context.Context, token ai.Token, request Request[StatusResponse], parser Parser[StatusResponse]) *StatusRequester {
	return &StatusRequester{
		ctx:     ctx,
		token:   token,
		Request: request,
		Parser:  parser,
	}
}

func (r *StatusRequester) SetTaskKey(taskKey string) *StatusRequester {
	r.TaskKey = taskKey
	return r
}

func (r *StatusRequester) Do() StatusResponse {
	ret := r.Request.InitResponse(r.token.Supplier.String(), r.token.Desc)
	ret.SetTaskKey(r.TaskKey)

	client := http_client.New()
	_, contentType, err := r.Request.BodyContentType(r.token.Supplier)
	if err != nil {
		ret.SetError(err)
		return ret
	}
	req, err := client.NewRequest(
		http.MethodGet,
		tools.FullURL(requestBaseURL(r.baseURL, r.token), r.Request.Path(r.token.Supplier)),
		http_client.WithHeader("Authorization", "Bearer "+r.token.Token),
		http_client.WithHeader("Content-Type", contentType),
		http_client.WithContext(r.ctx),
	)
	if err != nil {
		ret.SetError(err)
		return ret
	}
	reqAt := time.Now()
	resp, err := client.Do(req)
	respAt := time.Now()
	ret.SetReqAt(reqAt)
	ret.SetRespAt(respAt)
	if err != nil {
		ret.SetError(err)
		return ret
	}
	defer resp.Body.Close()
	logs.Logger.Debug().
		Str("task_key", r.TaskKey).
		Str("supplier", r.token.Supplier.String()).
		Str("path", r.Request.Path(r.token.Supplier)).
		Int("status_code", resp.StatusCode).
		Dur("req_consume_ms", respAt.Sub(reqAt)).
		Msg("video status request")
	if err := r.Parser.Parse(resp, ret); err != nil {
		ret.SetError(err)
	}
	return ret
}

func requestBaseURL(override string, token ai.Token) string {
	if override != "" {
		return override
	}
	return token.GetSupplier().BaseURL()
}

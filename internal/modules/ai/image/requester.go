package image

import (
	"context"
	"net/http"
	"time"

	"github.com/reusedev/batch-hub/config"
	"github.com/reusedev/batch-hub/internal/modules/ai"
	"github.com/reusedev/batch-hub/internal/modules/http_client"
	"github.com/reusedev/batch-hub/internal/modules/logs"
	"github.com/reusedev/batch-hub/tools"
)

type SyncRequester struct {
	ctx     context.Context
	token   ai.Token
	Request Request[Response]
	Parser  Parser[Response]
	TaskKey string
}

func NewRequester(ctx context.Context, token ai.Token, request Request[Response], parser Parser[Response]) *SyncRequester {
	return &SyncRequester{
		ctx:     ctx,
		token:   token,
		Request: request,
		Parser:  parser,
	}
}

func (r *SyncRequester) SetTaskKey(taskKey string) *SyncRequester {
	r.TaskKey = taskKey
	return r
}

func (r *SyncRequester) Do() Response {
	ret := r.Request.InitResponse(r.token.Supplier.String(), r.token.Desc)
	ret.SetTaskKey(r.TaskKey)

	// The default 2-minute client timeout bites mid-generation and the
	// aborted request sometimes still gets billed. Allow the full window.
	client := http_client.NewWithTimeout(config.GConfig.Batch.SyncTimeoutDuration())
	body, contentType, err := r.Request.BodyContentType(r.token.Supplier)
	if err != nil {
		ret.SetError(err)
		return ret
	}
	req, err := client.NewRequest(
		http.MethodPost,
		tools.FullURL(r.token.GetSupplier().BaseURL(), r.Request.Path(r.token.Supplier)),
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
	ret.SetStartAt(reqAt)
	ret.SetEndAt(respAt)
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
		Msg("image request")
	err = r.Parser.Parse(resp, ret)
	if err != nil {
		ret.SetError(err)
		return ret
	}
	return ret
}

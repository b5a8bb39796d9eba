package batch

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/reusedev/batch-hub/internal/consts"
	"github.com/reusedev/batch-hub/internal/modules/ai/image"
	"github.com/reusedev/batch-hub/internal/modules/ai/video"
	"github.com/reusedev/batch-hub/internal/modules/logs"
	"github.com/reusedev/batch-hub/tools"
)

type ImageEditor interface {
	Edit(ctx context.Context, request image.EditRequest) []image.Response
}

// EditFunc adapts the image package's entry point to ImageEditor.
type EditFunc func(ctx context.Context, request image.EditRequest) []image.Response

func (f EditFunc) Edit(ctx context.Context, request image.EditRequest) []image.Response {
	return f(ctx, request)
}

type Animator interface {
	Submit(ctx context.Context, task video.SubmitTask) (string, error)
	PollStatus(ctx context.Context, workflowID string, taskKey string) (video.JobStatus, error)
}

type PreparedInput struct {
	Bytes     []byte
	PublicURL string
	Hash      string
}

type Preparer interface {
	Prepare(ctx context.Context, source SourceInput) (PreparedInput, error)
}

type Uploader interface {
	Upload(ctx context.Context, data []byte, filename string) (string, error)
}

type InvokeRecord struct {
	TaskKey    string
	Class      string
	Supplier   string
	Model      string
	TokenDesc  string
	StatusCode int
	ConsumeMs  int64
	Succeed    bool
	FailBody   string
}

type ArtifactRecord struct {
	TaskKey string
	Class   string
	URL     string
}

type Recorder interface {
	RecordInvoke(ctx context.Context, record InvokeRecord)
	RecordArtifact(ctx context.Context, record ArtifactRecord)
}

type RunnerConfig struct {
	Preparer Preparer
	Editor   ImageEditor
	Animator Animator
	Uploader Uploader // nil keeps supplier URLs as-is
	Recorder Recorder // nil disables history
	Poll     PollConfig
}

// Runner executes one cell end to end and settles it in the store.
type Runner struct {
	store    *Store
	preparer Preparer
	editor   ImageEditor
	animator Animator
	uploader Uploader
	recorder Recorder
	poll     PollConfig
	log      zerolog.Logger
}

func NewRunner(store *Store, cfg RunnerConfig) *Runner {
	return &Runner{
		store:    store,
		preparer: cfg.Preparer,
		editor:   cfg.Editor,
		animator: cfg.Animator,
		uploader: cfg.Uploader,
		recorder: cfg.Recorder,
		poll:     cfg.Poll.withDefaults(),
		log:      logs.Component("runner"),
	}
}

func (r *Runner) Run(ctx context.Context, key Key) {
	task, ok := r.store.Task(key)
	if !ok {
		return
	}
	switch task.Class {
	case consts.ClassVideo:
		r.runVideo(ctx, key, task, "")
	default:
		r.runImage(ctx, key, task)
	}
}

// Resume continues polling an async workflow that timed out earlier,
// without resubmitting it.
func (r *Runner) Resume(ctx context.Context, key Key, workflowID string) {
	task, ok := r.store.Task(key)
	if !ok || task.Class != consts.ClassVideo {
		return
	}
	r.runVideo(ctx, key, task, workflowID)
}

func (r *Runner) runImage(ctx context.Context, key Key, task GenerationTask) {
	prepared, err := r.preparer.Prepare(ctx, task.Source)
	if err != nil {
		r.settle(ctx, key, task, Outcome{Status: StatusError, Message: fmt.Sprintf("prepare source: %v", err)})
		return
	}
	request := image.EditRequest{
		Prompt:  task.Prompt,
		Quality: task.Options.Quality,
		Size:    task.Options.Size,
		TaskKey: key.String(),
	}
	if len(prepared.Bytes) > 0 {
		request.ImageBytes = [][]byte{prepared.Bytes}
	}
	if prepared.PublicURL != "" {
		request.ImageURLs = []string{prepared.PublicURL}
	}
	responses := r.editor.Edit(ctx, request)
	for _, resp := range responses {
		r.recordInvoke(ctx, key, task, resp)
	}
	outcome := classifyImage(responses)
	if outcome.Status == StatusSuccess {
		outcome.URLs = r.materializeImage(ctx, key, responses[len(responses)-1])
	}
	r.settle(ctx, key, task, outcome)
}

func classifyImage(responses []image.Response) Outcome {
	if len(responses) == 0 {
		return Outcome{Status: StatusError, Message: "no supplier accepted the request"}
	}
	last := responses[len(responses)-1]
	outcome := Outcome{
		Supplier: last.GetSupplier(),
		Model:    last.GetModel(),
		Attempts: len(responses),
	}
	if last.Succeed() {
		outcome.Status = StatusSuccess
		outcome.URLs = last.GetURLs()
		return outcome
	}
	err := last.GetError()
	switch {
	case err != nil && errors.Is(err, image.PromptError):
		outcome.Status = StatusWarning
		outcome.Message = err.Error()
	case err != nil:
		outcome.Status = StatusError
		outcome.Message = err.Error()
	default:
		outcome.Status = StatusError
		outcome.Message = "generation failed"
	}
	return outcome
}

// materializeImage turns the winning response into durable result URLs.
// Supplier URLs expire, so they get rehosted when storage is wired.
func (r *Runner) materializeImage(ctx context.Context, key Key, resp image.Response) []string {
	var out []string
	for _, u := range resp.GetURLs() {
		out = append(out, r.rehostURL(ctx, key, u))
	}
	for i, b64 := range resp.GetB64s() {
		data, err := base64.StdEncoding.DecodeString(b64)
		if err != nil {
			r.log.Warn().Err(err).Str("key", key.String()).Msg("decode b64 result failed")
			continue
		}
		if r.uploader == nil {
			out = append(out, "data:image/png;base64,"+b64)
			continue
		}
		name := fmt.Sprintf("result-%d.%s", i, tools.DetectImageType(data))
		hosted, err := r.uploader.Upload(ctx, data, name)
		if err != nil {
			r.log.Warn().Err(err).Str("key", key.String()).Msg("upload b64 result failed")
			out = append(out, "data:image/png;base64,"+b64)
			continue
		}
		out = append(out, hosted)
	}
	return out
}

func (r *Runner) rehostURL(ctx context.Context, key Key, rawURL string) string {
	if r.uploader == nil {
		return rawURL
	}
	data, name, err := tools.GetOnlineAsset(ctx, rawURL)
	if err != nil {
		r.log.Warn().Err(err).Str("key", key.String()).Str("url", rawURL).Msg("fetch result asset failed")
		return rawURL
	}
	hosted, err := r.uploader.Upload(ctx, data, name)
	if err != nil {
		r.log.Warn().Err(err).Str("key", key.String()).Msg("rehost failed")
		return rawURL
	}
	return hosted
}

func (r *Runner) settle(ctx context.Context, key Key, task GenerationTask, outcome Outcome) {
	if !r.store.Settle(key, outcome) {
		r.log.Debug().Str("key", key.String()).Msg("outcome dropped, cell removed meanwhile")
		return
	}
	if outcome.Status == StatusSuccess && r.recorder != nil {
		for _, u := range outcome.URLs {
			r.recorder.RecordArtifact(ctx, ArtifactRecord{
				TaskKey: key.String(),
				Class:   task.Class.String(),
				URL:     u,
			})
		}
	}
}

func (r *Runner) recordInvoke(ctx context.Context, key Key, task GenerationTask, resp image.Response) {
	if r.recorder == nil {
		return
	}
	record := InvokeRecord{
		TaskKey:    key.String(),
		Class:      task.Class.String(),
		Supplier:   resp.GetSupplier(),
		Model:      resp.GetModel(),
		TokenDesc:  resp.GetTokenDesc(),
		StatusCode: resp.GetStatusCode(),
		ConsumeMs:  resp.ReqConsumeMs(),
		Succeed:    resp.Succeed(),
	}
	if !resp.Succeed() {
		record.FailBody = resp.GetRespBody()
	}
	r.recorder.RecordInvoke(ctx, record)
}

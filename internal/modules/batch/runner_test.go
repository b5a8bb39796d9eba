package batch

import (
	"context"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/reusedev/batch-hub/internal/consts"
	"github.com/reusedev/batch-hub/internal/modules/ai/image"
	"github.com/reusedev/batch-hub/internal/modules/ai/video"
)

type fakePreparer struct {
	prepared PreparedInput
	err      error
}

func (f *fakePreparer) Prepare(ctx context.Context, source SourceInput) (PreparedInput, error) {
	return f.prepared, f.err
}

type fakeAnimator struct {
	mu        sync.Mutex
	submits   int
	polls     int
	workflow  string
	submitErr error
	// statuses are served in order, the last one repeats. Empty means
	// every poll reports processing.
	statuses []video.JobStatus
}

func (f *fakeAnimator) Submit(ctx context.Context, task video.SubmitTask) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.submits++
	if f.submitErr != nil {
		return "", f.submitErr
	}
	return f.workflow, nil
}

func (f *fakeAnimator) PollStatus(ctx context.Context, workflowID string, taskKey string) (video.JobStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.polls++
	if len(f.statuses) == 0 {
		return video.JobStatus{State: video.StateProcessing}, nil
	}
	status := f.statuses[0]
	if len(f.statuses) > 1 {
		f.statuses = f.statuses[1:]
	}
	return status, nil
}

func (f *fakeAnimator) setStatuses(statuses ...video.JobStatus) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statuses = statuses
}

func (f *fakeAnimator) submitCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.submits
}

type fakeUploader struct {
	mu    sync.Mutex
	calls []string
}

func (f *fakeUploader) Upload(ctx context.Context, data []byte, filename string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, filename)
	return "https://cdn.example.com/" + filename, nil
}

type fakeRecorder struct {
	mu        sync.Mutex
	invokes   []InvokeRecord
	artifacts []ArtifactRecord
}

func (f *fakeRecorder) RecordInvoke(ctx context.Context, record InvokeRecord) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.invokes = append(f.invokes, record)
}

func (f *fakeRecorder) RecordArtifact(ctx context.Context, record ArtifactRecord) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.artifacts = append(f.artifacts, record)
}

func staticEditor(responses ...image.Response) EditFunc {
	return func(ctx context.Context, request image.EditRequest) []image.Response {
		return responses
	}
}

func successResponse(urls ...string) image.Response {
	return &image.BaseResponse{Supplier: "geek", Model: "gpt-image-1", StatusCode: 200, URLs: urls}
}

func putImageTask(s *Store, key Key) {
	s.Put(GenerationTask{Class: consts.ClassImage, Prompt: "make it pop", Source: SourceInput{URL: "https://example.com/in.png"}}, key)
}

func putVideoTask(s *Store, key Key) {
	s.Put(GenerationTask{Class: consts.ClassVideo, Prompt: "animate it", Source: SourceInput{URL: "https://example.com/in.png"}, Options: TaskOptions{Duration: 5}}, key)
}

func fastPoll() PollConfig {
	return PollConfig{InitialDelay: time.Millisecond, MaxDelay: 4 * time.Millisecond, Deadline: 5 * time.Second}
}

func TestRunnerImage(t *testing.T) {
	ctx := context.Background()
	key := testKey(0, 0)

	t.Run("success", func(t *testing.T) {
		store := NewStore()
		putImageTask(store, key)
		recorder := &fakeRecorder{}
		runner := NewRunner(store, RunnerConfig{
			Preparer: &fakePreparer{prepared: PreparedInput{Bytes: []byte("img")}},
			Editor:   staticEditor(successResponse("https://supplier.example.com/out.png")),
			Recorder: recorder,
		})
		runner.Run(ctx, key)

		got, _ := store.Get(key)
		if got.Status != StatusSuccess || len(got.URLs) != 1 || got.URLs[0] != "https://supplier.example.com/out.png" {
			t.Fatalf("unexpected result: %+v", got)
		}
		if got.Supplier != "geek" || got.Model != "gpt-image-1" || got.Attempts != 1 {
			t.Fatalf("attribution missing: %+v", got)
		}
		if len(recorder.invokes) != 1 || !recorder.invokes[0].Succeed {
			t.Fatalf("invoke records: %+v", recorder.invokes)
		}
		if len(recorder.artifacts) != 1 || recorder.artifacts[0].URL != got.URLs[0] {
			t.Fatalf("artifact records: %+v", recorder.artifacts)
		}
	})

	t.Run("refusal becomes warning", func(t *testing.T) {
		store := NewStore()
		putImageTask(store, key)
		refusal := &image.BaseResponse{Supplier: "geek", Model: "gpt-image-1", StatusCode: 200, RespBody: "cannot do that", Error: image.PromptError}
		runner := NewRunner(store, RunnerConfig{
			Preparer: &fakePreparer{prepared: PreparedInput{Bytes: []byte("img")}},
			Editor:   staticEditor(refusal),
		})
		runner.Run(ctx, key)

		got, _ := store.Get(key)
		if got.Status != StatusWarning || got.Message == "" {
			t.Fatalf("unexpected result: %+v", got)
		}
	})

	t.Run("upstream failure becomes error", func(t *testing.T) {
		store := NewStore()
		putImageTask(store, key)
		failed := &image.BaseResponse{Supplier: "geek", Model: "gpt-image-1", StatusCode: 502, RespBody: "bad gateway", Error: image.StatusCodeError}
		recorder := &fakeRecorder{}
		runner := NewRunner(store, RunnerConfig{
			Preparer: &fakePreparer{prepared: PreparedInput{Bytes: []byte("img")}},
			Editor:   staticEditor(failed, successResponse("https://supplier.example.com/out.png")),
			Recorder: recorder,
		})
		runner.Run(ctx, key)

		// Two attempts recorded, the second one won.
		got, _ := store.Get(key)
		if got.Status != StatusSuccess || got.Attempts != 2 {
			t.Fatalf("unexpected result: %+v", got)
		}
		if len(recorder.invokes) != 2 || recorder.invokes[0].Succeed || recorder.invokes[0].FailBody != "bad gateway" {
			t.Fatalf("invoke records: %+v", recorder.invokes)
		}
	})

	t.Run("no responses becomes error", func(t *testing.T) {
		store := NewStore()
		putImageTask(store, key)
		runner := NewRunner(store, RunnerConfig{
			Preparer: &fakePreparer{prepared: PreparedInput{Bytes: []byte("img")}},
			Editor:   staticEditor(),
		})
		runner.Run(ctx, key)

		got, _ := store.Get(key)
		if got.Status != StatusError {
			t.Fatalf("unexpected result: %+v", got)
		}
	})

	t.Run("prepare failure becomes error", func(t *testing.T) {
		store := NewStore()
		putImageTask(store, key)
		runner := NewRunner(store, RunnerConfig{
			Preparer: &fakePreparer{err: context.DeadlineExceeded},
			Editor:   staticEditor(successResponse("https://supplier.example.com/out.png")),
		})
		runner.Run(ctx, key)

		got, _ := store.Get(key)
		if got.Status != StatusError || !strings.Contains(got.Message, "prepare source") {
			t.Fatalf("unexpected result: %+v", got)
		}
	})
}

func TestRunnerImageRehostsResults(t *testing.T) {
	png := []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A, 0, 0, 0, 0}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(png)
	}))
	defer server.Close()

	ctx := context.Background()
	key := testKey(0, 0)

	t.Run("url result", func(t *testing.T) {
		store := NewStore()
		putImageTask(store, key)
		uploader := &fakeUploader{}
		runner := NewRunner(store, RunnerConfig{
			Preparer: &fakePreparer{prepared: PreparedInput{Bytes: []byte("img")}},
			Editor:   staticEditor(successResponse(server.URL + "/out.png")),
			Uploader: uploader,
		})
		runner.Run(ctx, key)

		got, _ := store.Get(key)
		if got.Status != StatusSuccess || got.URLs[0] != "https://cdn.example.com/out.png" {
			t.Fatalf("unexpected result: %+v", got)
		}
		if len(uploader.calls) != 1 || uploader.calls[0] != "out.png" {
			t.Fatalf("uploads: %v", uploader.calls)
		}
	})

	t.Run("b64 result", func(t *testing.T) {
		store := NewStore()
		putImageTask(store, key)
		uploader := &fakeUploader{}
		b64 := &image.BaseResponse{Supplier: "geek", Model: "gpt-image-1", StatusCode: 200, B64s: []string{base64.StdEncoding.EncodeToString(png)}}
		runner := NewRunner(store, RunnerConfig{
			Preparer: &fakePreparer{prepared: PreparedInput{Bytes: []byte("img")}},
			Editor:   staticEditor(b64),
			Uploader: uploader,
		})
		runner.Run(ctx, key)

		got, _ := store.Get(key)
		if got.Status != StatusSuccess || got.URLs[0] != "https://cdn.example.com/result-0.png" {
			t.Fatalf("unexpected result: %+v", got)
		}
	})

	t.Run("b64 without uploader stays inline", func(t *testing.T) {
		store := NewStore()
		putImageTask(store, key)
		encoded := base64.StdEncoding.EncodeToString(png)
		b64 := &image.BaseResponse{Supplier: "geek", Model: "gpt-image-1", StatusCode: 200, B64s: []string{encoded}}
		runner := NewRunner(store, RunnerConfig{
			Preparer: &fakePreparer{prepared: PreparedInput{Bytes: []byte("img")}},
			Editor:   staticEditor(b64),
		})
		runner.Run(ctx, key)

		got, _ := store.Get(key)
		if got.Status != StatusSuccess || got.URLs[0] != "data:image/png;base64,"+encoded {
			t.Fatalf("unexpected result: %+v", got)
		}
	})
}

func TestRunnerVideo(t *testing.T) {
	ctx := context.Background()
	key := testKey(0, 0)
	prepared := &fakePreparer{prepared: PreparedInput{PublicURL: "https://cdn.example.com/in.png"}}

	t.Run("completes after polling", func(t *testing.T) {
		store := NewStore()
		putVideoTask(store, key)
		animator := &fakeAnimator{workflow: "wf-1"}
		animator.setStatuses(
			video.JobStatus{State: video.StateProcessing},
			video.JobStatus{State: video.StateCompleted, ResultURL: "https://supplier.example.com/out.mp4"},
		)
		runner := NewRunner(store, RunnerConfig{Preparer: prepared, Animator: animator, Poll: fastPoll()})
		runner.Run(ctx, key)

		got, _ := store.Get(key)
		if got.Status != StatusSuccess || got.URLs[0] != "https://supplier.example.com/out.mp4" {
			t.Fatalf("unexpected result: %+v", got)
		}
		if got.WorkflowID != "wf-1" || got.Attempts != 2 {
			t.Fatalf("workflow state: %+v", got)
		}
		if animator.submitCount() != 1 {
			t.Fatalf("submits: %d", animator.submitCount())
		}
	})

	t.Run("submit refusal becomes warning", func(t *testing.T) {
		store := NewStore()
		putVideoTask(store, key)
		animator := &fakeAnimator{submitErr: video.PromptError}
		runner := NewRunner(store, RunnerConfig{Preparer: prepared, Animator: animator, Poll: fastPoll()})
		runner.Run(ctx, key)

		got, _ := store.Get(key)
		if got.Status != StatusWarning {
			t.Fatalf("unexpected result: %+v", got)
		}
	})

	t.Run("failed state with refusal message becomes warning", func(t *testing.T) {
		store := NewStore()
		putVideoTask(store, key)
		animator := &fakeAnimator{workflow: "wf-1"}
		animator.setStatuses(video.JobStatus{State: video.StateFailed, Message: "内容触发风控策略"})
		runner := NewRunner(store, RunnerConfig{Preparer: prepared, Animator: animator, Poll: fastPoll()})
		runner.Run(ctx, key)

		got, _ := store.Get(key)
		if got.Status != StatusWarning || got.Message == "" {
			t.Fatalf("unexpected result: %+v", got)
		}
	})

	t.Run("failed state becomes error", func(t *testing.T) {
		store := NewStore()
		putVideoTask(store, key)
		animator := &fakeAnimator{workflow: "wf-1"}
		animator.setStatuses(video.JobStatus{State: video.StateFailed, Message: "render failed"})
		runner := NewRunner(store, RunnerConfig{Preparer: prepared, Animator: animator, Poll: fastPoll()})
		runner.Run(ctx, key)

		got, _ := store.Get(key)
		if got.Status != StatusError || got.Message != "render failed" {
			t.Fatalf("unexpected result: %+v", got)
		}
	})

	t.Run("needs a public source url", func(t *testing.T) {
		store := NewStore()
		putVideoTask(store, key)
		animator := &fakeAnimator{workflow: "wf-1"}
		runner := NewRunner(store, RunnerConfig{
			Preparer: &fakePreparer{prepared: PreparedInput{Bytes: []byte("img")}},
			Animator: animator,
			Poll:     fastPoll(),
		})
		runner.Run(ctx, key)

		got, _ := store.Get(key)
		if got.Status != StatusError {
			t.Fatalf("unexpected result: %+v", got)
		}
		if animator.submitCount() != 0 {
			t.Fatal("submitted without a public url")
		}
	})

	t.Run("deadline times out and retry resumes", func(t *testing.T) {
		store := NewStore()
		putVideoTask(store, key)
		animator := &fakeAnimator{workflow: "wf-1"} // every poll reports processing
		runner := NewRunner(store, RunnerConfig{
			Preparer: prepared,
			Animator: animator,
			Poll:     PollConfig{InitialDelay: 2 * time.Millisecond, MaxDelay: 2 * time.Millisecond, Deadline: 50 * time.Millisecond},
		})
		runner.Run(ctx, key)

		timedOut, _ := store.Get(key)
		if timedOut.Status != StatusTimedOut || timedOut.WorkflowID != "wf-1" {
			t.Fatalf("unexpected result: %+v", timedOut)
		}
		if timedOut.Attempts < 1 {
			t.Fatalf("no polls before deadline: %+v", timedOut)
		}

		// Resuming polls the same workflow, no second submission.
		if !store.ResetPending(key, true) {
			t.Fatal("reset failed")
		}
		animator.setStatuses(video.JobStatus{State: video.StateCompleted, ResultURL: "https://supplier.example.com/out.mp4"})
		runner.Resume(ctx, key, "wf-1")

		got, _ := store.Get(key)
		if got.Status != StatusSuccess || got.URLs[0] != "https://supplier.example.com/out.mp4" {
			t.Fatalf("unexpected result after resume: %+v", got)
		}
		if got.Attempts <= timedOut.Attempts {
			t.Fatalf("attempts not carried over: %d then %d", timedOut.Attempts, got.Attempts)
		}
		if animator.submitCount() != 1 {
			t.Fatalf("resume resubmitted: %d submits", animator.submitCount())
		}
	})
}

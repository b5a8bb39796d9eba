package batch

import (
	"context"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/reusedev/batch-hub/internal/consts"
	"github.com/reusedev/batch-hub/internal/modules/ai/image"
	"github.com/reusedev/batch-hub/internal/modules/ai/video"
)

func newTestCoordinator(t *testing.T, cfg RunnerConfig, workers int) (*Coordinator, *Store) {
	t.Helper()
	store := NewStore()
	coord := NewCoordinator(store, NewRunner(store, cfg), workers)
	coord.Start(context.Background())
	t.Cleanup(coord.Close)
	return coord, store
}

func TestCoordinatorStartBatch(t *testing.T) {
	coord, _ := newTestCoordinator(t, RunnerConfig{
		Preparer: &fakePreparer{prepared: PreparedInput{Bytes: []byte("img")}},
		Editor:   staticEditor(successResponse("https://supplier.example.com/out.png")),
	}, 4)

	keys, err := coord.StartBatch(BatchRequest{
		Class:   consts.ClassImage,
		Sources: []SourceInput{{URL: "https://example.com/a.png"}, {URL: "https://example.com/b.png"}},
		Prompts: []string{"sketch", "oil", "pixel"},
	})
	if err != nil {
		t.Fatalf("start batch: %v", err)
	}
	if len(keys) != 6 {
		t.Fatalf("got %d keys, want 6", len(keys))
	}
	seen := make(map[Key]struct{})
	for _, k := range keys {
		seen[k] = struct{}{}
		if k.BatchStamp != keys[0].BatchStamp {
			t.Fatalf("keys span batch stamps: %v", keys)
		}
	}
	if len(seen) != 6 {
		t.Fatalf("keys not distinct: %v", keys)
	}

	coord.Wait()
	if p := coord.Progress(); p.Total != 6 || p.Completed != 6 {
		t.Fatalf("progress after drain: %+v", p)
	}
	for _, r := range coord.Results() {
		if r.Status != StatusSuccess {
			t.Fatalf("unsettled result: %+v", r)
		}
	}
}

func TestCoordinatorStartBatchValidation(t *testing.T) {
	coord, store := newTestCoordinator(t, RunnerConfig{}, 1)
	cases := []BatchRequest{
		{Class: consts.ClassImage, Prompts: []string{"p"}},
		{Class: consts.ClassImage, Sources: []SourceInput{{URL: "https://example.com/a.png"}}},
		{Class: "audio", Sources: []SourceInput{{URL: "https://example.com/a.png"}}, Prompts: []string{"p"}},
	}
	for _, req := range cases {
		if _, err := coord.StartBatch(req); err == nil {
			t.Errorf("request %+v accepted", req)
		}
	}
	if p := store.Progress(); p.Total != 0 {
		t.Fatalf("rejected batch left entries behind: %+v", p)
	}
}

func TestCoordinatorBoundsConcurrency(t *testing.T) {
	var mu sync.Mutex
	active, peak := 0, 0
	editor := EditFunc(func(ctx context.Context, request image.EditRequest) []image.Response {
		mu.Lock()
		active++
		if active > peak {
			peak = active
		}
		mu.Unlock()
		time.Sleep(10 * time.Millisecond)
		mu.Lock()
		active--
		mu.Unlock()
		return []image.Response{successResponse("https://supplier.example.com/out.png")}
	})
	coord, _ := newTestCoordinator(t, RunnerConfig{
		Preparer: &fakePreparer{prepared: PreparedInput{Bytes: []byte("img")}},
		Editor:   editor,
	}, 2)

	if _, err := coord.StartBatch(BatchRequest{
		Class:   consts.ClassImage,
		Sources: []SourceInput{{URL: "https://example.com/a.png"}},
		Prompts: []string{"1", "2", "3", "4", "5", "6", "7", "8"},
	}); err != nil {
		t.Fatalf("start batch: %v", err)
	}
	coord.Wait()

	mu.Lock()
	defer mu.Unlock()
	if peak > 2 {
		t.Fatalf("%d tasks ran at once with 2 workers", peak)
	}
	if peak == 0 {
		t.Fatal("nothing ran")
	}
}

func TestCoordinatorRetryOne(t *testing.T) {
	var mu sync.Mutex
	healed := false
	editor := EditFunc(func(ctx context.Context, request image.EditRequest) []image.Response {
		mu.Lock()
		defer mu.Unlock()
		if request.Prompt == "bad" && !healed {
			return []image.Response{&image.BaseResponse{Supplier: "geek", Model: "gpt-image-1", StatusCode: 502, RespBody: "bad gateway", Error: image.StatusCodeError}}
		}
		return []image.Response{successResponse("https://supplier.example.com/out.png")}
	})
	coord, store := newTestCoordinator(t, RunnerConfig{
		Preparer: &fakePreparer{prepared: PreparedInput{Bytes: []byte("img")}},
		Editor:   editor,
	}, 2)

	keys, err := coord.StartBatch(BatchRequest{
		Class:   consts.ClassImage,
		Sources: []SourceInput{{URL: "https://example.com/a.png"}},
		Prompts: []string{"good", "bad", "good"},
	})
	if err != nil {
		t.Fatalf("start batch: %v", err)
	}
	coord.Wait()

	badKey := keys[1]
	if got, _ := store.Get(badKey); got.Status != StatusError {
		t.Fatalf("setup: %+v", got)
	}

	before := make(map[Key]GenerationResult)
	for _, r := range coord.Results() {
		if r.Key != badKey {
			before[r.Key] = r
		}
	}

	mu.Lock()
	healed = true
	mu.Unlock()
	if err := coord.RetryOne(badKey); err != nil {
		t.Fatalf("retry: %v", err)
	}
	coord.Wait()

	if got, _ := store.Get(badKey); got.Status != StatusSuccess {
		t.Fatalf("retried entry: %+v", got)
	}
	// Nothing else moved.
	for _, r := range coord.Results() {
		if r.Key == badKey {
			continue
		}
		if !reflect.DeepEqual(before[r.Key], r) {
			t.Fatalf("untouched entry changed: %+v vs %+v", before[r.Key], r)
		}
	}

	t.Run("rejects bad targets", func(t *testing.T) {
		if err := coord.RetryOne(Key{SourceIndex: 99, VariantIndex: 99, BatchStamp: 1}); err == nil {
			t.Error("retry of unknown key succeeded")
		}
		if err := coord.RetryOne(keys[0]); err == nil {
			t.Error("retry of successful entry succeeded")
		}
	})
}

func TestCoordinatorRetryAll(t *testing.T) {
	animator := &fakeAnimator{workflow: "wf-9"}
	animator.setStatuses(video.JobStatus{State: video.StateCompleted, ResultURL: "https://supplier.example.com/out.mp4"})
	coord, store := newTestCoordinator(t, RunnerConfig{
		Preparer: &fakePreparer{prepared: PreparedInput{Bytes: []byte("img"), PublicURL: "https://cdn.example.com/in.png"}},
		Editor:   staticEditor(successResponse("https://supplier.example.com/out.png")),
		Animator: animator,
		Poll:     fastPoll(),
	}, 2)

	succeeded, warned, failed, timedOut := testKey(0, 0), testKey(0, 1), testKey(0, 2), testKey(0, 3)
	putImageTask(store, succeeded)
	putImageTask(store, warned)
	putImageTask(store, failed)
	putVideoTask(store, timedOut)
	store.Settle(succeeded, Outcome{Status: StatusSuccess, URLs: []string{"https://example.com/done.png"}})
	store.Settle(warned, Outcome{Status: StatusWarning, Message: "declined"})
	store.Settle(failed, Outcome{Status: StatusError, Message: "boom"})
	store.Settle(timedOut, Outcome{Status: StatusTimedOut, WorkflowID: "wf-9", Attempts: 5, Message: "deadline"})

	successBefore, _ := store.Get(succeeded)
	retried := coord.RetryAll()
	if len(retried) != 3 {
		t.Fatalf("retried %v, want the three retryable keys", retried)
	}
	for _, k := range retried {
		if k == succeeded {
			t.Fatal("retry-all picked up a successful entry")
		}
	}
	coord.Wait()

	for _, k := range []Key{warned, failed, timedOut} {
		if got, _ := store.Get(k); got.Status != StatusSuccess {
			t.Fatalf("entry %s not rerun: %+v", k, got)
		}
	}
	// The timed out animation resumed its workflow, nothing was submitted.
	if animator.submitCount() != 0 {
		t.Fatalf("retry-all resubmitted: %d submits", animator.submitCount())
	}
	if got, _ := store.Get(timedOut); got.WorkflowID != "wf-9" || got.Attempts <= 5 {
		t.Fatalf("workflow state lost on resume: %+v", got)
	}
	if after, _ := store.Get(succeeded); !reflect.DeepEqual(successBefore, after) {
		t.Fatalf("successful entry changed: %+v vs %+v", successBefore, after)
	}
}

func TestCoordinatorRemoveAndClear(t *testing.T) {
	coord, store := newTestCoordinator(t, RunnerConfig{
		Preparer: &fakePreparer{prepared: PreparedInput{Bytes: []byte("img")}},
		Editor:   staticEditor(successResponse("https://supplier.example.com/out.png")),
	}, 2)

	keys, _ := coord.StartBatch(BatchRequest{
		Class:   consts.ClassImage,
		Sources: []SourceInput{{URL: "https://example.com/a.png"}},
		Prompts: []string{"1", "2"},
	})
	coord.Wait()

	if !coord.Remove(keys[0]) {
		t.Fatal("remove failed")
	}
	if coord.Remove(keys[0]) {
		t.Fatal("second remove succeeded")
	}
	if n := coord.Clear(); n != 1 {
		t.Fatalf("cleared %d, want 1", n)
	}
	if p := store.Progress(); p.Total != 0 {
		t.Fatalf("progress after clear: %+v", p)
	}
}

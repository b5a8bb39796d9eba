package batch

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/reusedev/batch-hub/internal/consts"
	"github.com/reusedev/batch-hub/internal/modules/logs"
	"github.com/reusedev/batch-hub/internal/modules/queue"
)

const queueBacklog = 256

// BatchRequest describes one generate action. Every source is crossed
// with every prompt variant, so the batch holds len(Sources) times
// len(Prompts) tasks sharing one batch stamp.
type BatchRequest struct {
	Class   consts.TaskClass
	Sources []SourceInput
	Prompts []string
	Options TaskOptions
}

// Coordinator fans batches out over a bounded worker pool and routes
// retries back through the same pool. All result state lives in the
// Store, the Coordinator only decides what runs and when.
type Coordinator struct {
	store   *Store
	runner  *Runner
	queue   queue.TaskQueue
	workers int

	tasks     sync.WaitGroup
	workersWG sync.WaitGroup
	startOnce sync.Once
	closeOnce sync.Once
	log       zerolog.Logger
}

func NewCoordinator(store *Store, runner *Runner, workers int) *Coordinator {
	if workers <= 0 {
		workers = 4
	}
	return &Coordinator{
		store:   store,
		runner:  runner,
		queue:   queue.NewTaskQueue(queueBacklog),
		workers: workers,
		log:     logs.Component("coordinator"),
	}
}

// Start launches the worker pool. Tasks dispatched before Start sit in
// the queue until a worker picks them up.
func (c *Coordinator) Start(ctx context.Context) {
	c.startOnce.Do(func() {
		queue.Run(ctx, c.queue, c.workers, &c.workersWG)
	})
}

// StartBatch validates the request, writes a pending placeholder for
// every task so callers see the full batch before any upstream call
// fires, then dispatches them all.
func (c *Coordinator) StartBatch(req BatchRequest) ([]Key, error) {
	if !req.Class.Valid() {
		return nil, fmt.Errorf("unknown task class: %s", req.Class)
	}
	if len(req.Sources) == 0 {
		return nil, errors.New("at least one source is required")
	}
	if len(req.Prompts) == 0 {
		return nil, errors.New("at least one prompt is required")
	}
	stamp := NewBatchStamp()
	keys := make([]Key, 0, len(req.Sources)*len(req.Prompts))
	for i, source := range req.Sources {
		for j, prompt := range req.Prompts {
			key := Key{SourceIndex: i, VariantIndex: j, BatchStamp: stamp}
			c.store.Put(GenerationTask{
				Class:   req.Class,
				Prompt:  prompt,
				Source:  source,
				Options: req.Options,
			}, key)
			keys = append(keys, key)
		}
	}
	for _, key := range keys {
		c.dispatch(key, "")
	}
	c.log.Info().Int64("stamp", stamp).Int("tasks", len(keys)).
		Str("class", req.Class.String()).Msg("batch dispatched")
	return keys, nil
}

// RetryOne resets a single settled entry back to pending and reruns
// it, leaving every other entry untouched. A timed out animation with
// a workflow id resumes polling instead of submitting a new job.
func (c *Coordinator) RetryOne(key Key) error {
	result, ok := c.store.Get(key)
	if !ok {
		return fmt.Errorf("no result for key %s", key)
	}
	if result.Status == StatusPending {
		return fmt.Errorf("task %s is still running", key)
	}
	if !result.Status.Retryable() {
		return fmt.Errorf("result %s is %s and cannot be retried", key, result.Status)
	}
	resume := result.Status == StatusTimedOut && result.WorkflowID != ""
	if !c.store.ResetPending(key, resume) {
		return fmt.Errorf("no result for key %s", key)
	}
	if resume {
		c.dispatch(key, result.WorkflowID)
		return nil
	}
	c.dispatch(key, "")
	return nil
}

// RetryAll reruns every retryable entry as one sub-batch. Successful
// and pending entries are never touched. Returns the retried keys.
func (c *Coordinator) RetryAll() []Key {
	results := c.store.Results()
	var keys []Key
	resume := make(map[Key]string)
	for _, result := range results {
		if !result.Status.Retryable() {
			continue
		}
		keep := result.Status == StatusTimedOut && result.WorkflowID != ""
		if !c.store.ResetPending(result.Key, keep) {
			continue
		}
		if keep {
			resume[result.Key] = result.WorkflowID
		}
		keys = append(keys, result.Key)
	}
	for _, key := range keys {
		c.dispatch(key, resume[key])
	}
	if len(keys) > 0 {
		c.log.Info().Int("tasks", len(keys)).Msg("retrying failed tasks")
	}
	return keys
}

func (c *Coordinator) Remove(key Key) bool {
	return c.store.Remove(key)
}

func (c *Coordinator) Clear() int {
	return c.store.Clear()
}

func (c *Coordinator) Results() []GenerationResult {
	return c.store.Results()
}

func (c *Coordinator) Progress() Progress {
	return c.store.Progress()
}

// Wait blocks until every dispatched task has settled. Intended for
// draining in tests and batch CLIs, the HTTP surface never waits.
func (c *Coordinator) Wait() {
	c.tasks.Wait()
}

// Close stops the pool after the queue drains. Dispatching after Close
// panics, stop the callers first.
func (c *Coordinator) Close() {
	c.closeOnce.Do(func() {
		close(c.queue)
	})
	c.workersWG.Wait()
}

func (c *Coordinator) dispatch(key Key, workflowID string) {
	c.tasks.Add(1)
	c.queue <- queue.Func(func(ctx context.Context) {
		defer c.tasks.Done()
		if workflowID != "" {
			c.runner.Resume(ctx, key, workflowID)
			return
		}
		c.runner.Run(ctx, key)
	})
}

package queue

import (
	"context"
	"sync"

	"github.com/reusedev/batch-hub/internal/modules/logs"
)

// Run starts a fixed number of workers draining q. Each worker exits
// when the queue closes or ctx is done, whichever comes first. Tasks
// still queued at cancellation are dropped. The WaitGroup tracks the
// workers themselves, not the tasks they run.
func Run(ctx context.Context, q TaskQueue, workers int, wg *sync.WaitGroup) {
	if workers <= 0 {
		workers = 1
	}
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			work(ctx, q)
		}()
	}
	logs.Logger.Info().Int("workers", workers).Msg("Task queue workers started")
}

func work(ctx context.Context, q TaskQueue) {
	for {
		select {
		case task, ok := <-q:
			if !ok {
				// channel close
				return
			}
			task.Execute(ctx)
		case <-ctx.Done():
			return
		}
	}
}

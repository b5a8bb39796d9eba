package batch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/reusedev/batch-hub/internal/modules/ai/video"
)

// PollConfig shapes the async polling ladder: the delay starts at
// InitialDelay, doubles after every observation up to MaxDelay, and the
// whole session stops at Deadline.
type PollConfig struct {
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Deadline     time.Duration
}

func (c PollConfig) withDefaults() PollConfig {
	if c.InitialDelay <= 0 {
		c.InitialDelay = time.Second
	}
	if c.MaxDelay <= 0 {
		c.MaxDelay = 16 * time.Second
	}
	if c.Deadline <= 0 {
		c.Deadline = 120 * time.Second
	}
	return c
}

func nextDelay(current, max time.Duration) time.Duration {
	next := current * 2
	if next > max {
		return max
	}
	return next
}

func (r *Runner) runVideo(ctx context.Context, key Key, task GenerationTask, workflowID string) {
	attempts := 0
	if workflowID == "" {
		prepared, err := r.preparer.Prepare(ctx, task.Source)
		if err != nil {
			r.settle(ctx, key, task, Outcome{Status: StatusError, Message: fmt.Sprintf("prepare source: %v", err)})
			return
		}
		if prepared.PublicURL == "" {
			r.settle(ctx, key, task, Outcome{Status: StatusError, Message: "animation needs a reachable source url, enable storage or pass a url source"})
			return
		}
		submitted, err := r.animator.Submit(ctx, video.SubmitTask{
			ImageURL: prepared.PublicURL,
			Prompt:   task.Prompt,
			Duration: task.Options.Duration,
			TaskKey:  key.String(),
		})
		if err != nil {
			if errors.Is(err, video.PromptError) {
				r.settle(ctx, key, task, Outcome{Status: StatusWarning, Message: err.Error()})
			} else {
				r.settle(ctx, key, task, Outcome{Status: StatusError, Message: err.Error()})
			}
			return
		}
		workflowID = submitted
		r.store.MarkWorkflow(key, workflowID)
		r.log.Info().Str("key", key.String()).Str("workflow_id", workflowID).Msg("animation submitted")
	} else if result, ok := r.store.Get(key); ok {
		// Resumed session keeps counting where the timed-out one stopped.
		attempts = result.Attempts
	}

	outcome := r.pollWorkflow(ctx, key, workflowID, attempts)
	if outcome.Status == StatusSuccess {
		hosted := make([]string, 0, len(outcome.URLs))
		for _, u := range outcome.URLs {
			hosted = append(hosted, r.rehostURL(ctx, key, u))
		}
		outcome.URLs = hosted
	}
	r.settle(ctx, key, task, outcome)
}

// pollWorkflow drives one polling session over an already-submitted
// workflow. A session that hits the deadline reports timed_out and
// keeps the workflow id, resuming starts a fresh session with a fresh
// deadline and a restarted ladder.
func (r *Runner) pollWorkflow(ctx context.Context, key Key, workflowID string, attempts int) Outcome {
	deadline := time.Now().Add(r.poll.Deadline)
	delay := r.poll.InitialDelay
	for {
		if time.Now().Add(delay).After(deadline) {
			r.log.Info().Str("key", key.String()).Str("workflow_id", workflowID).
				Int("attempts", attempts).Msg("polling deadline reached")
			return Outcome{
				Status:     StatusTimedOut,
				WorkflowID: workflowID,
				Attempts:   attempts,
				Message:    "still processing when the polling deadline passed, retry resumes this workflow",
			}
		}
		select {
		case <-ctx.Done():
			return Outcome{
				Status:     StatusTimedOut,
				WorkflowID: workflowID,
				Attempts:   attempts,
				Message:    "polling interrupted",
			}
		case <-time.After(delay):
		}
		status, err := r.animator.PollStatus(ctx, workflowID, key.String())
		attempts++
		if err != nil {
			// One bad observation does not fail the job, the deadline
			// bounds how long we keep trying.
			r.log.Warn().Err(err).Str("key", key.String()).Str("workflow_id", workflowID).Msg("poll observation failed")
		} else {
			switch status.State {
			case video.StateCompleted:
				return Outcome{
					Status:     StatusSuccess,
					URLs:       []string{status.ResultURL},
					WorkflowID: workflowID,
					Attempts:   attempts,
				}
			case video.StateFailed:
				if video.IsRefusalMessage(status.Message) {
					return Outcome{Status: StatusWarning, Message: status.Message, WorkflowID: workflowID, Attempts: attempts}
				}
				return Outcome{Status: StatusError, Message: status.Message, WorkflowID: workflowID, Attempts: attempts}
			}
		}
		delay = nextDelay(delay, r.poll.MaxDelay)
	}
}

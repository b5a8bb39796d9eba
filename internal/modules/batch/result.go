package batch

import (
	"time"

	"github.com/reusedev/batch-hub/internal/consts"
)

type Status string

const (
	StatusPending  Status = "pending"
	StatusSuccess  Status = "success"
	StatusWarning  Status = "warning"
	StatusError    Status = "error"
	StatusTimedOut Status = "timed_out"
)

func (s Status) Terminal() bool {
	return s == StatusSuccess || s == StatusWarning || s == StatusError || s == StatusTimedOut
}

// Retryable reports whether retry-all picks the entry up. Warnings
// count too, the user usually tweaks the prompt and goes again.
func (s Status) Retryable() bool {
	return s == StatusWarning || s == StatusError || s == StatusTimedOut
}

// SourceInput is one source asset as the caller handed it in.
type SourceInput struct {
	URL string `json:"url,omitempty"`
	B64 string `json:"b64,omitempty"`
}

type TaskOptions struct {
	Quality  string `json:"quality,omitempty"`
	Size     string `json:"size,omitempty"`
	Duration int    `json:"duration,omitempty"`
}

// GenerationTask carries everything needed to run, and re-run, one cell.
type GenerationTask struct {
	Class   consts.TaskClass `json:"class"`
	Prompt  string           `json:"prompt"`
	Source  SourceInput      `json:"source"`
	Options TaskOptions      `json:"options"`
}

// GenerationResult is the visible state of one cell.
type GenerationResult struct {
	Key        Key       `json:"key"`
	Status     Status    `json:"status"`
	URLs       []string  `json:"urls,omitempty"`
	Message    string    `json:"message,omitempty"`
	Supplier   string    `json:"supplier,omitempty"`
	Model      string    `json:"model,omitempty"`
	WorkflowID string    `json:"workflow_id,omitempty"`
	Prompt     string    `json:"prompt"`
	Attempts   int       `json:"attempts"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Outcome is what a finished run reports back to the store.
type Outcome struct {
	Status     Status
	URLs       []string
	Message    string
	Supplier   string
	Model      string
	WorkflowID string
	Attempts   int
}

type Progress struct {
	Total     int     `json:"total"`
	Completed int     `json:"completed"`
	Percent   float64 `json:"percent"`
}

func (p Progress) Done() bool {
	return p.Total > 0 && p.Completed == p.Total
}

package video

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/reusedev/batch-hub/internal/consts"
	"github.com/reusedev/batch-hub/internal/modules/ai"
	"github.com/reusedev/batch-hub/internal/modules/logs"
)

type SubmitTask struct {
	ImageURL string `json:"image_url"`
	Prompt   string `json:"prompt"`
	Duration int    `json:"duration"`
	TaskKey  string `json:"task_key"`
}

// Service submits animation jobs and polls their status. The token used
// at submit time is remembered per workflow id so status calls hit the
// same channel.
type Service struct {
	mu       sync.Mutex
	sessions map[string]ai.TokenWithModel
	baseURL  string // test override
}

func NewService() *Service {
	return &Service{
		sessions: make(map[string]ai.TokenWithModel),
	}
}

// Submit walks the video fallback chain until one channel accepts the
// job and returns its workflow id.
func (s *Service) Submit(ctx context.Context, task SubmitTask) (string, error) {
	manager := ai.Manager(consts.ClassVideo)
	if manager == nil {
		return "", fmt.Errorf("video request order not configured")
	}
	getToken := manager.GetTokenIterator()
	lastErr := fmt.Errorf("no video supplier available")
	for {
		token := getToken()
		if token == nil {
			break
		}
		logs.Logger.Info().Str("task_key", task.TaskKey).Str("supplier", token.Supplier.String()).
			Str("token_desc", token.Desc).Str("model", token.Model).Msg("Attempting video submit")
		content := &AnimateRequest{
			Model:    token.Model,
			ImageURL: task.ImageURL,
			Prompt:   task.Prompt,
			Duration: task.Duration,
		}
		requester := NewSubmitRequester(ctx, token.Token, content, NewSubmitParser(&KlingWorkflowStrategy{}))
		requester.baseURL = s.baseURL
		requester.SetTaskKey(task.TaskKey)
		resp := requester.Do()
		if resp.Succeed() {
			s.remember(resp.GetWorkflowID(), *token)
			return resp.GetWorkflowID(), nil
		}
		if resp.GetError() != nil {
			lastErr = resp.GetError()
			// A refusal repeats on every channel, surface it directly.
			if errors.Is(resp.GetError(), PromptError) {
				return "", resp.GetError()
			}
		}
		if resp.GetStatusCode() >= 500 && resp.GetStatusCode() < 600 {
			manager.Ban(token.Supplier, time.Now().Add(10*time.Minute))
		}
	}
	return "", lastErr
}

// PollStatus fetches one status observation for a workflow id.
func (s *Service) PollStatus(ctx context.Context, workflowID string, taskKey string) (JobStatus, error) {
	token, ok := s.session(workflowID)
	if !ok {
		// Resuming a workflow submitted before a restart: fall back to
		// the first configured channel.
		manager := ai.Manager(consts.ClassVideo)
		if manager == nil {
			return JobStatus{}, fmt.Errorf("video request order not configured")
		}
		first := manager.GetTokenIterator()()
		if first == nil {
			return JobStatus{}, fmt.Errorf("no video supplier available")
		}
		token = *first
		s.remember(workflowID, token)
	}
	requester := NewStatusRequester(ctx, token.Token, &StatusRequest{WorkflowID: workflowID}, NewStatusParser(&KlingStatusStrategy{}))
	requester.baseURL = s.baseURL
	requester.SetTaskKey(taskKey)
	resp := requester.Do()
	if resp.GetError() != nil {
		return JobStatus{}, resp.GetError()
	}
	status := JobStatus{
		State:     resp.GetState(),
		ResultURL: resp.GetResultURL(),
		Message:   resp.GetMessage(),
	}
	if status.State != StateProcessing {
		s.Forget(workflowID)
	}
	return status, nil
}

// Forget drops the remembered submit token once a workflow settles.
func (s *Service) Forget(workflowID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, workflowID)
}

func (s *Service) remember(workflowID string, token ai.TokenWithModel) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[workflowID] = token
}

func (s *Service) session(workflowID string) (ai.TokenWithModel, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	token, ok := s.sessions[workflowID]
	return token, ok
}

package video

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	jsoniter "github.com/json-iterator/go"
)

type Parser[T any] interface {
	Parse(resp *http.Response, response T) error
}

var (
	PromptError     = errors.New("prompt rejected by content policy")
	NoWorkflowError = errors.New("no workflow id in submit response")
	StatusCodeError = errors.New("non-200 status code")
)

// refusalPhrases are the literal risk-control fragments the kling
// channels return when input content is rejected.
var refusalPhrases = []string{
	"风控",
	"敏感内容",
	"risk control",
	"content policy",
}

func IsRefusalMessage(message string) bool {
	for _, phrase := range refusalPhrases {
		if strings.Contains(message, phrase) {
			return true
		}
	}
	return false
}

type WorkflowIDStrategy interface {
	ExtractWorkflowID(body []byte) (string, error)
}

// KlingWorkflowStrategy reads the task id out of a kling submit response.
type KlingWorkflowStrategy struct{}

func (k *KlingWorkflowStrategy) ExtractWorkflowID(body []byte) (string, error) {
	var s struct {
		Data struct {
			TaskID string `json:"task_id"`
		} `json:"data"`
		ID     string `json:"id"`
		TaskID string `json:"task_id"`
	}
	if err := jsoniter.Unmarshal(body, &s); err != nil {
		return "", err
	}
	switch {
	case s.Data.TaskID != "":
		return s.Data.TaskID, nil
	case s.TaskID != "":
		return s.TaskID, nil
	case s.ID != "":
		return s.ID, nil
	}
	return "", fmt.Errorf("task id not found in body")
}

type SubmitParser struct {
	workflowIDStrategy WorkflowIDStrategy
}

func NewSubmitParser(workflowIDStrategy WorkflowIDStrategy) *SubmitParser {
	return &SubmitParser{workflowIDStrategy: workflowIDStrategy}
}

func (s *SubmitParser) Parse(resp *http.Response, response SubmitResponse) error {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	response.SetBasicResponse(resp.StatusCode, string(body))
	if resp.StatusCode != http.StatusOK {
		if IsRefusalMessage(string(body)) {
			response.SetError(PromptError)
		} else {
			response.SetError(StatusCodeError)
		}
		return nil
	}
	workflowID, err := s.workflowIDStrategy.ExtractWorkflowID(body)
	if err != nil {
		if IsRefusalMessage(string(body)) {
			response.SetError(PromptError)
		} else {
			response.SetError(NoWorkflowError)
		}
		return nil
	}
	response.SetWorkflowID(workflowID)
	return nil
}

type StatusStrategy interface {
	ExtractStatus(body []byte) (JobStatus, error)
}

// KlingStatusStrategy maps kling task states onto the three job states.
type KlingStatusStrategy struct{}

func (k *KlingStatusStrategy) ExtractStatus(body []byte) (JobStatus, error) {
	var s struct {
		Data struct {
			TaskStatus    string `json:"task_status"`
			TaskStatusMsg string `json:"task_status_msg"`
			TaskResult    struct {
				Videos []struct {
					URL string `json:"url"`
				} `json:"videos"`
			} `json:"task_result"`
		} `json:"data"`
	}
	if err := jsoniter.Unmarshal(body, &s); err != nil {
		return JobStatus{}, err
	}
	switch s.Data.TaskStatus {
	case "submitted", "processing", "queued", "pending":
		return JobStatus{State: StateProcessing}, nil
	case "succeed", "succeeded", "completed":
		status := JobStatus{State: StateCompleted}
		if len(s.Data.TaskResult.Videos) > 0 {
			status.ResultURL = s.Data.TaskResult.Videos[0].URL
		}
		if status.ResultURL == "" {
			return JobStatus{}, fmt.Errorf("completed task carries no video url")
		}
		return status, nil
	case "failed":
		return JobStatus{State: StateFailed, Message: s.Data.TaskStatusMsg}, nil
	}
	return JobStatus{}, fmt.Errorf("unknown task status %q", s.Data.TaskStatus)
}

type StatusParser struct {
	statusStrategy StatusStrategy
}

func NewStatusParser(statusStrategy StatusStrategy) *StatusParser {
	return &StatusParser{statusStrategy: statusStrategy}
}

func (s *StatusParser) Parse(resp *http.Response, response StatusResponse) error {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	response.SetBasicResponse(resp.StatusCode, string(body))
	if resp.StatusCode != http.StatusOK {
		response.SetError(StatusCodeError)
		return nil
	}
	status, err := s.statusStrategy.ExtractStatus(body)
	if err != nil {
		response.SetError(err)
		return nil
	}
	response.SetState(status.State)
	response.SetResultURL(status.ResultURL)
	response.SetMessage(status.Message)
	return nil
}

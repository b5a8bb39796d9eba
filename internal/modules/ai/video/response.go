package video

import "time"

type JobState string

const (
	StateProcessing JobState = "processing"
	StateCompleted  JobState = "completed"
	StateFailed     JobState = "failed"
)

// JobStatus is one poll observation of a submitted workflow.
type JobStatus struct {
	State     JobState `json:"state"`
	ResultURL string   `json:"result_url"`
	Message   string   `json:"message"`
}

type SubmitResponse interface {
	GetWorkflowID() string
	GetStatusCode() int
	GetRespBody() string
	ReqConsumeMs() int64
	GetTaskKey() string
	Succeed() bool
	GetError() error

	SetBasicResponse(statusCode int, respBody string)
	SetWorkflowID(id string)
	SetReqAt(reqAt time.Time)
	SetRespAt(respAt time.Time)
	SetTaskKey(taskKey string)
	SetError(err error)
}

type BaseSubmitResponse struct {
	Supplier   string    `json:"supplier"`
	TokenDesc  string    `json:"token_desc"`
	Model      string    `json:"model"`
	StatusCode int       `json:"status_code"`
	RespBody   string    `json:"resp_body"`
	ReqAt      time.Time `json:"req_at"`
	RespAt     time.Time `json:"resp_at"`
	WorkflowID string    `json:"workflow_id"`
	Error      error     `json:"error,omitempty"`
	TaskKey    string    `json:"task_key"`
}

func (r *BaseSubmitResponse) GetWorkflowID() string { return r.WorkflowID }
func (r *BaseSubmitResponse) GetStatusCode() int    { return r.StatusCode }
func (r *BaseSubmitResponse) GetRespBody() string   { return r.RespBody }
func (r *BaseSubmitResponse) GetTaskKey() string    { return r.TaskKey }
func (r *BaseSubmitResponse) GetError() error       { return r.Error }
func (r *BaseSubmitResponse) Succeed() bool         { return r.WorkflowID != "" }
func (r *BaseSubmitResponse) ReqConsumeMs() int64   { return r.RespAt.Sub(r.ReqAt).Milliseconds() }

func (r *BaseSubmitResponse) SetBasicResponse(statusCode int, respBody string) {
	r.StatusCode = statusCode
	r.RespBody = respBody
}
func (r *BaseSubmitResponse) SetWorkflowID(id string)    { r.WorkflowID = id }
func (r *BaseSubmitResponse) SetReqAt(reqAt time.Time)   { r.ReqAt = reqAt }
func (r *BaseSubmitResponse) SetRespAt(respAt time.Time) { r.RespAt = respAt }
func (r *BaseSubmitResponse) SetTaskKey(taskKey string)  { r.TaskKey = taskKey }
func (r *BaseSubmitResponse) SetError(err error)         { r.Error = err }

type StatusResponse interface {
	GetState() JobState
	GetResultURL() string
	GetMessage() string
	GetStatusCode() int
	GetRespBody() string
	GetTaskKey() string
	GetError() error

	SetBasicResponse(statusCode int, respBody string)
	SetState(state JobState)
	SetResultURL(url string)
	SetMessage(message string)
	SetReqAt(reqAt time.Time)
	SetRespAt(respAt time.Time)
	SetTaskKey(taskKey string)
	SetError(err error)
}

type BaseStatusResponse struct {
	Supplier   string    `json:"supplier"`
	TokenDesc  string    `json:"token_desc"`
	StatusCode int       `json:"status_code"`
	RespBody   string    `json:"resp_body"`
	ReqAt      time.Time `json:"req_at"`
	RespAt     time.Time `json:"resp_at"`
	State      JobState  `json:"state"`
	ResultURL  string    `json:"result_url"`
	Message    string    `json:"message"`
	Error      error     `json:"error,omitempty"`
	TaskKey    string    `json:"task_key"`
}

func (r *BaseStatusResponse) GetState() JobState   { return r.State }
func (r *BaseStatusResponse) GetResultURL() string { return r.ResultURL }
func (r *BaseStatusResponse) GetMessage() string   { return r.Message }
func (r *BaseStatusResponse) GetStatusCode() int   { return r.StatusCode }
func (r *BaseStatusResponse) GetRespBody() string  { return r.RespBody }
func (r *BaseStatusResponse) GetTaskKey() string   { return r.TaskKey }
func (r *BaseStatusResponse) GetError() error      { return r.Error }

func (r *BaseStatusResponse) SetBasicResponse(statusCode int, respBody string) {
	r.StatusCode = statusCode
	r.RespBody = respBody
}
func (r *BaseStatusResponse) SetState(state JobState)    { r.State = state }
func (r *BaseStatusResponse) SetResultURL(url string)    { r.ResultURL = url }
func (r *BaseStatusResponse) SetMessage(message string)  { r.Message = message }
func (r *BaseStatusResponse) SetReqAt(reqAt time.Time)   { r.ReqAt = reqAt }
func (r *BaseStatusResponse) SetRespAt(respAt time.Time) { r.RespAt = respAt }
func (r *BaseStatusResponse) SetTaskKey(taskKey string)  { r.TaskKey = taskKey }
func (r *BaseStatusResponse) SetError(err error)         { r.Error = err }

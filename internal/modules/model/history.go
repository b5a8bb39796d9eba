package model

import (
	"time"
)

// InvokeHistory keeps one row per supplier call, including the losing
// attempts of a fallback walk, so channel quality can be reviewed later.
type InvokeHistory struct {
	Id             int       `json:"id" gorm:"primaryKey"`
	TaskKey        string    `json:"task_key" gorm:"column:task_key;type:varchar(50);index"`
	TaskClass      string    `json:"task_class" gorm:"column:task_class;type:varchar(10)"`
	SupplierName   string    `json:"supplier_name" gorm:"column:supplier_name;type:varchar(20)"`
	TokenDesc      string    `json:"token_desc" gorm:"column:token_desc;type:varchar(20)"`
	ModelName      string    `json:"model_name" gorm:"column:model_name;type:varchar(30)"`
	StatusCode     int       `json:"status_code" gorm:"column:status_code;type:int"`
	Succeed        bool      `json:"succeed" gorm:"column:succeed"`
	FailedRespBody string    `json:"failed_resp_body" gorm:"column:failed_resp_body;type:varchar(2000)"`
	DurationMs     int64     `json:"duration_ms" gorm:"column:duration_ms;type:int"`
	CreatedAt      time.Time `json:"created_at" gorm:"column:created_at;type:datetime;not null;default:CURRENT_TIMESTAMP"`
}

func (InvokeHistory) TableName() string {
	return "invoke_history"
}

// OutputArtifact is one delivered result URL.
type OutputArtifact struct {
	Id        int       `json:"id" gorm:"primaryKey"`
	TaskKey   string    `json:"task_key" gorm:"column:task_key;type:varchar(50);index"`
	TaskClass string    `json:"task_class" gorm:"column:task_class;type:varchar(10)"`
	URL       string    `json:"url" gorm:"column:url;type:varchar(1000)"`
	CreatedAt time.Time `json:"created_at" gorm:"column:created_at;type:datetime;not null;default:CURRENT_TIMESTAMP"`
}

func (OutputArtifact) TableName() string {
	return "output_artifact"
}

package dao

import (
	"context"

	"github.com/reusedev/batch-hub/internal/components/mysql"
	"github.com/reusedev/batch-hub/internal/modules/batch"
	"github.com/reusedev/batch-hub/internal/modules/logs"
	"github.com/reusedev/batch-hub/internal/modules/model"
)

// Recorder persists run history through gorm. Use only after InitMySQL.
// Writes are best effort, a failed insert never fails the task.
type Recorder struct{}

func (Recorder) RecordInvoke(ctx context.Context, record batch.InvokeRecord) {
	row := model.InvokeHistory{
		TaskKey:        record.TaskKey,
		TaskClass:      record.Class,
		SupplierName:   record.Supplier,
		TokenDesc:      record.TokenDesc,
		ModelName:      record.Model,
		StatusCode:     record.StatusCode,
		Succeed:        record.Succeed,
		FailedRespBody: record.FailBody,
		DurationMs:     record.ConsumeMs,
	}
	err := mysql.DB.WithContext(ctx).Model(&model.InvokeHistory{}).Create(&row).Error
	if err != nil {
		logs.Logger.Err(err).Str("task_key", record.TaskKey).Msg("persist invoke history failed")
	}
}

func (Recorder) RecordArtifact(ctx context.Context, record batch.ArtifactRecord) {
	row := model.OutputArtifact{
		TaskKey:   record.TaskKey,
		TaskClass: record.Class,
		URL:       record.URL,
	}
	err := mysql.DB.WithContext(ctx).Model(&model.OutputArtifact{}).Create(&row).Error
	if err != nil {
		logs.Logger.Err(err).Str("task_key", record.TaskKey).Msg("persist artifact failed")
	}
}

func InvokeHistoryByTaskKey(key string) ([]model.InvokeHistory, error) {
	var rows []model.InvokeHistory
	err := mysql.DB.Model(&model.InvokeHistory{}).Where("task_key = ?", key).Order("id").Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func LatestInvokeHistory(limit int) ([]model.InvokeHistory, error) {
	var rows []model.InvokeHistory
	err := mysql.DB.Model(&model.InvokeHistory{}).Order("id desc").Limit(limit).Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func LatestArtifacts(limit int) ([]model.OutputArtifact, error) {
	var rows []model.OutputArtifact
	err := mysql.DB.Model(&model.OutputArtifact{}).Order("id desc").Limit(limit).Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

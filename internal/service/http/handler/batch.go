package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/reusedev/batch-hub/internal/components/mysql"
	"github.com/reusedev/batch-hub/internal/modules/batch"
	"github.com/reusedev/batch-hub/internal/modules/dao"
	"github.com/reusedev/batch-hub/internal/modules/export"
	"github.com/reusedev/batch-hub/internal/modules/logs"
	"github.com/reusedev/batch-hub/internal/service/http/handler/request"
	"github.com/reusedev/batch-hub/internal/service/http/handler/response"
)

func StartBatch(c *gin.Context) {
	form := request.StartBatch{}
	err := c.ShouldBindJSON(&form)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.ParamError)
		return
	}
	if err := form.Valid(); err != nil {
		c.JSON(http.StatusBadRequest, response.ParamErrorWithMessage(err.Error()))
		return
	}
	keys, err := orchestrator.StartBatch(form.ToBatchRequest())
	if err != nil {
		c.JSON(http.StatusBadRequest, response.ParamErrorWithMessage(err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.SuccessWithData(response.StartBatch{
		BatchStamp: keys[0].BatchStamp,
		Keys:       keys,
	}))
}

func BatchResults(c *gin.Context) {
	c.JSON(http.StatusOK, response.SuccessWithData(orchestrator.Results()))
}

func BatchProgress(c *gin.Context) {
	c.JSON(http.StatusOK, response.SuccessWithData(orchestrator.Progress()))
}

func RetryTask(c *gin.Context) {
	key := batch.Key{}
	err := c.ShouldBindJSON(&key)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.ParamError)
		return
	}
	if err := orchestrator.RetryOne(key); err != nil {
		c.JSON(http.StatusBadRequest, response.ParamErrorWithMessage(err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.SuccessWithData(key))
}

func RetryAllTasks(c *gin.Context) {
	keys := orchestrator.RetryAll()
	c.JSON(http.StatusOK, response.SuccessWithData(response.Retried{
		Count: len(keys),
		Keys:  keys,
	}))
}

func RemoveResult(c *gin.Context) {
	key := batch.Key{}
	err := c.ShouldBindJSON(&key)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.ParamError)
		return
	}
	if !orchestrator.Remove(key) {
		c.JSON(http.StatusBadRequest, response.ParamErrorWithMessage("no result for key "+key.String()))
		return
	}
	c.JSON(http.StatusOK, response.SuccessWithData(key))
}

func ClearResults(c *gin.Context) {
	removed := orchestrator.Clear()
	c.JSON(http.StatusOK, response.SuccessWithData(response.Cleared{Removed: removed}))
}

func ExportBatch(c *gin.Context) {
	var items []export.Item
	for _, result := range orchestrator.Results() {
		if result.Status != batch.StatusSuccess {
			continue
		}
		for _, u := range result.URLs {
			items = append(items, export.Item{Key: result.Key.String(), URL: u})
		}
	}
	if len(items) == 0 {
		c.JSON(http.StatusBadRequest, response.ParamErrorWithMessage("no successful results to export"))
		return
	}
	data, err := export.Archive(c.Request.Context(), items, export.Options{
		Thumbnails: c.Query("thumbs") == "1",
	})
	if err != nil {
		logs.Logger.Err(err).Msg("batch-ExportBatch")
		c.JSON(http.StatusInternalServerError, response.InternalError)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="batch-export.zip"`)
	c.Data(http.StatusOK, "application/zip", data)
}

func BatchHistory(c *gin.Context) {
	if mysql.DB == nil {
		c.JSON(http.StatusBadRequest, response.ParamErrorWithMessage("history persistence is disabled"))
		return
	}
	if taskKey := c.Query("task_key"); taskKey != "" {
		rows, err := dao.InvokeHistoryByTaskKey(taskKey)
		if err != nil {
			logs.Logger.Err(err).Msg("batch-BatchHistory")
			c.JSON(http.StatusInternalServerError, response.InternalError)
			return
		}
		c.JSON(http.StatusOK, response.SuccessWithData(rows))
		return
	}
	limit := 100
	if raw := c.Query("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}
	rows, err := dao.LatestInvokeHistory(limit)
	if err != nil {
		logs.Logger.Err(err).Msg("batch-BatchHistory")
		c.JSON(http.StatusInternalServerError, response.InternalError)
		return
	}
	c.JSON(http.StatusOK, response.SuccessWithData(rows))
}

package http

import (
	"github.com/gin-gonic/gin"

	"github.com/reusedev/batch-hub/config"
	"github.com/reusedev/batch-hub/internal/service/http/handler"
	"github.com/reusedev/batch-hub/internal/service/http/middleware"
)

func Serve(port string) {
	if err := Router().Run(port); err != nil {
		panic(err)
	}
}

func Router() *gin.Engine {
	e := gin.New()
	initRouter(e)
	return e
}

func initRouter(e *gin.Engine) {
	e.Use(gin.Recovery(), middleware.RequestLogger())
	if cfg := config.GConfig; cfg != nil && cfg.StorageEnabled && cfg.StorageSupplier == "local" {
		e.Static("/files", cfg.Local.Dir)
	}
	v1 := e.Group("/v1")
	images := v1.Group("/images")
	{
		images.POST("", handler.UploadImage)
	}
	batch := v1.Group("/batch")
	{
		batch.POST("", handler.StartBatch)
		batch.GET("/results", handler.BatchResults)
		batch.GET("/progress", handler.BatchProgress)
		batch.POST("/retry", handler.RetryTask)
		batch.POST("/retry-all", handler.RetryAllTasks)
		batch.POST("/remove", handler.RemoveResult)
		batch.POST("/clear", handler.ClearResults)
		batch.GET("/export", handler.ExportBatch)
		batch.GET("/history", handler.BatchHistory)
	}
	prompt := v1.Group("/prompt")
	{
		prompt.POST("/enhance", handler.EnhancePrompt)
	}
}

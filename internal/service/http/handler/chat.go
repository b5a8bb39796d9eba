package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/reusedev/batch-hub/internal/modules/ai/chat"
	"github.com/reusedev/batch-hub/internal/modules/logs"
	"github.com/reusedev/batch-hub/internal/service/http/handler/request"
	"github.com/reusedev/batch-hub/internal/service/http/handler/response"
)

func EnhancePrompt(c *gin.Context) {
	form := request.Enhance{}
	err := c.ShouldBindJSON(&form)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.ParamError)
		return
	}
	if err := form.Valid(); err != nil {
		c.JSON(http.StatusBadRequest, response.ParamErrorWithMessage(err.Error()))
		return
	}
	prompt, err := chat.EnhancePrompt(c.Request.Context(), form.Idea)
	if err != nil {
		logs.Logger.Err(err).Msg("chat-EnhancePrompt")
		c.JSON(http.StatusInternalServerError, response.InternalError)
		return
	}
	c.JSON(http.StatusOK, response.SuccessWithData(response.Enhance{Prompt: prompt}))
}

package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/reusedev/batch-hub/internal/modules/logs"
	"github.com/reusedev/batch-hub/internal/service/http/handler/request"
	"github.com/reusedev/batch-hub/internal/service/http/handler/response"
)

// UploadImage rehosts a source asset ahead of a batch, so the caller
// can reuse one stable URL across many prompt variants.
func UploadImage(c *gin.Context) {
	if uploader == nil {
		c.JSON(http.StatusBadRequest, response.ParamErrorWithMessage("storage is disabled"))
		return
	}
	form := request.UploadImage{}
	err := c.ShouldBind(&form)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.ParamError)
		return
	}
	if err := form.Valid(); err != nil {
		c.JSON(http.StatusBadRequest, response.ParamErrorWithMessage(err.Error()))
		return
	}
	data, name, err := form.Content(c.Request.Context())
	if err != nil {
		logs.Logger.Err(err).Msg("image-UploadImage")
		c.JSON(http.StatusBadRequest, response.ParamErrorWithMessage(err.Error()))
		return
	}
	hosted, err := uploader.Upload(c.Request.Context(), data, name)
	if err != nil {
		logs.Logger.Err(err).Msg("image-UploadImage")
		c.JSON(http.StatusInternalServerError, response.InternalError)
		return
	}
	c.JSON(http.StatusOK, response.SuccessWithData(response.Upload{
		URL:  hosted,
		Name: name,
	}))
}

package video

import (
	"bytes"
	"fmt"
	"io"
	"strconv"

	jsoniter "github.com/json-iterator/go"

	"github.com/reusedev/batch-hub/internal/consts"
)

type Request[T any] interface {
	BodyContentType(supplier consts.ModelSupplier) (io.Reader, string, error)
	Path(supplier consts.ModelSupplier) string
	InitResponse(supplier string, tokenDesc string) T
}

// AnimateRequest submits an image-to-video job in the kling API shape
// the aggregator channels proxy.
type AnimateRequest struct {
	Model    string `json:"model"`
	ImageURL string `json:"image_url"`
	Prompt   string `json:"prompt"`
	Duration int    `json:"duration"`
}

func (g *AnimateRequest) BodyContentType(supplier consts.ModelSupplier) (io.Reader, string, error) {
	duration := g.Duration
	if duration == 0 {
		duration = 5
	}
	body := map[string]interface{}{
		"model_name": g.Model,
		"mode":       "std",
		"image":      g.ImageURL,
		"prompt":     g.Prompt,
		"duration":   strconv.Itoa(duration),
	}
	data, err := jsoniter.Marshal(body)
	if err != nil {
		return nil, "", err
	}
	return bytes.NewBuffer(data), "application/json", nil
}

func (g *AnimateRequest) Path(supplier consts.ModelSupplier) string {
	return "kling/v1/videos/image2video"
}

func (g *AnimateRequest) InitResponse(supplier string, tokenDesc string) SubmitResponse {
	return &BaseSubmitResponse{
		Supplier:  supplier,
		TokenDesc: tokenDesc,
		Model:     g.Model,
	}
}

type StatusRequest struct {
	WorkflowID string `json:"workflow_id"`
}

func (g *StatusRequest) BodyContentType(supplier consts.ModelSupplier) (io.Reader, string, error) {
	return nil, "application/json", nil
}

func (g *StatusRequest) Path(supplier consts.ModelSupplier) string {
	return fmt.Sprintf("kling/v1/videos/image2video/%s", g.WorkflowID)
}

func (g *StatusRequest) InitResponse(supplier string, tokenDesc string) StatusResponse {
	return &BaseStatusResponse{
		Supplier:  supplier,
		TokenDesc: tokenDesc,
	}
}

package image

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"

	jsoniter "github.com/json-iterator/go"

	"github.com/reusedev/batch-hub/internal/consts"
)

type Request[T any] interface {
	BodyContentType(supplier consts.ModelSupplier) (io.Reader, string, error)
	Path(supplier consts.ModelSupplier) string
	InitResponse(supplier string, tokenDesc string) T
}

// Image1Request edits source images through the images/edits endpoint.
type Image1Request struct {
	ImageBytes [][]byte `json:"image_bytes"`
	Prompt     string   `json:"prompt"`
	Quality    string   `json:"quality"`
	Size       string   `json:"size"`
}

func (g *Image1Request) BodyContentType(supplier consts.ModelSupplier) (io.Reader, string, error) {
	if supplier == consts.Geek {
		body := map[string]interface{}{}
		body["model"] = consts.GPTImage1.String()
		body["n"] = 1
		body["prompt"] = g.Prompt
		var images []string
		for _, img := range g.ImageBytes {
			images = append(images, base64.StdEncoding.EncodeToString(img))
		}
		body["image"] = images
		if g.Size != "" {
			body["size"] = g.Size
		}
		if g.Quality != "" {
			body["quality"] = g.Quality
		}
		b, err := jsoniter.Marshal(body)
		if err != nil {
			return nil, "", err
		}
		return bytes.NewBuffer(b), "application/json", nil
	}
	payload := &bytes.Buffer{}
	writer := multipart.NewWriter(payload)
	for _, b := range g.ImageBytes {
		header := make(textproto.MIMEHeader)
		header.Set("Content-Type", http.DetectContentType(b))
		header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="image"; filename="%s"`, "image.png"))
		filePart, err := writer.CreatePart(header)
		if err != nil {
			return nil, "", err
		}
		if _, err = filePart.Write(b); err != nil {
			return nil, "", err
		}
	}
	_ = writer.WriteField("prompt", g.Prompt)
	_ = writer.WriteField("model", consts.GPTImage1.String())
	if g.Quality != "" {
		_ = writer.WriteField("quality", g.Quality)
	}
	if g.Size != "" {
		_ = writer.WriteField("size", g.Size)
	}
	if err := writer.Close(); err != nil {
		return nil, "", err
	}
	return payload, writer.FormDataContentType(), nil
}

func (g *Image1Request) Path(supplier consts.ModelSupplier) string {
	return "v1/images/edits"
}

func (g *Image1Request) InitResponse(supplier string, tokenDesc string) Response {
	return &BaseResponse{
		Supplier:  supplier,
		TokenDesc: tokenDesc,
		Model:     consts.GPTImage1.String(),
		URLs:      []string{},
	}
}

// FlashImageRequest edits source images through chat completions, the
// answer carries result links as markdown.
type FlashImageRequest struct {
	Model      string   `json:"model"`
	ImageURLs  []string `json:"image_urls"`
	ImageBytes [][]byte `json:"image_bytes"`
	Prompt     string   `json:"prompt"`
}

func (g *FlashImageRequest) BodyContentType(supplier consts.ModelSupplier) (io.Reader, string, error) {
	content := []map[string]interface{}{
		{
			"type": "text",
			"text": g.Prompt,
		},
	}
	for _, u := range g.ImageURLs {
		content = append(content, map[string]interface{}{
			"type": "image_url",
			"image_url": map[string]string{
				"url": u,
			},
		})
	}
	for _, img := range g.ImageBytes {
		content = append(content, map[string]interface{}{
			"type": "image_url",
			"image_url": map[string]string{
				"url": "data:image/png;base64," + base64.StdEncoding.EncodeToString(img),
			},
		})
	}
	body := map[string]interface{}{
		"model":  g.Model,
		"stream": false,
		"messages": []map[string]interface{}{
			{
				"role":    "user",
				"content": content,
			},
		},
	}
	data, err := jsoniter.Marshal(body)
	if err != nil {
		return nil, "", err
	}
	return bytes.NewBuffer(data), "application/json", nil
}

func (g *FlashImageRequest) Path(supplier consts.ModelSupplier) string {
	return "v1/chat/completions"
}

func (g *FlashImageRequest) InitResponse(supplier string, tokenDesc string) Response {
	return &BaseResponse{
		Supplier:  supplier,
		TokenDesc: tokenDesc,
		Model:     g.Model,
		URLs:      []string{},
	}
}

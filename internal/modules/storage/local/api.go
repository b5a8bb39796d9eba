package local

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/reusedev/batch-hub/config"
	"github.com/reusedev/batch-hub/tools"
)

// Client keeps uploaded assets on the local disk. Links point at the
// /files route the HTTP server mounts over Dir, or stay relative when
// no base URL is configured.
type Client struct {
	dir     string
	baseURL string
}

func New(cfg config.Local) *Client {
	return &Client{dir: cfg.Dir, baseURL: cfg.BaseURL}
}

func (c *Client) Dir() string {
	return c.dir
}

func (c *Client) Upload(ctx context.Context, data []byte, filename string) (string, error) {
	ext := filepath.Ext(filename)
	if ext == "" {
		ext = "." + tools.DetectImageType(data).String()
	}
	name := uuid.New().String() + ext
	if err := SaveFile(bytes.NewReader(data), filepath.Join(c.dir, name)); err != nil {
		return "", err
	}
	if c.baseURL == "" {
		return "/files/" + name, nil
	}
	return tools.FullURL(c.baseURL, "files/"+name), nil
}

func SaveFile(f io.Reader, path string) error {
	dir := filepath.Dir(path)
	err := os.MkdirAll(dir, 0770)
	if err != nil {
		return err
	}

	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}
	defer file.Close()
	_, err = io.Copy(file, f)
	if err != nil {
		return err
	}
	return nil
}

func DeleteFile(path string) error {
	return os.Remove(path)
}

package request

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"

	"github.com/reusedev/batch-hub/tools"
)

type UploadImage struct {
	File *multipart.FileHeader `form:"file"` // preferred over url when both are set
	URL  string                `form:"url"`
}

func (u *UploadImage) Valid() error {
	if u.File == nil && u.URL == "" {
		return fmt.Errorf("must fill file or url")
	}
	return nil
}

// Content returns the asset bytes and a filename for them.
func (u *UploadImage) Content(ctx context.Context) ([]byte, string, error) {
	if u.File != nil {
		f, err := u.File.Open()
		if err != nil {
			return nil, "", err
		}
		defer f.Close()
		data, err := io.ReadAll(f)
		if err != nil {
			return nil, "", err
		}
		return data, u.File.Filename, nil
	}
	return tools.GetOnlineAsset(ctx, u.URL)
}

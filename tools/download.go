package tools

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"time"

	"github.com/reusedev/batch-hub/internal/modules/http_client"
)

const assetFetchTimeout = 2 * time.Minute

// GetOnlineAsset downloads a generated asset (image or video) and returns
// its payload together with the filename taken from the URL path.
func GetOnlineAsset(ctx context.Context, rawURL string) ([]byte, string, error) {
	client := http_client.NewWithTimeout(assetFetchTimeout)
	req, err := client.NewRequest(http.MethodGet, rawURL, http_client.WithContext(ctx))
	if err != nil {
		return nil, "", err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("fetch asset %s: unexpected status %d", rawURL, resp.StatusCode)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", err
	}
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return nil, "", err
	}
	name := path.Base(parsed.Path)
	if name == "" || name == "." || name == "/" {
		name = "asset"
	}
	return data, name, nil
}

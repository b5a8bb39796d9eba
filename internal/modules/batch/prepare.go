package batch

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/reusedev/batch-hub/internal/modules/cache"
	"github.com/reusedev/batch-hub/tools"
)

const preparedURLTTL = 30 * time.Minute

// DefaultPreparer turns caller-supplied sources into the shape the
// suppliers accept. Decoded uploads are content addressed so repeated
// batches over the same asset reuse one hosted URL.
type DefaultPreparer struct {
	Uploader Uploader
}

func (p *DefaultPreparer) Prepare(ctx context.Context, source SourceInput) (PreparedInput, error) {
	switch {
	case source.URL != "":
		data, _, err := tools.GetOnlineAsset(ctx, source.URL)
		if err != nil {
			return PreparedInput{}, fmt.Errorf("fetch source: %w", err)
		}
		return PreparedInput{Bytes: data, PublicURL: source.URL, Hash: contentHash(data)}, nil
	case source.B64 != "":
		data, err := base64.StdEncoding.DecodeString(stripDataURI(source.B64))
		if err != nil {
			return PreparedInput{}, fmt.Errorf("decode source: %w", err)
		}
		hash := contentHash(data)
		prepared := PreparedInput{Bytes: data, Hash: hash}
		if p.Uploader == nil {
			return prepared, nil
		}
		if hosted, err := cache.PreparedURLManager().GetValue(hash); err == nil && hosted != "" {
			prepared.PublicURL = hosted
			return prepared, nil
		}
		name := fmt.Sprintf("source-%s.%s", hash[:8], tools.DetectImageType(data))
		hosted, err := p.Uploader.Upload(ctx, data, name)
		if err != nil {
			return PreparedInput{}, fmt.Errorf("rehost source: %w", err)
		}
		_ = cache.PreparedURLManager().SetWithExpiration(hash, hosted, preparedURLTTL)
		prepared.PublicURL = hosted
		return prepared, nil
	}
	return PreparedInput{}, errors.New("source has neither url nor b64 payload")
}

func contentHash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// stripDataURI drops a data URI prefix like "data:image/png;base64,"
// when the caller pasted one in.
func stripDataURI(b64 string) string {
	if idx := strings.Index(b64, "base64,"); idx >= 0 {
		return b64[idx+len("base64,"):]
	}
	return b64
}

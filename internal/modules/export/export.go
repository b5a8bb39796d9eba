package export

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/disintegration/imaging"

	"github.com/reusedev/batch-hub/internal/modules/logs"
	"github.com/reusedev/batch-hub/tools"
)

// Item is one finished result to pack.
type Item struct {
	Key string
	URL string
}

type Options struct {
	Thumbnails  bool
	ThumbMaxDim int // default 512
}

type Asset struct {
	Filename string
	Data     []byte
}

// Archive fetches every item and packs them into one ZIP. Items that
// cannot be fetched are skipped, a partial archive beats none.
func Archive(ctx context.Context, items []Item, opts Options) ([]byte, error) {
	log := logs.Component("export")
	maxDim := opts.ThumbMaxDim
	if maxDim <= 0 {
		maxDim = 512
	}
	var assets []Asset
	used := make(map[string]struct{})
	for _, item := range items {
		data, name, err := fetchItem(ctx, item)
		if err != nil {
			log.Warn().Err(err).Str("key", item.Key).Msg("skipping unfetchable item")
			continue
		}
		name = uniqueName(used, name)
		assets = append(assets, Asset{Filename: name, Data: data})
		if opts.Thumbnails {
			if thumb, ok := thumbnail(data, maxDim); ok {
				assets = append(assets, Asset{Filename: "thumbs/" + name, Data: thumb})
			}
		}
	}
	if len(assets) == 0 {
		return nil, errors.New("no exportable assets")
	}
	return pack(assets)
}

func pack(assets []Asset) ([]byte, error) {
	buf := &bytes.Buffer{}
	zw := zip.NewWriter(buf)
	for _, asset := range assets {
		w, err := zw.Create(asset.Filename)
		if err != nil {
			return nil, err
		}
		if _, err := w.Write(asset.Data); err != nil {
			return nil, err
		}
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func fetchItem(ctx context.Context, item Item) ([]byte, string, error) {
	if strings.HasPrefix(item.URL, "data:") {
		idx := strings.Index(item.URL, "base64,")
		if idx < 0 {
			return nil, "", errors.New("unsupported data uri")
		}
		data, err := base64.StdEncoding.DecodeString(item.URL[idx+len("base64,"):])
		if err != nil {
			return nil, "", err
		}
		return data, keyedName(item.Key, data), nil
	}
	data, name, err := tools.GetOnlineAsset(ctx, item.URL)
	if err != nil {
		return nil, "", err
	}
	if path.Ext(name) == "" {
		name = keyedName(item.Key, data)
	}
	return data, name, nil
}

// keyedName derives a filename from the result key when the URL does
// not carry a usable one.
func keyedName(key string, data []byte) string {
	safe := strings.NewReplacer("/", "-", "@", "-").Replace(key)
	return fmt.Sprintf("%s.%s", safe, tools.DetectImageType(data))
}

func uniqueName(used map[string]struct{}, name string) string {
	candidate := name
	ext := path.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	for i := 2; ; i++ {
		if _, taken := used[candidate]; !taken {
			used[candidate] = struct{}{}
			return candidate
		}
		candidate = fmt.Sprintf("%s-%d%s", stem, i, ext)
	}
}

func thumbnail(data []byte, maxDim int) ([]byte, bool) {
	var format imaging.Format
	switch tools.DetectImageType(data) {
	case tools.ImageTypePNG:
		format = imaging.PNG
	case tools.ImageTypeJPEG:
		format = imaging.JPEG
	case tools.ImageTypeGIF:
		format = imaging.GIF
	default:
		// Videos and unknown payloads ship without a preview.
		return nil, false
	}
	out, err := tools.Thumbnail(bytes.NewReader(data), maxDim, format)
	if err != nil {
		return nil, false
	}
	return out, true
}

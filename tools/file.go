package tools

import (
	"bytes"
	"os"
)

func ReadFile(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return nil, err
	}
	data := make([]byte, info.Size())
	_, err = f.Read(data)
	if err != nil {
		return nil, err
	}
	return data, nil
}

func PanicOnError[T any](v T, e error) T {
	if e != nil {
		panic(e)
	}
	return v
}

type ImageType string

const (
	ImageTypePNG     ImageType = "png"
	ImageTypeJPEG    ImageType = "jpeg"
	ImageTypeWEBP    ImageType = "webp"
	ImageTypeGIF     ImageType = "gif"
	ImageTypeUnknown ImageType = "bin"
)

func (t ImageType) String() string {
	return string(t)
}

// DetectImageType sniffs magic bytes. Unknown payloads report "bin" so
// callers can still build a storage key from the result.
func DetectImageType(data []byte) ImageType {
	switch {
	case len(data) >= 8 && bytes.Equal(data[:8], []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}):
		return ImageTypePNG
	case len(data) >= 3 && bytes.Equal(data[:3], []byte{0xFF, 0xD8, 0xFF}):
		return ImageTypeJPEG
	case len(data) >= 12 && bytes.Equal(data[:4], []byte("RIFF")) && bytes.Equal(data[8:12], []byte("WEBP")):
		return ImageTypeWEBP
	case len(data) >= 6 && (bytes.Equal(data[:6], []byte("GIF87a")) || bytes.Equal(data[:6], []byte("GIF89a"))):
		return ImageTypeGIF
	default:
		return ImageTypeUnknown
	}
}

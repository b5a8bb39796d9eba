package tools

import (
	"bytes"
	"io"

	"github.com/disintegration/imaging"
)

// Thumbnail scales the image down so that neither side exceeds maxDim,
// preserving aspect ratio. Images already within bounds are re-encoded
// unchanged.
func Thumbnail(reader io.Reader, maxDim int, format imaging.Format) ([]byte, error) {
	img, err := imaging.Decode(reader)
	if err != nil {
		return nil, err
	}
	bounds := img.Bounds()
	if bounds.Dx() > maxDim || bounds.Dy() > maxDim {
		img = imaging.Fit(img, maxDim, maxDim, imaging.Lanczos)
	}
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, format); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
